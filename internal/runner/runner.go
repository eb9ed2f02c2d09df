package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goalie-study/goalie-backend/internal/config"
	"github.com/goalie-study/goalie-backend/internal/flows"
	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/repos"
	"github.com/goalie-study/goalie-backend/internal/services"
	"github.com/goalie-study/goalie-backend/internal/types"
)

// ErrUnknownStep marks a flow-table misconfiguration. It is fatal for the
// request: a participant can only reach an unknown key through a bad deploy.
var ErrUnknownStep = errors.New("unknown step key")

// Runner interprets the active flow for a participant, applies their
// events, and persists a state snapshot after every transition. One
// invocation performs at most one transition; the client polls while
// Render.Pending is set to drain queued output.
type Runner struct {
	log         *logger.Logger
	cfg         config.StudyConfig
	users       services.UserService
	goals       services.GoalService
	reflections services.ReflectionService
	transcript  services.TranscriptService
	sessions    services.SessionStateService
	suggest     services.SuggestionClient
	flowTable   map[string]*flows.Flow
}

func New(
	log *logger.Logger,
	cfg config.StudyConfig,
	users services.UserService,
	goals services.GoalService,
	reflections services.ReflectionService,
	transcript services.TranscriptService,
	sessions services.SessionStateService,
	suggest services.SuggestionClient,
) (*Runner, error) {
	table := map[string]*flows.Flow{
		StateIntro:       flows.WelcomeFlow(),
		StateTraining:    flows.TrainingFlow(),
		StateGoalSetting: flows.GoalSettingFlow(),
	}
	for _, f := range table {
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}
	return &Runner{
		log:         log.With("service", "Runner"),
		cfg:         cfg,
		users:       users,
		goals:       goals,
		reflections: reflections,
		transcript:  transcript,
		sessions:    sessions,
		suggest:     suggest,
		flowTable:   table,
	}, nil
}

// LoadOrStart restores the participant's snapshot, or builds a fresh state
// when none exists. A reflection deep link (week and session query params,
// treatment group only) always wins over the restored snapshot.
func (r *Runner) LoadOrStart(ctx context.Context, user *types.User, deepWeek int, deepSession string) (*State, error) {
	deepLink := deepWeek > 0 && deepSession != "" &&
		user.GroupAssignment == types.GroupTreatment

	st := &State{}
	found, err := r.sessions.Load(ctx, user.ID, st)
	if err != nil {
		return nil, err
	}

	switch {
	case deepLink:
		if !found {
			st = NewState()
		}
		if st.ChatState != StateReflection || st.Week != deepWeek || st.Session != deepSession {
			st.enterReflection(deepWeek, deepSession)
		}
	case found && st.ChatState == StateDone:
		// A finished session is not a terminal account state: the next
		// visit lands back on the menu.
		st, err = r.freshState(ctx, user)
		if err != nil {
			return nil, err
		}
	case found && st.NeedsRestore:
		// Snapshot restored verbatim; history replay is served separately.
	case found:
		st.NeedsRestore = true
	default:
		st, err = r.freshState(ctx, user)
		if err != nil {
			return nil, err
		}
	}
	st.NeedsRestore = true
	if err := r.sessions.Save(ctx, user.ID, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (r *Runner) freshState(ctx context.Context, user *types.User) (*State, error) {
	st := NewState()
	if user.HasCompletedTraining {
		st.ChatState = StateMenu
		st.StepKey = ""
		if err := r.transcript.AppendBot(ctx, user.ID, StateMenu,
			"Welcome back! What would you like to do today?"); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// Step runs one runner invocation. The snapshot is persisted before
// returning; a persistence failure leaves the stored state untouched and
// surfaces as an error, so the client retries the same event.
func (r *Runner) Step(ctx context.Context, user *types.User, st *State, ev Event) (*Render, error) {
	out := &Render{InputMode: InputNone}

	var err error
	switch st.ChatState {
	case StateIntro, StateTraining, StateGoalSetting:
		err = r.stepFlow(ctx, user, st, ev, out)
	case StateAddTasks:
		err = r.stepAddTasks(ctx, user, st, ev, out)
	case StateMenu:
		err = r.stepMenu(ctx, user, st, ev, out)
	case StateViewGoals:
		err = r.stepViewGoals(ctx, user, st, ev, out)
	case StateReflection:
		err = r.stepReflection(ctx, user, st, ev, out)
	case StateDone:
		out.Done = true
	default:
		err = fmt.Errorf("%w: chat state %q", ErrUnknownStep, st.ChatState)
	}
	if err != nil {
		return nil, err
	}

	if err := r.sessions.Save(ctx, user.ID, st); err != nil {
		r.log.Error("Snapshot save failed", "user_id", user.ID.String(), "error", err)
		return nil, err
	}
	return out, nil
}

// stepFlow interprets the static flow graph for the current chat state.
func (r *Runner) stepFlow(ctx context.Context, user *types.User, st *State, ev Event, out *Render) error {
	flow := r.flowTable[st.ChatState]
	step, ok := flow.Steps[st.StepKey]
	if !ok {
		return fmt.Errorf("%w: flow %q step %q", ErrUnknownStep, flow.Name, st.StepKey)
	}

	texts := step.Prompt()
	if st.MessageIndex < len(texts) {
		if err := r.say(ctx, user, st, out, r.substitute(st, texts[st.MessageIndex])); err != nil {
			return err
		}
		st.MessageIndex++
		if st.MessageIndex < len(texts) {
			out.Pending = true
			return nil
		}
		// Fall through so affordances show in the same response.
	}

	switch s := step.(type) {
	case flows.ChoiceStep:
		if ev.Type == EventButton {
			if next, valid := s.Next[ev.Value]; valid {
				if err := r.echo(ctx, user, st, out, ev.Value); err != nil {
					return err
				}
				st.enterStep(next)
				out.Pending = true
				return nil
			}
		}
		out.Buttons = s.Buttons
		out.InputMode = InputButtons

	case flows.TextInputStep:
		if ev.Type == EventText && strings.TrimSpace(ev.Value) != "" {
			if err := r.echo(ctx, user, st, out, ev.Value); err != nil {
				return err
			}
			st.Answers[s.Slot] = strings.TrimSpace(ev.Value)
			st.enterStep(s.Next)
			out.Pending = true
			return nil
		}
		out.InputMode = InputText

	case flows.SuggestionStep:
		if !st.PendingSuggestion {
			out.Messages = append(out.Messages, Message{Sender: types.SenderBot, Text: "✍️ Typing..."})
			st.PendingSuggestion = true
			out.Pending = true
			return nil
		}
		suggestion := r.suggest.Suggest(ctx, services.SuggestionRequest{
			Dimension: s.Dimension,
			GoalText:  st.Answers[flows.SlotCurrentGoal],
		})
		formatted := formatSuggestion(suggestion)
		st.SuggestedText = formatted
		st.PendingSuggestion = false
		msg := fmt.Sprintf(
			"This is an example of a more %s goal:<br><br>%s<br><br>Try adjusting your goal if it needs improvement.<br>",
			s.Dimension, formatted)
		if err := r.say(ctx, user, st, out, msg); err != nil {
			return err
		}
		st.enterStep(s.Next)
		out.Pending = true

	case flows.TerminalStep:
		return r.applyEffect(ctx, user, st, out, s.Effect)

	default:
		return fmt.Errorf("%w: flow %q step %q has unknown kind", ErrUnknownStep, flow.Name, st.StepKey)
	}
	return nil
}

// applyEffect performs a terminal step's side effect exactly once. Effects
// are guarded by persisted entities, not session flags, so re-entry after a
// crash cannot double-apply them.
func (r *Runner) applyEffect(ctx context.Context, user *types.User, st *State, out *Render, effect flows.Effect) error {
	switch effect {
	case flows.EffectBeginTraining:
		st.ChatState = StateTraining
		st.enterStep(r.flowTable[StateTraining].Start)
		out.Pending = true

	case flows.EffectCompleteTraining:
		if !user.HasCompletedTraining {
			if err := r.users.MarkTrainingCompleted(ctx, user.ID); err != nil {
				return err
			}
			user.HasCompletedTraining = true
			if err := r.users.AdvancePhase(ctx, user.ID, types.PhaseTrainingDone); err != nil {
				return err
			}
		}
		st.ChatState = StateGoalSetting
		st.enterStep(r.flowTable[StateGoalSetting].Start)
		out.Pending = true

	case flows.EffectSaveGoal:
		if st.GoalID == "" {
			goal, err := r.goals.SaveGoal(ctx, user.ID, st.Answers[flows.SlotCurrentGoal])
			if err != nil {
				return err
			}
			st.GoalID = goal.ID.String()
		}
		if err := r.say(ctx, user, st, out,
			"Your SMART goal has been saved! Now let's break it down into smaller tasks you can do <b>this week</b>. We'll check in with you midweek to help you reflect and adjust if needed."); err != nil {
			return err
		}
		st.ChatState = StateAddTasks
		st.TaskCount = 0
		st.PendingSuggestion = true
		out.Messages = append(out.Messages, Message{Sender: types.SenderBot, Text: "Thinking of task suggestions for you… ✍️"})
		out.Pending = true

	default:
		return fmt.Errorf("unknown terminal effect %q", effect)
	}
	return nil
}

func (r *Runner) stepAddTasks(ctx context.Context, user *types.User, st *State, ev Event, out *Render) error {
	if st.PendingSuggestion {
		existing, err := r.activeTaskTexts(ctx, st)
		if err != nil {
			return err
		}
		suggested := r.suggest.Suggest(ctx, services.SuggestionRequest{
			Dimension:     flows.DimensionTasks,
			GoalText:      st.Answers[flows.SlotCurrentGoal],
			ExistingTasks: existing,
		})
		st.PendingSuggestion = false
		if err := r.say(ctx, user, st, out,
			"Here are some example tasks you can consider (just suggestions):<br><br>"+formatSuggestion(suggested)); err != nil {
			return err
		}
		if err := r.say(ctx, user, st, out,
			fmt.Sprintf("Add a small task to help achieve your goal. You can add up to %d.", r.cfg.TaskLimit)); err != nil {
			return err
		}
		out.InputMode = InputText
		return nil
	}

	switch {
	case ev.Type == EventText && strings.TrimSpace(ev.Value) != "":
		taskText := strings.TrimSpace(ev.Value)
		goalID, err := st.goalUUID()
		if err != nil {
			return err
		}
		if _, err := r.goals.AddTask(ctx, goalID, taskText); err != nil {
			if errors.Is(err, repos.ErrTaskLimit) {
				return r.finishAddTasks(ctx, user, st, out)
			}
			return err
		}
		if err := r.echo(ctx, user, st, out, "Task: "+taskText); err != nil {
			return err
		}
		st.TaskCount++
		if st.TaskCount >= r.cfg.TaskLimit {
			if err := r.say(ctx, user, st, out,
				fmt.Sprintf("You've added %d tasks. Great work!", st.TaskCount)); err != nil {
				return err
			}
			return r.finishAddTasks(ctx, user, st, out)
		}
		out.InputMode = InputText
		if st.TaskCount >= 1 {
			out.Buttons = []string{"Done Adding Tasks"}
		}

	case ev.Type == EventButton && ev.Value == "Done Adding Tasks":
		if st.TaskCount == 0 {
			out.InputMode = InputText
			return nil
		}
		if st.TaskCount < r.cfg.TaskLimit {
			if err := r.say(ctx, user, st, out,
				fmt.Sprintf("Try to add all %d tasks for a smoother check-in later.", r.cfg.TaskLimit)); err != nil {
				return err
			}
			out.InputMode = InputText
			out.Buttons = []string{"Done Adding Tasks"}
			return nil
		}
		return r.finishAddTasks(ctx, user, st, out)

	default:
		out.InputMode = InputText
		if st.TaskCount >= 1 {
			out.Buttons = []string{"Done Adding Tasks"}
		}
	}
	return nil
}

func (r *Runner) finishAddTasks(ctx context.Context, user *types.User, st *State, out *Render) error {
	if err := r.users.AdvancePhase(ctx, user.ID, types.PhaseOnboardingDone); err != nil {
		return err
	}
	user.Phase = max(user.Phase, types.PhaseOnboardingDone)
	st.ChatState = StateMenu
	st.StepKey = ""
	if err := r.say(ctx, user, st, out, "Saved your goal and tasks! What would you like to do next?"); err != nil {
		return err
	}
	out.Pending = true
	return nil
}

func (r *Runner) stepMenu(ctx context.Context, user *types.User, st *State, ev Event, out *Render) error {
	hasGoal, err := r.goals.HasGoal(ctx, user.ID)
	if err != nil {
		return err
	}

	buttons := []string{"➕ Create a New Goal"}
	if hasGoal {
		buttons = append(buttons, "✅ View Existing Goal and Tasks")
	}
	if hasGoal && user.GroupAssignment == types.GroupTreatment {
		buttons = append(buttons, "✏️ Weekly Reflection")
	}

	if ev.Type == EventButton {
		switch ev.Value {
		case "➕ Create a New Goal":
			if err := r.echo(ctx, user, st, out, ev.Value); err != nil {
				return err
			}
			st.ChatState = StateGoalSetting
			st.GoalID = ""
			delete(st.Answers, flows.SlotCurrentGoal)
			st.enterStep(r.flowTable[StateGoalSetting].Start)
			out.Pending = true
			return nil
		case "✅ View Existing Goal and Tasks":
			if !hasGoal {
				break
			}
			if err := r.echo(ctx, user, st, out, ev.Value); err != nil {
				return err
			}
			st.ChatState = StateViewGoals
			if err := r.sayGoalOverview(ctx, user, st, out); err != nil {
				return err
			}
			out.Buttons = []string{"Back to Menu"}
			out.InputMode = InputButtons
			return nil
		case "✏️ Weekly Reflection":
			if !hasGoal || user.GroupAssignment != types.GroupTreatment {
				break
			}
			if err := r.echo(ctx, user, st, out, ev.Value); err != nil {
				return err
			}
			// Reflections started from the menu key off how far into the
			// study the participant is, not off query parameters.
			week := r.users.StudyDay(user, time.Now())/7 + 1
			session := st.Session
			if session == "" {
				session = "a"
			}
			st.enterReflection(week, session)
			out.Pending = true
			return nil
		}
	}

	out.Buttons = buttons
	out.InputMode = InputButtons
	return nil
}

func (r *Runner) stepViewGoals(ctx context.Context, user *types.User, st *State, ev Event, out *Render) error {
	if ev.Type == EventButton && ev.Value == "Back to Menu" {
		if err := r.echo(ctx, user, st, out, ev.Value); err != nil {
			return err
		}
		st.ChatState = StateMenu
		out.Pending = true
		return nil
	}
	out.Buttons = []string{"Back to Menu"}
	out.InputMode = InputButtons
	return nil
}

func (r *Runner) sayGoalOverview(ctx context.Context, user *types.User, st *State, out *Render) error {
	overview, err := r.goals.GetGoalAndTasks(ctx, user.ID)
	if err != nil {
		return err
	}
	if overview.Goal == nil {
		return r.say(ctx, user, st, out, "You haven't set a goal yet.")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 <b>Your goal:</b><br>%s", overview.Goal.GoalText)
	if len(overview.Tasks) > 0 {
		b.WriteString("<br><br><b>Your tasks:</b>")
		for i, t := range overview.Tasks {
			mark := ""
			if t.Completed {
				mark = " ✅"
			}
			fmt.Fprintf(&b, "<br>%d. %s%s", i+1, t.TaskText, mark)
		}
	}
	return r.say(ctx, user, st, out, b.String())
}

// say emits an assistant message to both the response and the persisted
// transcript.
func (r *Runner) say(ctx context.Context, user *types.User, st *State, out *Render, text string) error {
	if err := r.transcript.AppendBot(ctx, user.ID, st.ChatState, text); err != nil {
		return err
	}
	out.Messages = append(out.Messages, Message{Sender: types.SenderBot, Text: text})
	return nil
}

// echo mirrors the participant's input into the transcript.
func (r *Runner) echo(ctx context.Context, user *types.User, st *State, out *Render, text string) error {
	if err := r.transcript.AppendUser(ctx, user.ID, st.ChatState, text); err != nil {
		return err
	}
	out.Messages = append(out.Messages, Message{Sender: types.SenderUser, Text: text})
	return nil
}

func (r *Runner) substitute(st *State, text string) string {
	text = strings.ReplaceAll(text, "{"+flows.SlotCurrentGoal+"}", st.Answers[flows.SlotCurrentGoal])
	return strings.ReplaceAll(text, "{study_period}", r.cfg.StudyPeriodPhrase())
}

func (r *Runner) activeTaskTexts(ctx context.Context, st *State) ([]string, error) {
	if st.GoalID == "" {
		return nil, nil
	}
	goalID, err := st.goalUUID()
	if err != nil {
		return nil, err
	}
	tasks, err := r.goals.ActiveTasks(ctx, goalID)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(tasks))
	for _, t := range tasks {
		texts = append(texts, t.TaskText)
	}
	return texts, nil
}

// formatSuggestion splits numbered lists onto their own lines and strips a
// leading "Answer:" marker some models emit.
func formatSuggestion(s string) string {
	s = strings.ReplaceAll(s, "1.", "<br>1.")
	s = strings.ReplaceAll(s, "2.", "<br>2.")
	s = strings.ReplaceAll(s, "3.", "<br>3.")
	s = strings.ReplaceAll(s, "Answer:", "")
	return strings.TrimSpace(s)
}
