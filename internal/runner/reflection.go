package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/goalie-study/goalie-backend/internal/flows"
	"github.com/goalie-study/goalie-backend/internal/repos"
	"github.com/goalie-study/goalie-backend/internal/services"
	"github.com/goalie-study/goalie-backend/internal/types"
)

var progressOptions = []string{"None", "A little", "Some", "Most", "Completed"}

var progressNumeric = map[string]int{
	"None":      0,
	"A little":  1,
	"Some":      2,
	"Most":      3,
	"Completed": 4,
}

func progressLabel(value int) string {
	for label, v := range progressNumeric {
		if v == value {
			return label
		}
	}
	return "None"
}

type question struct {
	key    string
	prompt string
}

var successQuestions = []question{
	{"what", "What helped you make progress on this goal?"},
	{"so_what", "Why do you think this goal was easier or more motivating this week?"},
	{"now_what", "What will you carry forward into next week’s plan?"},
}

var woopQuestions = []question{
	{"outcome", "If you succeed next week, what’s a benefit you’d experience?"},
	{"obstacle", "What was the biggest barrier this week?"},
	{"plan", "Plan: If [obstacle], then I will [action]."},
}

const alignmentPrompt = "One more thing: does this goal still feel aligned with what matters most to you right now? Why or why not?"

// stepReflection drives the weekly check-in. It is a specialization of the
// step runner, not a separate machine: the stages live in the same snapshot
// and obey the same one-transition-per-invocation rule.
func (r *Runner) stepReflection(ctx context.Context, user *types.User, st *State, ev Event, out *Render) error {
	goal, err := r.goals.LatestGoal(ctx, user.ID)
	if err != nil {
		return err
	}
	if goal == nil {
		if err := r.say(ctx, user, st, out, "You have no goals to reflect on yet."); err != nil {
			return err
		}
		st.ChatState = StateMenu
		out.Pending = true
		return nil
	}

	switch st.ReflectionStage {
	case StageStart:
		return r.reflectionStart(ctx, user, st, goal, out)
	case StageRate:
		return r.reflectionRate(ctx, user, st, goal, ev, out)
	case StageQuestions:
		return r.reflectionQuestions(ctx, user, st, goal, ev, out)
	case StageAlignment:
		return r.reflectionAlignment(ctx, user, st, goal, ev, out)
	case StageUpdate:
		return r.reflectionUpdate(ctx, user, st, goal, ev, out)
	case StageAddTaskGate:
		return r.reflectionAddGate(ctx, user, st, goal, ev, out)
	case StageAddTask:
		return r.reflectionAddTask(ctx, user, st, goal, ev, out)
	case StageDone:
		out.Done = true
		return nil
	default:
		return fmt.Errorf("%w: reflection stage %q", ErrUnknownStep, st.ReflectionStage)
	}
}

func (r *Runner) reflectionStart(ctx context.Context, user *types.User, st *State, goal *types.Goal, out *Render) error {
	exists, err := r.reflections.AlreadySubmitted(ctx, user.ID, goal.ID, st.Week, st.Session)
	if err != nil {
		return err
	}
	if exists {
		msg := fmt.Sprintf(
			"✅ You've already submitted a reflection for <b>Week %d, Session %s</b>.<br><br>Thanks!",
			st.Week, strings.ToUpper(st.Session))
		if err := r.say(ctx, user, st, out, msg); err != nil {
			return err
		}
		st.ReflectionStage = StageDone
		st.ChatState = StateDone
		out.Done = true
		return nil
	}

	tasks, err := r.goals.ActiveTasks(ctx, goal.ID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		if err := r.say(ctx, user, st, out, "You have no tasks for your goal. Add tasks first."); err != nil {
			return err
		}
		st.ChatState = StateMenu
		out.Pending = true
		return nil
	}
	st.TaskOrder = make([]string, 0, len(tasks))
	for _, t := range tasks {
		st.TaskOrder = append(st.TaskOrder, t.ID.String())
	}

	last, err := r.reflections.LastReflection(ctx, user.ID, goal.ID)
	if err != nil {
		return err
	}
	if last != nil {
		msg := fmt.Sprintf("📄 <b>Last Reflection (Week %d):</b><br><br>%s",
			last.WeekNumber, strings.TrimSpace(last.ReflectionText))
		if err := r.say(ctx, user, st, out, msg); err != nil {
			return err
		}
	}
	if err := r.say(ctx, user, st, out, fmt.Sprintf(
		"Now, let's reflect on your goal:<br><br><b>%s</b><br><br>I'll ask about each task, one by one.",
		goal.GoalText)); err != nil {
		return err
	}

	restored, err := r.restoreDraft(ctx, user, st, goal)
	if err != nil {
		return err
	}
	if restored {
		if err := r.say(ctx, user, st, out,
			"Looks like you started this reflection earlier. Let's pick up where you left off."); err != nil {
			return err
		}
		return r.resumeFromDraft(ctx, user, st, out)
	}

	st.ReflectionStage = StageRate
	st.TaskIndex = 0
	return r.promptTaskRating(ctx, user, st, out, tasks[0].TaskText)
}

// draftPayload mirrors the checkpoint written by saveDraft.
type draftPayload struct {
	TaskRatings   map[string]int    `json:"task_ratings"`
	TaskNotes     map[string]string `json:"task_notes"`
	ReflectionAns map[string]string `json:"reflection_answers"`
}

// restoreDraft folds a saved checkpoint back into the state. Ratings and
// notes for tasks that have since been replaced or archived are dropped.
func (r *Runner) restoreDraft(ctx context.Context, user *types.User, st *State, goal *types.Goal) (bool, error) {
	var payload draftPayload
	found, err := r.reflections.LoadDraft(ctx, user.ID, goal.ID, st.Week, st.Session, &payload)
	if err != nil || !found {
		return false, err
	}
	restored := false
	for _, id := range st.TaskOrder {
		if v, ok := payload.TaskRatings[id]; ok {
			st.TaskRatings[id] = v
			restored = true
		}
		if v, ok := payload.TaskNotes[id]; ok {
			st.TaskNotes[id] = v
			restored = true
		}
	}
	for key, answer := range payload.ReflectionAns {
		st.ReflectionAns[key] = answer
		restored = true
	}
	return restored, nil
}

// resumeFromDraft re-prompts at the first thing the checkpoint is missing:
// an unrated or un-noted task, then an unanswered debrief question, then the
// alignment check, and only then the task-update round.
func (r *Runner) resumeFromDraft(ctx context.Context, user *types.User, st *State, out *Render) error {
	for i, id := range st.TaskOrder {
		_, rated := st.TaskRatings[id]
		_, noted := st.TaskNotes[id]
		if rated && noted {
			continue
		}
		st.ReflectionStage = StageRate
		st.TaskIndex = i
		if rated {
			st.AwaitingNote = true
			if err := r.say(ctx, user, st, out,
				"Briefly, what helped or got in the way with this task?"); err != nil {
				return err
			}
			out.InputMode = InputText
			return nil
		}
		text, err := r.taskText(ctx, id)
		if err != nil {
			return err
		}
		return r.promptTaskRating(ctx, user, st, out, text)
	}

	st.TaskIndex = len(st.TaskOrder)
	for i, q := range r.questionSet(st) {
		if _, ok := st.ReflectionAns[q.key]; ok {
			continue
		}
		st.ReflectionStage = StageQuestions
		st.QuestionIndex = i
		if err := r.say(ctx, user, st, out, q.prompt); err != nil {
			return err
		}
		out.InputMode = InputText
		return nil
	}

	if _, ok := st.ReflectionAns["goal_alignment"]; !ok {
		st.ReflectionStage = StageAlignment
		if err := r.say(ctx, user, st, out, alignmentPrompt); err != nil {
			return err
		}
		out.InputMode = InputText
		return nil
	}

	st.ReflectionStage = StageUpdate
	st.UpdateTaskIndex = 0
	return r.promptTaskUpdate(ctx, user, st, out)
}

func (r *Runner) promptTaskRating(ctx context.Context, user *types.User, st *State, out *Render, taskText string) error {
	if err := r.say(ctx, user, st, out, fmt.Sprintf(
		"How much progress did you make on the following task: <br><br> <b>%s</b>", taskText)); err != nil {
		return err
	}
	out.Buttons = progressOptions
	out.InputMode = InputButtons
	return nil
}

func (r *Runner) reflectionRate(ctx context.Context, user *types.User, st *State, goal *types.Goal, ev Event, out *Render) error {
	taskID := st.TaskOrder[st.TaskIndex]

	switch {
	case !st.AwaitingNote && ev.Type == EventButton:
		rating, valid := progressNumeric[ev.Value]
		if !valid {
			out.Buttons = progressOptions
			out.InputMode = InputButtons
			return nil
		}
		if err := r.echo(ctx, user, st, out, ev.Value); err != nil {
			return err
		}
		st.TaskRatings[taskID] = rating
		if rating == progressNumeric["Completed"] {
			id, err := uuid.Parse(taskID)
			if err != nil {
				return err
			}
			if err := r.goals.SetTaskCompleted(ctx, id, true); err != nil {
				return err
			}
		}
		st.AwaitingNote = true
		if err := r.say(ctx, user, st, out,
			"Briefly, what helped or got in the way with this task?"); err != nil {
			return err
		}
		out.InputMode = InputText
		return nil

	case st.AwaitingNote && ev.Type == EventText && strings.TrimSpace(ev.Value) != "":
		if err := r.echo(ctx, user, st, out, ev.Value); err != nil {
			return err
		}
		st.TaskNotes[taskID] = strings.TrimSpace(ev.Value)
		st.AwaitingNote = false
		st.TaskIndex++
		r.saveDraft(ctx, user, st, goal)

		if st.TaskIndex < len(st.TaskOrder) {
			next, err := r.taskText(ctx, st.TaskOrder[st.TaskIndex])
			if err != nil {
				return err
			}
			return r.promptTaskRating(ctx, user, st, out, next)
		}
		st.ReflectionStage = StageQuestions
		st.QuestionIndex = 0
		qs := r.questionSet(st)
		if err := r.say(ctx, user, st, out, qs[0].prompt); err != nil {
			return err
		}
		out.InputMode = InputText
		return nil

	default:
		if st.AwaitingNote {
			out.InputMode = InputText
		} else {
			out.Buttons = progressOptions
			out.InputMode = InputButtons
		}
		return nil
	}
}

// questionSet branches on the summed ratings: above the success threshold
// the debrief asks what worked, otherwise it walks a WOOP-style plan.
func (r *Runner) questionSet(st *State) []question {
	total := 0
	for _, v := range st.TaskRatings {
		total += v
	}
	maxPossible := 4 * len(st.TaskOrder)
	if float64(total) > r.cfg.SuccessThreshold*float64(maxPossible) {
		return successQuestions
	}
	return woopQuestions
}

func (r *Runner) reflectionQuestions(ctx context.Context, user *types.User, st *State, goal *types.Goal, ev Event, out *Render) error {
	if ev.Type != EventText || strings.TrimSpace(ev.Value) == "" {
		out.InputMode = InputText
		return nil
	}
	qs := r.questionSet(st)
	if err := r.echo(ctx, user, st, out, ev.Value); err != nil {
		return err
	}
	st.ReflectionAns[qs[st.QuestionIndex].key] = strings.TrimSpace(ev.Value)
	st.QuestionIndex++
	r.saveDraft(ctx, user, st, goal)

	if st.QuestionIndex < len(qs) {
		if err := r.say(ctx, user, st, out, qs[st.QuestionIndex].prompt); err != nil {
			return err
		}
		out.InputMode = InputText
		return nil
	}
	st.ReflectionStage = StageAlignment
	if err := r.say(ctx, user, st, out, alignmentPrompt); err != nil {
		return err
	}
	out.InputMode = InputText
	return nil
}

func (r *Runner) reflectionAlignment(ctx context.Context, user *types.User, st *State, goal *types.Goal, ev Event, out *Render) error {
	if ev.Type != EventText || strings.TrimSpace(ev.Value) == "" {
		out.InputMode = InputText
		return nil
	}
	if err := r.echo(ctx, user, st, out, ev.Value); err != nil {
		return err
	}
	st.ReflectionAns["goal_alignment"] = strings.TrimSpace(ev.Value)
	r.saveDraft(ctx, user, st, goal)

	st.ReflectionStage = StageUpdate
	st.UpdateTaskIndex = 0
	return r.promptTaskUpdate(ctx, user, st, out)
}

func (r *Runner) promptTaskUpdate(ctx context.Context, user *types.User, st *State, out *Render) error {
	taskText, err := r.taskText(ctx, st.TaskOrder[st.UpdateTaskIndex])
	if err != nil {
		return err
	}
	if err := r.say(ctx, user, st, out, fmt.Sprintf(
		"Do you want to keep, modify, or replace the task '%s'?", taskText)); err != nil {
		return err
	}
	out.Buttons = []string{"Keep", "Modify", "Replace"}
	out.InputMode = InputButtons
	return nil
}

func (r *Runner) reflectionUpdate(ctx context.Context, user *types.User, st *State, goal *types.Goal, ev Event, out *Render) error {
	if st.PendingSuggestion {
		existing, err := r.activeTaskTexts(ctx, st)
		if err != nil {
			return err
		}
		suggested := r.suggest.Suggest(ctx, services.SuggestionRequest{
			Dimension:     flows.DimensionTasks,
			GoalText:      goal.GoalText,
			ExistingTasks: existing,
		})
		st.PendingSuggestion = false
		st.AwaitingReplace = true
		if err := r.say(ctx, user, st, out,
			"Here are some ideas you could consider instead:<br><br>"+formatSuggestion(suggested)+
				"<br><br>Type the new version of the task below."); err != nil {
			return err
		}
		out.InputMode = InputText
		return nil
	}

	if st.AwaitingReplace {
		if ev.Type != EventText || strings.TrimSpace(ev.Value) == "" {
			out.InputMode = InputText
			return nil
		}
		oldID, err := uuid.Parse(st.TaskOrder[st.UpdateTaskIndex])
		if err != nil {
			return err
		}
		oldText, err := r.taskText(ctx, st.TaskOrder[st.UpdateTaskIndex])
		if err != nil {
			return err
		}
		newText := strings.TrimSpace(ev.Value)
		if err := r.echo(ctx, user, st, out, newText); err != nil {
			return err
		}
		if _, err := r.goals.ReplaceTask(ctx, oldID, newText, st.ReplaceChoice); err != nil {
			return err
		}
		if err := r.say(ctx, user, st, out, fmt.Sprintf(
			"Task '%s' will be updated to: '%s'", oldText, newText)); err != nil {
			return err
		}
		st.AwaitingReplace = false
		st.ReplaceChoice = ""
		return r.advanceUpdate(ctx, user, st, goal, out)
	}

	if ev.Type == EventButton {
		switch ev.Value {
		case "Keep":
			if err := r.echo(ctx, user, st, out, ev.Value); err != nil {
				return err
			}
			return r.advanceUpdate(ctx, user, st, goal, out)
		case "Modify", "Replace":
			if err := r.echo(ctx, user, st, out, ev.Value); err != nil {
				return err
			}
			st.ReplaceChoice = strings.ToLower(ev.Value)
			st.PendingSuggestion = true
			out.Messages = append(out.Messages, Message{Sender: types.SenderBot, Text: "✍️ Typing..."})
			out.Pending = true
			return nil
		}
	}
	out.Buttons = []string{"Keep", "Modify", "Replace"}
	out.InputMode = InputButtons
	return nil
}

func (r *Runner) advanceUpdate(ctx context.Context, user *types.User, st *State, goal *types.Goal, out *Render) error {
	st.UpdateTaskIndex++
	if st.UpdateTaskIndex < len(st.TaskOrder) {
		return r.promptTaskUpdate(ctx, user, st, out)
	}
	return r.submitReflection(ctx, user, st, goal, out)
}

func (r *Runner) submitReflection(ctx context.Context, user *types.User, st *State, goal *types.Goal, out *Render) error {
	narrative, err := r.assembleNarrative(ctx, st)
	if err != nil {
		return err
	}

	sub := services.ReflectionSubmission{
		UserID:         user.ID,
		GoalID:         goal.ID,
		WeekNumber:     st.Week,
		SessionID:      st.Session,
		ReflectionText: narrative,
	}
	for _, id := range st.TaskOrder {
		taskID, err := uuid.Parse(id)
		if err != nil {
			return err
		}
		sub.TaskRatings = append(sub.TaskRatings, services.TaskRating{
			TaskID: taskID,
			Rating: st.TaskRatings[id],
		})
		if note, ok := st.TaskNotes[id]; ok {
			sub.TaskNotes = append(sub.TaskNotes, services.TaskNote{TaskID: taskID, Note: note})
		}
	}
	for key, answer := range st.ReflectionAns {
		sub.Answers = append(sub.Answers, services.QuestionAnswer{QuestionKey: key, Answer: answer})
	}

	if _, err := r.reflections.Submit(ctx, sub); err != nil {
		if errors.Is(err, services.ErrReflectionExists) {
			msg := fmt.Sprintf(
				"✅ You've already submitted a reflection for <b>Week %d, Session %s</b>.<br><br>Thanks!",
				st.Week, strings.ToUpper(st.Session))
			if sayErr := r.say(ctx, user, st, out, msg); sayErr != nil {
				return sayErr
			}
			st.ReflectionStage = StageDone
			st.ChatState = StateDone
			out.Done = true
			return nil
		}
		return err
	}
	if err := r.reflections.DiscardDraft(ctx, user.ID, goal.ID, st.Week, st.Session); err != nil {
		r.log.Warn("Draft cleanup failed", "user_id", user.ID.String(), "error", err)
	}

	target := user.Phase + 1
	if target < types.PhaseFirstReflection {
		target = types.PhaseFirstReflection
	}
	if target > types.PhaseSecondReflection {
		target = types.PhaseSecondReflection
	}
	if err := r.users.AdvancePhase(ctx, user.ID, target); err != nil {
		return err
	}
	if target > user.Phase {
		user.Phase = target
	}

	if err := r.say(ctx, user, st, out, "Thanks for reflecting! Your responses are saved."); err != nil {
		return err
	}
	st.ReflectionStage = StageAddTaskGate
	if err := r.say(ctx, user, st, out, "Would you like to add one more task for next week?"); err != nil {
		return err
	}
	out.Buttons = []string{"Yes", "No"}
	out.InputMode = InputButtons
	return nil
}

func (r *Runner) reflectionAddGate(ctx context.Context, user *types.User, st *State, goal *types.Goal, ev Event, out *Render) error {
	if ev.Type == EventButton {
		switch ev.Value {
		case "Yes":
			if err := r.echo(ctx, user, st, out, ev.Value); err != nil {
				return err
			}
			active, err := r.goals.ActiveTasks(ctx, goal.ID)
			if err != nil {
				return err
			}
			if len(active) >= r.cfg.TaskLimit {
				if err := r.say(ctx, user, st, out, fmt.Sprintf(
					"You already have %d active tasks, so we'll keep your current plan.", len(active))); err != nil {
					return err
				}
				return r.finishReflection(ctx, user, st, out)
			}
			if err := r.say(ctx, user, st, out, "Type the new task below."); err != nil {
				return err
			}
			st.ReflectionStage = StageAddTask
			out.InputMode = InputText
			return nil
		case "No":
			if err := r.echo(ctx, user, st, out, ev.Value); err != nil {
				return err
			}
			return r.finishReflection(ctx, user, st, out)
		}
	}
	out.Buttons = []string{"Yes", "No"}
	out.InputMode = InputButtons
	return nil
}

func (r *Runner) reflectionAddTask(ctx context.Context, user *types.User, st *State, goal *types.Goal, ev Event, out *Render) error {
	if ev.Type != EventText || strings.TrimSpace(ev.Value) == "" {
		out.InputMode = InputText
		return nil
	}
	taskText := strings.TrimSpace(ev.Value)
	if err := r.echo(ctx, user, st, out, "Task: "+taskText); err != nil {
		return err
	}
	if _, err := r.goals.AddTask(ctx, goal.ID, taskText); err != nil {
		if errors.Is(err, repos.ErrTaskLimit) {
			if sayErr := r.say(ctx, user, st, out,
				"You already have the maximum number of active tasks."); sayErr != nil {
				return sayErr
			}
			return r.finishReflection(ctx, user, st, out)
		}
		return err
	}
	if err := r.say(ctx, user, st, out, "Added! Good luck this week."); err != nil {
		return err
	}
	return r.finishReflection(ctx, user, st, out)
}

func (r *Runner) finishReflection(ctx context.Context, user *types.User, st *State, out *Render) error {
	if err := r.say(ctx, user, st, out,
		"You're all set. You can now return to the study panel. Thanks!"); err != nil {
		return err
	}
	st.ReflectionStage = StageDone
	st.ChatState = StateDone
	out.Done = true
	return nil
}

// assembleNarrative composes the single reflection text stored on the row,
// mirroring the per-task progress lines and the question set's labels.
func (r *Runner) assembleNarrative(ctx context.Context, st *State) (string, error) {
	lines := make([]string, 0, len(st.TaskOrder))
	for _, id := range st.TaskOrder {
		text, err := r.taskText(ctx, id)
		if err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("%s: %s", text, progressLabel(st.TaskRatings[id])))
	}
	progressStr := strings.Join(lines, "<br>")

	var b strings.Builder
	fmt.Fprintf(&b, "Task Progress:<br>%s<br><br>", progressStr)
	if _, success := st.ReflectionAns["what"]; success {
		fmt.Fprintf(&b, "WHAT: %s<br>SO WHAT: %s<br>NOW WHAT: %s<br>",
			st.ReflectionAns["what"], st.ReflectionAns["so_what"], st.ReflectionAns["now_what"])
	} else {
		fmt.Fprintf(&b, "OUTCOME: %s<br>OBSTACLE: %s<br>PLAN: %s<br>",
			st.ReflectionAns["outcome"], st.ReflectionAns["obstacle"], st.ReflectionAns["plan"])
	}
	if alignment, ok := st.ReflectionAns["goal_alignment"]; ok {
		fmt.Fprintf(&b, "ALIGNMENT: %s<br>", alignment)
	}
	return b.String(), nil
}

func (r *Runner) taskText(ctx context.Context, id string) (string, error) {
	taskID, err := uuid.Parse(id)
	if err != nil {
		return "", err
	}
	task, err := r.goals.TaskByID(ctx, taskID)
	if err != nil {
		return "", err
	}
	if task == nil {
		return "", fmt.Errorf("task %s not found", id)
	}
	return task.TaskText, nil
}

// saveDraft checkpoints the in-progress answers. Best effort: a failed
// draft write never blocks the conversation.
func (r *Runner) saveDraft(ctx context.Context, user *types.User, st *State, goal *types.Goal) {
	payload := map[string]interface{}{
		"task_ratings":       st.TaskRatings,
		"task_notes":         st.TaskNotes,
		"reflection_answers": st.ReflectionAns,
	}
	if err := r.reflections.SaveDraft(ctx, user.ID, goal.ID, st.Week, st.Session, payload); err != nil {
		r.log.Warn("Draft save failed", "user_id", user.ID.String(), "error", err)
	}
}
