package runner_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/goalie-study/goalie-backend/internal/config"
	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/repos"
	"github.com/goalie-study/goalie-backend/internal/runner"
	"github.com/goalie-study/goalie-backend/internal/services"
	"github.com/goalie-study/goalie-backend/internal/testutil"
	"github.com/goalie-study/goalie-backend/internal/types"
)

// stubSuggest returns a canned suggestion without touching the network.
type stubSuggest struct {
	text string
}

func (s stubSuggest) Suggest(ctx context.Context, req services.SuggestionRequest) string {
	return s.text
}

type harness struct {
	db          *gorm.DB
	runner      *runner.Runner
	users       services.UserService
	goals       services.GoalService
	reflections services.ReflectionService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := logger.NewNop()
	cfg := config.Default()

	userRepo := repos.NewUserRepo(db, log)
	goalRepo := repos.NewGoalRepo(db, log)
	taskRepo := repos.NewTaskRepo(db, log)
	reflectionRepo := repos.NewReflectionRepo(db, log)
	draftRepo := repos.NewReflectionDraftRepo(db, log)
	sessionRepo := repos.NewSessionRepo(db, log)
	messageRepo := repos.NewChatMessageRepo(db, log)

	cohort := services.NewCohortClientWith(log, "", "", time.Second)
	users := services.NewUserService(log, userRepo, cohort)
	goals := services.NewGoalService(log, db, goalRepo, taskRepo, cfg.TaskLimit)
	reflections := services.NewReflectionService(log, db, reflectionRepo, draftRepo)
	transcript := services.NewTranscriptService(log, messageRepo)
	sessions := services.NewSessionStateService(log, sessionRepo)

	r, err := runner.New(log, cfg, users, goals, reflections, transcript, sessions,
		stubSuggest{text: "1. First idea 2. Second idea 3. Third idea"})
	require.NoError(t, err)

	return &harness{db: db, runner: r, users: users, goals: goals, reflections: reflections}
}

// send applies one event and polls until the runner stops queueing output,
// the way the HTTP client does: every invocation reloads the persisted
// snapshot, so nothing survives in memory between events. It returns every
// message produced and the final render.
func (h *harness) send(t *testing.T, user *types.User, st *runner.State, ev runner.Event) ([]runner.Message, *runner.Render) {
	t.Helper()
	ctx := context.Background()
	var msgs []runner.Message

	loaded, err := h.runner.LoadOrStart(ctx, user, 0, "")
	require.NoError(t, err)
	out, err := h.runner.Step(ctx, user, loaded, ev)
	require.NoError(t, err)
	msgs = append(msgs, out.Messages...)
	for out.Pending {
		loaded, err = h.runner.LoadOrStart(ctx, user, 0, "")
		require.NoError(t, err)
		out, err = h.runner.Step(ctx, user, loaded, runner.Event{Type: runner.EventPoll})
		require.NoError(t, err)
		msgs = append(msgs, out.Messages...)
	}
	*st = *loaded
	return msgs, out
}

func (h *harness) poll(t *testing.T, user *types.User, st *runner.State) ([]runner.Message, *runner.Render) {
	t.Helper()
	return h.send(t, user, st, runner.Event{Type: runner.EventPoll})
}

func (h *harness) press(t *testing.T, user *types.User, st *runner.State, label string) ([]runner.Message, *runner.Render) {
	t.Helper()
	return h.send(t, user, st, runner.Event{Type: runner.EventButton, Value: label})
}

func (h *harness) typeText(t *testing.T, user *types.User, st *runner.State, text string) ([]runner.Message, *runner.Render) {
	t.Helper()
	return h.send(t, user, st, runner.Event{Type: runner.EventText, Value: text})
}

func (h *harness) reload(t *testing.T, user *types.User) *types.User {
	t.Helper()
	fresh, err := h.users.GetByParticipantCode(context.Background(), user.ParticipantCode)
	require.NoError(t, err)
	require.NotNil(t, fresh)
	return fresh
}

func hasMessage(msgs []runner.Message, substr string) bool {
	for _, m := range msgs {
		if strings.Contains(m.Text, substr) {
			return true
		}
	}
	return false
}

func TestRunner_FullOnboarding(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, h.db, testutil.WithGroup(types.GroupControl))

	st, err := h.runner.LoadOrStart(ctx, user, 0, "")
	require.NoError(t, err)
	assert.Equal(t, runner.StateIntro, st.ChatState)

	msgs, out := h.poll(t, user, st)
	assert.True(t, hasMessage(msgs, "Hi! I'm Goalie"))
	require.Equal(t, runner.InputButtons, out.InputMode)
	require.Contains(t, out.Buttons, "Yes, let's start")

	// Training, shortest path through the worked example.
	_, out = h.press(t, user, st, "Yes, let's start")
	assert.Equal(t, runner.StateTraining, st.ChatState)
	for _, label := range []string{
		"Yes",
		"Continue",
		"Sometimes",
		"Let's do this!",
		"No, let's keep going",
		"Yes",
		"Continue",
		"2",
		"Continue",
		"No",
		"Continue",
		"2",
		"Continue",
		"Yes",
		"Continue",
		"To learn new freelance skills",
		"Continue",
		"Finish 3 modules by this Friday",
		"Continue to goal setting",
	} {
		require.Contains(t, out.Buttons, label, "expected button %q at step %s", label, st.StepKey)
		msgs, out = h.press(t, user, st, label)
	}

	assert.Equal(t, runner.StateGoalSetting, st.ChatState)
	user = h.reload(t, user)
	assert.True(t, user.HasCompletedTraining)
	assert.GreaterOrEqual(t, user.Phase, types.PhaseTrainingDone)

	// Goal setting, every dimension confirmed on the first pass. The intro
	// copy renders the configured study length.
	assert.True(t, hasMessage(msgs, "over the next two weeks"))
	require.Equal(t, runner.InputText, out.InputMode)
	_, out = h.typeText(t, user, st, "Finish my thesis draft within two weeks")
	for i := 0; i < 5; i++ {
		require.Contains(t, out.Buttons, "Yes")
		_, out = h.press(t, user, st, "Yes")
	}
	require.Contains(t, out.Buttons, "Save Goal")
	msgs, out = h.press(t, user, st, "Save Goal")
	assert.True(t, hasMessage(msgs, "Your SMART goal has been saved!"))
	assert.Equal(t, runner.StateAddTasks, st.ChatState)
	assert.True(t, hasMessage(msgs, "Here are some example tasks"))
	require.Equal(t, runner.InputText, out.InputMode)

	goal, err := h.goals.LatestGoal(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, goal)
	assert.Equal(t, "Finish my thesis draft within two weeks", goal.GoalText)

	// Three tasks fill the plan and land the participant on the menu.
	for _, task := range []string{"Write 500 words a day", "Meet advisor weekly", "Revise one chapter"} {
		msgs, out = h.typeText(t, user, st, task)
	}
	assert.True(t, hasMessage(msgs, "You've added 3 tasks"))
	assert.Equal(t, runner.StateMenu, st.ChatState)
	require.Contains(t, out.Buttons, "➕ Create a New Goal")

	tasks, err := h.goals.ActiveTasks(ctx, goal.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 3)

	user = h.reload(t, user)
	assert.Equal(t, types.PhaseOnboardingDone, user.Phase)
}

func TestRunner_MenuButtonsByGroup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, tc := range []struct {
		group       string
		wantReflect bool
	}{
		{types.GroupControl, false},
		{types.GroupTreatment, true},
	} {
		user := testutil.NewTestUser(t, h.db,
			testutil.WithGroup(tc.group),
			testutil.WithTrainingDone(),
			testutil.WithPhase(types.PhaseOnboardingDone),
		)
		testutil.NewTestGoal(t, h.db, user, "Run more")

		st, err := h.runner.LoadOrStart(ctx, user, 0, "")
		require.NoError(t, err)
		assert.Equal(t, runner.StateMenu, st.ChatState)

		_, out := h.poll(t, user, st)
		assert.Contains(t, out.Buttons, "✅ View Existing Goal and Tasks")
		if tc.wantReflect {
			assert.Contains(t, out.Buttons, "✏️ Weekly Reflection")
		} else {
			assert.NotContains(t, out.Buttons, "✏️ Weekly Reflection")
		}
	}
}

func TestRunner_MenuReflectionWeekFromStudyDay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, h.db,
		testutil.WithGroup(types.GroupTreatment),
		testutil.WithTrainingDone(),
		testutil.WithPhase(types.PhaseOnboardingDone),
		testutil.WithOnboardingAnchor(time.Now().AddDate(0, 0, -8)),
	)
	goal := testutil.NewTestGoal(t, h.db, user, "Run more")
	testutil.NewTestTask(t, h.db, goal, "Jog twice a week")

	st, err := h.runner.LoadOrStart(ctx, user, 0, "")
	require.NoError(t, err)
	require.Equal(t, runner.StateMenu, st.ChatState)

	// Eight days past onboarding the menu entry opens the week-two check-in.
	_, out := h.press(t, user, st, "✏️ Weekly Reflection")
	assert.Equal(t, runner.StateReflection, st.ChatState)
	assert.Equal(t, 2, st.Week)
	assert.Equal(t, "a", st.Session)
	require.Contains(t, out.Buttons, "Completed")
}

func TestRunner_ViewGoalsRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, h.db,
		testutil.WithTrainingDone(),
		testutil.WithPhase(types.PhaseOnboardingDone),
	)
	goal := testutil.NewTestGoal(t, h.db, user, "Learn Spanish")
	testutil.NewTestTask(t, h.db, goal, "Duolingo streak")

	st, err := h.runner.LoadOrStart(ctx, user, 0, "")
	require.NoError(t, err)
	h.poll(t, user, st)

	msgs, out := h.press(t, user, st, "✅ View Existing Goal and Tasks")
	assert.Equal(t, runner.StateViewGoals, st.ChatState)
	assert.True(t, hasMessage(msgs, "Learn Spanish"))
	assert.True(t, hasMessage(msgs, "Duolingo streak"))
	require.Contains(t, out.Buttons, "Back to Menu")

	_, out = h.press(t, user, st, "Back to Menu")
	assert.Equal(t, runner.StateMenu, st.ChatState)
	assert.Contains(t, out.Buttons, "➕ Create a New Goal")
}

func TestRunner_ReentryIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, h.db,
		testutil.WithTrainingDone(),
		testutil.WithPhase(types.PhaseOnboardingDone),
	)
	goal := testutil.NewTestGoal(t, h.db, user, "Sleep better")
	testutil.NewTestTask(t, h.db, goal, "Same bedtime daily")

	st, err := h.runner.LoadOrStart(ctx, user, 0, "")
	require.NoError(t, err)
	h.poll(t, user, st)

	// A second load must restore the same position without replaying side
	// effects.
	st2, err := h.runner.LoadOrStart(ctx, user, 0, "")
	require.NoError(t, err)
	assert.Equal(t, st.ChatState, st2.ChatState)

	h.poll(t, user, st2)
	h.poll(t, user, st2)

	tasks, err := h.goals.ActiveTasks(ctx, goal.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	user = h.reload(t, user)
	assert.Equal(t, types.PhaseOnboardingDone, user.Phase)
}

func TestRunner_SuggestionDetourFormatsOutput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, h.db, testutil.WithTrainingDone())

	st, err := h.runner.LoadOrStart(ctx, user, 0, "")
	require.NoError(t, err)
	h.poll(t, user, st)
	_, out := h.press(t, user, st, "➕ Create a New Goal")
	assert.Equal(t, runner.StateGoalSetting, st.ChatState)
	require.Equal(t, runner.InputText, out.InputMode)

	h.typeText(t, user, st, "get fit")

	// Declining the specificity check detours through the suggestion step.
	msgs, out := h.press(t, user, st, "No")
	assert.True(t, hasMessage(msgs, "This is an example of a more specific goal"))
	assert.True(t, hasMessage(msgs, "<br>1. First idea"))
	require.Equal(t, runner.InputText, out.InputMode)

	// The rewritten goal replaces the slot for later prompts.
	msgs, _ = h.typeText(t, user, st, "run 5k three times a week")
	assert.True(t, hasMessage(msgs, "run 5k three times a week"))
}

func TestState_JSONRoundTrip(t *testing.T) {
	st := runner.NewState()
	st.ChatState = runner.StateReflection
	st.Week = 2
	st.Session = "b"
	st.ReflectionStage = runner.StageRate
	st.TaskOrder = []string{"11111111-1111-1111-1111-111111111111"}
	st.TaskIndex = 0
	st.AwaitingNote = true
	st.TaskRatings = map[string]int{"11111111-1111-1111-1111-111111111111": 3}
	st.TaskNotes = map[string]string{"11111111-1111-1111-1111-111111111111": "kept at it"}
	st.ReflectionAns = map[string]string{"what": "routine"}
	st.Answers["current_goal"] = "Learn Spanish"
	st.NeedsRestore = true

	raw, err := json.Marshal(st)
	require.NoError(t, err)

	restored := &runner.State{}
	require.NoError(t, json.Unmarshal(raw, restored))
	assert.Equal(t, st, restored)
}

func TestState_EmptyTrackingMapsSurviveRoundTrip(t *testing.T) {
	st := runner.NewState()
	st.TaskRatings = map[string]int{}
	st.TaskNotes = map[string]string{}
	st.ReflectionAns = map[string]string{}

	raw, err := json.Marshal(st)
	require.NoError(t, err)

	restored := &runner.State{}
	require.NoError(t, json.Unmarshal(raw, restored))
	require.NotNil(t, restored.TaskRatings)
	require.NotNil(t, restored.TaskNotes)
	require.NotNil(t, restored.ReflectionAns)
}
