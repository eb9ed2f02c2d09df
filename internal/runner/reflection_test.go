package runner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalie-study/goalie-backend/internal/runner"
	"github.com/goalie-study/goalie-backend/internal/testutil"
	"github.com/goalie-study/goalie-backend/internal/types"
)

func newReflectionParticipant(t *testing.T, h *harness, taskTexts ...string) (*types.User, *types.Goal, []*types.Task) {
	t.Helper()
	user := testutil.NewTestUser(t, h.db,
		testutil.WithGroup(types.GroupTreatment),
		testutil.WithTrainingDone(),
		testutil.WithPhase(types.PhaseOnboardingDone),
	)
	goal := testutil.NewTestGoal(t, h.db, user, "Finish my thesis draft within two weeks")
	var tasks []*types.Task
	for _, text := range taskTexts {
		tasks = append(tasks, testutil.NewTestTask(t, h.db, goal, text))
	}
	return user, goal, tasks
}

func TestRunner_ReflectionSuccessPath(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, goal, _ := newReflectionParticipant(t, h, "Write 500 words a day", "Meet advisor weekly")

	st, err := h.runner.LoadOrStart(ctx, user, 1, "a")
	require.NoError(t, err)
	assert.Equal(t, runner.StateReflection, st.ChatState)
	assert.Equal(t, 1, st.Week)
	assert.Equal(t, "a", st.Session)

	msgs, out := h.poll(t, user, st)
	assert.True(t, hasMessage(msgs, "let's reflect on your goal"))
	assert.True(t, hasMessage(msgs, "How much progress did you make"))
	require.Equal(t, runner.InputButtons, out.InputMode)
	require.Contains(t, out.Buttons, "Completed")

	// Both tasks rated at the top of the scale with a short note each.
	for _, note := range []string{"Wrote every morning.", "Advisor gave good feedback."} {
		_, out = h.press(t, user, st, "Completed")
		require.Equal(t, runner.InputText, out.InputMode)
		_, out = h.typeText(t, user, st, note)
	}

	// Full marks clear the success threshold, so the debrief asks what
	// worked rather than walking an obstacle plan.
	msgs, _ = h.typeText(t, user, st, "Routine helped.")
	assert.True(t, hasMessage(msgs, "easier or more motivating"))
	h.typeText(t, user, st, "It felt close to done.")
	msgs, _ = h.typeText(t, user, st, "Keep the morning writing block.")
	assert.True(t, hasMessage(msgs, "still feel aligned"))

	msgs, out = h.typeText(t, user, st, "Yes, this is still my top priority.")
	assert.True(t, hasMessage(msgs, "keep, modify, or replace"))
	require.Contains(t, out.Buttons, "Keep")

	h.press(t, user, st, "Keep")
	msgs, out = h.press(t, user, st, "Keep")
	assert.True(t, hasMessage(msgs, "Thanks for reflecting!"))
	require.Contains(t, out.Buttons, "No")

	msgs, out = h.press(t, user, st, "No")
	assert.True(t, hasMessage(msgs, "You're all set"))
	assert.True(t, out.Done)
	assert.Equal(t, runner.StateDone, st.ChatState)

	// One reflection row keyed to the deep link, with the success-branch
	// narrative and all response rows.
	var reflection types.Reflection
	require.NoError(t, h.db.Where("user_id = ?", user.ID).First(&reflection).Error)
	assert.Equal(t, goal.ID, reflection.GoalID)
	assert.Equal(t, 1, reflection.WeekNumber)
	assert.Equal(t, "a", reflection.SessionID)
	assert.True(t, reflection.Completed)
	assert.Contains(t, reflection.ReflectionText, "Task Progress:")
	assert.Contains(t, reflection.ReflectionText, "WHAT:")
	assert.Contains(t, reflection.ReflectionText, "ALIGNMENT:")
	assert.NotContains(t, reflection.ReflectionText, "OBSTACLE:")

	var responses int64
	require.NoError(t, h.db.Model(&types.ReflectionResponse{}).
		Where("reflection_id = ?", reflection.ID).Count(&responses).Error)
	assert.EqualValues(t, 8, responses, "two ratings, two notes, three answers, alignment")

	// Top-of-scale ratings mark the underlying tasks complete.
	var completed int64
	require.NoError(t, h.db.Model(&types.Task{}).
		Where("goal_id = ? AND completed = ?", goal.ID, true).Count(&completed).Error)
	assert.EqualValues(t, 2, completed)

	user = h.reload(t, user)
	assert.Equal(t, types.PhaseFirstReflection, user.Phase)
}

func TestRunner_ReflectionStruggledPathReplacesTask(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, goal, tasks := newReflectionParticipant(t, h, "Write 500 words a day")

	st, err := h.runner.LoadOrStart(ctx, user, 1, "a")
	require.NoError(t, err)
	h.poll(t, user, st)

	// A single "None" rating lands well under the threshold.
	h.press(t, user, st, "None")
	h.typeText(t, user, st, "Too tired after work.")

	msgs, _ := h.typeText(t, user, st, "Momentum on the draft.")
	assert.True(t, hasMessage(msgs, "biggest barrier"))
	msgs, _ = h.typeText(t, user, st, "Evening fatigue.")
	assert.True(t, hasMessage(msgs, "Plan: If"))
	h.typeText(t, user, st, "If I'm tired, then I will write at lunch instead.")
	h.typeText(t, user, st, "Yes, still aligned.")

	msgs, out := h.press(t, user, st, "Replace")
	assert.True(t, hasMessage(msgs, "ideas you could consider instead"))
	require.Equal(t, runner.InputText, out.InputMode)

	msgs, out = h.typeText(t, user, st, "Write for 20 minutes at lunch")
	assert.True(t, hasMessage(msgs, "will be updated to"))

	h.press(t, user, st, "No")

	old, err := h.goals.TaskByID(ctx, tasks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusArchived, old.Status)
	require.NotNil(t, old.ReplacedByTaskID)
	require.NotNil(t, old.ReplacementReason)
	assert.Equal(t, "replace", *old.ReplacementReason)

	active, err := h.goals.ActiveTasks(ctx, goal.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Write for 20 minutes at lunch", active[0].TaskText)
	assert.Equal(t, *old.ReplacedByTaskID, active[0].ID)

	var reflection types.Reflection
	require.NoError(t, h.db.Where("user_id = ?", user.ID).First(&reflection).Error)
	assert.Contains(t, reflection.ReflectionText, "OBSTACLE:")
	assert.NotContains(t, reflection.ReflectionText, "SO WHAT:")
}

func TestRunner_ReflectionDuplicateRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, goal, _ := newReflectionParticipant(t, h, "Write 500 words a day")

	require.NoError(t, h.db.Create(&types.Reflection{
		UserID:         user.ID,
		GoalID:         goal.ID,
		WeekNumber:     1,
		SessionID:      "a",
		ReflectionText: "Already done.",
		Completed:      true,
	}).Error)

	st, err := h.runner.LoadOrStart(ctx, user, 1, "a")
	require.NoError(t, err)

	msgs, out := h.poll(t, user, st)
	assert.True(t, hasMessage(msgs, "already submitted a reflection"))
	assert.True(t, hasMessage(msgs, "Week 1, Session A"))
	assert.True(t, out.Done)
	assert.Equal(t, runner.StateDone, st.ChatState)

	var count int64
	require.NoError(t, h.db.Model(&types.Reflection{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count, "the blocked session must not add a second row")
}

func TestRunner_ReflectionStateSurvivesReload(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, _, _ := newReflectionParticipant(t, h, "Write 500 words a day")

	st, err := h.runner.LoadOrStart(ctx, user, 1, "a")
	require.NoError(t, err)
	h.poll(t, user, st)

	// A new request restores the snapshot from the database. The tracking
	// maps must come back as empty maps, not nil.
	restored, err := h.runner.LoadOrStart(ctx, user, 1, "a")
	require.NoError(t, err)
	require.NotNil(t, restored.TaskRatings)
	require.NotNil(t, restored.TaskNotes)
	require.NotNil(t, restored.ReflectionAns)

	out, err := h.runner.Step(ctx, user, restored, runner.Event{Type: runner.EventButton, Value: "Completed"})
	require.NoError(t, err)
	assert.Equal(t, runner.InputText, out.InputMode)
	assert.Len(t, restored.TaskRatings, 1)
}

func TestRunner_MenuReachableAfterReflection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, goal, _ := newReflectionParticipant(t, h, "Write 500 words a day")

	require.NoError(t, h.db.Create(&types.Reflection{
		UserID:         user.ID,
		GoalID:         goal.ID,
		WeekNumber:     1,
		SessionID:      "a",
		ReflectionText: "Already done.",
		Completed:      true,
	}).Error)

	st, err := h.runner.LoadOrStart(ctx, user, 1, "a")
	require.NoError(t, err)
	_, out := h.poll(t, user, st)
	require.True(t, out.Done)

	// A finished session must not trap the participant: the next visit
	// without a deep link starts over on the menu.
	st, err = h.runner.LoadOrStart(ctx, user, 0, "")
	require.NoError(t, err)
	assert.Equal(t, runner.StateMenu, st.ChatState)
	_, out = h.poll(t, user, st)
	require.Contains(t, out.Buttons, "➕ Create a New Goal")
	require.Contains(t, out.Buttons, "✏️ Weekly Reflection")
}

func TestRunner_ReflectionResumesFromDraft(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, goal, tasks := newReflectionParticipant(t, h,
		"Write 500 words a day", "Meet advisor weekly")

	// A checkpoint left behind by an interrupted session covers the first
	// task.
	require.NoError(t, h.reflections.SaveDraft(ctx, user.ID, goal.ID, 1, "a", map[string]interface{}{
		"task_ratings":       map[string]int{tasks[0].ID.String(): 4},
		"task_notes":         map[string]string{tasks[0].ID.String(): "Wrote every morning."},
		"reflection_answers": map[string]string{},
	}))

	st, err := h.runner.LoadOrStart(ctx, user, 1, "a")
	require.NoError(t, err)
	msgs, out := h.poll(t, user, st)
	assert.True(t, hasMessage(msgs, "pick up where you left off"))
	assert.True(t, hasMessage(msgs, tasks[1].TaskText))
	require.Contains(t, out.Buttons, "Completed")
	assert.Equal(t, 1, st.TaskIndex)

	h.press(t, user, st, "Completed")
	h.typeText(t, user, st, "Advisor gave good feedback.")
	h.typeText(t, user, st, "Routine.")
	h.typeText(t, user, st, "Momentum.")
	h.typeText(t, user, st, "Keep going.")
	h.typeText(t, user, st, "Still aligned.")
	h.press(t, user, st, "Keep")
	h.press(t, user, st, "Keep")
	h.press(t, user, st, "No")

	// The submitted row folds in the checkpointed rating, and the draft is
	// cleaned up.
	var reflection types.Reflection
	require.NoError(t, h.db.Where("user_id = ?", user.ID).First(&reflection).Error)
	assert.Contains(t, reflection.ReflectionText, "Write 500 words a day: Completed")

	var leftover map[string]interface{}
	found, err := h.reflections.LoadDraft(ctx, user.ID, goal.ID, 1, "a", &leftover)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRunner_ReflectionAddsFollowupTask(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, goal, _ := newReflectionParticipant(t, h, "Write 500 words a day")

	st, err := h.runner.LoadOrStart(ctx, user, 1, "a")
	require.NoError(t, err)
	h.poll(t, user, st)

	h.press(t, user, st, "Completed")
	h.typeText(t, user, st, "Kept at it.")
	h.typeText(t, user, st, "Routine.")
	h.typeText(t, user, st, "Momentum.")
	h.typeText(t, user, st, "Keep going.")
	h.typeText(t, user, st, "Still aligned.")
	h.press(t, user, st, "Keep")

	msgs, out := h.press(t, user, st, "Yes")
	assert.True(t, hasMessage(msgs, "Type the new task below"))
	require.Equal(t, runner.InputText, out.InputMode)

	msgs, out = h.typeText(t, user, st, "Outline the final chapter")
	assert.True(t, hasMessage(msgs, "Added! Good luck this week."))
	assert.True(t, out.Done)

	active, err := h.goals.ActiveTasks(ctx, goal.ID)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestRunner_ReflectionDeepLinkIgnoredForControl(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, h.db,
		testutil.WithGroup(types.GroupControl),
		testutil.WithTrainingDone(),
		testutil.WithPhase(types.PhaseOnboardingDone),
	)
	testutil.NewTestGoal(t, h.db, user, "Run more")

	st, err := h.runner.LoadOrStart(ctx, user, 1, "a")
	require.NoError(t, err)
	assert.Equal(t, runner.StateMenu, st.ChatState, "control participants never enter the reflection flow")
}
