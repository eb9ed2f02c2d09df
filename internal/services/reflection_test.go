package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/repos"
	"github.com/goalie-study/goalie-backend/internal/services"
	"github.com/goalie-study/goalie-backend/internal/testutil"
	"github.com/goalie-study/goalie-backend/internal/types"
)

func newReflectionService(t *testing.T) (services.ReflectionService, *testFixtures) {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := logger.NewNop()
	svc := services.NewReflectionService(log, db,
		repos.NewReflectionRepo(db, log),
		repos.NewReflectionDraftRepo(db, log),
	)
	user := testutil.NewTestUser(t, db, testutil.WithGroup(types.GroupTreatment))
	goal := testutil.NewTestGoal(t, db, user, "Finish my thesis")
	tasks := []*types.Task{
		testutil.NewTestTask(t, db, goal, "Write 500 words a day"),
		testutil.NewTestTask(t, db, goal, "Meet advisor weekly"),
	}
	return svc, &testFixtures{db: db, user: user, goal: goal, tasks: tasks}
}

type testFixtures struct {
	db    *gorm.DB
	user  *types.User
	goal  *types.Goal
	tasks []*types.Task
}

func sampleSubmission(f *testFixtures) services.ReflectionSubmission {
	return services.ReflectionSubmission{
		UserID:         f.user.ID,
		GoalID:         f.goal.ID,
		WeekNumber:     1,
		SessionID:      "a",
		ReflectionText: "Task Progress:<br>Write 500 words a day: Completed<br><br>WHAT: Routine helped.<br>",
		TaskRatings: []services.TaskRating{
			{TaskID: f.tasks[0].ID, Rating: 4},
			{TaskID: f.tasks[1].ID, Rating: 3},
		},
		TaskNotes: []services.TaskNote{
			{TaskID: f.tasks[0].ID, Note: "Wrote every morning."},
		},
		Answers: []services.QuestionAnswer{
			{QuestionKey: "what", Answer: "Routine helped."},
			{QuestionKey: "alignment", Answer: "Yes, still on track."},
		},
	}
}

func TestReflectionService_SubmitPersistsAllRows(t *testing.T) {
	svc, f := newReflectionService(t)
	ctx := context.Background()

	saved, err := svc.Submit(ctx, sampleSubmission(f))
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.True(t, saved.Completed)
	assert.Equal(t, 1, saved.WeekNumber)
	assert.Equal(t, "a", saved.SessionID)

	var responses int64
	require.NoError(t, f.db.Model(&types.ReflectionResponse{}).
		Where("reflection_id = ?", saved.ID).Count(&responses).Error)
	assert.EqualValues(t, 5, responses, "two ratings, one note, two answers")
}

func TestReflectionService_SubmitRejectsDuplicateKey(t *testing.T) {
	svc, f := newReflectionService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, sampleSubmission(f))
	require.NoError(t, err)

	_, err = svc.Submit(ctx, sampleSubmission(f))
	require.ErrorIs(t, err, services.ErrReflectionExists)

	var reflections int64
	require.NoError(t, f.db.Model(&types.Reflection{}).
		Where("user_id = ?", f.user.ID).Count(&reflections).Error)
	assert.EqualValues(t, 1, reflections)

	var responses int64
	require.NoError(t, f.db.Model(&types.ReflectionResponse{}).Count(&responses).Error)
	assert.EqualValues(t, 5, responses, "the rejected submit must leave no rows behind")
}

func TestReflectionService_WeekNumbering(t *testing.T) {
	svc, f := newReflectionService(t)
	ctx := context.Background()

	next, err := svc.NextWeekNumber(ctx, f.user.ID, f.goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	_, err = svc.Submit(ctx, sampleSubmission(f))
	require.NoError(t, err)

	next, err = svc.NextWeekNumber(ctx, f.user.ID, f.goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, next)
}

func TestReflectionService_Drafts(t *testing.T) {
	svc, f := newReflectionService(t)
	ctx := context.Background()

	type draftState struct {
		Ratings map[string]int `json:"task_ratings"`
	}
	in := draftState{Ratings: map[string]int{f.tasks[0].ID.String(): 2}}
	require.NoError(t, svc.SaveDraft(ctx, f.user.ID, f.goal.ID, 1, "a", in))

	var out draftState
	found, err := svc.LoadDraft(ctx, f.user.ID, f.goal.ID, 1, "a", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, in.Ratings, out.Ratings)

	// Submitting the session clears its draft.
	_, err = svc.Submit(ctx, sampleSubmission(f))
	require.NoError(t, err)

	found, err = svc.LoadDraft(ctx, f.user.ID, f.goal.ID, 1, "a", &out)
	require.NoError(t, err)
	assert.False(t, found)
}
