package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/repos"
	"github.com/goalie-study/goalie-backend/internal/testutil"
	"github.com/goalie-study/goalie-backend/internal/types"
)

func TestUserRepo_GetByParticipantCodeNotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repos.NewUserRepo(db, logger.NewNop())

	found, err := repo.GetByParticipantCode(context.Background(), nil, "NOSUCHPID")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestUserRepo_PresurveyStampsOnboardingOnce(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repos.NewUserRepo(db, logger.NewNop())
	ctx := context.Background()

	user := testutil.NewTestUser(t, db)
	require.Nil(t, user.OnboardingCompletedAt)

	require.NoError(t, repo.MarkSurveyCompleted(ctx, nil, user.ParticipantCode, "presurvey"))

	first, err := repo.GetByID(ctx, nil, user.ID)
	require.NoError(t, err)
	require.NotNil(t, first.OnboardingCompletedAt)
	assert.True(t, first.HasCompletedPresurvey)
	stamp := *first.OnboardingCompletedAt

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, repo.MarkSurveyCompleted(ctx, nil, user.ParticipantCode, "presurvey"))

	second, err := repo.GetByID(ctx, nil, user.ID)
	require.NoError(t, err)
	require.NotNil(t, second.OnboardingCompletedAt)
	assert.Equal(t, stamp.Unix(), second.OnboardingCompletedAt.Unix(),
		"repeat presurvey must not move Day 0")
}

func TestUserRepo_PostsurveyDoesNotTouchOnboarding(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repos.NewUserRepo(db, logger.NewNop())
	ctx := context.Background()

	user := testutil.NewTestUser(t, db)
	require.NoError(t, repo.MarkSurveyCompleted(ctx, nil, user.ParticipantCode, "postsurvey"))

	got, err := repo.GetByID(ctx, nil, user.ID)
	require.NoError(t, err)
	assert.True(t, got.HasCompletedPostsurvey)
	assert.Nil(t, got.OnboardingCompletedAt)
}

func TestUserRepo_MarkSurveyCompletedUnknownStage(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repos.NewUserRepo(db, logger.NewNop())

	user := testutil.NewTestUser(t, db)
	err := repo.MarkSurveyCompleted(context.Background(), nil, user.ParticipantCode, "midsurvey")
	assert.Error(t, err)
}

func TestUserRepo_AdvancePhaseIsMonotonic(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repos.NewUserRepo(db, logger.NewNop())
	ctx := context.Background()

	user := testutil.NewTestUser(t, db, testutil.WithPhase(types.PhaseOnboardingDone))

	// A stale snapshot replaying an earlier transition must be a no-op.
	require.NoError(t, repo.AdvancePhase(ctx, nil, user.ID, types.PhaseTrainingDone))
	got, err := repo.GetByID(ctx, nil, user.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseOnboardingDone, got.Phase)

	require.NoError(t, repo.AdvancePhase(ctx, nil, user.ID, types.PhaseFirstReflection))
	got, err = repo.GetByID(ctx, nil, user.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseFirstReflection, got.Phase)
}
