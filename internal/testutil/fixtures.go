package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/goalie-study/goalie-backend/internal/types"
)

var participantCounter atomic.Int64

// UserOption mutates a fixture user before insertion.
type UserOption func(*types.User)

func WithGroup(group string) UserOption {
	return func(u *types.User) { u.GroupAssignment = group }
}

func WithPhase(phase int) UserOption {
	return func(u *types.User) { u.Phase = phase }
}

func WithOnboardingAnchor(at time.Time) UserOption {
	return func(u *types.User) { u.OnboardingCompletedAt = &at }
}

func WithTrainingDone() UserOption {
	return func(u *types.User) {
		u.HasCompletedTraining = true
		if u.Phase < types.PhaseTrainingDone {
			u.Phase = types.PhaseTrainingDone
		}
	}
}

// NewTestUser inserts a participant with a unique code.
func NewTestUser(t *testing.T, db *gorm.DB, opts ...UserOption) *types.User {
	t.Helper()
	user := &types.User{
		ParticipantCode: fmt.Sprintf("PID%06d", participantCounter.Add(1)),
		GroupAssignment: types.GroupControl,
	}
	for _, opt := range opts {
		opt(user)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to insert fixture user: %v", err)
	}
	return user
}

// NewTestGoal inserts a goal for the given user.
func NewTestGoal(t *testing.T, db *gorm.DB, user *types.User, text string) *types.Goal {
	t.Helper()
	goal := &types.Goal{UserID: user.ID, GoalText: text}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to insert fixture goal: %v", err)
	}
	return goal
}

// NewTestTask inserts an active task under the given goal.
func NewTestTask(t *testing.T, db *gorm.DB, goal *types.Goal, text string) *types.Task {
	t.Helper()
	task := &types.Task{GoalID: goal.ID, TaskText: text, Status: types.TaskStatusActive}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("failed to insert fixture task: %v", err)
	}
	return task
}
