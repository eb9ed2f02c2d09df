package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/repos"
	"github.com/goalie-study/goalie-backend/internal/types"
)

// GoalAndTasks is the researcher-facing export shape: the participant's
// latest goal with its active task list.
type GoalAndTasks struct {
	Goal  *types.Goal   `json:"goal"`
	Tasks []*types.Task `json:"tasks"`
}

// GoalService manages a participant's goal and its action tasks. The active
// task count is capped; AddTask surfaces repos.ErrTaskLimit when the cap
// would be exceeded.
type GoalService interface {
	SaveGoal(ctx context.Context, userID uuid.UUID, goalText string) (*types.Goal, error)
	LatestGoal(ctx context.Context, userID uuid.UUID) (*types.Goal, error)
	HasGoal(ctx context.Context, userID uuid.UUID) (bool, error)
	AddTask(ctx context.Context, goalID uuid.UUID, taskText string) (*types.Task, error)
	ActiveTasks(ctx context.Context, goalID uuid.UUID) ([]*types.Task, error)
	TaskByID(ctx context.Context, taskID uuid.UUID) (*types.Task, error)
	SetTaskCompleted(ctx context.Context, taskID uuid.UUID, completed bool) error
	ReplaceTask(ctx context.Context, oldTaskID uuid.UUID, newText, reason string) (*types.Task, error)
	GetGoalAndTasks(ctx context.Context, userID uuid.UUID) (*GoalAndTasks, error)
}

type goalService struct {
	log       *logger.Logger
	db        *gorm.DB
	goals     repos.GoalRepo
	tasks     repos.TaskRepo
	taskLimit int
}

func NewGoalService(log *logger.Logger, db *gorm.DB, goals repos.GoalRepo, tasks repos.TaskRepo, taskLimit int) GoalService {
	return &goalService{
		log:       log.With("service", "GoalService"),
		db:        db,
		goals:     goals,
		tasks:     tasks,
		taskLimit: taskLimit,
	}
}

func (s *goalService) SaveGoal(ctx context.Context, userID uuid.UUID, goalText string) (*types.Goal, error) {
	goal, err := s.goals.Create(ctx, nil, &types.Goal{
		UserID:   userID,
		GoalText: goalText,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Saved goal", "user_id", userID.String(), "goal_id", goal.ID.String())
	return goal, nil
}

func (s *goalService) LatestGoal(ctx context.Context, userID uuid.UUID) (*types.Goal, error) {
	return s.goals.LatestByUserID(ctx, nil, userID)
}

func (s *goalService) HasGoal(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.goals.ExistsForUser(ctx, nil, userID)
}

func (s *goalService) AddTask(ctx context.Context, goalID uuid.UUID, taskText string) (*types.Task, error) {
	task, err := s.tasks.Create(ctx, nil, &types.Task{
		GoalID:   goalID,
		TaskText: taskText,
		Status:   types.TaskStatusActive,
	}, s.taskLimit)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *goalService) ActiveTasks(ctx context.Context, goalID uuid.UUID) ([]*types.Task, error) {
	return s.tasks.ActiveByGoalID(ctx, nil, goalID)
}

func (s *goalService) TaskByID(ctx context.Context, taskID uuid.UUID) (*types.Task, error) {
	return s.tasks.GetByID(ctx, nil, taskID)
}

func (s *goalService) SetTaskCompleted(ctx context.Context, taskID uuid.UUID, completed bool) error {
	return s.tasks.SetCompleted(ctx, nil, taskID, completed)
}

// ReplaceTask archives the old task and creates its successor atomically.
// The archived row keeps a pointer to the replacement and the participant's
// stated reason, so the audit trail survives.
func (s *goalService) ReplaceTask(ctx context.Context, oldTaskID uuid.UUID, newText, reason string) (*types.Task, error) {
	old, err := s.tasks.GetByID(ctx, nil, oldTaskID)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, gorm.ErrRecordNotFound
	}
	newTask := &types.Task{
		GoalID:   old.GoalID,
		TaskText: newText,
		Status:   types.TaskStatusActive,
	}
	replaced, err := s.tasks.Replace(ctx, oldTaskID, newTask, reason, s.taskLimit)
	if err != nil {
		return nil, err
	}
	s.log.Info("Replaced task", "old_task_id", oldTaskID.String(), "new_task_id", replaced.ID.String())
	return replaced, nil
}

func (s *goalService) GetGoalAndTasks(ctx context.Context, userID uuid.UUID) (*GoalAndTasks, error) {
	goal, err := s.goals.LatestByUserID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return &GoalAndTasks{Tasks: []*types.Task{}}, nil
	}
	tasks, err := s.tasks.ActiveByGoalID(ctx, nil, goal.ID)
	if err != nil {
		return nil, err
	}
	return &GoalAndTasks{Goal: goal, Tasks: tasks}, nil
}
