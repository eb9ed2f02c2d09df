package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/types"
)

// ErrTaskLimit is returned when an insert would push a goal past its active
// task cap. Enforced here rather than in the flow so every write path shares
// one policy.
var ErrTaskLimit = errors.New("active task limit reached")

type TaskRepo interface {
	Create(ctx context.Context, tx *gorm.DB, task *types.Task, limit int) (*types.Task, error)
	ActiveByGoalID(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) ([]*types.Task, error)
	CountActive(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) (int64, error)
	GetByID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) (*types.Task, error)
	SetCompleted(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, completed bool) error
	Archive(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, replacedBy *uuid.UUID, reason string) error
	Replace(ctx context.Context, oldTaskID uuid.UUID, newTask *types.Task, reason string, limit int) (*types.Task, error)
}

type taskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
	return &taskRepo{db: db, log: baseLog.With("repo", "TaskRepo")}
}

func (tr *taskRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return tr.db
}

func (tr *taskRepo) Create(ctx context.Context, tx *gorm.DB, task *types.Task, limit int) (*types.Task, error) {
	run := func(inner *gorm.DB) error {
		var count int64
		if err := inner.Model(&types.Task{}).
			Where("goal_id = ? AND status = ?", task.GoalID, types.TaskStatusActive).
			Count(&count).Error; err != nil {
			return err
		}
		if limit > 0 && count >= int64(limit) {
			return ErrTaskLimit
		}
		return inner.Create(task).Error
	}

	var err error
	if tx != nil {
		err = run(tx.WithContext(ctx))
	} else {
		err = tr.db.WithContext(ctx).Transaction(run)
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (tr *taskRepo) ActiveByGoalID(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) ([]*types.Task, error) {
	var results []*types.Task
	if err := tr.conn(tx).WithContext(ctx).
		Where("goal_id = ? AND status = ?", goalID, types.TaskStatusActive).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *taskRepo) CountActive(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) (int64, error) {
	var count int64
	if err := tr.conn(tx).WithContext(ctx).
		Model(&types.Task{}).
		Where("goal_id = ? AND status = ?", goalID, types.TaskStatusActive).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (tr *taskRepo) GetByID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) (*types.Task, error) {
	var result types.Task
	err := tr.conn(tx).WithContext(ctx).Where("id = ?", taskID).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (tr *taskRepo) SetCompleted(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, completed bool) error {
	return tr.conn(tx).WithContext(ctx).
		Model(&types.Task{}).
		Where("id = ?", taskID).
		Update("completed", completed).Error
}

func (tr *taskRepo) Archive(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, replacedBy *uuid.UUID, reason string) error {
	return tr.conn(tx).WithContext(ctx).
		Model(&types.Task{}).
		Where("id = ? AND status = ?", taskID, types.TaskStatusActive).
		Updates(map[string]interface{}{
			"status":              types.TaskStatusArchived,
			"replaced_by_task_id": replacedBy,
			"replacement_reason":  reason,
		}).Error
}

// Replace archives the old task and inserts its successor in one
// transaction, so the active count never transiently exceeds the cap and the
// archive row always points at a task that exists.
func (tr *taskRepo) Replace(ctx context.Context, oldTaskID uuid.UUID, newTask *types.Task, reason string, limit int) (*types.Task, error) {
	err := tr.db.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		if err := tr.Archive(ctx, inner, oldTaskID, nil, reason); err != nil {
			return err
		}
		if _, err := tr.Create(ctx, inner, newTask, limit); err != nil {
			return err
		}
		return tr.conn(inner).
			Model(&types.Task{}).
			Where("id = ?", oldTaskID).
			Update("replaced_by_task_id", newTask.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return newTask, nil
}
