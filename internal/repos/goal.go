package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/types"
)

type GoalRepo interface {
	Create(ctx context.Context, tx *gorm.DB, goal *types.Goal) (*types.Goal, error)
	LatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Goal, error)
	ExistsForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (bool, error)
}

type goalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGoalRepo(db *gorm.DB, baseLog *logger.Logger) GoalRepo {
	return &goalRepo{db: db, log: baseLog.With("repo", "GoalRepo")}
}

func (gr *goalRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return gr.db
}

func (gr *goalRepo) Create(ctx context.Context, tx *gorm.DB, goal *types.Goal) (*types.Goal, error) {
	if err := gr.conn(tx).WithContext(ctx).Create(goal).Error; err != nil {
		return nil, err
	}
	return goal, nil
}

// LatestByUserID returns the most recent goal. Multiple rows are tolerated
// but only the newest one is active in this design.
func (gr *goalRepo) LatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Goal, error) {
	var result types.Goal
	err := gr.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (gr *goalRepo) ExistsForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (bool, error) {
	var count int64
	if err := gr.conn(tx).WithContext(ctx).
		Model(&types.Goal{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
