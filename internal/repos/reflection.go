package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/types"
)

type ReflectionRepo interface {
	Exists(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID, week int, session string) (bool, error)
	Create(ctx context.Context, tx *gorm.DB, reflection *types.Reflection) (*types.Reflection, error)
	CreateResponses(ctx context.Context, tx *gorm.DB, responses []*types.ReflectionResponse) error
	LastByUserGoal(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID) (*types.Reflection, error)
	NextWeekNumber(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID) (int, error)
	CountResponses(ctx context.Context, tx *gorm.DB, reflectionID uuid.UUID) (int64, error)
}

type reflectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReflectionRepo(db *gorm.DB, baseLog *logger.Logger) ReflectionRepo {
	return &reflectionRepo{db: db, log: baseLog.With("repo", "ReflectionRepo")}
}

func (rr *reflectionRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return rr.db
}

func (rr *reflectionRepo) Exists(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID, week int, session string) (bool, error) {
	var count int64
	if err := rr.conn(tx).WithContext(ctx).
		Model(&types.Reflection{}).
		Where("user_id = ? AND goal_id = ? AND week_number = ? AND session_id = ?", userID, goalID, week, session).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (rr *reflectionRepo) Create(ctx context.Context, tx *gorm.DB, reflection *types.Reflection) (*types.Reflection, error) {
	if err := rr.conn(tx).WithContext(ctx).Create(reflection).Error; err != nil {
		return nil, err
	}
	return reflection, nil
}

func (rr *reflectionRepo) CreateResponses(ctx context.Context, tx *gorm.DB, responses []*types.ReflectionResponse) error {
	if len(responses) == 0 {
		return nil
	}
	return rr.conn(tx).WithContext(ctx).Create(&responses).Error
}

func (rr *reflectionRepo) LastByUserGoal(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID) (*types.Reflection, error) {
	var result types.Reflection
	err := rr.conn(tx).WithContext(ctx).
		Where("user_id = ? AND goal_id = ?", userID, goalID).
		Order("week_number DESC, session_id DESC").
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (rr *reflectionRepo) NextWeekNumber(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID) (int, error) {
	var maxWeek *int
	if err := rr.conn(tx).WithContext(ctx).
		Model(&types.Reflection{}).
		Select("MAX(week_number)").
		Where("user_id = ? AND goal_id = ?", userID, goalID).
		Scan(&maxWeek).Error; err != nil {
		return 0, err
	}
	if maxWeek == nil {
		return 1, nil
	}
	return *maxWeek + 1, nil
}

func (rr *reflectionRepo) CountResponses(ctx context.Context, tx *gorm.DB, reflectionID uuid.UUID) (int64, error) {
	var count int64
	if err := rr.conn(tx).WithContext(ctx).
		Model(&types.ReflectionResponse{}).
		Where("reflection_id = ?", reflectionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
