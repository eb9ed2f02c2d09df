package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/types"
)

type ReflectionDraftRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID, week int, session string, payload []byte) error
	Get(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID, week int, session string) (*types.ReflectionDraft, error)
	Delete(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID, week int, session string) error
}

type reflectionDraftRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReflectionDraftRepo(db *gorm.DB, baseLog *logger.Logger) ReflectionDraftRepo {
	return &reflectionDraftRepo{db: db, log: baseLog.With("repo", "ReflectionDraftRepo")}
}

func (dr *reflectionDraftRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return dr.db
}

func (dr *reflectionDraftRepo) Upsert(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID, week int, session string, payload []byte) error {
	conn := dr.conn(tx).WithContext(ctx)
	existing, err := dr.Get(ctx, tx, userID, goalID, week, session)
	if err != nil {
		return err
	}
	if existing == nil {
		draft := &types.ReflectionDraft{
			UserID:     userID,
			GoalID:     goalID,
			WeekNumber: week,
			SessionID:  session,
			Payload:    datatypes.JSON(payload),
			UpdatedAt:  time.Now().UTC(),
		}
		return conn.Create(draft).Error
	}
	return conn.Model(&types.ReflectionDraft{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"payload":    datatypes.JSON(payload),
			"updated_at": time.Now().UTC(),
		}).Error
}

func (dr *reflectionDraftRepo) Get(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID, week int, session string) (*types.ReflectionDraft, error) {
	var result types.ReflectionDraft
	err := dr.conn(tx).WithContext(ctx).
		Where("user_id = ? AND goal_id = ? AND week_number = ? AND session_id = ?", userID, goalID, week, session).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (dr *reflectionDraftRepo) Delete(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID, week int, session string) error {
	return dr.conn(tx).WithContext(ctx).
		Where("user_id = ? AND goal_id = ? AND week_number = ? AND session_id = ?", userID, goalID, week, session).
		Delete(&types.ReflectionDraft{}).Error
}
