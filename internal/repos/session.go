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

type SessionRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, userID uuid.UUID, state []byte) error
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserSession, error)
	Delete(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "SessionRepo")}
}

func (sr *sessionRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return sr.db
}

// Upsert overwrites the whole snapshot. Last write wins; concurrent tabs are
// not coordinated.
func (sr *sessionRepo) Upsert(ctx context.Context, tx *gorm.DB, userID uuid.UUID, state []byte) error {
	conn := sr.conn(tx).WithContext(ctx)
	existing, err := sr.GetByUserID(ctx, tx, userID)
	if err != nil {
		return err
	}
	if existing == nil {
		session := &types.UserSession{
			UserID:    userID,
			State:     datatypes.JSON(state),
			UpdatedAt: time.Now().UTC(),
		}
		return conn.Create(session).Error
	}
	return conn.Model(&types.UserSession{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"state":      datatypes.JSON(state),
			"updated_at": time.Now().UTC(),
		}).Error
}

func (sr *sessionRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserSession, error) {
	var result types.UserSession
	err := sr.conn(tx).WithContext(ctx).Where("user_id = ?", userID).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (sr *sessionRepo) Delete(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return sr.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.UserSession{}).Error
}
