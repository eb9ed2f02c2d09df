package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/types"
)

type ChatMessageRepo interface {
	Append(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ChatMessage, error)
	ListByUserPhase(ctx context.Context, tx *gorm.DB, userID uuid.UUID, phase string) ([]*types.ChatMessage, error)
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{db: db, log: baseLog.With("repo", "ChatMessageRepo")}
}

func (cr *chatMessageRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return cr.db
}

func (cr *chatMessageRepo) Append(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) error {
	return cr.conn(tx).WithContext(ctx).Create(message).Error
}

func (cr *chatMessageRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ChatMessage, error) {
	var results []*types.ChatMessage
	if err := cr.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *chatMessageRepo) ListByUserPhase(ctx context.Context, tx *gorm.DB, userID uuid.UUID, phase string) ([]*types.ChatMessage, error) {
	var results []*types.ChatMessage
	if err := cr.conn(tx).WithContext(ctx).
		Where("user_id = ? AND phase = ?", userID, phase).
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
