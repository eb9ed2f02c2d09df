package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserSession is the persisted step-runner snapshot. One row per user,
// overwritten on every transition; last write wins across tabs.
type UserSession struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex;column:user_id" json:"user_id"`
	State     datatypes.JSON `gorm:"column:state" json:"state"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (UserSession) TableName() string {
	return "user_sessions"
}

func (s *UserSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
