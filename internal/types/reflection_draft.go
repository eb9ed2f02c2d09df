package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// In-progress reflection answers, upserted while the participant works
// through a check-in and deleted on final submit.
type ReflectionDraft struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_reflection_draft_key;column:user_id" json:"user_id"`
	GoalID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_reflection_draft_key;column:goal_id" json:"goal_id"`
	WeekNumber int            `gorm:"not null;uniqueIndex:idx_reflection_draft_key;column:week_number" json:"week_number"`
	SessionID  string         `gorm:"not null;uniqueIndex:idx_reflection_draft_key;column:session_id" json:"session_id"`
	Payload    datatypes.JSON `gorm:"column:payload" json:"payload"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
}

func (ReflectionDraft) TableName() string {
	return "reflection_drafts"
}

func (d *ReflectionDraft) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
