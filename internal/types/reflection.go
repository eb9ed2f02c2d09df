package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// One reflection per (user, goal, week, session); the composite unique
// index is the idempotence guard for re-submission.
type Reflection struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reflection_key;column:user_id" json:"user_id"`
	GoalID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reflection_key;column:goal_id" json:"goal_id"`
	WeekNumber     int       `gorm:"not null;uniqueIndex:idx_reflection_key;column:week_number" json:"week_number"`
	SessionID      string    `gorm:"not null;uniqueIndex:idx_reflection_key;column:session_id" json:"session_id"`
	ReflectionText string    `gorm:"not null;column:reflection_text" json:"reflection_text"`
	Completed      bool      `gorm:"not null;default:false;column:completed" json:"completed"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (Reflection) TableName() string {
	return "reflections"
}

func (r *Reflection) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
