package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// A response row is either a per-task progress rating (TaskID + Rating set)
// or a free-text answer keyed by QuestionKey.
type ReflectionResponse struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ReflectionID uuid.UUID  `gorm:"type:uuid;not null;index;column:reflection_id" json:"reflection_id"`
	TaskID       *uuid.UUID `gorm:"type:uuid;column:task_id" json:"task_id"`
	QuestionKey  string     `gorm:"not null;column:question_key" json:"question_key"`
	Rating       *int       `gorm:"column:rating" json:"rating"`
	Answer       string     `gorm:"column:answer" json:"answer"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
}

func (ReflectionResponse) TableName() string {
	return "reflection_responses"
}

func (r *ReflectionResponse) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
