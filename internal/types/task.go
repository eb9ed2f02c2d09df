package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TaskStatusActive   = "active"
	TaskStatusArchived = "archived"
)

// Archiving is terminal: an archived task is never reactivated, and may
// point at the task that superseded it.
type Task struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	GoalID            uuid.UUID  `gorm:"type:uuid;not null;index;column:goal_id" json:"goal_id"`
	TaskText          string     `gorm:"not null;column:task_text" json:"task_text"`
	Completed         bool       `gorm:"not null;default:false;column:completed" json:"completed"`
	Status            string     `gorm:"not null;default:active;column:status" json:"status"`
	ReplacedByTaskID  *uuid.UUID `gorm:"type:uuid;column:replaced_by_task_id" json:"replaced_by_task_id"`
	ReplacementReason *string    `gorm:"column:replacement_reason" json:"replacement_reason"`
	CreatedAt         time.Time  `gorm:"not null" json:"created_at"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
