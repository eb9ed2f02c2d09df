package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Goal struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	GoalText  string    `gorm:"not null;column:goal_text" json:"goal_text"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Goal) TableName() string {
	return "goals"
}

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
