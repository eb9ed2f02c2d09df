package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	SenderBot  = "bot"
	SenderUser = "user"
)

// Append-only transcript row. The bigserial primary key doubles as the
// insertion order.
type ChatMessage struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Sender    string    `gorm:"not null;column:sender" json:"sender"`
	Message   string    `gorm:"not null;column:message" json:"message"`
	Phase     string    `gorm:"column:phase" json:"phase"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_history"
}
