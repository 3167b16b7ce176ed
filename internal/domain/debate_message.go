package domain

import (
	"time"

	"github.com/google/uuid"
)

// DebateMessage is append-only; created_at order is the canonical transcript order.
type DebateMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoundID   uuid.UUID `gorm:"type:uuid;not null;index" json:"round_id"`
	AgentID   uuid.UUID `gorm:"type:uuid;not null;index" json:"agent_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (DebateMessage) TableName() string { return "debate_message" }
