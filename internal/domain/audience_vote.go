package domain

import (
	"time"

	"github.com/google/uuid"
)

// AudienceVote is cast once per (debate, audience agent) at finalization.
type AudienceVote struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DebateID   uuid.UUID `gorm:"type:uuid;not null;index:idx_vote_debate_agent,unique" json:"debate_id"`
	AgentID    uuid.UUID `gorm:"type:uuid;not null;index:idx_vote_debate_agent,unique" json:"agent_id"`
	Vote       string    `gorm:"type:text;not null" json:"vote"`
	Confidence float64   `gorm:"not null;default:0.5" json:"confidence"`
	Reason     *string   `gorm:"type:text" json:"reason,omitempty"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (AudienceVote) TableName() string { return "audience_vote" }
