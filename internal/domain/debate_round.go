package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	PhaseOpening  = "opening"
	PhaseRebuttal = "rebuttal"
	PhaseClosing  = "closing"
)

// DebateRound sequences are dense 1..max_rounds and unique per debate.
type DebateRound struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DebateID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_round_debate_seq,unique" json:"debate_id"`
	Sequence    int        `gorm:"not null;index:idx_round_debate_seq,unique" json:"sequence"`
	Phase       string     `gorm:"type:text;not null" json:"phase"`
	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (DebateRound) TableName() string { return "debate_round" }
