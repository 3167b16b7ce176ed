package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoundScore holds the judge's four-dimension scoring for one debater in one round.
// Exactly one row per (round, debater).
type RoundScore struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoundID  uuid.UUID `gorm:"type:uuid;not null;index:idx_score_round_agent,unique" json:"round_id"`
	AgentID  uuid.UUID `gorm:"type:uuid;not null;index:idx_score_round_agent,unique" json:"agent_id"`
	Logic    float64   `gorm:"not null" json:"logic"`
	Rebuttal float64   `gorm:"not null" json:"rebuttal"`
	Clarity  float64   `gorm:"not null" json:"clarity"`
	Evidence float64   `gorm:"not null" json:"evidence"`
	Comment  *string   `gorm:"type:text" json:"comment,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (RoundScore) TableName() string { return "round_score" }

func (s *RoundScore) Total() float64 {
	return s.Logic + s.Rebuttal + s.Clarity + s.Evidence
}
