package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	DebateStatusPending   = "pending"
	DebateStatusRunning   = "running"
	DebateStatusCompleted = "completed"
	DebateStatusFailed    = "failed"
)

const (
	WinnerPro  = "pro"
	WinnerCon  = "con"
	WinnerDraw = "draw"
)

type Debate struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Topic         string     `gorm:"type:text;not null" json:"topic"`
	ProDefinition *string    `gorm:"type:text" json:"pro_definition,omitempty"`
	ConDefinition *string    `gorm:"type:text" json:"con_definition,omitempty"`
	MaxRounds     int        `gorm:"not null;default:4" json:"max_rounds"`
	JudgeWeight   float64    `gorm:"not null;default:0.7" json:"judge_weight"`
	Status        string     `gorm:"type:text;not null;default:'pending';index" json:"status"`
	Winner        *string    `gorm:"type:text" json:"winner,omitempty"`
	CreatedAt     time.Time  `gorm:"not null;index" json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

func (Debate) TableName() string { return "debate" }

// AudienceWeight is derived, never stored.
func (d *Debate) AudienceWeight() float64 { return 1 - d.JudgeWeight }
