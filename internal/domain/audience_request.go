package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	IntentSupportPro = "support_pro"
	IntentSupportCon = "support_con"
)

const (
	NoveltyNew           = "new"
	NoveltyReinforcement = "reinforcement"
)

const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

type AudienceRequest struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoundID      uuid.UUID `gorm:"type:uuid;not null;index" json:"round_id"`
	AgentID      uuid.UUID `gorm:"type:uuid;not null;index" json:"agent_id"`
	Intent       string    `gorm:"type:text;not null" json:"intent"`
	Claim        string    `gorm:"type:text;not null" json:"claim"`
	Novelty      string    `gorm:"type:text;not null;default:'new'" json:"novelty"`
	Confidence   float64   `gorm:"not null;default:0.8" json:"confidence"`
	Status       string    `gorm:"type:text;not null;default:'pending';index" json:"status"`
	JudgeComment *string   `gorm:"type:text" json:"judge_comment,omitempty"`
	CreatedAt    time.Time `gorm:"not null;index" json:"created_at"`
}

func (AudienceRequest) TableName() string { return "audience_request" }

// StanceForIntent maps a speak-request intent to the stance the speech argues for.
func StanceForIntent(intent string) string {
	if intent == IntentSupportCon {
		return StanceCon
	}
	return StancePro
}
