package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	AgentRoleDebater  = "debater"
	AgentRoleJudge    = "judge"
	AgentRoleAudience = "audience"
)

const (
	StancePro = "pro"
	StanceCon = "con"
)

// DebateAgent is immutable once its debate starts.
type DebateAgent struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DebateID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"debate_id"`
	Name          string         `gorm:"type:text;not null" json:"name"`
	Role          string         `gorm:"type:text;not null;index" json:"role"`
	Stance        *string        `gorm:"type:text" json:"stance,omitempty"`
	ModelProvider string         `gorm:"type:text;not null" json:"model_provider"`
	ModelName     string         `gorm:"type:text;not null" json:"model_name"`
	StyleTag      *string        `gorm:"type:text" json:"style_tag,omitempty"`
	AudienceType  *string        `gorm:"type:text" json:"audience_type,omitempty"`
	Persona       datatypes.JSON `gorm:"type:jsonb" json:"persona,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
}

func (DebateAgent) TableName() string { return "debate_agent" }

func (a *DebateAgent) StanceValue() string {
	if a.Stance == nil {
		return ""
	}
	return *a.Stance
}

func (a *DebateAgent) AudienceTypeValue() string {
	if a.AudienceType == nil {
		return ""
	}
	return *a.AudienceType
}
