package realtime

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventDebateStart      EventType = "debate_start"
	EventRoundStart       EventType = "round_start"
	EventAgentStart       EventType = "agent_start"
	EventToken            EventType = "token"
	EventAgentEnd         EventType = "agent_end"
	EventAudienceRequests EventType = "audience_requests"
	EventAudienceApproval EventType = "audience_approval"
	EventAudienceSpeech   EventType = "audience_speech"
	EventScoreUpdate      EventType = "score_update"
	EventRoundEnd         EventType = "round_end"
	EventDebateEnd        EventType = "debate_end"
	EventDebateStopped    EventType = "debate_stopped"
	EventError            EventType = "error"
)

// Event is the unit of fan-out. DebateID doubles as the hub channel key.
type Event struct {
	DebateID uuid.UUID `json:"debate_id"`
	Type     EventType `json:"type"`
	Data     any       `json:"data,omitempty"`
	At       time.Time `json:"at"`
}

type DebateStartData struct {
	DebateID  uuid.UUID `json:"debate_id"`
	Topic     string    `json:"topic"`
	MaxRounds int       `json:"max_rounds"`
}

type RoundStartData struct {
	RoundID  uuid.UUID `json:"round_id"`
	Sequence int       `json:"sequence"`
	Phase    string    `json:"phase"`
}

type AgentStartData struct {
	AgentID uuid.UUID `json:"agent_id"`
	Role    string    `json:"role"`
	Stance  string    `json:"stance,omitempty"`
}

type TokenData struct {
	Token string `json:"token"`
}

type AgentEndData struct {
	AgentID uuid.UUID `json:"agent_id"`
	Content string    `json:"content"`
}

type AudienceRequestsData struct {
	RoundID       uuid.UUID `json:"round_id"`
	RequestsCount int       `json:"requests_count"`
}

type AudienceApprovalData struct {
	RequestID uuid.UUID `json:"request_id"`
	AgentID   uuid.UUID `json:"agent_id"`
	Approved  bool      `json:"approved"`
	Comment   string    `json:"comment,omitempty"`
}

type AudienceSpeechData struct {
	AgentID      uuid.UUID `json:"agent_id"`
	AudienceType string    `json:"audience_type"`
	Content      string    `json:"content"`
}

type ScorePair struct {
	Pro float64 `json:"pro"`
	Con float64 `json:"con"`
}

type ScoreUpdateData struct {
	RoundID uuid.UUID `json:"round_id"`
	Scores  ScorePair `json:"scores"`
}

type RoundEndData struct {
	RoundID  uuid.UUID `json:"round_id"`
	Sequence int       `json:"sequence"`
}

type DebateEndData struct {
	DebateID    uuid.UUID `json:"debate_id"`
	Winner      string    `json:"winner"`
	FinalScores ScorePair `json:"final_scores"`
	JudgeScores ScorePair `json:"judge_scores"`
}

type DebateStoppedData struct {
	DebateID uuid.UUID `json:"debate_id"`
}

type ErrorData struct {
	Error string `json:"error"`
}
