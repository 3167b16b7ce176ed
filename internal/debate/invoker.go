package debate

import (
	"context"

	"github.com/yungbote/agora-backend/internal/domain"
)

// Invoker issues a single agent call. Implementations own their retry and
// backoff; the engine only distinguishes "content came back" from "the call
// finally failed". *openai.Client satisfies this.
type Invoker interface {
	Complete(ctx context.Context, agent *domain.DebateAgent, system, user string) (string, error)
	// Stream delivers tokens through onToken in generation order before
	// returning the full content.
	Stream(ctx context.Context, agent *domain.DebateAgent, system, user string, onToken func(token string)) (string, error)
	CompleteJSON(ctx context.Context, agent *domain.DebateAgent, system, user string, out any) error
}

// judgeScoreReply is the judge's structured scoring of one debater's speeches
// in one round.
type judgeScoreReply struct {
	Logic    float64 `json:"logic"`
	Rebuttal float64 `json:"rebuttal"`
	Clarity  float64 `json:"clarity"`
	Evidence float64 `json:"evidence"`
	Comment  string  `json:"comment"`
}

func (r *judgeScoreReply) clamp() {
	r.Logic = clampScore(r.Logic)
	r.Rebuttal = clampScore(r.Rebuttal)
	r.Clarity = clampScore(r.Clarity)
	r.Evidence = clampScore(r.Evidence)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// speakRequestReply is an audience member's answer to "do you want to speak".
type speakRequestReply struct {
	WantsToSpeak bool     `json:"wants_to_speak"`
	Content      string   `json:"content"`
	Confidence   *float64 `json:"confidence,omitempty"`
}

// approvalReply is the judge's ruling on one audience speak-request.
type approvalReply struct {
	Approved bool   `json:"approved"`
	Comment  string `json:"comment"`
}
