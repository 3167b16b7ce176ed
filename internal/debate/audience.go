package debate

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	repos "github.com/yungbote/agora-backend/internal/data/repos/debate"
	"github.com/yungbote/agora-backend/internal/domain"
	"github.com/yungbote/agora-backend/internal/pkg/dbctx"
	"github.com/yungbote/agora-backend/internal/platform/logger"
	"github.com/yungbote/agora-backend/internal/realtime"
)

// AudienceBroker runs the participation sub-protocol: collect speak-requests,
// obtain judge rulings in submission order, execute approved speeches. Every
// step is isolated per audience member: one member's failure is logged and
// swallowed, never escalated.
type AudienceBroker struct {
	log        *logger.Logger
	policy     Policy
	emitter    realtime.Emitter
	invoker    Invoker
	classifier StanceClassifier

	requests repos.AudienceRequestRepo
	messages repos.MessageRepo
}

func NewAudienceBroker(
	log *logger.Logger,
	policy Policy,
	emitter realtime.Emitter,
	invoker Invoker,
	classifier StanceClassifier,
	requests repos.AudienceRequestRepo,
	messages repos.MessageRepo,
) *AudienceBroker {
	return &AudienceBroker{
		log:        log.With("service", "AudienceBroker"),
		policy:     policy,
		emitter:    emitter,
		invoker:    invoker,
		classifier: classifier,
		requests:   requests,
		messages:   messages,
	}
}

type collectedRequest struct {
	order int
	row   *domain.AudienceRequest
}

// Run executes the full sub-protocol for one round. It never returns an
// error: partial failure leaves the round intact.
func (b *AudienceBroker) Run(ctx context.Context, d *domain.Debate, round *domain.DebateRound, rs roster, transcript string) {
	collected := b.collectRequests(ctx, d, round, rs.audience)
	if len(collected) == 0 {
		return
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].order < collected[j].order })

	rows := make([]*domain.AudienceRequest, 0, len(collected))
	base := time.Now().UTC()
	for i, c := range collected {
		// Spread created_at so submission order survives the round trip.
		c.row.CreatedAt = base.Add(time.Duration(i) * time.Millisecond)
		rows = append(rows, c.row)
	}
	if _, err := b.requests.Create(dbctx.New(ctx), rows); err != nil {
		b.log.Error("Failed to persist audience requests", "debate_id", d.ID, "round_id", round.ID, "error", err)
		return
	}

	b.emitter.Emit(ctx, realtime.Event{
		DebateID: d.ID,
		Type:     realtime.EventAudienceRequests,
		Data:     realtime.AudienceRequestsData{RoundID: round.ID, RequestsCount: len(rows)},
	})
	b.log.Info("Audience requests collected", "debate_id", d.ID, "round_id", round.ID, "count", len(rows))

	roundContext := roundContextText(d, round, transcript)
	for _, row := range rows {
		approved := b.ruleOnRequest(ctx, d, rs.judge, row, roundContext)
		if approved {
			b.executeSpeech(ctx, d, round, rs, row)
		}
	}
}

// collectRequests fans the request generation out across audience members.
// Member order is not semantically significant, so concurrency is safe here.
func (b *AudienceBroker) collectRequests(ctx context.Context, d *domain.Debate, round *domain.DebateRound, members []*domain.DebateAgent) []collectedRequest {
	var (
		mu        sync.Mutex
		collected []collectedRequest
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, member := range members {
		order, agent := i, member
		g.Go(func() error {
			var reply speakRequestReply
			system := audienceRequestSystemPrompt(d, agent)
			user := "Current round transcript is available to you. Do you want to speak?"
			if err := b.invoker.CompleteJSON(gctx, agent, system, user, &reply); err != nil {
				b.log.Warn("Audience request generation failed; skipping member",
					"debate_id", d.ID, "agent_id", agent.ID, "error", err)
				return nil
			}
			if !reply.WantsToSpeak || strings.TrimSpace(reply.Content) == "" {
				return nil
			}

			confidence := b.policy.DefaultAudienceConfidence
			if reply.Confidence != nil && *reply.Confidence >= 0 && *reply.Confidence <= 1 {
				confidence = *reply.Confidence
			}
			row := &domain.AudienceRequest{
				ID:         uuid.New(),
				RoundID:    round.ID,
				AgentID:    agent.ID,
				Intent:     b.classifier.InferIntent(reply.Content),
				Claim:      strings.TrimSpace(reply.Content),
				Novelty:    domain.NoveltyNew,
				Confidence: confidence,
				Status:     domain.RequestStatusPending,
			}
			mu.Lock()
			collected = append(collected, collectedRequest{order: order, row: row})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return collected
}

// ruleOnRequest asks the judge for a ruling and persists it. A failed ruling
// leaves the request pending and is not an approval.
func (b *AudienceBroker) ruleOnRequest(ctx context.Context, d *domain.Debate, judge *domain.DebateAgent, row *domain.AudienceRequest, roundContext string) bool {
	var reply approvalReply
	if err := b.invoker.CompleteJSON(ctx, judge, approvalSystemPrompt(), approvalUserPrompt(roundContext, row.Claim), &reply); err != nil {
		b.log.Warn("Audience approval failed; leaving request pending",
			"debate_id", d.ID, "request_id", row.ID, "error", err)
		return false
	}

	status := domain.RequestStatusRejected
	if reply.Approved {
		status = domain.RequestStatusApproved
	}
	updates := map[string]interface{}{"status": status}
	if reply.Comment != "" {
		updates["judge_comment"] = reply.Comment
	}
	if err := b.requests.UpdateFields(dbctx.New(ctx), row.ID, updates); err != nil {
		b.log.Warn("Failed to persist audience ruling",
			"debate_id", d.ID, "request_id", row.ID, "error", err)
		return false
	}
	row.Status = status

	b.emitter.Emit(ctx, realtime.Event{
		DebateID: d.ID,
		Type:     realtime.EventAudienceApproval,
		Data: realtime.AudienceApprovalData{
			RequestID: row.ID,
			AgentID:   row.AgentID,
			Approved:  reply.Approved,
			Comment:   reply.Comment,
		},
	})
	return reply.Approved
}

// executeSpeech runs an approved member's speech with the same streaming
// contract as a debater turn, then emits the audience_speech summary.
func (b *AudienceBroker) executeSpeech(ctx context.Context, d *domain.Debate, round *domain.DebateRound, rs roster, row *domain.AudienceRequest) {
	agent := rs.byID[row.AgentID.String()]
	if agent == nil {
		b.log.Warn("Approved request references unknown agent", "request_id", row.ID)
		return
	}
	stance := domain.StanceForIntent(row.Intent)

	b.emitter.Emit(ctx, realtime.Event{
		DebateID: d.ID,
		Type:     realtime.EventAgentStart,
		Data: realtime.AgentStartData{
			AgentID: agent.ID,
			Role:    domain.AgentRoleAudience,
			Stance:  stance,
		},
	})

	system := audienceSpeechSystemPrompt(d, agent, stance)
	user := "Your approved point: " + row.Claim + "\nDeliver it now."
	content, err := b.invoker.Stream(ctx, agent, system, user, func(token string) {
		b.emitter.Emit(ctx, realtime.Event{
			DebateID: d.ID,
			Type:     realtime.EventToken,
			Data:     realtime.TokenData{Token: token},
		})
	})
	if err != nil {
		b.log.Warn("Audience speech failed; skipping member",
			"debate_id", d.ID, "agent_id", agent.ID, "error", err)
		return
	}

	msg := &domain.DebateMessage{
		ID:        uuid.New(),
		RoundID:   round.ID,
		AgentID:   agent.ID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := b.messages.Create(dbctx.New(ctx), []*domain.DebateMessage{msg}); err != nil {
		b.log.Warn("Failed to persist audience speech",
			"debate_id", d.ID, "agent_id", agent.ID, "error", err)
		return
	}

	b.emitter.Emit(ctx, realtime.Event{
		DebateID: d.ID,
		Type:     realtime.EventAgentEnd,
		Data:     realtime.AgentEndData{AgentID: agent.ID, Content: content},
	})
	b.emitter.Emit(ctx, realtime.Event{
		DebateID: d.ID,
		Type:     realtime.EventAudienceSpeech,
		Data: realtime.AudienceSpeechData{
			AgentID:      agent.ID,
			AudienceType: agent.AudienceTypeValue(),
			Content:      content,
		},
	})
}
