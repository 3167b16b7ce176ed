package debate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	repos "github.com/yungbote/agora-backend/internal/data/repos/debate"
	"github.com/yungbote/agora-backend/internal/domain"
	"github.com/yungbote/agora-backend/internal/pkg/dbctx"
	"github.com/yungbote/agora-backend/internal/platform/logger"
	"github.com/yungbote/agora-backend/internal/realtime"
)

// RoundExecutor drives one debate through its rounds. Strictly sequential
// within a debate: pro speech, con speech, scoring, then the optional
// audience sub-protocol. Cancellation is observed at round boundaries only;
// an in-flight agent call runs to its natural end.
type RoundExecutor struct {
	log     *logger.Logger
	policy  Policy
	emitter realtime.Emitter
	invoker Invoker

	rounds   repos.RoundRepo
	messages repos.MessageRepo
	scores   repos.ScoreRepo

	audience  *AudienceBroker
	finalizer *Finalizer
}

func NewRoundExecutor(
	log *logger.Logger,
	policy Policy,
	emitter realtime.Emitter,
	invoker Invoker,
	rounds repos.RoundRepo,
	messages repos.MessageRepo,
	scores repos.ScoreRepo,
	audience *AudienceBroker,
	finalizer *Finalizer,
) *RoundExecutor {
	return &RoundExecutor{
		log:       log.With("service", "RoundExecutor"),
		policy:    policy,
		emitter:   emitter,
		invoker:   invoker,
		rounds:    rounds,
		messages:  messages,
		scores:    scores,
		audience:  audience,
		finalizer: finalizer,
	}
}

type roster struct {
	pro      *domain.DebateAgent
	con      *domain.DebateAgent
	judge    *domain.DebateAgent
	audience []*domain.DebateAgent
	byID     map[string]*domain.DebateAgent
}

func splitRoster(agents []*domain.DebateAgent) (roster, error) {
	rs := roster{byID: make(map[string]*domain.DebateAgent, len(agents))}
	for _, a := range agents {
		rs.byID[a.ID.String()] = a
		switch a.Role {
		case domain.AgentRoleDebater:
			switch a.StanceValue() {
			case domain.StancePro:
				rs.pro = a
			case domain.StanceCon:
				rs.con = a
			}
		case domain.AgentRoleJudge:
			rs.judge = a
		case domain.AgentRoleAudience:
			rs.audience = append(rs.audience, a)
		}
	}
	if rs.pro == nil || rs.con == nil || rs.judge == nil {
		return rs, fmt.Errorf("roster is missing a debater or the judge")
	}
	return rs, nil
}

// RunDebate executes rounds 1..max_rounds then finalizes. Any round error is
// fatal to the debate; the caller persists the failure.
func (e *RoundExecutor) RunDebate(ctx context.Context, d *domain.Debate, agents []*domain.DebateAgent) error {
	rs, err := splitRoster(agents)
	if err != nil {
		return err
	}

	for seq := 1; seq <= d.MaxRounds; seq++ {
		if seq > 1 && e.policy.InterRoundDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.policy.InterRoundDelay):
			}
		}
		// Cooperative cancellation, checked only here.
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.runRound(ctx, d, rs, seq); err != nil {
			return fmt.Errorf("round %d: %w", seq, err)
		}
	}

	return e.finalizer.Finalize(ctx, d, rs)
}

func (e *RoundExecutor) runRound(ctx context.Context, d *domain.Debate, rs roster, seq int) error {
	dbc := dbctx.New(ctx)
	phase := PhaseFor(seq, d.MaxRounds)

	round := &domain.DebateRound{
		ID:        uuid.New(),
		DebateID:  d.ID,
		Sequence:  seq,
		Phase:     phase,
		StartedAt: time.Now().UTC(),
	}
	if _, err := e.rounds.Create(dbc, []*domain.DebateRound{round}); err != nil {
		return fmt.Errorf("create round: %w", err)
	}
	e.emitter.Emit(ctx, realtime.Event{
		DebateID: d.ID,
		Type:     realtime.EventRoundStart,
		Data:     realtime.RoundStartData{RoundID: round.ID, Sequence: seq, Phase: phase},
	})
	e.log.Info("Round started", "debate_id", d.ID, "sequence", seq, "phase", phase)

	transcript, err := e.loadTranscript(dbc, d, rs)
	if err != nil {
		return err
	}

	proContent, err := e.runSpeech(ctx, d, round, rs.pro, phase, transcript)
	if err != nil {
		return fmt.Errorf("pro speech: %w", err)
	}
	transcript += fmt.Sprintf("[%s] %s\n", domain.StancePro, proContent)

	// Con never starts before pro's agent_end.
	conContent, err := e.runSpeech(ctx, d, round, rs.con, phase, transcript)
	if err != nil {
		return fmt.Errorf("con speech: %w", err)
	}
	transcript += fmt.Sprintf("[%s] %s\n", domain.StanceCon, conContent)

	if err := e.scoreRound(ctx, d, round, rs, proContent, conContent); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}

	if e.policy.InAudienceWindow(seq) && len(rs.audience) > 0 {
		// Failures inside the sub-protocol are isolated per member and never
		// abort the round.
		e.audience.Run(ctx, d, round, rs, transcript)
	}

	completedAt := time.Now().UTC()
	if err := e.rounds.Complete(dbc, round.ID, completedAt); err != nil {
		return fmt.Errorf("complete round: %w", err)
	}
	e.emitter.Emit(ctx, realtime.Event{
		DebateID: d.ID,
		Type:     realtime.EventRoundEnd,
		Data:     realtime.RoundEndData{RoundID: round.ID, Sequence: seq},
	})
	return nil
}

func (e *RoundExecutor) loadTranscript(dbc dbctx.Context, d *domain.Debate, rs roster) (string, error) {
	priorRounds, err := e.rounds.ListByDebate(dbc, d.ID)
	if err != nil {
		return "", fmt.Errorf("list rounds: %w", err)
	}
	roundIDs := make([]uuid.UUID, 0, len(priorRounds))
	for _, round := range priorRounds {
		roundIDs = append(roundIDs, round.ID)
	}
	msgs, err := e.messages.ListByRounds(dbc, roundIDs)
	if err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}
	return transcriptText(msgs, rs.byID), nil
}

// runSpeech is the shared streaming contract: agent_start, tokens in
// generation order, persisted message, agent_end.
func (e *RoundExecutor) runSpeech(ctx context.Context, d *domain.Debate, round *domain.DebateRound, agent *domain.DebateAgent, phase, transcript string) (string, error) {
	e.emitter.Emit(ctx, realtime.Event{
		DebateID: d.ID,
		Type:     realtime.EventAgentStart,
		Data: realtime.AgentStartData{
			AgentID: agent.ID,
			Role:    agent.Role,
			Stance:  agent.StanceValue(),
		},
	})

	system := debaterSystemPrompt(d, agent, phase)
	user := debaterUserPrompt(transcript, phase)

	content, err := e.invoker.Stream(ctx, agent, system, user, func(token string) {
		e.emitter.Emit(ctx, realtime.Event{
			DebateID: d.ID,
			Type:     realtime.EventToken,
			Data:     realtime.TokenData{Token: token},
		})
	})
	if err != nil {
		return "", err
	}

	msg := &domain.DebateMessage{
		ID:        uuid.New(),
		RoundID:   round.ID,
		AgentID:   agent.ID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := e.messages.Create(dbctx.New(ctx), []*domain.DebateMessage{msg}); err != nil {
		return "", fmt.Errorf("persist message: %w", err)
	}

	e.emitter.Emit(ctx, realtime.Event{
		DebateID: d.ID,
		Type:     realtime.EventAgentEnd,
		Data:     realtime.AgentEndData{AgentID: agent.ID, Content: content},
	})
	return content, nil
}

// scoreRound asks the judge to score pro and con independently, persists both
// rows, and emits one score_update carrying both totals.
func (e *RoundExecutor) scoreRound(ctx context.Context, d *domain.Debate, round *domain.DebateRound, rs roster, proContent, conContent string) error {
	system := judgeScoreSystemPrompt(d)

	var proReply judgeScoreReply
	if err := e.invoker.CompleteJSON(ctx, rs.judge, system, judgeScoreUserPrompt(domain.StancePro, proContent), &proReply); err != nil {
		return fmt.Errorf("judge pro: %w", err)
	}
	var conReply judgeScoreReply
	if err := e.invoker.CompleteJSON(ctx, rs.judge, system, judgeScoreUserPrompt(domain.StanceCon, conContent), &conReply); err != nil {
		return fmt.Errorf("judge con: %w", err)
	}
	proReply.clamp()
	conReply.clamp()

	now := time.Now().UTC()
	proScore := &domain.RoundScore{
		ID:        uuid.New(),
		RoundID:   round.ID,
		AgentID:   rs.pro.ID,
		Logic:     proReply.Logic,
		Rebuttal:  proReply.Rebuttal,
		Clarity:   proReply.Clarity,
		Evidence:  proReply.Evidence,
		Comment:   optional(proReply.Comment),
		CreatedAt: now,
	}
	conScore := &domain.RoundScore{
		ID:        uuid.New(),
		RoundID:   round.ID,
		AgentID:   rs.con.ID,
		Logic:     conReply.Logic,
		Rebuttal:  conReply.Rebuttal,
		Clarity:   conReply.Clarity,
		Evidence:  conReply.Evidence,
		Comment:   optional(conReply.Comment),
		CreatedAt: now,
	}
	if _, err := e.scores.Create(dbctx.New(ctx), []*domain.RoundScore{proScore, conScore}); err != nil {
		return fmt.Errorf("persist scores: %w", err)
	}

	e.emitter.Emit(ctx, realtime.Event{
		DebateID: d.ID,
		Type:     realtime.EventScoreUpdate,
		Data: realtime.ScoreUpdateData{
			RoundID: round.ID,
			Scores:  realtime.ScorePair{Pro: proScore.Total(), Con: conScore.Total()},
		},
	})
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
