package debate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	repos "github.com/yungbote/agora-backend/internal/data/repos/debate"
	"github.com/yungbote/agora-backend/internal/domain"
	"github.com/yungbote/agora-backend/internal/pkg/dbctx"
	"github.com/yungbote/agora-backend/internal/platform/logger"
	"github.com/yungbote/agora-backend/internal/realtime"
)

// ChannelCloser tears down a debate's broadcast channel once the terminal
// event has had time to drain. *realtime.Hub satisfies this.
type ChannelCloser interface {
	CloseChannel(debateID uuid.UUID)
}

// Session is the supervised handle for one running debate.
type Session struct {
	DebateID  uuid.UUID
	StartedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	stopped bool
	err     error
}

// Wait joins the session's round loop and returns its terminal error, nil on
// completion. Safe to call from multiple goroutines.
func (s *Session) Wait() error {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) markStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.stopped = true
	return true
}

func (s *Session) wasStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

type SessionRegistry interface {
	Start(ctx context.Context, debateID uuid.UUID) error
	Stop(ctx context.Context, debateID uuid.UUID) error
	IsRunning(debateID uuid.UUID) bool
	GetSession(debateID uuid.UUID) *Session
}

type sessionRegistry struct {
	log      *logger.Logger
	policy   Policy
	emitter  realtime.Emitter
	closer   ChannelCloser
	executor *RoundExecutor

	debates  repos.DebateRepo
	agents   repos.AgentRepo
	rounds   repos.RoundRepo
	messages repos.MessageRepo
	scores   repos.ScoreRepo
	requests repos.AudienceRequestRepo

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func NewSessionRegistry(
	log *logger.Logger,
	policy Policy,
	emitter realtime.Emitter,
	closer ChannelCloser,
	executor *RoundExecutor,
	debates repos.DebateRepo,
	agents repos.AgentRepo,
	rounds repos.RoundRepo,
	messages repos.MessageRepo,
	scores repos.ScoreRepo,
	requests repos.AudienceRequestRepo,
) SessionRegistry {
	return &sessionRegistry{
		log:      log.With("service", "SessionRegistry"),
		policy:   policy,
		emitter:  emitter,
		closer:   closer,
		executor: executor,
		debates:  debates,
		agents:   agents,
		rounds:   rounds,
		messages: messages,
		scores:   scores,
		requests: requests,
		sessions: make(map[uuid.UUID]*Session),
	}
}

func (r *sessionRegistry) Start(ctx context.Context, debateID uuid.UUID) error {
	dbc := dbctx.New(ctx)

	d, err := r.debates.GetByID(dbc, debateID)
	if err != nil {
		return fmt.Errorf("load debate: %w", err)
	}
	if d == nil {
		return notFoundError("debate %s not found", debateID)
	}
	switch d.Status {
	case domain.DebateStatusRunning:
		return validationError("debate %s is already running", debateID)
	case domain.DebateStatusCompleted:
		return validationError("debate %s is already completed", debateID)
	}

	roster, err := r.agents.ListByDebate(dbc, debateID)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	if err := validateRoster(roster); err != nil {
		return err
	}

	// Admission: capacity check and reservation are one atomic step so two
	// concurrent starts cannot both pass the check.
	sessionCtx, cancel := context.WithCancel(context.Background())
	session := &Session{
		DebateID:  debateID,
		StartedAt: time.Now().UTC(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	r.mu.Lock()
	if _, exists := r.sessions[debateID]; exists {
		r.mu.Unlock()
		cancel()
		return validationError("debate %s is already running", debateID)
	}
	if len(r.sessions) >= r.policy.MaxConcurrentSessions {
		running := len(r.sessions)
		r.mu.Unlock()
		cancel()
		return capacityError("session cap reached (%d running, cap %d)", running, r.policy.MaxConcurrentSessions)
	}
	r.sessions[debateID] = session
	r.mu.Unlock()

	if err := r.prepare(dbc, d); err != nil {
		r.deregister(debateID)
		cancel()
		return err
	}

	r.emitter.Emit(ctx, realtime.Event{
		DebateID: debateID,
		Type:     realtime.EventDebateStart,
		Data: realtime.DebateStartData{
			DebateID:  debateID,
			Topic:     d.Topic,
			MaxRounds: d.MaxRounds,
		},
	})
	r.log.Info("Debate session admitted", "debate_id", debateID, "max_rounds", d.MaxRounds)

	go r.runSession(sessionCtx, session, d, roster)
	return nil
}

// prepare wipes residue from any prior failed attempt and marks the debate
// running. Restart is always from round 1.
func (r *sessionRegistry) prepare(dbc dbctx.Context, d *domain.Debate) error {
	residual, err := r.rounds.ListByDebate(dbc, d.ID)
	if err != nil {
		return fmt.Errorf("list residual rounds: %w", err)
	}
	if len(residual) > 0 {
		roundIDs := make([]uuid.UUID, 0, len(residual))
		for _, round := range residual {
			roundIDs = append(roundIDs, round.ID)
		}
		if err := r.messages.DeleteByRounds(dbc, roundIDs); err != nil {
			return fmt.Errorf("delete residual messages: %w", err)
		}
		if err := r.scores.DeleteByRounds(dbc, roundIDs); err != nil {
			return fmt.Errorf("delete residual scores: %w", err)
		}
		if err := r.requests.DeleteByRounds(dbc, roundIDs); err != nil {
			return fmt.Errorf("delete residual audience requests: %w", err)
		}
		if err := r.rounds.DeleteByDebate(dbc, d.ID); err != nil {
			return fmt.Errorf("delete residual rounds: %w", err)
		}
		r.log.Info("Residual rounds cleared before restart", "debate_id", d.ID, "rounds", len(residual))
	}

	return r.debates.UpdateFields(dbc, d.ID, map[string]interface{}{
		"status":       domain.DebateStatusRunning,
		"winner":       nil,
		"completed_at": nil,
	})
}

func (r *sessionRegistry) runSession(ctx context.Context, session *Session, d *domain.Debate, roster []*domain.DebateAgent) {
	var runErr error
	defer func() {
		if rec := recover(); rec != nil {
			runErr = fmt.Errorf("round loop panic: %v", rec)
			r.log.Error("Round loop panicked", "debate_id", d.ID, "panic", rec)
		}
		r.settle(ctx, session, d, runErr)
	}()

	runErr = r.executor.RunDebate(ctx, d, roster)
}

// settle records the session result, persists terminal state for failures,
// deregisters, and schedules broadcaster teardown.
func (r *sessionRegistry) settle(ctx context.Context, session *Session, d *domain.Debate, runErr error) {
	session.mu.Lock()
	session.err = runErr
	session.mu.Unlock()

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) && session.wasStopped() {
			// Stop already persisted the failed status and emitted debate_stopped.
			r.log.Info("Debate session stopped", "debate_id", d.ID)
		} else {
			r.log.Error("Debate session failed", "debate_id", d.ID, "error", runErr)
			dbc := dbctx.New(context.Background())
			if err := r.debates.UpdateFields(dbc, d.ID, map[string]interface{}{
				"status": domain.DebateStatusFailed,
			}); err != nil {
				r.log.Error("Failed to persist failed status", "debate_id", d.ID, "error", err)
			}
			r.emitter.Emit(context.Background(), realtime.Event{
				DebateID: d.ID,
				Type:     realtime.EventError,
				Data:     realtime.ErrorData{Error: runErr.Error()},
			})
		}
	}

	r.deregister(d.ID)
	r.scheduleTeardown(d.ID)
	close(session.done)
}

// scheduleTeardown closes the debate's broadcast channel after the grace
// delay so slow subscribers still receive the terminal event.
func (r *sessionRegistry) scheduleTeardown(debateID uuid.UUID) {
	if r.closer == nil {
		return
	}
	grace := r.policy.TeardownGrace
	time.AfterFunc(grace, func() {
		r.closer.CloseChannel(debateID)
	})
}

func (r *sessionRegistry) Stop(ctx context.Context, debateID uuid.UUID) error {
	r.mu.Lock()
	session := r.sessions[debateID]
	if session != nil {
		delete(r.sessions, debateID)
	}
	r.mu.Unlock()

	if session != nil && session.markStopped() {
		session.cancel()
		r.emitter.Emit(ctx, realtime.Event{
			DebateID: debateID,
			Type:     realtime.EventDebateStopped,
			Data:     realtime.DebateStoppedData{DebateID: debateID},
		})
		r.log.Info("Debate session stop requested", "debate_id", debateID)
	}

	// Stopping is terminal: a debate caught mid-run never resumes.
	dbc := dbctx.New(ctx)
	d, err := r.debates.GetByID(dbc, debateID)
	if err != nil {
		return fmt.Errorf("load debate: %w", err)
	}
	if d != nil && d.Status == domain.DebateStatusRunning {
		if err := r.debates.UpdateFields(dbc, debateID, map[string]interface{}{
			"status": domain.DebateStatusFailed,
		}); err != nil {
			return fmt.Errorf("persist stopped status: %w", err)
		}
	}
	return nil
}

func (r *sessionRegistry) IsRunning(debateID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[debateID]
	return ok
}

func (r *sessionRegistry) GetSession(debateID uuid.UUID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[debateID]
}

func (r *sessionRegistry) deregister(debateID uuid.UUID) {
	r.mu.Lock()
	delete(r.sessions, debateID)
	r.mu.Unlock()
}

// validateRoster enforces the start invariant: exactly two debaters of
// distinct stances and exactly one judge.
func validateRoster(roster []*domain.DebateAgent) error {
	var debaters, judges int
	stances := map[string]int{}
	for _, a := range roster {
		switch a.Role {
		case domain.AgentRoleDebater:
			debaters++
			stances[a.StanceValue()]++
		case domain.AgentRoleJudge:
			judges++
		}
	}
	if debaters != 2 {
		return compositionError("roster needs exactly 2 debaters, has %d", debaters)
	}
	if stances[domain.StancePro] != 1 || stances[domain.StanceCon] != 1 {
		return compositionError("debaters must hold distinct pro/con stances")
	}
	if judges != 1 {
		return compositionError("roster needs exactly 1 judge, has %d", judges)
	}
	return nil
}
