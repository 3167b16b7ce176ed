package debate

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/agora-backend/internal/domain"
	"github.com/yungbote/agora-backend/internal/pkg/dbctx"
	"github.com/yungbote/agora-backend/internal/platform/logger"
	"github.com/yungbote/agora-backend/internal/realtime"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

// memStore backs all repo interfaces with in-process maps so engine tests run
// without a database.
type memStore struct {
	mu       sync.Mutex
	debates  map[uuid.UUID]*domain.Debate
	agents   []*domain.DebateAgent
	rounds   []*domain.DebateRound
	messages []*domain.DebateMessage
	scores   []*domain.RoundScore
	requests []*domain.AudienceRequest
	votes    []*domain.AudienceVote
}

func newMemStore() *memStore {
	return &memStore{debates: make(map[uuid.UUID]*domain.Debate)}
}

type memDebates struct{ s *memStore }

func (r memDebates) Create(_ dbctx.Context, rows []*domain.Debate) ([]*domain.Debate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range rows {
		cp := *d
		r.s.debates[d.ID] = &cp
	}
	return rows, nil
}

func (r memDebates) GetByID(_ dbctx.Context, id uuid.UUID) (*domain.Debate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.debates[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r memDebates) List(_ dbctx.Context, limit int) ([]*domain.Debate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.Debate, 0, len(r.s.debates))
	for _, d := range r.s.debates {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memDebates) UpdateFields(_ dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.debates[id]
	if !ok {
		return nil
	}
	for k, v := range updates {
		switch k {
		case "status":
			d.Status = v.(string)
		case "winner":
			if v == nil {
				d.Winner = nil
			} else {
				w := v.(string)
				d.Winner = &w
			}
		case "completed_at":
			if v == nil {
				d.CompletedAt = nil
			} else {
				at := v.(time.Time)
				d.CompletedAt = &at
			}
		}
	}
	return nil
}

func (r memDebates) Delete(_ dbctx.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.debates, id)
	return nil
}

type memAgents struct{ s *memStore }

func (r memAgents) Create(_ dbctx.Context, rows []*domain.DebateAgent) ([]*domain.DebateAgent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.agents = append(r.s.agents, rows...)
	return rows, nil
}

func (r memAgents) ListByDebate(_ dbctx.Context, debateID uuid.UUID) ([]*domain.DebateAgent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.DebateAgent
	for _, a := range r.s.agents {
		if a.DebateID == debateID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type memRounds struct{ s *memStore }

func (r memRounds) Create(_ dbctx.Context, rows []*domain.DebateRound) ([]*domain.DebateRound, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.rounds = append(r.s.rounds, rows...)
	return rows, nil
}

func (r memRounds) ListByDebate(_ dbctx.Context, debateID uuid.UUID) ([]*domain.DebateRound, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.DebateRound
	for _, round := range r.s.rounds {
		if round.DebateID == debateID {
			out = append(out, round)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (r memRounds) Complete(_ dbctx.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, round := range r.s.rounds {
		if round.ID == id {
			round.CompletedAt = &at
		}
	}
	return nil
}

func (r memRounds) DeleteByDebate(_ dbctx.Context, debateID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.rounds[:0]
	for _, round := range r.s.rounds {
		if round.DebateID != debateID {
			kept = append(kept, round)
		}
	}
	r.s.rounds = kept
	return nil
}

type memMessages struct{ s *memStore }

func (r memMessages) Create(_ dbctx.Context, rows []*domain.DebateMessage) ([]*domain.DebateMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.messages = append(r.s.messages, rows...)
	return rows, nil
}

func (r memMessages) ListByRounds(_ dbctx.Context, roundIDs []uuid.UUID) ([]*domain.DebateMessage, error) {
	want := make(map[uuid.UUID]bool, len(roundIDs))
	for _, id := range roundIDs {
		want[id] = true
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.DebateMessage
	for _, m := range r.s.messages {
		if want[m.RoundID] {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memMessages) DeleteByRounds(_ dbctx.Context, roundIDs []uuid.UUID) error {
	want := make(map[uuid.UUID]bool, len(roundIDs))
	for _, id := range roundIDs {
		want[id] = true
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.messages[:0]
	for _, m := range r.s.messages {
		if !want[m.RoundID] {
			kept = append(kept, m)
		}
	}
	r.s.messages = kept
	return nil
}

type memScores struct{ s *memStore }

func (r memScores) Create(_ dbctx.Context, rows []*domain.RoundScore) ([]*domain.RoundScore, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.scores = append(r.s.scores, rows...)
	return rows, nil
}

func (r memScores) ListByRounds(_ dbctx.Context, roundIDs []uuid.UUID) ([]*domain.RoundScore, error) {
	want := make(map[uuid.UUID]bool, len(roundIDs))
	for _, id := range roundIDs {
		want[id] = true
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.RoundScore
	for _, sc := range r.s.scores {
		if want[sc.RoundID] {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (r memScores) DeleteByRounds(_ dbctx.Context, roundIDs []uuid.UUID) error {
	want := make(map[uuid.UUID]bool, len(roundIDs))
	for _, id := range roundIDs {
		want[id] = true
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.scores[:0]
	for _, sc := range r.s.scores {
		if !want[sc.RoundID] {
			kept = append(kept, sc)
		}
	}
	r.s.scores = kept
	return nil
}

type memRequests struct{ s *memStore }

func (r memRequests) Create(_ dbctx.Context, rows []*domain.AudienceRequest) ([]*domain.AudienceRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.requests = append(r.s.requests, rows...)
	return rows, nil
}

func (r memRequests) ListByRound(_ dbctx.Context, roundID uuid.UUID) ([]*domain.AudienceRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.AudienceRequest
	for _, req := range r.s.requests {
		if req.RoundID == roundID {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memRequests) UpdateFields(_ dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, req := range r.s.requests {
		if req.ID != id {
			continue
		}
		for k, v := range updates {
			switch k {
			case "status":
				req.Status = v.(string)
			case "judge_comment":
				c := v.(string)
				req.JudgeComment = &c
			}
		}
	}
	return nil
}

func (r memRequests) DeleteByRounds(_ dbctx.Context, roundIDs []uuid.UUID) error {
	want := make(map[uuid.UUID]bool, len(roundIDs))
	for _, id := range roundIDs {
		want[id] = true
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.requests[:0]
	for _, req := range r.s.requests {
		if !want[req.RoundID] {
			kept = append(kept, req)
		}
	}
	r.s.requests = kept
	return nil
}

type memVotes struct{ s *memStore }

func (r memVotes) Upsert(_ dbctx.Context, row *domain.AudienceVote) (*domain.AudienceVote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.votes {
		if v.DebateID == row.DebateID && v.AgentID == row.AgentID {
			v.Vote = row.Vote
			v.Confidence = row.Confidence
			v.Reason = row.Reason
			return v, nil
		}
	}
	r.s.votes = append(r.s.votes, row)
	return row, nil
}

func (r memVotes) ListByDebate(_ dbctx.Context, debateID uuid.UUID) ([]*domain.AudienceVote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.AudienceVote
	for _, v := range r.s.votes {
		if v.DebateID == debateID {
			out = append(out, v)
		}
	}
	return out, nil
}

// fakeInvoker serves scripted agent calls. Zero-value behavior: every speech
// streams two tokens, every judge call scores pro ahead of con, audience
// members ask to speak and are approved.
type fakeInvoker struct {
	mu    sync.Mutex
	calls int

	completeFn func(agent *domain.DebateAgent, system, user string) (string, error)
	streamFn   func(agent *domain.DebateAgent, system, user string) (string, error)
	jsonFn     func(agent *domain.DebateAgent, system, user string, out any) error
}

func (f *fakeInvoker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeInvoker) bump() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeInvoker) Complete(_ context.Context, agent *domain.DebateAgent, system, user string) (string, error) {
	f.bump()
	if f.completeFn != nil {
		return f.completeFn(agent, system, user)
	}
	return agent.Name + " makes a point.", nil
}

func (f *fakeInvoker) Stream(_ context.Context, agent *domain.DebateAgent, system, user string, onToken func(string)) (string, error) {
	f.bump()
	if f.streamFn != nil {
		content, err := f.streamFn(agent, system, user)
		if err != nil {
			return "", err
		}
		onToken(content)
		return content, nil
	}
	onToken(agent.Name + " argues")
	onToken(" the point.")
	return agent.Name + " argues the point.", nil
}

func (f *fakeInvoker) CompleteJSON(_ context.Context, agent *domain.DebateAgent, system, user string, out any) error {
	f.bump()
	if f.jsonFn != nil {
		return f.jsonFn(agent, system, user, out)
	}
	switch v := out.(type) {
	case *judgeScoreReply:
		// Pro wins by default.
		score := 6.0
		if strings.Contains(user, "The con debater") {
			score = 5.0
		}
		*v = judgeScoreReply{Logic: score, Rebuttal: score, Clarity: score, Evidence: score}
	case *speakRequestReply:
		*v = speakRequestReply{WantsToSpeak: true, Content: "I disagree with the pro framing."}
	case *approvalReply:
		*v = approvalReply{Approved: true, Comment: "relevant"}
	}
	return nil
}

// recordingEmitter captures events in emit order.
type recordingEmitter struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (e *recordingEmitter) Emit(_ context.Context, ev realtime.Event) {
	e.mu.Lock()
	e.events = append(e.events, ev)
	e.mu.Unlock()
}

func (e *recordingEmitter) types() []realtime.EventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]realtime.EventType, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}

func (e *recordingEmitter) count(t realtime.EventType) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ev := range e.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func (e *recordingEmitter) last(t realtime.EventType) (realtime.Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := len(e.events) - 1; i >= 0; i-- {
		if e.events[i].Type == t {
			return e.events[i], true
		}
	}
	return realtime.Event{}, false
}

type recordingCloser struct {
	mu     sync.Mutex
	closed []uuid.UUID
}

func (c *recordingCloser) CloseChannel(debateID uuid.UUID) {
	c.mu.Lock()
	c.closed = append(c.closed, debateID)
	c.mu.Unlock()
}

// harness wires the full engine over the in-memory store.
type harness struct {
	store    *memStore
	invoker  *fakeInvoker
	emitter  *recordingEmitter
	closer   *recordingCloser
	policy   Policy
	registry SessionRegistry
	service  *Service
	analyze  *Analytics
}

func testPolicy() Policy {
	p := DefaultPolicy()
	p.InterRoundDelay = 0
	p.TeardownGrace = time.Millisecond
	return p
}

func newHarness(t *testing.T, policy Policy) *harness {
	t.Helper()
	log := testLogger(t)
	store := newMemStore()
	invoker := &fakeInvoker{}
	emitter := &recordingEmitter{}
	closer := &recordingCloser{}

	debates := memDebates{store}
	agents := memAgents{store}
	rounds := memRounds{store}
	messages := memMessages{store}
	scores := memScores{store}
	requests := memRequests{store}
	votes := memVotes{store}

	audience := NewAudienceBroker(log, policy, emitter, invoker, NewKeywordClassifier(), requests, messages)
	finalizer := NewFinalizer(log, policy, emitter, debates, rounds, scores)
	executor := NewRoundExecutor(log, policy, emitter, invoker, rounds, messages, scores, audience, finalizer)
	registry := NewSessionRegistry(log, policy, emitter, closer, executor, debates, agents, rounds, messages, scores, requests)

	return &harness{
		store:    store,
		invoker:  invoker,
		emitter:  emitter,
		closer:   closer,
		policy:   policy,
		registry: registry,
		service:  NewService(log, debates, agents, rounds, messages, votes),
		analyze:  NewAnalytics(log, policy, NewKeywordBlindSpots(), debates, agents, rounds, messages, scores, votes),
	}
}

// seedDebate inserts a debate with a valid roster: pro, con, judge, and the
// requested number of audience members.
func (h *harness) seedDebate(t *testing.T, maxRounds int, audienceTypes ...string) *domain.Debate {
	t.Helper()
	dbc := dbctx.New(context.Background())
	now := time.Now().UTC()
	d := &domain.Debate{
		ID:          uuid.New(),
		Topic:       "Remote work should be the default",
		MaxRounds:   maxRounds,
		JudgeWeight: 0.7,
		Status:      domain.DebateStatusPending,
		CreatedAt:   now,
	}
	if _, err := (memDebates{h.store}).Create(dbc, []*domain.Debate{d}); err != nil {
		t.Fatalf("seed debate: %v", err)
	}

	pro := domain.StancePro
	con := domain.StanceCon
	agents := []*domain.DebateAgent{
		{ID: uuid.New(), DebateID: d.ID, Name: "Ada", Role: domain.AgentRoleDebater, Stance: &pro, ModelProvider: "openai", ModelName: "gpt-4o", CreatedAt: now},
		{ID: uuid.New(), DebateID: d.ID, Name: "Ben", Role: domain.AgentRoleDebater, Stance: &con, ModelProvider: "openai", ModelName: "gpt-4o", CreatedAt: now.Add(time.Millisecond)},
		{ID: uuid.New(), DebateID: d.ID, Name: "Vera", Role: domain.AgentRoleJudge, ModelProvider: "openai", ModelName: "gpt-4o", CreatedAt: now.Add(2 * time.Millisecond)},
	}
	for i, at := range audienceTypes {
		atCopy := at
		agents = append(agents, &domain.DebateAgent{
			ID:            uuid.New(),
			DebateID:      d.ID,
			Name:          "Aud" + at,
			Role:          domain.AgentRoleAudience,
			AudienceType:  &atCopy,
			ModelProvider: "openai",
			ModelName:     "gpt-4o-mini",
			CreatedAt:     now.Add(time.Duration(3+i) * time.Millisecond),
		})
	}
	if _, err := (memAgents{h.store}).Create(dbc, agents); err != nil {
		t.Fatalf("seed agents: %v", err)
	}
	return d
}

func (h *harness) rosterOf(t *testing.T, debateID uuid.UUID) roster {
	t.Helper()
	agents, err := (memAgents{h.store}).ListByDebate(dbctx.New(context.Background()), debateID)
	if err != nil {
		t.Fatalf("list agents: %v", err)
	}
	rs, err := splitRoster(agents)
	if err != nil {
		t.Fatalf("split roster: %v", err)
	}
	return rs
}

func roundIDsOf(rounds []*domain.DebateRound) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(rounds))
	for _, r := range rounds {
		ids = append(ids, r.ID)
	}
	return ids
}

// runToCompletion starts the debate and joins the supervised goroutine.
func (h *harness) runToCompletion(t *testing.T, debateID uuid.UUID) error {
	t.Helper()
	if err := h.registry.Start(context.Background(), debateID); err != nil {
		t.Fatalf("start: %v", err)
	}
	session := h.registry.GetSession(debateID)
	if session == nil {
		t.Fatal("session not registered after start")
	}
	return session.Wait()
}
