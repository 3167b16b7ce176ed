package debate

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	repos "github.com/yungbote/agora-backend/internal/data/repos/debate"
	"github.com/yungbote/agora-backend/internal/domain"
	"github.com/yungbote/agora-backend/internal/pkg/dbctx"
	"github.com/yungbote/agora-backend/internal/platform/logger"
)

// Service is the CRUD surface over debates. Lifecycle transitions live on
// the SessionRegistry, read-only aggregates on Analytics.
type Service struct {
	log      *logger.Logger
	debates  repos.DebateRepo
	agents   repos.AgentRepo
	rounds   repos.RoundRepo
	messages repos.MessageRepo
	votes    repos.VoteRepo
}

func NewService(
	log *logger.Logger,
	debates repos.DebateRepo,
	agents repos.AgentRepo,
	rounds repos.RoundRepo,
	messages repos.MessageRepo,
	votes repos.VoteRepo,
) *Service {
	return &Service{
		log:      log.With("service", "DebateService"),
		debates:  debates,
		agents:   agents,
		rounds:   rounds,
		messages: messages,
		votes:    votes,
	}
}

type AgentInput struct {
	Name          string          `json:"name" binding:"required"`
	Role          string          `json:"role" binding:"required"`
	Stance        *string         `json:"stance,omitempty"`
	ModelProvider string          `json:"model_provider"`
	ModelName     string          `json:"model_name"`
	StyleTag      *string         `json:"style_tag,omitempty"`
	AudienceType  *string         `json:"audience_type,omitempty"`
	Persona       json.RawMessage `json:"persona,omitempty"`
}

type CreateDebateInput struct {
	Topic         string       `json:"topic" binding:"required"`
	ProDefinition *string      `json:"pro_definition,omitempty"`
	ConDefinition *string      `json:"con_definition,omitempty"`
	MaxRounds     int          `json:"max_rounds"`
	JudgeWeight   *float64     `json:"judge_weight,omitempty"`
	Agents        []AgentInput `json:"agents"`
}

type DebateView struct {
	Debate *domain.Debate        `json:"debate"`
	Agents []*domain.DebateAgent `json:"agents"`
	Rounds []*domain.DebateRound `json:"rounds"`
}

const (
	minRounds = 1
	maxRounds = 20
)

var validRoles = map[string]bool{
	domain.AgentRoleDebater:  true,
	domain.AgentRoleJudge:    true,
	domain.AgentRoleAudience: true,
}

// CreateDebate persists a debate and its roster in one transactionless pass.
// Roster composition (two debaters, one judge) is enforced at start time, not
// here, so a debate can be assembled incrementally by the caller.
func (s *Service) CreateDebate(dbc dbctx.Context, in CreateDebateInput) (*DebateView, error) {
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return nil, validationError("topic is required")
	}
	if in.MaxRounds == 0 {
		in.MaxRounds = 4
	}
	if in.MaxRounds < minRounds || in.MaxRounds > maxRounds {
		return nil, validationError("max_rounds must be between %d and %d", minRounds, maxRounds)
	}
	judgeWeight := 0.7
	if in.JudgeWeight != nil {
		judgeWeight = *in.JudgeWeight
	}
	if judgeWeight < 0 || judgeWeight > 1 {
		return nil, validationError("judge_weight must be within [0, 1]")
	}

	now := time.Now().UTC()
	d := &domain.Debate{
		ID:            uuid.New(),
		Topic:         topic,
		ProDefinition: in.ProDefinition,
		ConDefinition: in.ConDefinition,
		MaxRounds:     in.MaxRounds,
		JudgeWeight:   judgeWeight,
		Status:        domain.DebateStatusPending,
		CreatedAt:     now,
	}

	rows := make([]*domain.DebateAgent, 0, len(in.Agents))
	for i, a := range in.Agents {
		if strings.TrimSpace(a.Name) == "" {
			return nil, validationError("agent %d: name is required", i)
		}
		if !validRoles[a.Role] {
			return nil, validationError("agent %d: unknown role %q", i, a.Role)
		}
		if a.Role == domain.AgentRoleDebater {
			if a.Stance == nil || (*a.Stance != domain.StancePro && *a.Stance != domain.StanceCon) {
				return nil, validationError("agent %d: debater stance must be pro or con", i)
			}
		}
		provider := a.ModelProvider
		if provider == "" {
			provider = "openai"
		}
		rows = append(rows, &domain.DebateAgent{
			ID:            uuid.New(),
			DebateID:      d.ID,
			Name:          strings.TrimSpace(a.Name),
			Role:          a.Role,
			Stance:        a.Stance,
			ModelProvider: provider,
			ModelName:     a.ModelName,
			StyleTag:      a.StyleTag,
			AudienceType:  a.AudienceType,
			Persona:       datatypes.JSON(a.Persona),
			CreatedAt:     now.Add(time.Duration(i) * time.Millisecond),
		})
	}

	if _, err := s.debates.Create(dbc, []*domain.Debate{d}); err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		if _, err := s.agents.Create(dbc, rows); err != nil {
			return nil, err
		}
	}
	s.log.Info("Debate created", "debate_id", d.ID, "topic", d.Topic, "agents", len(rows))
	return &DebateView{Debate: d, Agents: rows, Rounds: []*domain.DebateRound{}}, nil
}

func (s *Service) GetDebate(dbc dbctx.Context, id uuid.UUID) (*DebateView, error) {
	d, err := s.debates.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, notFoundError("debate %s not found", id)
	}
	agents, err := s.agents.ListByDebate(dbc, id)
	if err != nil {
		return nil, err
	}
	rounds, err := s.rounds.ListByDebate(dbc, id)
	if err != nil {
		return nil, err
	}
	return &DebateView{Debate: d, Agents: agents, Rounds: rounds}, nil
}

func (s *Service) ListDebates(dbc dbctx.Context, limit int) ([]*domain.Debate, error) {
	return s.debates.List(dbc, limit)
}

// Transcript returns every persisted message across the debate's rounds in
// created_at order.
func (s *Service) Transcript(dbc dbctx.Context, id uuid.UUID) ([]*domain.DebateMessage, error) {
	d, err := s.debates.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, notFoundError("debate %s not found", id)
	}
	all, err := s.rounds.ListByDebate(dbc, id)
	if err != nil {
		return nil, err
	}
	roundIDs := make([]uuid.UUID, 0, len(all))
	for _, r := range all {
		roundIDs = append(roundIDs, r.ID)
	}
	return s.messages.ListByRounds(dbc, roundIDs)
}

type CastVoteInput struct {
	AgentID    uuid.UUID `json:"agent_id" binding:"required"`
	Vote       string    `json:"vote" binding:"required"`
	Confidence *float64  `json:"confidence,omitempty"`
	Reason     *string   `json:"reason,omitempty"`
}

// CastVote upserts an audience member's verdict. Re-voting replaces the
// previous row for the same (debate, agent) pair.
func (s *Service) CastVote(dbc dbctx.Context, debateID uuid.UUID, in CastVoteInput) (*domain.AudienceVote, error) {
	d, err := s.debates.GetByID(dbc, debateID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, notFoundError("debate %s not found", debateID)
	}
	if in.Vote != domain.WinnerPro && in.Vote != domain.WinnerCon && in.Vote != domain.WinnerDraw {
		return nil, validationError("vote must be pro, con, or draw")
	}
	agents, err := s.agents.ListByDebate(dbc, debateID)
	if err != nil {
		return nil, err
	}
	var voter *domain.DebateAgent
	for _, a := range agents {
		if a.ID == in.AgentID {
			voter = a
			break
		}
	}
	if voter == nil {
		return nil, validationError("agent %s does not belong to debate %s", in.AgentID, debateID)
	}
	if voter.Role != domain.AgentRoleAudience {
		return nil, validationError("only audience agents may vote")
	}
	confidence := 0.5
	if in.Confidence != nil {
		if *in.Confidence < 0 || *in.Confidence > 1 {
			return nil, validationError("confidence must be within [0, 1]")
		}
		confidence = *in.Confidence
	}
	return s.votes.Upsert(dbc, &domain.AudienceVote{
		ID:         uuid.New(),
		DebateID:   debateID,
		AgentID:    in.AgentID,
		Vote:       in.Vote,
		Confidence: confidence,
		Reason:     in.Reason,
		CreatedAt:  time.Now().UTC(),
	})
}
