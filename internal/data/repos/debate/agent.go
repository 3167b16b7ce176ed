package debate

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/agora-backend/internal/domain"
	"github.com/yungbote/agora-backend/internal/pkg/dbctx"
	"github.com/yungbote/agora-backend/internal/platform/logger"
)

type AgentRepo interface {
	Create(dbc dbctx.Context, rows []*domain.DebateAgent) ([]*domain.DebateAgent, error)
	ListByDebate(dbc dbctx.Context, debateID uuid.UUID) ([]*domain.DebateAgent, error)
}

type agentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAgentRepo(db *gorm.DB, log *logger.Logger) AgentRepo {
	return &agentRepo{db: db, log: log.With("repo", "AgentRepo")}
}

func (r *agentRepo) Create(dbc dbctx.Context, rows []*domain.DebateAgent) ([]*domain.DebateAgent, error) {
	if len(rows) == 0 {
		return []*domain.DebateAgent{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *agentRepo) ListByDebate(dbc dbctx.Context, debateID uuid.UUID) ([]*domain.DebateAgent, error) {
	if debateID == uuid.Nil {
		return nil, fmt.Errorf("missing debate_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.DebateAgent
	if err := txx.WithContext(dbc.Ctx).
		Model(&domain.DebateAgent{}).
		Where("debate_id = ?", debateID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
