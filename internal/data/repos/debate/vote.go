package debate

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/agora-backend/internal/domain"
	"github.com/yungbote/agora-backend/internal/pkg/dbctx"
	"github.com/yungbote/agora-backend/internal/platform/logger"
)

type VoteRepo interface {
	// Upsert keeps at most one vote per (debate, agent); re-voting overwrites.
	Upsert(dbc dbctx.Context, row *domain.AudienceVote) (*domain.AudienceVote, error)
	ListByDebate(dbc dbctx.Context, debateID uuid.UUID) ([]*domain.AudienceVote, error)
}

type voteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVoteRepo(db *gorm.DB, log *logger.Logger) VoteRepo {
	return &voteRepo{db: db, log: log.With("repo", "VoteRepo")}
}

func (r *voteRepo) Upsert(dbc dbctx.Context, row *domain.AudienceVote) (*domain.AudienceVote, error) {
	if row == nil {
		return nil, fmt.Errorf("missing vote")
	}
	if row.DebateID == uuid.Nil || row.AgentID == uuid.Nil {
		return nil, fmt.Errorf("missing debate_id or agent_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "debate_id"}, {Name: "agent_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"vote", "confidence", "reason"}),
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *voteRepo) ListByDebate(dbc dbctx.Context, debateID uuid.UUID) ([]*domain.AudienceVote, error) {
	if debateID == uuid.Nil {
		return nil, fmt.Errorf("missing debate_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.AudienceVote
	if err := txx.WithContext(dbc.Ctx).
		Model(&domain.AudienceVote{}).
		Where("debate_id = ?", debateID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
