package debate

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/agora-backend/internal/domain"
	"github.com/yungbote/agora-backend/internal/pkg/dbctx"
	"github.com/yungbote/agora-backend/internal/platform/logger"
)

type RoundRepo interface {
	Create(dbc dbctx.Context, rows []*domain.DebateRound) ([]*domain.DebateRound, error)
	ListByDebate(dbc dbctx.Context, debateID uuid.UUID) ([]*domain.DebateRound, error)
	Complete(dbc dbctx.Context, id uuid.UUID, at time.Time) error
	DeleteByDebate(dbc dbctx.Context, debateID uuid.UUID) error
}

type roundRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRoundRepo(db *gorm.DB, log *logger.Logger) RoundRepo {
	return &roundRepo{db: db, log: log.With("repo", "RoundRepo")}
}

func (r *roundRepo) Create(dbc dbctx.Context, rows []*domain.DebateRound) ([]*domain.DebateRound, error) {
	if len(rows) == 0 {
		return []*domain.DebateRound{}, nil
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

func (r *roundRepo) ListByDebate(dbc dbctx.Context, debateID uuid.UUID) ([]*domain.DebateRound, error) {
	if debateID == uuid.Nil {
		return nil, fmt.Errorf("missing debate_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.DebateRound
	if err := txx.WithContext(dbc.Ctx).
		Model(&domain.DebateRound{}).
		Where("debate_id = ?", debateID).
		Order("sequence ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *roundRepo) Complete(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing round_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&domain.DebateRound{}).
		Where("id = ?", id).
		Update("completed_at", at).Error
}

func (r *roundRepo) DeleteByDebate(dbc dbctx.Context, debateID uuid.UUID) error {
	if debateID == uuid.Nil {
		return fmt.Errorf("missing debate_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Delete(&domain.DebateRound{}, "debate_id = ?", debateID).Error
}
