package debate

import (
	"gorm.io/gorm"

	"github.com/google/uuid"

	"github.com/yungbote/agora-backend/internal/domain"
	"github.com/yungbote/agora-backend/internal/pkg/dbctx"
	"github.com/yungbote/agora-backend/internal/platform/logger"
)

type ScoreRepo interface {
	Create(dbc dbctx.Context, rows []*domain.RoundScore) ([]*domain.RoundScore, error)
	ListByRounds(dbc dbctx.Context, roundIDs []uuid.UUID) ([]*domain.RoundScore, error)
	DeleteByRounds(dbc dbctx.Context, roundIDs []uuid.UUID) error
}

type scoreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScoreRepo(db *gorm.DB, log *logger.Logger) ScoreRepo {
	return &scoreRepo{db: db, log: log.With("repo", "ScoreRepo")}
}

func (r *scoreRepo) Create(dbc dbctx.Context, rows []*domain.RoundScore) ([]*domain.RoundScore, error) {
	if len(rows) == 0 {
		return []*domain.RoundScore{}, nil
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

func (r *scoreRepo) ListByRounds(dbc dbctx.Context, roundIDs []uuid.UUID) ([]*domain.RoundScore, error) {
	if len(roundIDs) == 0 {
		return []*domain.RoundScore{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.RoundScore
	if err := txx.WithContext(dbc.Ctx).
		Model(&domain.RoundScore{}).
		Where("round_id IN ?", roundIDs).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scoreRepo) DeleteByRounds(dbc dbctx.Context, roundIDs []uuid.UUID) error {
	if len(roundIDs) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Delete(&domain.RoundScore{}, "round_id IN ?", roundIDs).Error
}
