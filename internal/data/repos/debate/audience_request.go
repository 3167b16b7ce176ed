package debate

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/agora-backend/internal/domain"
	"github.com/yungbote/agora-backend/internal/pkg/dbctx"
	"github.com/yungbote/agora-backend/internal/platform/logger"
)

type AudienceRequestRepo interface {
	Create(dbc dbctx.Context, rows []*domain.AudienceRequest) ([]*domain.AudienceRequest, error)
	// ListByRound returns requests in submission (created_at) order.
	ListByRound(dbc dbctx.Context, roundID uuid.UUID) ([]*domain.AudienceRequest, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByRounds(dbc dbctx.Context, roundIDs []uuid.UUID) error
}

type audienceRequestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAudienceRequestRepo(db *gorm.DB, log *logger.Logger) AudienceRequestRepo {
	return &audienceRequestRepo{db: db, log: log.With("repo", "AudienceRequestRepo")}
}

func (r *audienceRequestRepo) Create(dbc dbctx.Context, rows []*domain.AudienceRequest) ([]*domain.AudienceRequest, error) {
	if len(rows) == 0 {
		return []*domain.AudienceRequest{}, nil
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

func (r *audienceRequestRepo) ListByRound(dbc dbctx.Context, roundID uuid.UUID) ([]*domain.AudienceRequest, error) {
	if roundID == uuid.Nil {
		return nil, fmt.Errorf("missing round_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.AudienceRequest
	if err := txx.WithContext(dbc.Ctx).
		Model(&domain.AudienceRequest{}).
		Where("round_id = ?", roundID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *audienceRequestRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing request_id")
	}
	if len(updates) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&domain.AudienceRequest{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *audienceRequestRepo) DeleteByRounds(dbc dbctx.Context, roundIDs []uuid.UUID) error {
	if len(roundIDs) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Delete(&domain.AudienceRequest{}, "round_id IN ?", roundIDs).Error
}
