package debate

import (
	"gorm.io/gorm"

	"github.com/google/uuid"

	"github.com/yungbote/agora-backend/internal/domain"
	"github.com/yungbote/agora-backend/internal/pkg/dbctx"
	"github.com/yungbote/agora-backend/internal/platform/logger"
)

type MessageRepo interface {
	Create(dbc dbctx.Context, rows []*domain.DebateMessage) ([]*domain.DebateMessage, error)
	// ListByRounds returns messages across the given rounds in created_at order,
	// which is the canonical transcript order.
	ListByRounds(dbc dbctx.Context, roundIDs []uuid.UUID) ([]*domain.DebateMessage, error)
	DeleteByRounds(dbc dbctx.Context, roundIDs []uuid.UUID) error
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(dbc dbctx.Context, rows []*domain.DebateMessage) ([]*domain.DebateMessage, error) {
	if len(rows) == 0 {
		return []*domain.DebateMessage{}, nil
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

func (r *messageRepo) ListByRounds(dbc dbctx.Context, roundIDs []uuid.UUID) ([]*domain.DebateMessage, error) {
	if len(roundIDs) == 0 {
		return []*domain.DebateMessage{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.DebateMessage
	if err := txx.WithContext(dbc.Ctx).
		Model(&domain.DebateMessage{}).
		Where("round_id IN ?", roundIDs).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) DeleteByRounds(dbc dbctx.Context, roundIDs []uuid.UUID) error {
	if len(roundIDs) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Delete(&domain.DebateMessage{}, "round_id IN ?", roundIDs).Error
}
