package debate

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/agora-backend/internal/domain"
	"github.com/yungbote/agora-backend/internal/pkg/dbctx"
	"github.com/yungbote/agora-backend/internal/platform/logger"
)

type DebateRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Debate) ([]*domain.Debate, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Debate, error)
	List(dbc dbctx.Context, limit int) ([]*domain.Debate, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type debateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDebateRepo(db *gorm.DB, log *logger.Logger) DebateRepo {
	return &debateRepo{db: db, log: log.With("repo", "DebateRepo")}
}

func (r *debateRepo) Create(dbc dbctx.Context, rows []*domain.Debate) ([]*domain.Debate, error) {
	if len(rows) == 0 {
		return []*domain.Debate{}, nil
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

func (r *debateRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Debate, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing debate_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out domain.Debate
	if err := txx.WithContext(dbc.Ctx).First(&out, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *debateRepo) List(dbc dbctx.Context, limit int) ([]*domain.Debate, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.Debate
	if err := txx.WithContext(dbc.Ctx).
		Model(&domain.Debate{}).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *debateRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing debate_id")
	}
	if len(updates) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&domain.Debate{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *debateRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing debate_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Delete(&domain.Debate{}, "id = ?", id).Error
}
