package sqlite

import (
	"context"

	"gorm.io/gorm"

	"fxbot/internal/store"
	"fxbot/internal/store/model"
)

type eventRepo struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) *eventRepo {
	return &eventRepo{db: db}
}

func (r *eventRepo) Append(ctx context.Context, rec store.EventRecord) error {
	m := model.NewEventLogModel(rec)
	return r.db.WithContext(ctx).Create(&m).Error
}

// Recent lists journaled events newest first, optionally of one kind.
func (r *eventRepo) Recent(ctx context.Context, kind string, limit int) ([]store.EventRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var rows []model.EventLogModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]store.EventRecord, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.ToRecord())
	}
	return out, nil
}
