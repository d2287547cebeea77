package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fxbot/internal/domain"
	"fxbot/internal/store"
	"fxbot/internal/store/model"
)

type fundamentalRepo struct {
	db *gorm.DB
}

func NewFundamentalRepo(db *gorm.DB) *fundamentalRepo {
	return &fundamentalRepo{db: db}
}

// Save upserts by (currency, last_updated). A stored processed flag is never
// cleared by a later save.
func (r *fundamentalRepo) Save(ctx context.Context, fd *domain.FundamentalData) error {
	if fd == nil {
		return errors.New("fundamental data cannot be nil")
	}
	if strings.TrimSpace(fd.Currency) == "" || fd.LastUpdated.IsZero() {
		return fmt.Errorf("%w: fundamental key %q@%v", domain.ErrInvalidTradeParameter, fd.Currency, fd.LastUpdated)
	}
	m, err := model.NewFundamentalModel(fd, time.Now())
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "currency"}, {Name: "last_updated"}},
		DoUpdates: clause.Assignments(map[string]any{
			"processed":           gorm.Expr("MAX(fundamental_data.processed, excluded.processed)"),
			"aggregate_sentiment": gorm.Expr("excluded.aggregate_sentiment"),
			"calendar_events":     gorm.Expr("excluded.calendar_events"),
			"updated_at":          gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&m).Error
}

func (r *fundamentalRepo) GetAll(ctx context.Context, f store.FundamentalFilter) ([]domain.FundamentalData, error) {
	q := r.db.WithContext(ctx).Model(&model.FundamentalModel{})
	if f.Currency != "" {
		q = q.Where("currency = ?", strings.ToUpper(f.Currency))
	}
	if !f.Day.IsZero() {
		start := model.Millis(f.Day)
		end := model.Millis(f.Day.Add(24 * time.Hour))
		q = q.Where("last_updated >= ? AND last_updated <= ?", start, end)
	}
	if f.Processed != nil {
		q = q.Where("processed = ?", *f.Processed)
	}
	return r.find(q.Order("last_updated DESC").Order("currency"))
}

func (r *fundamentalRepo) GetFundamentalData(ctx context.Context, currency string, at time.Time) (*domain.FundamentalData, error) {
	k := domain.FundamentalKey{Currency: currency, LastUpdated: at}.Normalize()
	q := r.db.WithContext(ctx).Where("currency = ? AND last_updated = ?", k.Currency, model.Millis(k.LastUpdated))
	return r.first(q, k.Currency)
}

func (r *fundamentalRepo) GetLatest(ctx context.Context, currency string) (*domain.FundamentalData, error) {
	c := strings.ToUpper(strings.TrimSpace(currency))
	q := r.db.WithContext(ctx).Where("currency = ?", c).Order("last_updated DESC")
	return r.first(q, c)
}

func (r *fundamentalRepo) GetUnprocessed(ctx context.Context) ([]domain.FundamentalData, error) {
	q := r.db.WithContext(ctx).Model(&model.FundamentalModel{}).Where("processed = ?", false)
	return r.find(q.Order("last_updated ASC"))
}

func (r *fundamentalRepo) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.FundamentalModel{})
	return res.RowsAffected, res.Error
}

func (r *fundamentalRepo) first(q *gorm.DB, currency string) (*domain.FundamentalData, error) {
	var m model.FundamentalModel
	err := q.First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("fundamental data %s: %w", currency, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	fd, err := m.ToDomain()
	if err != nil {
		return nil, err
	}
	return &fd, nil
}

func (r *fundamentalRepo) find(q *gorm.DB) ([]domain.FundamentalData, error) {
	var rows []model.FundamentalModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.FundamentalData, 0, len(rows))
	for _, m := range rows {
		fd, err := m.ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, fd)
	}
	return out, nil
}
