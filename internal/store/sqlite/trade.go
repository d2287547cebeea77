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

type tradeRepo struct {
	db *gorm.DB
}

func NewTradeRepo(db *gorm.DB) *tradeRepo {
	return &tradeRepo{db: db}
}

func (r *tradeRepo) Save(ctx context.Context, t *domain.Trade) error {
	if t == nil {
		return errors.New("trade cannot be nil")
	}
	if err := t.Validate(); err != nil {
		return err
	}
	m := model.NewTradeModel(t, time.Now())
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "trade_id"}},
		DoUpdates: clause.AssignmentColumns(tradeUpdateColumns),
	}).Create(&m).Error
}

// created_at is left out so the first insert time survives updates.
var tradeUpdateColumns = []string{
	"units", "stop", "limit_price", "is_buy", "base_currency", "quote_currency",
	"forex_pair", "close_price", "new_close", "realised_pl", "is_winner",
	"position", "initiated_date", "sl_pips", "half_spread_cost", "updated_at",
}

func (r *tradeRepo) GetAll(ctx context.Context, f store.TradeFilter) ([]domain.Trade, error) {
	q := r.db.WithContext(ctx).Model(&model.TradeModel{})
	if f.Pair != "" {
		q = q.Where("forex_pair = ?", strings.ToUpper(f.Pair))
	}
	if f.Position != "" {
		q = q.Where("position = ?", string(f.Position))
	}
	if f.IsBuy != nil {
		q = q.Where("is_buy = ?", *f.IsBuy)
	}
	if !f.Since.IsZero() {
		q = q.Where("initiated_date >= ?", model.Millis(f.Since))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	return r.find(q.Order("initiated_date DESC"))
}

func (r *tradeRepo) GetByTradeID(ctx context.Context, id string) (*domain.Trade, error) {
	var m model.TradeModel
	err := r.db.WithContext(ctx).Where("trade_id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("trade %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	t := m.ToDomain()
	return &t, nil
}

func (r *tradeRepo) GetOpenTrades(ctx context.Context) ([]domain.Trade, error) {
	return r.GetAll(ctx, store.TradeFilter{Position: domain.PositionOpen})
}

func (r *tradeRepo) GetOpenTradesByPair(ctx context.Context, pair string, isBuy *bool) ([]domain.Trade, error) {
	return r.GetAll(ctx, store.TradeFilter{Pair: pair, Position: domain.PositionOpen, IsBuy: isBuy})
}

func (r *tradeRepo) GetBullish(ctx context.Context, currency string) ([]domain.Trade, error) {
	c := strings.ToUpper(currency)
	q := r.open(ctx).Where(
		r.db.Where("is_buy = ? AND base_currency = ?", true, c).Or("is_buy = ? AND quote_currency = ?", false, c),
	)
	return r.find(q)
}

func (r *tradeRepo) GetBearish(ctx context.Context, currency string) ([]domain.Trade, error) {
	c := strings.ToUpper(currency)
	q := r.open(ctx).Where(
		r.db.Where("is_buy = ? AND base_currency = ?", false, c).Or("is_buy = ? AND quote_currency = ?", true, c),
	)
	return r.find(q)
}

func (r *tradeRepo) GetDistinctPairs(ctx context.Context) ([]string, error) {
	var pairs []string
	err := r.db.WithContext(ctx).Model(&model.TradeModel{}).
		Distinct("forex_pair").Order("forex_pair").Pluck("forex_pair", &pairs).Error
	return pairs, err
}

func (r *tradeRepo) SumRealisedPL(ctx context.Context) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&model.TradeModel{}).
		Select("COALESCE(SUM(realised_pl), 0)").Scan(&sum).Error
	return sum, err
}

func (r *tradeRepo) open(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.TradeModel{}).Where("position = ?", string(domain.PositionOpen))
}

func (r *tradeRepo) find(q *gorm.DB) ([]domain.Trade, error) {
	var rows []model.TradeModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Trade, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.ToDomain())
	}
	return out, nil
}
