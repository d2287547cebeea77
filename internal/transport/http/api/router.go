package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fxbot/internal/analysis/visual"
	"fxbot/internal/domain"
	"fxbot/internal/logger"
	"fxbot/internal/market"
	"fxbot/internal/store"
	"fxbot/internal/trader"
)

const (
	defaultEventLimit  = 100
	maxEventLimit      = 1000
	defaultCandleLimit = 200
)

// Router mounts the query endpoints. Every request runs inside its own scope.
type Router struct {
	runner trader.ScopeRunner
	cache  *market.CandleCache
}

func NewRouter(runner trader.ScopeRunner, cache *market.CandleCache) *Router {
	return &Router{runner: runner, cache: cache}
}

func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/trades", r.handleTrades)
	group.GET("/trades/pl", r.handleRealisedPL)
	group.GET("/trades/stats", r.handleStats)
	group.GET("/trades/chart", r.handleChart)
	group.GET("/trades/:id", r.handleTradeByID)
	group.GET("/fundamentals", r.handleFundamentals)
	group.DELETE("/fundamentals", r.handleDeleteFundamentals)
	group.GET("/events", r.handleEvents)
	if r.cache != nil {
		group.GET("/candles/:base/:quote", r.handleCandles)
		group.GET("/candles/:base/:quote/chart", r.handleCandleChart)
	}
}

func (r *Router) handleTrades(c *gin.Context) {
	filter, err := tradeFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var trades []domain.Trade
	err = r.runner.Do(c.Request.Context(), func(s *trader.Scope) error {
		var err error
		trades, err = s.Trades().GetAll(c.Request.Context(), filter)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]tradeView, 0, len(trades))
	for _, t := range trades {
		out = append(out, newTradeView(t))
	}
	c.JSON(http.StatusOK, gin.H{"trades": out, "count": len(out)})
}

func tradeFilter(c *gin.Context) (store.TradeFilter, error) {
	var f store.TradeFilter
	if pair := strings.TrimSpace(c.Query("pair")); pair != "" {
		base, quote, err := domain.SplitPair(strings.ReplaceAll(pair, "_", "/"))
		if err != nil {
			return f, err
		}
		f.Pair = domain.JoinPair(base, quote)
	}
	switch pos := domain.Position(strings.ToUpper(strings.TrimSpace(c.Query("position")))); pos {
	case "":
	case domain.PositionOpen, domain.PositionClosed:
		f.Position = pos
	default:
		return f, errors.New("position must be OPEN or CLOSED")
	}
	if raw := strings.TrimSpace(c.Query("is_buy")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return f, errors.New("is_buy must be a boolean")
		}
		f.IsBuy = &v
	}
	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		ts, err := parseDay(raw)
		if err != nil {
			return f, err
		}
		f.Since = ts
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, errors.New("limit must be a non-negative integer")
		}
		f.Limit = n
	}
	return f, nil
}

func (r *Router) handleTradeByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var trade *domain.Trade
	err := r.runner.Do(c.Request.Context(), func(s *trader.Scope) error {
		var err error
		trade, err = s.Trades().GetByTradeID(c.Request.Context(), id)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTradeView(*trade))
}

func (r *Router) handleRealisedPL(c *gin.Context) {
	var total float64
	err := r.runner.Do(c.Request.Context(), func(s *trader.Scope) error {
		var err error
		total, err = s.Trades().SumRealisedPL(c.Request.Context())
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"realised_pl": total})
}

func (r *Router) closedTrades(c *gin.Context) ([]domain.Trade, error) {
	var trades []domain.Trade
	err := r.runner.Do(c.Request.Context(), func(s *trader.Scope) error {
		var err error
		trades, err = s.Trades().GetAll(c.Request.Context(), store.TradeFilter{
			Pair:     strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(c.Query("pair")), "_", "/")),
			Position: domain.PositionClosed,
		})
		return err
	})
	return trades, err
}

func (r *Router) handleStats(c *gin.Context) {
	trades, err := r.closedTrades(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ComputeStats(trades))
}

func (r *Router) handleChart(c *gin.Context) {
	trades, err := r.closedTrades(c)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := RenderPLChart(trades)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (r *Router) handleFundamentals(c *gin.Context) {
	var f store.FundamentalFilter
	f.Currency = strings.ToUpper(strings.TrimSpace(c.Query("currency")))
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		day, err := parseDay(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		f.Day = day
	}
	if raw := strings.TrimSpace(c.Query("processed")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "processed must be a boolean"})
			return
		}
		f.Processed = &v
	}
	var records []domain.FundamentalData
	err := r.runner.Do(c.Request.Context(), func(s *trader.Scope) error {
		var err error
		records, err = s.Fundamentals().GetAll(c.Request.Context(), f)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]fundamentalView, 0, len(records))
	for _, fd := range records {
		out = append(out, newFundamentalView(fd))
	}
	c.JSON(http.StatusOK, gin.H{"fundamentals": out, "count": len(out)})
}

func (r *Router) handleDeleteFundamentals(c *gin.Context) {
	var n int64
	err := r.runner.Do(c.Request.Context(), func(s *trader.Scope) error {
		var err error
		n, err = s.Fundamentals().DeleteAll(c.Request.Context())
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	logger.Infof("http: deleted %d fundamental records", n)
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (r *Router) handleEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultEventLimit)))
	if limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}
	kind := strings.ToUpper(strings.TrimSpace(c.Query("kind")))
	var recs []store.EventRecord
	err := r.runner.Do(c.Request.Context(), func(s *trader.Scope) error {
		var err error
		recs, err = s.Events().Recent(c.Request.Context(), kind, limit)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]eventView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, newEventView(rec))
	}
	c.JSON(http.StatusOK, gin.H{"events": out, "count": len(out)})
}

func (r *Router) cachedCandles(c *gin.Context) (string, market.Granularity, []market.Candle, bool) {
	pair := domain.JoinPair(c.Param("base"), c.Param("quote"))
	period := market.Granularity(strings.ToUpper(c.DefaultQuery("period", string(market.M5))))
	if period.Duration() == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown period " + string(period)})
		return "", "", nil, false
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultCandleLimit)))
	return pair, period, r.cache.Get(pair, period, limit), true
}

func (r *Router) handleCandleChart(c *gin.Context) {
	pair, period, candles, ok := r.cachedCandles(c)
	if !ok {
		return
	}
	sma, _ := strconv.Atoi(c.DefaultQuery("sma", "10"))
	bb, _ := strconv.Atoi(c.DefaultQuery("bollinger", "20"))
	page, err := visual.Render(visual.CandleChart{Pair: pair, Period: period, Candles: candles, SMAPeriod: sma, BollingerPeriod: bb})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (r *Router) handleCandles(c *gin.Context) {
	pair, period, candles, ok := r.cachedCandles(c)
	if !ok {
		return
	}
	if candles == nil {
		candles = []market.Candle{}
	}
	c.JSON(http.StatusOK, gin.H{"pair": pair, "period": period, "candles": candles})
}

func parseDay(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.DateOnly, raw); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New("date must be YYYY-MM-DD or RFC3339")
	}
	return ts.UTC(), nil
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidTradeParameter):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Errorf("http: %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
