package oanda

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"fxbot/internal/domain"
	"fxbot/internal/gateway/broker"
	"fxbot/internal/market"
	"fxbot/internal/pkg/symbol"
)

func (c *Client) Candles(ctx context.Context, pair string, period market.Granularity, count int) ([]market.Candle, error) {
	inst := symbol.Oanda.ToBroker(pair)
	if inst == "" {
		return nil, &broker.BrokerError{Op: "candles", Pair: pair, Err: domain.ErrInvalidTradeParameter}
	}
	if count <= 0 {
		count = 100
	}
	q := url.Values{}
	q.Set("count", strconv.Itoa(count))
	q.Set("granularity", strings.ToUpper(string(period)))
	q.Set("price", "M")
	raw, err := c.do(ctx, "candles", http.MethodGet, "/v3/instruments/"+inst+"/candles?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return parseCandles(raw)
}

func parseCandles(raw []byte) ([]market.Candle, error) {
	arr := gjson.GetBytes(raw, "candles").Array()
	out := make([]market.Candle, 0, len(arr))
	for _, item := range arr {
		ts, err := time.Parse(time.RFC3339Nano, item.Get("time").String())
		if err != nil {
			return nil, fmt.Errorf("oanda candles: bad time %q: %w", item.Get("time").String(), err)
		}
		out = append(out, market.Candle{
			Time:     ts,
			Open:     item.Get("mid.o").Float(),
			High:     item.Get("mid.h").Float(),
			Low:      item.Get("mid.l").Float(),
			Close:    item.Get("mid.c").Float(),
			Volume:   item.Get("volume").Float(),
			Complete: item.Get("complete").Bool(),
		})
	}
	return out, nil
}

func (c *Client) OpenPositions(ctx context.Context) ([]broker.Position, error) {
	raw, err := c.do(ctx, "open_trades", http.MethodGet, c.accountPath("/openTrades"), nil)
	if err != nil {
		return nil, err
	}
	trades := gjson.GetBytes(raw, "trades").Array()
	out := make([]broker.Position, 0, len(trades))
	for _, t := range trades {
		opened, _ := time.Parse(time.RFC3339Nano, t.Get("openTime").String())
		out = append(out, broker.Position{
			TradeID:      t.Get("id").String(),
			Pair:         symbol.Oanda.FromBroker(t.Get("instrument").String()),
			Units:        t.Get("currentUnits").Int(),
			Price:        t.Get("price").Float(),
			Stop:         t.Get("stopLossOrder.price").Float(),
			UnrealisedPL: t.Get("unrealizedPL").Float(),
			OpenedAt:     opened,
		})
	}
	return out, nil
}

func (c *Client) OpenTrade(ctx context.Context, req broker.OpenRequest) (*broker.OpenResult, error) {
	base, quote, err := domain.SplitPair(req.Pair)
	if err != nil {
		return nil, &broker.BrokerError{Op: "open_trade", Pair: req.Pair, Err: err}
	}
	if err := broker.ValidateStops(req.IsBuy, req.Stop, req.Limit); err != nil {
		return nil, err
	}
	if req.Units <= 0 {
		return nil, fmt.Errorf("%w: units %d", domain.ErrInvalidTradeParameter, req.Units)
	}
	decimals := int(domain.PipDecimals(base, quote)) + 1
	units := req.Units
	if !req.IsBuy {
		units = -units
	}
	order := map[string]any{
		"type":         "MARKET",
		"instrument":   symbol.Oanda.ToBroker(req.Pair),
		"units":        strconv.FormatInt(units, 10),
		"timeInForce":  "FOK",
		"positionFill": "DEFAULT",
		"stopLossOnFill": map[string]string{
			"timeInForce": "GTC",
			"price":       formatPrice(req.Stop, decimals),
		},
	}
	if req.Limit != nil {
		order["takeProfitOnFill"] = map[string]string{"price": formatPrice(*req.Limit, decimals)}
	}
	raw, err := c.do(ctx, "open_trade", http.MethodPost, c.accountPath("/orders"), map[string]any{"order": order})
	if err != nil {
		return nil, withContext(err, req.Pair, "", req.Units)
	}
	fill := gjson.GetBytes(raw, "orderFillTransaction")
	if !fill.Exists() {
		reason := gjson.GetBytes(raw, "orderCancelTransaction.reason").String()
		if reason == "" {
			reason = "unable to establish reason"
		}
		return nil, &broker.BrokerError{Op: "open_trade", Pair: req.Pair, Units: req.Units, Reason: reason, Err: broker.ErrRejected}
	}
	tradeID := fill.Get("tradeOpened.tradeID").String()
	if tradeID == "" {
		tradeID = fill.Get("id").String()
	}
	return &broker.OpenResult{
		TradeID:        tradeID,
		Price:          fill.Get("price").Float(),
		HalfSpreadCost: halfSpread(fill),
	}, nil
}

// halfSpread returns half the bid/ask spread of the fill in price units.
func halfSpread(fill gjson.Result) float64 {
	ask := fill.Get("fullPrice.asks.0.price").Float()
	bid := fill.Get("fullPrice.bids.0.price").Float()
	if ask <= 0 || bid <= 0 || ask < bid {
		return 0
	}
	return (ask - bid) / 2
}

func (c *Client) CloseTrade(ctx context.Context, tradeID string, units int64) (*broker.CloseResult, error) {
	body := map[string]string{"units": "ALL"}
	if units > 0 {
		body["units"] = strconv.FormatInt(units, 10)
	}
	raw, err := c.do(ctx, "close_trade", http.MethodPut, c.accountPath("/trades/%s/close", url.PathEscape(tradeID)), body)
	if err != nil {
		return nil, withContext(err, "", tradeID, units)
	}
	fill := gjson.GetBytes(raw, "orderFillTransaction")
	if !fill.Exists() {
		reason := gjson.GetBytes(raw, "orderCancelTransaction.reason").String()
		return nil, &broker.BrokerError{Op: "close_trade", TradeID: tradeID, Units: units, Reason: reason, Err: broker.ErrRejected}
	}
	return &broker.CloseResult{CloseID: fill.Get("id").String(), RealisedPL: fill.Get("pl").Float()}, nil
}

func (c *Client) ModifyTrade(ctx context.Context, tradeID string, stop float64) (*broker.ModifyResult, error) {
	body := map[string]any{
		"stopLoss": map[string]any{
			"price":       strconv.FormatFloat(stop, 'f', -1, 64),
			"timeInForce": "GTC",
			"clientExtensions": map[string]string{
				"id":      "StopLossOrder",
				"tag":     "strategy",
				"comment": "New stop loss price",
			},
		},
	}
	raw, err := c.do(ctx, "modify_trade", http.MethodPut, c.accountPath("/trades/%s/orders", url.PathEscape(tradeID)), body)
	if err != nil {
		return nil, withContext(err, "", tradeID, 0)
	}
	tx := gjson.GetBytes(raw, "stopLossOrderTransaction")
	return &broker.ModifyResult{TransactionID: tx.Get("id").String(), Stop: tx.Get("price").Float()}, nil
}

func (c *Client) AccountBalance(ctx context.Context) (float64, error) {
	raw, err := c.do(ctx, "account_balance", http.MethodGet, c.accountPath("/summary"), nil)
	if err != nil {
		return 0, err
	}
	bal := gjson.GetBytes(raw, "account.balance")
	if !bal.Exists() {
		return 0, &broker.BrokerError{Op: "account_balance", Reason: "balance missing", Err: broker.ErrUnavailable}
	}
	return bal.Float(), nil
}

func (c *Client) LatestClose(ctx context.Context, pair string) (float64, error) {
	candles, err := c.Candles(ctx, pair, market.M1, 1)
	if err != nil {
		return 0, err
	}
	if len(candles) == 0 {
		return 0, &broker.BrokerError{Op: "latest_close", Pair: pair, Reason: "no candles", Err: broker.ErrUnavailable}
	}
	return candles[len(candles)-1].Close, nil
}

func (c *Client) TradeState(ctx context.Context, tradeID string) (*broker.TradeState, error) {
	raw, err := c.do(ctx, "trade_state", http.MethodGet, c.accountPath("/trades/%s", url.PathEscape(tradeID)), nil)
	if err != nil {
		return nil, withContext(err, "", tradeID, 0)
	}
	trade := gjson.GetBytes(raw, "trade")
	if !trade.Exists() {
		return nil, &broker.BrokerError{Op: "trade_state", TradeID: tradeID, Err: broker.ErrTradeNotFound}
	}
	return &broker.TradeState{
		Status:     broker.TradeStatus(strings.ToUpper(trade.Get("state").String())),
		RealisedPL: trade.Get("realizedPL").Float(),
	}, nil
}

func formatPrice(v float64, decimals int) string {
	p := math.Pow(10, float64(decimals))
	return strconv.FormatFloat(math.Round(v*p)/p, 'f', decimals, 64)
}

func withContext(err error, pair, tradeID string, units int64) error {
	if be, ok := err.(*broker.BrokerError); ok {
		if be.Pair == "" {
			be.Pair = pair
		}
		if be.TradeID == "" {
			be.TradeID = tradeID
		}
		if be.Units == 0 {
			be.Units = units
		}
	}
	return err
}
