// Package oanda implements broker.Client against the OANDA v20 REST API.
package oanda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"fxbot/internal/gateway/broker"
	"fxbot/internal/logger"
	"fxbot/internal/pkg/circuit"
)

const (
	PracticeURL = "https://api-fxpractice.oanda.com"
	LiveURL     = "https://api-fxtrade.oanda.com"
)

// Config configures a Client.
type Config struct {
	BaseURL          string
	Token            string
	AccountID        string
	Timeout          time.Duration
	RatePerSec       float64
	Burst            int
	BreakerThreshold int
	BreakerTimeout   time.Duration
	HTTPClient       *http.Client
}

// Client talks to one OANDA account. Requests are rate limited and
// guarded by a circuit breaker that only counts transport failures.
type Client struct {
	baseURL   string
	token     string
	accountID string
	http      *http.Client
	limiter   *rate.Limiter
	breaker   *circuit.CircuitBreaker
}

var _ broker.Client = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" || strings.TrimSpace(cfg.AccountID) == "" {
		return nil, fmt.Errorf("oanda: token and account id are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = PracticeURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		token:     cfg.Token,
		accountID: cfg.AccountID,
		http:      hc,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		breaker:   circuit.NewCircuitBreaker("oanda", cfg.BreakerThreshold, cfg.BreakerTimeout),
	}, nil
}

func (c *Client) Name() string { return "oanda" }

func (c *Client) accountPath(format string, args ...any) string {
	return "/v3/accounts/" + c.accountID + fmt.Sprintf(format, args...)
}

// do sends one request and returns the raw body of a 2xx response. Non-2xx
// responses become *broker.BrokerError wrapping ErrRejected (4xx),
// ErrTradeNotFound (404 on trade paths) or ErrUnavailable.
func (c *Client) do(ctx context.Context, op, method, path string, body any) ([]byte, error) {
	var out []byte
	err := c.breaker.Do(func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return &broker.BrokerError{Op: op, Err: fmt.Errorf("%w: %v", broker.ErrUnavailable, err)}
		}
		var reader io.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("oanda %s: encode body: %w", op, err)
			}
			reader = bytes.NewReader(raw)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("oanda %s: build request: %w", op, err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept-Datetime-Format", "RFC3339")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			return &broker.BrokerError{Op: op, Err: fmt.Errorf("%w: %v", broker.ErrUnavailable, err)}
		}
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return &broker.BrokerError{Op: op, Err: fmt.Errorf("%w: read body: %v", broker.ErrUnavailable, err)}
		}
		logger.Debugf("oanda %s %s status=%d dur=%s", method, path, resp.StatusCode, time.Since(start))
		if resp.StatusCode/100 != 2 {
			return statusError(op, resp.StatusCode, raw)
		}
		out = raw
		return nil
	}, broker.Retryable)
	if errors.Is(err, circuit.ErrOpen) {
		return nil, &broker.BrokerError{Op: op, Reason: "circuit open", Err: broker.ErrUnavailable}
	}
	return out, err
}

func statusError(op string, status int, body []byte) error {
	reason := gjson.GetBytes(body, "errorMessage").String()
	if reason == "" {
		reason = http.StatusText(status)
	}
	kind := broker.ErrUnavailable
	switch {
	case status == http.StatusNotFound && strings.Contains(op, "trade"):
		kind = broker.ErrTradeNotFound
	case status >= 400 && status < 500 && status != http.StatusTooManyRequests:
		kind = broker.ErrRejected
	}
	return &broker.BrokerError{Op: op, Reason: fmt.Sprintf("%d %s", status, reason), Err: kind}
}
