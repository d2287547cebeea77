// Package gateway selects the outbound adapters named in the config.
package gateway

import (
	"fmt"
	"strings"
	"time"

	"fxbot/internal/config"
	"fxbot/internal/gateway/broker"
	"fxbot/internal/gateway/oanda"
)

// NewBrokerFromConfig builds the broker client for cfg.Provider.
func NewBrokerFromConfig(cfg config.BrokerConfig) (broker.Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "oanda":
		return oanda.New(oanda.Config{
			BaseURL:          cfg.BaseURL,
			Token:            cfg.Token,
			AccountID:        cfg.AccountID,
			Timeout:          time.Duration(cfg.TimeoutSeconds) * time.Second,
			RatePerSec:       cfg.RatePerSec,
			Burst:            cfg.Burst,
			BreakerThreshold: cfg.BreakerThreshold,
			BreakerTimeout:   time.Duration(cfg.BreakerTimeoutSeconds) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unsupported broker provider: %s", cfg.Provider)
	}
}
