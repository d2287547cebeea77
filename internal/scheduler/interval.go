package scheduler

import (
	"strconv"
	"strings"
	"time"

	"fxbot/internal/market"
)

// ParseInterval accepts broker granularities ("M5", "H1", "D"), the short
// forms "15m", "4h", "1d", "1w", and anything time.ParseDuration accepts.
// Returns (0, false) on invalid input.
func ParseInterval(interval string) (time.Duration, bool) {
	interval = strings.TrimSpace(interval)
	if interval == "" {
		return 0, false
	}
	if d := market.Granularity(strings.ToUpper(interval)).Duration(); d > 0 {
		return d, true
	}
	lower := strings.ToLower(interval)
	unit := lower[len(lower)-1]
	if n, err := strconv.Atoi(strings.TrimSpace(lower[:len(lower)-1])); err == nil {
		if n <= 0 {
			return 0, false
		}
		switch unit {
		case 'd':
			return time.Duration(n) * 24 * time.Hour, true
		case 'w':
			return time.Duration(n) * 7 * 24 * time.Hour, true
		}
	}
	d, err := time.ParseDuration(lower)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
