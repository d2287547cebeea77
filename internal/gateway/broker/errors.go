package broker

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRejected marks an order or request the broker refused.
	ErrRejected = errors.New("rejected by broker")
	// ErrUnavailable marks transport failures and an open circuit breaker.
	ErrUnavailable = errors.New("broker unavailable")
	// ErrTradeNotFound is returned by TradeState for unknown ids.
	ErrTradeNotFound = errors.New("trade not found at broker")
)

// BrokerError carries enough context to log a failed call.
type BrokerError struct {
	Op      string
	TradeID string
	Pair    string
	Units   int64
	Reason  string
	Err     error
}

func (e *BrokerError) Error() string {
	var b strings.Builder
	b.WriteString("broker ")
	b.WriteString(e.Op)
	if e.TradeID != "" {
		fmt.Fprintf(&b, " trade=%s", e.TradeID)
	}
	if e.Pair != "" {
		fmt.Fprintf(&b, " pair=%s", e.Pair)
	}
	if e.Units != 0 {
		fmt.Fprintf(&b, " units=%d", e.Units)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, " reason=%s", e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *BrokerError) Unwrap() error { return e.Err }

// IsBrokerError reports whether err originated from a broker call.
func IsBrokerError(err error) bool {
	var be *BrokerError
	return errors.As(err, &be)
}

// Retryable reports whether err is a transport-level failure, as opposed
// to a request the broker understood and refused.
func Retryable(err error) bool {
	return err != nil && !errors.Is(err, ErrRejected) && !errors.Is(err, ErrTradeNotFound)
}
