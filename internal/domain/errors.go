package domain

import "errors"

var (
	// ErrNotFound marks a record the caller expected to exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTradeParameter is raised before any broker call when the
	// requested trade cannot be sized or placed.
	ErrInvalidTradeParameter = errors.New("invalid trade parameter")
	// ErrNoStopDefined rejects orders without a protective stop.
	ErrNoStopDefined = errors.New("no stop defined")
	// ErrTradeClosed rejects mutations of a trade that already left OPEN.
	ErrTradeClosed = errors.New("trade already closed")
)
