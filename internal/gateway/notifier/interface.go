// Package notifier pushes short operator messages about trading activity.
package notifier

import "context"

// TextNotifier is the only notification capability the trading core needs.
type TextNotifier interface {
	SendText(ctx context.Context, text string) error
}

// Nop drops every message. Used when no channel is configured.
type Nop struct{}

func (Nop) SendText(context.Context, string) error { return nil }
