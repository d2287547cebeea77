package trader

import (
	"context"

	"fxbot/internal/logger"
)

// EventHandler reacts to one event kind inside a fresh Scope.
type EventHandler interface {
	Kind() EventKind
	Name() string
	Handle(ctx context.Context, s *Scope, ev Event) error
}

type handlerFunc struct {
	kind EventKind
	name string
	fn   func(ctx context.Context, s *Scope, ev Event) error
}

// HandlerFunc adapts a plain function to EventHandler.
func HandlerFunc(kind EventKind, name string, fn func(ctx context.Context, s *Scope, ev Event) error) EventHandler {
	return handlerFunc{kind: kind, name: name, fn: fn}
}

func (h handlerFunc) Kind() EventKind { return h.kind }
func (h handlerFunc) Name() string    { return h.name }
func (h handlerFunc) Handle(ctx context.Context, s *Scope, ev Event) error {
	return h.fn(ctx, s, ev)
}

// HandlerRegistry maps an event kind to its handlers in registration order.
// It is filled once during wiring and only read afterwards.
type HandlerRegistry struct {
	handlers map[EventKind][]EventHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[EventKind][]EventHandler)}
}

// Register appends h to the handlers of its kind.
func (r *HandlerRegistry) Register(h EventHandler) {
	if h == nil {
		return
	}
	r.handlers[h.Kind()] = append(r.handlers[h.Kind()], h)
}

func (r *HandlerRegistry) Handlers(kind EventKind) []EventHandler {
	hs := r.handlers[kind]
	out := make([]EventHandler, len(hs))
	copy(out, hs)
	return out
}

func (r *HandlerRegistry) Count() int {
	n := 0
	for _, hs := range r.handlers {
		n += len(hs)
	}
	return n
}

// RegisterDefaultHandlers registers the built-in trading handlers.
func (r *HandlerRegistry) RegisterDefaultHandlers() {
	r.Register(CloseTradeHandler{})
	r.Register(CloseForexPairHandler{})
	r.Register(OpenTradeHandler{})
	r.Register(FundamentalNotifyHandler{})
	logger.Debugf("trader: registered %d event handlers", r.Count())
}
