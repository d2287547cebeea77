package trader

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"fxbot/internal/logger"
)

const slowHandler = 10 * time.Second

// ScopeRunner opens a fresh scope for fn and releases it afterwards.
type ScopeRunner interface {
	Do(ctx context.Context, fn func(*Scope) error) error
}

type queued struct {
	env  Envelope
	stop bool
}

// EventBus is an unbounded FIFO queue drained by a single consumer loop.
// Publish never blocks. Each handler of a dequeued event runs sequentially
// in its own scope; a failing or panicking handler is logged and does not
// affect its siblings or later events.
type EventBus struct {
	registry *HandlerRegistry
	runner   ScopeRunner

	mu     sync.Mutex
	queue  []queued
	notify chan struct{}

	running atomic.Bool
	done    chan struct{}

	// Journal, when set, is called once per event before its handlers.
	Journal func(ctx context.Context, env Envelope) error
	now     func() time.Time
}

func NewEventBus(registry *HandlerRegistry, runner ScopeRunner) *EventBus {
	if registry == nil {
		registry = NewHandlerRegistry()
	}
	return &EventBus{
		registry: registry,
		runner:   runner,
		notify:   make(chan struct{}, 1),
		now:      time.Now,
	}
}

// Subscribe registers h for its event kind. It must not be called while
// the loop is running.
func (b *EventBus) Subscribe(h EventHandler) {
	b.registry.Register(h)
}

// Publish enqueues ev and returns its envelope id.
func (b *EventBus) Publish(ev Event) string {
	env := newEnvelope(ev, b.now())
	b.push(queued{env: env})
	logger.Debugf("bus: published kind=%s id=%s", env.Kind(), env.ID)
	return env.ID
}

func (b *EventBus) push(q queued) {
	b.mu.Lock()
	b.queue = append(b.queue, q)
	b.mu.Unlock()
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Start launches the consumer loop. Calling Start while running is a no-op.
// The loop also exits when ctx is done, leaving queued events in place.
// Stop sentinels left behind by a loop that exited on ctx are dropped.
func (b *EventBus) Start(ctx context.Context) {
	b.mu.Lock()
	if !b.running.CompareAndSwap(false, true) {
		b.mu.Unlock()
		return
	}
	b.dropStaleStops()
	done := make(chan struct{})
	b.done = done
	b.mu.Unlock()
	logger.Infof("bus: consumer loop started")
	go b.loop(ctx, done)
}

// Stop enqueues the stop sentinel and waits for the loop to exit or ctx to
// end. The event being handled finishes first; events published after the
// sentinel stay queued for the next Start.
func (b *EventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	done := b.done
	b.mu.Unlock()
	if !b.running.Load() || done == nil {
		return nil
	}
	b.push(queued{stop: true})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dropStaleStops must be called with mu held before the loop starts.
func (b *EventBus) dropStaleStops() {
	kept := b.queue[:0]
	for _, q := range b.queue {
		if !q.stop {
			kept = append(kept, q)
		}
	}
	for i := len(kept); i < len(b.queue); i++ {
		b.queue[i] = queued{}
	}
	b.queue = kept
}

func (b *EventBus) Running() bool { return b.running.Load() }

// Pending returns a snapshot of the queued events.
func (b *EventBus) Pending() []Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Envelope, 0, len(b.queue))
	for _, q := range b.queue {
		if !q.stop {
			out = append(out, q.env)
		}
	}
	return out
}

func (b *EventBus) loop(ctx context.Context, done chan struct{}) {
	defer func() {
		b.running.Store(false)
		close(done)
		logger.Infof("bus: consumer loop stopped")
	}()
	for {
		q, ok := b.next(ctx)
		if !ok || q.stop {
			return
		}
		b.dispatch(ctx, q.env)
	}
}

func (b *EventBus) next(ctx context.Context) (queued, bool) {
	for {
		b.mu.Lock()
		if len(b.queue) > 0 {
			q := b.queue[0]
			b.queue[0] = queued{}
			b.queue = b.queue[1:]
			b.mu.Unlock()
			return q, true
		}
		b.mu.Unlock()
		select {
		case <-b.notify:
		case <-ctx.Done():
			return queued{}, false
		}
	}
}

func (b *EventBus) dispatch(ctx context.Context, env Envelope) {
	if b.Journal != nil {
		if err := b.Journal(ctx, env); err != nil {
			logger.Warnf("bus: journal kind=%s id=%s failed: %v", env.Kind(), env.ID, err)
		}
	}
	handlers := b.registry.Handlers(env.Kind())
	if len(handlers) == 0 {
		logger.Debugf("bus: no handler for kind=%s id=%s", env.Kind(), env.ID)
		return
	}
	for _, h := range handlers {
		start := time.Now()
		if err := b.invoke(ctx, h, env); err != nil {
			logger.Errorf("bus: handler=%s kind=%s id=%s failed: %v", h.Name(), env.Kind(), env.ID, err)
		}
		if dur := time.Since(start); dur > slowHandler {
			logger.Warnf("bus: slow handler=%s kind=%s took %s", h.Name(), env.Kind(), dur)
		}
	}
}

func (b *EventBus) invoke(ctx context.Context, h EventHandler, env Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("bus: handler=%s panic: %v\n%s", h.Name(), r, debug.Stack())
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if b.runner == nil {
		return h.Handle(ctx, nil, env.Event)
	}
	return b.runner.Do(ctx, func(s *Scope) error {
		return h.Handle(ctx, s, env.Event)
	})
}
