// Package trader is the event-driven trade orchestration core: the event
// bus, the unit of work every handler and job runs in, and the handlers
// that open and close trades.
package trader

import (
	"context"
	"fmt"
	"time"

	"fxbot/internal/gateway/broker"
	"fxbot/internal/gateway/notifier"
	"fxbot/internal/gateway/scraper"
	"fxbot/internal/logger"
	"fxbot/internal/store"
	"fxbot/internal/strategy/risk"
)

// Options carries the trading settings handlers need.
type Options struct {
	Risk            risk.Calculator
	AccountCurrency string
	// ConversionMap overrides the pair used to convert a pair's quote
	// currency into the account currency.
	ConversionMap map[string]string
	Notifier      notifier.TextNotifier
	// JournalEvents appends every dispatched event to the event log.
	JournalEvents bool
	Now           func() time.Time
}

// UnitOfWork binds the shared broker, scraper and event bus to short-lived
// persistence sessions. It is the only way handlers and jobs reach the
// outside world.
type UnitOfWork struct {
	connector store.Connector
	broker    broker.Client
	scraper   scraper.Scraper
	registry  *HandlerRegistry
	bus       *EventBus
	opts      Options
}

var _ ScopeRunner = (*UnitOfWork)(nil)

// NewUnitOfWork builds the event bus and registers the default handlers.
func NewUnitOfWork(connector store.Connector, brk broker.Client, scr scraper.Scraper, opts Options) *UnitOfWork {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Notifier == nil {
		opts.Notifier = notifier.Nop{}
	}
	opts.Risk = risk.NewCalculator(opts.Risk.Fraction, opts.Risk.LotScaling)
	u := &UnitOfWork{
		connector: connector,
		broker:    brk,
		scraper:   scr,
		registry:  NewHandlerRegistry(),
		opts:      opts,
	}
	u.registry.RegisterDefaultHandlers()
	u.bus = NewEventBus(u.registry, u)
	u.bus.now = opts.Now
	if opts.JournalEvents {
		u.bus.Journal = u.journal
	}
	return u
}

// Do opens a session, runs fn and always closes the session. A failure to
// connect is returned without calling fn.
func (u *UnitOfWork) Do(ctx context.Context, fn func(*Scope) error) error {
	sess, err := u.connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("unit of work: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logger.Warnf("unit of work: close session: %v", cerr)
		}
	}()
	return fn(&Scope{sess: sess, uow: u})
}

func (u *UnitOfWork) Bus() *EventBus              { return u.bus }
func (u *UnitOfWork) Registry() *HandlerRegistry { return u.registry }
func (u *UnitOfWork) Broker() broker.Client      { return u.broker }
func (u *UnitOfWork) Options() Options           { return u.opts }

func (u *UnitOfWork) Publish(ev Event) string { return u.bus.Publish(ev) }

func (u *UnitOfWork) Start(ctx context.Context)      { u.bus.Start(ctx) }
func (u *UnitOfWork) Stop(ctx context.Context) error { return u.bus.Stop(ctx) }

func (u *UnitOfWork) journal(ctx context.Context, env Envelope) error {
	payload, err := env.Payload()
	if err != nil {
		return err
	}
	return u.Do(ctx, func(s *Scope) error {
		return s.Events().Append(ctx, store.EventRecord{
			ID:        env.ID,
			Kind:      string(env.Kind()),
			Payload:   payload,
			CreatedAt: env.CreatedAt,
		})
	})
}

// Scope is one open unit of work. It must not outlive the Do call that
// created it.
type Scope struct {
	sess store.Session
	uow  *UnitOfWork
}

func (s *Scope) Trades() store.TradeRepository             { return s.sess.Trades() }
func (s *Scope) Fundamentals() store.FundamentalRepository { return s.sess.Fundamentals() }
func (s *Scope) Events() store.EventRepository             { return s.sess.Events() }
func (s *Scope) Broker() broker.Client                     { return s.uow.broker }
func (s *Scope) Scraper() scraper.Scraper                  { return s.uow.scraper }
func (s *Scope) Options() Options                          { return s.uow.opts }
func (s *Scope) Now() time.Time                            { return s.uow.opts.Now() }

// Publish enqueues ev on the shared bus. The event is handled later in a
// scope of its own.
func (s *Scope) Publish(ev Event) string { return s.uow.bus.Publish(ev) }

// Notify sends msg to the configured notifier. Failures are only logged.
func (s *Scope) Notify(ctx context.Context, msg notifier.StructuredMessage) {
	if err := s.uow.opts.Notifier.SendText(ctx, msg.RenderMarkdown()); err != nil {
		logger.Warnf("notify %q failed: %v", msg.Title, err)
	}
}
