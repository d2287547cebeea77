package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	"fxbot/internal/logger"
)

// JobFunc is a scheduled entry point. Its error is logged, never retried.
type JobFunc func(ctx context.Context) error

// Entry describes one registered cron job.
type Entry struct {
	Name string
	Spec string
	Next time.Time
	Prev time.Time
}

// Cron runs named jobs on six-field cron specs (seconds first). A job that
// is still running when its next tick fires is skipped, and panics are
// recovered and logged.
type Cron struct {
	c     *cron.Cron
	ctx   context.Context
	names map[cron.EntryID]string
	specs map[cron.EntryID]string
}

type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	logger.Debugf("cron: %s %v", msg, kv)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	logger.Errorf("cron: %s %v: %v", msg, kv, err)
}

func NewCron(loc *time.Location) *Cron {
	if loc == nil {
		loc = time.UTC
	}
	l := cronLogger{}
	return &Cron{
		c: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
		ctx:   context.Background(),
		names: make(map[cron.EntryID]string),
		specs: make(map[cron.EntryID]string),
	}
}

// Add registers fn under name. An empty spec disables the job.
func (c *Cron) Add(name, spec string, fn JobFunc) error {
	if spec == "" {
		logger.Infof("cron: job %s disabled", name)
		return nil
	}
	id, err := c.c.AddFunc(spec, func() {
		start := time.Now()
		if err := fn(c.ctx); err != nil {
			logger.Errorf("job %s failed after %s: %v", name, time.Since(start).Truncate(time.Millisecond), err)
			return
		}
		logger.Debugf("job %s done in %s", name, time.Since(start).Truncate(time.Millisecond))
	})
	if err != nil {
		return fmt.Errorf("cron job %s spec %q: %w", name, spec, err)
	}
	c.names[id] = name
	c.specs[id] = spec
	return nil
}

// Entries lists the registered jobs ordered by name.
func (c *Cron) Entries() []Entry {
	var out []Entry
	for _, e := range c.c.Entries() {
		out = append(out, Entry{Name: c.names[e.ID], Spec: c.specs[e.ID], Next: e.Next, Prev: e.Prev})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Run starts the cron loop and blocks until ctx is done, then waits for
// running jobs to finish.
func (c *Cron) Run(ctx context.Context) error {
	c.ctx = ctx
	c.c.Start()
	logger.Infof("cron: started with %d job(s)", len(c.names))
	<-ctx.Done()
	<-c.c.Stop().Done()
	logger.Infof("cron: stopped")
	return nil
}
