// Package scheduler decides when jobs run: cron specs for the periodic
// housekeeping jobs and a candle-aligned loop for the technical signal.
package scheduler

import (
	"context"
	"time"

	"fxbot/internal/logger"
)

// AlignedScheduler runs a task shortly after every candle close: at each
// multiple of Interval (UTC) plus Offset.
type AlignedScheduler struct {
	Name           string
	Interval       time.Duration
	Offset         time.Duration
	RunImmediately bool

	nowFn func() time.Time
}

func NewAlignedScheduler(name string, interval, offset time.Duration) *AlignedScheduler {
	return &AlignedScheduler{
		Name:     name,
		Interval: interval,
		Offset:   offset,
		nowFn:    time.Now,
	}
}

// Run blocks until ctx is done. Each run of task gets ctx.
func (s *AlignedScheduler) Run(ctx context.Context, task func(context.Context)) {
	if task == nil {
		logger.Warnf("aligned scheduler %s: task is nil, exit", s.Name)
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("aligned scheduler %s: invalid interval=%s, exit", s.Name, s.Interval)
		return
	}
	if s.Offset < 0 {
		logger.Warnf("aligned scheduler %s: negative offset=%s, clamp to 0", s.Name, s.Offset)
		s.Offset = 0
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}

	startAt := s.nowFn().UTC()
	logger.Infof("aligned scheduler %s: started interval=%s offset=%s run_immediately=%v at=%s",
		s.Name, s.Interval, s.Offset, s.RunImmediately, startAt.Format(time.RFC3339))
	if s.RunImmediately {
		task(ctx)
	}

	for {
		now := s.nowFn().UTC()
		nextClose, wakeAt, wait := s.nextTimes(now)
		logger.Debugf("aligned scheduler %s: next candle close=%s run at=%s (in %s) uptime=%s",
			s.Name, nextClose.Format(time.RFC3339), wakeAt.Format(time.RFC3339),
			wait.Truncate(time.Second), now.Sub(startAt).Truncate(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Infof("aligned scheduler %s: stopped", s.Name)
			return
		case <-timer.C:
		}
		task(ctx)
	}
}

// nextTimes returns the next candle close after now and when to wake for it.
func (s *AlignedScheduler) nextTimes(now time.Time) (nextClose, wakeAt time.Time, wait time.Duration) {
	now = now.UTC()
	nextClose = now.Truncate(s.Interval).Add(s.Interval)
	wakeAt = nextClose.Add(s.Offset)
	// The offset may still put the previous close's run in the future.
	if prev := nextClose.Add(-s.Interval).Add(s.Offset); prev.After(now) {
		wakeAt = prev
		nextClose = prev.Add(-s.Offset)
	}
	return nextClose, wakeAt, wakeAt.Sub(now)
}
