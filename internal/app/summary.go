package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"fxbot/internal/config"
	"fxbot/internal/market"
	"fxbot/internal/scheduler"
)

// StartupSummary is printed once before the run loop starts.
type StartupSummary struct {
	Env             string
	DryRun          bool
	AccountCurrency string
	RiskFraction    float64
	Pairs           []string
	SignalPeriod    string
	TrailingPeriod  string
	CachedBars      map[string]int
	Jobs            []JobSummary
	HTTPAddr        string
	Notifier        string

	out io.Writer
}

type JobSummary struct {
	Name     string
	Schedule string
	Next     string
}

func newStartupSummary(cfg *config.Config, entries []scheduler.Entry, technical *scheduler.AlignedScheduler, cache *market.CandleCache) *StartupSummary {
	s := &StartupSummary{
		Env:             cfg.App.Env,
		DryRun:          cfg.App.DryRun,
		AccountCurrency: cfg.Risk.AccountCurrency,
		RiskFraction:    cfg.Risk.Fraction,
		Pairs:           cfg.Signal.Pairs,
		SignalPeriod:    cfg.Signal.Period,
		TrailingPeriod:  cfg.Trailing.Period,
		CachedBars:      make(map[string]int),
		Notifier:        "none",
		out:             os.Stdout,
	}
	if cfg.HTTP.Enabled {
		s.HTTPAddr = cfg.HTTP.Addr
	}
	if cfg.Notifier.Telegram.Enabled {
		s.Notifier = "telegram"
	}
	for _, pair := range cfg.Signal.Pairs {
		s.CachedBars[pair] = len(cache.Get(pair, market.Granularity(cfg.Signal.Period), 0))
	}
	for _, e := range entries {
		next := "-"
		if !e.Next.IsZero() {
			next = e.Next.Format("2006-01-02 15:04:05 MST")
		}
		s.Jobs = append(s.Jobs, JobSummary{Name: e.Name, Schedule: e.Spec, Next: next})
	}
	if technical != nil {
		s.Jobs = append(s.Jobs, JobSummary{
			Name:     technical.Name,
			Schedule: fmt.Sprintf("every %s +%s", technical.Interval, technical.Offset),
			Next:     "-",
		})
	}
	return s
}

func (s *StartupSummary) Print() {
	w := s.out
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "STARTUP SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 72))

	settings := tablewriter.NewWriter(w)
	settings.Header("Setting", "Value")
	settings.Append("env", orDash(s.Env))
	settings.Append("dry run", fmt.Sprintf("%t", s.DryRun))
	settings.Append("account currency", s.AccountCurrency)
	settings.Append("risk per trade", fmt.Sprintf("%.2f%%", s.RiskFraction*100))
	settings.Append("signal period", s.SignalPeriod)
	settings.Append("trailing period", s.TrailingPeriod)
	settings.Append("http", orDash(s.HTTPAddr))
	settings.Append("notifier", s.Notifier)
	settings.Render()

	pairs := tablewriter.NewWriter(w)
	pairs.Header("Pair", "Cached bars")
	for _, p := range s.Pairs {
		pairs.Append(p, fmt.Sprintf("%d", s.CachedBars[p]))
	}
	pairs.Render()

	jobs := tablewriter.NewWriter(w)
	jobs.Header("Job", "Schedule", "Next run")
	for _, j := range s.Jobs {
		jobs.Append(j.Name, j.Schedule, j.Next)
	}
	jobs.Render()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
