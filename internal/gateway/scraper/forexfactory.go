package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	"fxbot/internal/domain"
	"fxbot/internal/logger"
	"fxbot/internal/store"
)

const (
	DefaultForexFactoryURL = "https://www.forexfactory.com/calendar"
	userAgent              = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:80.0) Gecko/20100101 Firefox/80.0"
)

// extractRowsJS runs in the rendered page and returns the calendar table as
// a JSON array of flat row objects.
const extractRowsJS = `JSON.stringify(Array.from(document.querySelectorAll('tr.calendar__row'))
  .filter(tr => !tr.classList.contains('calendar__expand'))
  .map(tr => {
    const td = c => tr.querySelector('td.' + c);
    const text = c => { const el = td(c); return el ? el.innerText.trim() : ''; };
    const impact = td('calendar__impact');
    const impactSpan = impact ? impact.querySelector('span') : null;
    const actual = td('calendar__actual');
    const actualSpan = actual ? actual.querySelector('span') : null;
    return {
      day_breaker: tr.classList.contains('calendar__row--day-breaker'),
      time: text('calendar__time'),
      currency: text('calendar__currency'),
      event: text('calendar__event'),
      impact: (impact ? impact.className : '') + ' ' + (impactSpan ? impactSpan.className : ''),
      actual: text('calendar__actual'),
      actual_class: actualSpan ? actualSpan.className : '',
      forecast: text('calendar__forecast'),
      previous: text('calendar__previous'),
    };
  }))`

const rowSchema = `{
  "type": "object",
  "required": ["day_breaker", "time", "currency", "event", "impact", "actual", "forecast", "previous"],
  "properties": {
    "day_breaker": {"type": "boolean"},
    "time": {"type": "string"},
    "currency": {"type": "string"},
    "event": {"type": "string"},
    "impact": {"type": "string"},
    "actual": {"type": "string"},
    "actual_class": {"type": "string"},
    "forecast": {"type": "string"},
    "previous": {"type": "string"}
  }
}`

var numberRe = regexp.MustCompile(`[^0-9.\-]`)

type ForexFactoryConfig struct {
	BaseURL  string
	Timeout  time.Duration
	Headless bool
	// Location is the timezone the calendar renders times in.
	Location *time.Location
}

// ForexFactory renders the Forex Factory day calendar in headless Chrome and
// keeps the high-impact prints of major currencies.
type ForexFactory struct {
	cfg    ForexFactoryConfig
	schema *jsonschema.Schema
	fetch  func(ctx context.Context, url string) ([]byte, error)

	mu   sync.Mutex
	date time.Time
	url  string
	raw  []byte
}

var _ Scraper = (*ForexFactory)(nil)

func NewForexFactory(cfg ForexFactoryConfig) (*ForexFactory, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultForexFactoryURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("row.json", strings.NewReader(rowSchema)); err != nil {
		return nil, err
	}
	schema, err := compiler.Compile("row.json")
	if err != nil {
		return nil, err
	}
	f := &ForexFactory{cfg: cfg, schema: schema}
	f.fetch = f.render
	return f, nil
}

// DayURL builds the calendar url for one day, e.g. ?day=Mar01.2024.
func DayURL(base string, date time.Time) string {
	return fmt.Sprintf("%s?day=%s", strings.TrimRight(base, "/"), date.Format("Jan02.2006"))
}

func (f *ForexFactory) SetParams(date time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.date = date.In(f.cfg.Location)
	f.url = DayURL(f.cfg.BaseURL, f.date)
}

func (f *ForexFactory) MakeRequest(ctx context.Context) error {
	f.mu.Lock()
	url := f.url
	f.mu.Unlock()
	if url == "" {
		return fmt.Errorf("forexfactory: SetParams must be called before MakeRequest")
	}
	start := time.Now()
	raw, err := f.fetch(ctx, url)
	if err != nil {
		return fmt.Errorf("forexfactory: fetch %s: %w", url, err)
	}
	logger.Debugf("forexfactory fetched %s bytes=%d dur=%s", url, len(raw), time.Since(start))
	f.mu.Lock()
	f.raw = raw
	f.mu.Unlock()
	return nil
}

func (f *ForexFactory) render(ctx context.Context, url string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.cfg.Headless),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	timeoutCtx, cancel := context.WithTimeout(browserCtx, f.cfg.Timeout)
	defer cancel()

	var out string
	if err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(extractRowsJS, &out),
	); err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func (f *ForexFactory) ScrapedCalendarItems(ctx context.Context, repo store.FundamentalRepository) ([]Item, error) {
	f.mu.Lock()
	raw, date := f.raw, f.date
	f.mu.Unlock()
	if raw == nil {
		return nil, fmt.Errorf("forexfactory: no page fetched")
	}
	items, err := f.parseRows(raw, date)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if err := seed(ctx, repo, it); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// parseRows keeps the rows after the last day breaker. Rows with a blank
// time inherit the time of the row above; rows whose time is not a clock
// time (All Day, Tentative) are dropped.
func (f *ForexFactory) parseRows(raw []byte, date time.Time) ([]Item, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("forexfactory: rows are not valid JSON")
	}
	rows := gjson.ParseBytes(raw).Array()
	start := 0
	for i, r := range rows {
		if r.Get("day_breaker").Bool() {
			start = i + 1
		}
	}
	if start >= len(rows) {
		// a single-day page without a trailing group
		start = 0
	}

	var items []Item
	lastTime := ""
	for _, r := range rows[start:] {
		if r.Get("day_breaker").Bool() {
			continue
		}
		var doc any
		if err := json.Unmarshal([]byte(r.Raw), &doc); err != nil {
			return nil, fmt.Errorf("forexfactory: decode row: %w", err)
		}
		if err := f.schema.Validate(doc); err != nil {
			logger.Warnf("forexfactory: skipping malformed row: %v", err)
			continue
		}
		clock := strings.TrimSpace(r.Get("time").String())
		if clock == "" {
			clock = lastTime
		} else {
			lastTime = clock
		}
		at, ok := combine(date, clock, f.cfg.Location)
		if !ok {
			continue
		}
		currency := strings.ToUpper(strings.TrimSpace(r.Get("currency").String()))
		if !isMajor(currency) {
			continue
		}
		if ParseImpact(r.Get("impact").String()) != ImpactHigh {
			continue
		}
		items = append(items, Item{
			Currency:  currency,
			Timestamp: at,
			Event: domain.CalendarEvent{
				CalendarEvent: strings.TrimSpace(r.Get("event").String()),
				Sentiment:     strength(r.Get("actual_class").String()),
				Actual:        ParseNumber(r.Get("actual").String()),
				Forecast:      ParseNumber(r.Get("forecast").String()),
				Previous:      ParseNumber(r.Get("previous").String()),
			},
		})
	}
	return items, nil
}

type Impact string

const (
	ImpactUnknown Impact = ""
	ImpactLow     Impact = "low"
	ImpactMedium  Impact = "medium"
	ImpactHigh    Impact = "high"
)

// ParseImpact reads the impact from the cell and icon class names, either
// the "calendar__impact--high" modifier or the "icon--ff-impact-red" icon.
func ParseImpact(classes string) Impact {
	for _, c := range strings.Fields(classes) {
		lower := strings.ToLower(c)
		if idx := strings.LastIndex(lower, "--"); idx >= 0 {
			switch Impact(lower[idx+2:]) {
			case ImpactLow, ImpactMedium, ImpactHigh:
				return Impact(lower[idx+2:])
			}
		}
		switch {
		case strings.HasSuffix(lower, "impact-red"):
			return ImpactHigh
		case strings.HasSuffix(lower, "impact-ora"):
			return ImpactMedium
		case strings.HasSuffix(lower, "impact-yel"):
			return ImpactLow
		}
	}
	return ImpactUnknown
}

// ParseNumber strips units and suffixes ("0.3%", "215K", "<1.2B") and
// returns nil for an empty or unparsable cell.
func ParseNumber(s string) *float64 {
	cleaned := numberRe.ReplaceAllString(s, "")
	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

// strength maps the actual-cell span class ("better"/"worse") to a sentiment.
func strength(classes string) domain.Sentiment {
	fields := strings.Fields(classes)
	if len(fields) == 0 {
		return domain.Flat
	}
	return domain.ParseSentiment(fields[len(fields)-1])
}

func combine(date time.Time, clock string, loc *time.Location) (time.Time, bool) {
	t, err := time.Parse("3:04pm", strings.ToLower(clock))
	if err != nil {
		return time.Time{}, false
	}
	d := date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc), true
}
