package notifier

import (
	"fmt"
	"strings"
	"time"

	"fxbot/internal/domain"
)

const maxStructuredMessageLen = 3800

type MessageSection struct {
	Title string
	Lines []string
}

// StructuredMessage renders a title, fenced sections and a timestamp as
// Telegram Markdown.
type StructuredMessage struct {
	Icon      string
	Title     string
	Sections  []MessageSection
	Footer    string
	Timestamp time.Time
}

func (m StructuredMessage) RenderMarkdown() string {
	var b strings.Builder
	header := strings.TrimSpace(m.Icon + " " + m.Title)
	if header != "" {
		b.WriteString(header + "\n\n")
	}
	if block := renderSections(m.Sections); block != "" {
		b.WriteString(block)
	}
	if footer := strings.TrimSpace(m.Footer); footer != "" {
		b.WriteString(sanitize(footer))
		b.WriteString("\n")
	}
	if !m.Timestamp.IsZero() {
		b.WriteString("time: " + m.Timestamp.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	body := strings.TrimSpace(b.String())
	if len(body) > maxStructuredMessageLen {
		body = body[:maxStructuredMessageLen] + "..."
	}
	return body
}

// TradeOpened describes a freshly opened trade.
func TradeOpened(t domain.Trade) StructuredMessage {
	lines := []string{
		fmt.Sprintf("trade_id: %s", t.TradeID),
		fmt.Sprintf("side: %s", side(t.IsBuy)),
		fmt.Sprintf("units: %d", t.Units),
		fmt.Sprintf("entry: %v", t.Close),
		fmt.Sprintf("stop: %v (%.1f pips)", t.Stop, t.SLPips),
	}
	if t.Limit != nil {
		lines = append(lines, fmt.Sprintf("limit: %v", *t.Limit))
	}
	return StructuredMessage{
		Icon:      "🟢",
		Title:     "Opened " + t.ForexPair,
		Sections:  []MessageSection{{Lines: lines}},
		Timestamp: t.InitiatedDate,
	}
}

// TradeClosed describes a trade that has just been closed.
func TradeClosed(t domain.Trade, reason string) StructuredMessage {
	lines := []string{
		fmt.Sprintf("trade_id: %s", t.TradeID),
		fmt.Sprintf("side: %s", side(t.IsBuy)),
	}
	if t.RealisedPL != nil {
		lines = append(lines, fmt.Sprintf("realised_pl: %.2f", *t.RealisedPL))
	}
	icon := "🔴"
	if t.IsWinner {
		icon = "✅"
	}
	return StructuredMessage{
		Icon:      icon,
		Title:     "Closed " + t.ForexPair,
		Sections:  []MessageSection{{Lines: lines}},
		Footer:    reason,
		Timestamp: time.Now(),
	}
}

// FundamentalProcessed summarises a completed calendar read for a currency.
func FundamentalProcessed(fd domain.FundamentalData) StructuredMessage {
	lines := make([]string, 0, len(fd.CalendarEvents))
	for _, ev := range fd.CalendarEvents {
		lines = append(lines, fmt.Sprintf("%s: %s", ev.CalendarEvent, ev.Sentiment))
	}
	return StructuredMessage{
		Icon:      "📅",
		Title:     fmt.Sprintf("%s fundamentals %s", fd.Currency, fd.AggregateSentiment),
		Sections:  []MessageSection{{Title: "events", Lines: lines}},
		Timestamp: fd.LastUpdated,
	}
}

func side(isBuy bool) string {
	if isBuy {
		return "BUY"
	}
	return "SELL"
}

func renderSections(secs []MessageSection) string {
	hasContent := false
	for _, sec := range secs {
		if len(sanitizeLines(sec.Lines)) > 0 {
			hasContent = true
			break
		}
	}
	if !hasContent {
		return ""
	}
	var b strings.Builder
	b.WriteString("```\n")
	for idx, sec := range secs {
		lines := sanitizeLines(sec.Lines)
		if len(lines) == 0 {
			continue
		}
		if title := strings.TrimSpace(sec.Title); title != "" {
			b.WriteString(sanitize(title))
			b.WriteString("\n")
		}
		for _, line := range lines {
			b.WriteString("- ")
			b.WriteString(sanitize(line))
			b.WriteString("\n")
		}
		if idx != len(secs)-1 {
			b.WriteString("\n")
		}
	}
	b.WriteString("```\n\n")
	return b.String()
}

func sanitizeLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if text := strings.TrimSpace(line); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func sanitize(s string) string {
	return strings.ReplaceAll(s, "```", "'''")
}
