package api

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"fxbot/internal/domain"
)

// Stats summarises realised P&L over closed trades.
type Stats struct {
	Trades  int     `json:"trades"`
	Winners int     `json:"winners"`
	Losers  int     `json:"losers"`
	WinRate float64 `json:"win_rate"`
	Total   float64 `json:"total"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	Best    float64 `json:"best"`
	Worst   float64 `json:"worst"`
}

// ComputeStats ignores trades without a realised P&L.
func ComputeStats(trades []domain.Trade) Stats {
	pls := realised(trades)
	var s Stats
	s.Trades = len(pls)
	if s.Trades == 0 {
		return s
	}
	s.Best, s.Worst = pls[0], pls[0]
	for _, pl := range pls {
		s.Total += pl
		if pl > 0 {
			s.Winners++
		} else {
			s.Losers++
		}
		s.Best = max(s.Best, pl)
		s.Worst = min(s.Worst, pl)
	}
	s.WinRate = float64(s.Winners) / float64(s.Trades)
	s.Mean = stat.Mean(pls, nil)
	if s.Trades > 1 {
		s.StdDev = stat.StdDev(pls, nil)
	}
	return s
}

func realised(trades []domain.Trade) []float64 {
	out := make([]float64, 0, len(trades))
	for _, t := range trades {
		if t.RealisedPL != nil {
			out = append(out, *t.RealisedPL)
		}
	}
	return out
}

// RenderPLChart draws cumulative realised P&L in trade order as an HTML page.
func RenderPLChart(trades []domain.Trade) ([]byte, error) {
	ordered := make([]domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t.RealisedPL != nil {
			ordered = append(ordered, t)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].InitiatedDate.Before(ordered[j].InitiatedDate)
	})
	xAxis := make([]string, 0, len(ordered))
	cum := make([]opts.LineData, 0, len(ordered))
	var running float64
	for _, t := range ordered {
		running += *t.RealisedPL
		xAxis = append(xAxis, fmt.Sprintf("%s %s", t.InitiatedDate.UTC().Format("01-02 15:04"), t.ForexPair))
		cum = append(cum, opts.LineData{Value: running, Name: t.TradeID})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "fxbot P&L", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Cumulative realised P&L",
			Subtitle: fmt.Sprintf("%d closed trades, total %.2f", len(ordered), running),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	line.SetXAxis(xAxis).AddSeries("P&L", cum, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return nil, fmt.Errorf("render P&L chart: %w", err)
	}
	return buf.Bytes(), nil
}
