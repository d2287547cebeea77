// Package visual renders candle charts with indicator overlays as
// standalone HTML pages.
package visual

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"fxbot/internal/analysis/indicator"
	"fxbot/internal/market"
)

const (
	colorUp     = "#26a69a"
	colorDown   = "#ef5350"
	colorSMA    = "#f5a623"
	colorBands  = "#7e57c2"
	bandStdDevs = 2.0
)

// CandleChart describes one rendered chart. Periods that do not fit the
// number of candles are skipped.
type CandleChart struct {
	Pair            string
	Period          market.Granularity
	Candles         []market.Candle
	SMAPeriod       int
	BollingerPeriod int
}

// Render draws the candles and any overlays that could be computed.
func Render(in CandleChart) ([]byte, error) {
	if len(in.Candles) == 0 {
		return nil, fmt.Errorf("no candles for %s %s", in.Pair, in.Period)
	}
	series := market.NewSeries(in.Candles)
	xAxis := make([]string, 0, series.Len())
	bars := make([]opts.KlineData, 0, series.Len())
	for _, c := range in.Candles {
		xAxis = append(xAxis, c.Time.UTC().Format("01-02 15:04"))
		bars = append(bars, opts.KlineData{Value: [4]float64{c.Open, c.Close, c.Low, c.High}})
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: in.Pair, Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s %s", in.Pair, in.Period), Subtitle: fmt.Sprintf("%d bars", len(bars))}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	kline.SetXAxis(xAxis).AddSeries("price", bars, charts.WithItemStyleOpts(opts.ItemStyle{
		Color: colorUp, Color0: colorDown, BorderColor: colorUp, BorderColor0: colorDown,
	}))

	overlay := charts.NewLine()
	overlay.SetXAxis(xAxis)
	overlays := 0
	if in.SMAPeriod > 0 && indicator.AddSMA(series, in.SMAPeriod) == nil {
		addLine(overlay, series, indicator.ColSMA, fmt.Sprintf("SMA %d", in.SMAPeriod), colorSMA)
		overlays++
	}
	if in.BollingerPeriod > 0 && indicator.AddBollinger(series, in.BollingerPeriod, bandStdDevs) == nil {
		addLine(overlay, series, indicator.ColBBUpper, "BB upper", colorBands)
		addLine(overlay, series, indicator.ColBBLower, "BB lower", colorBands)
		overlays++
	}
	if overlays > 0 {
		kline.Overlap(overlay)
	}

	var buf bytes.Buffer
	if err := kline.Render(&buf); err != nil {
		return nil, fmt.Errorf("render %s chart: %w", in.Pair, err)
	}
	return buf.Bytes(), nil
}

// addLine plots a series column. Warm-up values are left as gaps.
func addLine(line *charts.Line, s *market.Series, col, name, color string) {
	values, _ := s.Column(col)
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		if v == 0 {
			data[i] = opts.LineData{Value: nil}
			continue
		}
		data[i] = opts.LineData{Value: v}
	}
	line.AddSeries(name, data,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: 1}),
	)
}
