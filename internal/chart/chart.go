package chart

import (
	"bytes"
	"fmt"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/taichungmao-blip/soybean-monitor/internal/calculator"
	"github.com/taichungmao-blip/soybean-monitor/internal/model"
)

var palette = []drawing.Color{
	gochart.ColorBlue,
	gochart.ColorGreen,
	gochart.ColorRed,
	gochart.ColorOrange,
	gochart.ColorCyan,
	gochart.ColorAlternateGray,
}

// Render draws the rebased comparison chart as a PNG: one line per ticker
// with the commodity drawn heavier, y axis anchored at the common start of
// 100. Legend entries use ticker symbols so no CJK font is required.
func Render(norm *model.NormalizedTable, commodityTicker string) ([]byte, error) {
	if norm.Rows() == 0 {
		return nil, fmt.Errorf("chart: empty table: %w", calculator.ErrInsufficientData)
	}

	series := make([]gochart.Series, 0, len(norm.Tickers))
	for i, tk := range norm.Tickers {
		col := norm.Column(tk)
		if col == nil {
			return nil, fmt.Errorf("chart: no column for %s: %w", tk, calculator.ErrInsufficientData)
		}
		width := 1.5
		if tk == commodityTicker {
			width = 2.75
		}
		series = append(series, gochart.TimeSeries{
			Name:    tk,
			XValues: norm.Dates,
			YValues: col,
			Style: gochart.Style{
				StrokeColor: palette[i%len(palette)],
				StrokeWidth: width,
			},
		})
	}

	graph := gochart.Chart{
		Width:  1000,
		Height: 500,
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeDateValueFormatter,
		},
		YAxis: gochart.YAxis{
			Name: "rebased (start=100)",
		},
		Series: series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render: %w", err)
	}
	return buf.Bytes(), nil
}
