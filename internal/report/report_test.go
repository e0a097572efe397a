package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taichungmao-blip/soybean-monitor/internal/calculator"
	"github.com/taichungmao-blip/soybean-monitor/internal/model"
)

// flatTable builds a table where every column is constant except for chosen
// last-row tweaks, so trends and spreads are easy to reason about.
func flatTable(rows int, lastClose map[string]float64) *model.PriceTable {
	tickers := []string{"ZS=F", "1210.TW", "1215.TW"}
	t := &model.PriceTable{
		Dates:   make([]time.Time, rows),
		Tickers: tickers,
		Columns: make(map[string][]float64, len(tickers)),
	}
	for i := range t.Dates {
		t.Dates[i] = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
	}
	for _, tk := range tickers {
		col := make([]float64, rows)
		for i := range col {
			col[i] = 100
		}
		if v, ok := lastClose[tk]; ok {
			col[rows-1] = v
		}
		t.Columns[tk] = col
	}
	return t
}

func testParams() Params {
	return Params{
		CommodityTicker: "ZS=F",
		EquityTickers:   []string{"1210.TW", "1215.TW"},
		TickerNames:     map[string]string{"ZS=F": "黃豆期貨", "1210.TW": "大成"},
		LookbackDays:    180,
		WindowDays:      20,
	}
}

func TestBuild_EndToEnd(t *testing.T) {
	// Commodity falls 6%, 1210 rises 3%, 1215 flat; revenue +8% for 1210.
	table := flatTable(60, map[string]float64{"ZS=F": 94, "1210.TW": 103})
	revenues := map[string]model.Revenue{
		"1210.TW": {YoYPct: 8.0, Known: true},
	}

	r, err := Build(table, revenues, testParams())
	require.NoError(t, err)

	assert.Equal(t, "黃豆期貨", r.Commodity.Name)
	assert.InDelta(t, -6.0, r.Commodity.TrendPct, 1e-9)
	assert.Equal(t, 94.0, r.Commodity.LastClose)

	require.Len(t, r.Equities, 2)
	first := r.Equities[0]
	assert.Equal(t, "1210.TW", first.Ticker)
	assert.InDelta(t, 3.0, first.TrendPct, 1e-9)
	// Spread: equity rebased 103 vs commodity rebased 94.
	assert.InDelta(t, 9.0, first.Spread, 1e-9)
	assert.Equal(t, model.CategoryDualEngineBullish, first.Recommendation.Category)

	// 1215 has no revenue entry: defaults to 0.0, marked unknown.
	second := r.Equities[1]
	assert.Equal(t, 0.0, second.RevenueYoYPct)
	assert.False(t, second.RevenueKnown)
	assert.Equal(t, model.CategoryNeutralWait, second.Recommendation.Category)
}

func TestBuild_PreservesConfiguredOrder(t *testing.T) {
	table := flatTable(60, nil)
	p := testParams()
	p.EquityTickers = []string{"1215.TW", "1210.TW"}

	r, err := Build(table, nil, p)
	require.NoError(t, err)
	require.Len(t, r.Equities, 2)
	assert.Equal(t, "1215.TW", r.Equities[0].Ticker)
	assert.Equal(t, "1210.TW", r.Equities[1].Ticker)
}

func TestBuild_InvalidEquityPriceSkipsOnlyThatEquity(t *testing.T) {
	// 30 rows with window 20: the trend reference is row 9. Zero it out for
	// 1210 while keeping row 0 positive so normalization still succeeds.
	table := flatTable(30, nil)
	table.Columns["1210.TW"][9] = 0

	r, err := Build(table, nil, testParams())
	require.NoError(t, err)

	require.Len(t, r.Equities, 1)
	assert.Equal(t, "1215.TW", r.Equities[0].Ticker)
	require.Len(t, r.Skipped, 1)
	assert.Equal(t, "1210.TW", r.Skipped[0].Ticker)
	assert.NotEmpty(t, r.Skipped[0].Reason)
}

func TestBuild_EmptyTableFailsWholeReport(t *testing.T) {
	_, err := Build(&model.PriceTable{Columns: map[string][]float64{}}, nil, testParams())
	require.Error(t, err)
	assert.ErrorIs(t, err, calculator.ErrInsufficientData)
}

func TestBuild_MissingCommodityColumnFails(t *testing.T) {
	table := flatTable(10, nil)
	p := testParams()
	p.CommodityTicker = "GC=F"
	_, err := Build(table, nil, p)
	assert.ErrorIs(t, err, calculator.ErrInsufficientData)
}

func TestBuild_IsDeterministic(t *testing.T) {
	table := flatTable(60, map[string]float64{"ZS=F": 94, "1210.TW": 103})
	revenues := map[string]model.Revenue{"1210.TW": {YoYPct: 8.0, Known: true}}

	a, err := Build(table, revenues, testParams())
	require.NoError(t, err)
	b, err := Build(table, revenues, testParams())
	require.NoError(t, err)

	a.GeneratedAt, b.GeneratedAt = time.Time{}, time.Time{}
	assert.Equal(t, a, b)
}

func TestRenderTable(t *testing.T) {
	table := flatTable(60, map[string]float64{"ZS=F": 94, "1210.TW": 103})
	r, err := Build(table, map[string]model.Revenue{"1210.TW": {YoYPct: 8, Known: true}}, testParams())
	require.NoError(t, err)
	r.Skipped = append(r.Skipped, model.SkippedEquity{Ticker: "1219.TW", Name: "福壽", Reason: "invalid price"})

	var buf bytes.Buffer
	RenderTable(&buf, r)
	out := buf.String()

	assert.Contains(t, out, "1210.TW")
	assert.Contains(t, out, "TICKER")
	assert.Contains(t, out, "skipped 福壽")
}

func TestRenderJSON(t *testing.T) {
	table := flatTable(60, nil)
	r, err := Build(table, nil, testParams())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, r))

	var decoded model.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded.Equities, 2)
}
