package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taichungmao-blip/soybean-monitor/internal/model"
)

func tableFrom(columns map[string][]float64) *model.PriceTable {
	rows := 0
	tickers := make([]string, 0, len(columns))
	for tk, closes := range columns {
		tickers = append(tickers, tk)
		rows = len(closes)
	}
	dates := make([]time.Time, rows)
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = day.AddDate(0, 0, i)
	}
	return &model.PriceTable{Dates: dates, Tickers: tickers, Columns: columns}
}

func TestNormalize_FirstRowIsExactly100(t *testing.T) {
	tests := []struct {
		name    string
		columns map[string][]float64
	}{
		{"single row", map[string][]float64{"ZS=F": {987.25}}},
		{"rising", map[string][]float64{"ZS=F": {1000, 1050, 1100}, "1210.TW": {50, 51, 53}}},
		{"falling", map[string][]float64{"ZS=F": {1000, 980, 950}, "1216.TW": {72.5, 71, 70.5}}},
		{"awkward base", map[string][]float64{"ZS=F": {3.33, 3.34, 3.35}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			norm, err := Normalize(tableFrom(tt.columns))
			require.NoError(t, err)
			for ticker, rebased := range norm.Columns {
				assert.Equal(t, 100.0, rebased[0], "ticker %s row 0", ticker)
				assert.Len(t, rebased, len(tt.columns[ticker]))
			}
		})
	}
}

func TestNormalize_RebasesAgainstFirstClose(t *testing.T) {
	norm, err := Normalize(tableFrom(map[string][]float64{"ZS=F": {1000, 1100, 900}}))
	require.NoError(t, err)
	got := norm.Columns["ZS=F"]
	assert.InDelta(t, 110.0, got[1], 1e-9)
	assert.InDelta(t, 90.0, got[2], 1e-9)
}

func TestNormalize_EmptyTable(t *testing.T) {
	_, err := Normalize(&model.PriceTable{Columns: map[string][]float64{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestNormalize_NonPositiveFirstClose(t *testing.T) {
	_, err := Normalize(tableFrom(map[string][]float64{"1219.TW": {0, 12.5}}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	table := tableFrom(map[string][]float64{"ZS=F": {1000, 1020}})
	_, err := Normalize(table)
	require.NoError(t, err)
	assert.Equal(t, []float64{1000, 1020}, table.Columns["ZS=F"])
}
