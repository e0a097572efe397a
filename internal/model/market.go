package model

import "time"

// Candle is a single daily close observation.
type Candle struct {
	Date  time.Time
	Close float64
}

// PriceTable holds aligned daily closes for the commodity and every equity.
// Dates ascend at trading-day granularity; after alignment every column has a
// value for every date, and row 0 of every column is a real observation rather
// than a carried-forward one.
type PriceTable struct {
	Dates   []time.Time
	Tickers []string // commodity first, then equities in configured order
	Columns map[string][]float64
}

// Rows returns the number of trading days in the table.
func (t *PriceTable) Rows() int { return len(t.Dates) }

// Column returns the close series for a ticker, nil if the ticker is unknown.
func (t *PriceTable) Column(ticker string) []float64 { return t.Columns[ticker] }

// NormalizedTable is a PriceTable rebased so that every column starts at 100.
// It is recomputed on every run and never persisted.
type NormalizedTable struct {
	Dates   []time.Time
	Tickers []string
	Columns map[string][]float64
}

// Rows returns the number of trading days in the table.
func (t *NormalizedTable) Rows() int { return len(t.Dates) }

// Column returns the rebased series for a ticker, nil if the ticker is unknown.
func (t *NormalizedTable) Column(ticker string) []float64 { return t.Columns[ticker] }

// Revenue is one equity's revenue year-over-year observation.
// Known is false when the upstream feed had no usable data for the code.
type Revenue struct {
	YoYPct float64 `json:"yoy_pct"`
	Known  bool    `json:"known"`
}
