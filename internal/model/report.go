package model

import "time"

// CommoditySummary describes the commodity leg of a report.
type CommoditySummary struct {
	Ticker     string  `json:"ticker"`
	Name       string  `json:"name"`
	TrendPct   float64 `json:"trend_pct"`
	LastClose  float64 `json:"last_close"`
	CostStatus string  `json:"cost_status"`
}

// EquityAssessment pairs one equity's recommendation with the raw metrics
// that produced it.
type EquityAssessment struct {
	Ticker         string         `json:"ticker"`
	Name           string         `json:"name"`
	TrendPct       float64        `json:"trend_pct"`
	Spread         float64        `json:"spread"`
	RevenueYoYPct  float64        `json:"revenue_yoy_pct"`
	RevenueKnown   bool           `json:"revenue_known"`
	Recommendation Recommendation `json:"recommendation"`
}

// SkippedEquity records an equity dropped from a run, with the reason.
// A skip never aborts the run; the remaining equities are still assessed.
type SkippedEquity struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Report is the full output of one monitoring run. Equities keep the
// configured ticker order.
type Report struct {
	RunID        string             `json:"run_id"`
	GeneratedAt  time.Time          `json:"generated_at"`
	LookbackDays int                `json:"lookback_days"`
	WindowDays   int                `json:"window_days"`
	Commodity    CommoditySummary   `json:"commodity"`
	Equities     []EquityAssessment `json:"equities"`
	Skipped      []SkippedEquity    `json:"skipped,omitempty"`
}
