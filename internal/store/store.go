package store

import "github.com/taichungmao-blip/soybean-monitor/internal/model"

// Store caches acquired upstream data so a run can survive a flaky feed.
// Only inputs are persisted (daily closes, monthly revenue); recommendations
// and reports never are, which keeps reruns idempotent.
type Store interface {
	PutDailyCloses(ticker string, candles []model.Candle) error
	// DailyCloses returns the cached column for a ticker, or nil when the
	// cache has nothing fresher than maxStaleDays.
	DailyCloses(ticker string, maxStaleDays int) ([]model.Candle, error)

	PutRevenueYoY(code, month string, yoyPct float64) error
	RevenueYoY(code, month string) (float64, bool, error)

	Close() error
}
