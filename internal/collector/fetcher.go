package collector

import (
	"context"
	"errors"

	"github.com/taichungmao-blip/soybean-monitor/internal/model"
)

// ErrAcquisition marks an unreachable or empty upstream price feed. A run
// never proceeds on a silently partial table.
var ErrAcquisition = errors.New("price acquisition failed")

// Fetcher fetches daily closing prices for one ticker.
type Fetcher interface {
	FetchDailyCloses(ctx context.Context, ticker string, lookbackDays int) ([]model.Candle, error)
	Name() string
}
