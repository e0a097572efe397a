package revenue

import (
	"context"
	"strings"
)

// Source supplies one equity's latest revenue year-over-year percentage.
// The boolean reports whether the upstream had usable data; the caller maps
// absent to the neutral 0.0 default, never the source itself.
type Source interface {
	RevenueYoY(ctx context.Context, code string) (float64, bool, error)
}

// CodeFromTicker strips the exchange suffix from a ticker: "1210.TW" -> "1210".
func CodeFromTicker(ticker string) string {
	if i := strings.IndexByte(ticker, '.'); i > 0 {
		return ticker[:i]
	}
	return ticker
}

// MockSource returns canned values for tests and dry runs.
type MockSource struct {
	Values map[string]float64
	Errs   map[string]error
}

func (m *MockSource) RevenueYoY(_ context.Context, code string) (float64, bool, error) {
	if err, ok := m.Errs[code]; ok {
		return 0, false, err
	}
	v, ok := m.Values[code]
	return v, ok, nil
}
