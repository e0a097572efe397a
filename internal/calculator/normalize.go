package calculator

import (
	"errors"
	"fmt"

	"github.com/taichungmao-blip/soybean-monitor/internal/model"
)

// ErrInsufficientData marks an empty or too-short series. It is fatal to the
// whole report: no partial output is produced.
var ErrInsufficientData = errors.New("insufficient data")

// ErrInvalidPrice marks a non-positive reference price. It is fatal for one
// equity's assessment only; the remaining equities continue.
var ErrInvalidPrice = errors.New("invalid price")

// Normalize rebases every column of the table so that row 0 equals exactly
// 100.0, for relative-performance comparison. The input is not mutated.
func Normalize(t *model.PriceTable) (*model.NormalizedTable, error) {
	if t.Rows() == 0 {
		return nil, fmt.Errorf("normalize: empty price table: %w", ErrInsufficientData)
	}

	norm := &model.NormalizedTable{
		Dates:   t.Dates,
		Tickers: t.Tickers,
		Columns: make(map[string][]float64, len(t.Columns)),
	}
	for ticker, closes := range t.Columns {
		base := closes[0]
		if base <= 0 {
			return nil, fmt.Errorf("normalize %s: first close %.4f: %w", ticker, base, ErrInvalidPrice)
		}
		rebased := make([]float64, len(closes))
		for i, c := range closes {
			rebased[i] = c / base * 100.0
		}
		norm.Columns[ticker] = rebased
	}
	return norm, nil
}
