package calculator

import (
	"errors"
	"fmt"
)

// TrendPct computes the percentage change of the last close versus the close
// window rows earlier. When the series has window or fewer rows, row 0 is used
// as the reference instead: the trend covers a longer, diluted window rather
// than failing on an out-of-range index.
func TrendPct(closes []float64, window int) (float64, error) {
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}
	if len(closes) == 0 {
		return 0, fmt.Errorf("trend: empty series: %w", ErrInsufficientData)
	}

	last := len(closes) - 1
	ref := 0
	if len(closes) > window {
		ref = last - window
	}

	refClose := closes[ref]
	if refClose <= 0 {
		return 0, fmt.Errorf("trend: reference close %.4f at row %d: %w", refClose, ref, ErrInvalidPrice)
	}
	return (closes[last] - refClose) / refClose * 100.0, nil
}
