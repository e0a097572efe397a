package calculator

import (
	"fmt"

	"github.com/taichungmao-blip/soybean-monitor/internal/model"
)

// Spread returns the equity's last rebased value minus the commodity's last
// rebased value: the relative-performance gap accumulated since the start of
// the full lookback window. The trend calculator uses the shorter strategy
// window; the two baselines answer different questions and must not be
// unified.
func Spread(norm *model.NormalizedTable, commodityTicker, equityTicker string) (float64, error) {
	if norm.Rows() == 0 {
		return 0, fmt.Errorf("spread: empty table: %w", ErrInsufficientData)
	}
	commodity := norm.Column(commodityTicker)
	if commodity == nil {
		return 0, fmt.Errorf("spread: no column for commodity %s: %w", commodityTicker, ErrInsufficientData)
	}
	equity := norm.Column(equityTicker)
	if equity == nil {
		return 0, fmt.Errorf("spread: no column for equity %s: %w", equityTicker, ErrInsufficientData)
	}
	last := norm.Rows() - 1
	return equity[last] - commodity[last], nil
}
