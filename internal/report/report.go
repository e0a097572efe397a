package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/taichungmao-blip/soybean-monitor/internal/calculator"
	"github.com/taichungmao-blip/soybean-monitor/internal/model"
	"github.com/taichungmao-blip/soybean-monitor/internal/strategy"
)

// Params carries the configuration slice the builder needs.
type Params struct {
	CommodityTicker string
	EquityTickers   []string
	TickerNames     map[string]string
	LookbackDays    int
	WindowDays      int
}

func (p Params) name(ticker string) string {
	if n, ok := p.TickerNames[ticker]; ok {
		return n
	}
	return ticker
}

// Build runs normalization, trend, spread, and classification over the price
// table and assembles one assessment per configured equity, in configured
// order. It carries no state between invocations: same table, revenues, and
// params always produce the same assessments (RunID is stamped by the caller).
//
// Error policy: an empty table or a broken commodity column fails the whole
// report; a broken equity column only skips that equity.
func Build(table *model.PriceTable, revenues map[string]model.Revenue, p Params) (*model.Report, error) {
	norm, err := calculator.Normalize(table)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	commodityCol := table.Column(p.CommodityTicker)
	if commodityCol == nil {
		return nil, fmt.Errorf("build report: no commodity column %s: %w",
			p.CommodityTicker, calculator.ErrInsufficientData)
	}
	commodityTrend, err := calculator.TrendPct(commodityCol, p.WindowDays)
	if err != nil {
		return nil, fmt.Errorf("build report: commodity trend: %w", err)
	}

	r := &model.Report{
		GeneratedAt:  time.Now().UTC(),
		LookbackDays: p.LookbackDays,
		WindowDays:   p.WindowDays,
		Commodity: model.CommoditySummary{
			Ticker:     p.CommodityTicker,
			Name:       p.name(p.CommodityTicker),
			TrendPct:   commodityTrend,
			LastClose:  commodityCol[len(commodityCol)-1],
			CostStatus: strategy.CostStatus(commodityTrend),
		},
	}

	for _, eq := range p.EquityTickers {
		col := table.Column(eq)
		if col == nil {
			r.Skipped = append(r.Skipped, model.SkippedEquity{
				Ticker: eq, Name: p.name(eq), Reason: "no price data",
			})
			continue
		}

		trend, err := calculator.TrendPct(col, p.WindowDays)
		if err != nil {
			if errors.Is(err, calculator.ErrInvalidPrice) {
				r.Skipped = append(r.Skipped, model.SkippedEquity{
					Ticker: eq, Name: p.name(eq), Reason: err.Error(),
				})
				continue
			}
			return nil, fmt.Errorf("build report: trend %s: %w", eq, err)
		}

		spread, err := calculator.Spread(norm, p.CommodityTicker, eq)
		if err != nil {
			return nil, fmt.Errorf("build report: spread %s: %w", eq, err)
		}

		rev := revenues[eq] // zero value: unknown -> YoY 0.0, the documented neutral default

		rec := strategy.Classify(strategy.Inputs{
			EquityTrendPct:    trend,
			CommodityTrendPct: commodityTrend,
			Spread:            spread,
			RevenueYoYPct:     rev.YoYPct,
		})

		r.Equities = append(r.Equities, model.EquityAssessment{
			Ticker:         eq,
			Name:           p.name(eq),
			TrendPct:       trend,
			Spread:         spread,
			RevenueYoYPct:  rev.YoYPct,
			RevenueKnown:   rev.Known,
			Recommendation: rec,
		})
	}

	return r, nil
}
