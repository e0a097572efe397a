package strategy

import (
	"fmt"

	"github.com/taichungmao-blip/soybean-monitor/internal/model"
)

// Inputs is the 4-tuple the classifier consumes. All values are percentages
// except Spread, which is a rebased-performance gap in points.
type Inputs struct {
	EquityTrendPct    float64
	CommodityTrendPct float64
	Spread            float64
	RevenueYoYPct     float64
}

// costFavorable: a falling input cost is favorable to margin.
func (in Inputs) costFavorable() bool { return in.CommodityTrendPct < 0 }

// revenueFavorable: strictly positive growth; 0.0 (including the unknown-data
// default) is neutral, not favorable.
func (in Inputs) revenueFavorable() bool { return in.RevenueYoYPct > 0 }

type rule struct {
	Category model.Category
	Match    func(Inputs) bool
}

// rules is the classification decision table, scanned in order with the first
// match winning. The ordering is load-bearing: the divergence rule outranks
// every cost-based read because price is assumed to lead reported revenue,
// and the cost-favorable rules outrank the cost-rising ones. All threshold
// comparisons are strict so that boundary values fall through to later rules.
var rules = []rule{
	{model.CategoryWarningDivergence, func(in Inputs) bool {
		return in.revenueFavorable() && in.EquityTrendPct < -4.0
	}},
	{model.CategoryDualEngineBullish, func(in Inputs) bool {
		return in.costFavorable() && in.revenueFavorable() && in.EquityTrendPct > -2.0
	}},
	{model.CategoryWatchMispriced, func(in Inputs) bool {
		return in.costFavorable() && in.revenueFavorable()
	}},
	{model.CategoryDeclineRisk, func(in Inputs) bool {
		return in.costFavorable() && in.RevenueYoYPct < -5.0
	}},
	{model.CategoryPotentialTurnaround, func(in Inputs) bool {
		return in.costFavorable() && in.Spread < -5.0
	}},
	{model.CategoryNeutralWait, func(in Inputs) bool {
		return in.costFavorable()
	}},
	{model.CategoryPricingPower, func(in Inputs) bool {
		return !in.costFavorable() && in.revenueFavorable() && in.EquityTrendPct > 0
	}},
}

// defaultCategory applies when no rule matches: input cost rising with no
// revenue or price support.
var defaultCategory = model.CategoryDoubleSqueeze

// classifyCategory scans the decision table and returns the first match.
func classifyCategory(in Inputs) model.Category {
	for _, r := range rules {
		if r.Match(in) {
			return r.Category
		}
	}
	return defaultCategory
}

// qualify computes the secondary note. It is independent of the primary
// category and never changes it.
func qualify(in Inputs) model.Qualifier {
	switch {
	case in.Spread > 15.0:
		return model.QualifierOverextended
	case in.Spread < -10.0 && in.costFavorable() && in.RevenueYoYPct > -3.0:
		return model.QualifierGoldenEntry
	default:
		return model.QualifierNone
	}
}

// display holds the operator-facing strings for one category.
type display struct {
	Icon  string
	Label string
	Text  string
}

var displays = map[model.Category]display{
	model.CategoryWarningDivergence:   {"⚠️", "背離警訊", "營收強勁但股價急跌，市場可能提前反映營收尚未顯現的風險"},
	model.CategoryDualEngineBullish:   {"🚀", "雙引擎看多", "成本下降且營收成長，股價持穩或上揚"},
	model.CategoryWatchMispriced:      {"👀", "錯殺觀察", "基本面有利但股價疲弱，可能遭到錯殺"},
	model.CategoryDeclineRisk:         {"🚨", "衰退風險", "成本面有利但營收明顯衰退，建議避開"},
	model.CategoryPotentialTurnaround: {"🌱", "轉機醞釀", "營收持平，成本優勢尚未反映在股價上"},
	model.CategoryNeutralWait:         {"⏳", "中性觀望", "等待營收確認後再行動"},
	model.CategoryPricingPower:        {"💪", "轉嫁有力", "成本上升但營收與股價齊揚，轉嫁成功"},
	model.CategoryDoubleSqueeze:       {"🔻", "雙重擠壓", "成本上升且缺乏營收支撐，風險偏高"},
}

var qualifierNotes = map[model.Qualifier]string{
	model.QualifierNone:         "",
	model.QualifierOverextended: "📈 乖離過大，不宜追高",
	model.QualifierGoldenEntry:  "💎 黃金買點：超跌且成本面有利",
}

const (
	costFallingText = "成本下降"
	costRisingText  = "成本上升"
)

// CostStatus returns the cost-status label for a commodity trend.
func CostStatus(commodityTrendPct float64) string {
	if commodityTrendPct < 0 {
		return costFallingText
	}
	return costRisingText
}

// CategoryLabel returns the short display name of a category.
func CategoryLabel(c model.Category) string { return displays[c].Label }

// Classify maps the four inputs to a recommendation. It is a pure function:
// no state is read or written, and every finite input produces a result.
func Classify(in Inputs) model.Recommendation {
	cat := classifyCategory(in)
	q := qualify(in)
	disp := displays[cat]

	return model.Recommendation{
		Category:      cat,
		HeadlineIcon:  disp.Icon,
		HeadlineText:  disp.Text,
		Qualifier:     q,
		QualifierNote: qualifierNotes[q],
		CostStatus:    CostStatus(in.CommodityTrendPct),
		MetricsSummary: fmt.Sprintf("成本 %+.1f%% | 營收YoY %+.1f%% | 乖離 %+.2f",
			in.CommodityTrendPct, in.RevenueYoYPct, in.Spread),
	}
}
