package model

// Category is the primary classification of one equity.
type Category string

const (
	CategoryWarningDivergence   Category = "WARNING_DIVERGENCE"
	CategoryDualEngineBullish   Category = "DUAL_ENGINE_BULLISH"
	CategoryWatchMispriced      Category = "WATCH_MISPRICED"
	CategoryDeclineRisk         Category = "DECLINE_RISK"
	CategoryPotentialTurnaround Category = "POTENTIAL_TURNAROUND"
	CategoryNeutralWait         Category = "NEUTRAL_WAIT"
	CategoryPricingPower        Category = "PRICING_POWER"
	CategoryDoubleSqueeze       Category = "DOUBLE_SQUEEZE"
)

// Qualifier is an optional secondary note appended to a recommendation.
// It never changes the primary category.
type Qualifier string

const (
	QualifierNone         Qualifier = ""
	QualifierOverextended Qualifier = "OVEREXTENDED"
	QualifierGoldenEntry  Qualifier = "GOLDEN_ENTRY"
)

// Recommendation is the classifier output for one equity.
// Created once per equity per run; never mutated; never persisted.
type Recommendation struct {
	Category       Category  `json:"category"`
	HeadlineIcon   string    `json:"headline_icon"`
	HeadlineText   string    `json:"headline_text"`
	Qualifier      Qualifier `json:"qualifier,omitempty"`
	QualifierNote  string    `json:"qualifier_note,omitempty"`
	CostStatus     string    `json:"cost_status"`
	MetricsSummary string    `json:"metrics_summary"`
}
