package domain

import "time"

// ComplianceCause explains a gap between budget and actual sales.
type ComplianceCause string

const (
	CauseStockout     ComplianceCause = "stockout"
	CausePriceTooHigh ComplianceCause = "price_too_high"
	CauseOverbudget   ComplianceCause = "overbudget"
	CauseUnderbudget  ComplianceCause = "underbudget"
	CauseOnTarget     ComplianceCause = "on_target"
)

var causeRecommendations = map[ComplianceCause]string{
	CauseStockout:     "Increase purchase or improve replenishment",
	CausePriceTooHigh: "Review price or run a promotion",
	CauseOverbudget:   "Reduce budget",
	CauseUnderbudget:  "Increase budget",
	CauseOnTarget:     "Maintain",
}

// ComplianceCauses lists causes in report order.
var ComplianceCauses = []ComplianceCause{CauseStockout, CausePriceTooHigh, CauseOverbudget, CauseUnderbudget, CauseOnTarget}

// Recommendation returns the fixed follow-up for a cause.
func (c ComplianceCause) Recommendation() string {
	return causeRecommendations[c]
}

// ComplianceLine compares one budget line against the sales of the period.
type ComplianceLine struct {
	ProductKey
	BudgetRevenue      float64         `json:"budget_revenue"`
	BudgetUnits        float64         `json:"budget_units"`
	ActualRevenue      float64         `json:"actual_revenue"`
	ActualUnits        float64         `json:"actual_units"`
	Gap                float64         `json:"gap"`
	CompliancePct      float64         `json:"compliance_pct"`
	UnitsCompliancePct float64         `json:"units_compliance_pct"`
	SellingDays        int             `json:"selling_days"`
	AvailabilityPct    float64         `json:"availability_pct"`
	CurrentUnitPrice   float64         `json:"current_unit_price"`
	TrailingUnitPrice  float64         `json:"trailing_unit_price"`
	PriceDeviationPct  float64         `json:"price_deviation_pct"`
	Cause              ComplianceCause `json:"cause"`
	Recommendation     string          `json:"recommendation"`
}

// ComplianceResult is the diagnostic report for one period.
type ComplianceResult struct {
	PeriodStart   time.Time               `json:"period_start"`
	PeriodEnd     time.Time               `json:"period_end"`
	DaysInPeriod  int                     `json:"days_in_period"`
	Lines         []ComplianceLine        `json:"lines"`
	BudgetRevenue float64                 `json:"budget_revenue"`
	ActualRevenue float64                 `json:"actual_revenue"`
	CompliancePct float64                 `json:"compliance_pct"`
	Gap           float64                 `json:"gap"`
	CauseCounts   map[ComplianceCause]int `json:"cause_counts"`
}
