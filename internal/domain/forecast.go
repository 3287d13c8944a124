package domain

// ForecastLine is one product row of a purchase budget. UnitsToBuy is the
// only field a planner may edit; the money fields derive from it.
type ForecastLine struct {
	Category           Category       `json:"category"`
	CategoryLabel      string         `json:"category_label"`
	Code               string         `json:"code"`
	Description        string         `json:"description"`
	Supplier           string         `json:"supplier"`
	RecentAvgUnits     float64        `json:"recent_avg_units"`
	Trend              TrendDirection `json:"trend"`
	TrendIcon          string         `json:"trend_icon"`
	Rotation           float64        `json:"rotation"`
	CV                 float64        `json:"cv"`
	MarginPct          float64        `json:"margin_pct"`
	UnitCost           float64        `json:"unit_cost"`
	UnitPrice          float64        `json:"unit_price"`
	Score              float64        `json:"score"`
	UnitsToBuy         float64        `json:"units_to_buy"`
	PurchaseCost       float64        `json:"purchase_cost"`
	UnitsToSell        float64        `json:"units_to_sell"`
	ProjectedRevenue   float64        `json:"projected_revenue"`
	UnitMargin         float64        `json:"unit_margin"`
	ProjectedMargin    float64        `json:"projected_margin"`
	ProjectedMarginPct float64        `json:"projected_margin_pct"`
	Action             string         `json:"action"`
	DaysSinceLastSale  int            `json:"days_since_last_sale"`
}

// BudgetTotals are the headline figures of a budget.
type BudgetTotals struct {
	Units          float64 `json:"units"`
	PurchaseCost   float64 `json:"purchase_cost"`
	Revenue        float64 `json:"revenue"`
	Margin         float64 `json:"margin"`
	MarginPct      float64 `json:"margin_pct"`
	ActiveProducts int     `json:"active_products"`
	Stars          int     `json:"stars"`
	Discards       int     `json:"discards"`
}

// RiskAlerts flags capital tied up in slow products.
type RiskAlerts struct {
	LowRotationCount int     `json:"low_rotation_count"`
	CapitalAtRisk    float64 `json:"capital_at_risk"`
	StaleCount       int     `json:"stale_count"`
}

// BudgetResult is the output of one budget run.
type BudgetResult struct {
	Lines    []ForecastLine `json:"lines"`
	Totals   BudgetTotals   `json:"totals"`
	Alerts   RiskAlerts     `json:"alerts"`
	Skipped  int            `json:"skipped"`
	Warnings []string       `json:"warnings,omitempty"`
}

// BudgetAdjustment compares a budget before and after manual overrides.
type BudgetAdjustment struct {
	Lines           []ForecastLine `json:"lines"`
	Original        BudgetTotals   `json:"original"`
	Adjusted        BudgetTotals   `json:"adjusted"`
	UnitsDelta      float64        `json:"units_delta"`
	PurchaseDelta   float64        `json:"purchase_delta"`
	RevenueDelta    float64        `json:"revenue_delta"`
	OverriddenCodes []string       `json:"overridden_codes"`
}
