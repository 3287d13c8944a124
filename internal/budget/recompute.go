package budget

import (
	"math"
	"sort"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
)

// Recompute derives every money field of a line from UnitsToBuy, UnitCost and
// UnitPrice. It has no other inputs.
func Recompute(line domain.ForecastLine) domain.ForecastLine {
	units := line.UnitsToBuy
	line.PurchaseCost = units * line.UnitCost
	line.UnitsToSell = units
	line.ProjectedRevenue = units * line.UnitPrice
	line.UnitMargin = line.UnitPrice - line.UnitCost
	line.ProjectedMargin = line.ProjectedRevenue - line.PurchaseCost
	line.ProjectedMarginPct = safeDiv(line.ProjectedMargin, line.ProjectedRevenue) * 100
	return line
}

// WithUnits returns a copy of line with new units and recomputed money fields.
// Negative units are clamped to zero.
func WithUnits(line domain.ForecastLine, units float64) domain.ForecastLine {
	line.UnitsToBuy = math.Max(0, units)
	return Recompute(line)
}

// ApplyOverrides replaces UnitsToBuy for the codes present in overrides and
// returns the new lines together with the codes actually changed. The input
// slice is not modified.
func ApplyOverrides(lines []domain.ForecastLine, overrides map[string]float64) ([]domain.ForecastLine, []string) {
	out := make([]domain.ForecastLine, len(lines))
	var changed []string
	for i, line := range lines {
		units, ok := overrides[line.Code]
		if !ok || units == line.UnitsToBuy {
			out[i] = line
			continue
		}
		out[i] = WithUnits(line, units)
		changed = append(changed, line.Code)
	}
	sort.Strings(changed)
	return out, changed
}

// Adjust applies overrides and compares the totals before and after.
func Adjust(lines []domain.ForecastLine, overrides map[string]float64) domain.BudgetAdjustment {
	adjusted, changed := ApplyOverrides(lines, overrides)
	original := Totals(lines)
	after := Totals(adjusted)
	return domain.BudgetAdjustment{
		Lines:           adjusted,
		Original:        original,
		Adjusted:        after,
		UnitsDelta:      after.Units - original.Units,
		PurchaseDelta:   after.PurchaseCost - original.PurchaseCost,
		RevenueDelta:    after.Revenue - original.Revenue,
		OverriddenCodes: changed,
	}
}

// Totals sums the headline figures of a set of lines.
func Totals(lines []domain.ForecastLine) domain.BudgetTotals {
	var t domain.BudgetTotals
	for _, l := range lines {
		t.Units += l.UnitsToBuy
		t.PurchaseCost += l.PurchaseCost
		t.Revenue += l.ProjectedRevenue
		t.Margin += l.ProjectedMargin
		if l.UnitsToBuy > 0 {
			t.ActiveProducts++
		}
		switch l.Category {
		case domain.CategoryStar:
			t.Stars++
		case domain.CategoryDiscard:
			t.Discards++
		}
	}
	t.MarginPct = safeDiv(t.Margin, t.Revenue) * 100
	return t
}

// Alerts counts slow movers and the capital they would tie up, plus products
// that have not sold for more than sixty days.
func Alerts(lines []domain.ForecastLine) domain.RiskAlerts {
	var a domain.RiskAlerts
	for _, l := range lines {
		if l.Rotation < slowRotation {
			a.LowRotationCount++
			a.CapitalAtRisk += l.PurchaseCost
		}
		if l.DaysSinceLastSale > staleDays {
			a.StaleCount++
		}
	}
	return a
}
