package budget_test

import (
	"testing"

	"github.com/andresuchdata/budget-engine/backend-go/internal/budget"
	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(code string, units, cost, price float64) domain.ForecastLine {
	return budget.Recompute(domain.ForecastLine{Code: code, UnitsToBuy: units, UnitCost: cost, UnitPrice: price})
}

func TestRecompute(t *testing.T) {
	l := line("A", 10, 6, 10)

	assert.Equal(t, 60.0, l.PurchaseCost)
	assert.Equal(t, 10.0, l.UnitsToSell)
	assert.Equal(t, 100.0, l.ProjectedRevenue)
	assert.Equal(t, 4.0, l.UnitMargin)
	assert.Equal(t, 40.0, l.ProjectedMargin)
	assert.InDelta(t, 40.0, l.ProjectedMarginPct, 1e-9)

	zero := line("B", 0, 6, 10)
	assert.Zero(t, zero.ProjectedMarginPct)
	assert.Equal(t, 4.0, zero.UnitMargin)
}

func TestWithUnitsMatchesFreshRecompute(t *testing.T) {
	original := line("A", 10, 6, 10)
	edited := budget.WithUnits(original, 25)

	assert.Equal(t, line("A", 25, 6, 10), edited)
	assert.Equal(t, 10.0, original.UnitsToBuy)
	assert.Zero(t, budget.WithUnits(original, -5).UnitsToBuy)
}

func TestAdjust(t *testing.T) {
	lines := []domain.ForecastLine{line("A", 10, 6, 10), line("B", 4, 2, 5)}

	adj := budget.Adjust(lines, map[string]float64{"B": 8, "Z": 3})

	require.Len(t, adj.Lines, 2)
	assert.Equal(t, []string{"B"}, adj.OverriddenCodes)
	assert.Equal(t, 4.0, lines[1].UnitsToBuy, "input must not change")
	assert.Equal(t, 14.0, adj.Original.Units)
	assert.Equal(t, 18.0, adj.Adjusted.Units)
	assert.Equal(t, 4.0, adj.UnitsDelta)
	assert.Equal(t, 8.0, adj.PurchaseDelta)
	assert.Equal(t, 20.0, adj.RevenueDelta)
}

func TestTotalsAndAlerts(t *testing.T) {
	a := line("A", 10, 6, 10)
	a.Category = domain.CategoryStar
	a.Rotation = 0.9
	b := line("B", 0, 2, 5)
	b.Category = domain.CategoryDiscard
	b.Rotation = 0.1
	b.DaysSinceLastSale = 90
	c := line("C", 5, 4, 8)
	c.Rotation = 0.2

	totals := budget.Totals([]domain.ForecastLine{a, b, c})
	assert.Equal(t, 15.0, totals.Units)
	assert.Equal(t, 80.0, totals.PurchaseCost)
	assert.Equal(t, 140.0, totals.Revenue)
	assert.InDelta(t, 60.0/140.0*100, totals.MarginPct, 1e-9)
	assert.Equal(t, 2, totals.ActiveProducts)
	assert.Equal(t, 1, totals.Stars)
	assert.Equal(t, 1, totals.Discards)

	alerts := budget.Alerts([]domain.ForecastLine{a, b, c})
	assert.Equal(t, 2, alerts.LowRotationCount)
	assert.Equal(t, 20.0, alerts.CapitalAtRisk)
	assert.Equal(t, 1, alerts.StaleCount)
}
