package compliance_test

import (
	"testing"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/compliance"
	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func budgetLine(code string, units, price float64) domain.ForecastLine {
	return domain.ForecastLine{
		Code:             code,
		Description:      "Product " + code,
		Supplier:         "Acme",
		UnitsToSell:      units,
		ProjectedRevenue: units * price,
	}
}

func sold(code string, date time.Time, qty, price float64) domain.Transaction {
	return domain.Transaction{
		Date:        date,
		Code:        code,
		Description: "Product " + code,
		Supplier:    "Acme",
		Type:        domain.MovementSale,
		Quantity:    -qty,
		UnitPrice:   price,
	}
}

func june(d int) time.Time { return time.Date(2024, time.June, d, 0, 0, 0, 0, time.UTC) }

func TestPeriod(t *testing.T) {
	start, end := compliance.Period(2024, time.February)
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), end)
}

func TestAnalyzeCauses(t *testing.T) {
	lines := []domain.ForecastLine{
		budgetLine("OUT", 100, 10),   // sells on few days
		budgetLine("PRICE", 100, 10), // sells every day at a higher price
		budgetLine("OVER", 100, 10),  // sells every day at the usual price
		budgetLine("UNDER", 10, 10),
		budgetLine("OK", 30, 10),
		budgetLine("NONE", 0, 10),
	}

	var sales []domain.Transaction
	sales = append(sales, sold("OUT", june(3), 20, 10), sold("OUT", june(4), 20, 10))
	for d := 1; d <= 30; d++ {
		sales = append(sales,
			sold("PRICE", june(d), 1, 12),
			sold("OVER", june(d), 1, 10),
			sold("OK", june(d), 1, 10),
		)
	}
	sales = append(sales, sold("UNDER", june(10), 20, 10))
	// Trailing history sets the reference price; the first row is outside the window.
	sales = append(sales,
		sold("PRICE", time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), 10, 1),
		sold("PRICE", time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC), 10, 10),
		sold("OVER", time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC), 10, 10),
	)

	result, err := compliance.NewAnalyzer(compliance.DefaultThresholds()).Analyze(lines, sales, 2024, time.June)
	require.NoError(t, err)
	assert.Equal(t, 30, result.DaysInPeriod)
	require.Len(t, result.Lines, 6)

	byCode := map[string]domain.ComplianceLine{}
	for _, l := range result.Lines {
		byCode[l.Code] = l
	}

	out := byCode["OUT"]
	assert.Equal(t, domain.CauseStockout, out.Cause)
	assert.Equal(t, 2, out.SellingDays)
	assert.InDelta(t, 40.0, out.CompliancePct, 1e-9)
	assert.Equal(t, "Increase purchase or improve replenishment", out.Recommendation)

	price := byCode["PRICE"]
	assert.Equal(t, domain.CausePriceTooHigh, price.Cause)
	assert.InDelta(t, 100.0, price.AvailabilityPct, 1e-9)
	assert.InDelta(t, 10.0, price.TrailingUnitPrice, 1e-9)
	assert.InDelta(t, 20.0, price.PriceDeviationPct, 1e-9)

	over := byCode["OVER"]
	assert.Equal(t, domain.CauseOverbudget, over.Cause)
	assert.Zero(t, over.PriceDeviationPct)
	assert.InDelta(t, 30.0, over.UnitsCompliancePct, 1e-9)

	assert.Equal(t, domain.CauseUnderbudget, byCode["UNDER"].Cause)
	assert.InDelta(t, 200.0, byCode["UNDER"].CompliancePct, 1e-9)

	assert.Equal(t, domain.CauseOnTarget, byCode["OK"].Cause)

	none := byCode["NONE"]
	assert.Zero(t, none.CompliancePct)
	assert.Equal(t, domain.CauseStockout, none.Cause)

	for i := 1; i < len(result.Lines); i++ {
		assert.LessOrEqual(t, result.Lines[i-1].Gap, result.Lines[i].Gap)
	}
	assert.Equal(t, "OVER", result.Lines[0].Code)

	assert.InDelta(t, 3400.0, result.BudgetRevenue, 1e-9)
	assert.InDelta(t, 400+360+300+200+300, result.ActualRevenue, 1e-9)
	assert.InDelta(t, result.ActualRevenue-result.BudgetRevenue, result.Gap, 1e-9)
	assert.Equal(t, 2, result.CauseCounts[domain.CauseStockout])
	assert.Equal(t, 1, result.CauseCounts[domain.CauseOnTarget])
}

func TestAnalyzeRequiresLines(t *testing.T) {
	_, err := compliance.NewAnalyzer(compliance.DefaultThresholds()).Analyze(nil, nil, 2024, time.June)
	assert.ErrorIs(t, err, domain.ErrNoData)
}
