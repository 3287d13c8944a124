package export

import (
	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// Table is a flat, sheet-shaped view of a result. Cell values are string,
// int or decimal.Decimal.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]interface{}

	// Fills optionally holds a background color per row ("" for none).
	Fills []string
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func ratio(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(3)
}

// ForecastTable lays out a purchase budget.
func ForecastTable(lines []domain.ForecastLine) *Table {
	t := &Table{
		Name: "Budget",
		Columns: []string{
			"Category", "Code", "Description", "Supplier", "Avg units (3m)", "Trend",
			"Rotation", "CV", "Margin %", "Unit cost", "Unit price", "Score",
			"Units to buy", "Purchase cost", "Units to sell", "Projected revenue",
			"Unit margin", "Projected margin", "Projected margin %", "Action",
			"Days since last sale",
		},
	}
	for _, l := range lines {
		t.Rows = append(t.Rows, []interface{}{
			l.CategoryLabel, l.Code, l.Description, l.Supplier, money(l.RecentAvgUnits), l.TrendIcon,
			ratio(l.Rotation), ratio(l.CV), money(l.MarginPct), money(l.UnitCost), money(l.UnitPrice), money(l.Score),
			int(l.UnitsToBuy), money(l.PurchaseCost), int(l.UnitsToSell), money(l.ProjectedRevenue),
			money(l.UnitMargin), money(l.ProjectedMargin), money(l.ProjectedMarginPct), l.Action,
			l.DaysSinceLastSale,
		})
	}
	return t
}

// ShelfTable lays out a shelf plan; rows are tinted with the action color.
func ShelfTable(lines []domain.ShelfLine) *Table {
	t := &Table{
		Name: "Shelf",
		Columns: []string{
			"Action", "Code", "Description", "Supplier", "Revenue", "Margin %",
			"Units sold", "Units received", "Rotation", "Share %", "Rank",
			"Days since sale", "Days since receipt", "Facings", "Reason",
		},
	}
	for _, l := range lines {
		t.Rows = append(t.Rows, []interface{}{
			l.ActionLabel, l.Code, l.Description, l.Supplier, money(l.Revenue), money(l.MarginPct),
			money(l.UnitsSold), money(l.UnitsReceived), ratio(l.Rotation), money(l.SharePct), l.Rank,
			l.DaysSinceSale, l.DaysSinceReceipt, l.Facings, l.Reason,
		})
		t.Fills = append(t.Fills, l.Color)
	}
	return t
}

// ComplianceTable lays out a budget compliance diagnosis.
func ComplianceTable(lines []domain.ComplianceLine) *Table {
	t := &Table{
		Name: "Compliance",
		Columns: []string{
			"Code", "Description", "Supplier", "Budget revenue", "Actual revenue", "Gap",
			"Compliance %", "Budget units", "Actual units", "Units compliance %",
			"Selling days", "Availability %", "Unit price", "Trailing unit price",
			"Price deviation %", "Cause", "Recommendation",
		},
	}
	for _, l := range lines {
		t.Rows = append(t.Rows, []interface{}{
			l.Code, l.Description, l.Supplier, money(l.BudgetRevenue), money(l.ActualRevenue), money(l.Gap),
			money(l.CompliancePct), money(l.BudgetUnits), money(l.ActualUnits), money(l.UnitsCompliancePct),
			l.SellingDays, money(l.AvailabilityPct), money(l.CurrentUnitPrice), money(l.TrailingUnitPrice),
			money(l.PriceDeviationPct), string(l.Cause), l.Recommendation,
		})
	}
	return t
}
