package shelf_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/andresuchdata/budget-engine/backend-go/internal/shelf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ref = time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)

func tx(code string, typ domain.MovementType, daysAgo int, qty, cost, price float64) domain.Transaction {
	return domain.Transaction{
		Date:        ref.AddDate(0, 0, -daysAgo),
		Store:       "Centro",
		Code:        code,
		Description: "Item " + code,
		Supplier:    "Acme",
		Type:        typ,
		Quantity:    qty,
		UnitCost:    cost,
		UnitPrice:   price,
	}
}

func TestBuildMetrics(t *testing.T) {
	sales := []domain.Transaction{
		tx("A", domain.MovementSale, 10, -10, 6, 10),
		tx("A", domain.MovementSale, 2, -10, 6, 10),
		tx("B", domain.MovementSale, 5, -20, 8, 10),
		tx("C", domain.MovementSale, 50, -5, 2, 20),
		tx("C", domain.MovementReceipt, 50, 100, 2, 20),
	}
	supply := []domain.Transaction{
		tx("A", domain.MovementReceipt, 20, 15, 6, 10),
		tx("A", domain.MovementTransferIn, 12, 5, 6, 10),
		tx("B", domain.MovementTransferOut, 3, -40, 8, 10),
	}

	metrics := shelf.BuildMetrics(sales, supply, ref)
	require.Len(t, metrics, 3)

	byCode := map[string]domain.ShelfMetrics{}
	for _, m := range metrics {
		byCode[m.Code] = m
	}

	a := byCode["A"]
	assert.Equal(t, 200.0, a.Revenue)
	assert.InDelta(t, 40.0, a.MarginPct, 1e-9)
	assert.Equal(t, 20.0, a.UnitsSold)
	assert.Equal(t, 20.0, a.UnitsReceived)
	assert.Equal(t, 1.0, a.Rotation)
	assert.Equal(t, 2, a.Transactions)
	assert.Equal(t, 2, a.DaysSinceSale)
	assert.Equal(t, 12, a.DaysSinceReceipt)

	b := byCode["B"]
	assert.Equal(t, 20.0, b.Rotation, "no supply divides by one")
	assert.Equal(t, domain.NoActivityDays, b.DaysSinceReceipt)

	// A and B tie on revenue.
	assert.Equal(t, 1, a.Rank)
	assert.Equal(t, 1, b.Rank)
	assert.Equal(t, 3, byCode["C"].Rank)
	assert.InDelta(t, 40.0, a.SharePct, 1e-9)
	assert.InDelta(t, 100.0, a.SharePct+b.SharePct+byCode["C"].SharePct, 1e-9)
}

func TestClassifyOrdersByActionThenRevenue(t *testing.T) {
	var metrics []domain.ShelfMetrics
	for i := 0; i < 50; i++ {
		metrics = append(metrics, domain.ShelfMetrics{
			ProductKey: domain.ProductKey{Code: fmt.Sprintf("P%02d", i)},
			Revenue:    float64(25000 - i*100),
			MarginPct:  35.102040816,
			UnitsSold:  100,
			Rotation:   1,
			Rank:       i + 4,
		})
	}
	metrics[0].Rank = 3
	metrics[0].Revenue = 60000
	metrics[0].MarginPct = 30
	metrics[1].Revenue = 1000
	metrics[1].MarginPct = -3
	metrics[1].UnitsSold = 3
	metrics[1].Rank = 50

	result := shelf.NewClassifier(shelf.DefaultThresholds()).Classify(metrics)
	require.Len(t, result.Lines, 50)
	assert.Less(t, 30.0, result.AvgMargin)

	first := result.Lines[0]
	assert.Equal(t, "P00", first.Code)
	assert.Equal(t, domain.ShelfExpand, first.Action)
	assert.Equal(t, 3, first.Facings)
	assert.Equal(t, "#22d3ee", first.Color)

	last := result.Lines[len(result.Lines)-1]
	assert.Equal(t, "P01", last.Code)
	assert.Equal(t, domain.ShelfRemove, last.Action)
	assert.Zero(t, last.Facings)

	for i := 1; i < len(result.Lines); i++ {
		prev, cur := result.Lines[i-1], result.Lines[i]
		if prev.Action == cur.Action {
			assert.GreaterOrEqual(t, prev.Revenue, cur.Revenue)
		} else {
			assert.Less(t, prev.Action.SortOrder(), cur.Action.SortOrder())
		}
	}

	total := 0
	for _, n := range result.Counts {
		total += n
	}
	assert.Equal(t, 50, total)
	assert.Equal(t, 1, result.Counts[domain.ShelfRemove])
	assert.Equal(t, 1000.0, result.RemoveRevenue)
}

func TestClassifyEmpty(t *testing.T) {
	result := shelf.NewClassifier(shelf.DefaultThresholds()).Classify(nil)
	assert.Empty(t, result.Lines)
	assert.NotNil(t, result.Counts)
}
