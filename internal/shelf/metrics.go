package shelf

import (
	"sort"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
)

type supplyTotals struct {
	units       float64
	lastReceipt time.Time
}

// BuildMetrics aggregates sales per product and supply (receipts and inbound
// transfers) per product code, then derives rotation, share and rank.
func BuildMetrics(sales, supply []domain.Transaction, ref time.Time) []domain.ShelfMetrics {
	byKey := make(map[domain.ProductKey]*domain.ShelfMetrics)
	for _, t := range sales {
		if t.Type != domain.MovementSale {
			continue
		}
		key := domain.ProductKey{Code: t.Code, Description: t.Description, Supplier: t.Supplier}
		m, ok := byKey[key]
		if !ok {
			m = &domain.ShelfMetrics{ProductKey: key, FirstSale: t.Date, LastSale: t.Date}
			byKey[key] = m
		}
		m.Revenue += t.Revenue()
		m.Cost += t.Cost()
		m.UnitsSold += t.Units()
		m.Transactions++
		if t.Date.Before(m.FirstSale) {
			m.FirstSale = t.Date
		}
		if t.Date.After(m.LastSale) {
			m.LastSale = t.Date
		}
	}

	supplied := make(map[string]*supplyTotals)
	for _, t := range supply {
		if t.Type != domain.MovementReceipt && t.Type != domain.MovementTransferIn {
			continue
		}
		s, ok := supplied[t.Code]
		if !ok {
			s = &supplyTotals{}
			supplied[t.Code] = s
		}
		s.units += t.Units()
		if t.Date.After(s.lastReceipt) {
			s.lastReceipt = t.Date
		}
	}

	var totalRevenue float64
	metrics := make([]domain.ShelfMetrics, 0, len(byKey))
	for _, m := range byKey {
		m.Margin = m.Revenue - m.Cost
		m.MarginPct = safeDiv(m.Margin, m.Revenue) * 100
		m.DaysSinceSale = domain.DaysBetween(ref, m.LastSale)
		m.DaysSinceReceipt = domain.NoActivityDays
		if s, ok := supplied[m.Code]; ok {
			m.UnitsReceived = s.units
			m.LastReceipt = s.lastReceipt
			m.DaysSinceReceipt = domain.DaysBetween(ref, s.lastReceipt)
		}
		received := m.UnitsReceived
		if received == 0 {
			received = 1
		}
		m.Rotation = m.UnitsSold / received
		totalRevenue += m.Revenue
		metrics = append(metrics, *m)
	}

	for i := range metrics {
		metrics[i].SharePct = safeDiv(metrics[i].Revenue, totalRevenue) * 100
	}
	assignRanks(metrics)
	return metrics
}

// assignRanks orders by revenue descending and gives tied products the lowest
// shared rank (1, 2, 2, 4).
func assignRanks(metrics []domain.ShelfMetrics) {
	sort.SliceStable(metrics, func(i, j int) bool {
		if metrics[i].Revenue != metrics[j].Revenue {
			return metrics[i].Revenue > metrics[j].Revenue
		}
		return metrics[i].Code < metrics[j].Code
	})
	for i := range metrics {
		if i > 0 && metrics[i].Revenue == metrics[i-1].Revenue {
			metrics[i].Rank = metrics[i-1].Rank
			continue
		}
		metrics[i].Rank = i + 1
	}
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
