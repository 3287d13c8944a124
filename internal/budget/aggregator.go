package budget

import (
	"sort"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
)

// History is the aggregated view of the selected sales and receipts.
type History struct {
	Summaries []domain.ProductSummary
	Monthly   map[string][]domain.MonthlyPoint
	Receipts  map[string][]domain.ReceiptEvent
	Sales     map[string][]domain.Transaction
}

// MaxRevenue is the largest total revenue among all products.
func (h *History) MaxRevenue() float64 {
	var top float64
	for _, s := range h.Summaries {
		if s.Revenue > top {
			top = s.Revenue
		}
	}
	return top
}

// UnitSeries returns the chronological monthly unit totals for a product.
func (h *History) UnitSeries(code string) []float64 {
	points := h.Monthly[code]
	series := make([]float64, len(points))
	for i, p := range points {
		series[i] = p.Units
	}
	return series
}

type monthKey struct {
	code  string
	month time.Time
}

// Aggregate rolls sale lines up per product and per month and groups receipt
// lines per product code. Lines of other movement types are ignored, so the
// caller may pass an unfiltered slice.
func Aggregate(sales, receipts []domain.Transaction, ref time.Time) *History {
	h := &History{
		Monthly:  make(map[string][]domain.MonthlyPoint),
		Receipts: make(map[string][]domain.ReceiptEvent),
		Sales:    make(map[string][]domain.Transaction),
	}

	byKey := make(map[domain.ProductKey]*domain.ProductSummary)
	byMonth := make(map[monthKey]*domain.MonthlyPoint)

	for _, t := range sales {
		if t.Type != domain.MovementSale {
			continue
		}
		key := domain.ProductKey{Code: t.Code, Description: t.Description, Supplier: t.Supplier}
		s, ok := byKey[key]
		if !ok {
			s = &domain.ProductSummary{ProductKey: key, FirstSale: t.Date, LastSale: t.Date}
			byKey[key] = s
		}
		s.Revenue += t.Revenue()
		s.Cost += t.Cost()
		s.Units += t.Units()
		s.Transactions++
		if t.Date.Before(s.FirstSale) {
			s.FirstSale = t.Date
		}
		if t.Date.After(s.LastSale) {
			s.LastSale = t.Date
		}

		mk := monthKey{code: t.Code, month: domain.MonthStart(t.Date)}
		p, ok := byMonth[mk]
		if !ok {
			p = &domain.MonthlyPoint{Month: mk.month}
			byMonth[mk] = p
		}
		p.Units += t.Units()
		p.Revenue += t.Revenue()

		h.Sales[t.Code] = append(h.Sales[t.Code], t)
	}

	for _, s := range byKey {
		s.Margin = s.Revenue - s.Cost
		s.MarginPct = safeDiv(s.Margin, s.Revenue) * 100
		s.UnitCost = safeDiv(s.Cost, s.Units)
		s.UnitPrice = safeDiv(s.Revenue, s.Units)
		s.DaysSinceLastSale = domain.DaysBetween(ref, s.LastSale)
		h.Summaries = append(h.Summaries, *s)
	}
	sort.Slice(h.Summaries, func(i, j int) bool {
		a, b := h.Summaries[i].ProductKey, h.Summaries[j].ProductKey
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		if a.Description != b.Description {
			return a.Description < b.Description
		}
		return a.Supplier < b.Supplier
	})

	for mk, p := range byMonth {
		h.Monthly[mk.code] = append(h.Monthly[mk.code], *p)
	}
	for code := range h.Monthly {
		points := h.Monthly[code]
		sort.Slice(points, func(i, j int) bool { return points[i].Month.Before(points[j].Month) })
	}

	for _, t := range receipts {
		if t.Type != domain.MovementReceipt {
			continue
		}
		h.Receipts[t.Code] = append(h.Receipts[t.Code], domain.ReceiptEvent{Date: t.Date, Quantity: t.Quantity})
	}
	for code := range h.Receipts {
		events := h.Receipts[code]
		sort.Slice(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	}

	return h
}
