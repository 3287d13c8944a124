package compliance

import (
	"sort"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
)

// Thresholds drive the cause classification. Percentages are 0-100.
type Thresholds struct {
	LowCompliance     float64
	HighCompliance    float64
	LowAvailability   float64
	PriceDeviation    float64
	TrailingPriceDays int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		LowCompliance:     80,
		HighCompliance:    110,
		LowAvailability:   60,
		PriceDeviation:    15,
		TrailingPriceDays: 90,
	}
}

// Period returns the first and last day of a calendar month.
func Period(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end
}

// TrailingStart is the first day of the price history window for a period.
func (th Thresholds) TrailingStart(periodStart time.Time) time.Time {
	return periodStart.AddDate(0, 0, -th.TrailingPriceDays)
}

type salesTotals struct {
	revenue float64
	units   float64
	days    map[string]struct{}
}

func (s *salesTotals) unitPrice() float64 {
	if s == nil || s.units == 0 {
		return 0
	}
	return s.revenue / s.units
}

func totalsByProduct(sales []domain.Transaction, from, to time.Time, trackDays bool) map[domain.ProductKey]*salesTotals {
	out := make(map[domain.ProductKey]*salesTotals)
	for _, t := range sales {
		if t.Type != domain.MovementSale || t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		key := domain.ProductKey{Code: t.Code, Description: t.Description, Supplier: t.Supplier}
		s, ok := out[key]
		if !ok {
			s = &salesTotals{}
			if trackDays {
				s.days = make(map[string]struct{})
			}
			out[key] = s
		}
		s.revenue += t.Revenue()
		s.units += t.Units()
		if trackDays {
			s.days[t.Date.Format(domain.DateLayout)] = struct{}{}
		}
	}
	return out
}

// Analyzer compares budget lines against the actual sales of a month and
// explains each gap.
type Analyzer struct {
	thresholds Thresholds
}

func NewAnalyzer(th Thresholds) *Analyzer {
	return &Analyzer{thresholds: th}
}

// Analyze joins budget lines with sales on code, description and supplier.
// sales may span more than the period: movements before periodStart inside
// the trailing window feed the reference price, the rest are ignored.
func (a *Analyzer) Analyze(lines []domain.ForecastLine, sales []domain.Transaction, year int, month time.Month) (*domain.ComplianceResult, error) {
	if len(lines) == 0 {
		return nil, domain.ErrNoData
	}

	start, end := Period(year, month)
	days := int(end.Sub(start).Hours()/24) + 1
	actual := totalsByProduct(sales, start, domain.EndOfDay(end), true)
	trailing := totalsByProduct(sales, a.thresholds.TrailingStart(start), start.Add(-time.Nanosecond), false)

	result := &domain.ComplianceResult{
		PeriodStart:  start,
		PeriodEnd:    end,
		DaysInPeriod: days,
		Lines:        make([]domain.ComplianceLine, 0, len(lines)),
		CauseCounts:  make(map[domain.ComplianceCause]int, len(domain.ComplianceCauses)),
	}

	for _, l := range lines {
		key := domain.ProductKey{Code: l.Code, Description: l.Description, Supplier: l.Supplier}
		cl := domain.ComplianceLine{
			ProductKey:    key,
			BudgetRevenue: l.ProjectedRevenue,
			BudgetUnits:   l.UnitsToSell,
		}
		if s, ok := actual[key]; ok {
			cl.ActualRevenue = s.revenue
			cl.ActualUnits = s.units
			cl.SellingDays = len(s.days)
			cl.CurrentUnitPrice = s.unitPrice()
		}
		cl.TrailingUnitPrice = trailing[key].unitPrice()

		cl.Gap = cl.ActualRevenue - cl.BudgetRevenue
		cl.CompliancePct = pct(cl.ActualRevenue, cl.BudgetRevenue)
		cl.UnitsCompliancePct = pct(cl.ActualUnits, cl.BudgetUnits)
		cl.AvailabilityPct = pct(float64(cl.SellingDays), float64(days))
		cl.PriceDeviationPct = pct(cl.CurrentUnitPrice-cl.TrailingUnitPrice, cl.TrailingUnitPrice)
		cl.Cause = a.cause(cl)
		cl.Recommendation = cl.Cause.Recommendation()

		result.BudgetRevenue += cl.BudgetRevenue
		result.ActualRevenue += cl.ActualRevenue
		result.CauseCounts[cl.Cause]++
		result.Lines = append(result.Lines, cl)
	}

	result.Gap = result.ActualRevenue - result.BudgetRevenue
	result.CompliancePct = pct(result.ActualRevenue, result.BudgetRevenue)

	// Largest shortfall first.
	sort.SliceStable(result.Lines, func(i, j int) bool {
		return result.Lines[i].Gap < result.Lines[j].Gap
	})
	return result, nil
}

func (a *Analyzer) cause(cl domain.ComplianceLine) domain.ComplianceCause {
	th := a.thresholds
	switch {
	case cl.CompliancePct < th.LowCompliance && cl.AvailabilityPct < th.LowAvailability:
		return domain.CauseStockout
	case cl.CompliancePct < th.LowCompliance && cl.PriceDeviationPct > th.PriceDeviation:
		return domain.CausePriceTooHigh
	case cl.CompliancePct < th.LowCompliance:
		return domain.CauseOverbudget
	case cl.CompliancePct > th.HighCompliance:
		return domain.CauseUnderbudget
	default:
		return domain.CauseOnTarget
	}
}

func pct(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den * 100
}
