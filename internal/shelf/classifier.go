package shelf

import (
	"fmt"
	"sort"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
)

// Thresholds are the monetary and percentage cut-offs of the shelf rules.
type Thresholds struct {
	TopRank             int
	TopShare            float64
	HighRevenue         float64
	ExcellentMargin     float64
	ExcellentRevenue    float64
	SolidRevenue        float64
	SolidMargin         float64
	DeadStockReceived   float64
	DeadStockSold       float64
	DeadStockWindowDays int
	StaleDays           int
	StaleUnits          float64
	StaleRevenue        float64
	MinimalRevenue      float64
	LowRevenue          float64
	LowRotationRatio    float64
	WeakRevenue         float64
	WeakMargin          float64
	WeakUnits           float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		TopRank:             5,
		TopShare:            0.2,
		HighRevenue:         100000,
		ExcellentMargin:     30,
		ExcellentRevenue:    30000,
		SolidRevenue:        50000,
		SolidMargin:         25,
		DeadStockReceived:   30,
		DeadStockSold:       5,
		DeadStockWindowDays: 60,
		StaleDays:           45,
		StaleUnits:          10,
		StaleRevenue:        10000,
		MinimalRevenue:      5000,
		LowRevenue:          20000,
		LowRotationRatio:    0.3,
		WeakRevenue:         15000,
		WeakMargin:          10,
		WeakUnits:           30,
	}
}

// batch holds the statistics every rule may compare against.
type batch struct {
	products    int
	avgRotation float64
	avgMargin   float64
}

type rule struct {
	action domain.ShelfAction
	match  func(m domain.ShelfMetrics, b batch, th Thresholds) bool
	reason func(m domain.ShelfMetrics) string
}

func because(reason string) func(domain.ShelfMetrics) string {
	return func(domain.ShelfMetrics) string { return reason }
}

// First match wins. Products that sell well or earn a good margin are
// protected from the reduce and remove rules by the maintain rule above them.
var rules = []rule{
	{
		action: domain.ShelfHighlight,
		match: func(m domain.ShelfMetrics, b batch, th Thresholds) bool {
			return m.Rank <= th.TopRank && m.MarginPct >= b.avgMargin
		},
		reason: because("Top 5 by revenue with above-average margin"),
	},
	{
		action: domain.ShelfExpand,
		match: func(m domain.ShelfMetrics, b batch, th Thresholds) bool {
			return float64(m.Rank) <= float64(b.products)*th.TopShare && m.MarginPct > 0
		},
		reason: because("Top 20% by revenue"),
	},
	{
		action: domain.ShelfExpand,
		match: func(m domain.ShelfMetrics, _ batch, th Thresholds) bool {
			return m.Revenue > th.HighRevenue && m.MarginPct > 0
		},
		reason: because("High revenue"),
	},
	{
		action: domain.ShelfExpand,
		match: func(m domain.ShelfMetrics, _ batch, th Thresholds) bool {
			return m.MarginPct >= th.ExcellentMargin && m.Revenue > th.ExcellentRevenue
		},
		reason: because("Excellent margin"),
	},
	{
		action: domain.ShelfMaintain,
		match: func(m domain.ShelfMetrics, _ batch, th Thresholds) bool {
			return m.Revenue > th.SolidRevenue || m.MarginPct >= th.SolidMargin
		},
		reason: because("Good performance"),
	},
	{
		action: domain.ShelfRemove,
		match: func(m domain.ShelfMetrics, _ batch, th Thresholds) bool {
			return m.UnitsReceived > th.DeadStockReceived &&
				m.UnitsSold < th.DeadStockSold &&
				m.DaysSinceReceipt < th.DeadStockWindowDays
		},
		reason: because("Received stock but does not sell"),
	},
	{
		action: domain.ShelfRemove,
		match: func(m domain.ShelfMetrics, _ batch, th Thresholds) bool {
			return m.DaysSinceSale > th.StaleDays && m.UnitsSold < th.StaleUnits && m.Revenue < th.StaleRevenue
		},
		reason: func(m domain.ShelfMetrics) string {
			return fmt.Sprintf("No sales for %d days", m.DaysSinceSale)
		},
	},
	{
		action: domain.ShelfRemove,
		match: func(m domain.ShelfMetrics, _ batch, th Thresholds) bool {
			return m.Revenue < th.MinimalRevenue && m.MarginPct < 0
		},
		reason: because("Minimal revenue with negative margin"),
	},
	{
		action: domain.ShelfReduce,
		match: func(m domain.ShelfMetrics, b batch, th Thresholds) bool {
			return m.Revenue < th.LowRevenue && m.Rotation < b.avgRotation*th.LowRotationRatio
		},
		reason: because("Low revenue and low rotation"),
	},
	{
		action: domain.ShelfReduce,
		match: func(m domain.ShelfMetrics, _ batch, th Thresholds) bool {
			return m.Revenue < th.WeakRevenue && m.MarginPct < th.WeakMargin && m.UnitsSold < th.WeakUnits
		},
		reason: because("Weak overall performance"),
	},
}

const fallbackReason = "Normal performance"

// Classifier assigns a shelf action to every product of a batch.
type Classifier struct {
	thresholds Thresholds
}

func NewClassifier(th Thresholds) *Classifier {
	return &Classifier{thresholds: th}
}

// Classify evaluates the rules against each product and returns the lines
// ordered by action and then by revenue, descending.
func (c *Classifier) Classify(metrics []domain.ShelfMetrics) *domain.ShelfResult {
	b := batch{products: len(metrics)}
	result := &domain.ShelfResult{Counts: make(map[domain.ShelfAction]int, len(domain.ShelfActions))}
	if len(metrics) == 0 {
		return result
	}

	for _, m := range metrics {
		b.avgRotation += m.Rotation
		b.avgMargin += m.MarginPct
		result.TotalRevenue += m.Revenue
	}
	b.avgRotation /= float64(len(metrics))
	b.avgMargin /= float64(len(metrics))
	result.AvgRotation = b.avgRotation
	result.AvgMargin = b.avgMargin

	lines := make([]domain.ShelfLine, 0, len(metrics))
	for _, m := range metrics {
		action, reason := c.decide(m, b)
		lines = append(lines, domain.ShelfLine{
			ShelfMetrics: m,
			Action:       action,
			ActionLabel:  action.Label(),
			Reason:       reason,
			Color:        action.Color(),
			Facings:      action.Facings(),
		})
		result.Counts[action]++

		switch action {
		case domain.ShelfHighlight, domain.ShelfExpand:
			result.GrowCount++
			result.GrowRevenue += m.Revenue
		case domain.ShelfReduce:
			result.ShrinkCount++
		case domain.ShelfRemove:
			result.ShrinkCount++
			result.RemoveRevenue += m.Revenue
		}
	}

	sort.SliceStable(lines, func(i, j int) bool {
		oi, oj := lines[i].Action.SortOrder(), lines[j].Action.SortOrder()
		if oi != oj {
			return oi < oj
		}
		return lines[i].Revenue > lines[j].Revenue
	})
	result.Lines = lines
	return result
}

func (c *Classifier) decide(m domain.ShelfMetrics, b batch) (domain.ShelfAction, string) {
	for _, r := range rules {
		if r.match(m, b, c.thresholds) {
			return r.action, r.reason(m)
		}
	}
	return domain.ShelfMaintain, fallbackReason
}
