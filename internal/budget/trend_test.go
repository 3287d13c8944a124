package budget_test

import (
	"testing"

	"github.com/andresuchdata/budget-engine/backend-go/internal/budget"
	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestEstimateTrend(t *testing.T) {
	tests := []struct {
		name      string
		series    []float64
		avg       float64
		projected float64
		direction domain.TrendDirection
		factor    float64
	}{
		{
			name:      "rising series projects one step ahead",
			series:    []float64{100, 110, 120},
			avg:       110,
			projected: 130,
			direction: domain.TrendRising,
			factor:    1.05,
		},
		{
			name:      "falling series",
			series:    []float64{120, 110, 100},
			avg:       110,
			projected: 90,
			direction: domain.TrendFalling,
			factor:    0.95,
		},
		{
			name:      "slope inside the band is flat",
			series:    []float64{100, 101, 100},
			avg:       100.333333,
			projected: 100.333333,
			direction: domain.TrendFlat,
			factor:    1.0,
		},
		{
			name:      "projection is floored at zero",
			series:    []float64{30, 10, 0},
			avg:       13.333333,
			projected: 0,
			direction: domain.TrendFalling,
			factor:    0.95,
		},
		{
			name:      "two points fall back to the recent average",
			series:    []float64{50, 70},
			avg:       60,
			projected: 60,
			direction: domain.TrendFlat,
			factor:    1.0,
		},
		{
			name:      "empty series",
			series:    nil,
			avg:       0,
			projected: 0,
			direction: domain.TrendFlat,
			factor:    1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := budget.EstimateTrend(tt.series)
			assert.InDelta(t, tt.avg, got.RecentAvg, 1e-6)
			assert.InDelta(t, tt.projected, got.Projected, 1e-6)
			assert.Equal(t, tt.direction, got.Direction)
			assert.Equal(t, tt.factor, got.Factor)
		})
	}
}

func TestRecentAverageUsesLastThreeMonths(t *testing.T) {
	assert.InDelta(t, 20.0, budget.RecentAverage([]float64{1000, 10, 20, 30}), 1e-9)
	assert.InDelta(t, 5.0, budget.RecentAverage([]float64{5}), 1e-9)
}

func TestCoefficientOfVariation(t *testing.T) {
	assert.InDelta(t, 10.0/110.0, budget.CoefficientOfVariation([]float64{100, 110, 120}), 1e-9)
	assert.Zero(t, budget.CoefficientOfVariation([]float64{42}))
	assert.Zero(t, budget.CoefficientOfVariation([]float64{0, 0, 0}))
	assert.Zero(t, budget.CoefficientOfVariation(nil))
}
