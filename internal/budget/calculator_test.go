package budget_test

import (
	"testing"

	"github.com/andresuchdata/budget-engine/backend-go/internal/budget"
	"github.com/stretchr/testify/assert"
)

func neutralParams() budget.Params {
	p := budget.DefaultParams()
	p.Conservatism = 1.0
	return p
}

func TestSynthesizeUnitsWorkedExample(t *testing.T) {
	trend := budget.EstimateTrend([]float64{100, 110, 120})
	cv := budget.CoefficientOfVariation([]float64{100, 110, 120})

	got := budget.SynthesizeUnits(budget.Signals{Trend: trend, Rotation: 0.65, CV: cv}, neutralParams())

	assert.Equal(t, 122.0, got)
}

func TestSynthesizeUnitsAdjustments(t *testing.T) {
	flat := budget.EstimateTrend([]float64{100, 100, 100})

	tests := []struct {
		name     string
		rotation float64
		cv       float64
		want     float64
	}{
		{name: "baseline rotation", rotation: 0.65, want: 100},
		{name: "fast rotation boost", rotation: 0.9, want: 118},
		{name: "slow rotation cut", rotation: 0.2, want: 69},
		{name: "volatile demand", rotation: 0.65, cv: 0.8, want: 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := budget.SynthesizeUnits(budget.Signals{Trend: flat, Rotation: tt.rotation, CV: tt.cv}, neutralParams())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSynthesizeUnitsNeverNegative(t *testing.T) {
	p := neutralParams()
	p.WeightAverage = -1
	p.WeightTrend = 0
	p.WeightRotation = 0

	got := budget.SynthesizeUnits(budget.Signals{Trend: budget.EstimateTrend([]float64{100, 100, 100}), Rotation: 0.5}, p)
	assert.Zero(t, got)
}

func TestSynthesizeUnitsConservatism(t *testing.T) {
	flat := budget.EstimateTrend([]float64{100, 100, 100})
	p := neutralParams()
	p.Conservatism = 0.8

	assert.Equal(t, 80.0, budget.SynthesizeUnits(budget.Signals{Trend: flat, Rotation: 0.65}, p))
}

func TestParamsValidate(t *testing.T) {
	p := budget.DefaultParams()
	assert.NoError(t, p.Validate())
	assert.Empty(t, p.WeightWarning())

	p.Conservatism = 1.5
	assert.Error(t, p.Validate())

	p = budget.DefaultParams()
	p.WeightTrend = 0.5
	assert.NoError(t, p.Validate())
	assert.Contains(t, p.WeightWarning(), "1.20")

	p.WeightRotation = -0.1
	assert.Error(t, p.Validate())
}
