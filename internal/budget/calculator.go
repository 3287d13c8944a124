package budget

import (
	"math"
)

// Signals are the per-product inputs of the unit synthesizer.
type Signals struct {
	Trend    Trend
	Rotation float64
	CV       float64
}

// SynthesizeUnits blends the recent average, the trend projection and a
// rotation-adjusted average, then applies the trend factor, the volatility
// and rotation adjustments and the conservatism multiplier. The result is a
// whole, non-negative number of units.
func SynthesizeUnits(sig Signals, p Params) float64 {
	avg := sig.Trend.RecentAvg
	baseline := p.BaselineRotation
	if baseline <= 0 {
		baseline = DefaultParams().BaselineRotation
	}

	units := avg*p.WeightAverage +
		sig.Trend.Projected*p.WeightTrend +
		avg*(sig.Rotation/baseline)*p.WeightRotation

	units *= sig.Trend.Factor

	if sig.CV > volatileCV {
		units *= volatilityPenalty
	}

	switch {
	case sig.Rotation > fastRotation:
		units *= fastRotationBoost
	case sig.Rotation < slowRotation:
		units *= slowRotationCut
	}

	units *= p.Conservatism

	if !finite(units) {
		return 0
	}
	return math.Max(0, math.RoundToEven(units))
}
