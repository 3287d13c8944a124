package budget

import (
	"fmt"
	"math"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
)

const (
	// DefaultRotation is reported for products that never received stock.
	DefaultRotation = 0.5
	rotationWindow  = 7 * 24 * time.Hour

	trendBand     = 0.05
	risingFactor  = 1.05
	fallingFactor = 0.95
	minTrendPoint = 3
	recentMonths  = 3

	volatileCV        = 0.7
	volatilityPenalty = 0.9
	fastRotation      = 0.8
	fastRotationBoost = 1.1
	slowRotation      = 0.3
	slowRotationCut   = 0.8

	staleDays = 60

	weightTolerance = 0.01
	progressEvery   = 10
)

// Params tunes one budget run. A zero Reference means time.Now().
type Params struct {
	WeightAverage    float64
	WeightTrend      float64
	WeightRotation   float64
	Conservatism     float64
	BaselineRotation float64
	MinConservatism  float64
	MaxConservatism  float64
	Reference        time.Time
}

func DefaultParams() Params {
	return Params{
		WeightAverage:    0.50,
		WeightTrend:      0.30,
		WeightRotation:   0.20,
		Conservatism:     0.95,
		BaselineRotation: 0.65,
		MinConservatism:  0.80,
		MaxConservatism:  1.20,
	}
}

// Validate rejects values the synthesizer cannot work with. Weights that do
// not add up to one are allowed and reported by WeightWarning.
func (p Params) Validate() error {
	for name, w := range map[string]float64{
		"weight_average":  p.WeightAverage,
		"weight_trend":    p.WeightTrend,
		"weight_rotation": p.WeightRotation,
	} {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, name)
		}
	}
	if p.BaselineRotation <= 0 {
		return fmt.Errorf("%w: baseline rotation must be positive", domain.ErrInvalidInput)
	}
	if p.MaxConservatism > 0 && (p.Conservatism < p.MinConservatism || p.Conservatism > p.MaxConservatism) {
		return fmt.Errorf("%w: conservatism %.2f outside [%.2f, %.2f]",
			domain.ErrInvalidInput, p.Conservatism, p.MinConservatism, p.MaxConservatism)
	}
	return nil
}

// WeightSum is the total of the three blend weights.
func (p Params) WeightSum() float64 {
	return p.WeightAverage + p.WeightTrend + p.WeightRotation
}

// WeightWarning returns a message when the weights drift from 1.0.
func (p Params) WeightWarning() string {
	sum := p.WeightSum()
	if math.Abs(sum-1) <= weightTolerance {
		return ""
	}
	return fmt.Sprintf("forecast weights add up to %.2f instead of 1.00", sum)
}

func (p Params) reference() time.Time {
	if p.Reference.IsZero() {
		return time.Now()
	}
	return p.Reference
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
