package budget

import (
	"math"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// Trend is the short-horizon projection for a monthly unit series.
type Trend struct {
	RecentAvg float64
	Projected float64
	Slope     float64
	Direction domain.TrendDirection
	Factor    float64
}

// RecentAverage is the mean of the last (up to) three points.
func RecentAverage(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	tail := series
	if len(tail) > recentMonths {
		tail = tail[len(tail)-recentMonths:]
	}
	return stat.Mean(tail, nil)
}

// EstimateTrend fits units = a + b·i over i = 0..N-1 and projects one step
// ahead. Short or degenerate series fall back to the recent average.
func EstimateTrend(series []float64) Trend {
	avg := RecentAverage(series)
	flat := Trend{RecentAvg: avg, Projected: avg, Direction: domain.TrendFlat, Factor: 1.0}
	if len(series) < minTrendPoint {
		return flat
	}

	xs := make([]float64, len(series))
	for i := range xs {
		xs[i] = float64(i)
	}
	alpha, beta := stat.LinearRegression(xs, series, nil, false)
	if !finite(alpha, beta) {
		return flat
	}

	t := Trend{
		RecentAvg: avg,
		Projected: math.Max(0, alpha+beta*float64(len(series))),
		Slope:     beta,
		Direction: domain.TrendFlat,
		Factor:    1.0,
	}
	switch {
	case beta > avg*trendBand:
		t.Direction, t.Factor = domain.TrendRising, risingFactor
	case beta < -avg*trendBand:
		t.Direction, t.Factor = domain.TrendFalling, fallingFactor
	}
	return t
}

// CoefficientOfVariation is the sample standard deviation over the mean.
// Series with fewer than two points or a non-positive mean yield 0.
func CoefficientOfVariation(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(series, nil)
	if mean <= 0 {
		return 0
	}
	return safeDiv(std, mean)
}
