package budget

import (
	"math"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
)

// ScoreInputs are the figures a product is scored on. ShortHistory marks a
// series of fewer than two months; its spread is undefined, so it earns no
// stability points.
type ScoreInputs struct {
	Revenue      float64
	MaxRevenue   float64
	MarginPct    float64
	Rotation     float64
	CV           float64
	ShortHistory bool
}

// Score returns 0..100: 40 points for revenue relative to the best seller,
// 30 for margin (capped at 40%), 20 for rotation and 10 for stability.
func Score(in ScoreInputs) float64 {
	revenue := 0.0
	if in.MaxRevenue > 0 {
		revenue = math.Min(in.Revenue/in.MaxRevenue, 1) * 40
	}

	margin := 0.0
	if in.MarginPct > 0 {
		margin = math.Min(in.MarginPct/40, 1) * 30
	}

	rotation := math.Min(in.Rotation, 1) * 20
	stability := 0.0
	if !in.ShortHistory {
		stability = math.Max(0, 1-math.Min(in.CV, 1)) * 10
	}

	return revenue + margin + rotation + stability
}

type categoryRule struct {
	category domain.Category
	matches  func(score float64) bool
	action   func(daysSinceLastSale int) string
}

func fixedAction(action string) func(int) string {
	return func(int) string { return action }
}

// Evaluated top to bottom; the last rule always matches.
var categoryRules = []categoryRule{
	{
		category: domain.CategoryStar,
		matches:  func(score float64) bool { return score > 75 },
		action:   fixedAction(domain.ActionIncrease),
	},
	{
		category: domain.CategoryKeep,
		matches:  func(score float64) bool { return score > 50 },
		action:   fixedAction(domain.ActionMaintain),
	},
	{
		category: domain.CategoryReview,
		matches:  func(score float64) bool { return score > 25 },
		action:   fixedAction(domain.ActionReview),
	},
	{
		category: domain.CategoryDiscard,
		matches:  func(float64) bool { return true },
		action: func(days int) string {
			if days > staleDays {
				return domain.ActionDiscontinue
			}
			return domain.ActionEvaluateForRemoval
		},
	},
}

// Classify maps a score to its category and action.
func Classify(score float64, daysSinceLastSale int) (domain.Category, string) {
	for _, r := range categoryRules {
		if r.matches(score) {
			return r.category, r.action(daysSinceLastSale)
		}
	}
	return domain.CategoryDiscard, domain.ActionEvaluateForRemoval
}
