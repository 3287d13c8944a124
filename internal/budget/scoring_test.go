package budget_test

import (
	"testing"

	"github.com/andresuchdata/budget-engine/backend-go/internal/budget"
	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		in   budget.ScoreInputs
		want float64
	}{
		{
			name: "perfect product",
			in:   budget.ScoreInputs{Revenue: 1000, MaxRevenue: 1000, MarginPct: 40, Rotation: 1, CV: 0},
			want: 100,
		},
		{
			name: "caps above the ceilings",
			in:   budget.ScoreInputs{Revenue: 1000, MaxRevenue: 1000, MarginPct: 80, Rotation: 3, CV: 0},
			want: 100,
		},
		{
			name: "zero max revenue scores no revenue points",
			in:   budget.ScoreInputs{MarginPct: 20, Rotation: 0.5, CV: 0.5},
			want: 15 + 10 + 5,
		},
		{
			name: "negative margin scores nothing",
			in:   budget.ScoreInputs{Revenue: 500, MaxRevenue: 1000, MarginPct: -10, Rotation: 0, CV: 2},
			want: 20,
		},
		{
			name: "single month earns no stability",
			in:   budget.ScoreInputs{Revenue: 1000, MaxRevenue: 1000, MarginPct: 40, Rotation: 1, CV: 0, ShortHistory: true},
			want: 90,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, budget.Score(tt.in), 1e-9)
		})
	}
}

func TestClassifyThresholds(t *testing.T) {
	tests := []struct {
		score    float64
		days     int
		category domain.Category
		action   string
	}{
		{score: 100, category: domain.CategoryStar, action: domain.ActionIncrease},
		{score: 75.01, category: domain.CategoryStar, action: domain.ActionIncrease},
		{score: 75, category: domain.CategoryKeep, action: domain.ActionMaintain},
		{score: 50.5, category: domain.CategoryKeep, action: domain.ActionMaintain},
		{score: 50, category: domain.CategoryReview, action: domain.ActionReview},
		{score: 25.1, category: domain.CategoryReview, action: domain.ActionReview},
		{score: 25, days: 61, category: domain.CategoryDiscard, action: domain.ActionDiscontinue},
		{score: 0, days: 60, category: domain.CategoryDiscard, action: domain.ActionEvaluateForRemoval},
	}

	for _, tt := range tests {
		category, action := budget.Classify(tt.score, tt.days)
		assert.Equal(t, tt.category, category, "score %.2f", tt.score)
		assert.Equal(t, tt.action, action, "score %.2f", tt.score)
	}
}

func TestClassifyPartitionsEveryScore(t *testing.T) {
	for s := 0.0; s <= 100; s += 0.25 {
		category, _ := budget.Classify(s, 0)
		assert.Contains(t,
			[]domain.Category{domain.CategoryStar, domain.CategoryKeep, domain.CategoryReview, domain.CategoryDiscard},
			category)
	}
}
