package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/config"
	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/andresuchdata/budget-engine/backend-go/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBudgetService(repo *memoryRepo) *service.BudgetService {
	return service.NewBudgetService(repo, nil, config.ForecastConfig{}, config.ComplianceConfig{}).WithClock(clock)
}

func TestBudget(t *testing.T) {
	repo := &memoryRepo{movements: history()}

	result, err := newBudgetService(repo).Budget(context.Background(), domain.BudgetRequest{})
	require.NoError(t, err)
	require.Len(t, result.Lines, 2)

	assert.Equal(t, "A", result.Lines[0].Code)
	assert.Equal(t, domain.CategoryStar, result.Lines[0].Category)
	assert.Equal(t, 111.0, result.Lines[0].UnitsToBuy)
	assert.Equal(t, "B", result.Lines[1].Code)
	assert.Equal(t, 87, result.Lines[1].DaysSinceLastSale)
	assert.Equal(t, 116.0, result.Totals.Units)
	assert.Equal(t, 2, repo.calls, "sales and receipts are fetched separately")
}

func TestBudgetRespectsDateRange(t *testing.T) {
	repo := &memoryRepo{movements: history()}

	result, err := newBudgetService(repo).Budget(context.Background(), domain.BudgetRequest{From: "2024-02-01", To: "2024-03-31"})
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)
	assert.Equal(t, "A", result.Lines[0].Code)
}

func TestBudgetRejectsBadInput(t *testing.T) {
	svc := newBudgetService(&memoryRepo{movements: history()})
	ctx := context.Background()
	tooHigh := 1.5

	tests := []domain.BudgetRequest{
		{Show: "favourites"},
		{Conservatism: &tooHigh},
		{From: "01/02/2024"},
		{From: "2024-03-01", To: "2024-02-01"},
	}
	for _, req := range tests {
		_, err := svc.Budget(ctx, req)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "%+v", req)
	}
}

func TestBudgetNoData(t *testing.T) {
	_, err := newBudgetService(&memoryRepo{}).Budget(context.Background(), domain.BudgetRequest{})
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestBudgetRepositoryError(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := newBudgetService(&memoryRepo{err: boom}).Budget(context.Background(), domain.BudgetRequest{})
	assert.ErrorIs(t, err, boom)
}

func TestBudgetServedFromCache(t *testing.T) {
	repo := &memoryRepo{movements: history()}
	c := &memoryCache{}
	svc := service.NewBudgetService(repo, c, config.ForecastConfig{}, config.ComplianceConfig{}).WithClock(clock)

	first, err := svc.Budget(context.Background(), domain.BudgetRequest{})
	require.NoError(t, err)
	second, err := svc.Budget(context.Background(), domain.BudgetRequest{})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 2, repo.calls)
}

func TestRecompute(t *testing.T) {
	svc := newBudgetService(&memoryRepo{movements: history()})

	adj, err := svc.Recompute(context.Background(), domain.OverrideRequest{
		Overrides: map[string]float64{"A": 50, "B": 5, "ZZ": 3},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, adj.OverriddenCodes)
	assert.Equal(t, 116.0, adj.Original.Units)
	assert.Equal(t, 55.0, adj.Adjusted.Units)
	assert.Equal(t, -61.0, adj.UnitsDelta)
	assert.Equal(t, -610.0, adj.RevenueDelta)
	assert.Equal(t, 500.0, adj.Lines[0].ProjectedRevenue)

	_, err = svc.Recompute(context.Background(), domain.OverrideRequest{Overrides: map[string]float64{"A": -1}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCompliance(t *testing.T) {
	movements := history()
	for d := 2; d <= 30; d++ {
		movements = append(movements, move("A", domain.MovementSale, at(2024, time.April, d), -4, 6, 10))
	}
	svc := newBudgetService(&memoryRepo{movements: movements})

	report, err := svc.Compliance(context.Background(), domain.OverrideRequest{
		Budget: domain.BudgetRequest{TargetYear: 2024, TargetMonth: 4},
	})
	require.NoError(t, err)

	assert.Equal(t, 30, report.DaysInPeriod)
	require.Len(t, report.Lines, 2)

	// B has no sales in April and sorts first with the largest shortfall.
	b := report.Lines[0]
	assert.Equal(t, "B", b.Code)
	assert.Equal(t, domain.CauseStockout, b.Cause)

	a := report.Lines[1]
	assert.Equal(t, 1160.0, a.ActualRevenue)
	assert.Equal(t, 1110.0, a.BudgetRevenue)
	assert.Equal(t, 29, a.SellingDays)
	assert.InDelta(t, 10.0, a.TrailingUnitPrice, 1e-9)
	assert.Equal(t, domain.CauseOnTarget, a.Cause)

	withOverride, err := svc.Compliance(context.Background(), domain.OverrideRequest{
		Budget:    domain.BudgetRequest{TargetYear: 2024, TargetMonth: 4},
		Overrides: map[string]float64{"A": 200},
	})
	require.NoError(t, err)
	for _, l := range withOverride.Lines {
		if l.Code == "A" {
			assert.Equal(t, domain.CauseOverbudget, l.Cause)
		}
	}
}

func TestComplianceRejectsBadMonth(t *testing.T) {
	svc := newBudgetService(&memoryRepo{movements: history()})
	_, err := svc.Compliance(context.Background(), domain.OverrideRequest{
		Budget: domain.BudgetRequest{TargetYear: 2024, TargetMonth: 13},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
