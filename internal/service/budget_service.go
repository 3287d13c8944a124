package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/budget"
	"github.com/andresuchdata/budget-engine/backend-go/internal/cache"
	"github.com/andresuchdata/budget-engine/backend-go/internal/compliance"
	"github.com/andresuchdata/budget-engine/backend-go/internal/config"
	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/andresuchdata/budget-engine/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
)

type BudgetService struct {
	repo       repository.MovementRepository
	cache      cache.ResultCache
	params     budget.Params
	months     int
	thresholds compliance.Thresholds
	now        func() time.Time
}

func NewBudgetService(repo repository.MovementRepository, cacheImpl cache.ResultCache, forecast config.ForecastConfig, comp config.ComplianceConfig) *BudgetService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopResultCache()
	}
	return &BudgetService{
		repo:       repo,
		cache:      cacheImpl,
		params:     BudgetParams(forecast),
		months:     historyMonths(forecast),
		thresholds: ComplianceThresholds(comp),
		now:        time.Now,
	}
}

// WithClock replaces the reference clock, mainly for tests and back-dated runs.
func (s *BudgetService) WithClock(now func() time.Time) *BudgetService {
	s.now = now
	return s
}

func (s *BudgetService) reference() time.Time {
	return startOfDay(s.now())
}

// Budget computes the purchase budget for the request's selection.
func (s *BudgetService) Budget(ctx context.Context, req domain.BudgetRequest) (*domain.BudgetResult, error) {
	ref := s.reference()

	if result, ok, err := s.cache.GetBudget(ctx, req, ref); err == nil && ok {
		return result, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("budget: cache get failed")
	}

	result, err := s.compute(ctx, req, ref)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetBudget(ctx, req, ref, result); err != nil {
		log.Warn().Err(err).Msg("budget: cache set failed")
	}
	return result, nil
}

func (s *BudgetService) compute(ctx context.Context, req domain.BudgetRequest, ref time.Time) (*domain.BudgetResult, error) {
	params, show, err := s.paramsFor(req, ref)
	if err != nil {
		return nil, err
	}
	sel, err := newSelection(req.Stores, req.Supplier, req.Search, req.From, req.To, ref, s.months)
	if err != nil {
		return nil, err
	}

	sales, receipts, err := fetchPair(ctx, s.repo,
		sel.filter(domain.MovementSale),
		sel.filter(domain.MovementReceipt),
	)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("sales", len(sales)).
		Int("receipts", len(receipts)).
		Str("from", sel.from.Format(domain.DateLayout)).
		Str("to", sel.to.Format(domain.DateLayout)).
		Msg("budget: history loaded")

	engine := budget.NewEngine(params, func(done, total int) {
		log.Debug().Int("done", done).Int("total", total).Msg("budget: scoring products")
	})
	result, err := engine.Run(sales, receipts, show)
	if err != nil {
		return nil, fmt.Errorf("budget: %w", err)
	}
	return result, nil
}

func (s *BudgetService) paramsFor(req domain.BudgetRequest, ref time.Time) (budget.Params, domain.CategoryFilter, error) {
	show, ok := domain.ParseCategoryFilter(req.Show)
	if !ok {
		return budget.Params{}, "", fmt.Errorf("%w: unknown product filter %q", domain.ErrInvalidInput, req.Show)
	}

	p := s.params
	if req.WeightAverage != nil {
		p.WeightAverage = *req.WeightAverage
	}
	if req.WeightTrend != nil {
		p.WeightTrend = *req.WeightTrend
	}
	if req.WeightRotation != nil {
		p.WeightRotation = *req.WeightRotation
	}
	if req.Conservatism != nil {
		p.Conservatism = *req.Conservatism
	}
	p.Reference = ref

	if err := p.Validate(); err != nil {
		return budget.Params{}, "", err
	}
	return p, show, nil
}

// Recompute applies planner overrides (product code to units) to the budget
// of the embedded request and reports the totals before and after.
func (s *BudgetService) Recompute(ctx context.Context, req domain.OverrideRequest) (*domain.BudgetAdjustment, error) {
	if err := validateOverrides(req.Overrides); err != nil {
		return nil, err
	}
	result, err := s.Budget(ctx, req.Budget)
	if err != nil {
		return nil, err
	}
	adj := budget.Adjust(result.Lines, req.Overrides)
	return &adj, nil
}

// Compliance compares the (optionally overridden) budget with the actual
// sales of the target month.
func (s *BudgetService) Compliance(ctx context.Context, req domain.OverrideRequest) (*domain.ComplianceResult, error) {
	if err := validateOverrides(req.Overrides); err != nil {
		return nil, err
	}
	ref := s.reference()
	year, month, err := targetMonth(req.Budget, ref)
	if err != nil {
		return nil, err
	}

	result, err := s.Budget(ctx, req.Budget)
	if err != nil {
		return nil, err
	}
	lines := result.Lines
	if len(req.Overrides) > 0 {
		lines, _ = budget.ApplyOverrides(lines, req.Overrides)
	}

	start, end := compliance.Period(year, month)
	filter := domain.MovementFilter{
		From:     s.thresholds.TrailingStart(start),
		To:       domain.EndOfDay(end),
		Stores:   req.Budget.Stores,
		Types:    []domain.MovementType{domain.MovementSale},
		Supplier: req.Budget.Supplier,
		Search:   req.Budget.Search,
	}
	sales, err := s.repo.ListMovements(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("compliance: load sales: %w", err)
	}

	report, err := compliance.NewAnalyzer(s.thresholds).Analyze(lines, sales, year, month)
	if err != nil {
		return nil, fmt.Errorf("compliance: %w", err)
	}
	return report, nil
}

// targetMonth defaults to the month after ref.
func targetMonth(req domain.BudgetRequest, ref time.Time) (int, time.Month, error) {
	if req.TargetYear == 0 && req.TargetMonth == 0 {
		next := domain.MonthStart(ref).AddDate(0, 1, 0)
		return next.Year(), next.Month(), nil
	}
	if req.TargetMonth < 1 || req.TargetMonth > 12 || req.TargetYear < 1 {
		return 0, 0, fmt.Errorf("%w: target month %d/%d", domain.ErrInvalidInput, req.TargetMonth, req.TargetYear)
	}
	return req.TargetYear, time.Month(req.TargetMonth), nil
}

func validateOverrides(overrides map[string]float64) error {
	for code, units := range overrides {
		if units < 0 || math.IsNaN(units) || math.IsInf(units, 0) {
			return fmt.Errorf("%w: override for %s must be a non-negative number", domain.ErrInvalidInput, code)
		}
	}
	return nil
}
