package budget

import (
	"errors"
	"fmt"
	"sort"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	errNoMonthlyHistory = errors.New("no monthly history")
	errNonFinite        = errors.New("non-finite input")
)

// ProgressFunc is called with the number of products processed so far and
// the total to process.
type ProgressFunc func(done, total int)

// Engine turns aggregated history into a scored purchase budget.
type Engine struct {
	params   Params
	progress ProgressFunc
}

// NewEngine creates an Engine. A nil progress callback is allowed.
func NewEngine(params Params, progress ProgressFunc) *Engine {
	return &Engine{params: params, progress: progress}
}

// Run aggregates the given movements and builds the budget. Products that
// cannot be evaluated are skipped and counted. ErrNoData is returned when
// nothing could be evaluated.
func (e *Engine) Run(sales, receipts []domain.Transaction, show domain.CategoryFilter) (*domain.BudgetResult, error) {
	if err := e.params.Validate(); err != nil {
		return nil, err
	}
	history := Aggregate(sales, receipts, e.params.reference())
	return e.Evaluate(history, show)
}

// Evaluate builds the budget from an already aggregated history.
func (e *Engine) Evaluate(history *History, show domain.CategoryFilter) (*domain.BudgetResult, error) {
	if history == nil || len(history.Summaries) == 0 {
		return nil, domain.ErrNoData
	}

	result := &domain.BudgetResult{}
	if w := e.params.WeightWarning(); w != "" {
		log.Warn().Float64("weight_sum", e.params.WeightSum()).Msg("budget: " + w)
		result.Warnings = append(result.Warnings, w)
	}

	total := len(history.Summaries)
	maxRevenue := history.MaxRevenue()
	lines := make([]domain.ForecastLine, 0, total)

	for i, summary := range history.Summaries {
		line, err := e.evaluateProduct(history, summary, maxRevenue)
		if err != nil {
			result.Skipped++
			log.Debug().Err(err).Str("code", summary.Code).Msg("budget: product skipped")
		} else {
			lines = append(lines, line)
		}

		done := i + 1
		if e.progress != nil && (done%progressEvery == 0 || done == total) {
			e.progress(done, total)
		}
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: all %d products were skipped", domain.ErrNoData, result.Skipped)
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Score > lines[j].Score })

	if show != "" && show != domain.ShowAll {
		filtered := lines[:0:0]
		for _, l := range lines {
			if show.Matches(l.Category) {
				filtered = append(filtered, l)
			}
		}
		lines = filtered
	}

	result.Lines = lines
	result.Totals = Totals(lines)
	result.Alerts = Alerts(lines)
	return result, nil
}

func (e *Engine) evaluateProduct(h *History, s domain.ProductSummary, maxRevenue float64) (domain.ForecastLine, error) {
	series := h.UnitSeries(s.Code)
	if len(series) == 0 {
		return domain.ForecastLine{}, errNoMonthlyHistory
	}
	if !finite(append(series, s.Revenue, s.Cost, s.Units)...) {
		return domain.ForecastLine{}, errNonFinite
	}

	trend := EstimateTrend(series)
	rotation := Rotation(h.Receipts[s.Code], h.Sales[s.Code])
	cv := CoefficientOfVariation(series)

	units := SynthesizeUnits(Signals{Trend: trend, Rotation: rotation, CV: cv}, e.params)
	score := Score(ScoreInputs{
		Revenue:      s.Revenue,
		MaxRevenue:   maxRevenue,
		MarginPct:    s.MarginPct,
		Rotation:     rotation,
		CV:           cv,
		ShortHistory: len(series) < 2,
	})
	category, action := Classify(score, s.DaysSinceLastSale)

	line := domain.ForecastLine{
		Category:          category,
		CategoryLabel:     domain.CategoryLabel(category),
		Code:              s.Code,
		Description:       s.Description,
		Supplier:          s.Supplier,
		RecentAvgUnits:    trend.RecentAvg,
		Trend:             trend.Direction,
		TrendIcon:         domain.TrendIcon(trend.Direction),
		Rotation:          rotation,
		CV:                cv,
		MarginPct:         s.MarginPct,
		UnitCost:          s.UnitCost,
		UnitPrice:         s.UnitPrice,
		Score:             score,
		UnitsToBuy:        units,
		Action:            action,
		DaysSinceLastSale: s.DaysSinceLastSale,
	}
	return Recompute(line), nil
}
