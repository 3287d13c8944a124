package service

import (
	"github.com/andresuchdata/budget-engine/backend-go/internal/budget"
	"github.com/andresuchdata/budget-engine/backend-go/internal/compliance"
	"github.com/andresuchdata/budget-engine/backend-go/internal/config"
	"github.com/andresuchdata/budget-engine/backend-go/internal/shelf"
)

const defaultHistoryMonths = 12

// BudgetParams maps the forecast settings onto engine parameters. An empty
// config yields the built-in defaults.
func BudgetParams(cfg config.ForecastConfig) budget.Params {
	if cfg == (config.ForecastConfig{}) {
		return budget.DefaultParams()
	}
	return budget.Params{
		WeightAverage:    cfg.WeightAverage,
		WeightTrend:      cfg.WeightTrend,
		WeightRotation:   cfg.WeightRotation,
		Conservatism:     cfg.Conservatism,
		BaselineRotation: cfg.BaselineRotation,
		MinConservatism:  cfg.MinConservatism,
		MaxConservatism:  cfg.MaxConservatism,
	}
}

func ShelfThresholds(cfg config.ShelfConfig) shelf.Thresholds {
	if cfg == (config.ShelfConfig{}) {
		return shelf.DefaultThresholds()
	}
	return shelf.Thresholds{
		TopRank:             cfg.TopRank,
		TopShare:            cfg.TopShare,
		HighRevenue:         cfg.HighRevenue,
		ExcellentMargin:     cfg.ExcellentMargin,
		ExcellentRevenue:    cfg.ExcellentRevenue,
		SolidRevenue:        cfg.SolidRevenue,
		SolidMargin:         cfg.SolidMargin,
		DeadStockReceived:   cfg.DeadStockReceived,
		DeadStockSold:       cfg.DeadStockSold,
		DeadStockWindowDays: cfg.DeadStockWindowDays,
		StaleDays:           cfg.StaleDays,
		StaleUnits:          cfg.StaleUnits,
		StaleRevenue:        cfg.StaleRevenue,
		MinimalRevenue:      cfg.MinimalRevenue,
		LowRevenue:          cfg.LowRevenue,
		LowRotationRatio:    cfg.LowRotationRatio,
		WeakRevenue:         cfg.WeakRevenue,
		WeakMargin:          cfg.WeakMargin,
		WeakUnits:           cfg.WeakUnits,
	}
}

func ComplianceThresholds(cfg config.ComplianceConfig) compliance.Thresholds {
	if cfg == (config.ComplianceConfig{}) {
		return compliance.DefaultThresholds()
	}
	return compliance.Thresholds{
		LowCompliance:     cfg.LowCompliance,
		HighCompliance:    cfg.HighCompliance,
		LowAvailability:   cfg.LowAvailability,
		PriceDeviation:    cfg.PriceDeviation,
		TrailingPriceDays: cfg.TrailingPriceDays,
	}
}

func historyMonths(cfg config.ForecastConfig) int {
	if cfg.HistoryMonths <= 0 {
		return defaultHistoryMonths
	}
	return cfg.HistoryMonths
}
