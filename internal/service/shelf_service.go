package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/cache"
	"github.com/andresuchdata/budget-engine/backend-go/internal/config"
	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/andresuchdata/budget-engine/backend-go/internal/repository"
	"github.com/andresuchdata/budget-engine/backend-go/internal/shelf"
	"github.com/rs/zerolog/log"
)

type ShelfService struct {
	repo       repository.MovementRepository
	cache      cache.ResultCache
	classifier *shelf.Classifier
	months     int
	now        func() time.Time
}

func NewShelfService(repo repository.MovementRepository, cacheImpl cache.ResultCache, forecast config.ForecastConfig, th config.ShelfConfig) *ShelfService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopResultCache()
	}
	return &ShelfService{
		repo:       repo,
		cache:      cacheImpl,
		classifier: shelf.NewClassifier(ShelfThresholds(th)),
		months:     historyMonths(forecast),
		now:        time.Now,
	}
}

func (s *ShelfService) WithClock(now func() time.Time) *ShelfService {
	s.now = now
	return s
}

// Classify assigns a shelf action to every product sold in the selection.
func (s *ShelfService) Classify(ctx context.Context, req domain.ShelfRequest) (*domain.ShelfResult, error) {
	ref := startOfDay(s.now())

	if result, ok, err := s.cache.GetShelf(ctx, req, ref); err == nil && ok {
		return result, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("shelf: cache get failed")
	}

	sel, err := newSelection(req.Stores, req.Supplier, req.Search, req.From, req.To, ref, s.months)
	if err != nil {
		return nil, err
	}

	supplyFilter := sel.filter(domain.MovementReceipt, domain.MovementTransferIn)
	supplyFilter.MatchDestination = len(sel.stores) > 0

	sales, supply, err := fetchPair(ctx, s.repo, sel.filter(domain.MovementSale), supplyFilter)
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return nil, fmt.Errorf("shelf: %w", domain.ErrNoData)
	}

	result := s.classifier.Classify(shelf.BuildMetrics(sales, supply, ref))
	log.Info().
		Int("products", len(result.Lines)).
		Int("grow", result.GrowCount).
		Int("shrink", result.ShrinkCount).
		Msg("shelf: classification done")

	if err := s.cache.SetShelf(ctx, req, ref, result); err != nil {
		log.Warn().Err(err).Msg("shelf: cache set failed")
	}
	return result, nil
}
