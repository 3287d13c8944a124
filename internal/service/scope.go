package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/andresuchdata/budget-engine/backend-go/internal/repository"
	"golang.org/x/sync/errgroup"
)

// selection is the store/supplier/product/date part shared by every request.
type selection struct {
	stores   []string
	supplier string
	search   string
	from     time.Time
	to       time.Time
}

// newSelection parses the date range; a missing bound defaults to the last
// `months` full months before ref and ref itself.
func newSelection(stores []string, supplier, search, from, to string, ref time.Time, months int) (selection, error) {
	start, end, err := domain.ParseDateRange(from, to)
	if err != nil {
		return selection{}, err
	}
	if end.IsZero() {
		end = domain.EndOfDay(ref)
	}
	if start.IsZero() {
		start = domain.MonthStart(end).AddDate(0, -months, 0)
	}
	return selection{
		stores:   stores,
		supplier: supplier,
		search:   search,
		from:     start,
		to:       end,
	}, nil
}

func (s selection) filter(types ...domain.MovementType) domain.MovementFilter {
	return domain.MovementFilter{
		From:     s.from,
		To:       s.to,
		Stores:   s.stores,
		Types:    types,
		Supplier: s.supplier,
		Search:   s.search,
	}
}

// fetchPair loads two movement sets concurrently.
func fetchPair(ctx context.Context, repo repository.MovementRepository, first, second domain.MovementFilter) ([]domain.Transaction, []domain.Transaction, error) {
	var a, b []domain.Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = repo.ListMovements(gctx, first)
		if err != nil {
			return fmt.Errorf("load %v movements: %w", first.Types, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		b, err = repo.ListMovements(gctx, second)
		if err != nil {
			return fmt.Errorf("load %v movements: %w", second.Types, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
