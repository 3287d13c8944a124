package service

import (
	"context"
	"strings"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/andresuchdata/budget-engine/backend-go/internal/repository"
)

const maxProductResults = 200

type CatalogService struct {
	repo repository.MovementRepository
}

func NewCatalogService(repo repository.MovementRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) Stores(ctx context.Context) ([]string, error) {
	stores, err := s.repo.ListStores(ctx)
	if err != nil {
		return nil, err
	}
	if stores == nil {
		stores = make([]string, 0)
	}
	return stores, nil
}

func (s *CatalogService) Suppliers(ctx context.Context) ([]string, error) {
	suppliers, err := s.repo.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	if suppliers == nil {
		suppliers = make([]string, 0)
	}
	return suppliers, nil
}

// Products looks products up by code or description fragment.
func (s *CatalogService) Products(ctx context.Context, search string, limit int) ([]domain.ProductKey, error) {
	if limit <= 0 || limit > maxProductResults {
		limit = maxProductResults
	}
	products, err := s.repo.SearchProducts(ctx, strings.TrimSpace(search), limit)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = make([]domain.ProductKey, 0)
	}
	return products, nil
}
