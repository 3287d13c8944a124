package repository

import (
	"context"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
)

// MovementRepository reads and writes inventory movement lines.
type MovementRepository interface {
	ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.Transaction, error)
	ListStores(ctx context.Context) ([]string, error)
	ListSuppliers(ctx context.Context) ([]string, error)
	SearchProducts(ctx context.Context, search string, limit int) ([]domain.ProductKey, error)

	// InsertMovements replaces every line previously loaded from source with
	// movements and returns the number of rows written.
	InsertMovements(ctx context.Context, source string, movements []domain.Transaction) (int, error)
}
