package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
)

// memoryRepo serves movements from memory using the same filter semantics as
// the SQL implementation.
type memoryRepo struct {
	mu        sync.Mutex
	movements []domain.Transaction
	calls     int
	err       error
}

func (r *memoryRepo) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.Transaction
	for _, m := range r.movements {
		if filter.Matches(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListStores(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	for _, m := range r.movements {
		seen[m.Store] = true
	}
	var out []string
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, r.err
}

func (r *memoryRepo) ListSuppliers(ctx context.Context) ([]string, error) {
	return nil, r.err
}

func (r *memoryRepo) SearchProducts(ctx context.Context, search string, limit int) ([]domain.ProductKey, error) {
	seen := map[domain.ProductKey]bool{}
	var out []domain.ProductKey
	for _, m := range r.movements {
		key := domain.ProductKey{Code: m.Code, Description: m.Description, Supplier: m.Supplier}
		if seen[key] || !(domain.MovementFilter{Search: search}).Matches(m) {
			continue
		}
		seen[key] = true
		out = append(out, key)
		if len(out) == limit {
			break
		}
	}
	return out, r.err
}

func (r *memoryRepo) InsertMovements(ctx context.Context, source string, movements []domain.Transaction) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, movements...)
	return len(movements), nil
}

// memoryCache keeps the last stored result regardless of the request.
type memoryCache struct {
	budget *domain.BudgetResult
	shelf  *domain.ShelfResult
}

func (c *memoryCache) GetBudget(ctx context.Context, req domain.BudgetRequest, ref time.Time) (*domain.BudgetResult, bool, error) {
	return c.budget, c.budget != nil, nil
}

func (c *memoryCache) SetBudget(ctx context.Context, req domain.BudgetRequest, ref time.Time, result *domain.BudgetResult) error {
	c.budget = result
	return nil
}

func (c *memoryCache) GetShelf(ctx context.Context, req domain.ShelfRequest, ref time.Time) (*domain.ShelfResult, bool, error) {
	return c.shelf, c.shelf != nil, nil
}

func (c *memoryCache) SetShelf(ctx context.Context, req domain.ShelfRequest, ref time.Time, result *domain.ShelfResult) error {
	c.shelf = result
	return nil
}

func (c *memoryCache) InvalidateAll(ctx context.Context) error {
	c.budget, c.shelf = nil, nil
	return nil
}

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func move(code string, typ domain.MovementType, date time.Time, qty, cost, price float64) domain.Transaction {
	return domain.Transaction{
		Date:        date,
		Store:       "Centro",
		Code:        code,
		Description: "Product " + code,
		Supplier:    "Acme",
		Type:        typ,
		Quantity:    qty,
		UnitCost:    cost,
		UnitPrice:   price,
	}
}

// history: A sells 100/110/120 units in Jan-Mar 2024, B sells 5 units once.
func history() []domain.Transaction {
	return []domain.Transaction{
		move("A", domain.MovementSale, at(2024, time.January, 10), -60, 6, 10),
		move("A", domain.MovementSale, at(2024, time.January, 20), -40, 6, 10),
		move("A", domain.MovementSale, at(2024, time.February, 10), -110, 6, 10),
		move("A", domain.MovementSale, at(2024, time.March, 10), -120, 6, 10),
		move("B", domain.MovementSale, at(2024, time.January, 5), -5, 11, 10),
		move("A", domain.MovementTransferOut, at(2024, time.March, 11), -7, 6, 10),
	}
}

func clock() time.Time {
	return at(2024, time.April, 1).Add(10 * time.Hour)
}
