package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/config"
	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
)

const (
	budgetKeyPrefix = "budget"
	shelfKeyPrefix  = "shelf"
)

// ResultCache stores computed budgets and shelf reports. Keys include the
// reference date because days-since-last-sale changes with it.
type ResultCache interface {
	GetBudget(ctx context.Context, req domain.BudgetRequest, ref time.Time) (*domain.BudgetResult, bool, error)
	SetBudget(ctx context.Context, req domain.BudgetRequest, ref time.Time, result *domain.BudgetResult) error
	GetShelf(ctx context.Context, req domain.ShelfRequest, ref time.Time) (*domain.ShelfResult, bool, error)
	SetShelf(ctx context.Context, req domain.ShelfRequest, ref time.Time, result *domain.ShelfResult) error
	InvalidateAll(ctx context.Context) error
}

type redisResultCache struct {
	store *resultStore
}

type noopResultCache struct{}

func NewResultCache(cfg config.CacheConfig) (ResultCache, error) {
	if !cfg.Enabled {
		return &noopResultCache{}, nil
	}

	store, err := newResultStore(cfg)
	if err != nil {
		return nil, err
	}
	return &redisResultCache{store: store}, nil
}

func NewNoopResultCache() ResultCache {
	return &noopResultCache{}
}

func (c *redisResultCache) GetBudget(ctx context.Context, req domain.BudgetRequest, ref time.Time) (*domain.BudgetResult, bool, error) {
	var result domain.BudgetResult
	ok, err := c.store.load(ctx, buildBudgetKey(req, ref), &result)
	if !ok || err != nil {
		return nil, false, err
	}
	return &result, true, nil
}

func (c *redisResultCache) SetBudget(ctx context.Context, req domain.BudgetRequest, ref time.Time, result *domain.BudgetResult) error {
	return c.store.save(ctx, buildBudgetKey(req, ref), result)
}

func (c *redisResultCache) GetShelf(ctx context.Context, req domain.ShelfRequest, ref time.Time) (*domain.ShelfResult, bool, error) {
	var result domain.ShelfResult
	ok, err := c.store.load(ctx, buildShelfKey(req, ref), &result)
	if !ok || err != nil {
		return nil, false, err
	}
	return &result, true, nil
}

func (c *redisResultCache) SetShelf(ctx context.Context, req domain.ShelfRequest, ref time.Time, result *domain.ShelfResult) error {
	return c.store.save(ctx, buildShelfKey(req, ref), result)
}

func (c *redisResultCache) InvalidateAll(ctx context.Context) error {
	return c.store.purge(ctx)
}

func (n *noopResultCache) GetBudget(ctx context.Context, req domain.BudgetRequest, ref time.Time) (*domain.BudgetResult, bool, error) {
	return nil, false, nil
}

func (n *noopResultCache) SetBudget(ctx context.Context, req domain.BudgetRequest, ref time.Time, result *domain.BudgetResult) error {
	return nil
}

func (n *noopResultCache) GetShelf(ctx context.Context, req domain.ShelfRequest, ref time.Time) (*domain.ShelfResult, bool, error) {
	return nil, false, nil
}

func (n *noopResultCache) SetShelf(ctx context.Context, req domain.ShelfRequest, ref time.Time, result *domain.ShelfResult) error {
	return nil
}

func (n *noopResultCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildBudgetKey(req domain.BudgetRequest, ref time.Time) string {
	return fmt.Sprintf("%s:%s", budgetKeyPrefix, budgetRequestHash(req, ref))
}

func buildShelfKey(req domain.ShelfRequest, ref time.Time) string {
	return fmt.Sprintf("%s:%s", shelfKeyPrefix, shelfRequestHash(req, ref))
}

func budgetRequestHash(req domain.BudgetRequest, ref time.Time) string {
	parts := scopeParts(req.Stores, req.Supplier, req.Search, req.From, req.To, ref)

	if req.TargetYear != 0 || req.TargetMonth != 0 {
		parts = append(parts, fmt.Sprintf("target=%04d-%02d", req.TargetYear, req.TargetMonth))
	}
	parts = appendFloat(parts, "w_avg", req.WeightAverage)
	parts = appendFloat(parts, "w_trend", req.WeightTrend)
	parts = appendFloat(parts, "w_rot", req.WeightRotation)
	parts = appendFloat(parts, "conservatism", req.Conservatism)
	if show := strings.ToLower(strings.TrimSpace(req.Show)); show != "" {
		parts = append(parts, "show="+show)
	}

	return hashParts(parts)
}

func shelfRequestHash(req domain.ShelfRequest, ref time.Time) string {
	return hashParts(scopeParts(req.Stores, req.Supplier, req.Search, req.From, req.To, ref))
}

func scopeParts(stores []string, supplier, search, from, to string, ref time.Time) []string {
	parts := []string{"ref=" + ref.Format(domain.DateLayout)}

	if len(stores) > 0 {
		parts = append(parts, "stores="+joinStrings(stores))
	}
	if supplier != "" {
		parts = append(parts, "supplier="+strings.ToLower(strings.TrimSpace(supplier)))
	}
	if search != "" {
		parts = append(parts, "search="+strings.ToLower(strings.TrimSpace(search)))
	}
	if from != "" {
		parts = append(parts, "from="+strings.TrimSpace(from))
	}
	if to != "" {
		parts = append(parts, "to="+strings.TrimSpace(to))
	}
	return parts
}

func appendFloat(parts []string, name string, v *float64) []string {
	if v == nil {
		return parts
	}
	return append(parts, name+"="+strconv.FormatFloat(*v, 'f', -1, 64))
}

func hashParts(parts []string) string {
	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func joinStrings(values []string) string {
	c := append([]string(nil), values...)
	for i := range c {
		c[i] = strings.TrimSpace(strings.ToLower(c[i]))
	}
	sort.Strings(c)
	return strings.Join(c, ",")
}
