package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/config"
	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refDay = time.Date(2024, time.June, 30, 15, 4, 5, 0, time.UTC)

func TestBudgetKeyIgnoresStoreOrderAndCase(t *testing.T) {
	a := domain.BudgetRequest{Stores: []string{"Centro", "Norte"}, Supplier: "Acme"}
	b := domain.BudgetRequest{Stores: []string{" norte", "CENTRO"}, Supplier: "acme "}

	assert.Equal(t, buildBudgetKey(a, refDay), buildBudgetKey(b, refDay))
	assert.True(t, strings.HasPrefix(buildBudgetKey(a, refDay), budgetKeyPrefix+":"))
}

func TestBudgetKeyVariesWithInputs(t *testing.T) {
	base := domain.BudgetRequest{Stores: []string{"Centro"}}
	weight := 0.6
	withWeight := base
	withWeight.WeightAverage = &weight
	withShow := base
	withShow.Show = "stars"

	keys := map[string]bool{
		buildBudgetKey(base, refDay):                  true,
		buildBudgetKey(withWeight, refDay):            true,
		buildBudgetKey(withShow, refDay):              true,
		buildBudgetKey(base, refDay.AddDate(0, 0, 1)): true,
	}
	assert.Len(t, keys, 4)

	// Only the calendar day of the reference matters.
	assert.Equal(t, buildBudgetKey(base, refDay), buildBudgetKey(base, refDay.Add(-time.Hour)))
}

func TestShelfAndBudgetKeysDoNotCollide(t *testing.T) {
	budgetKey := buildBudgetKey(domain.BudgetRequest{Stores: []string{"Centro"}}, refDay)
	shelfKey := buildShelfKey(domain.ShelfRequest{Stores: []string{"Centro"}}, refDay)
	assert.NotEqual(t, budgetKey, shelfKey)
}

func TestDisabledCacheIsNoop(t *testing.T) {
	c, err := NewResultCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	ctx := context.Background()
	req := domain.BudgetRequest{}
	require.NoError(t, c.SetBudget(ctx, req, refDay, &domain.BudgetResult{Skipped: 1}))

	got, ok, err := c.GetBudget(ctx, req, refDay)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.NoError(t, c.InvalidateAll(ctx))
}

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = redisOptions(config.CacheConfig{RedisURL: "redis://:secret@localhost:6379/1"})
	require.NoError(t, err)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 1, opts.DB)

	_, err = redisOptions(config.CacheConfig{RedisURL: "://bad"})
	assert.Error(t, err)
}

func TestResultStoreSettings(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.CacheConfig
		ttl       time.Duration
		namespace string
	}{
		{name: "defaults", cfg: config.CacheConfig{}, ttl: 5 * time.Minute, namespace: "budget-engine"},
		{name: "configured", cfg: config.CacheConfig{BudgetTTLSeconds: 90, KeyPrefix: "store-a"}, ttl: 90 * time.Second, namespace: "store-a"},
		{name: "trims separators", cfg: config.CacheConfig{BudgetTTLSeconds: -1, KeyPrefix: " tenant: "}, ttl: 5 * time.Minute, namespace: "tenant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ttl, resultTTL(tt.cfg))
			assert.Equal(t, tt.namespace, namespace(tt.cfg))
		})
	}
}

func TestResultStoreKeysAreNamespaced(t *testing.T) {
	store := &resultStore{namespace: "budget-engine"}
	key := buildBudgetKey(domain.BudgetRequest{}, refDay)

	assert.Equal(t, "budget-engine:"+key, store.key(key))
	assert.Equal(t, "budget-engine:*", store.key("*"))
}
