package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	defaultResultTTL = 5 * time.Minute
	defaultNamespace = "budget-engine"
	pingTimeout      = 5 * time.Second
	scanBatchSize    = 100
)

// resultStore keeps JSON encoded results under a namespace so a flush after
// ingest never touches keys owned by other applications on the same Redis.
type resultStore struct {
	client    *redis.Client
	ttl       time.Duration
	namespace string
}

func newResultStore(cfg config.CacheConfig) (*resultStore, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	return &resultStore{
		client:    client,
		ttl:       resultTTL(cfg),
		namespace: namespace(cfg),
	}, nil
}

func redisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host, port := cfg.RedisHost, cfg.RedisPort
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "6379"
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

// resultTTL bounds how long a budget or shelf report may be served after it
// was computed; ingest flushes earlier.
func resultTTL(cfg config.CacheConfig) time.Duration {
	if cfg.BudgetTTLSeconds <= 0 {
		return defaultResultTTL
	}
	return time.Duration(cfg.BudgetTTLSeconds) * time.Second
}

func namespace(cfg config.CacheConfig) string {
	ns := strings.Trim(strings.TrimSpace(cfg.KeyPrefix), ":")
	if ns == "" {
		return defaultNamespace
	}
	return ns
}

func (s *resultStore) key(name string) string {
	return s.namespace + ":" + name
}

func (s *resultStore) load(ctx context.Context, name string, dest interface{}) (bool, error) {
	payload, err := s.client.Get(ctx, s.key(name)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", name, err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", name, err)
	}
	return true, nil
}

func (s *resultStore) save(ctx context.Context, name string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", name, err)
	}
	if err := s.client.Set(ctx, s.key(name), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", name, err)
	}
	return nil
}

// purge drops every key in the namespace. UNLINK frees memory off the
// request path.
func (s *resultStore) purge(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.key("*"), scanBatchSize).Iterator()
	batch := make([]string, 0, scanBatchSize)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatchSize {
			if err := s.client.Unlink(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis unlink: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(batch) > 0 {
		if err := s.client.Unlink(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis unlink: %w", err)
		}
	}
	return nil
}
