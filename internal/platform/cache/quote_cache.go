// Package cache provides Redis backed caches for the companies feature.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"company_sync/internal/feature/companies/domain/entity"
	"company_sync/internal/feature/companies/usecase"
)

// DefaultQuoteTTL is how long a fetched quote is reused.
const DefaultQuoteTTL = 15 * time.Minute

// QuoteCache stores market quotes in Redis so repeated runs within the TTL skip the market API.
// A nil client disables the cache: every lookup misses and writes are dropped.
type QuoteCache struct {
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.QuoteCache = (*QuoteCache)(nil)

// NewQuoteCache creates a QuoteCache.
// If ttl is 0, it defaults to 15 minutes. If namespace is empty, it uses "quotes".
func NewQuoteCache(rdb *redis.Client, ttl time.Duration, namespace string) *QuoteCache {
	if ttl <= 0 {
		ttl = DefaultQuoteTTL
	}
	if namespace == "" {
		namespace = "quotes"
	}
	return &QuoteCache{rdb: rdb, ttl: ttl, namespace: namespace}
}

// Get returns the cached quote for symbol. Errors are treated as misses.
func (c *QuoteCache) Get(ctx context.Context, symbol string) (*entity.Quote, bool) {
	if c.rdb == nil {
		return nil, false
	}

	key := c.cacheKey(symbol)
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("quote cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	var q entity.Quote
	if err := json.Unmarshal(b, &q); err != nil {
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
		return nil, false
	}
	return &q, true
}

// Set stores the quote under its symbol (best effort).
func (c *QuoteCache) Set(ctx context.Context, q entity.Quote) {
	if c.rdb == nil {
		return
	}
	b, err := json.Marshal(q)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.cacheKey(q.Symbol), b, c.ttl).Err(); err != nil {
		slog.Warn("quote cache write failed", "symbol", q.Symbol, "error", err)
	}
}

// cacheKey generates the cache key for a symbol.
func (c *QuoteCache) cacheKey(symbol string) string {
	return fmt.Sprintf("%s:%s", c.namespace, safe(strings.ToUpper(symbol)))
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
