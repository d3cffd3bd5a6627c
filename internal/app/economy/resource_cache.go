package economy

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"ledgerworld/internal/domain/ledger"
)

// LedgerReader is the read side of the ledger gateway the cache decorates.
type LedgerReader interface {
	GetResources(ctx context.Context, addr string) (*ledger.Resources, error)
	GetTradesInvolving(ctx context.Context, addr string) ([]ledger.TradeProposal, error)
	GetMatch(ctx context.Context, matchID string) (ledger.Match, error)
}

// CachedLedgerReader caches resource balances in redis with a short TTL.
// Balances are read on every briefing, and a few seconds of staleness is
// acceptable there; trades and matches pass through uncached because their
// sections must reflect settlements immediately.
type CachedLedgerReader struct {
	inner LedgerReader
	cache *redis.Client
	ttl   time.Duration
}

func NewCachedLedgerReader(inner LedgerReader, cache *redis.Client, ttl time.Duration) *CachedLedgerReader {
	return &CachedLedgerReader{inner: inner, cache: cache, ttl: ttl}
}

func resourceCacheKey(addr string) string {
	return "resources:" + strings.ToLower(addr)
}

func (c *CachedLedgerReader) GetResources(ctx context.Context, addr string) (*ledger.Resources, error) {
	if c.cache == nil {
		return c.inner.GetResources(ctx, addr)
	}
	key := resourceCacheKey(addr)
	if cached, err := c.cache.Get(ctx, key).Result(); err == nil {
		var res ledger.Resources
		if uErr := json.Unmarshal([]byte(cached), &res); uErr == nil {
			return &res, nil
		}
	}

	res, err := c.inner.GetResources(ctx, addr)
	if err != nil {
		return nil, err
	}
	// Absent balances (no account on the ledger yet) are not cached so a
	// freshly registered account shows up without waiting out the TTL.
	if res != nil {
		if b, mErr := json.Marshal(res); mErr == nil {
			_ = c.cache.Set(ctx, key, b, c.ttl).Err()
		}
	}
	return res, nil
}

func (c *CachedLedgerReader) GetTradesInvolving(ctx context.Context, addr string) ([]ledger.TradeProposal, error) {
	return c.inner.GetTradesInvolving(ctx, addr)
}

func (c *CachedLedgerReader) GetMatch(ctx context.Context, matchID string) (ledger.Match, error) {
	return c.inner.GetMatch(ctx, matchID)
}
