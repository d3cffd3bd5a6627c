package economy

import (
	"context"
	"testing"

	"ledgerworld/internal/domain/ledger"
)

type countingReader struct {
	resourceCalls int
	tradeCalls    int
	resources     *ledger.Resources
}

func (c *countingReader) GetResources(ctx context.Context, addr string) (*ledger.Resources, error) {
	c.resourceCalls++
	return c.resources, nil
}

func (c *countingReader) GetTradesInvolving(ctx context.Context, addr string) ([]ledger.TradeProposal, error) {
	c.tradeCalls++
	return nil, nil
}

func (c *countingReader) GetMatch(ctx context.Context, matchID string) (ledger.Match, error) {
	return ledger.Match{ObjectID: matchID}, nil
}

func TestCachedReaderDelegatesWithoutRedis(t *testing.T) {
	inner := &countingReader{resources: &ledger.Resources{Balances: ledger.ResourceSet{Wood: 3}}}
	c := NewCachedLedgerReader(inner, nil, 0)

	for i := 0; i < 3; i++ {
		res, err := c.GetResources(context.Background(), "0xabc")
		if err != nil {
			t.Fatalf("GetResources err: %v", err)
		}
		if res == nil || res.Balances.Wood != 3 {
			t.Fatalf("unexpected resources %+v", res)
		}
	}
	if inner.resourceCalls != 3 {
		t.Fatalf("expected every call to reach the gateway without redis, got %d", inner.resourceCalls)
	}
}

func TestCachedReaderPassesTradesThrough(t *testing.T) {
	inner := &countingReader{}
	c := NewCachedLedgerReader(inner, nil, 0)

	if _, err := c.GetTradesInvolving(context.Background(), "0xabc"); err != nil {
		t.Fatalf("GetTradesInvolving err: %v", err)
	}
	if inner.tradeCalls != 1 {
		t.Fatalf("trade reads must not be cached, got %d calls", inner.tradeCalls)
	}
	m, err := c.GetMatch(context.Background(), "match-1")
	if err != nil {
		t.Fatalf("GetMatch err: %v", err)
	}
	if m.ObjectID != "match-1" {
		t.Fatalf("unexpected match %+v", m)
	}
}

func TestResourceCacheKeyIsCaseInsensitive(t *testing.T) {
	if resourceCacheKey("0xABCdef") != resourceCacheKey("0xabcDEF") {
		t.Fatal("cache key must normalize address case")
	}
}
