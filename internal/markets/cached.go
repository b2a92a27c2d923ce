package markets

import (
	"context"
	"time"

	"github.com/mselser95/crossarb/pkg/cache"
	"github.com/mselser95/crossarb/pkg/types"
)

// CachedProvider wraps a Provider with a TTL cache. Trading rules change
// rarely, so a long TTL is safe.
type CachedProvider struct {
	inner Provider
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedProvider creates a caching wrapper around `inner`.
func NewCachedProvider(inner Provider, c cache.Cache, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &CachedProvider{
		inner: inner,
		cache: c,
		ttl:   ttl,
	}
}

// Rules fetches trading rules, serving from cache when possible.
func (p *CachedProvider) Rules(ctx context.Context, symbol string) (types.TradingRules, error) {
	key := "rules:" + symbol

	if p.cache != nil {
		if cached, ok := p.cache.Get(key); ok {
			if rules, ok := cached.(types.TradingRules); ok {
				RulesCacheHitsTotal.Inc()
				return rules, nil
			}
		}
		RulesCacheMissesTotal.Inc()
	}

	rules, err := p.inner.Rules(ctx, symbol)
	if err != nil {
		return types.TradingRules{}, err
	}

	if p.cache != nil {
		p.cache.Set(key, rules, p.ttl)
	}

	return rules, nil
}

// Static is a fixed-rules Provider for paper trading and tests.
type Static struct {
	BySymbol map[string]types.TradingRules
	Default  types.TradingRules
}

// Rules returns the configured rules for `symbol`, or the default set.
func (s *Static) Rules(_ context.Context, symbol string) (types.TradingRules, error) {
	if rules, ok := s.BySymbol[symbol]; ok {
		return rules, nil
	}

	rules := s.Default
	rules.Symbol = symbol
	return rules, nil
}
