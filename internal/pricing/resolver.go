package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"incentive-hub/internal/cache"
	"incentive-hub/internal/domain"
	"incentive-hub/internal/observability"
	"incentive-hub/internal/registry"
)

// DefaultPriceTTL is how long resolved prices stay cached.
const DefaultPriceTTL = 5 * time.Minute

// Resolver orders price fetchers into a fallback chain. Resolution:
// proxy-token substitution, then a token-specific override fetcher if one
// is configured, then the fetcher chain in priority order. The first
// non-nil price wins; a total miss resolves to nil, never an error. A
// historical query that only current-only fetchers could have served is
// the exception: that surfaces ErrUnsupportedQuery.
// Final results are cached per (chain, address) with a price-specific TTL.
type Resolver struct {
	registry  *registry.Registry
	fetchers  []PriceFetcher
	overrides map[domain.TokenKey]PriceFetcher
	cache     *cache.Cache[string, *float64]
	logger    *slog.Logger
}

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	Registry  *registry.Registry
	Fetchers  []PriceFetcher // tried in order
	Overrides map[domain.TokenKey]PriceFetcher
	CacheTTL  time.Duration                  // defaults to DefaultPriceTTL
	Cache     *cache.Cache[string, *float64] // optional injected cache
	Logger    *slog.Logger
}

// NewResolver creates a price resolution service.
func NewResolver(opts ResolverOptions) *Resolver {
	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = DefaultPriceTTL
	}
	store := opts.Cache
	if store == nil {
		store = cache.New[string, *float64](ttl)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		registry:  opts.Registry,
		fetchers:  opts.Fetchers,
		overrides: opts.Overrides,
		cache:     store,
		logger:    logger,
	}
}

func cacheKey(query PriceQuery) string {
	key := fmt.Sprintf("%d:%s", query.Token.ChainID, domain.NormalizeAddress(query.Token.Address))
	if query.BlockNumber != nil {
		key = fmt.Sprintf("%s@%d", key, *query.BlockNumber)
	}
	return key
}

// TokenPrice resolves the USD price for the queried token. A nil price is
// a valid, expected outcome meaning "no source could quote this token".
// The returned errors are context cancellations and ErrUnsupportedQuery,
// when a historical query goes unanswered after a fetcher declined it.
func (r *Resolver) TokenPrice(ctx context.Context, query PriceQuery) (*float64, error) {
	key := cacheKey(query)
	if price, ok := r.cache.Get(key); ok {
		observability.RecordCacheLookup("prices", true)
		return price, nil
	}
	observability.RecordCacheLookup("prices", false)

	price, err := r.resolve(ctx, query)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, price)
	return price, nil
}

func (r *Resolver) resolve(ctx context.Context, query PriceQuery) (*float64, error) {
	// Proxy substitution happens before any fetch: the proxy's market
	// price stands in for the requested token.
	if r.registry != nil {
		if proxy, ok := r.registry.ProxyToken(query.Token.Address, query.Token.ChainID); ok {
			r.logger.Debug("substituting proxy token for pricing",
				"token", query.Token.Symbol, "proxy", proxy.Symbol)
			query.Token = proxy
		}
	}

	// A decline does not stop the chain: a later fetcher may still serve
	// the query. It is remembered so an unanswered historical query fails
	// loudly instead of reading as "price unknown".
	var declined error

	if override, ok := r.overrides[query.Token.Key()]; ok {
		price, err := r.tryFetcher(ctx, override, query)
		switch {
		case errors.Is(err, ErrUnsupportedQuery):
			declined = err
		case err != nil:
			return nil, err
		case price != nil:
			return price, nil
		default:
			r.logger.Info("override fetcher returned no price, falling through",
				"fetcher", override.Name(), "token", query.Token.Symbol, "chainId", query.Token.ChainID)
		}
	}

	for _, fetcher := range r.fetchers {
		price, err := r.tryFetcher(ctx, fetcher, query)
		if errors.Is(err, ErrUnsupportedQuery) {
			declined = err
			continue
		}
		if err != nil {
			return nil, err
		}
		if price != nil {
			return price, nil
		}
	}

	if declined != nil {
		return nil, declined
	}
	return nil, nil
}

// tryFetcher runs one fetcher and maps its failure modes: transport
// faults make the fetcher contribute nothing and never fail the
// resolution. Context cancellation and unsupported queries propagate.
func (r *Resolver) tryFetcher(ctx context.Context, fetcher PriceFetcher, query PriceQuery) (*float64, error) {
	price, err := fetcher.FetchPrice(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrUnsupportedQuery) {
			observability.RecordPriceResolution(fetcher.Name(), "declined")
			r.logger.Debug("fetcher declined query", "fetcher", fetcher.Name(), "token", query.Token.Symbol)
			return nil, fmt.Errorf("%s: %w", fetcher.Name(), err)
		}
		observability.RecordPriceResolution(fetcher.Name(), "error")
		r.logger.Error("price fetcher failed",
			"fetcher", fetcher.Name(),
			"token", query.Token.Symbol,
			"chainId", query.Token.ChainID,
			"error", err)
		return nil, nil
	}
	if price != nil {
		observability.RecordPriceResolution(fetcher.Name(), "priced")
	} else {
		observability.RecordPriceResolution(fetcher.Name(), "miss")
	}
	return price, nil
}
