// Package pricing answers "what is the USD price of token X" through a
// family of interchangeable fetcher strategies and an ordered fallback
// resolver.
package pricing

import (
	"context"
	"errors"

	"incentive-hub/internal/domain"
)

// ErrUnsupportedQuery is returned when a fetcher is asked for a historical
// price it cannot produce. It signals a caller error and is never swallowed
// as "price unknown".
var ErrUnsupportedQuery = errors.New("pricing: fetcher does not support historical queries")

// PriceQuery identifies the token (and optionally the block) to price.
type PriceQuery struct {
	Token       domain.Token
	BlockNumber *uint64 // nil means current price
}

// PriceFetcher is one pricing strategy. A nil price with a nil error means
// "price unknown", which is a valid outcome, not a failure; errors are
// reserved for transport/protocol faults and unsupported queries.
type PriceFetcher interface {
	Name() string
	FetchPrice(ctx context.Context, query PriceQuery) (*float64, error)
}

func floatPtr(v float64) *float64 { return &v }
