package pricing

import (
	"context"
	"strings"
)

// StaticFetcher serves fixed prices from a symbol table. Used for pegged
// and synthetic assets with no live market; the price is constant, so
// historical queries are answered too.
type StaticFetcher struct {
	prices map[string]float64 // uppercased symbol -> USD price
}

// DefaultStaticPrices covers the pegged assets the other fetchers cannot
// quote.
func DefaultStaticPrices() map[string]float64 {
	return map[string]float64{
		"USDC": 1.0,
		"USDT": 1.0,
		"DAI":  1.0,
		"GHO":  1.0,
	}
}

// NewStaticFetcher creates a static-table price fetcher.
func NewStaticFetcher(prices map[string]float64) *StaticFetcher {
	table := make(map[string]float64, len(prices))
	for symbol, price := range prices {
		table[strings.ToUpper(symbol)] = price
	}
	return &StaticFetcher{prices: table}
}

// Name implements PriceFetcher.
func (f *StaticFetcher) Name() string { return "static-table" }

// FetchPrice implements PriceFetcher.
func (f *StaticFetcher) FetchPrice(_ context.Context, query PriceQuery) (*float64, error) {
	price, ok := f.prices[strings.ToUpper(query.Token.Symbol)]
	if !ok {
		return nil, nil
	}
	return floatPtr(price), nil
}

var _ PriceFetcher = (*StaticFetcher)(nil)
