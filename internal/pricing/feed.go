package pricing

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"incentive-hub/internal/chain"
	"incentive-hub/internal/registry"
)

// FeedFetcher prices a token through its configured on-chain price feed.
// The feed address comes from the token itself when enrichment already
// attached one, otherwise from the registry's static tables. Every read
// failure (including feeds not yet deployed at a historical block) is
// reported as "unknown", never propagated.
type FeedFetcher struct {
	reader   chain.Reader
	registry *registry.Registry
	logger   *slog.Logger
}

// NewFeedFetcher creates an on-chain price feed fetcher.
func NewFeedFetcher(reader chain.Reader, reg *registry.Registry, logger *slog.Logger) *FeedFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedFetcher{reader: reader, registry: reg, logger: logger}
}

// Name implements PriceFetcher.
func (f *FeedFetcher) Name() string { return "onchain-feed" }

// FetchPrice implements PriceFetcher.
func (f *FeedFetcher) FetchPrice(ctx context.Context, query PriceQuery) (*float64, error) {
	feed := query.Token.PriceFeed
	if feed == "" {
		var ok bool
		feed, ok = f.registry.PriceFeedFor(query.Token)
		if !ok {
			return nil, nil
		}
	}

	decimalsRaw, err := chain.CallUint256(ctx, f.reader, chain.Call{
		ChainID:     query.Token.ChainID,
		To:          feed,
		Data:        chain.SelectorDecimals,
		BlockNumber: query.BlockNumber,
	})
	if err != nil {
		f.logger.Debug("feed decimals read failed", "feed", feed, "error", err)
		return nil, nil
	}

	answerRaw, err := chain.CallUint256(ctx, f.reader, chain.Call{
		ChainID:     query.Token.ChainID,
		To:          feed,
		Data:        chain.SelectorLatestAnswer,
		BlockNumber: query.BlockNumber,
	})
	if err != nil {
		f.logger.Debug("feed answer read failed", "feed", feed, "error", err)
		return nil, nil
	}
	if answerRaw.Sign() <= 0 {
		return nil, nil
	}

	decimals := decimalsRaw.Int64()
	if decimals < 0 || decimals > 36 {
		return nil, nil
	}

	price, _ := decimal.NewFromBigInt(answerRaw, 0).
		Div(decimal.New(1, int32(decimals))).
		Float64()
	return floatPtr(price), nil
}

var _ PriceFetcher = (*FeedFetcher)(nil)
