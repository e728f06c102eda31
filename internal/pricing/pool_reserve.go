package pricing

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"incentive-hub/internal/chain"
	"incentive-hub/internal/registry"
)

// PoolReserveFetcher prices a token through lending-pool reserve oracles.
// It tries every configured pool instance on the token's chain in turn and
// returns the first quote, converted through the pool's base-currency
// decimal convention. Per-pool read failures are skipped; a token absent
// from every pool is "unknown", not an error.
type PoolReserveFetcher struct {
	reader   chain.Reader
	registry *registry.Registry
	logger   *slog.Logger
}

// NewPoolReserveFetcher creates a pool-reserve price fetcher.
func NewPoolReserveFetcher(reader chain.Reader, reg *registry.Registry, logger *slog.Logger) *PoolReserveFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &PoolReserveFetcher{reader: reader, registry: reg, logger: logger}
}

// Name implements PriceFetcher.
func (f *PoolReserveFetcher) Name() string { return "pool-reserve" }

// FetchPrice implements PriceFetcher.
func (f *PoolReserveFetcher) FetchPrice(ctx context.Context, query PriceQuery) (*float64, error) {
	pools := f.registry.Pools(query.Token.ChainID)
	if len(pools) == 0 {
		return nil, nil
	}

	calldata := chain.EncodeCall(chain.SelectorGetAssetPrice, query.Token.Address)

	for _, pool := range pools {
		raw, err := chain.CallUint256(ctx, f.reader, chain.Call{
			ChainID:     query.Token.ChainID,
			To:          pool.Oracle,
			Data:        calldata,
			BlockNumber: query.BlockNumber,
		})
		if err != nil {
			f.logger.Debug("pool oracle read failed",
				"oracle", pool.Oracle,
				"chainId", query.Token.ChainID,
				"token", query.Token.Address,
				"error", err)
			continue
		}
		if raw.Sign() <= 0 {
			continue
		}

		unit, err := decimal.NewFromString(pool.BaseCurrencyUnit)
		if err != nil || unit.IsZero() {
			f.logger.Warn("invalid base currency unit for pool", "oracle", pool.Oracle, "unit", pool.BaseCurrencyUnit)
			continue
		}

		price, _ := decimal.NewFromBigInt(raw, 0).Div(unit).Float64()
		return floatPtr(price), nil
	}

	return nil, nil
}

var _ PriceFetcher = (*PoolReserveFetcher)(nil)
