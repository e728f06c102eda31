package pricing

import (
	"context"
	"errors"
	"testing"

	"incentive-hub/internal/chain"
	chainstub "incentive-hub/internal/chain/stub"
	"incentive-hub/internal/domain"
	"incentive-hub/internal/registry"
)

func poolRegistry(pools ...registry.PoolEntry) *registry.Registry {
	return registry.New(registry.File{Pools: pools})
}

func TestPoolReserveFetcher_FirstMatchWins(t *testing.T) {
	calldata := chain.EncodeCall(chain.SelectorGetAssetPrice, "0xWETH")

	reader := chainstub.NewReader()
	// First pool errors, second quotes 1893.42 in 8-decimal base currency.
	reader.SetError(1, "0xPOOL1", calldata, errors.New("reserve not listed"))
	reader.SetResult(1, "0xPOOL2", calldata, word(189342000000))

	reg := poolRegistry(
		registry.PoolEntry{ChainID: 1, Oracle: "0xPOOL1", BaseCurrencyUnit: "100000000"},
		registry.PoolEntry{ChainID: 1, Oracle: "0xPOOL2", BaseCurrencyUnit: "100000000"},
	)

	f := NewPoolReserveFetcher(reader, reg, nil)
	price, err := f.FetchPrice(context.Background(), PriceQuery{
		Token: domain.Token{Symbol: "WETH", Address: "0xWETH", ChainID: 1},
	})
	if err != nil {
		t.Fatalf("FetchPrice failed: %v", err)
	}
	if price == nil {
		t.Fatal("expected a price from the second pool")
	}
	if *price < 1893.41 || *price > 1893.43 {
		t.Errorf("price = %f, want ~1893.42", *price)
	}
}

func TestPoolReserveFetcher_ZeroQuoteSkipped(t *testing.T) {
	calldata := chain.EncodeCall(chain.SelectorGetAssetPrice, "0xWETH")

	reader := chainstub.NewReader()
	reader.SetResult(1, "0xPOOL1", calldata, word(0))

	f := NewPoolReserveFetcher(reader, poolRegistry(
		registry.PoolEntry{ChainID: 1, Oracle: "0xPOOL1", BaseCurrencyUnit: "100000000"},
	), nil)

	price, err := f.FetchPrice(context.Background(), PriceQuery{
		Token: domain.Token{Symbol: "WETH", Address: "0xWETH", ChainID: 1},
	})
	if err != nil || price != nil {
		t.Errorf("got (%v, %v), want (nil, nil) for a zero quote", price, err)
	}
}

func TestPoolReserveFetcher_NoPoolsForChain(t *testing.T) {
	f := NewPoolReserveFetcher(chainstub.NewReader(), poolRegistry(), nil)
	price, err := f.FetchPrice(context.Background(), PriceQuery{
		Token: domain.Token{Symbol: "WETH", Address: "0xWETH", ChainID: 42},
	})
	if err != nil || price != nil {
		t.Errorf("got (%v, %v), want (nil, nil) when no pools exist", price, err)
	}
}
