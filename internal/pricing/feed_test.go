package pricing

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"incentive-hub/internal/chain"
	chainstub "incentive-hub/internal/chain/stub"
	"incentive-hub/internal/domain"
	"incentive-hub/internal/registry"
)

func word(v int64) []byte {
	out := make([]byte, 32)
	big.NewInt(v).FillBytes(out)
	return out
}

func TestFeedFetcher_ReadsFeed(t *testing.T) {
	reader := chainstub.NewReader()
	reader.SetResult(1, "0xFEED", chain.SelectorDecimals, word(8))
	reader.SetResult(1, "0xFEED", chain.SelectorLatestAnswer, word(189342000000)) // 1893.42 at 8 decimals

	reg := registry.New(registry.File{
		Feeds: []registry.FeedEntry{{ChainID: 1, Address: "0xWETH", Feed: "0xFEED"}},
	})

	f := NewFeedFetcher(reader, reg, nil)
	price, err := f.FetchPrice(context.Background(), PriceQuery{
		Token: domain.Token{Symbol: "WETH", Address: "0xWETH", ChainID: 1},
	})
	if err != nil {
		t.Fatalf("FetchPrice failed: %v", err)
	}
	if price == nil {
		t.Fatal("expected a price")
	}
	if *price < 1893.41 || *price > 1893.43 {
		t.Errorf("price = %f, want ~1893.42", *price)
	}
}

func TestFeedFetcher_PrefersEnrichedFeedAddress(t *testing.T) {
	reader := chainstub.NewReader()
	reader.SetResult(1, "0xENRICHED", chain.SelectorDecimals, word(8))
	reader.SetResult(1, "0xENRICHED", chain.SelectorLatestAnswer, word(100000000)) // 1.00

	f := NewFeedFetcher(reader, registry.New(registry.File{}), nil)
	price, err := f.FetchPrice(context.Background(), PriceQuery{
		Token: domain.Token{Symbol: "USDC", Address: "0xUSDC", ChainID: 1, PriceFeed: "0xENRICHED"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if price == nil || *price != 1.0 {
		t.Errorf("price = %v, want 1.0 via the enriched feed", price)
	}
}

func TestFeedFetcher_ReadFailureIsUnknown(t *testing.T) {
	reader := chainstub.NewReader()
	reader.SetError(1, "0xFEED", chain.SelectorDecimals, errors.New("feed not deployed at block"))

	reg := registry.New(registry.File{
		Feeds: []registry.FeedEntry{{ChainID: 1, Address: "0xWETH", Feed: "0xFEED"}},
	})

	f := NewFeedFetcher(reader, reg, nil)
	price, err := f.FetchPrice(context.Background(), PriceQuery{
		Token: domain.Token{Symbol: "WETH", Address: "0xWETH", ChainID: 1},
	})
	if err != nil {
		t.Fatalf("read failures must be swallowed, got %v", err)
	}
	if price != nil {
		t.Errorf("price = %v, want nil", price)
	}
}

func TestFeedFetcher_NoFeedConfigured(t *testing.T) {
	f := NewFeedFetcher(chainstub.NewReader(), registry.New(registry.File{}), nil)
	price, err := f.FetchPrice(context.Background(), PriceQuery{
		Token: domain.Token{Symbol: "FOO", Address: "0xFOO", ChainID: 1},
	})
	if err != nil || price != nil {
		t.Errorf("got (%v, %v), want (nil, nil)", price, err)
	}
}
