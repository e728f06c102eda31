package pricing

import (
	"context"
	"testing"

	"incentive-hub/internal/domain"
)

func TestStaticFetcher(t *testing.T) {
	f := NewStaticFetcher(map[string]float64{"usdc": 1.0, "SYNTH": 0.97})

	price, err := f.FetchPrice(context.Background(), PriceQuery{
		Token: domain.Token{Symbol: "USDC"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if price == nil || *price != 1.0 {
		t.Errorf("price = %v, want 1.0 with case-insensitive symbol lookup", price)
	}

	price, err = f.FetchPrice(context.Background(), PriceQuery{
		Token: domain.Token{Symbol: "WETH"},
	})
	if err != nil || price != nil {
		t.Errorf("got (%v, %v), want (nil, nil) for an unlisted symbol", price, err)
	}

	// Static prices are constant, so historical queries are served.
	block := uint64(100)
	price, err = f.FetchPrice(context.Background(), PriceQuery{
		Token:       domain.Token{Symbol: "SYNTH"},
		BlockNumber: &block,
	})
	if err != nil {
		t.Fatal(err)
	}
	if price == nil || *price != 0.97 {
		t.Errorf("price = %v, want 0.97", price)
	}
}
