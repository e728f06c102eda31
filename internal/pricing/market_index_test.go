package pricing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"incentive-hub/internal/domain"
	"incentive-hub/internal/registry"
)

func indexRegistry() *registry.Registry {
	return registry.New(registry.File{
		Platforms: map[int64]string{1: "ethereum"},
	})
}

func TestMarketIndexFetcher_CurrentPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "/simple/token_price/ethereum")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"0xweth": {"usd": 1893.42}}`))
	}))
	defer srv.Close()

	f := NewMarketIndexFetcher(MarketIndexOptions{
		BaseURL:  srv.URL,
		Registry: indexRegistry(),
	})

	price, err := f.FetchPrice(context.Background(), PriceQuery{
		Token: domain.Token{Symbol: "WETH", Address: "0xWETH", ChainID: 1},
	})
	require.NoError(t, err)
	require.NotNil(t, price)
	require.InDelta(t, 1893.42, *price, 0.001)
}

func TestMarketIndexFetcher_RejectsHistorical(t *testing.T) {
	f := NewMarketIndexFetcher(MarketIndexOptions{
		BaseURL:  "http://unused.invalid",
		Registry: indexRegistry(),
	})

	block := uint64(12345)
	_, err := f.FetchPrice(context.Background(), PriceQuery{
		Token:       domain.Token{Symbol: "WETH", Address: "0xWETH", ChainID: 1},
		BlockNumber: &block,
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnsupportedQuery))
}

func TestMarketIndexFetcher_UnknownOutcomes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"ok false payload", `{"ok": false, "message": "rate limited"}`},
		{"empty payload", `{}`},
		{"address without quote", `{"0xweth": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f := NewMarketIndexFetcher(MarketIndexOptions{BaseURL: srv.URL, Registry: indexRegistry()})
			price, err := f.FetchPrice(context.Background(), PriceQuery{
				Token: domain.Token{Symbol: "WETH", Address: "0xWETH", ChainID: 1},
			})
			require.NoError(t, err)
			require.Nil(t, price)
		})
	}
}

func TestMarketIndexFetcher_UnsupportedChain(t *testing.T) {
	f := NewMarketIndexFetcher(MarketIndexOptions{
		BaseURL:  "http://unused.invalid",
		Registry: indexRegistry(),
	})

	price, err := f.FetchPrice(context.Background(), PriceQuery{
		Token: domain.Token{Symbol: "FOO", Address: "0xFOO", ChainID: 999},
	})
	require.NoError(t, err)
	require.Nil(t, price)
}

func TestMarketIndexFetcher_TransportFailureIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewMarketIndexFetcher(MarketIndexOptions{BaseURL: srv.URL, Registry: indexRegistry()})
	_, err := f.FetchPrice(context.Background(), PriceQuery{
		Token: domain.Token{Symbol: "WETH", Address: "0xWETH", ChainID: 1},
	})
	require.Error(t, err)
}
