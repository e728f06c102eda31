package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"incentive-hub/internal/domain"
	"incentive-hub/internal/registry"
)

// DefaultMarketIndexURL is the public price index endpoint.
const DefaultMarketIndexURL = "https://api.coingecko.com/api/v3"

// MarketIndexFetcher prices a token through an external REST price index,
// keyed by (platform slug, contract address). Only chains with a configured
// platform slug are supported, and only current prices: historical queries
// fail loudly with ErrUnsupportedQuery.
type MarketIndexFetcher struct {
	baseURL  string
	client   *http.Client
	registry *registry.Registry
	logger   *slog.Logger
}

// MarketIndexOptions configures MarketIndexFetcher.
type MarketIndexOptions struct {
	BaseURL  string       // defaults to DefaultMarketIndexURL
	Client   *http.Client // defaults to a 10s-timeout client
	Registry *registry.Registry
	Logger   *slog.Logger
}

// NewMarketIndexFetcher creates an external market-index price fetcher.
func NewMarketIndexFetcher(opts MarketIndexOptions) *MarketIndexFetcher {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultMarketIndexURL
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketIndexFetcher{
		baseURL:  baseURL,
		client:   client,
		registry: opts.Registry,
		logger:   logger,
	}
}

// Name implements PriceFetcher.
func (f *MarketIndexFetcher) Name() string { return "market-index" }

// FetchPrice implements PriceFetcher.
func (f *MarketIndexFetcher) FetchPrice(ctx context.Context, query PriceQuery) (*float64, error) {
	if query.BlockNumber != nil {
		return nil, fmt.Errorf("%w: market index only serves current prices", ErrUnsupportedQuery)
	}

	slug, ok := f.registry.PlatformSlug(query.Token.ChainID)
	if !ok {
		// Chain not covered by the index.
		return nil, nil
	}

	address := domain.NormalizeAddress(query.Token.Address)
	endpoint := fmt.Sprintf("%s/simple/token_price/%s?contract_addresses=%s&vs_currencies=usd",
		f.baseURL, url.PathEscape(slug), url.QueryEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("market index request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read market index response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("market index status %d: %s", resp.StatusCode, string(body))
	}

	// Error payloads come back as {"ok": false, ...}; treat them as
	// "unknown" rather than a transport fault.
	var probe struct {
		OK *bool `json:"ok"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.OK != nil && !*probe.OK {
		f.logger.Debug("market index declined", "platform", slug, "address", address)
		return nil, nil
	}

	var payload map[string]map[string]float64
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode market index response: %w", err)
	}

	quotes, ok := payload[address]
	if !ok {
		return nil, nil
	}
	usd, ok := quotes["usd"]
	if !ok || usd <= 0 {
		return nil, nil
	}
	return floatPtr(usd), nil
}

var _ PriceFetcher = (*MarketIndexFetcher)(nil)
