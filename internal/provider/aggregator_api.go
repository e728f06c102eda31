package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jpillora/backoff"

	"incentive-hub/internal/domain"
	"incentive-hub/internal/registry"
)

// Aggregator API defaults.
const (
	DefaultAPIPageSize   = 100
	DefaultAPIMaxRetries = 3
)

// apiToken is the token shape of the remote campaign aggregator.
type apiToken struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
}

// apiCampaign is one remote campaign record. One record is one funding
// window; windows of the same opportunity collapse later in the
// aggregation merge.
type apiCampaign struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	ChainID        int64      `json:"chainId"`
	RewardToken    apiToken   `json:"rewardToken"`
	Tokens         []apiToken `json:"tokens"`
	APR            *float64   `json:"apr"`
	StartTimestamp int64      `json:"startTimestamp"`
	EndTimestamp   *int64     `json:"endTimestamp"`
	Budget         string     `json:"budget"`
	Description    string     `json:"description"`
	CampaignURL    string     `json:"campaignUrl"`
}

// AggregatorAPIProvider reads campaigns from a third-party campaign
// aggregator REST API, page by page until an empty page is returned.
type AggregatorAPIProvider struct {
	baseURL    string
	client     *http.Client
	registry   *registry.Registry
	pageSize   int
	maxRetries int
	clock      func() time.Time
	logger     *slog.Logger
}

// AggregatorAPIOptions configures AggregatorAPIProvider.
type AggregatorAPIOptions struct {
	BaseURL    string
	Client     *http.Client // defaults to a 10s-timeout client
	Registry   *registry.Registry
	PageSize   int
	MaxRetries int
	Clock      func() time.Time
	Logger     *slog.Logger
}

// NewAggregatorAPIProvider creates an aggregator-API provider.
func NewAggregatorAPIProvider(opts AggregatorAPIOptions) *AggregatorAPIProvider {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = DefaultAPIPageSize
	}
	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultAPIMaxRetries
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AggregatorAPIProvider{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		client:     client,
		registry:   opts.Registry,
		pageSize:   pageSize,
		maxRetries: maxRetries,
		clock:      clock,
		logger:     logger,
	}
}

// Source implements Provider.
func (p *AggregatorAPIProvider) Source() domain.Source { return domain.SourceAggregatorAPI }

// Incentives implements Provider. The chain filter is forwarded to the
// upstream query as a narrowing hint; the caller re-filters regardless.
func (p *AggregatorAPIProvider) Incentives(ctx context.Context, filter domain.FilterOptions) ([]*domain.Incentive, error) {
	now := p.clock().Unix()
	var out []*domain.Incentive

	for page := 1; ; page++ {
		records, err := p.fetchPage(ctx, page, p.pageSize, filter.ChainIDs)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}
		if len(records) == 0 {
			break
		}

		for _, rec := range records {
			inc, ok := p.toIncentive(rec, now)
			if !ok {
				continue
			}
			out = append(out, inc)
		}
	}

	return out, nil
}

// toIncentive maps one remote record to a normalized incentive. Records
// with unresolvable tokens are skipped.
func (p *AggregatorAPIProvider) toIncentive(rec apiCampaign, now int64) (*domain.Incentive, bool) {
	reward, ok := p.resolveToken(rec.RewardToken, rec.ChainID)
	if !ok {
		p.logger.Warn("skipping aggregator campaign, reward token unresolved",
			"campaign", rec.ID, "token", rec.RewardToken.Address, "chainId", rec.ChainID)
		return nil, false
	}

	involved := make([]domain.Token, 0, len(rec.Tokens))
	for _, t := range rec.Tokens {
		tok, ok := p.resolveToken(t, rec.ChainID)
		if !ok {
			p.logger.Warn("skipping aggregator campaign, involved token unresolved",
				"campaign", rec.ID, "token", t.Address, "chainId", rec.ChainID)
			return nil, false
		}
		involved = append(involved, tok)
	}
	if len(involved) == 0 {
		return nil, false
	}

	campaigns := []domain.CampaignConfig{{
		StartTimestamp: rec.StartTimestamp,
		EndTimestamp:   rec.EndTimestamp,
		Budget:         rec.Budget,
		APR:            rec.APR,
	}}
	state := domain.DeriveCampaignState(campaigns, now)

	inc := &domain.Incentive{
		Name:           rec.Name,
		ChainID:        rec.ChainID,
		Type:           domain.TypeToken,
		RewardedToken:  involved[0],
		InvolvedTokens: involved,
		Source:         domain.SourceAggregatorAPI,
		Description:    rec.Description,
		ClaimLink:      rec.CampaignURL,
		RewardToken:    &reward,
	}
	inc.ApplyCampaignState(state)
	if state.Current != nil {
		inc.CurrentAPR = rec.APR
	}
	return inc, true
}

// resolveToken prefers the registry's canonical identity and falls back
// to the metadata carried by the API payload.
func (p *AggregatorAPIProvider) resolveToken(t apiToken, chainID int64) (domain.Token, bool) {
	if t.Address == "" {
		return domain.Token{}, false
	}
	if tok, ok := p.registry.ResolveToken(t.Address, chainID); ok {
		return tok, true
	}
	if t.Symbol == "" || t.Decimals <= 0 {
		return domain.Token{}, false
	}
	return domain.Token{
		Name:     t.Name,
		Symbol:   t.Symbol,
		Address:  t.Address,
		ChainID:  chainID,
		Decimals: t.Decimals,
	}, true
}

// fetchPage requests one page with retry and exponential backoff on
// transport failures.
func (p *AggregatorAPIProvider) fetchPage(ctx context.Context, page, items int, chainIDs []int64) ([]apiCampaign, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("items", strconv.Itoa(items))
	if len(chainIDs) > 0 {
		ids := make([]string, len(chainIDs))
		for i, id := range chainIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		query.Set("chainId", strings.Join(ids, ","))
	}
	endpoint := fmt.Sprintf("%s/v1/campaigns?%s", p.baseURL, query.Encode())

	boff := &backoff.Backoff{
		Min:    200 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(boff.Duration()):
			}
		}

		records, err := p.doFetch(ctx, endpoint)
		if err == nil {
			return records, nil
		}
		lastErr = err
		p.logger.Debug("aggregator page fetch failed, retrying",
			"endpoint", endpoint, "attempt", attempt, "error", err)
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (p *AggregatorAPIProvider) doFetch(ctx context.Context, endpoint string) ([]apiCampaign, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var records []apiCampaign
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode campaigns: %w", err)
	}
	return records, nil
}

// Healthy implements Provider. A reachable upstream that serves at least
// one record is healthy; errors, timeouts and empty results are not.
func (p *AggregatorAPIProvider) Healthy(ctx context.Context) bool {
	return probe(ctx, DefaultHealthTimeout, func(ctx context.Context) error {
		records, err := p.fetchPage(ctx, 1, 1, nil)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return ErrEmptyDataset
		}
		return nil
	})
}

var _ Provider = (*AggregatorAPIProvider)(nil)
