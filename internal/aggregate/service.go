// Package aggregate fans incentive fetches out to every configured
// provider, joins the answers tolerantly, and normalizes the combined set:
// price-feed and price enrichment, filtering, fingerprinting, duplicate
// merging and presentation ordering.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"incentive-hub/internal/domain"
	"incentive-hub/internal/idhash"
	"incentive-hub/internal/observability"
	"incentive-hub/internal/pricing"
	"incentive-hub/internal/provider"
	"incentive-hub/internal/registry"
)

// DefaultProviderTimeout bounds how long one provider may hold up a
// combined fetch.
const DefaultProviderTimeout = 10 * time.Second

// Result is the outcome of one combined fetch. Complete is false when at
// least one provider failed or timed out and its records are missing.
type Result struct {
	Incentives  []*domain.Incentive
	LastUpdated time.Time
	Complete    bool
}

// Service is the incentive aggregation service.
type Service struct {
	providers []provider.Provider
	registry  *registry.Registry
	resolver  *pricing.Resolver // optional token price enrichment
	timeout   time.Duration
	clock     func() time.Time
	logger    *slog.Logger
}

// Options configures the aggregation service.
type Options struct {
	Providers       []provider.Provider
	Registry        *registry.Registry
	Resolver        *pricing.Resolver
	ProviderTimeout time.Duration // defaults to DefaultProviderTimeout
	Clock           func() time.Time
	Logger          *slog.Logger
}

// New creates an aggregation service.
func New(opts Options) *Service {
	timeout := opts.ProviderTimeout
	if timeout == 0 {
		timeout = DefaultProviderTimeout
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		providers: opts.Providers,
		registry:  opts.Registry,
		resolver:  opts.Resolver,
		timeout:   timeout,
		clock:     clock,
		logger:    logger,
	}
}

type fetchOutcome struct {
	index  int
	source domain.Source
	incs   []*domain.Incentive
	err    error
}

// Incentives runs a combined fetch across all providers. Provider
// failures and timeouts cost only that provider's records; a total outage
// yields an empty, complete-false result rather than an error. The only
// returned error is a cancelled context.
func (s *Service) Incentives(ctx context.Context, filter domain.FilterOptions) (Result, error) {
	started := s.clock()
	now := started.Unix()

	raw, complete := s.fanOut(ctx, filter)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// Filtering happens before the merge so a filtered dimension keeps the
	// matching provider's record even when another source shares its
	// fingerprint.
	matched := raw[:0]
	for _, inc := range raw {
		s.enrich(ctx, inc)
		if filter.Matches(inc) {
			matched = append(matched, inc)
		}
	}
	for _, inc := range matched {
		idhash.AssignID(inc)
	}

	dupes := mergedCount(matched)
	out := gatherEqualIncentives(matched, now)
	sortIncentives(out)

	status := "partial"
	if complete {
		status = "complete"
		observability.MarkAggregationSuccess(now)
	}
	observability.RecordAggregation(status, time.Since(started).Seconds(), dupes, len(out))

	return Result{Incentives: out, LastUpdated: started, Complete: complete}, nil
}

// fanOut queries every provider concurrently under a per-provider budget.
// A slow provider is raced against the deadline, not cancelled; its late
// answer is dropped.
func (s *Service) fanOut(ctx context.Context, filter domain.FilterOptions) ([]*domain.Incentive, bool) {
	outcomes := make(chan fetchOutcome, len(s.providers))
	var wg sync.WaitGroup

	for i, p := range s.providers {
		wg.Add(1)
		go func(index int, p provider.Provider) {
			defer wg.Done()
			outcomes <- s.fetchOne(ctx, index, p, filter)
		}(i, p)
	}
	wg.Wait()
	close(outcomes)

	// Reassemble in provider order so output ordering is deterministic.
	byIndex := make([][]*domain.Incentive, len(s.providers))
	complete := true
	for outcome := range outcomes {
		if outcome.err != nil {
			complete = false
			s.logger.Error("provider fetch failed, continuing without it",
				"source", outcome.source, "error", outcome.err)
			continue
		}
		byIndex[outcome.index] = outcome.incs
	}

	var raw []*domain.Incentive
	for _, incs := range byIndex {
		raw = append(raw, incs...)
	}
	return raw, complete
}

func (s *Service) fetchOne(ctx context.Context, index int, p provider.Provider, filter domain.FilterOptions) fetchOutcome {
	source := p.Source()
	started := time.Now()

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan fetchOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchOutcome{index: index, source: source, err: fmt.Errorf("provider panicked: %v", r)}
			}
		}()
		incs, err := p.Incentives(fetchCtx, filter)
		done <- fetchOutcome{index: index, source: source, incs: incs, err: err}
	}()

	var outcome fetchOutcome
	select {
	case outcome = <-done:
	case <-fetchCtx.Done():
		outcome = fetchOutcome{index: index, source: source, err: fetchCtx.Err()}
	}

	status := "ok"
	if outcome.err != nil {
		status = "error"
	}
	observability.RecordProviderFetch(source.String(), status, time.Since(started).Seconds(), len(outcome.incs))
	return outcome
}

// enrich fills in price feed addresses and USD prices on every token the
// incentive references. Enrichment is best effort; a token that cannot be
// priced keeps a nil price.
func (s *Service) enrich(ctx context.Context, inc *domain.Incentive) {
	s.enrichToken(ctx, &inc.RewardedToken)
	for i := range inc.InvolvedTokens {
		s.enrichToken(ctx, &inc.InvolvedTokens[i])
	}
	if inc.RewardToken != nil {
		s.enrichToken(ctx, inc.RewardToken)
	}
}

func (s *Service) enrichToken(ctx context.Context, t *domain.Token) {
	if t.PriceFeed == "" && s.registry != nil {
		if feed, ok := s.registry.PriceFeedFor(*t); ok {
			t.PriceFeed = feed
		}
	}
	if t.Price == nil && s.resolver != nil {
		price, err := s.resolver.TokenPrice(ctx, pricing.PriceQuery{Token: *t})
		if err != nil {
			s.logger.Debug("token price enrichment failed", "token", t.Symbol, "error", err)
			return
		}
		t.Price = price
	}
}

// HealthStatus probes every provider concurrently and reports readiness
// per source.
func (s *Service) HealthStatus(ctx context.Context) map[domain.Source]bool {
	out := make(map[domain.Source]bool, len(s.providers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, p := range s.providers {
		wg.Add(1)
		go func(p provider.Provider) {
			defer wg.Done()
			source := p.Source()
			healthy := p.Healthy(ctx)
			observability.RecordProviderHealth(source.String(), healthy)
			mu.Lock()
			out[source] = healthy
			mu.Unlock()
		}(p)
	}
	wg.Wait()
	return out
}

// Sources lists the configured provider sources in registration order.
func (s *Service) Sources() []domain.Source {
	out := make([]domain.Source, len(s.providers))
	for i, p := range s.providers {
		out[i] = p.Source()
	}
	return out
}
