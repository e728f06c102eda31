// Package stub provides a configurable in-memory provider for tests.
package stub

import (
	"context"
	"sync"
	"time"

	"incentive-hub/internal/domain"
)

// Provider is a test double for provider.Provider. All knobs are safe to
// set before use; Latency delays both fetches and health checks to
// exercise timeout paths.
type Provider struct {
	mu         sync.Mutex
	source     domain.Source
	incentives []*domain.Incentive
	err        error
	healthy    bool
	latency    time.Duration
	fetchCalls int
}

// New creates a healthy stub provider for the given source.
func New(source domain.Source) *Provider {
	return &Provider{source: source, healthy: true}
}

// SetIncentives sets the records returned by Incentives.
func (p *Provider) SetIncentives(incs ...*domain.Incentive) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.incentives = incs
}

// SetError makes Incentives fail with err.
func (p *Provider) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// SetHealthy sets the health check result.
func (p *Provider) SetHealthy(healthy bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.healthy = healthy
}

// SetLatency injects a delay before every fetch and health answer.
func (p *Provider) SetLatency(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latency = d
}

// FetchCalls returns how many times Incentives was invoked.
func (p *Provider) FetchCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetchCalls
}

// Source implements provider.Provider.
func (p *Provider) Source() domain.Source {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.source
}

// Incentives implements provider.Provider.
func (p *Provider) Incentives(ctx context.Context, _ domain.FilterOptions) ([]*domain.Incentive, error) {
	p.mu.Lock()
	p.fetchCalls++
	latency := p.latency
	err := p.err
	incs := make([]*domain.Incentive, len(p.incentives))
	copy(incs, p.incentives)
	p.mu.Unlock()

	if latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(latency):
		}
	}
	if err != nil {
		return nil, err
	}
	return incs, nil
}

// Healthy implements provider.Provider.
func (p *Provider) Healthy(ctx context.Context) bool {
	p.mu.Lock()
	latency := p.latency
	healthy := p.healthy
	p.mu.Unlock()

	if latency > 0 {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(latency):
		}
	}
	return healthy
}
