// Package provider contains the incentive data-source adapters. Each
// provider owns one upstream (curated dataset, aggregator REST API, direct
// contract reads, or local static configuration) and exposes the same
// fetch + health contract to the aggregation service.
package provider

import (
	"context"
	"fmt"
	"time"

	"incentive-hub/internal/domain"
)

// Default timeouts. Health probes are budgeted separately from full data
// fetches.
const (
	DefaultHealthTimeout = 5 * time.Second
	DefaultFetchTimeout  = 10 * time.Second
)

// Provider is one incentive data source. Incentives may over-fetch: the
// filter is a narrowing hint for the upstream query, and the aggregation
// service re-filters everything itself.
type Provider interface {
	Source() domain.Source
	Incentives(ctx context.Context, filter domain.FilterOptions) ([]*domain.Incentive, error)
	Healthy(ctx context.Context) bool
}

// probe runs a health check under a timeout. Any error, panic, or elapsed
// budget maps to unhealthy. The underlying call is raced against the
// deadline, not cancelled: its result is simply ignored once the budget
// elapses.
func probe(ctx context.Context, timeout time.Duration, check func(context.Context) error) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("health check panicked: %v", r)
			}
		}()
		done <- check(ctx)
	}()

	select {
	case err := <-done:
		return err == nil
	case <-ctx.Done():
		return false
	}
}

// chainWanted reports whether a chain passes the filter's narrowing hint.
func chainWanted(filter domain.FilterOptions, chainID int64) bool {
	if len(filter.ChainIDs) == 0 {
		return true
	}
	for _, id := range filter.ChainIDs {
		if id == chainID {
			return true
		}
	}
	return false
}
