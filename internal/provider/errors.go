package provider

import "errors"

// Provider errors.
var (
	// ErrEmptyDataset is returned by health checks when a static
	// provider has nothing to serve.
	ErrEmptyDataset = errors.New("provider: empty dataset")

	// ErrNoEmitters is returned by the on-chain provider's health check
	// when no emission contracts are configured.
	ErrNoEmitters = errors.New("provider: no emitters configured")
)
