// Package registry holds the static per-chain lookup tables: canonical
// token metadata, wrapped/derivative token mappings, price feed addresses,
// proxy-token substitutions and market index platform slugs.
//
// Lookups never fail loudly: a miss returns ok=false.
package registry

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"incentive-hub/internal/domain"
)

//go:embed registry.yaml
var defaultRegistryYAML []byte

// TokenEntry is the yaml shape of one canonical token.
type TokenEntry struct {
	Name      string `yaml:"name"`
	Symbol    string `yaml:"symbol"`
	Address   string `yaml:"address"`
	ChainID   int64  `yaml:"chainId"`
	Decimals  int    `yaml:"decimals"`
	PriceFeed string `yaml:"priceFeed,omitempty"`
}

// WrappedEntry maps a wrapped/derivative token to its underlying token.
type WrappedEntry struct {
	ChainID    int64  `yaml:"chainId"`
	Address    string `yaml:"address"`
	Underlying string `yaml:"underlying"`
}

// FeedEntry maps a token to an on-chain price feed address.
type FeedEntry struct {
	ChainID int64  `yaml:"chainId"`
	Address string `yaml:"address"`
	Feed    string `yaml:"feed"`
}

// ProxyEntry maps a token to a proxy token whose market price stands in
// for it (e.g. a staked derivative priced via its underlying).
type ProxyEntry struct {
	ChainID int64  `yaml:"chainId"`
	Address string `yaml:"address"`
	Proxy   string `yaml:"proxy"`
}

// PoolEntry describes a lending-pool price oracle instance.
type PoolEntry struct {
	ChainID          int64  `yaml:"chainId"`
	Oracle           string `yaml:"oracle"`           // pool price oracle contract
	BaseCurrencyUnit string `yaml:"baseCurrencyUnit"` // decimal string, e.g. "100000000" for 8 decimals
}

// File is the yaml document shape.
type File struct {
	Tokens    []TokenEntry     `yaml:"tokens"`
	Wrapped   []WrappedEntry   `yaml:"wrapped"`
	Feeds     []FeedEntry      `yaml:"feeds"`
	Proxies   []ProxyEntry     `yaml:"proxies"`
	Pools     []PoolEntry      `yaml:"pools"`
	Platforms map[int64]string `yaml:"platforms"` // chainId -> market index slug
}

// Registry resolves tokens and pricing metadata from static tables.
type Registry struct {
	tokens    map[domain.TokenKey]TokenEntry
	wrapped   map[domain.TokenKey]string
	feeds     map[domain.TokenKey]string
	proxies   map[domain.TokenKey]string
	pools     map[int64][]PoolEntry
	platforms map[int64]string
}

// New builds a Registry from a parsed File.
func New(f File) *Registry {
	r := &Registry{
		tokens:    make(map[domain.TokenKey]TokenEntry),
		wrapped:   make(map[domain.TokenKey]string),
		feeds:     make(map[domain.TokenKey]string),
		proxies:   make(map[domain.TokenKey]string),
		pools:     make(map[int64][]PoolEntry),
		platforms: make(map[int64]string),
	}
	for _, t := range f.Tokens {
		r.tokens[domain.NewTokenKey(t.Address, t.ChainID)] = t
	}
	for _, w := range f.Wrapped {
		r.wrapped[domain.NewTokenKey(w.Address, w.ChainID)] = domain.NormalizeAddress(w.Underlying)
	}
	for _, fe := range f.Feeds {
		r.feeds[domain.NewTokenKey(fe.Address, fe.ChainID)] = fe.Feed
	}
	for _, p := range f.Proxies {
		r.proxies[domain.NewTokenKey(p.Address, p.ChainID)] = domain.NormalizeAddress(p.Proxy)
	}
	for _, p := range f.Pools {
		r.pools[p.ChainID] = append(r.pools[p.ChainID], p)
	}
	for chainID, slug := range f.Platforms {
		r.platforms[chainID] = slug
	}
	return r
}

// Load parses a yaml registry document.
func Load(reader io.Reader) (*Registry, error) {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	return New(f), nil
}

// LoadFile loads a registry from a yaml file path.
func LoadFile(path string) (*Registry, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	defer fh.Close()
	return Load(fh)
}

// Default returns the registry built from the embedded tables.
func Default() *Registry {
	var f File
	if err := yaml.Unmarshal(defaultRegistryYAML, &f); err != nil {
		// The embedded document is validated by tests; a parse failure
		// here is a build defect.
		panic(fmt.Sprintf("registry: embedded tables invalid: %v", err))
	}
	return New(f)
}

// ResolveToken returns the canonical token for (address, chain).
// Returns ok=false on miss; it never fails loudly.
func (r *Registry) ResolveToken(address string, chainID int64) (domain.Token, bool) {
	entry, ok := r.tokens[domain.NewTokenKey(address, chainID)]
	if !ok {
		return domain.Token{}, false
	}
	return domain.Token{
		Name:      entry.Name,
		Symbol:    entry.Symbol,
		Address:   entry.Address,
		ChainID:   entry.ChainID,
		Decimals:  entry.Decimals,
		PriceFeed: entry.PriceFeed,
	}, true
}

// Underlying returns the underlying token of a wrapped/derivative token.
func (r *Registry) Underlying(address string, chainID int64) (domain.Token, bool) {
	underlying, ok := r.wrapped[domain.NewTokenKey(address, chainID)]
	if !ok {
		return domain.Token{}, false
	}
	return r.ResolveToken(underlying, chainID)
}

// Feed returns the configured price feed address for a token.
func (r *Registry) Feed(address string, chainID int64) (string, bool) {
	feed, ok := r.feeds[domain.NewTokenKey(address, chainID)]
	return feed, ok
}

// ProxyToken returns the proxy token priced in place of the given token.
func (r *Registry) ProxyToken(address string, chainID int64) (domain.Token, bool) {
	proxy, ok := r.proxies[domain.NewTokenKey(address, chainID)]
	if !ok {
		return domain.Token{}, false
	}
	return r.ResolveToken(proxy, chainID)
}

// Pools returns the lending-pool oracle instances for a chain.
func (r *Registry) Pools(chainID int64) []PoolEntry {
	return r.pools[chainID]
}

// PlatformSlug returns the market index platform slug for a chain.
func (r *Registry) PlatformSlug(chainID int64) (string, bool) {
	slug, ok := r.platforms[chainID]
	return slug, ok
}

// PriceFeedFor resolves a price feed address for a token, trying in order:
// the canonical token info, the wrapped-token table (underlying's feed),
// and the static feed table. First hit wins.
func (r *Registry) PriceFeedFor(token domain.Token) (string, bool) {
	if info, ok := r.ResolveToken(token.Address, token.ChainID); ok && info.PriceFeed != "" {
		return info.PriceFeed, true
	}
	if underlying, ok := r.Underlying(token.Address, token.ChainID); ok {
		if underlying.PriceFeed != "" {
			return underlying.PriceFeed, true
		}
		if feed, ok := r.Feed(underlying.Address, underlying.ChainID); ok {
			return feed, true
		}
	}
	if feed, ok := r.Feed(token.Address, token.ChainID); ok {
		return feed, true
	}
	return "", false
}

// Chains returns all chain IDs that have at least one canonical token.
func (r *Registry) Chains() []int64 {
	seen := make(map[int64]struct{})
	for key := range r.tokens {
		seen[key.ChainID] = struct{}{}
	}
	chains := make([]int64, 0, len(seen))
	for id := range seen {
		chains = append(chains, id)
	}
	return chains
}

// Tokens returns all canonical tokens for a chain.
func (r *Registry) Tokens(chainID int64) []domain.Token {
	var out []domain.Token
	for key, entry := range r.tokens {
		if key.ChainID != chainID {
			continue
		}
		tok, _ := r.ResolveToken(entry.Address, entry.ChainID)
		out = append(out, tok)
	}
	return out
}
