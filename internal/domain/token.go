package domain

import "strings"

// Token represents a token referenced by an incentive.
// Identity is (lowercased address, chain ID); Price and PriceFeed are
// enrichment fields attached after construction.
type Token struct {
	Name      string   `json:"name"`
	Symbol    string   `json:"symbol"`
	Address   string   `json:"address"` // 20-byte hex address
	ChainID   int64    `json:"chainId"`
	Decimals  int      `json:"decimals"`
	Price     *float64 `json:"price,omitempty"`     // USD price (nullable)
	PriceFeed string   `json:"priceFeed,omitempty"` // on-chain feed address (nullable)
}

// Key returns the canonical identity key for the token.
func (t Token) Key() TokenKey {
	return NewTokenKey(t.Address, t.ChainID)
}

// TokenKey is the canonical (address, chain) identity of a token.
type TokenKey struct {
	Address string // lowercased
	ChainID int64
}

// NewTokenKey builds a TokenKey with case-insensitive address normalization.
func NewTokenKey(address string, chainID int64) TokenKey {
	return TokenKey{Address: strings.ToLower(address), ChainID: chainID}
}

// NormalizeAddress lowercases a hex address for case-insensitive comparison.
func NormalizeAddress(address string) string {
	return strings.ToLower(address)
}
