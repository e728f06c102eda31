// Package chain provides the contract read boundary: an opaque RPC
// capability exposing EVM contract reads.
package chain

import (
	"context"
	"math/big"
)

// Call describes a single read-only contract call.
type Call struct {
	ChainID     int64   // target chain
	To          string  // contract address
	Data        string  // ABI-encoded calldata, 0x-prefixed hex
	BlockNumber *uint64 // nil means latest
}

// Reader executes read-only contract calls. Implementations may fail with
// transport errors; callers own timeout and retry policy beyond what the
// implementation provides.
type Reader interface {
	// Call executes an eth_call and returns the raw return data.
	Call(ctx context.Context, call Call) ([]byte, error)
}

// Uint256 decodes a 32-byte big-endian return value into a big.Int.
// Shorter payloads are accepted and interpreted big-endian.
func Uint256(data []byte) *big.Int {
	if len(data) >= 32 {
		data = data[:32]
	}
	return new(big.Int).SetBytes(data)
}

// CallUint256 runs a call and decodes the result as uint256.
func CallUint256(ctx context.Context, r Reader, call Call) (*big.Int, error) {
	out, err := r.Call(ctx, call)
	if err != nil {
		return nil, err
	}
	return Uint256(out), nil
}
