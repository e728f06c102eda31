// Package stub provides an in-memory Reader for tests.
package stub

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"incentive-hub/internal/chain"
)

// ErrNoResult is returned when no canned result matches a call.
var ErrNoResult = errors.New("stub: no result configured for call")

// Reader returns canned results keyed by (chain, contract, calldata).
// Implements chain.Reader.
type Reader struct {
	mu      sync.Mutex
	results map[string][]byte
	errs    map[string]error
	calls   []chain.Call
}

// NewReader creates an empty stub reader.
func NewReader() *Reader {
	return &Reader{
		results: make(map[string][]byte),
		errs:    make(map[string]error),
	}
}

func key(chainID int64, to, data string) string {
	return strings.ToLower(strings.Join([]string{strconv.FormatInt(chainID, 10), to, data}, "|"))
}

// SetResult registers the return data for a call.
func (r *Reader) SetResult(chainID int64, to, data string, result []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[key(chainID, to, data)] = result
}

// SetError registers an error for a call.
func (r *Reader) SetError(chainID int64, to, data string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[key(chainID, to, data)] = err
}

// Calls returns all calls seen so far.
func (r *Reader) Calls() []chain.Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]chain.Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Call returns the canned result for the call, or ErrNoResult.
func (r *Reader) Call(_ context.Context, call chain.Call) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, call)

	k := key(call.ChainID, call.To, call.Data)
	if err, ok := r.errs[k]; ok {
		return nil, err
	}
	if res, ok := r.results[k]; ok {
		out := make([]byte, len(res))
		copy(out, res)
		return out, nil
	}
	return nil, ErrNoResult
}

var _ chain.Reader = (*Reader)(nil)
