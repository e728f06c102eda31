package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"incentive-hub/internal/observability"
)

func rpcTestServer(t *testing.T, result string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Method != "eth_call" {
			t.Errorf("method = %q, want eth_call", req.Method)
		}
		json.NewEncoder(w).Encode(rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(`"` + result + `"`)})
	}))
}

func TestRPCClientCallDecodesResult(t *testing.T) {
	word := "0x" + strings.Repeat("0", 63) + "1"
	srv := rpcTestServer(t, word)
	defer srv.Close()

	client := NewRPCClient(map[int64]string{1: srv.URL})

	got, err := client.Call(context.Background(), Call{ChainID: 1, To: "0xabc", Data: SelectorDecimals})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if len(got) != 32 || got[31] != 1 {
		t.Errorf("decoded %d bytes, want a 32 byte word ending in 1", len(got))
	}
}

func TestRPCClientCallRecordsLatency(t *testing.T) {
	srv := rpcTestServer(t, "0x"+strings.Repeat("0", 64))
	defer srv.Close()

	client := NewRPCClient(map[int64]string{1: srv.URL})
	if _, err := client.Call(context.Background(), Call{ChainID: 1, To: "0xabc", Data: SelectorTotalSupply}); err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	if n := testutil.CollectAndCount(observability.DefaultMetrics.RPCCallLatency); n < 1 {
		t.Errorf("expected an eth_call latency series after a call, got %d", n)
	}
}

func TestRPCClientUnknownChain(t *testing.T) {
	client := NewRPCClient(map[int64]string{1: "http://localhost:1"})
	if _, err := client.Call(context.Background(), Call{ChainID: 999, To: "0xabc", Data: SelectorDecimals}); err == nil {
		t.Fatal("expected an error for an unconfigured chain")
	}
}

func TestRPCClientNodeErrorNotRetried(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0", "id": req.ID,
			"error": map[string]any{"code": 3, "message": "execution reverted"},
		})
	}))
	defer srv.Close()

	client := NewRPCClient(map[int64]string{1: srv.URL})
	if _, err := client.Call(context.Background(), Call{ChainID: 1, To: "0xabc", Data: SelectorDecimals}); err == nil {
		t.Fatal("expected the node error to surface")
	}
	if calls.Load() != 1 {
		t.Errorf("node-side errors must not be retried, saw %d requests", calls.Load())
	}
}
