package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"incentive-hub/internal/aggregate"
	"incentive-hub/internal/domain"
	"incentive-hub/internal/idhash"
	"incentive-hub/internal/observability"
	"incentive-hub/internal/provider"
	"incentive-hub/internal/provider/stub"
	"incentive-hub/internal/registry"
)

const (
	wethAddr = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	usdcAddr = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func liveIncentive(name string) *domain.Incentive {
	weth := domain.Token{Symbol: "WETH", Address: wethAddr, ChainID: 1, Decimals: 18}
	usdc := domain.Token{Symbol: "USDC", Address: usdcAddr, ChainID: 1, Decimals: 6}
	inc := &domain.Incentive{
		Name:           name,
		ChainID:        1,
		Type:           domain.TypeToken,
		RewardedToken:  usdc,
		InvolvedTokens: []domain.Token{usdc, weth},
		Source:         domain.SourceCuratedRounds,
		Status:         domain.StatusLive,
		RewardToken:    &weth,
		AllCampaigns:   []domain.CampaignConfig{{StartTimestamp: 0}},
	}
	idhash.AssignID(inc)
	return inc
}

func newTestServer(t *testing.T, providers ...provider.Provider) (*Server, *httptest.Server) {
	t.Helper()
	svc := aggregate.New(aggregate.Options{
		Providers: providers,
		Registry:  registry.New(registry.File{}),
		Logger:    discardLogger(),
	})
	srv := New(Options{
		Service:     svc,
		ResponseTTL: time.Minute,
		Logger:      discardLogger(),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func getJSON(t *testing.T, url string) (int, envelope) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	var body envelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response failed: %v", err)
	}
	return resp.StatusCode, body
}

func TestIncentivesEndpoint(t *testing.T) {
	p := stub.New(domain.SourceCuratedRounds)
	p.SetIncentives(liveIncentive("lp rewards"))
	_, ts := newTestServer(t, p)

	code, body := getJSON(t, ts.URL+"/v1/incentives")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !body.Success {
		t.Fatal("expected success envelope")
	}

	raw, _ := json.Marshal(body.Data)
	var data incentivesData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("decoding data failed: %v", err)
	}
	if data.TotalCount != 1 || len(data.Incentives) != 1 {
		t.Fatalf("expected 1 incentive, got count=%d len=%d", data.TotalCount, len(data.Incentives))
	}
	if data.Incentives[0].Name != "lp rewards" {
		t.Errorf("unexpected incentive %q", data.Incentives[0].Name)
	}
	if _, err := time.Parse(time.RFC3339, data.LastUpdated); err != nil {
		t.Errorf("lastUpdated not RFC3339: %q", data.LastUpdated)
	}
}

func TestIncentivesEndpointInvalidQuery(t *testing.T) {
	p := stub.New(domain.SourceCuratedRounds)
	_, ts := newTestServer(t, p)

	for _, query := range []string{
		"?status=SOMEDAY",
		"?chainId=abc",
		"?source=NOPE",
		"?type=CASH",
	} {
		code, body := getJSON(t, ts.URL+"/v1/incentives"+query)
		if code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", query, code)
		}
		if body.Success {
			t.Errorf("%s: expected failure envelope", query)
		}
		if body.Error == nil || body.Error.Code != "INVALID_QUERY" {
			t.Errorf("%s: unexpected error body %+v", query, body.Error)
		}
	}
}

func TestIncentivesEndpointFilters(t *testing.T) {
	p := stub.New(domain.SourceCuratedRounds)
	p.SetIncentives(liveIncentive("lp rewards"))
	_, ts := newTestServer(t, p)

	// Lowercase values and comma-separated lists are accepted.
	code, body := getJSON(t, ts.URL+"/v1/incentives?status=live,soon&chainId=1&type=token")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	raw, _ := json.Marshal(body.Data)
	var data incentivesData
	json.Unmarshal(raw, &data)
	if data.TotalCount != 1 {
		t.Fatalf("expected matching incentive, got %d", data.TotalCount)
	}

	code, body = getJSON(t, ts.URL+"/v1/incentives?chainId=42161")
	raw, _ = json.Marshal(body.Data)
	json.Unmarshal(raw, &data)
	if code != http.StatusOK || data.TotalCount != 0 {
		t.Fatalf("expected empty match, got code=%d count=%d", code, data.TotalCount)
	}
}

func TestIncentivesEndpointTotalOutage(t *testing.T) {
	p := stub.New(domain.SourceCuratedRounds)
	p.SetError(errors.New("upstream down"))
	_, ts := newTestServer(t, p)

	code, body := getJSON(t, ts.URL+"/v1/incentives")
	if code != http.StatusOK {
		t.Fatalf("expected outage to degrade, not fail: got %d", code)
	}
	if !body.Success {
		t.Fatal("expected success envelope on outage")
	}
	raw, _ := json.Marshal(body.Data)
	var data incentivesData
	json.Unmarshal(raw, &data)
	if data.TotalCount != 0 || data.Incentives == nil {
		t.Errorf("expected empty incentive list, got %+v", data)
	}
}

func TestIncentivesEndpointCachesResponses(t *testing.T) {
	m := observability.DefaultMetrics
	hitBefore := testutil.ToFloat64(m.CacheHits.WithLabelValues("responses"))
	missBefore := testutil.ToFloat64(m.CacheMisses.WithLabelValues("responses"))

	p := stub.New(domain.SourceCuratedRounds)
	p.SetIncentives(liveIncentive("cached"))
	_, ts := newTestServer(t, p)

	getJSON(t, ts.URL+"/v1/incentives?status=LIVE")
	getJSON(t, ts.URL+"/v1/incentives?status=live") // same canonical filter
	if calls := p.FetchCalls(); calls != 1 {
		t.Errorf("expected one upstream fetch for identical filters, got %d", calls)
	}

	getJSON(t, ts.URL+"/v1/incentives?status=PAST")
	if calls := p.FetchCalls(); calls != 2 {
		t.Errorf("expected a distinct filter to fetch again, got %d", calls)
	}

	if got := testutil.ToFloat64(m.CacheHits.WithLabelValues("responses")) - hitBefore; got != 1 {
		t.Errorf("response cache hits recorded = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheMisses.WithLabelValues("responses")) - missBefore; got != 2 {
		t.Errorf("response cache misses recorded = %v, want 2", got)
	}
}

func TestHealthEndpoint(t *testing.T) {
	up := stub.New(domain.SourceCuratedRounds)
	down := stub.New(domain.SourceAggregatorAPI)
	down.SetHealthy(false)

	_, ts := newTestServer(t, up, down)
	code, body := getJSON(t, ts.URL+"/v1/health")
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with one source down, got %d", code)
	}
	raw, _ := json.Marshal(body.Data)
	var data healthData
	json.Unmarshal(raw, &data)
	if data.Healthy {
		t.Error("expected overall unhealthy")
	}
	if !data.Sources["CURATED_ROUNDS"] || data.Sources["AGGREGATOR_API"] {
		t.Errorf("unexpected per-source health: %+v", data.Sources)
	}

	down.SetHealthy(true)
	code, _ = getJSON(t, ts.URL+"/v1/health")
	if code != http.StatusOK {
		t.Fatalf("expected 200 with all sources up, got %d", code)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	p := stub.New(domain.SourceCuratedRounds)
	_, ts := newTestServer(t, p)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/incentives", nil)
	req.Header.Set("X-Request-Id", "test-correlation-id")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-Id"); got != "test-correlation-id" {
		t.Errorf("expected inbound request id echoed, got %q", got)
	}

	resp, err = http.Get(ts.URL + "/v1/incentives")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("expected a generated request id")
	}
}
