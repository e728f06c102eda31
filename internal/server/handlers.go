package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"incentive-hub/internal/domain"
	"incentive-hub/internal/observability"
)

// envelope is the uniform response shape of every JSON endpoint.
type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// incentivesData is the payload of /v1/incentives.
type incentivesData struct {
	Incentives  []*domain.Incentive `json:"incentives"`
	TotalCount  int                 `json:"totalCount"`
	LastUpdated string              `json:"lastUpdated"`
}

// healthData is the payload of /v1/health.
type healthData struct {
	Healthy bool            `json:"healthy"`
	Sources map[string]bool `json:"sources"`
}

// cachedResult is one cached combined fetch, keyed by canonical filter.
type cachedResult struct {
	incentives  []*domain.Incentive
	lastUpdated time.Time
}

// handleIncentives serves the aggregated incentive list. A provider
// outage degrades the payload, never the status code: the response stays
// success with whatever records survived.
func (s *Server) handleIncentives(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		var qe *queryError
		message := err.Error()
		if errors.As(err, &qe) {
			message = qe.Message
		}
		s.writeError(w, http.StatusBadRequest, "INVALID_QUERY", message)
		return
	}

	key := filterKey(filter)
	result, ok := s.responses.Get(key)
	observability.RecordCacheLookup("responses", ok)
	if !ok {
		res, err := s.service.Incentives(r.Context(), filter)
		if err != nil {
			// Only context failures surface here.
			s.writeError(w, http.StatusServiceUnavailable, "FETCH_CANCELLED", "incentive fetch did not complete")
			return
		}
		result = cachedResult{incentives: res.Incentives, lastUpdated: res.LastUpdated}
		s.responses.Set(key, result)
	}

	incentives := result.incentives
	if incentives == nil {
		incentives = []*domain.Incentive{}
	}
	s.writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data: incentivesData{
			Incentives:  incentives,
			TotalCount:  len(incentives),
			LastUpdated: result.lastUpdated.UTC().Format(time.RFC3339),
		},
	})
}

// handleHealth reports per-source readiness. The endpoint answers 200
// when every source is healthy and 503 otherwise, so it doubles as a
// probe target.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.service.HealthStatus(r.Context())

	sources := make(map[string]bool, len(status))
	healthy := true
	for source, ok := range status {
		sources[source.String()] = ok
		healthy = healthy && ok
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, envelope{
		Success: true,
		Data:    healthData{Healthy: healthy, Sources: sources},
	})
}

func (s *Server) writeError(w http.ResponseWriter, code int, errCode, message string) {
	s.writeJSON(w, code, envelope{
		Success: false,
		Error:   &errorBody{Message: message, Code: errCode},
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("encoding response failed", "error", err)
	}
}
