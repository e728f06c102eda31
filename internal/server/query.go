package server

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"incentive-hub/internal/domain"
)

// queryError describes a rejected query parameter.
type queryError struct {
	Field   string
	Message string
}

func (e *queryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// parseFilter builds filter options from the request query. Each dimension
// accepts repeated parameters or comma-separated values; unknown values
// reject the whole request.
func parseFilter(values url.Values) (domain.FilterOptions, error) {
	var filter domain.FilterOptions

	for _, raw := range splitParam(values, "chainId") {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filter, &queryError{Field: "chainId", Message: fmt.Sprintf("invalid chain id %q", raw)}
		}
		filter.ChainIDs = append(filter.ChainIDs, id)
	}

	for _, raw := range splitParam(values, "status") {
		status := domain.Status(strings.ToUpper(raw))
		if !status.IsValid() {
			return filter, &queryError{Field: "status", Message: fmt.Sprintf("invalid status %q", raw)}
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	for _, raw := range splitParam(values, "source") {
		source := domain.Source(strings.ToUpper(raw))
		if !source.IsValid() {
			return filter, &queryError{Field: "source", Message: fmt.Sprintf("invalid source %q", raw)}
		}
		filter.Sources = append(filter.Sources, source)
	}

	for _, raw := range splitParam(values, "type") {
		kind := domain.IncentiveType(strings.ToUpper(raw))
		if !kind.IsValid() {
			return filter, &queryError{Field: "type", Message: fmt.Sprintf("invalid type %q", raw)}
		}
		filter.Types = append(filter.Types, kind)
	}

	return filter, nil
}

// splitParam collects a parameter's values, splitting each on commas.
func splitParam(values url.Values, name string) []string {
	var out []string
	for _, v := range values[name] {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// filterKey canonicalizes a filter into a cache key: two queries asking
// for the same thing share one entry regardless of parameter order.
func filterKey(f domain.FilterOptions) string {
	chains := make([]string, len(f.ChainIDs))
	for i, id := range f.ChainIDs {
		chains[i] = strconv.FormatInt(id, 10)
	}
	statuses := make([]string, len(f.Statuses))
	for i, s := range f.Statuses {
		statuses[i] = s.String()
	}
	sources := make([]string, len(f.Sources))
	for i, s := range f.Sources {
		sources[i] = s.String()
	}
	types := make([]string, len(f.Types))
	for i, t := range f.Types {
		types[i] = t.String()
	}
	sort.Strings(chains)
	sort.Strings(statuses)
	sort.Strings(sources)
	sort.Strings(types)

	return strings.Join([]string{
		"chains=" + strings.Join(chains, ","),
		"statuses=" + strings.Join(statuses, ","),
		"sources=" + strings.Join(sources, ","),
		"types=" + strings.Join(types, ","),
	}, "&")
}
