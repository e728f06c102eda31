package domain

// FilterOptions narrows an incentive query. Empty slices mean "no filter on
// this dimension". Dimensions combine with AND; values within a dimension
// combine with OR.
type FilterOptions struct {
	ChainIDs []int64
	Statuses []Status
	Sources  []Source
	Types    []IncentiveType
}

// IsZero reports whether no filter dimension is set.
func (f FilterOptions) IsZero() bool {
	return len(f.ChainIDs) == 0 && len(f.Statuses) == 0 && len(f.Sources) == 0 && len(f.Types) == 0
}

// Matches reports whether the incentive satisfies every set dimension.
func (f FilterOptions) Matches(i *Incentive) bool {
	if len(f.ChainIDs) > 0 && !containsInt64(f.ChainIDs, i.ChainID) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, i.Status) {
		return false
	}
	if len(f.Sources) > 0 && !containsSource(f.Sources, i.Source) {
		return false
	}
	if len(f.Types) > 0 && !containsType(f.Types, i.Type) {
		return false
	}
	return true
}

func containsInt64(values []int64, v int64) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func containsStatus(values []Status, v Status) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func containsSource(values []Source, v Source) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func containsType(values []IncentiveType, v IncentiveType) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
