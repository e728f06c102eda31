package aggregate

import (
	"sort"

	"incentive-hub/internal/domain"
)

// gatherEqualIncentives collapses incentives sharing a fingerprint into
// one record each. The survivor is the record whose own campaigns reach
// furthest into the future (an open-ended window counts as infinitely
// far); the loser only contributes its campaign windows. Merged records
// get their campaign state re-derived from the combined windows.
// First-seen order of distinct fingerprints is preserved.
func gatherEqualIncentives(incs []*domain.Incentive, now int64) []*domain.Incentive {
	byID := make(map[string]*domain.Incentive, len(incs))
	order := make([]string, 0, len(incs))

	for _, inc := range incs {
		existing, ok := byID[inc.ID]
		if !ok {
			byID[inc.ID] = inc
			order = append(order, inc.ID)
			continue
		}

		survivor, loser := existing, inc
		if reachesFurther(inc, existing) {
			survivor, loser = inc, existing
		}
		survivor.AllCampaigns = append(append([]domain.CampaignConfig{}, survivor.AllCampaigns...), loser.AllCampaigns...)
		byID[inc.ID] = survivor
	}

	out := make([]*domain.Incentive, 0, len(order))
	for _, id := range order {
		inc := byID[id]
		sortCampaigns(inc.AllCampaigns)
		state := domain.DeriveCampaignState(inc.AllCampaigns, now)
		inc.ApplyCampaignState(state)
		if inc.Type == domain.TypeToken {
			inc.CurrentAPR = nil
			if state.Current != nil {
				inc.CurrentAPR = state.Current.APR
			}
		}
		out = append(out, inc)
	}
	return out
}

// mergedCount reports how many records a merge pass would collapse.
func mergedCount(incs []*domain.Incentive) int {
	seen := make(map[string]struct{}, len(incs))
	dupes := 0
	for _, inc := range incs {
		if _, ok := seen[inc.ID]; ok {
			dupes++
			continue
		}
		seen[inc.ID] = struct{}{}
	}
	return dupes
}

// reachesFurther reports whether a's campaigns extend later than b's. An
// open-ended window always extends furthest; ties keep b.
func reachesFurther(a, b *domain.Incentive) bool {
	aOpen, aEnd := latestEnd(a)
	bOpen, bEnd := latestEnd(b)
	if aOpen != bOpen {
		return aOpen
	}
	if aOpen {
		return false
	}
	return aEnd > bEnd
}

// latestEnd returns the latest campaign end of an incentive, reporting
// open-ended windows separately.
func latestEnd(inc *domain.Incentive) (open bool, end int64) {
	for _, c := range inc.AllCampaigns {
		if c.EndTimestamp == nil {
			return true, 0
		}
		if *c.EndTimestamp > end {
			end = *c.EndTimestamp
		}
	}
	return false, end
}

// sortCampaigns orders windows by ascending end, open-ended windows last,
// ties broken by start.
func sortCampaigns(campaigns []domain.CampaignConfig) {
	sort.SliceStable(campaigns, func(i, j int) bool {
		a, b := campaigns[i], campaigns[j]
		switch {
		case a.EndTimestamp == nil && b.EndTimestamp == nil:
			return a.StartTimestamp < b.StartTimestamp
		case a.EndTimestamp == nil:
			return false
		case b.EndTimestamp == nil:
			return true
		case *a.EndTimestamp != *b.EndTimestamp:
			return *a.EndTimestamp < *b.EndTimestamp
		default:
			return a.StartTimestamp < b.StartTimestamp
		}
	})
}

// sortIncentives orders records for presentation: live first, then
// upcoming, then past. The sort is stable so provider order breaks ties.
func sortIncentives(incs []*domain.Incentive) {
	sort.SliceStable(incs, func(i, j int) bool {
		return incs[i].Status.Priority() < incs[j].Status.Priority()
	})
}
