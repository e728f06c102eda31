package domain

// CampaignConfig represents one funding window of a reward program.
type CampaignConfig struct {
	StartTimestamp int64    `json:"startTimestamp"`         // unix seconds
	EndTimestamp   *int64   `json:"endTimestamp,omitempty"` // nil means open-ended
	Budget         string   `json:"budget,omitempty"`       // decimal string (nullable)
	APR            *float64 `json:"apr,omitempty"`
	PointValue     *float64 `json:"pointValue,omitempty"`
}

// StatusAt derives the campaign status at the given unix time.
// now < start -> SOON; start <= now <= end (or open-ended) -> LIVE; else PAST.
func (c CampaignConfig) StatusAt(now int64) Status {
	if now < c.StartTimestamp {
		return StatusSoon
	}
	if c.EndTimestamp == nil || now <= *c.EndTimestamp {
		return StatusLive
	}
	return StatusPast
}

// CampaignState holds the per-incentive fields derived from a set of
// campaign windows.
type CampaignState struct {
	Status  Status
	Current *CampaignConfig // the LIVE window, most recently started
	Next    *CampaignConfig // the SOON window with the earliest start
	All     []CampaignConfig
}

// DeriveCampaignState computes status and current/next windows from all
// campaign windows of one incentive. Current is the LIVE window with the
// latest start; Next is the SOON window with the earliest start. The
// incentive status is LIVE if any window is live, SOON if any is upcoming,
// otherwise PAST.
func DeriveCampaignState(all []CampaignConfig, now int64) CampaignState {
	state := CampaignState{Status: StatusPast, All: all}

	for i := range all {
		c := all[i]
		switch c.StatusAt(now) {
		case StatusLive:
			if state.Current == nil || c.StartTimestamp > state.Current.StartTimestamp {
				cc := c
				state.Current = &cc
			}
		case StatusSoon:
			if state.Next == nil || c.StartTimestamp < state.Next.StartTimestamp {
				cc := c
				state.Next = &cc
			}
		}
	}

	switch {
	case state.Current != nil:
		state.Status = StatusLive
	case state.Next != nil:
		state.Status = StatusSoon
	}
	return state
}
