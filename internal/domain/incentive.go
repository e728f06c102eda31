package domain

// Source represents the upstream a raw incentive was produced from.
type Source string

const (
	SourceCuratedRounds    Source = "CURATED_ROUNDS"
	SourceAggregatorAPI    Source = "AGGREGATOR_API"
	SourceOnchainEmissions Source = "ONCHAIN_EMISSIONS"
	SourceStaticPoints     Source = "STATIC_POINTS"
)

// String returns the string representation of Source.
func (s Source) String() string {
	return string(s)
}

// IsValid checks if the source is a valid value.
func (s Source) IsValid() bool {
	switch s {
	case SourceCuratedRounds, SourceAggregatorAPI, SourceOnchainEmissions, SourceStaticPoints:
		return true
	}
	return false
}

// IncentiveType tags the reward variant of an incentive.
type IncentiveType string

const (
	TypeToken             IncentiveType = "TOKEN"
	TypePoint             IncentiveType = "POINT"
	TypePointWithoutValue IncentiveType = "POINT_WITHOUT_VALUE"
)

// String returns the string representation of IncentiveType.
func (t IncentiveType) String() string {
	return string(t)
}

// IsValid checks if the incentive type is a valid value.
func (t IncentiveType) IsValid() bool {
	return t == TypeToken || t == TypePoint || t == TypePointWithoutValue
}

// PointProgram describes a point-based reward program.
type PointProgram struct {
	Name     string   `json:"name"`
	Protocol string   `json:"protocol"`
	TGEPrice *float64 `json:"tgePrice,omitempty"` // expected token price at TGE (nullable)
}

// Incentive is a normalized reward opportunity. Exactly one variant is
// populated, selected by Type: TOKEN carries RewardToken/CurrentAPR,
// POINT carries Point/PointValue/PointValueUnit, POINT_WITHOUT_VALUE
// carries Point only. InvolvedTokens is always non-empty.
//
// ID is the deterministic fingerprint of (chain, involved tokens, reward
// identity); two incentives with the same ID describe the same opportunity
// and are merged by the aggregation service.
type Incentive struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	ChainID         int64            `json:"chainId"`
	Type            IncentiveType    `json:"type"`
	RewardedToken   Token            `json:"rewardedToken"`  // the token being incentivized
	InvolvedTokens  []Token          `json:"involvedTokens"` // non-empty
	Source          Source           `json:"source"`
	Status          Status           `json:"status"`
	Description     string           `json:"description,omitempty"`
	ClaimLink       string           `json:"claimLink,omitempty"`
	AllCampaigns    []CampaignConfig `json:"allCampaignsConfigs"`
	CurrentCampaign *CampaignConfig  `json:"currentCampaignConfig,omitempty"`
	NextCampaign    *CampaignConfig  `json:"nextCampaignConfig,omitempty"`

	// TOKEN variant
	RewardToken *Token   `json:"rewardToken,omitempty"`
	CurrentAPR  *float64 `json:"currentApr,omitempty"`

	// POINT / POINT_WITHOUT_VALUE variants
	Point          *PointProgram `json:"point,omitempty"`
	PointValue     *float64      `json:"pointValue,omitempty"`
	PointValueUnit string        `json:"pointValueUnit,omitempty"`
}

// RewardIdentity returns the identity component of the reward for
// fingerprinting: the reward token address for TOKEN incentives, the point
// program name otherwise.
func (i *Incentive) RewardIdentity() string {
	if i.Type == TypeToken && i.RewardToken != nil {
		return NormalizeAddress(i.RewardToken.Address)
	}
	if i.Point != nil {
		return i.Point.Name
	}
	return ""
}

// ApplyCampaignState stamps the derived status and current/next windows
// onto the incentive.
func (i *Incentive) ApplyCampaignState(state CampaignState) {
	i.Status = state.Status
	i.CurrentCampaign = state.Current
	i.NextCampaign = state.Next
	i.AllCampaigns = state.All
}
