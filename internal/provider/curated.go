package provider

import (
	"context"
	"log/slog"
	"time"

	"incentive-hub/internal/domain"
	"incentive-hub/internal/registry"
)

// CuratedProvider serves the curated off-chain campaign dataset. The
// dataset itself is static configuration; round windows are supplied with
// it. Records whose tokens do not resolve against the registry are
// skipped rather than emitted malformed.
type CuratedProvider struct {
	campaigns []CuratedCampaign
	registry  *registry.Registry
	clock     func() time.Time
	logger    *slog.Logger
}

// CuratedOptions configures CuratedProvider.
type CuratedOptions struct {
	Campaigns []CuratedCampaign
	Registry  *registry.Registry
	Clock     func() time.Time // defaults to time.Now
	Logger    *slog.Logger
}

// NewCuratedProvider creates a curated-rounds provider.
func NewCuratedProvider(opts CuratedOptions) *CuratedProvider {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CuratedProvider{
		campaigns: opts.Campaigns,
		registry:  opts.Registry,
		clock:     clock,
		logger:    logger,
	}
}

// Source implements Provider.
func (p *CuratedProvider) Source() domain.Source { return domain.SourceCuratedRounds }

// Incentives implements Provider.
func (p *CuratedProvider) Incentives(_ context.Context, filter domain.FilterOptions) ([]*domain.Incentive, error) {
	now := p.clock().Unix()
	var out []*domain.Incentive

	for _, c := range p.campaigns {
		if !chainWanted(filter, c.ChainID) {
			continue
		}

		rewardToken, ok := p.registry.ResolveToken(c.RewardToken, c.ChainID)
		if !ok {
			p.logger.Warn("skipping curated campaign, reward token unresolved",
				"campaign", c.Name, "token", c.RewardToken, "chainId", c.ChainID)
			continue
		}

		involved, ok := p.resolveInvolved(c)
		if !ok {
			continue
		}

		campaigns := windowsToCampaigns(c.Rounds)
		state := domain.DeriveCampaignState(campaigns, now)

		inc := &domain.Incentive{
			Name:           c.Name,
			ChainID:        c.ChainID,
			Type:           domain.TypeToken,
			RewardedToken:  involved[0],
			InvolvedTokens: involved,
			Source:         domain.SourceCuratedRounds,
			Description:    c.Description,
			ClaimLink:      c.ClaimLink,
			RewardToken:    &rewardToken,
		}
		inc.ApplyCampaignState(state)
		if state.Current != nil {
			inc.CurrentAPR = state.Current.APR
		}
		out = append(out, inc)
	}

	return out, nil
}

func (p *CuratedProvider) resolveInvolved(c CuratedCampaign) ([]domain.Token, bool) {
	involved := make([]domain.Token, 0, len(c.InvolvedTokens))
	for _, addr := range c.InvolvedTokens {
		tok, ok := p.registry.ResolveToken(addr, c.ChainID)
		if !ok {
			p.logger.Warn("skipping curated campaign, involved token unresolved",
				"campaign", c.Name, "token", addr, "chainId", c.ChainID)
			return nil, false
		}
		involved = append(involved, tok)
	}
	if len(involved) == 0 {
		return nil, false
	}
	return involved, true
}

// Healthy implements Provider. The curated dataset is local; it is
// unhealthy only when empty.
func (p *CuratedProvider) Healthy(ctx context.Context) bool {
	return probe(ctx, DefaultHealthTimeout, func(context.Context) error {
		if len(p.campaigns) == 0 {
			return ErrEmptyDataset
		}
		return nil
	})
}

// windowsToCampaigns converts configured windows to campaign configs.
func windowsToCampaigns(windows []Window) []domain.CampaignConfig {
	out := make([]domain.CampaignConfig, 0, len(windows))
	for _, w := range windows {
		out = append(out, domain.CampaignConfig{
			StartTimestamp: w.Start,
			EndTimestamp:   w.End,
			Budget:         w.Budget,
			APR:            w.APR,
			PointValue:     w.PointValue,
		})
	}
	return out
}

var _ Provider = (*CuratedProvider)(nil)
