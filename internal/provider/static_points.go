package provider

import (
	"context"
	"log/slog"
	"time"

	"incentive-hub/internal/domain"
	"incentive-hub/internal/registry"
)

// StaticPointsProvider serves point programs from local configuration.
// Programs with a configured point value map to POINT incentives, the
// rest to POINT_WITHOUT_VALUE. No I/O is involved.
type StaticPointsProvider struct {
	programs []PointProgramConfig
	registry *registry.Registry
	clock    func() time.Time
	logger   *slog.Logger
}

// StaticPointsOptions configures StaticPointsProvider.
type StaticPointsOptions struct {
	Programs []PointProgramConfig
	Registry *registry.Registry
	Clock    func() time.Time
	Logger   *slog.Logger
}

// NewStaticPointsProvider creates a static point-program provider.
func NewStaticPointsProvider(opts StaticPointsOptions) *StaticPointsProvider {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &StaticPointsProvider{
		programs: opts.Programs,
		registry: opts.Registry,
		clock:    clock,
		logger:   logger,
	}
}

// Source implements Provider.
func (p *StaticPointsProvider) Source() domain.Source { return domain.SourceStaticPoints }

// Incentives implements Provider.
func (p *StaticPointsProvider) Incentives(_ context.Context, filter domain.FilterOptions) ([]*domain.Incentive, error) {
	now := p.clock().Unix()
	var out []*domain.Incentive

	for _, prog := range p.programs {
		if !chainWanted(filter, prog.ChainID) {
			continue
		}

		involved, ok := p.resolveInvolved(prog)
		if !ok {
			continue
		}

		campaigns := windowsToCampaigns(prog.Windows)
		state := domain.DeriveCampaignState(campaigns, now)

		kind := domain.TypePointWithoutValue
		if prog.PointValue != nil {
			kind = domain.TypePoint
		}

		inc := &domain.Incentive{
			Name:           prog.Name,
			ChainID:        prog.ChainID,
			Type:           kind,
			RewardedToken:  involved[0],
			InvolvedTokens: involved,
			Source:         domain.SourceStaticPoints,
			Description:    prog.Description,
			ClaimLink:      prog.ClaimLink,
			Point: &domain.PointProgram{
				Name:     prog.Name,
				Protocol: prog.Protocol,
				TGEPrice: prog.TGEPrice,
			},
		}
		if kind == domain.TypePoint {
			inc.PointValue = prog.PointValue
			inc.PointValueUnit = prog.PointValueUnit
		}
		inc.ApplyCampaignState(state)
		out = append(out, inc)
	}

	return out, nil
}

func (p *StaticPointsProvider) resolveInvolved(prog PointProgramConfig) ([]domain.Token, bool) {
	involved := make([]domain.Token, 0, len(prog.InvolvedTokens))
	for _, addr := range prog.InvolvedTokens {
		tok, ok := p.registry.ResolveToken(addr, prog.ChainID)
		if !ok {
			p.logger.Warn("skipping point program, involved token unresolved",
				"program", prog.Name, "token", addr, "chainId", prog.ChainID)
			return nil, false
		}
		involved = append(involved, tok)
	}
	if len(involved) == 0 {
		return nil, false
	}
	return involved, true
}

// Healthy implements Provider. Local data; unhealthy only when empty.
func (p *StaticPointsProvider) Healthy(ctx context.Context) bool {
	return probe(ctx, DefaultHealthTimeout, func(context.Context) error {
		if len(p.programs) == 0 {
			return ErrEmptyDataset
		}
		return nil
	})
}

var _ Provider = (*StaticPointsProvider)(nil)
