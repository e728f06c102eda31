package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"incentive-hub/internal/chain"
	"incentive-hub/internal/domain"
	"incentive-hub/internal/pricing"
	"incentive-hub/internal/registry"
)

const secondsPerYear = 365 * 24 * 3600

// OnchainProvider reads liquidity-mining emissions directly from
// staking-rewards style contracts. Each configured emitter yields one
// incentive whose single campaign window is derived from the contract's
// reward period. Emitters whose reads or token resolution fail are
// skipped, never emitted malformed.
type OnchainProvider struct {
	reader   chain.Reader
	emitters []EmitterConfig
	registry *registry.Registry
	resolver *pricing.Resolver // optional, enables APR computation
	clock    func() time.Time
	logger   *slog.Logger
}

// OnchainOptions configures OnchainProvider.
type OnchainOptions struct {
	Reader   chain.Reader
	Emitters []EmitterConfig
	Registry *registry.Registry
	Resolver *pricing.Resolver
	Clock    func() time.Time
	Logger   *slog.Logger
}

// NewOnchainProvider creates an on-chain emissions provider.
func NewOnchainProvider(opts OnchainOptions) *OnchainProvider {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OnchainProvider{
		reader:   opts.Reader,
		emitters: opts.Emitters,
		registry: opts.Registry,
		resolver: opts.Resolver,
		clock:    clock,
		logger:   logger,
	}
}

// Source implements Provider.
func (p *OnchainProvider) Source() domain.Source { return domain.SourceOnchainEmissions }

// emissionState holds the raw contract reads for one emitter.
type emissionState struct {
	periodFinish int64
	duration     int64
	rewardRate   decimal.Decimal // raw units per second
	totalSupply  decimal.Decimal // raw staked units
}

// Incentives implements Provider.
func (p *OnchainProvider) Incentives(ctx context.Context, filter domain.FilterOptions) ([]*domain.Incentive, error) {
	now := p.clock().Unix()
	var out []*domain.Incentive

	for _, e := range p.emitters {
		if !chainWanted(filter, e.ChainID) {
			continue
		}

		rewardToken, ok := p.registry.ResolveToken(e.RewardToken, e.ChainID)
		if !ok {
			p.logger.Warn("skipping emitter, reward token unresolved", "emitter", e.Name, "token", e.RewardToken)
			continue
		}
		stakingToken, ok := p.registry.ResolveToken(e.StakingToken, e.ChainID)
		if !ok {
			p.logger.Warn("skipping emitter, staking token unresolved", "emitter", e.Name, "token", e.StakingToken)
			continue
		}

		state, err := p.readEmission(ctx, e)
		if err != nil {
			p.logger.Error("skipping emitter, contract read failed", "emitter", e.Name, "error", err)
			continue
		}

		campaign := p.buildCampaign(ctx, e, state, rewardToken, stakingToken)
		cs := domain.DeriveCampaignState([]domain.CampaignConfig{campaign}, now)

		inc := &domain.Incentive{
			Name:           e.Name,
			ChainID:        e.ChainID,
			Type:           domain.TypeToken,
			RewardedToken:  stakingToken,
			InvolvedTokens: []domain.Token{stakingToken},
			Source:         domain.SourceOnchainEmissions,
			Description:    e.Description,
			ClaimLink:      e.ClaimLink,
			RewardToken:    &rewardToken,
		}
		inc.ApplyCampaignState(cs)
		if cs.Current != nil {
			inc.CurrentAPR = campaign.APR
		}
		out = append(out, inc)
	}

	return out, nil
}

// readEmission performs the four contract reads for one emitter.
func (p *OnchainProvider) readEmission(ctx context.Context, e EmitterConfig) (emissionState, error) {
	read := func(selector string) (decimal.Decimal, error) {
		raw, err := chain.CallUint256(ctx, p.reader, chain.Call{
			ChainID: e.ChainID,
			To:      e.Address,
			Data:    selector,
		})
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromBigInt(raw, 0), nil
	}

	periodFinish, err := read(chain.SelectorPeriodFinish)
	if err != nil {
		return emissionState{}, fmt.Errorf("periodFinish: %w", err)
	}
	duration, err := read(chain.SelectorRewardsDuration)
	if err != nil {
		return emissionState{}, fmt.Errorf("rewardsDuration: %w", err)
	}
	rewardRate, err := read(chain.SelectorRewardRate)
	if err != nil {
		return emissionState{}, fmt.Errorf("rewardRate: %w", err)
	}
	totalSupply, err := read(chain.SelectorTotalSupply)
	if err != nil {
		return emissionState{}, fmt.Errorf("totalSupply: %w", err)
	}

	return emissionState{
		periodFinish: periodFinish.IntPart(),
		duration:     duration.IntPart(),
		rewardRate:   rewardRate,
		totalSupply:  totalSupply,
	}, nil
}

// buildCampaign converts an emission state into a campaign window.
// Budget is the total emission over the period in reward-token units;
// APR is only computed when both tokens price successfully.
func (p *OnchainProvider) buildCampaign(ctx context.Context, e EmitterConfig, state emissionState, rewardToken, stakingToken domain.Token) domain.CampaignConfig {
	start := state.periodFinish - state.duration
	end := state.periodFinish

	rewardUnit := decimal.New(1, int32(rewardToken.Decimals))
	budget := state.rewardRate.
		Mul(decimal.NewFromInt(state.duration)).
		Div(rewardUnit)

	campaign := domain.CampaignConfig{
		StartTimestamp: start,
		EndTimestamp:   &end,
		Budget:         budget.String(),
	}

	if apr := p.computeAPR(ctx, state, rewardToken, stakingToken); apr != nil {
		campaign.APR = apr
	}
	return campaign
}

// computeAPR returns annualized reward value over staked value, in
// percent. A missing price on either side yields nil.
func (p *OnchainProvider) computeAPR(ctx context.Context, state emissionState, rewardToken, stakingToken domain.Token) *float64 {
	if p.resolver == nil || state.totalSupply.IsZero() {
		return nil
	}

	rewardPrice, err := p.resolver.TokenPrice(ctx, pricing.PriceQuery{Token: rewardToken})
	if err != nil || rewardPrice == nil {
		return nil
	}
	stakedPrice, err := p.resolver.TokenPrice(ctx, pricing.PriceQuery{Token: stakingToken})
	if err != nil || stakedPrice == nil || *stakedPrice == 0 {
		return nil
	}

	rewardUnit := decimal.New(1, int32(rewardToken.Decimals))
	stakedUnit := decimal.New(1, int32(stakingToken.Decimals))

	yearlyRewardUSD := state.rewardRate.
		Div(rewardUnit).
		Mul(decimal.NewFromInt(secondsPerYear)).
		Mul(decimal.NewFromFloat(*rewardPrice))
	stakedUSD := state.totalSupply.
		Div(stakedUnit).
		Mul(decimal.NewFromFloat(*stakedPrice))

	if stakedUSD.IsZero() {
		return nil
	}

	apr, _ := yearlyRewardUSD.Div(stakedUSD).Mul(decimal.NewFromInt(100)).Float64()
	return &apr
}

// Healthy implements Provider. Probes the first emitter's periodFinish.
func (p *OnchainProvider) Healthy(ctx context.Context) bool {
	return probe(ctx, DefaultHealthTimeout, func(ctx context.Context) error {
		if len(p.emitters) == 0 {
			return ErrNoEmitters
		}
		e := p.emitters[0]
		_, err := p.reader.Call(ctx, chain.Call{
			ChainID: e.ChainID,
			To:      e.Address,
			Data:    chain.SelectorPeriodFinish,
		})
		return err
	})
}

var _ Provider = (*OnchainProvider)(nil)
