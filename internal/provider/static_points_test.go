package provider

import (
	"context"
	"testing"

	"incentive-hub/internal/domain"
)

func TestStaticPointsProviderIncentives(t *testing.T) {
	p := NewStaticPointsProvider(StaticPointsOptions{
		Programs: []PointProgramConfig{
			{
				Name:           "hub-points",
				Protocol:       "incentive-hub",
				ChainID:        1,
				InvolvedTokens: []string{testWETH},
				PointValue:     floatP(0.012),
				PointValueUnit: "USD",
				TGEPrice:       floatP(0.05),
				Windows:        []Window{{Start: 0}},
			},
			{
				Name:           "quest-points",
				Protocol:       "questboard",
				ChainID:        1,
				InvolvedTokens: []string{testDAI},
				Windows:        []Window{{Start: 0, End: int64Ptr(100)}},
			},
		},
		Registry: testRegistry(),
		Clock:    fixedClock(1000),
		Logger:   discardLogger(),
	})

	incs, err := p.Incentives(context.Background(), domain.FilterOptions{})
	if err != nil {
		t.Fatalf("Incentives failed: %v", err)
	}
	if len(incs) != 2 {
		t.Fatalf("expected 2 incentives, got %d", len(incs))
	}

	valued := incs[0]
	if valued.Type != domain.TypePoint {
		t.Errorf("expected POINT for valued program, got %s", valued.Type)
	}
	if valued.PointValue == nil || *valued.PointValue != 0.012 {
		t.Errorf("unexpected point value: %v", valued.PointValue)
	}
	if valued.PointValueUnit != "USD" {
		t.Errorf("unexpected point value unit: %q", valued.PointValueUnit)
	}
	if valued.Point == nil || valued.Point.Protocol != "incentive-hub" {
		t.Errorf("unexpected point program: %+v", valued.Point)
	}
	if valued.Point.TGEPrice == nil || *valued.Point.TGEPrice != 0.05 {
		t.Errorf("unexpected tge price: %v", valued.Point.TGEPrice)
	}
	if valued.Status != domain.StatusLive {
		t.Errorf("expected LIVE, got %s", valued.Status)
	}

	unvalued := incs[1]
	if unvalued.Type != domain.TypePointWithoutValue {
		t.Errorf("expected POINT_WITHOUT_VALUE, got %s", unvalued.Type)
	}
	if unvalued.PointValue != nil {
		t.Errorf("expected nil point value, got %v", *unvalued.PointValue)
	}
	if unvalued.Status != domain.StatusPast {
		t.Errorf("expected PAST for closed window, got %s", unvalued.Status)
	}
}

func TestStaticPointsProviderSkipsUnresolved(t *testing.T) {
	p := NewStaticPointsProvider(StaticPointsOptions{
		Programs: []PointProgramConfig{{
			Name:           "ghost",
			ChainID:        1,
			InvolvedTokens: []string{"0x000000000000000000000000000000000000dead"},
			Windows:        []Window{{Start: 0}},
		}},
		Registry: testRegistry(),
		Clock:    fixedClock(1000),
		Logger:   discardLogger(),
	})

	incs, err := p.Incentives(context.Background(), domain.FilterOptions{})
	if err != nil {
		t.Fatalf("Incentives failed: %v", err)
	}
	if len(incs) != 0 {
		t.Fatalf("expected unresolved program skipped, got %d", len(incs))
	}
}

func TestStaticPointsProviderHealthy(t *testing.T) {
	empty := NewStaticPointsProvider(StaticPointsOptions{Registry: testRegistry(), Logger: discardLogger()})
	if empty.Healthy(context.Background()) {
		t.Error("expected empty program set to be unhealthy")
	}
}
