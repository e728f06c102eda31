package provider

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestProbeTimesOutSlowCheck(t *testing.T) {
	started := time.Now()
	healthy := probe(context.Background(), 50*time.Millisecond, func(ctx context.Context) error {
		select {
		case <-time.After(500 * time.Millisecond):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	elapsed := time.Since(started)

	if healthy {
		t.Error("expected slow check to report unhealthy")
	}
	if elapsed > 200*time.Millisecond {
		t.Errorf("probe should answer near its budget, took %v", elapsed)
	}
}

func TestProbeErrorAndPanic(t *testing.T) {
	if probe(context.Background(), time.Second, func(context.Context) error {
		return errors.New("down")
	}) {
		t.Error("expected erroring check to be unhealthy")
	}

	if probe(context.Background(), time.Second, func(context.Context) error {
		panic("boom")
	}) {
		t.Error("expected panicking check to be unhealthy")
	}

	if !probe(context.Background(), time.Second, func(context.Context) error {
		return nil
	}) {
		t.Error("expected clean check to be healthy")
	}
}

func TestDefaultProgramsParse(t *testing.T) {
	programs := DefaultPrograms()
	if len(programs.Curated) == 0 {
		t.Error("expected embedded curated campaigns")
	}
	if len(programs.Emitters) == 0 {
		t.Error("expected embedded emitters")
	}
	if len(programs.Points) == 0 {
		t.Error("expected embedded point programs")
	}
	for _, c := range programs.Curated {
		if len(c.Rounds) == 0 {
			t.Errorf("curated campaign %q has no rounds", c.Name)
		}
	}
}
