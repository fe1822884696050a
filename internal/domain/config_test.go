package domain

import "testing"

func TestPolicyConfig_Sanitize(t *testing.T) {
	cfg := &PolicyConfig{
		Mode:                  "yolo",
		MinPatternScore:       10,
		MinConfidence:         5,
		MaxConnectedHolderPct: 200,
		MaxPositionUsd:        0,
		ScanIntervalSec:       1,
	}
	cfg.Sanitize()

	if cfg.Mode != ModePaper {
		t.Errorf("expected unrecognized mode to normalize to paper, got %s", cfg.Mode)
	}
	if cfg.MinPatternScore != 40 {
		t.Errorf("expected minPatternScore clamped to 40, got %.1f", cfg.MinPatternScore)
	}
	if cfg.MinConfidence != 0.99 {
		t.Errorf("expected minConfidence clamped to 0.99, got %.2f", cfg.MinConfidence)
	}
	if cfg.MaxConnectedHolderPct != 80 {
		t.Errorf("expected maxConnectedHolderPct clamped to 80, got %.1f", cfg.MaxConnectedHolderPct)
	}
	if cfg.MaxPositionUsd != 1 {
		t.Errorf("expected maxPositionUsd clamped to 1, got %.1f", cfg.MaxPositionUsd)
	}
	if cfg.ScanIntervalSec != 10 {
		t.Errorf("expected scanIntervalSec clamped to 10, got %.1f", cfg.ScanIntervalSec)
	}
}

func TestPolicyConfig_SanitizeKeepsInRangeValues(t *testing.T) {
	cfg := DefaultPolicyConfig(1)
	before := *cfg
	cfg.Sanitize()
	if *cfg != before {
		t.Errorf("sanitize changed an already-valid config: %+v vs %+v", *cfg, before)
	}
}

func TestExecutionConfig_Sanitize(t *testing.T) {
	cfg := &ExecutionConfig{
		Mode:             ModeLive,
		TradeAmountUsd:   1_000_000,
		MaxOpenPositions: 0,
		TpPct:            500,
		SlPct:            100,
		TrailingStopPct:  0,
		MaxHoldMinutes:   99999,
		CooldownSec:      -5,
		PollIntervalSec:  2,
	}
	cfg.Sanitize()

	if cfg.Mode != ModeLive {
		t.Errorf("expected live mode preserved, got %s", cfg.Mode)
	}
	if cfg.TradeAmountUsd != 50000 {
		t.Errorf("expected tradeAmountUsd clamped to 50000, got %.1f", cfg.TradeAmountUsd)
	}
	if cfg.MaxOpenPositions != 1 {
		t.Errorf("expected maxOpenPositions clamped to 1, got %.1f", cfg.MaxOpenPositions)
	}
	if cfg.TpPct != 200 {
		t.Errorf("expected tpPct clamped to 200, got %.1f", cfg.TpPct)
	}
	if cfg.SlPct != 99 {
		t.Errorf("expected slPct clamped to 99, got %.1f", cfg.SlPct)
	}
	if cfg.TrailingStopPct != 0.1 {
		t.Errorf("expected trailingStopPct clamped to 0.1, got %.2f", cfg.TrailingStopPct)
	}
	if cfg.MaxHoldMinutes != 10080 {
		t.Errorf("expected maxHoldMinutes clamped to 10080, got %.1f", cfg.MaxHoldMinutes)
	}
	if cfg.CooldownSec != 0 {
		t.Errorf("expected cooldownSec clamped to 0, got %.1f", cfg.CooldownSec)
	}
	if cfg.PollIntervalSec != 5 {
		t.Errorf("expected pollIntervalSec clamped to 5, got %.1f", cfg.PollIntervalSec)
	}
}

func TestNormalizeMints(t *testing.T) {
	in := []string{" mintA ", "mintB", "mintA", "", "mintC", "mintD", "mintE", "mintF"}
	out := NormalizeMints(in)

	if len(out) != WatchlistMaxMints {
		t.Fatalf("expected %d mints, got %d: %v", WatchlistMaxMints, len(out), out)
	}
	if out[0] != "mintA" || out[1] != "mintB" {
		t.Errorf("expected trimmed deduplicated order preserved, got %v", out)
	}
}

func TestProjectedPnlPct(t *testing.T) {
	// conf 0.8, pattern 72: (0.56 + 0.216 - 0.55) * 18 = 4.068
	got := ProjectedPnlPct(0.8, 72)
	if got < 4.0 || got > 4.1 {
		t.Errorf("expected ~4.07, got %.3f", got)
	}

	if ProjectedPnlPct(0.1, 0) >= 0 {
		t.Error("expected weak signal to project a loss")
	}
}
