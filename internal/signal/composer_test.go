package signal

import (
	"strings"
	"testing"

	"mintsentry/internal/holders"
	"mintsentry/internal/market"
	"mintsentry/internal/risk"
)

func passKill(score int, connectedPct, newWalletPct float64) *risk.KillSwitchResult {
	verdict := risk.VerdictPass
	if score < 75 {
		verdict = risk.VerdictCaution
	}
	if score < 50 {
		verdict = risk.VerdictBlock
	}
	return &risk.KillSwitchResult{
		Mint:    "mintA",
		Score:   score,
		Verdict: verdict,
		Risk: &holders.RiskSignal{
			Mint:              "mintA",
			ConcentrationRisk: holders.ConcentrationLow,
			HolderBehavior: holders.HolderBehavior{
				ConnectedHolderPct: connectedPct,
				NewWalletHolderPct: newWalletPct,
			},
		},
	}
}

func strongSnapshot() *market.Snapshot {
	return &market.Snapshot{
		Source:            "dexscreener",
		PairAddress:       "pair1",
		TokenAddress:      "mintA",
		TokenName:         "Token A",
		TokenSymbol:       "TKA",
		PriceUsd:          0.5,
		LiquidityUsd:      250000,
		Volume24hUsd:      250000,
		PriceChange24hPct: 50,
	}
}

func TestCompose_FavorableScore(t *testing.T) {
	sig := Compose(passKill(100, 10, 10), strongSnapshot())

	// All component scores saturate at 100; penalties 4.5 and 3.
	if sig.PatternScore != 92.5 {
		t.Errorf("expected pattern score 92.5, got %.2f", sig.PatternScore)
	}
	if sig.Status != StatusFavorable {
		t.Errorf("expected FAVORABLE, got %s", sig.Status)
	}
	if sig.Confidence != 0.93 {
		t.Errorf("expected confidence 0.93, got %.2f", sig.Confidence)
	}

	c := sig.Methodology.Components
	if c.KillScore != 100 || c.LiquidityScore != 100 || c.ParticipationScore != 100 || c.MomentumScore != 100 {
		t.Errorf("expected saturated components, got %+v", c)
	}
	if c.ConnectedPenalty != 4.5 || c.NewWalletPenalty != 3 {
		t.Errorf("unexpected penalties: %+v", c)
	}
}

func TestCompose_BlockAlwaysHighRisk(t *testing.T) {
	sig := Compose(passKill(40, 0, 0), strongSnapshot())

	if sig.Status != StatusHighRisk {
		t.Errorf("expected HIGH_RISK for BLOCK verdict, got %s", sig.Status)
	}
}

func TestCompose_LowPatternScoreHighRisk(t *testing.T) {
	kill := passKill(80, 0, 0)
	snap := &market.Snapshot{TokenAddress: "mintA", LiquidityUsd: 1000, Volume24hUsd: 0, PriceChange24hPct: -50}

	// pattern = 80*0.45 + 0.4*0.20 + 0 + 0 = 36.08
	sig := Compose(kill, snap)
	if sig.Status != StatusHighRisk {
		t.Errorf("expected HIGH_RISK below the floor, got %s (score %.2f)", sig.Status, sig.PatternScore)
	}
}

func TestCompose_CautionVerdictNeverFavorable(t *testing.T) {
	sig := Compose(passKill(74, 0, 0), strongSnapshot())

	// pattern = 74*0.45 + 55 = 88.3, but the verdict is CAUTION.
	if sig.Status != StatusCaution {
		t.Errorf("expected CAUTION, got %s", sig.Status)
	}
}

func TestCompose_ConfidenceBounds(t *testing.T) {
	floor := Compose(passKill(0, 80, 80), &market.Snapshot{TokenAddress: "mintA", PriceChange24hPct: -100})
	if floor.Confidence != 0.1 {
		t.Errorf("expected confidence floor 0.1, got %.2f", floor.Confidence)
	}
	if floor.PatternScore != 0 {
		t.Errorf("expected pattern score clamped to 0, got %.2f", floor.PatternScore)
	}

	ceiling := Compose(passKill(100, 0, 0), strongSnapshot())
	if ceiling.Confidence > 0.98 {
		t.Errorf("confidence exceeds ceiling: %.2f", ceiling.Confidence)
	}
}

func TestCompose_KillScoreMonotonicity(t *testing.T) {
	snap := strongSnapshot()
	prev := -1.0
	for _, score := range []int{0, 25, 50, 75, 100} {
		sig := Compose(passKill(score, 5, 5), snap)
		if sig.PatternScore < prev {
			t.Fatalf("pattern score decreased at kill score %d: %.2f < %.2f", score, sig.PatternScore, prev)
		}
		prev = sig.PatternScore
	}
}

func TestCompose_LinksAndMethodology(t *testing.T) {
	sig := Compose(passKill(100, 0, 0), strongSnapshot())

	if sig.Links.DexScreener != "https://dexscreener.com/solana/pair1" {
		t.Errorf("unexpected dexscreener link: %s", sig.Links.DexScreener)
	}
	if !strings.Contains(sig.Links.Birdeye, "mintA") || !strings.Contains(sig.Links.Solscan, "mintA") {
		t.Errorf("explorer links missing mint: %+v", sig.Links)
	}
	if sig.Methodology.Version != MethodologyVersion {
		t.Errorf("unexpected methodology version: %s", sig.Methodology.Version)
	}
	if sig.TradePlan.EntryPriceUsd != 0.5 {
		t.Errorf("expected entry price from snapshot, got %.2f", sig.TradePlan.EntryPriceUsd)
	}
	if len(sig.Reasons) == 0 {
		t.Error("expected reasons to be populated")
	}
}
