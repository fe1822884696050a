package autotrade

import (
	"reflect"
	"testing"

	"mintsentry/internal/domain"
	"mintsentry/internal/holders"
	"mintsentry/internal/risk"
	"mintsentry/internal/signal"
)

func passingSignal(mint string) *signal.Signal {
	return &signal.Signal{
		Mint:         mint,
		Status:       signal.StatusFavorable,
		Confidence:   0.9,
		PatternScore: 85,
		KillSwitch:   &risk.KillSwitchResult{Mint: mint, Score: 100, Verdict: risk.VerdictPass},
		HolderBehavior: holders.HolderBehavior{
			ConnectedHolderPct: 5,
		},
		TradePlan: signal.TradePlan{EntryPriceUsd: 0.5},
	}
}

func defaultPolicy() *domain.PolicyConfig {
	p := domain.DefaultPolicyConfig(1)
	p.Enabled = true
	return p
}

func TestEvaluatePolicy_BuyCandidate(t *testing.T) {
	d := EvaluatePolicy(passingSignal("mint"), defaultPolicy())

	if d.Decision != DecisionBuyCandidate || !d.OK {
		t.Fatalf("expected BUY_CANDIDATE, got %+v", d)
	}
	if !reflect.DeepEqual(d.Reasons, []string{"all policy gates passed"}) {
		t.Errorf("unexpected reasons: %v", d.Reasons)
	}
	if d.TradePlan == nil || d.TradePlan.EntryPriceUsd != 0.5 {
		t.Errorf("trade plan not carried: %+v", d.TradePlan)
	}
}

func TestEvaluatePolicy_GateReasons(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*signal.Signal)
		reason string
	}{
		{
			name:   "status",
			mutate: func(s *signal.Signal) { s.Status = signal.StatusCaution },
			reason: "status=CAUTION (requires FAVORABLE)",
		},
		{
			name:   "pattern score",
			mutate: func(s *signal.Signal) { s.PatternScore = 65 },
			reason: "patternScore 65.00 < 70",
		},
		{
			name:   "confidence",
			mutate: func(s *signal.Signal) { s.Confidence = 0.5 },
			reason: "confidence 0.50 < 0.75",
		},
		{
			name:   "connected holders",
			mutate: func(s *signal.Signal) { s.HolderBehavior.ConnectedHolderPct = 35 },
			reason: "connectedHolderPct 35.00 > 20",
		},
		{
			name:   "kill switch",
			mutate: func(s *signal.Signal) { s.KillSwitch.Verdict = risk.VerdictCaution },
			reason: "killSwitch verdict=CAUTION (requires PASS)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := passingSignal("mint")
			tt.mutate(sig)

			d := EvaluatePolicy(sig, defaultPolicy())
			if d.Decision != DecisionSkip {
				t.Fatalf("expected SKIP, got %s", d.Decision)
			}
			if len(d.Reasons) != 1 || d.Reasons[0] != tt.reason {
				t.Errorf("reasons = %v, want [%q]", d.Reasons, tt.reason)
			}
		})
	}
}

func TestEvaluatePolicy_AllGatesEvaluated(t *testing.T) {
	sig := passingSignal("mint")
	sig.Status = signal.StatusHighRisk
	sig.PatternScore = 30
	sig.Confidence = 0.2
	sig.HolderBehavior.ConnectedHolderPct = 60
	sig.KillSwitch = nil

	d := EvaluatePolicy(sig, defaultPolicy())
	if d.Decision != DecisionSkip {
		t.Fatalf("expected SKIP, got %s", d.Decision)
	}
	if len(d.Reasons) != 5 {
		t.Errorf("expected every gate to report, got %v", d.Reasons)
	}
	// A nil kill-switch result reads as an empty verdict.
	if d.Reasons[4] != "killSwitch verdict= (requires PASS)" {
		t.Errorf("unexpected kill-switch reason: %q", d.Reasons[4])
	}
}

func TestEvaluatePolicy_KillSwitchGateOptional(t *testing.T) {
	sig := passingSignal("mint")
	sig.KillSwitch.Verdict = risk.VerdictCaution

	policy := defaultPolicy()
	policy.RequireKillSwitchPass = false

	if d := EvaluatePolicy(sig, policy); d.Decision != DecisionBuyCandidate {
		t.Errorf("expected BUY_CANDIDATE with gate disabled, got %+v", d)
	}
}
