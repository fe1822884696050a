package autotrade

import (
	"fmt"

	"mintsentry/internal/domain"
	"mintsentry/internal/risk"
	"mintsentry/internal/signal"
)

// EvaluatePolicy runs every gate against a composed signal and returns the
// decision with one reason per failed gate. Gates never short-circuit so the
// caller sees the complete picture.
func EvaluatePolicy(sig *signal.Signal, policy *domain.PolicyConfig) *Decision {
	d := &Decision{
		Mint:         sig.Mint,
		SignalStatus: sig.Status,
		PatternScore: sig.PatternScore,
		Confidence:   sig.Confidence,
		TradePlan:    &sig.TradePlan,
		OK:           true,
	}

	var reasons []string

	if sig.Status != signal.StatusFavorable {
		reasons = append(reasons, fmt.Sprintf("status=%s (requires FAVORABLE)", sig.Status))
	}
	if sig.PatternScore < policy.MinPatternScore {
		reasons = append(reasons, fmt.Sprintf("patternScore %.2f < %g", sig.PatternScore, policy.MinPatternScore))
	}
	if sig.Confidence < policy.MinConfidence {
		reasons = append(reasons, fmt.Sprintf("confidence %.2f < %g", sig.Confidence, policy.MinConfidence))
	}
	if sig.HolderBehavior.ConnectedHolderPct > policy.MaxConnectedHolderPct {
		reasons = append(reasons, fmt.Sprintf("connectedHolderPct %.2f > %g", sig.HolderBehavior.ConnectedHolderPct, policy.MaxConnectedHolderPct))
	}
	if policy.RequireKillSwitchPass {
		verdict := ""
		if sig.KillSwitch != nil {
			verdict = sig.KillSwitch.Verdict
		}
		if verdict != risk.VerdictPass {
			reasons = append(reasons, fmt.Sprintf("killSwitch verdict=%s (requires PASS)", verdict))
		}
	}

	if len(reasons) > 0 {
		d.Decision = DecisionSkip
		d.Reasons = reasons
		return d
	}

	d.Decision = DecisionBuyCandidate
	d.Reasons = []string{"all policy gates passed"}
	return d
}
