package risk

import (
	"fmt"

	"mintsentry/internal/holders"
)

// Verdict buckets for the kill-switch score.
const (
	VerdictPass    = "PASS"
	VerdictCaution = "CAUTION"
	VerdictBlock   = "BLOCK"
)

// Uncertainty levels.
const (
	UncertaintyLow  = "low"
	UncertaintyHigh = "high"
)

const (
	blockBelow   = 50
	cautionBelow = 75
)

// KillSwitchResult is the deterministic risk gate derived from a RiskSignal.
type KillSwitchResult struct {
	Mint        string              `json:"mint"`
	Score       int                 `json:"score"`
	Verdict     string              `json:"verdict"`
	Reasons     []string            `json:"reasons"`
	Uncertainty string              `json:"uncertainty"`
	Risk        *holders.RiskSignal `json:"risk"`
}

// Evaluate scores a RiskSignal. Deductions start from 100; only the first
// matching tier applies within each category. An unknown signal fails closed
// to score 0 and BLOCK.
func Evaluate(signal *holders.RiskSignal) *KillSwitchResult {
	if signal == nil || signal.Unknown() {
		mint := ""
		if signal != nil {
			mint = signal.Mint
		}
		return &KillSwitchResult{
			Mint:        mint,
			Score:       0,
			Verdict:     VerdictBlock,
			Reasons:     []string{"unable to complete on-chain checks"},
			Uncertainty: UncertaintyHigh,
			Risk:        signal,
		}
	}

	score := 100
	var reasons []string

	top3 := signal.Top3HolderSharePct
	switch {
	case top3 >= 60:
		score -= 40
		reasons = append(reasons, fmt.Sprintf("top 3 holders control %.1f%% of supply", top3))
	case top3 >= 35:
		score -= 20
		reasons = append(reasons, fmt.Sprintf("top 3 holders control %.1f%% of supply", top3))
	case top3 >= 20:
		score -= 10
		reasons = append(reasons, fmt.Sprintf("top 3 holders control %.1f%% of supply", top3))
	default:
		reasons = append(reasons, "holder distribution looks healthy")
	}

	connected := signal.HolderBehavior.ConnectedHolderPct
	switch {
	case connected >= 35:
		score -= 20
		reasons = append(reasons, fmt.Sprintf("connected wallet cluster holds %.1f%% of supply", connected))
	case connected >= 20:
		score -= 12
		reasons = append(reasons, fmt.Sprintf("connected wallet cluster holds %.1f%% of supply", connected))
	}

	newWallet := signal.HolderBehavior.NewWalletHolderPct
	switch {
	case newWallet >= 25:
		score -= 15
		reasons = append(reasons, fmt.Sprintf("new wallets hold %.1f%% of supply", newWallet))
	case newWallet >= 12:
		score -= 8
		reasons = append(reasons, fmt.Sprintf("new wallets hold %.1f%% of supply", newWallet))
	}

	if signal.HasMintAuthority {
		score -= 25
		reasons = append(reasons, "mint authority is still active")
	} else {
		reasons = append(reasons, "mint authority revoked")
	}

	if signal.HasFreezeAuthority {
		score -= 20
		reasons = append(reasons, "freeze authority is still active")
	} else {
		reasons = append(reasons, "freeze authority revoked")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	verdict := VerdictPass
	switch {
	case score < blockBelow:
		verdict = VerdictBlock
	case score < cautionBelow:
		verdict = VerdictCaution
	}

	return &KillSwitchResult{
		Mint:        signal.Mint,
		Score:       score,
		Verdict:     verdict,
		Reasons:     reasons,
		Uncertainty: UncertaintyLow,
		Risk:        signal,
	}
}
