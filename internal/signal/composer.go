package signal

import (
	"fmt"
	"math"

	"mintsentry/internal/holders"
	"mintsentry/internal/market"
	"mintsentry/internal/risk"
)

const patternFormula = "pattern = 0.45*kill + 0.20*liquidity + 0.15*participation + 0.20*momentum - connected_penalty - new_wallet_penalty"

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Compose blends a kill-switch result with a market snapshot into the
// composite pattern signal.
func Compose(kill *risk.KillSwitchResult, snapshot *market.Snapshot) *Signal {
	killScore := float64(kill.Score)
	liquidity := snapshot.LiquidityUsd
	volume := snapshot.Volume24hUsd
	change24h := snapshot.PriceChange24hPct

	var behavior holders.HolderBehavior
	if kill.Risk != nil {
		behavior = kill.Risk.HolderBehavior
	}

	liquidityScore := clamp(liquidity/250000*100, 0, 100)
	participationScore := clamp(volume/math.Max(liquidity, 1)*100, 0, 100)
	momentumScore := clamp(50+change24h, 0, 100)
	connectedPenalty := clamp(behavior.ConnectedHolderPct*0.45, 0, 45)
	newWalletPenalty := clamp(behavior.NewWalletHolderPct*0.3, 0, 30)

	patternScore := killScore*0.45 + liquidityScore*0.20 + participationScore*0.15 + momentumScore*0.20
	patternScore -= connectedPenalty + newWalletPenalty
	patternScore = clamp(patternScore, 0, 100)

	status := StatusCaution
	switch {
	case kill.Verdict == risk.VerdictBlock || patternScore < 45:
		status = StatusHighRisk
	case patternScore >= 70 && kill.Verdict == risk.VerdictPass:
		status = StatusFavorable
	}

	confidence := clamp(patternScore/100*0.9+0.1, 0.1, 0.98)

	reasons := []string{
		fmt.Sprintf("Kill-switch: %s (%d/100)", kill.Verdict, kill.Score),
		fmt.Sprintf("Pattern score: %.2f/100", patternScore),
		fmt.Sprintf("Liquidity: $%.0f", liquidity),
		fmt.Sprintf("Participation (vol/liquidity): %.2f", volume/math.Max(liquidity, 1)),
		fmt.Sprintf("24h price change: %.2f%%", change24h),
		fmt.Sprintf("Connected holders: %.2f%%", behavior.ConnectedHolderPct),
		fmt.Sprintf("New-wallet holders: %.2f%%", behavior.NewWalletHolderPct),
	}

	return &Signal{
		Mint:         kill.Mint,
		Status:       status,
		Confidence:   round2(confidence),
		PatternScore: round2(patternScore),
		Token: Token{
			Mint:      snapshot.TokenAddress,
			Symbol:    snapshot.TokenSymbol,
			Name:      snapshot.TokenName,
			ImageURL:  snapshot.ImageURL,
			HeaderURL: snapshot.HeaderURL,
		},
		KillSwitch:     kill,
		HolderBehavior: behavior,
		Market:         snapshot,
		Links: Links{
			DexScreener: "https://dexscreener.com/solana/" + snapshot.PairAddress,
			Birdeye:     fmt.Sprintf("https://birdeye.so/token/%s?chain=solana", kill.Mint),
			Solscan:     "https://solscan.io/token/" + kill.Mint,
		},
		Methodology: Methodology{
			Version: MethodologyVersion,
			Formula: patternFormula,
			Components: Components{
				KillScore:          round2(killScore),
				LiquidityScore:     round2(liquidityScore),
				ParticipationScore: round2(participationScore),
				MomentumScore:      round2(momentumScore),
				ConnectedPenalty:   round2(connectedPenalty),
				NewWalletPenalty:   round2(newWalletPenalty),
			},
		},
		TradePlan: TradePlan{EntryPriceUsd: snapshot.PriceUsd},
		Reasons:   reasons,
	}
}
