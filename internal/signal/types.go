package signal

import (
	"mintsentry/internal/holders"
	"mintsentry/internal/market"
	"mintsentry/internal/risk"
)

// MethodologyVersion tags every composed signal so scoring-formula changes
// are detectable by consumers.
const MethodologyVersion = "mintsentry_scanner_v1"

// Signal status constants.
const (
	StatusFavorable = "FAVORABLE"
	StatusCaution   = "CAUTION"
	StatusHighRisk  = "HIGH_RISK"
)

// Token identifies the scanned token.
type Token struct {
	Mint      string `json:"mint"`
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	ImageURL  string `json:"imageUrl,omitempty"`
	HeaderURL string `json:"headerUrl,omitempty"`
}

// Links collects explorer URLs for the mint.
type Links struct {
	DexScreener string `json:"dexscreener"`
	Birdeye     string `json:"birdeye"`
	Solscan     string `json:"solscan"`
}

// Components is the score breakdown behind a patternScore.
type Components struct {
	KillScore          float64 `json:"killScore"`
	LiquidityScore     float64 `json:"liquidityScore"`
	ParticipationScore float64 `json:"participationScore"`
	MomentumScore      float64 `json:"momentumScore"`
	ConnectedPenalty   float64 `json:"connectedPenalty"`
	NewWalletPenalty   float64 `json:"newWalletPenalty"`
}

// Methodology describes how the patternScore was computed.
type Methodology struct {
	Version    string     `json:"version"`
	Formula    string     `json:"formula"`
	Components Components `json:"components"`
}

// TradePlan carries entry hints for the lifecycle engine.
type TradePlan struct {
	EntryPriceUsd float64 `json:"entryPriceUsd"`
}

// Signal is the composed scan verdict for one mint. Persisted signals are
// append-only and never mutated.
type Signal struct {
	Mint           string                 `json:"mint"`
	Status         string                 `json:"status"`
	Confidence     float64                `json:"confidence"`
	PatternScore   float64                `json:"patternScore"`
	Token          Token                  `json:"token"`
	KillSwitch     *risk.KillSwitchResult `json:"killSwitch"`
	HolderBehavior holders.HolderBehavior `json:"holderBehavior"`
	Market         *market.Snapshot       `json:"market"`
	Links          Links                  `json:"links"`
	Methodology    Methodology            `json:"methodology"`
	TradePlan      TradePlan              `json:"tradePlan"`
	Reasons        []string               `json:"reasons"`
}
