package holders

// Concentration risk levels derived from the top-3 holder share.
const (
	ConcentrationLow     = "low"
	ConcentrationMedium  = "medium"
	ConcentrationHigh    = "high"
	ConcentrationUnknown = "unknown"
)

// Wallet source labels, ordered by classification precedence.
const (
	SourceLPCandidate  = "lp-candidate"
	SourceTokenAccount = "token-account-owner"
	SourceClusteredNew = "clustered-new-wallet"
	SourceClustered    = "clustered-wallet"
	SourceNewWallet    = "new-wallet"
	SourceActiveTrader = "active-trader"
	SourceProgramOwned = "program-owned"
	SourceUnattributed = "unattributed"
)

// holderNode is the per-holder working record for one analysis pass.
type holderNode struct {
	tokenAccount string
	owner        string
	amountRaw    float64
	amountUI     float64
	sharePct     float64
	walletAge    *float64 // days, nil when no signature history was found
	recentSigs   map[string]struct{}
	sigCount     int
	buys         int
	sells        int
}

// HolderProfile is the per-holder view exposed on a RiskSignal.
type HolderProfile struct {
	TokenAccount  string   `json:"tokenAccount"`
	Owner         string   `json:"owner"`
	AmountUI      float64  `json:"amountUi"`
	SharePct      float64  `json:"sharePct"`
	WalletAgeDays *float64 `json:"walletAgeDays,omitempty"`
	WalletSource  string   `json:"walletSource"`
	Buys          int      `json:"buys"`
	Sells         int      `json:"sells"`
	RecentSigs    int      `json:"recentSigs"`
}

// HolderBehavior aggregates cluster and wallet-age facts across the sample.
type HolderBehavior struct {
	ConnectedHolderPct  float64  `json:"connectedHolderPct"`
	NewWalletHolderPct  float64  `json:"newWalletHolderPct"`
	ConnectedGroupCount int      `json:"connectedGroupCount"`
	AvgWalletAgeDays    *float64 `json:"avgWalletAgeDays,omitempty"`
}

// RiskSignal is the holder analysis output consumed by the kill-switch scorer.
type RiskSignal struct {
	Mint               string          `json:"mint"`
	ConcentrationRisk  string          `json:"concentrationRisk"`
	Top3HolderSharePct float64         `json:"top3HolderSharePct"`
	HasMintAuthority   bool            `json:"hasMintAuthority"`
	HasFreezeAuthority bool            `json:"hasFreezeAuthority"`
	HolderBehavior     HolderBehavior  `json:"holderBehavior"`
	HolderProfiles     []HolderProfile `json:"holderProfiles"`
	SuspiciousPatterns []string        `json:"suspiciousPatterns"`
}

// Unknown reports whether the analysis degraded to the conservative fallback.
func (r *RiskSignal) Unknown() bool {
	return r.ConcentrationRisk == ConcentrationUnknown
}
