package market

// Snapshot is the market view of one mint, taken from its most liquid
// Solana trading pair.
type Snapshot struct {
	Source            string  `json:"source"`
	DexID             string  `json:"dexId"`
	PairAddress       string  `json:"pairAddress"`
	PairURL           string  `json:"pairUrl"`
	PairCreatedAt     int64   `json:"pairCreatedAt"`
	TokenAddress      string  `json:"tokenAddress"`
	TokenName         string  `json:"tokenName"`
	TokenSymbol       string  `json:"tokenSymbol"`
	ImageURL          string  `json:"imageUrl"`
	HeaderURL         string  `json:"headerUrl"`
	PriceUsd          float64 `json:"priceUsd"`
	LiquidityUsd      float64 `json:"liquidityUsd"`
	Volume24hUsd      float64 `json:"volume24hUsd"`
	PriceChange24hPct float64 `json:"priceChange24hPct"`
	FdvUsd            float64 `json:"fdvUsd"`
}

// DiscoveryCandidate is a newly listed mint surfaced by a discovery source.
type DiscoveryCandidate struct {
	Mint      string `json:"mint"`
	IconURL   string `json:"iconUrl,omitempty"`
	HeaderURL string `json:"headerUrl,omitempty"`
}
