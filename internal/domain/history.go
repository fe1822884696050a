package domain

// SignalPoint is the analytics projection of one persisted signal.
// Corresponds to the signal_history table in ClickHouse.
type SignalPoint struct {
	Mint         string  // token mint address
	UserID       int64   // requesting user
	SignalID     int64   // id of the persisted signal row
	Status       string  // FAVORABLE | CAUTION | HIGH_RISK
	PatternScore float64 // 0 .. 100
	KillScore    int32   // kill-switch score 0 .. 100
	Confidence   float64 // 0.10 .. 0.98
	PriceUsd     float64 // mark price at scan time
	LiquidityUsd float64 // pair liquidity at scan time
	TimestampMs  int64   // Unix timestamp in milliseconds
}
