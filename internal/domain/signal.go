package domain

import "time"

// SignalRecord is one persisted scan result. Append-only: rows are never
// mutated after creation.
// Corresponds to the signals table in PostgreSQL.
type SignalRecord struct {
	ID           int64     // BIGSERIAL primary key
	UserID       int64     // requesting user
	Mint         string    // token mint address
	Status       string    // FAVORABLE | CAUTION | HIGH_RISK
	Confidence   float64   // 0.10 .. 0.98
	PatternScore float64   // 0 .. 100
	KillScore    int       // kill-switch score 0 .. 100
	KillVerdict  string    // PASS | CAUTION | BLOCK
	PriceUsd     float64   // mark price at scan time
	LiquidityUsd float64   // pair liquidity at scan time
	PayloadJSON  string    // full Signal serialized as JSON
	CreatedAt    time.Time // insertion timestamp
}
