package domain

import "time"

// RunStats is one aggregate row per autotrade dry-run or engine pass.
// Append-only.
// Corresponds to the autotrade_runs table in PostgreSQL.
type RunStats struct {
	ID                   int64     // BIGSERIAL primary key
	UserID               int64     // owning user
	Mode                 string    // paper | live
	Scanned              int       // mints evaluated
	BuyCandidates        int       // mints that passed every policy gate
	Skipped              int       // mints that failed at least one gate
	Failed               int       // mints whose signal generation failed
	SimulatedExposureUsd float64   // buyCandidates * effective trade amount
	AvgExpectedPnlPct    float64   // mean projected edge across candidates
	CreatedAt            time.Time // insertion timestamp
}

// ProjectedPnlPct estimates the expected move for a candidate from its
// confidence and pattern score. Centered so a 55% blended edge breaks even,
// scaled to an 18% band.
func ProjectedPnlPct(confidence, patternScore float64) float64 {
	return (confidence*0.7 + patternScore/100*0.3 - 0.55) * 18
}
