package domain

import "time"

// Position status constants.
const (
	PositionOpen   = "OPEN"
	PositionClosed = "CLOSED"
)

// Close reason constants.
const (
	CloseTakeProfit   = "TP_HIT"
	CloseStopLoss     = "SL_HIT"
	CloseTrailingStop = "TRAILING_STOP"
	CloseMaxHold      = "MAX_HOLD_TIME"
)

// Execution mode constants.
const (
	ModePaper = "paper"
	ModeLive  = "live"
)

// Position is one autotrade position.
// Corresponds to the positions table in PostgreSQL.
type Position struct {
	ID                int64      // BIGSERIAL primary key
	UserID            int64      // owning user
	Mint              string     // token mint address
	Status            string     // OPEN | CLOSED
	Mode              string     // paper | live
	EntrySignalID     int64      // signal that justified the entry
	EntryPriceUsd     float64    // fill price at open
	SizeUsd           float64    // position size in USD at open
	QtyTokens         float64    // sizeUsd / entryPriceUsd
	TpPct             float64    // take-profit trigger, percent above entry
	SlPct             float64    // stop-loss trigger, percent below entry
	TrailingStopPct   float64    // trailing-stop distance from the high water mark
	MaxHoldMinutes    float64    // forced close after this holding time
	HighWaterPriceUsd float64    // highest mark seen, never decreases while OPEN
	LastPriceUsd      float64    // most recent mark
	OpenedAt          time.Time  // open timestamp
	ClosedAt          *time.Time // close timestamp, nil while OPEN
	CloseReason       *string    // TP_HIT | SL_HIT | TRAILING_STOP | MAX_HOLD_TIME
	PnlPct            *float64   // (close-entry)/entry*100, stamped once at close
}

// Open reports whether the position is still open.
func (p *Position) Open() bool {
	return p.Status == PositionOpen
}
