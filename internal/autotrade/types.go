// Package autotrade gates scan signals through per-user policy and drives the
// position lifecycle.
package autotrade

import (
	"mintsentry/internal/domain"
	"mintsentry/internal/signal"
)

// Decision values.
const (
	DecisionBuyCandidate = "BUY_CANDIDATE"
	DecisionSkip         = "SKIP"
)

// Action types emitted by an engine tick.
const (
	ActionOpen  = "OPEN"
	ActionClose = "CLOSE"
	ActionInfo  = "INFO"
	ActionError = "ERROR"
)

// Decision is the policy verdict for one scanned mint.
type Decision struct {
	Mint         string            `json:"mint"`
	Decision     string            `json:"decision"`
	Reasons      []string          `json:"reasons"`
	SignalID     int64             `json:"signalId,omitempty"`
	SignalStatus string            `json:"signalStatus,omitempty"`
	PatternScore float64           `json:"patternScore,omitempty"`
	Confidence   float64           `json:"confidence,omitempty"`
	TradePlan    *signal.TradePlan `json:"tradePlan,omitempty"`
	OK           bool              `json:"ok"`
	Error        string            `json:"error,omitempty"`
}

// ExecutionCapabilities carries the caller's entitlements into a tick.
type ExecutionCapabilities struct {
	LiveEnabled bool
	UserPlan    string
}

// Action is one state change (or failed attempt) from an engine tick.
type Action struct {
	Type       string   `json:"type"`
	Mint       string   `json:"mint"`
	PositionID int64    `json:"positionId,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	PriceUsd   float64  `json:"priceUsd,omitempty"`
	PnlPct     *float64 `json:"pnlPct,omitempty"`
	Note       string   `json:"note,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// TickPositions is the position snapshot returned with a tick.
type TickPositions struct {
	Open           []*domain.Position `json:"open"`
	RecentlyClosed []*domain.Position `json:"recentlyClosed"`
}

// TickResult summarizes one engine pass.
type TickResult struct {
	Mode      string        `json:"mode"`
	Warnings  []string      `json:"warnings,omitempty"`
	Actions   []Action      `json:"actions"`
	Positions TickPositions `json:"positions"`
}
