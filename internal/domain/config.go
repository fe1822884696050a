package domain

// PolicyConfig holds a user's autotrade gating thresholds.
// Mutable singleton per user, last-write-wins.
// Corresponds to the autotrade_configs table in PostgreSQL.
type PolicyConfig struct {
	UserID                int64   // owning user
	Enabled               bool    // master switch for the autotrade loop
	Mode                  string  // paper | live
	MinPatternScore       float64 // gate: signal patternScore must reach this
	MinConfidence         float64 // gate: signal confidence must reach this
	MaxConnectedHolderPct float64 // gate: connected cluster share ceiling
	RequireKillSwitchPass bool    // gate: kill-switch verdict must be PASS
	MaxPositionUsd        float64 // per-position USD cap
	ScanIntervalSec       float64 // background scan cadence
}

// ExecutionConfig holds a user's order-execution parameters.
// Same mutability contract as PolicyConfig.
// Corresponds to the execution_configs table in PostgreSQL.
type ExecutionConfig struct {
	UserID           int64   // owning user
	Enabled          bool    // master switch for the execution engine
	Mode             string  // paper | live
	TradeAmountUsd   float64 // USD spent per open
	MaxOpenPositions float64 // open-position capacity
	TpPct            float64 // take-profit percent
	SlPct            float64 // stop-loss percent
	TrailingStopPct  float64 // trailing-stop percent
	MaxHoldMinutes   float64 // forced close after this holding time
	CooldownSec      float64 // minimum seconds between opens
	PollIntervalSec  float64 // engine tick cadence
}

// DefaultPolicyConfig returns the initial policy for a new user.
func DefaultPolicyConfig(userID int64) *PolicyConfig {
	return &PolicyConfig{
		UserID:                userID,
		Enabled:               false,
		Mode:                  ModePaper,
		MinPatternScore:       70,
		MinConfidence:         0.75,
		MaxConnectedHolderPct: 20,
		RequireKillSwitchPass: true,
		MaxPositionUsd:        50,
		ScanIntervalSec:       60,
	}
}

// DefaultExecutionConfig returns the initial execution settings for a new user.
func DefaultExecutionConfig(userID int64) *ExecutionConfig {
	return &ExecutionConfig{
		UserID:           userID,
		Enabled:          false,
		Mode:             ModePaper,
		TradeAmountUsd:   25,
		MaxOpenPositions: 3,
		TpPct:            20,
		SlPct:            10,
		TrailingStopPct:  8,
		MaxHoldMinutes:   240,
		CooldownSec:      300,
		PollIntervalSec:  30,
	}
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Sanitize clamps every numeric field to its documented range and normalizes
// the mode. Applied on every write so persisted configs are always in range.
func (c *PolicyConfig) Sanitize() {
	if c.Mode != ModeLive {
		c.Mode = ModePaper
	}
	c.MinPatternScore = clampFloat(c.MinPatternScore, 40, 95)
	c.MinConfidence = clampFloat(c.MinConfidence, 0.1, 0.99)
	c.MaxConnectedHolderPct = clampFloat(c.MaxConnectedHolderPct, 1, 80)
	c.MaxPositionUsd = clampFloat(c.MaxPositionUsd, 1, 50000)
	c.ScanIntervalSec = clampFloat(c.ScanIntervalSec, 10, 3600)
}

// Sanitize clamps every numeric field to its documented range and normalizes
// the mode.
func (c *ExecutionConfig) Sanitize() {
	if c.Mode != ModeLive {
		c.Mode = ModePaper
	}
	c.TradeAmountUsd = clampFloat(c.TradeAmountUsd, 1, 50000)
	c.MaxOpenPositions = clampFloat(c.MaxOpenPositions, 1, 50)
	c.TpPct = clampFloat(c.TpPct, 0.2, 200)
	c.SlPct = clampFloat(c.SlPct, 0.2, 99)
	c.TrailingStopPct = clampFloat(c.TrailingStopPct, 0.1, 99)
	c.MaxHoldMinutes = clampFloat(c.MaxHoldMinutes, 1, 10080)
	c.CooldownSec = clampFloat(c.CooldownSec, 0, 86400)
	c.PollIntervalSec = clampFloat(c.PollIntervalSec, 5, 3600)
}
