// Package execution routes autotrade orders, either simulated or through the
// Jupiter Ultra API.
package execution

import "context"

// Order sides.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// OrderResult is the settled outcome of one order.
type OrderResult struct {
	Side      string `json:"side"`
	Mint      string `json:"mint"`
	Signature string `json:"signature,omitempty"`
	Status    string `json:"status"`
}

// OrderExecutor fills buy and sell orders for the position engine.
type OrderExecutor interface {
	// Buy swaps amountUsd of the quote currency into mint.
	Buy(ctx context.Context, mint string, amountUsd float64) (*OrderResult, error)

	// Sell liquidates the full held balance of mint.
	Sell(ctx context.Context, mint string) (*OrderResult, error)
}
