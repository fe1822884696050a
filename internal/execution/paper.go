package execution

import "context"

// PaperExecutor fills every order instantly without touching the chain.
type PaperExecutor struct{}

// NewPaperExecutor creates a PaperExecutor.
func NewPaperExecutor() *PaperExecutor {
	return &PaperExecutor{}
}

// Compile-time interface check.
var _ OrderExecutor = (*PaperExecutor)(nil)

// Buy simulates a filled buy order.
func (e *PaperExecutor) Buy(_ context.Context, mint string, _ float64) (*OrderResult, error) {
	return &OrderResult{Side: SideBuy, Mint: mint, Status: "SIMULATED"}, nil
}

// Sell simulates a filled sell order.
func (e *PaperExecutor) Sell(_ context.Context, mint string) (*OrderResult, error) {
	return &OrderResult{Side: SideSell, Mint: mint, Status: "SIMULATED"}, nil
}
