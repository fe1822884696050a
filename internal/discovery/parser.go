package discovery

import (
	"regexp"
	"strings"
)

// Known DEX program IDs.
const (
	// RaydiumAMMV4 is the Raydium AMM v4 program ID.
	RaydiumAMMV4 = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	// PumpFun is the pump.fun program ID.
	PumpFun = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
)

// WSOL is the Wrapped SOL mint address.
const WSOL = "So11111111111111111111111111111111111111112"

// PoolInit is one detected pool initialization.
// Mint is empty when the logs alone do not carry it (Raydium); the watcher
// resolves those through the transaction's token balances.
type PoolInit struct {
	Program   string
	Mint      string
	Signature string
	Slot      int64
}

// PoolInitParser detects pool initializations in transaction logs.
type PoolInitParser struct {
	raydiumInitPattern *regexp.Regexp
	pumpCreatePattern  *regexp.Regexp
	mintPattern        *regexp.Regexp
}

// NewPoolInitParser creates a parser for the registered DEX programs.
func NewPoolInitParser() *PoolInitParser {
	return &PoolInitParser{
		// Raydium AMM v4 logs "initialize2: InitializeInstruction2" on pool
		// creation. The init ray_log carries market data but no mint.
		raydiumInitPattern: regexp.MustCompile(`Program log: initialize2: InitializeInstruction2`),
		pumpCreatePattern:  regexp.MustCompile(`Program log: Instruction: Create\b`),
		mintPattern:        regexp.MustCompile(`mint[=:]\s*([1-9A-HJ-NP-Za-km-z]{32,44})`),
	}
}

// Parse scans one log event for pool initializations. Failed transactions
// are skipped.
func (p *PoolInitParser) Parse(event LogEvent) []PoolInit {
	if event.Failed {
		return nil
	}

	var inits []PoolInit
	if p.hasRaydiumInit(event.Logs) {
		inits = append(inits, PoolInit{
			Program:   RaydiumAMMV4,
			Signature: event.Signature,
			Slot:      event.Slot,
		})
	}
	if mint, ok := p.pumpFunCreate(event.Logs); ok {
		inits = append(inits, PoolInit{
			Program:   PumpFun,
			Mint:      mint,
			Signature: event.Signature,
			Slot:      event.Slot,
		})
	}
	return inits
}

func (p *PoolInitParser) hasRaydiumInit(logs []string) bool {
	invoked := false
	for _, line := range logs {
		if strings.Contains(line, "Program "+RaydiumAMMV4+" invoke") {
			invoked = true
		}
		if invoked && p.raydiumInitPattern.MatchString(line) {
			return true
		}
	}
	return false
}

// pumpFunCreate detects a bonding-curve Create inside a pump.fun invocation
// window and extracts the mint logged with it.
func (p *PoolInitParser) pumpFunCreate(logs []string) (string, bool) {
	inPumpFun := false
	created := false
	mint := ""

	for _, line := range logs {
		if strings.Contains(line, "Program "+PumpFun+" invoke") {
			inPumpFun = true
			continue
		}
		if strings.Contains(line, "Program "+PumpFun+" success") ||
			strings.Contains(line, "Program "+PumpFun+" failed") {
			if created && mint != "" {
				return mint, true
			}
			inPumpFun = false
			created = false
			mint = ""
			continue
		}
		if !inPumpFun {
			continue
		}

		if p.pumpCreatePattern.MatchString(line) {
			created = true
		}
		if m := p.mintPattern.FindStringSubmatch(line); m != nil {
			mint = m[1]
		}
	}

	if created && mint != "" {
		return mint, true
	}
	return "", false
}
