package solana

// TokenAccountBalance is one entry from getTokenLargestAccounts.
type TokenAccountBalance struct {
	Address        string
	AmountRaw      string
	UIAmountString string
}

// TokenSupply from getTokenSupply.
type TokenSupply struct {
	AmountRaw string
	Decimals  int
	UIAmount  *float64
}

// MintInfo holds parsed mint account authority flags.
// Empty authority means revoked.
type MintInfo struct {
	MintAuthority   string
	FreezeAuthority string
}

// SignatureInfo from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// SignaturesOpts defines optional pagination parameters for getSignaturesForAddress.
type SignaturesOpts struct {
	Before string // Start searching backwards from this signature
	Until  string // Search until this signature
	Limit  int    // Maximum number of signatures to return
}

// TokenBalance is a pre/post token balance entry from transaction meta.
type TokenBalance struct {
	AccountIndex int
	Mint         string
	Owner        string
	UIAmount     float64
}

// ParsedTransaction carries the subset of getTransaction output needed for
// holder activity classification.
type ParsedTransaction struct {
	Signature         string
	Slot              int64
	BlockTime         int64 // Unix timestamp (seconds)
	AccountKeys       []string
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
}

// Version from getVersion.
type Version struct {
	SolanaCore string
}
