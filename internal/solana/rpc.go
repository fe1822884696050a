package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface the holder analyzer depends on.
type RPCClient interface {
	// GetTokenLargestAccounts retrieves the largest token accounts for a mint.
	GetTokenLargestAccounts(ctx context.Context, mint string) ([]TokenAccountBalance, error)

	// GetTokenSupply retrieves the total supply for a mint.
	GetTokenSupply(ctx context.Context, mint string) (*TokenSupply, error)

	// GetMintInfo retrieves parsed mint account authority flags.
	// Returns nil if the mint account does not exist.
	GetMintInfo(ctx context.Context, mint string) (*MintInfo, error)

	// GetTokenAccountOwners resolves owning wallets for token accounts.
	// The result maps token account -> owner; accounts that could not be
	// resolved are absent from the map.
	GetTokenAccountOwners(ctx context.Context, tokenAccounts []string) (map[string]string, error)

	// GetSignaturesForAddress retrieves recent signatures for an address.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetParsedTransaction retrieves a transaction with token balance metadata.
	// Returns nil if the transaction is not found.
	GetParsedTransaction(ctx context.Context, signature string) (*ParsedTransaction, error)

	// GetVersion retrieves the node software version.
	GetVersion(ctx context.Context) (*Version, error)
}
