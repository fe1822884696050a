package stub

import (
	"context"
	"errors"

	"mintsentry/internal/solana"
)

// ErrUnavailable simulates an exhausted RPC endpoint list.
var ErrUnavailable = errors.New("rpc unavailable")

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	LargestAccounts map[string][]solana.TokenAccountBalance
	Supplies        map[string]*solana.TokenSupply
	Mints           map[string]*solana.MintInfo
	Owners          map[string]string
	Signatures      map[string][]solana.SignatureInfo
	Transactions    map[string]*solana.ParsedTransaction

	// FailMethods forces the named methods to return ErrUnavailable.
	FailMethods map[string]bool

	// Calls counts invocations per method.
	Calls map[string]int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		LargestAccounts: make(map[string][]solana.TokenAccountBalance),
		Supplies:        make(map[string]*solana.TokenSupply),
		Mints:           make(map[string]*solana.MintInfo),
		Owners:          make(map[string]string),
		Signatures:      make(map[string][]solana.SignatureInfo),
		Transactions:    make(map[string]*solana.ParsedTransaction),
		FailMethods:     make(map[string]bool),
		Calls:           make(map[string]int),
	}
}

func (c *RPCClient) record(method string) error {
	c.Calls[method]++
	if c.FailMethods[method] {
		return ErrUnavailable
	}
	return nil
}

// GetTokenLargestAccounts retrieves largest accounts from the stub store.
func (c *RPCClient) GetTokenLargestAccounts(_ context.Context, mint string) ([]solana.TokenAccountBalance, error) {
	if err := c.record("getTokenLargestAccounts"); err != nil {
		return nil, err
	}
	return c.LargestAccounts[mint], nil
}

// GetTokenSupply retrieves supply from the stub store.
func (c *RPCClient) GetTokenSupply(_ context.Context, mint string) (*solana.TokenSupply, error) {
	if err := c.record("getTokenSupply"); err != nil {
		return nil, err
	}
	supply, ok := c.Supplies[mint]
	if !ok {
		return nil, ErrUnavailable
	}
	return supply, nil
}

// GetMintInfo retrieves mint authority flags from the stub store.
func (c *RPCClient) GetMintInfo(_ context.Context, mint string) (*solana.MintInfo, error) {
	if err := c.record("getMintInfo"); err != nil {
		return nil, err
	}
	return c.Mints[mint], nil
}

// GetTokenAccountOwners resolves owners from the stub store.
func (c *RPCClient) GetTokenAccountOwners(_ context.Context, tokenAccounts []string) (map[string]string, error) {
	if err := c.record("getTokenAccountOwners"); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(tokenAccounts))
	for _, acct := range tokenAccounts {
		if owner, ok := c.Owners[acct]; ok {
			out[acct] = owner
		}
	}
	return out, nil
}

// GetSignaturesForAddress retrieves signatures from the stub store.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	if err := c.record("getSignaturesForAddress"); err != nil {
		return nil, err
	}
	sigs := c.Signatures[address]
	if opts != nil && opts.Limit > 0 && opts.Limit < len(sigs) {
		return sigs[:opts.Limit], nil
	}
	return sigs, nil
}

// GetParsedTransaction retrieves a transaction from the stub store.
func (c *RPCClient) GetParsedTransaction(_ context.Context, signature string) (*solana.ParsedTransaction, error) {
	if err := c.record("getParsedTransaction"); err != nil {
		return nil, err
	}
	return c.Transactions[signature], nil
}

// GetVersion returns a fixed version string.
func (c *RPCClient) GetVersion(_ context.Context) (*solana.Version, error) {
	if err := c.record("getVersion"); err != nil {
		return nil, err
	}
	return &solana.Version{SolanaCore: "2.0.0-stub"}, nil
}

// AddSignatures adds signatures for an address to the stub store.
func (c *RPCClient) AddSignatures(address string, sigs []solana.SignatureInfo) {
	c.Signatures[address] = sigs
}

// AddTransaction adds a transaction to the stub store.
func (c *RPCClient) AddTransaction(tx *solana.ParsedTransaction) {
	c.Transactions[tx.Signature] = tx
}

var _ solana.RPCClient = (*RPCClient)(nil)
