package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Default configuration values.
const (
	DefaultAttemptTimeout = 12 * time.Second
	DefaultMaxAttempts    = 3
	DefaultBackoffBase    = 250 * time.Millisecond
	DefaultJitterMax      = 120 * time.Millisecond

	// PublicEndpoint is appended as the last-resort fallback.
	PublicEndpoint = "https://api.mainnet-beta.solana.com"

	// rpcErrNodeBusy is the node-is-behind/busy RPC error code that is
	// worth retrying on the same endpoint.
	rpcErrNodeBusy = -32005
)

// CallError is returned after every endpoint and attempt has been exhausted.
type CallError struct {
	Method  string
	LastErr error
}

func (e *CallError) Error() string {
	if e.LastErr == nil {
		return fmt.Sprintf("all RPC endpoints failed for %s", e.Method)
	}
	return fmt.Sprintf("all RPC endpoints failed for %s: %v", e.Method, e.LastErr)
}

func (e *CallError) Unwrap() error { return e.LastErr }

// HTTPClient implements RPCClient using HTTP JSON-RPC 2.0 with
// multi-endpoint fallback and retry with exponential backoff.
type HTTPClient struct {
	endpoints      []string
	client         *http.Client
	maxAttempts    int
	attemptTimeout time.Duration
	backoffBase    time.Duration
	jitterMax      time.Duration
	requestID      atomic.Uint64

	// sleep is overridable in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithAttemptTimeout sets the per-attempt timeout.
func WithAttemptTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.attemptTimeout = d
	}
}

// WithMaxAttempts sets maximum attempts per endpoint.
func WithMaxAttempts(n int) ClientOption {
	return func(c *HTTPClient) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff sets the backoff base and jitter ceiling.
func WithBackoff(base, jitterMax time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.backoffBase = base
		c.jitterMax = jitterMax
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a Solana RPC client over an ordered endpoint list.
// The primary endpoint comes first, configured fallbacks follow, and the
// public mainnet endpoint is appended last. Duplicates are removed while
// preserving order.
func NewHTTPClient(primary string, fallbacks []string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoints:      buildEndpointList(primary, fallbacks),
		client:         &http.Client{},
		maxAttempts:    DefaultMaxAttempts,
		attemptTimeout: DefaultAttemptTimeout,
		backoffBase:    DefaultBackoffBase,
		jitterMax:      DefaultJitterMax,
	}
	c.sleep = func(ctx context.Context, d time.Duration) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
			return nil
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoints returns the resolved endpoint list.
func (c *HTTPClient) Endpoints() []string {
	out := make([]string, len(c.endpoints))
	copy(out, c.endpoints)
	return out
}

func buildEndpointList(primary string, fallbacks []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(url string) {
		if url == "" || seen[url] {
			return
		}
		seen[url] = true
		out = append(out, url)
	}
	add(primary)
	for _, url := range fallbacks {
		add(url)
	}
	add(PublicEndpoint)
	return out
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// httpStatusError marks a non-200 HTTP response for retry classification.
type httpStatusError struct {
	status int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("RPC HTTP %d", e.status)
}

// isRetryable reports whether an attempt failure is worth retrying on the
// same endpoint. Anything else falls through to the next endpoint.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		s := statusErr.status
		return s == http.StatusTooManyRequests || s == http.StatusRequestTimeout || s >= 500
	}

	var rpcErr *rpcError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code == rpcErrNodeBusy
	}

	// Timeouts, cancelled attempts and network transport failures are
	// retryable. Decode and protocol failures are not; those fall through
	// to the next endpoint.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Call performs a JSON-RPC call, walking the endpoint list. Each endpoint
// gets up to maxAttempts tries with exponential backoff plus jitter, but
// only for retryable failures; non-retryable failures move straight to the
// next endpoint. Returns *CallError after the list is exhausted.
func (c *HTTPClient) Call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if len(c.endpoints) == 0 {
		return &CallError{Method: method, LastErr: errors.New("no RPC endpoints configured")}
	}

	reqID := c.requestID.Add(1)
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error

	for _, endpoint := range c.endpoints {
		for attempt := 0; attempt < c.maxAttempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return err
			}

			err := c.callOnce(ctx, endpoint, body, result)
			if err == nil {
				return nil
			}
			lastErr = fmt.Errorf("%s: %w", endpoint, err)

			if !isRetryable(err) || attempt == c.maxAttempts-1 {
				break
			}

			backoff := c.backoffBase * (1 << attempt)
			if c.jitterMax > 0 {
				backoff += time.Duration(rand.Int63n(int64(c.jitterMax)))
			}
			if err := c.sleep(ctx, backoff); err != nil {
				return err
			}
		}
	}

	return &CallError{Method: method, LastErr: lastErr}
}

// callOnce performs one attempt against one endpoint with its own timeout.
func (c *HTTPClient) callOnce(ctx context.Context, endpoint string, body []byte, result interface{}) error {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &httpStatusError{status: resp.StatusCode}
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		return rpcResp.Error
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}

	return nil
}

// GetTokenLargestAccounts retrieves the largest token accounts for a mint.
func (c *HTTPClient) GetTokenLargestAccounts(ctx context.Context, mint string) ([]TokenAccountBalance, error) {
	var result struct {
		Value []struct {
			Address        string `json:"address"`
			Amount         string `json:"amount"`
			UIAmountString string `json:"uiAmountString"`
		} `json:"value"`
	}
	if err := c.Call(ctx, "getTokenLargestAccounts", []interface{}{mint}, &result); err != nil {
		return nil, err
	}

	balances := make([]TokenAccountBalance, len(result.Value))
	for i, v := range result.Value {
		balances[i] = TokenAccountBalance{
			Address:        v.Address,
			AmountRaw:      v.Amount,
			UIAmountString: v.UIAmountString,
		}
	}
	return balances, nil
}

// GetTokenSupply retrieves the total supply for a mint.
func (c *HTTPClient) GetTokenSupply(ctx context.Context, mint string) (*TokenSupply, error) {
	var result struct {
		Value struct {
			Amount   string   `json:"amount"`
			Decimals int      `json:"decimals"`
			UIAmount *float64 `json:"uiAmount"`
		} `json:"value"`
	}
	if err := c.Call(ctx, "getTokenSupply", []interface{}{mint}, &result); err != nil {
		return nil, err
	}

	return &TokenSupply{
		AmountRaw: result.Value.Amount,
		Decimals:  result.Value.Decimals,
		UIAmount:  result.Value.UIAmount,
	}, nil
}

// GetMintInfo retrieves parsed mint account authority flags.
// Returns nil if the mint account does not exist.
func (c *HTTPClient) GetMintInfo(ctx context.Context, mint string) (*MintInfo, error) {
	params := []interface{}{
		mint,
		map[string]interface{}{"encoding": "jsonParsed"},
	}

	var result struct {
		Value *struct {
			Data struct {
				Parsed struct {
					Info struct {
						MintAuthority   *string `json:"mintAuthority"`
						FreezeAuthority *string `json:"freezeAuthority"`
					} `json:"info"`
				} `json:"parsed"`
			} `json:"data"`
		} `json:"value"`
	}
	if err := c.Call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}

	if result.Value == nil {
		return nil, nil
	}

	info := &MintInfo{}
	if a := result.Value.Data.Parsed.Info.MintAuthority; a != nil {
		info.MintAuthority = *a
	}
	if a := result.Value.Data.Parsed.Info.FreezeAuthority; a != nil {
		info.FreezeAuthority = *a
	}
	return info, nil
}

// GetTokenAccountOwners resolves owning wallets via getMultipleAccounts.
func (c *HTTPClient) GetTokenAccountOwners(ctx context.Context, tokenAccounts []string) (map[string]string, error) {
	if len(tokenAccounts) == 0 {
		return map[string]string{}, nil
	}

	params := []interface{}{
		tokenAccounts,
		map[string]interface{}{"encoding": "jsonParsed"},
	}

	var result struct {
		Value []*struct {
			Data struct {
				Parsed struct {
					Info struct {
						Owner string `json:"owner"`
					} `json:"info"`
				} `json:"parsed"`
			} `json:"data"`
		} `json:"value"`
	}
	if err := c.Call(ctx, "getMultipleAccounts", params, &result); err != nil {
		return nil, err
	}

	owners := make(map[string]string, len(tokenAccounts))
	for i, v := range result.Value {
		if i >= len(tokenAccounts) || v == nil {
			continue
		}
		if owner := v.Data.Parsed.Info.Owner; owner != "" {
			owners[tokenAccounts[i]] = owner
		}
	}
	return owners, nil
}

// GetSignaturesForAddress retrieves recent signatures for an address.
func (c *HTTPClient) GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error) {
	config := make(map[string]interface{})
	if opts != nil {
		if opts.Before != "" {
			config["before"] = opts.Before
		}
		if opts.Until != "" {
			config["until"] = opts.Until
		}
		if opts.Limit > 0 {
			config["limit"] = opts.Limit
		}
	}

	params := []interface{}{address}
	if len(config) > 0 {
		params = append(params, config)
	}

	var result []struct {
		Signature string      `json:"signature"`
		Slot      int64       `json:"slot"`
		BlockTime *int64      `json:"blockTime"`
		Err       interface{} `json:"err"`
	}
	if err := c.Call(ctx, "getSignaturesForAddress", params, &result); err != nil {
		return nil, err
	}

	sigs := make([]SignatureInfo, len(result))
	for i, r := range result {
		sigs[i] = SignatureInfo{
			Signature: r.Signature,
			Slot:      r.Slot,
			BlockTime: r.BlockTime,
			Err:       r.Err,
		}
	}
	return sigs, nil
}

// GetParsedTransaction retrieves a transaction with token balance metadata.
// Returns nil if the transaction is not found.
func (c *HTTPClient) GetParsedTransaction(ctx context.Context, signature string) (*ParsedTransaction, error) {
	params := []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "jsonParsed",
			"maxSupportedTransactionVersion": 0,
		},
	}

	var result *struct {
		Slot        int64  `json:"slot"`
		BlockTime   *int64 `json:"blockTime"`
		Transaction struct {
			Message struct {
				AccountKeys []json.RawMessage `json:"accountKeys"`
			} `json:"message"`
		} `json:"transaction"`
		Meta *struct {
			PreTokenBalances  []rawTokenBalance `json:"preTokenBalances"`
			PostTokenBalances []rawTokenBalance `json:"postTokenBalances"`
		} `json:"meta"`
	}
	if err := c.Call(ctx, "getTransaction", params, &result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	tx := &ParsedTransaction{
		Signature:   signature,
		Slot:        result.Slot,
		AccountKeys: decodeAccountKeys(result.Transaction.Message.AccountKeys),
	}
	if result.BlockTime != nil {
		tx.BlockTime = *result.BlockTime
	}
	if result.Meta != nil {
		tx.PreTokenBalances = decodeTokenBalances(result.Meta.PreTokenBalances)
		tx.PostTokenBalances = decodeTokenBalances(result.Meta.PostTokenBalances)
	}
	return tx, nil
}

// rawTokenBalance is the wire shape of a pre/post token balance entry.
type rawTokenBalance struct {
	AccountIndex  int    `json:"accountIndex"`
	Mint          string `json:"mint"`
	Owner         string `json:"owner"`
	UITokenAmount struct {
		UIAmount       *float64 `json:"uiAmount"`
		UIAmountString string   `json:"uiAmountString"`
		Amount         string   `json:"amount"`
	} `json:"uiTokenAmount"`
}

func decodeTokenBalances(raw []rawTokenBalance) []TokenBalance {
	out := make([]TokenBalance, 0, len(raw))
	for _, b := range raw {
		amount := 0.0
		switch {
		case b.UITokenAmount.UIAmountString != "":
			if v, err := strconv.ParseFloat(b.UITokenAmount.UIAmountString, 64); err == nil {
				amount = v
			}
		case b.UITokenAmount.UIAmount != nil:
			amount = *b.UITokenAmount.UIAmount
		}
		out = append(out, TokenBalance{
			AccountIndex: b.AccountIndex,
			Mint:         b.Mint,
			Owner:        b.Owner,
			UIAmount:     amount,
		})
	}
	return out
}

// decodeAccountKeys handles both string keys and jsonParsed {pubkey} objects.
func decodeAccountKeys(raw []json.RawMessage) []string {
	keys := make([]string, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			keys = append(keys, s)
			continue
		}
		var obj struct {
			Pubkey string `json:"pubkey"`
		}
		if err := json.Unmarshal(r, &obj); err == nil && obj.Pubkey != "" {
			keys = append(keys, obj.Pubkey)
		}
	}
	return keys
}

// GetVersion retrieves the node software version.
func (c *HTTPClient) GetVersion(ctx context.Context) (*Version, error) {
	var result struct {
		SolanaCore string `json:"solana-core"`
	}
	if err := c.Call(ctx, "getVersion", nil, &result); err != nil {
		return nil, err
	}
	return &Version{SolanaCore: result.SolanaCore}, nil
}

// Ensure HTTPClient implements RPCClient.
var _ RPCClient = (*HTTPClient)(nil)
