package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mintsentry/internal/observability"
)

// DefaultJupiterBaseURL is the Jupiter Ultra API root.
const DefaultJupiterBaseURL = "https://api.jup.ag/ultra/v1"

// USDCMint is the quote currency for every order.
const USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

// JupiterExecutor fills orders through the Jupiter Ultra order/execute flow.
type JupiterExecutor struct {
	baseURL string
	apiKey  string
	signer  *Signer
	client  *http.Client
}

// JupiterOption configures a JupiterExecutor.
type JupiterOption func(*JupiterExecutor)

// WithBaseURL overrides the API root, for tests.
func WithBaseURL(url string) JupiterOption {
	return func(e *JupiterExecutor) { e.baseURL = url }
}

// WithAPIKey attaches an x-api-key header to every request.
func WithAPIKey(key string) JupiterOption {
	return func(e *JupiterExecutor) { e.apiKey = key }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) JupiterOption {
	return func(e *JupiterExecutor) { e.client = client }
}

// NewJupiterExecutor creates an executor signing with the given trader key.
// The signer must be configured before any order is placed.
func NewJupiterExecutor(signer *Signer, opts ...JupiterOption) (*JupiterExecutor, error) {
	if signer == nil {
		return nil, fmt.Errorf("missing trader private key")
	}

	e := &JupiterExecutor{
		baseURL: DefaultJupiterBaseURL,
		signer:  signer,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Compile-time interface check.
var _ OrderExecutor = (*JupiterExecutor)(nil)

type orderResponse struct {
	Transaction string `json:"transaction"`
	RequestID   string `json:"requestId"`
}

type executeResponse struct {
	Status    string `json:"status"`
	Signature string `json:"signature"`
	Error     string `json:"error"`
}

type holdingsResponse struct {
	Tokens map[string][]struct {
		Amount string `json:"amount"`
	} `json:"tokens"`
}

// Buy swaps amountUsd of USDC into mint.
func (e *JupiterExecutor) Buy(ctx context.Context, mint string, amountUsd float64) (*OrderResult, error) {
	// USDC has 6 decimals.
	amountNative := int64(math.Max(1, math.Floor(amountUsd*1_000_000)))

	exec, err := e.orderAndExecute(ctx, USDCMint, mint, fmt.Sprintf("%d", amountNative))
	if err != nil {
		observability.RecordOrderExecution("live", "failed")
		return nil, fmt.Errorf("buy %s: %w", mint, err)
	}

	observability.RecordOrderExecution("live", "ok")
	return &OrderResult{Side: SideBuy, Mint: mint, Signature: exec.Signature, Status: orderStatus(exec)}, nil
}

// Sell liquidates the full held balance of mint back into USDC.
func (e *JupiterExecutor) Sell(ctx context.Context, mint string) (*OrderResult, error) {
	amountRaw, err := e.heldAmount(ctx, mint)
	if err != nil {
		observability.RecordOrderExecution("live", "failed")
		return nil, fmt.Errorf("sell %s: %w", mint, err)
	}

	exec, err := e.orderAndExecute(ctx, mint, USDCMint, amountRaw)
	if err != nil {
		observability.RecordOrderExecution("live", "failed")
		return nil, fmt.Errorf("sell %s: %w", mint, err)
	}

	observability.RecordOrderExecution("live", "ok")
	return &OrderResult{Side: SideSell, Mint: mint, Signature: exec.Signature, Status: orderStatus(exec)}, nil
}

func orderStatus(exec *executeResponse) string {
	if exec.Status == "" {
		return "UNKNOWN"
	}
	return exec.Status
}

func (e *JupiterExecutor) orderAndExecute(ctx context.Context, inputMint, outputMint, amount string) (*executeResponse, error) {
	orderURL := fmt.Sprintf("%s/order?inputMint=%s&outputMint=%s&amount=%s&taker=%s",
		e.baseURL, url.QueryEscape(inputMint), url.QueryEscape(outputMint),
		url.QueryEscape(amount), url.QueryEscape(e.signer.PublicKey()))

	var order orderResponse
	if err := e.getJSON(ctx, orderURL, &order); err != nil {
		return nil, fmt.Errorf("fetch order: %w", err)
	}
	if order.Transaction == "" || order.RequestID == "" {
		return nil, fmt.Errorf("order response missing transaction/requestId")
	}

	signed, err := e.signer.SignTransaction(order.Transaction)
	if err != nil {
		return nil, fmt.Errorf("sign order: %w", err)
	}

	body, err := json.Marshal(map[string]string{
		"signedTransaction": signed,
		"requestId":         order.RequestID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal execute request: %w", err)
	}

	var exec executeResponse
	if err := e.postJSON(ctx, e.baseURL+"/execute", body, &exec); err != nil {
		return nil, fmt.Errorf("execute order: %w", err)
	}
	if exec.Error != "" {
		return nil, fmt.Errorf("execute order: %s", exec.Error)
	}
	return &exec, nil
}

// heldAmount sums the wallet's raw balance of mint across token accounts.
func (e *JupiterExecutor) heldAmount(ctx context.Context, mint string) (string, error) {
	var holdings holdingsResponse
	holdingsURL := e.baseURL + "/holdings/" + e.signer.PublicKey()
	if err := e.getJSON(ctx, holdingsURL, &holdings); err != nil {
		return "", fmt.Errorf("fetch holdings: %w", err)
	}

	accounts := holdings.Tokens[mint]
	if len(accounts) == 0 {
		return "", fmt.Errorf("no token balance found for mint in holdings")
	}

	var total uint64
	for _, acct := range accounts {
		amount, err := strconv.ParseUint(acct.Amount, 10, 64)
		if err != nil {
			continue
		}
		total += amount
	}
	if total == 0 {
		return "", fmt.Errorf("token balance is zero; nothing to sell")
	}
	return fmt.Sprintf("%d", total), nil
}

func (e *JupiterExecutor) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return e.doJSON(req, out)
}

func (e *JupiterExecutor) postJSON(ctx context.Context, rawURL string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return e.doJSON(req, out)
}

func (e *JupiterExecutor) doJSON(req *http.Request, out any) error {
	if e.apiKey != "" {
		req.Header.Set("x-api-key", e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(payload))
	}
	return json.Unmarshal(payload, out)
}
