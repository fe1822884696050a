package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"mintsentry/internal/observability"
)

// DefaultBaseURL is the DexScreener API root.
const DefaultBaseURL = "https://api.dexscreener.com"

const snapshotTTL = 30 * time.Second

// ErrNoLiquidPair is returned when a mint has no Solana trading pair.
var ErrNoLiquidPair = errors.New("no liquid Solana pair found")

// Fetcher retrieves market snapshots from a DexScreener-compatible API,
// caching results briefly per mint.
type Fetcher struct {
	baseURL string
	client  *http.Client
	now     func() time.Time

	mu    sync.RWMutex
	cache map[string]snapshotEntry
}

type snapshotEntry struct {
	snapshot  *Snapshot
	expiresAt time.Time
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithBaseURL overrides the API root.
func WithBaseURL(url string) FetcherOption {
	return func(f *Fetcher) {
		f.baseURL = url
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}

// NewFetcher creates a market snapshot fetcher.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		now:     time.Now,
		cache:   make(map[string]snapshotEntry),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// pairsResponse is the wire shape of /latest/dex/tokens/<mint>.
type pairsResponse struct {
	Pairs []struct {
		DexID       string `json:"dexId"`
		PairAddress string `json:"pairAddress"`
		URL         string `json:"url"`
		PriceUsd    string `json:"priceUsd"`
		Liquidity   *struct {
			Usd float64 `json:"usd"`
		} `json:"liquidity"`
		Volume *struct {
			H24 float64 `json:"h24"`
		} `json:"volume"`
		PriceChange *struct {
			H24 float64 `json:"h24"`
		} `json:"priceChange"`
		Fdv           float64 `json:"fdv"`
		ChainID       string  `json:"chainId"`
		PairCreatedAt int64   `json:"pairCreatedAt"`
		BaseToken     *struct {
			Address string `json:"address"`
			Name    string `json:"name"`
			Symbol  string `json:"symbol"`
		} `json:"baseToken"`
		Info *struct {
			ImageURL  string `json:"imageUrl"`
			Header    string `json:"header"`
			OpenGraph string `json:"openGraph"`
		} `json:"info"`
	} `json:"pairs"`
}

// Snapshot returns the market view of a mint from its most liquid Solana
// pair. Results are cached for a short TTL.
func (f *Fetcher) Snapshot(ctx context.Context, mint string) (*Snapshot, error) {
	f.mu.RLock()
	entry, ok := f.cache[mint]
	f.mu.RUnlock()
	if ok && f.now().Before(entry.expiresAt) {
		observability.RecordMarketCacheHit()
		return entry.snapshot, nil
	}

	url := fmt.Sprintf("%s/latest/dex/tokens/%s", f.baseURL, mint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("market data request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market data HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed pairsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	snapshot, err := bestSolanaPair(&parsed, mint)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.cache[mint] = snapshotEntry{snapshot: snapshot, expiresAt: f.now().Add(snapshotTTL)}
	f.mu.Unlock()

	return snapshot, nil
}

func bestSolanaPair(parsed *pairsResponse, mint string) (*Snapshot, error) {
	type candidate struct {
		index     int
		liquidity float64
	}
	var candidates []candidate
	for i, pair := range parsed.Pairs {
		if pair.ChainID != "solana" {
			continue
		}
		liq := 0.0
		if pair.Liquidity != nil {
			liq = pair.Liquidity.Usd
		}
		candidates = append(candidates, candidate{index: i, liquidity: liq})
	}
	if len(candidates) == 0 {
		return nil, ErrNoLiquidPair
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].liquidity > candidates[j].liquidity
	})

	best := parsed.Pairs[candidates[0].index]

	price, _ := strconv.ParseFloat(best.PriceUsd, 64)

	snapshot := &Snapshot{
		Source:        "dexscreener",
		DexID:         best.DexID,
		PairAddress:   best.PairAddress,
		PairURL:       best.URL,
		PairCreatedAt: best.PairCreatedAt,
		TokenAddress:  mint,
		TokenName:     "Unknown Token",
		TokenSymbol:   "N/A",
		PriceUsd:      price,
		LiquidityUsd:  candidates[0].liquidity,
		FdvUsd:        best.Fdv,
	}
	if snapshot.DexID == "" {
		snapshot.DexID = "unknown"
	}
	if best.BaseToken != nil {
		if best.BaseToken.Address != "" {
			snapshot.TokenAddress = best.BaseToken.Address
		}
		if best.BaseToken.Name != "" {
			snapshot.TokenName = best.BaseToken.Name
		}
		if best.BaseToken.Symbol != "" {
			snapshot.TokenSymbol = best.BaseToken.Symbol
		}
	}
	if best.Info != nil {
		snapshot.ImageURL = best.Info.ImageURL
		if snapshot.ImageURL == "" {
			snapshot.ImageURL = best.Info.OpenGraph
		}
		snapshot.HeaderURL = best.Info.Header
	}
	if best.Volume != nil {
		snapshot.Volume24hUsd = best.Volume.H24
	}
	if best.PriceChange != nil {
		snapshot.PriceChange24hPct = best.PriceChange.H24
	}
	return snapshot, nil
}
