package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultDiscoveryMax bounds how many candidates one discovery pass returns.
const DefaultDiscoveryMax = 25

// Discovery surfaces newly listed Solana mints from token profile and boost
// feeds on a DexScreener-compatible API.
type Discovery struct {
	baseURL string
	client  *http.Client
}

// NewDiscovery creates a REST discovery source.
func NewDiscovery(opts ...FetcherOption) *Discovery {
	// Reuse the fetcher option set so callers configure both the same way.
	f := NewFetcher(opts...)
	return &Discovery{baseURL: f.baseURL, client: f.client}
}

// profileEntry is the wire shape shared by the profile and boost feeds.
type profileEntry struct {
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
	Icon         string `json:"icon"`
	Header       string `json:"header"`
}

// Discover merges the latest token profiles and boosts into a deduplicated
// candidate list, Solana only, capped at max. Individual feed failures are
// tolerated; only the merged result matters.
func (d *Discovery) Discover(ctx context.Context, max int) ([]DiscoveryCandidate, error) {
	if max <= 0 {
		max = DefaultDiscoveryMax
	}

	feeds := []string{
		d.baseURL + "/token-profiles/latest/v1",
		d.baseURL + "/token-boosts/latest/v1",
		d.baseURL + "/token-boosts/top/v1",
	}

	type feedResult struct {
		index   int
		entries []profileEntry
	}
	results := make(chan feedResult, len(feeds))
	for i, url := range feeds {
		go func(i int, url string) {
			entries, err := d.fetchFeed(ctx, url)
			if err != nil {
				entries = nil
			}
			results <- feedResult{index: i, entries: entries}
		}(i, url)
	}

	merged := make([][]profileEntry, len(feeds))
	for range feeds {
		r := <-results
		merged[r.index] = r.entries
	}

	seen := make(map[string]bool)
	var candidates []DiscoveryCandidate
	for _, entries := range merged {
		for _, entry := range entries {
			if entry.ChainID != "solana" || entry.TokenAddress == "" {
				continue
			}
			if seen[entry.TokenAddress] {
				continue
			}
			seen[entry.TokenAddress] = true
			candidates = append(candidates, DiscoveryCandidate{
				Mint:      entry.TokenAddress,
				IconURL:   entry.Icon,
				HeaderURL: entry.Header,
			})
			if len(candidates) >= max {
				return candidates, nil
			}
		}
	}
	return candidates, nil
}

func (d *Discovery) fetchFeed(ctx context.Context, url string) ([]profileEntry, error) {
	feedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(feedCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discovery request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var entries []profileEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal feed: %w", err)
	}
	return entries, nil
}
