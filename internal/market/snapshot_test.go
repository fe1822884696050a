package market

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func pairJSON(chainID string, liquidity float64, price string, pairAddress string) map[string]interface{} {
	return map[string]interface{}{
		"chainId":     chainID,
		"dexId":       "raydium",
		"pairAddress": pairAddress,
		"priceUsd":    price,
		"liquidity":   map[string]interface{}{"usd": liquidity},
		"volume":      map[string]interface{}{"h24": 50000.0},
		"priceChange": map[string]interface{}{"h24": 12.5},
		"baseToken": map[string]interface{}{
			"address": "mint111",
			"name":    "Test Token",
			"symbol":  "TEST",
		},
	}
}

func TestFetcher_PicksMostLiquidSolanaPair(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"pairs": []interface{}{
				pairJSON("ethereum", 900000, "2.0", "ethpair"),
				pairJSON("solana", 100000, "1.0", "smallpair"),
				pairJSON("solana", 400000, "1.5", "bigpair"),
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	fetcher := NewFetcher(WithBaseURL(server.URL))
	snapshot, err := fetcher.Snapshot(context.Background(), "mint111")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if snapshot.PairAddress != "bigpair" {
		t.Errorf("expected most liquid Solana pair, got %s", snapshot.PairAddress)
	}

	if snapshot.LiquidityUsd != 400000 {
		t.Errorf("expected liquidity 400000, got %.0f", snapshot.LiquidityUsd)
	}

	if snapshot.PriceUsd != 1.5 {
		t.Errorf("expected price 1.5, got %.2f", snapshot.PriceUsd)
	}

	if snapshot.TokenSymbol != "TEST" {
		t.Errorf("expected symbol TEST, got %s", snapshot.TokenSymbol)
	}

	if snapshot.Volume24hUsd != 50000 {
		t.Errorf("expected volume 50000, got %.0f", snapshot.Volume24hUsd)
	}

	if snapshot.PriceChange24hPct != 12.5 {
		t.Errorf("expected change 12.5, got %.2f", snapshot.PriceChange24hPct)
	}
}

func TestFetcher_NoSolanaPair(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"pairs": []interface{}{pairJSON("ethereum", 900000, "2.0", "ethpair")},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	fetcher := NewFetcher(WithBaseURL(server.URL))
	_, err := fetcher.Snapshot(context.Background(), "mint111")
	if !errors.Is(err, ErrNoLiquidPair) {
		t.Errorf("expected ErrNoLiquidPair, got %v", err)
	}
}

func TestFetcher_CachesWithinTTL(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		resp := map[string]interface{}{
			"pairs": []interface{}{pairJSON("solana", 100000, "1.0", "pair1")},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	current := time.Unix(1_800_000_000, 0)
	fetcher := NewFetcher(WithBaseURL(server.URL), WithClock(func() time.Time { return current }))

	if _, err := fetcher.Snapshot(context.Background(), "mint111"); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if _, err := fetcher.Snapshot(context.Background(), "mint111"); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if hits.Load() != 1 {
		t.Errorf("expected 1 upstream hit within TTL, got %d", hits.Load())
	}

	current = current.Add(snapshotTTL + time.Second)
	if _, err := fetcher.Snapshot(context.Background(), "mint111"); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("expected refetch after TTL, got %d hits", hits.Load())
	}
}

func TestFetcher_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewFetcher(WithBaseURL(server.URL))
	if _, err := fetcher.Snapshot(context.Background(), "mint111"); err == nil {
		t.Fatal("expected error for HTTP 404")
	}
}

func TestDiscovery_MergesAndDedups(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var entries []map[string]interface{}
		switch r.URL.Path {
		case "/token-profiles/latest/v1":
			entries = []map[string]interface{}{
				{"chainId": "solana", "tokenAddress": "mintA", "icon": "iconA"},
				{"chainId": "ethereum", "tokenAddress": "ethmint"},
			}
		case "/token-boosts/latest/v1":
			entries = []map[string]interface{}{
				{"chainId": "solana", "tokenAddress": "mintA"},
				{"chainId": "solana", "tokenAddress": "mintB"},
			}
		case "/token-boosts/top/v1":
			entries = []map[string]interface{}{
				{"chainId": "solana", "tokenAddress": "mintC"},
			}
		}
		json.NewEncoder(w).Encode(entries)
	}))
	defer server.Close()

	discovery := NewDiscovery(WithBaseURL(server.URL))
	candidates, err := discovery.Discover(context.Background(), 10)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d: %v", len(candidates), candidates)
	}

	if candidates[0].Mint != "mintA" || candidates[0].IconURL != "iconA" {
		t.Errorf("unexpected first candidate: %+v", candidates[0])
	}
}

func TestDiscovery_ToleratesFeedFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token-profiles/latest/v1" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"chainId": "solana", "tokenAddress": "mintB"},
		})
	}))
	defer server.Close()

	discovery := NewDiscovery(WithBaseURL(server.URL))
	candidates, err := discovery.Discover(context.Background(), 10)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(candidates) != 1 || candidates[0].Mint != "mintB" {
		t.Errorf("expected surviving feeds to produce mintB, got %v", candidates)
	}
}

func TestDiscovery_CapsAtMax(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entries := []map[string]interface{}{
			{"chainId": "solana", "tokenAddress": "mint-" + r.URL.Path + "-1"},
			{"chainId": "solana", "tokenAddress": "mint-" + r.URL.Path + "-2"},
		}
		json.NewEncoder(w).Encode(entries)
	}))
	defer server.Close()

	discovery := NewDiscovery(WithBaseURL(server.URL))
	candidates, err := discovery.Discover(context.Background(), 3)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(candidates) != 3 {
		t.Errorf("expected cap of 3, got %d", len(candidates))
	}
}
