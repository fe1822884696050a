package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mintsentry/internal/holders"
	"mintsentry/internal/market"
	"mintsentry/internal/solana"
	"mintsentry/internal/solana/stub"
	"mintsentry/internal/storage/memory"
)

const (
	mintClean   = "So11111111111111111111111111111111111111112"
	mintUnknown = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	mintNoPair  = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
)

// seedCleanMint fills the stub with one small long-held holder and revoked
// authorities, which scores a full kill-switch pass.
func seedCleanMint(rpc *stub.RPCClient, now time.Time) {
	rpc.LargestAccounts[mintClean] = []solana.TokenAccountBalance{
		{Address: "ta1", AmountRaw: "50000", UIAmountString: "50"},
	}
	rpc.Supplies[mintClean] = &solana.TokenSupply{AmountRaw: "1000000", Decimals: 3}
	rpc.Mints[mintClean] = &solana.MintInfo{}
	rpc.Owners["ta1"] = "w1"

	old := now.Add(-2 * 365 * 24 * time.Hour).Unix()
	rpc.AddSignatures("w1", []solana.SignatureInfo{{Signature: "old1", BlockTime: &old}})
}

// marketTestServer serves one liquid raydium pair per mint in pairs, and an
// empty pair list for everything else.
func marketTestServer(t *testing.T, pairs map[string]bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mint := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		if !pairs[mint] {
			fmt.Fprint(w, `{"pairs":[]}`)
			return
		}
		fmt.Fprintf(w, `{"pairs":[{
			"chainId":"solana","dexId":"raydium","pairAddress":"pairX",
			"url":"https://dexscreener.com/solana/pairX","priceUsd":"0.5",
			"liquidity":{"usd":250000},"volume":{"h24":125000},
			"priceChange":{"h24":10},
			"baseToken":{"address":%q,"name":"Token X","symbol":"TOKX"}
		}]}`, mint)
	}))
}

func newTestGenerator(t *testing.T, rpc *stub.RPCClient, server *httptest.Server) (*Generator, *memory.SignalStore, *memory.SignalHistoryStore) {
	t.Helper()
	now := time.Unix(1_900_000_000, 0)

	analyzer := holders.NewAnalyzer(rpc, holders.WithClock(fixedClock(now)))
	fetcher := market.NewFetcher(market.WithBaseURL(server.URL), market.WithClock(fixedClock(now)))
	signals := memory.NewSignalStore()
	history := memory.NewSignalHistoryStore()

	gen := NewGenerator(analyzer, fetcher, signals,
		WithHistory(history),
		WithClock(fixedClock(now)),
	)
	return gen, signals, history
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestGenerator_GenerateAndPersist(t *testing.T) {
	rpc := stub.NewRPCClient()
	seedCleanMint(rpc, time.Unix(1_900_000_000, 0))
	server := marketTestServer(t, map[string]bool{mintClean: true})
	defer server.Close()

	gen, signals, history := newTestGenerator(t, rpc, server)

	res, err := gen.Generate(context.Background(), 1, mintClean)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.SignalID != 1 {
		t.Errorf("expected signal id 1, got %d", res.SignalID)
	}
	if res.Signal.Status != StatusFavorable {
		t.Errorf("expected FAVORABLE, got %s", res.Signal.Status)
	}
	if res.Signal.KillSwitch.Score != 100 {
		t.Errorf("expected kill score 100, got %d", res.Signal.KillSwitch.Score)
	}

	rec, err := signals.GetByID(context.Background(), res.SignalID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if rec.Mint != mintClean || rec.Status != StatusFavorable || rec.KillVerdict != "PASS" {
		t.Errorf("unexpected persisted record: %+v", rec)
	}
	if rec.PriceUsd != 0.5 || rec.LiquidityUsd != 250000 {
		t.Errorf("unexpected market columns: price=%v liquidity=%v", rec.PriceUsd, rec.LiquidityUsd)
	}

	var stored Signal
	if err := json.Unmarshal([]byte(rec.PayloadJSON), &stored); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if stored.PatternScore != res.Signal.PatternScore {
		t.Errorf("payload pattern score %v != %v", stored.PatternScore, res.Signal.PatternScore)
	}

	points, err := history.GetByMint(context.Background(), mintClean, 0)
	if err != nil {
		t.Fatalf("GetByMint: %v", err)
	}
	if len(points) != 1 || points[0].SignalID != res.SignalID {
		t.Errorf("unexpected history points: %+v", points)
	}
}

func TestGenerator_InvalidMint(t *testing.T) {
	server := marketTestServer(t, nil)
	defer server.Close()

	gen, _, _ := newTestGenerator(t, stub.NewRPCClient(), server)

	_, err := gen.Generate(context.Background(), 1, "not-a-mint")
	if !errors.Is(err, ErrInvalidMint) {
		t.Errorf("expected ErrInvalidMint, got %v", err)
	}
}

func TestGenerator_NoLiquidPair(t *testing.T) {
	rpc := stub.NewRPCClient()
	seedCleanMint(rpc, time.Unix(1_900_000_000, 0))
	server := marketTestServer(t, nil)
	defer server.Close()

	gen, signals, _ := newTestGenerator(t, rpc, server)

	_, err := gen.Generate(context.Background(), 1, mintClean)
	if !errors.Is(err, market.ErrNoLiquidPair) {
		t.Errorf("expected ErrNoLiquidPair, got %v", err)
	}

	// Nothing persisted on failure.
	if _, err := signals.GetByID(context.Background(), 1); err == nil {
		t.Error("expected no persisted signal")
	}
}

func TestGenerator_UnknownHoldersFailClosed(t *testing.T) {
	// No on-chain data for the mint: holder analysis degrades and the
	// kill-switch blocks, but the scan still completes.
	server := marketTestServer(t, map[string]bool{mintUnknown: true})
	defer server.Close()

	gen, _, _ := newTestGenerator(t, stub.NewRPCClient(), server)

	res, err := gen.Generate(context.Background(), 1, mintUnknown)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Signal.Status != StatusHighRisk {
		t.Errorf("expected HIGH_RISK, got %s", res.Signal.Status)
	}
	if res.Signal.KillSwitch.Verdict != "BLOCK" || res.Signal.KillSwitch.Score != 0 {
		t.Errorf("expected fail-closed kill-switch, got %+v", res.Signal.KillSwitch)
	}
}

func TestGenerator_BatchSettlesAllAndOrders(t *testing.T) {
	rpc := stub.NewRPCClient()
	seedCleanMint(rpc, time.Unix(1_900_000_000, 0))
	server := marketTestServer(t, map[string]bool{mintClean: true, mintUnknown: true})
	defer server.Close()

	gen, _, _ := newTestGenerator(t, rpc, server)

	results := gen.GenerateBatch(context.Background(), 1, []string{mintNoPair, mintUnknown, mintClean})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// Highest kill score first.
	if results[0].Mint != mintClean || !results[0].OK {
		t.Errorf("expected clean mint first, got %+v", results[0])
	}

	var failed *BatchResult
	for _, r := range results {
		if r.Mint == mintNoPair {
			failed = r
		}
	}
	if failed == nil || failed.OK || failed.Error == "" {
		t.Errorf("expected settled failure for no-pair mint, got %+v", failed)
	}
}
