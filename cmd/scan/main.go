// Command scan runs one full signal scan for a mint and prints the result as
// JSON. Useful for spot checks and shell pipelines without a running server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"mintsentry/internal/holders"
	"mintsentry/internal/market"
	"mintsentry/internal/signal"
	"mintsentry/internal/solana"
	"mintsentry/internal/storage/memory"
)

func main() {
	mint := flag.String("mint", "", "Token mint address to scan (required)")
	rpcEndpoint := flag.String("rpc-endpoint", envOr("SOLANA_RPC_ENDPOINT", solana.PublicEndpoint), "Solana RPC HTTP endpoint")
	rpcFallbacks := flag.String("rpc-fallbacks", os.Getenv("SOLANA_RPC_FALLBACKS"), "Comma-separated fallback RPC endpoints")
	marketBaseURL := flag.String("market-base-url", envOr("MARKET_API_BASE", market.DefaultBaseURL), "Market data API base URL")
	holdersOnly := flag.Bool("holders-only", false, "Print only the holder-graph analysis, skipping market data")
	limit := flag.Int("limit", holders.DefaultLimit, "Number of top holders to analyze")
	timeout := flag.Duration("timeout", 60*time.Second, "Overall scan timeout")
	flag.Parse()

	if *mint == "" {
		fmt.Fprintln(os.Stderr, "Error: --mint is required")
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rpc := solana.NewHTTPClient(*rpcEndpoint, splitCSV(*rpcFallbacks))
	analyzer := holders.NewAnalyzer(rpc)

	if *holdersOnly {
		printJSON(analyzer.Analyze(ctx, *mint, *limit))
		return
	}

	fetcher := market.NewFetcher(market.WithBaseURL(*marketBaseURL))
	generator := signal.NewGenerator(analyzer, fetcher, memory.NewSignalStore())

	res, err := generator.Generate(ctx, 1, *mint)
	if err != nil {
		switch {
		case errors.Is(err, signal.ErrInvalidMint):
			fmt.Fprintf(os.Stderr, "Error: %q is not a valid mint address\n", *mint)
		case errors.Is(err, market.ErrNoLiquidPair):
			fmt.Fprintf(os.Stderr, "Error: no liquid Solana pair found for %s\n", *mint)
		default:
			fmt.Fprintf(os.Stderr, "Error scanning %s: %v\n", *mint, err)
		}
		os.Exit(1)
	}

	printJSON(res.Signal)
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
