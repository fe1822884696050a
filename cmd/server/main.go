// Package main provides the unified mintsentry service:
// - Signal scanning: holder graph analysis, kill-switch, market snapshot
// - Discovery: REST feeds plus a WebSocket pool-init watcher
// - Autotrade: policy evaluation, dry runs and the position lifecycle engine
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"mintsentry/internal/autotrade"
	"mintsentry/internal/discovery"
	"mintsentry/internal/execution"
	"mintsentry/internal/holders"
	"mintsentry/internal/market"
	"mintsentry/internal/observability"
	"mintsentry/internal/signal"
	"mintsentry/internal/solana"
	"mintsentry/internal/storage"
	chstore "mintsentry/internal/storage/clickhouse"
	"mintsentry/internal/storage/memory"
	"mintsentry/internal/storage/migrations"
	pgstore "mintsentry/internal/storage/postgres"
)

// Server wires all components behind the HTTP API.
type Server struct {
	logger       *log.Logger
	rpc          solana.RPCClient
	rpcEndpoints int
	analyzer     *holders.Analyzer
	discoverer   *market.Discovery
	generator    *signal.Generator
	engine       *autotrade.Engine
	stores       *allStores
	liveEnabled  bool
	started      time.Time

	// State
	mu               sync.Mutex
	scanRuns         int
	tickRuns         int
	watcherStarted   bool
	recentCandidates []discovery.Candidate
}

// allStores holds all storage implementations.
type allStores struct {
	signals       storage.SignalStore
	positions     storage.PositionStore
	configs       storage.ConfigStore
	watchlists    storage.WatchlistStore
	runs          storage.RunStatsStore
	signalHistory storage.SignalHistoryStore
	runHistory    storage.RunHistoryStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	rpcEndpoint := flag.String("rpc-endpoint", envOr("SOLANA_RPC_ENDPOINT", solana.PublicEndpoint), "Solana RPC HTTP endpoint")
	rpcFallbacks := flag.String("rpc-fallbacks", os.Getenv("SOLANA_RPC_FALLBACKS"), "Comma-separated fallback RPC endpoints")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint (enables pool-init discovery)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	marketBaseURL := flag.String("market-base-url", envOr("MARKET_API_BASE", market.DefaultBaseURL), "Market data API base URL")
	jupiterBaseURL := flag.String("jupiter-base-url", envOr("JUPITER_API_BASE", execution.DefaultJupiterBaseURL), "Jupiter Ultra API base URL")
	liveEnabled := flag.Bool("live-enabled", os.Getenv("LIVE_TRADING_ENABLED") == "true", "Allow live order execution")
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	rpc := solana.NewHTTPClient(*rpcEndpoint, splitCSV(*rpcFallbacks))
	analyzer := holders.NewAnalyzer(rpc, holders.WithWalletLabels(parseWalletLabels(os.Getenv("WALLET_LABELS"))))
	fetcher := market.NewFetcher(market.WithBaseURL(*marketBaseURL))
	discoverer := market.NewDiscovery(market.WithBaseURL(*marketBaseURL))
	generator := signal.NewGenerator(analyzer, fetcher, stores.signals, signal.WithHistory(stores.signalHistory))

	engineOpts := []autotrade.EngineOption{autotrade.WithRunHistory(stores.runHistory)}
	live := *liveEnabled
	if executor, err := buildLiveExecutor(live, *jupiterBaseURL, logger); err != nil {
		// Broken execution credentials never kill the service; everything
		// runs in paper mode instead.
		logger.Printf("Live mode disabled: %v", err)
		live = false
	} else if executor != nil {
		engineOpts = append(engineOpts, autotrade.WithLiveExecutor(executor))
	}

	engine := autotrade.NewEngine(stores.configs, stores.positions, stores.watchlists, stores.runs, generator, engineOpts...)

	server := &Server{
		logger:       logger,
		rpc:          rpc,
		rpcEndpoints: len(rpc.Endpoints()),
		analyzer:     analyzer,
		discoverer:   discoverer,
		generator:    generator,
		engine:       engine,
		stores:       stores,
		liveEnabled:  live,
		started:      time.Now(),
	}

	if *wsEndpoint != "" {
		go server.runPoolInitWatcher(ctx, *wsEndpoint)
	}

	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: server.routes(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 2)
	ossignal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()

		// A second signal forces an immediate exit.
		go func() {
			<-sigCh
			logger.Println("Forced shutdown")
			os.Exit(1)
		}()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
	}()

	logger.Printf("Listening on %s", *listenAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// buildLiveExecutor assembles the Jupiter executor from environment
// credentials. Returns (nil, nil) when live trading is not requested, and an
// error when it is requested but the credentials are missing or unusable.
func buildLiveExecutor(live bool, baseURL string, logger *log.Logger) (*execution.JupiterExecutor, error) {
	if !live {
		return nil, nil
	}

	traderKey := os.Getenv("TRADER_PRIVATE_KEY")
	if traderKey == "" {
		return nil, fmt.Errorf("LIVE_TRADING_ENABLED set without TRADER_PRIVATE_KEY")
	}

	signer, err := execution.NewSignerFromBase58(traderKey)
	if err != nil {
		return nil, fmt.Errorf("invalid trader key: %w", err)
	}

	executor, err := execution.NewJupiterExecutor(signer,
		execution.WithBaseURL(baseURL),
		execution.WithAPIKey(os.Getenv("JUPITER_API_KEY")))
	if err != nil {
		return nil, fmt.Errorf("create live executor: %w", err)
	}

	logger.Printf("Live execution enabled, trader wallet %s", signer.PublicKey())
	return executor, nil
}

// createStores creates all required stores, running migrations first.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			signals:       memory.NewSignalStore(),
			positions:     memory.NewPositionStore(),
			configs:       memory.NewConfigStore(),
			watchlists:    memory.NewWatchlistStore(),
			runs:          memory.NewRunStatsStore(),
			signalHistory: memory.NewSignalHistoryStore(),
			runHistory:    memory.NewRunHistoryStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	stores := &allStores{
		signals:       pgstore.NewSignalStore(pool),
		positions:     pgstore.NewPositionStore(pool),
		configs:       pgstore.NewConfigStore(pool),
		watchlists:    pgstore.NewWatchlistStore(pool),
		runs:          pgstore.NewRunStatsStore(pool),
		signalHistory: chstore.NewSignalHistoryStore(chConn),
		runHistory:    chstore.NewRunHistoryStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

// runPoolInitWatcher streams DEX pool inits and keeps the most recent
// candidates for the suggest endpoint.
func (s *Server) runPoolInitWatcher(ctx context.Context, wsEndpoint string) {
	stream := discovery.NewLogStream(wsEndpoint, []string{discovery.RaydiumAMMV4, discovery.PumpFun}, nil)
	watcher := discovery.NewWatcher(stream, s.rpc)

	s.mu.Lock()
	s.watcherStarted = true
	s.mu.Unlock()

	go func() {
		for candidate := range watcher.Candidates() {
			s.mu.Lock()
			s.recentCandidates = append(s.recentCandidates, candidate)
			if len(s.recentCandidates) > 50 {
				s.recentCandidates = s.recentCandidates[len(s.recentCandidates)-50:]
			}
			s.mu.Unlock()
		}
	}()

	s.logger.Printf("Pool-init watcher started on %s", wsEndpoint)
	if err := watcher.Run(ctx); err != nil && err != context.Canceled {
		s.logger.Printf("Pool-init watcher stopped: %v", err)
	}
}

// watcherCandidateMints returns recent pool-init mints, newest first.
func (s *Server) watcherCandidateMints() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.recentCandidates))
	for i := len(s.recentCandidates) - 1; i >= 0; i-- {
		out = append(out, s.recentCandidates[i].Mint)
	}
	return out
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

// parseWalletLabels parses "address=label;address=label" operator config.
func parseWalletLabels(raw string) map[string]string {
	labels := make(map[string]string)
	for _, pair := range strings.Split(raw, ";") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		labels[parts[0]] = parts[1]
	}
	return labels
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

// routes builds the HTTP mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/signal", s.handleSignal)
	mux.HandleFunc("POST /api/signals/stream", s.handleSignalsStream)
	mux.HandleFunc("POST /api/watchlist/scan", s.handleWatchlistScan)
	mux.HandleFunc("GET /api/watchlist", s.handleWatchlistGet)
	mux.HandleFunc("PUT /api/watchlist", s.handleWatchlistPut)
	mux.HandleFunc("POST /api/discovery/suggest", s.handleDiscoverySuggest)
	mux.HandleFunc("GET /api/token/holders", s.handleTokenHolders)
	mux.HandleFunc("GET /api/autotrade/config", s.handlePolicyConfigGet)
	mux.HandleFunc("PUT /api/autotrade/config", s.handlePolicyConfigPut)
	mux.HandleFunc("GET /api/autotrade/execution-config", s.handleExecutionConfigGet)
	mux.HandleFunc("PUT /api/autotrade/execution-config", s.handleExecutionConfigPut)
	mux.HandleFunc("POST /api/autotrade/run", s.handleAutotradeRun)
	mux.HandleFunc("POST /api/autotrade/engine/tick", s.handleEngineTick)
	mux.HandleFunc("GET /api/autotrade/positions", s.handlePositions)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.Handle("GET /metrics", observability.Handler())

	return mux
}
