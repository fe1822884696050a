package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"mintsentry/internal/domain"
	"mintsentry/internal/holders"
	"mintsentry/internal/market"
	"mintsentry/internal/observability"
	"mintsentry/internal/risk"
	"mintsentry/internal/storage"
)

// ErrInvalidMint is returned for inputs that are not plausible mint addresses.
var ErrInvalidMint = fmt.Errorf("invalid mint address")

// Result is one successfully generated and persisted signal.
type Result struct {
	SignalID int64   `json:"signalId"`
	Signal   *Signal `json:"signal"`
}

// BatchResult is the settled outcome for one mint of a batch scan.
type BatchResult struct {
	Mint     string  `json:"mint"`
	OK       bool    `json:"ok"`
	Error    string  `json:"error,omitempty"`
	SignalID int64   `json:"signalId,omitempty"`
	Signal   *Signal `json:"signal,omitempty"`
}

// Generator runs the full scan for a mint: holder analysis, kill-switch,
// market snapshot, composition and persistence.
type Generator struct {
	analyzer *holders.Analyzer
	fetcher  *market.Fetcher
	signals  storage.SignalStore
	history  storage.SignalHistoryStore
	logger   *log.Logger
	now      func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithHistory attaches an analytics sink for generated signals.
func WithHistory(history storage.SignalHistoryStore) GeneratorOption {
	return func(g *Generator) { g.history = history }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) GeneratorOption {
	return func(g *Generator) { g.logger = logger }
}

// NewGenerator creates a Generator.
func NewGenerator(analyzer *holders.Analyzer, fetcher *market.Fetcher, signals storage.SignalStore, opts ...GeneratorOption) *Generator {
	g := &Generator{
		analyzer: analyzer,
		fetcher:  fetcher,
		signals:  signals,
		logger:   log.New(os.Stderr, "[signal] ", log.LstdFlags),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate scans one mint and persists the result for the user.
func (g *Generator) Generate(ctx context.Context, userID int64, mint string) (*Result, error) {
	if !holders.ValidMintAddress(mint) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMint, mint)
	}

	riskSignal := g.analyzer.Analyze(ctx, mint, holders.DefaultLimit)
	kill := risk.Evaluate(riskSignal)
	observability.RecordKillSwitchScore(kill.Score)

	snapshot, err := g.fetcher.Snapshot(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("market snapshot for %s: %w", mint, err)
	}

	sig := Compose(kill, snapshot)

	payload, err := json.Marshal(sig)
	if err != nil {
		return nil, fmt.Errorf("marshal signal payload: %w", err)
	}

	createdAt := g.now().UTC()
	rec := &domain.SignalRecord{
		UserID:       userID,
		Mint:         mint,
		Status:       sig.Status,
		Confidence:   sig.Confidence,
		PatternScore: sig.PatternScore,
		KillScore:    kill.Score,
		KillVerdict:  kill.Verdict,
		PriceUsd:     snapshot.PriceUsd,
		LiquidityUsd: snapshot.LiquidityUsd,
		PayloadJSON:  string(payload),
		CreatedAt:    createdAt,
	}

	id, err := g.signals.Insert(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("persist signal for %s: %w", mint, err)
	}
	observability.RecordSignalGenerated(sig.Status)

	if g.history != nil {
		point := &domain.SignalPoint{
			Mint:         mint,
			UserID:       userID,
			SignalID:     id,
			Status:       sig.Status,
			PatternScore: sig.PatternScore,
			KillScore:    int32(kill.Score),
			Confidence:   sig.Confidence,
			PriceUsd:     snapshot.PriceUsd,
			LiquidityUsd: snapshot.LiquidityUsd,
			TimestampMs:  createdAt.UnixMilli(),
		}
		if err := g.history.InsertBulk(ctx, []*domain.SignalPoint{point}); err != nil {
			g.logger.Printf("history insert failed for %s: %v", mint, err)
		}
	}

	return &Result{SignalID: id, Signal: sig}, nil
}

// GenerateBatch scans every mint, settling all outcomes. Results are ordered
// by kill-switch score descending; failed mints sort last.
func (g *Generator) GenerateBatch(ctx context.Context, userID int64, mints []string) []*BatchResult {
	results := make([]*BatchResult, len(mints))

	var wg sync.WaitGroup
	for i, mint := range mints {
		wg.Add(1)
		go func(i int, mint string) {
			defer wg.Done()
			res, err := g.Generate(ctx, userID, mint)
			if err != nil {
				results[i] = &BatchResult{Mint: mint, Error: err.Error()}
				return
			}
			results[i] = &BatchResult{Mint: mint, OK: true, SignalID: res.SignalID, Signal: res.Signal}
		}(i, mint)
	}
	wg.Wait()

	sort.SliceStable(results, func(a, b int) bool {
		return batchKillScore(results[a]) > batchKillScore(results[b])
	})
	return results
}

func batchKillScore(r *BatchResult) int {
	if r.Signal == nil || r.Signal.KillSwitch == nil {
		return 0
	}
	return r.Signal.KillSwitch.Score
}
