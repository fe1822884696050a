package discovery

import (
	"context"
	"log"
	"os"

	"mintsentry/internal/holders"
	"mintsentry/internal/observability"
	"mintsentry/internal/solana"
)

// Candidate is a mint surfaced by the pool-init watcher.
type Candidate struct {
	Mint      string `json:"mint"`
	Program   string `json:"program"`
	Signature string `json:"signature"`
	Slot      int64  `json:"slot"`
}

// LogSource feeds log events into the watcher. Satisfied by LogStream.
type LogSource interface {
	Events() <-chan LogEvent
	Run(ctx context.Context) error
}

// Watcher turns DEX program log events into deduplicated candidate mints.
// Raydium inits carry no mint in their logs, so those are resolved through
// the transaction's token balances.
type Watcher struct {
	source     LogSource
	parser     *PoolInitParser
	rpc        solana.RPCClient
	logger     *log.Logger
	seen       map[string]bool
	candidates chan Candidate
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger overrides the default logger.
func WithWatcherLogger(logger *log.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = logger }
}

// NewWatcher creates a watcher over the given log source. rpc may be nil, in
// which case Raydium inits without a logged mint are dropped.
func NewWatcher(source LogSource, rpc solana.RPCClient, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		source:     source,
		parser:     NewPoolInitParser(),
		rpc:        rpc,
		logger:     log.New(os.Stderr, "[discovery] ", log.LstdFlags),
		seen:       make(map[string]bool),
		candidates: make(chan Candidate, 256),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Candidates returns the output channel. Closed when Run returns.
func (w *Watcher) Candidates() <-chan Candidate {
	return w.candidates
}

// Run consumes the log source until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.candidates)

	errCh := make(chan error, 1)
	go func() { errCh <- w.source.Run(ctx) }()

	for {
		select {
		case <-ctx.Done():
			return <-errCh
		case event, ok := <-w.source.Events():
			if !ok {
				return <-errCh
			}
			w.handleEvent(ctx, event)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event LogEvent) {
	for _, init := range w.parser.Parse(event) {
		observability.RecordPoolInit()

		mint := init.Mint
		if mint == "" {
			mint = w.resolveMint(ctx, init.Signature)
		}
		if mint == "" || !holders.ValidMintAddress(mint) {
			continue
		}
		if w.seen[mint] {
			continue
		}
		w.seen[mint] = true

		w.logger.Printf("pool init: program=%s mint=%s sig=%s", init.Program, mint, init.Signature)
		observability.RecordCandidateSuggested()

		select {
		case w.candidates <- Candidate{Mint: mint, Program: init.Program, Signature: init.Signature, Slot: init.Slot}:
		case <-ctx.Done():
			return
		}
	}
}

// resolveMint fetches the init transaction and picks the pooled token mint
// from its post token balances.
func (w *Watcher) resolveMint(ctx context.Context, signature string) string {
	if w.rpc == nil || signature == "" {
		return ""
	}

	tx, err := w.rpc.GetParsedTransaction(ctx, signature)
	if err != nil || tx == nil {
		if err != nil {
			w.logger.Printf("resolve mint for %s: %v", signature, err)
		}
		return ""
	}

	for _, balance := range tx.PostTokenBalances {
		if balance.Mint != "" && balance.Mint != WSOL {
			return balance.Mint
		}
	}
	return ""
}
