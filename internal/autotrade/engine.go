package autotrade

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"sync"
	"time"

	"mintsentry/internal/domain"
	"mintsentry/internal/execution"
	"mintsentry/internal/holders"
	"mintsentry/internal/observability"
	"mintsentry/internal/signal"
	"mintsentry/internal/storage"
)

// Engine preconditions.
var (
	ErrExecutionDisabled = errors.New("execution engine is disabled")
	ErrAutotradeDisabled = errors.New("autotrade is disabled")
	ErrNoMints           = errors.New("at least one valid mint is required")
)

const recentlyClosedLimit = 10

// SignalSource produces a fresh persisted signal for a mint. Satisfied by
// signal.Generator.
type SignalSource interface {
	Generate(ctx context.Context, userID int64, mint string) (*signal.Result, error)
}

// Engine drives the position lifecycle: marking and closing open positions,
// then opening new ones from policy-approved candidates. Ticks for the same
// user are serialized.
type Engine struct {
	configs    storage.ConfigStore
	positions  storage.PositionStore
	watchlists storage.WatchlistStore
	runs       storage.RunStatsStore
	runHistory storage.RunHistoryStore
	source     SignalSource
	live       execution.OrderExecutor
	logger     *log.Logger
	now        func() time.Time

	mu        sync.Mutex
	userLocks map[int64]*sync.Mutex
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLiveExecutor attaches the live order executor.
func WithLiveExecutor(exec execution.OrderExecutor) EngineOption {
	return func(e *Engine) { e.live = exec }
}

// WithRunHistory attaches an analytics sink for run aggregates.
func WithRunHistory(history storage.RunHistoryStore) EngineOption {
	return func(e *Engine) { e.runHistory = history }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates an Engine.
func NewEngine(configs storage.ConfigStore, positions storage.PositionStore, watchlists storage.WatchlistStore, runs storage.RunStatsStore, source SignalSource, opts ...EngineOption) *Engine {
	e := &Engine{
		configs:    configs,
		positions:  positions,
		watchlists: watchlists,
		runs:       runs,
		source:     source,
		logger:     log.New(os.Stderr, "[autotrade] ", log.LstdFlags),
		now:        time.Now,
		userLocks:  make(map[int64]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) userLock(userID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.userLocks[userID] = lock
	}
	return lock
}

// EffectiveTradeAmountUsd resolves the USD size per open from the policy cap
// and the execution amount. Both set: the smaller wins.
func EffectiveTradeAmountUsd(policy *domain.PolicyConfig, exec *domain.ExecutionConfig) float64 {
	policyCap := policy.MaxPositionUsd
	execAmount := exec.TradeAmountUsd
	if policyCap > 0 && execAmount > 0 {
		return round2(math.Min(policyCap, execAmount))
	}
	if policyCap > 0 {
		return round2(policyCap)
	}
	return round2(math.Max(1, execAmount))
}

// effectiveMode resolves paper vs live. Live requires both configs in live
// mode, a premium plan, and live execution enabled on the deployment.
func effectiveMode(policy *domain.PolicyConfig, exec *domain.ExecutionConfig, caps ExecutionCapabilities) (string, []string) {
	var warnings []string
	if policy.Mode != exec.Mode {
		warnings = append(warnings, fmt.Sprintf("mode mismatch: policy=%s, execution=%s; using paper until both match", policy.Mode, exec.Mode))
	}
	if exec.Mode == domain.ModeLive && caps.UserPlan != "pro" {
		warnings = append(warnings, "live mode requires premium plan")
	}

	if policy.Mode == domain.ModeLive && exec.Mode == domain.ModeLive && caps.UserPlan == "pro" {
		if !caps.LiveEnabled {
			warnings = append(warnings, "live mode requested but live execution is disabled; using paper simulation")
			return domain.ModePaper, warnings
		}
		return domain.ModeLive, warnings
	}
	return domain.ModePaper, warnings
}

func (e *Engine) loadPolicy(ctx context.Context, userID int64) (*domain.PolicyConfig, error) {
	policy, err := e.configs.GetPolicy(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.DefaultPolicyConfig(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load policy config: %w", err)
	}
	return policy, nil
}

func (e *Engine) loadExecution(ctx context.Context, userID int64) (*domain.ExecutionConfig, error) {
	cfg, err := e.configs.GetExecution(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.DefaultExecutionConfig(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load execution config: %w", err)
	}
	return cfg, nil
}

// resolveMints picks the scan set: explicit mints when given, the user's
// watchlist otherwise. Invalid mint addresses are dropped.
func (e *Engine) resolveMints(ctx context.Context, userID int64, requested []string) ([]string, error) {
	mints := domain.NormalizeMints(requested)
	if len(mints) == 0 {
		w, err := e.watchlists.Get(ctx, userID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("load watchlist: %w", err)
		}
		if w != nil {
			mints = w.Mints
		}
	}

	valid := mints[:0:0]
	for _, mint := range mints {
		if holders.ValidMintAddress(mint) {
			valid = append(valid, mint)
		}
	}
	if len(valid) == 0 {
		return nil, ErrNoMints
	}
	return valid, nil
}

// evaluateDecisions generates a signal per mint and gates each through the
// policy. All outcomes settle; a failed generation becomes a SKIP.
func (e *Engine) evaluateDecisions(ctx context.Context, userID int64, mints []string, policy *domain.PolicyConfig) []*Decision {
	decisions := make([]*Decision, len(mints))

	var wg sync.WaitGroup
	for i, mint := range mints {
		wg.Add(1)
		go func(i int, mint string) {
			defer wg.Done()
			res, err := e.source.Generate(ctx, userID, mint)
			if err != nil {
				decisions[i] = &Decision{
					Mint:     mint,
					Decision: DecisionSkip,
					Reasons:  []string{err.Error()},
					Error:    err.Error(),
				}
				return
			}
			d := EvaluatePolicy(res.Signal, policy)
			d.SignalID = res.SignalID
			decisions[i] = d
		}(i, mint)
	}
	wg.Wait()

	return decisions
}

// Tick runs one engine pass: mark and close open positions first, then open
// new positions from approved candidates while capacity and cooldown allow.
func (e *Engine) Tick(ctx context.Context, userID int64, mints []string, caps ExecutionCapabilities) (*TickResult, error) {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	policy, err := e.loadPolicy(ctx, userID)
	if err != nil {
		return nil, err
	}
	execCfg, err := e.loadExecution(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !execCfg.Enabled {
		return nil, ErrExecutionDisabled
	}

	mode, warnings := effectiveMode(policy, execCfg, caps)
	amount := EffectiveTradeAmountUsd(policy, execCfg)

	scanMints, err := e.resolveMints(ctx, userID, mints)
	if err != nil {
		return nil, err
	}

	actions := []Action{}

	open, err := e.positions.ListByUser(ctx, userID, domain.PositionOpen)
	if err != nil {
		return nil, fmt.Errorf("list open positions: %w", err)
	}
	for _, pos := range open {
		actions = e.closeIfTriggered(ctx, userID, pos, mode, actions)
	}

	open, err = e.positions.ListByUser(ctx, userID, domain.PositionOpen)
	if err != nil {
		return nil, fmt.Errorf("list open positions: %w", err)
	}
	openMints := make(map[string]bool, len(open))
	for _, pos := range open {
		openMints[pos.Mint] = true
	}

	capacity := int(execCfg.MaxOpenPositions) - len(open)
	if capacity > 0 && policy.Enabled {
		var candidates []string
		for _, mint := range scanMints {
			if !openMints[mint] {
				candidates = append(candidates, mint)
			}
		}
		decisions := e.evaluateDecisions(ctx, userID, candidates, policy)

		ready, err := e.cooldownReady(ctx, userID, execCfg)
		if err != nil {
			return nil, err
		}
		if ready {
			actions = e.openCandidates(ctx, userID, decisions, execCfg, mode, amount, capacity, actions)
		} else {
			actions = append(actions, Action{
				Type: ActionInfo,
				Note: fmt.Sprintf("cooldown active (%gs), no new positions opened", execCfg.CooldownSec),
			})
		}
	}

	openAfter, err := e.positions.ListByUser(ctx, userID, domain.PositionOpen)
	if err != nil {
		return nil, fmt.Errorf("list open positions: %w", err)
	}
	closed, err := e.positions.ListByUser(ctx, userID, domain.PositionClosed)
	if err != nil {
		return nil, fmt.Errorf("list closed positions: %w", err)
	}
	if len(closed) > recentlyClosedLimit {
		closed = closed[:recentlyClosedLimit]
	}

	observability.RecordTickRun(mode)
	observability.DefaultMetrics.LastSuccessfulTick.SetToCurrentTime()

	return &TickResult{
		Mode:     mode,
		Warnings: warnings,
		Actions:  actions,
		Positions: TickPositions{
			Open:           openAfter,
			RecentlyClosed: closed,
		},
	}, nil
}

// closeIfTriggered marks a position with a fresh price and closes it when a
// trigger fires. Stop-loss wins over take-profit, then trailing stop, then
// the max-hold timer. A failed live sell leaves the position untouched.
func (e *Engine) closeIfTriggered(ctx context.Context, userID int64, pos *domain.Position, mode string, actions []Action) []Action {
	res, err := e.source.Generate(ctx, userID, pos.Mint)
	if err != nil {
		e.logger.Printf("mark failed for position %d (%s): %v", pos.ID, pos.Mint, err)
		return actions
	}
	mark := res.Signal.Market.PriceUsd
	if mark <= 0 {
		return actions
	}

	highWater := math.Max(pos.HighWaterPriceUsd, mark)
	if err := e.positions.UpdateMark(ctx, pos.ID, mark, highWater); err != nil {
		e.logger.Printf("update mark failed for position %d: %v", pos.ID, err)
		return actions
	}

	entry := pos.EntryPriceUsd
	tpPrice := entry * (1 + pos.TpPct/100)
	slPrice := entry * (1 - pos.SlPct/100)
	trailingFloor := highWater * (1 - pos.TrailingStopPct/100)
	elapsedMinutes := e.now().Sub(pos.OpenedAt).Minutes()

	reason := ""
	switch {
	case mark <= slPrice:
		reason = domain.CloseStopLoss
	case mark >= tpPrice:
		reason = domain.CloseTakeProfit
	case mark <= trailingFloor && highWater > entry:
		reason = domain.CloseTrailingStop
	case elapsedMinutes >= pos.MaxHoldMinutes:
		reason = domain.CloseMaxHold
	}
	if reason == "" {
		return actions
	}

	if mode == domain.ModeLive {
		if err := e.liveSell(ctx, pos.Mint); err != nil {
			return append(actions, Action{
				Type:       ActionError,
				Mint:       pos.Mint,
				PositionID: pos.ID,
				Error:      fmt.Sprintf("live sell failed: %v", err),
			})
		}
	}

	pnl := round2((mark - entry) / entry * 100)
	if err := e.positions.Close(ctx, pos.ID, e.now().UTC(), reason, pnl, mark, highWater); err != nil {
		e.logger.Printf("close failed for position %d: %v", pos.ID, err)
		return actions
	}
	observability.RecordPositionClosed(reason)

	return append(actions, Action{
		Type:       ActionClose,
		Mint:       pos.Mint,
		PositionID: pos.ID,
		Reason:     reason,
		PriceUsd:   mark,
		PnlPct:     &pnl,
	})
}

// openCandidates opens approved candidates up to capacity. A failed live buy
// settles as an ERROR action without touching state.
func (e *Engine) openCandidates(ctx context.Context, userID int64, decisions []*Decision, execCfg *domain.ExecutionConfig, mode string, amount float64, capacity int, actions []Action) []Action {
	opened := 0
	for _, d := range decisions {
		if opened >= capacity {
			break
		}
		if !d.OK || d.Decision != DecisionBuyCandidate {
			continue
		}
		entryPrice := 0.0
		if d.TradePlan != nil {
			entryPrice = d.TradePlan.EntryPriceUsd
		}
		if entryPrice <= 0 {
			continue
		}

		if mode == domain.ModeLive {
			if err := e.liveBuy(ctx, d.Mint, amount); err != nil {
				actions = append(actions, Action{
					Type:  ActionError,
					Mint:  d.Mint,
					Error: fmt.Sprintf("live buy failed: %v", err),
				})
				continue
			}
		}

		now := e.now().UTC()
		pos := &domain.Position{
			UserID:            userID,
			Mint:              d.Mint,
			Status:            domain.PositionOpen,
			Mode:              mode,
			EntrySignalID:     d.SignalID,
			EntryPriceUsd:     entryPrice,
			SizeUsd:           amount,
			QtyTokens:         round8(amount / entryPrice),
			TpPct:             execCfg.TpPct,
			SlPct:             execCfg.SlPct,
			TrailingStopPct:   execCfg.TrailingStopPct,
			MaxHoldMinutes:    execCfg.MaxHoldMinutes,
			HighWaterPriceUsd: entryPrice,
			LastPriceUsd:      entryPrice,
			OpenedAt:          now,
		}
		id, err := e.positions.Insert(ctx, pos)
		if err != nil {
			e.logger.Printf("open failed for %s: %v", d.Mint, err)
			continue
		}
		observability.RecordPositionOpened(mode)
		opened++

		actions = append(actions, Action{
			Type:       ActionOpen,
			Mint:       d.Mint,
			PositionID: id,
			PriceUsd:   entryPrice,
		})
	}
	return actions
}

func (e *Engine) cooldownReady(ctx context.Context, userID int64, execCfg *domain.ExecutionConfig) (bool, error) {
	last, err := e.positions.LastOpenedAt(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("last opened at: %w", err)
	}
	if last == nil {
		return true, nil
	}
	cooldown := time.Duration(execCfg.CooldownSec * float64(time.Second))
	return e.now().Sub(*last) >= cooldown, nil
}

// RunReport summarizes one dry-run evaluation pass.
type RunReport struct {
	RunID                   int64       `json:"runId"`
	Mode                    string      `json:"mode"`
	Warnings                []string    `json:"warnings,omitempty"`
	Scanned                 int         `json:"scanned"`
	BuyCandidates           int         `json:"buyCandidates"`
	Skipped                 int         `json:"skipped"`
	Failed                  int         `json:"failed"`
	EffectiveTradeAmountUsd float64     `json:"effectiveTradeAmountUsd"`
	SimulatedExposureUsd    float64     `json:"simulatedExposureUsd"`
	AvgExpectedPnlPct       float64     `json:"avgExpectedPnlPct"`
	Decisions               []*Decision `json:"decisions"`
}

// DryRun evaluates the scan set through the policy without touching
// positions and persists the aggregate outcome.
func (e *Engine) DryRun(ctx context.Context, userID int64, mints []string, caps ExecutionCapabilities) (*RunReport, error) {
	policy, err := e.loadPolicy(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !policy.Enabled {
		return nil, ErrAutotradeDisabled
	}
	execCfg, err := e.loadExecution(ctx, userID)
	if err != nil {
		return nil, err
	}

	mode, warnings := effectiveMode(policy, execCfg, caps)
	amount := EffectiveTradeAmountUsd(policy, execCfg)

	scanMints, err := e.resolveMints(ctx, userID, mints)
	if err != nil {
		return nil, err
	}

	decisions := e.evaluateDecisions(ctx, userID, scanMints, policy)

	candidates := 0
	failed := 0
	pnlSum := 0.0
	for _, d := range decisions {
		if d.Error != "" {
			failed++
			continue
		}
		if d.Decision == DecisionBuyCandidate {
			candidates++
			pnlSum += domain.ProjectedPnlPct(d.Confidence, d.PatternScore)
		}
	}
	skipped := len(decisions) - candidates - failed

	avgPnl := 0.0
	if candidates > 0 {
		avgPnl = round2(pnlSum / float64(candidates))
	}

	stats := &domain.RunStats{
		UserID:               userID,
		Mode:                 mode,
		Scanned:              len(decisions),
		BuyCandidates:        candidates,
		Skipped:              skipped,
		Failed:               failed,
		SimulatedExposureUsd: round2(float64(candidates) * amount),
		AvgExpectedPnlPct:    avgPnl,
		CreatedAt:            e.now().UTC(),
	}
	runID, err := e.runs.Insert(ctx, stats)
	if err != nil {
		return nil, fmt.Errorf("persist run stats: %w", err)
	}
	stats.ID = runID
	if e.runHistory != nil {
		if err := e.runHistory.InsertBulk(ctx, []*domain.RunStats{stats}); err != nil {
			e.logger.Printf("run history insert failed: %v", err)
		}
	}

	return &RunReport{
		RunID:                   runID,
		Mode:                    mode,
		Warnings:                warnings,
		Scanned:                 stats.Scanned,
		BuyCandidates:           candidates,
		Skipped:                 skipped,
		Failed:                  failed,
		EffectiveTradeAmountUsd: amount,
		SimulatedExposureUsd:    stats.SimulatedExposureUsd,
		AvgExpectedPnlPct:       avgPnl,
		Decisions:               decisions,
	}, nil
}

func (e *Engine) liveBuy(ctx context.Context, mint string, amountUsd float64) error {
	if e.live == nil {
		return errors.New("no live executor configured")
	}
	_, err := e.live.Buy(ctx, mint, amountUsd)
	return err
}

func (e *Engine) liveSell(ctx context.Context, mint string) error {
	if e.live == nil {
		return errors.New("no live executor configured")
	}
	_, err := e.live.Sell(ctx, mint)
	return err
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}
