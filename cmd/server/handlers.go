package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"mintsentry/internal/autotrade"
	"mintsentry/internal/domain"
	"mintsentry/internal/holders"
	"mintsentry/internal/market"
	"mintsentry/internal/signal"
	"mintsentry/internal/storage"
)

const (
	defaultUserID       = int64(1)
	suggestMinLiquidity = 10000
	suggestFeedMax      = 20
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// userID resolves the caller from the X-User-ID header, defaulting to 1.
func userID(r *http.Request) int64 {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return defaultUserID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return defaultUserID
	}
	return id
}

// userPlan resolves the caller's plan from the X-User-Plan header.
func userPlan(r *http.Request) string {
	if r.Header.Get("X-User-Plan") == "pro" {
		return "pro"
	}
	return "free"
}

func (s *Server) capabilities(r *http.Request) autotrade.ExecutionCapabilities {
	return autotrade.ExecutionCapabilities{
		LiveEnabled: s.liveEnabled,
		UserPlan:    userPlan(r),
	}
}

// mintList accepts either a CSV string or a JSON array of strings.
type mintList []string

func (m *mintList) UnmarshalJSON(data []byte) error {
	var csv string
	if err := json.Unmarshal(data, &csv); err == nil {
		*m = splitCSV(csv)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*m = list
	return nil
}

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	err := json.NewDecoder(r.Body).Decode(v)
	if err == io.EOF {
		return nil // Empty body is fine; fields keep their zero values.
	}
	return err
}

func (s *Server) recordScan() {
	s.mu.Lock()
	s.scanRuns++
	s.mu.Unlock()
}

// handleSignal scans a single mint and returns the composed signal.
func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mint string `json:"mint"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.generator.Generate(r.Context(), userID(r), strings.TrimSpace(req.Mint))
	if err != nil {
		switch {
		case errors.Is(err, signal.ErrInvalidMint):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, market.ErrNoLiquidPair):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	s.recordScan()
	writeJSON(w, http.StatusOK, res)
}

// handleSignalsStream scans an explicit mint list and returns per-mint
// settled results.
func (s *Server) handleSignalsStream(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mints mintList `json:"mints"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Mints) == 0 {
		writeError(w, http.StatusBadRequest, "at least one mint is required")
		return
	}

	results := s.generator.GenerateBatch(r.Context(), userID(r), req.Mints)
	s.recordScan()
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// handleWatchlistScan scans every mint on the caller's watchlist.
func (s *Server) handleWatchlistScan(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	wl, err := s.stores.watchlists.Get(r.Context(), uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "watchlist is empty")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results := s.generator.GenerateBatch(r.Context(), uid, wl.Mints)
	s.recordScan()
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (s *Server) handleWatchlistGet(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	wl, err := s.stores.watchlists.Get(r.Context(), uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusOK, &domain.Watchlist{UserID: uid, Mints: []string{}})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

func (s *Server) handleWatchlistPut(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var req struct {
		Mints mintList `json:"mints"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.stores.watchlists.Put(r.Context(), uid, req.Mints); err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "at least one valid mint is required")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	wl, err := s.stores.watchlists.Get(r.Context(), uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

// handleDiscoverySuggest merges REST discovery feeds with the pool-init
// watcher ring, scans the candidates and returns the best-scoring liquid ones.
func (s *Server) handleDiscoverySuggest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Max int `json:"max"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	max := req.Max
	if max <= 0 {
		max = 5
	}
	if max < 3 {
		max = 3
	}
	if max > 10 {
		max = 10
	}

	candidates, err := s.discoverer.Discover(r.Context(), suggestFeedMax)
	if err != nil {
		s.logger.Printf("discovery feeds: %v", err)
	}

	seen := make(map[string]bool)
	var mints []string
	for _, mint := range s.watcherCandidateMints() {
		if !seen[mint] {
			seen[mint] = true
			mints = append(mints, mint)
		}
	}
	for _, c := range candidates {
		if holders.ValidMintAddress(c.Mint) && !seen[c.Mint] {
			seen[c.Mint] = true
			mints = append(mints, c.Mint)
		}
	}
	if len(mints) == 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": []*signal.BatchResult{}})
		return
	}

	results := s.generator.GenerateBatch(r.Context(), userID(r), mints)

	var liquid []*signal.BatchResult
	for _, res := range results {
		if !res.OK || res.Signal == nil || res.Signal.Market == nil {
			continue
		}
		if res.Signal.Market.LiquidityUsd < suggestMinLiquidity {
			continue
		}
		liquid = append(liquid, res)
	}
	sort.SliceStable(liquid, func(i, j int) bool {
		return liquid[i].Signal.PatternScore > liquid[j].Signal.PatternScore
	})
	if len(liquid) > max {
		liquid = liquid[:max]
	}

	s.recordScan()
	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": liquid})
}

// handleTokenHolders returns the raw holder-graph analysis for a mint.
func (s *Server) handleTokenHolders(w http.ResponseWriter, r *http.Request) {
	mint := strings.TrimSpace(r.URL.Query().Get("mint"))
	if !holders.ValidMintAddress(mint) {
		writeError(w, http.StatusBadRequest, "invalid mint address")
		return
	}

	limit := 40
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	writeJSON(w, http.StatusOK, s.analyzer.Analyze(r.Context(), mint, limit))
}

func (s *Server) handlePolicyConfigGet(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	cfg, err := s.stores.configs.GetPolicy(r.Context(), uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusOK, domain.DefaultPolicyConfig(uid))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// policyPatch carries optional field updates. encoding/json matches field
// names case-insensitively, so camelCase payloads work too.
type policyPatch struct {
	Enabled               *bool
	Mode                  *string
	MinPatternScore       *float64
	MinConfidence         *float64
	MaxConnectedHolderPct *float64
	RequireKillSwitchPass *bool
	MaxPositionUsd        *float64
	ScanIntervalSec       *float64
}

func (s *Server) handlePolicyConfigPut(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var patch policyPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := s.stores.configs.GetPolicy(r.Context(), uid)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		cfg = domain.DefaultPolicyConfig(uid)
	}

	if patch.Enabled != nil {
		cfg.Enabled = *patch.Enabled
	}
	if patch.Mode != nil {
		cfg.Mode = *patch.Mode
	}
	if patch.MinPatternScore != nil {
		cfg.MinPatternScore = *patch.MinPatternScore
	}
	if patch.MinConfidence != nil {
		cfg.MinConfidence = *patch.MinConfidence
	}
	if patch.MaxConnectedHolderPct != nil {
		cfg.MaxConnectedHolderPct = *patch.MaxConnectedHolderPct
	}
	if patch.RequireKillSwitchPass != nil {
		cfg.RequireKillSwitchPass = *patch.RequireKillSwitchPass
	}
	if patch.MaxPositionUsd != nil {
		cfg.MaxPositionUsd = *patch.MaxPositionUsd
	}
	if patch.ScanIntervalSec != nil {
		cfg.ScanIntervalSec = *patch.ScanIntervalSec
	}

	if cfg.Mode == domain.ModeLive && userPlan(r) != "pro" {
		writeError(w, http.StatusForbidden, "live mode requires premium plan")
		return
	}

	cfg.Sanitize()
	if err := s.stores.configs.PutPolicy(r.Context(), cfg); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleExecutionConfigGet(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	cfg, err := s.stores.configs.GetExecution(r.Context(), uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusOK, domain.DefaultExecutionConfig(uid))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

type executionPatch struct {
	Enabled          *bool
	Mode             *string
	TradeAmountUsd   *float64
	MaxOpenPositions *float64
	TpPct            *float64
	SlPct            *float64
	TrailingStopPct  *float64
	MaxHoldMinutes   *float64
	CooldownSec      *float64
	PollIntervalSec  *float64
}

func (s *Server) handleExecutionConfigPut(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var patch executionPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := s.stores.configs.GetExecution(r.Context(), uid)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		cfg = domain.DefaultExecutionConfig(uid)
	}

	if patch.Enabled != nil {
		cfg.Enabled = *patch.Enabled
	}
	if patch.Mode != nil {
		cfg.Mode = *patch.Mode
	}
	if patch.TradeAmountUsd != nil {
		cfg.TradeAmountUsd = *patch.TradeAmountUsd
	}
	if patch.MaxOpenPositions != nil {
		cfg.MaxOpenPositions = *patch.MaxOpenPositions
	}
	if patch.TpPct != nil {
		cfg.TpPct = *patch.TpPct
	}
	if patch.SlPct != nil {
		cfg.SlPct = *patch.SlPct
	}
	if patch.TrailingStopPct != nil {
		cfg.TrailingStopPct = *patch.TrailingStopPct
	}
	if patch.MaxHoldMinutes != nil {
		cfg.MaxHoldMinutes = *patch.MaxHoldMinutes
	}
	if patch.CooldownSec != nil {
		cfg.CooldownSec = *patch.CooldownSec
	}
	if patch.PollIntervalSec != nil {
		cfg.PollIntervalSec = *patch.PollIntervalSec
	}

	if cfg.Mode == domain.ModeLive && userPlan(r) != "pro" {
		writeError(w, http.StatusForbidden, "live mode requires premium plan")
		return
	}

	cfg.Sanitize()
	if err := s.stores.configs.PutExecution(r.Context(), cfg); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// handleAutotradeRun evaluates policy over the requested mints without
// touching positions.
func (s *Server) handleAutotradeRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mints mintList `json:"mints"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := s.engine.DryRun(r.Context(), userID(r), req.Mints, s.capabilities(r))
	if err != nil {
		if errors.Is(err, autotrade.ErrAutotradeDisabled) || errors.Is(err, autotrade.ErrNoMints) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleEngineTick runs one position lifecycle pass.
func (s *Server) handleEngineTick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mints mintList `json:"mints"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.engine.Tick(r.Context(), userID(r), req.Mints, s.capabilities(r))
	if err != nil {
		if errors.Is(err, autotrade.ErrExecutionDisabled) || errors.Is(err, autotrade.ErrNoMints) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	s.tickRuns++
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && status != domain.PositionOpen && status != domain.PositionClosed {
		writeError(w, http.StatusBadRequest, "status must be OPEN or CLOSED")
		return
	}

	positions, err := s.stores.positions.ListByUser(r.Context(), userID(r), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if positions == nil {
		positions = []*domain.Position{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"positions": positions})
}

// handleHealth probes the RPC endpoint. Degraded chain access returns 503 so
// orchestrators can route around this instance.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	version, err := s.rpc.GetVersion(ctx)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"rpcVersion":   version.SolanaCore,
		"rpcEndpoints": s.rpcEndpoints,
	})
}

// StatusResponse is the /status payload.
type StatusResponse struct {
	UptimeSec        int64 `json:"uptimeSec"`
	ScanRuns         int   `json:"scanRuns"`
	TickRuns         int   `json:"tickRuns"`
	LiveEnabled      bool  `json:"liveEnabled"`
	WatcherRunning   bool  `json:"watcherRunning"`
	RecentCandidates int   `json:"recentCandidates"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		UptimeSec:        int64(time.Since(s.started).Seconds()),
		ScanRuns:         s.scanRuns,
		TickRuns:         s.tickRuns,
		LiveEnabled:      s.liveEnabled,
		WatcherRunning:   s.watcherStarted,
		RecentCandidates: len(s.recentCandidates),
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}
