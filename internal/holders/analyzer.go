package holders

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"mintsentry/internal/observability"
	"mintsentry/internal/solana"
)

const (
	// Holder sample limit bounds.
	MinLimit     = 8
	MaxLimit     = 50
	DefaultLimit = 12

	tokenAccountSigWindow = 20
	ownerSigWindow        = 25
	activitySampleHolders = 5
	activitySampleTxs     = 8

	successTTL = 60 * time.Second
	failureTTL = 10 * time.Second
)

// Analyzer fetches the largest holders of a mint, resolves owning wallets,
// infers wallet age and recent activity, and groups wallets into connected
// clusters. Results are cached per (mint, limit). Any chain failure degrades
// to a conservative unknown result instead of an error.
type Analyzer struct {
	rpc    solana.RPCClient
	cache  *resultCache
	now    func() time.Time
	logger *log.Logger

	// walletLabels maps known wallet addresses to operator-configured
	// source labels (exchanges, known deployers).
	walletLabels map[string]string
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithClock sets the time source.
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
			a.cache.now = now
		}
	}
}

// WithWalletLabels sets operator-configured wallet labels.
func WithWalletLabels(labels map[string]string) AnalyzerOption {
	return func(a *Analyzer) {
		a.walletLabels = labels
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// NewAnalyzer creates a holder graph analyzer.
func NewAnalyzer(rpc solana.RPCClient, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		rpc:    rpc,
		now:    time.Now,
		logger: log.New(os.Stdout, "[holders] ", log.LstdFlags|log.Lshortfile),
	}
	a.cache = newResultCache(a.now)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ClampLimit bounds a caller-supplied holder sample limit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit < MinLimit {
		return MinLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Analyze computes the RiskSignal for a mint over a bounded holder sample.
// It never returns an error: failures yield an unknown-risk fallback that is
// cached briefly so downstream scoring stays total.
func (a *Analyzer) Analyze(ctx context.Context, mint string, limit int) *RiskSignal {
	limit = ClampLimit(limit)
	key := fmt.Sprintf("%s::%d", mint, limit)

	if cached, ok := a.cache.get(key); ok {
		observability.RecordHolderCacheHit()
		return cached
	}

	signal, err := a.analyze(ctx, mint, limit)
	if err != nil {
		a.logger.Printf("analysis failed for %s: %v", mint, err)
		observability.RecordHolderAnalysis("failed")
		signal = unknownSignal(mint)
		a.cache.put(key, signal, failureTTL)
		return signal
	}

	observability.RecordHolderAnalysis("ok")
	a.cache.put(key, signal, successTTL)
	return signal
}

func unknownSignal(mint string) *RiskSignal {
	return &RiskSignal{
		Mint:              mint,
		ConcentrationRisk: ConcentrationUnknown,
	}
}

func (a *Analyzer) analyze(ctx context.Context, mint string, limit int) (*RiskSignal, error) {
	accounts, err := a.rpc.GetTokenLargestAccounts(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("largest accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no holder accounts for %s", mint)
	}
	if len(accounts) > limit {
		accounts = accounts[:limit]
	}

	supply, err := a.rpc.GetTokenSupply(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("token supply: %w", err)
	}
	supplyRaw, err := strconv.ParseFloat(supply.AmountRaw, 64)
	if err != nil || supplyRaw <= 0 {
		return nil, fmt.Errorf("unusable supply %q for %s", supply.AmountRaw, mint)
	}

	mintInfo, err := a.rpc.GetMintInfo(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("mint info: %w", err)
	}

	tokenAccounts := make([]string, len(accounts))
	for i, acct := range accounts {
		tokenAccounts[i] = acct.Address
	}
	owners, err := a.rpc.GetTokenAccountOwners(ctx, tokenAccounts)
	if err != nil {
		return nil, fmt.Errorf("resolve owners: %w", err)
	}

	nodes := make([]*holderNode, len(accounts))
	for i, acct := range accounts {
		raw, _ := strconv.ParseFloat(acct.AmountRaw, 64)
		ui, _ := strconv.ParseFloat(acct.UIAmountString, 64)
		owner := owners[acct.Address]
		if owner == "" {
			// Unresolvable accounts count as their own owner.
			owner = acct.Address
		}
		nodes[i] = &holderNode{
			tokenAccount: acct.Address,
			owner:        owner,
			amountRaw:    raw,
			amountUI:     ui,
			sharePct:     raw / supplyRaw * 100,
			recentSigs:   make(map[string]struct{}),
		}
	}

	// Per-holder signature windows are independent chain reads.
	var wg sync.WaitGroup
	for _, node := range nodes {
		wg.Add(1)
		go func(node *holderNode) {
			defer wg.Done()
			a.fetchHolderActivity(ctx, node)
		}(node)
	}
	wg.Wait()

	// Trade direction sampled for the largest holders only.
	sampled := len(nodes)
	if sampled > activitySampleHolders {
		sampled = activitySampleHolders
	}
	for _, node := range nodes[:sampled] {
		a.fetchTradeActivity(ctx, mint, node)
	}

	return a.buildSignal(mint, mintInfo, nodes), nil
}

// fetchHolderActivity fills the recent signature set, the signature count and
// the wallet age for one holder. Failures leave the fields empty; a missing
// window means unknown age, never zero.
func (a *Analyzer) fetchHolderActivity(ctx context.Context, node *holderNode) {
	acctSigs, err := a.rpc.GetSignaturesForAddress(ctx, node.tokenAccount, &solana.SignaturesOpts{Limit: tokenAccountSigWindow})
	if err != nil {
		a.logger.Printf("signatures for account %s: %v", node.tokenAccount, err)
	}
	for _, sig := range acctSigs {
		node.recentSigs[sig.Signature] = struct{}{}
	}

	ownerSigs := acctSigs
	if node.owner != node.tokenAccount {
		ownerSigs, err = a.rpc.GetSignaturesForAddress(ctx, node.owner, &solana.SignaturesOpts{Limit: ownerSigWindow})
		if err != nil {
			a.logger.Printf("signatures for owner %s: %v", node.owner, err)
			return
		}
	}
	node.sigCount = len(ownerSigs)

	var oldest *int64
	for _, sig := range ownerSigs {
		if sig.BlockTime == nil {
			continue
		}
		if oldest == nil || *sig.BlockTime < *oldest {
			oldest = sig.BlockTime
		}
	}
	if oldest != nil {
		age := a.now().Sub(time.Unix(*oldest, 0)).Hours() / 24
		if age < 0 {
			age = 0
		}
		node.walletAge = &age
	}
}

// fetchTradeActivity classifies buys and sells from token balance deltas in
// a bounded sample of the holder's recent transactions.
func (a *Analyzer) fetchTradeActivity(ctx context.Context, mint string, node *holderNode) {
	count := 0
	for sig := range node.recentSigs {
		if count >= activitySampleTxs {
			break
		}
		count++

		tx, err := a.rpc.GetParsedTransaction(ctx, sig)
		if err != nil || tx == nil {
			continue
		}

		delta := ownerBalanceDelta(tx, mint, node.owner)
		switch {
		case delta > 0:
			node.buys++
		case delta < 0:
			node.sells++
		}
	}
}

// ownerBalanceDelta returns the owner's post-pre balance change for the mint.
func ownerBalanceDelta(tx *solana.ParsedTransaction, mint, owner string) float64 {
	var pre, post float64
	for _, b := range tx.PreTokenBalances {
		if b.Mint == mint && b.Owner == owner {
			pre += b.UIAmount
		}
	}
	for _, b := range tx.PostTokenBalances {
		if b.Mint == mint && b.Owner == owner {
			post += b.UIAmount
		}
	}
	return post - pre
}

func (a *Analyzer) buildSignal(mint string, mintInfo *solana.MintInfo, nodes []*holderNode) *RiskSignal {
	var top3 float64
	for i, node := range nodes {
		if i >= 3 {
			break
		}
		top3 += node.sharePct
	}

	concentration := ConcentrationLow
	switch {
	case top3 >= 50:
		concentration = ConcentrationHigh
	case top3 >= 25:
		concentration = ConcentrationMedium
	}

	groups := connectedGroups(nodes)
	clustered := make(map[int]bool)
	for _, group := range groups {
		for _, idx := range group {
			clustered[idx] = true
		}
	}

	var connectedPct, newWalletPct float64
	var ageSum float64
	ageKnown := 0
	for i, node := range nodes {
		if clustered[i] {
			connectedPct += node.sharePct
		}
		if isNewWallet(node) {
			newWalletPct += node.sharePct
		}
		if node.walletAge != nil {
			ageSum += *node.walletAge
			ageKnown++
		}
	}

	var avgAge *float64
	if ageKnown > 0 {
		v := ageSum / float64(ageKnown)
		avgAge = &v
	}

	hasMintAuth := mintInfo != nil && mintInfo.MintAuthority != ""
	hasFreezeAuth := mintInfo != nil && mintInfo.FreezeAuthority != ""

	profiles := make([]HolderProfile, len(nodes))
	for i, node := range nodes {
		profiles[i] = HolderProfile{
			TokenAccount:  node.tokenAccount,
			Owner:         node.owner,
			AmountUI:      node.amountUI,
			SharePct:      node.sharePct,
			WalletAgeDays: node.walletAge,
			WalletSource:  classifySource(node, i, clustered[i], a.walletLabels),
			Buys:          node.buys,
			Sells:         node.sells,
			RecentSigs:    node.sigCount,
		}
	}

	var patterns []string
	if hasMintAuth {
		patterns = append(patterns, "mint authority is still active")
	}
	if hasFreezeAuth {
		patterns = append(patterns, "freeze authority is still active")
	}
	if top3 >= 50 {
		patterns = append(patterns, fmt.Sprintf("top 3 holders control %.1f%% of supply", top3))
	}
	if newWalletPct >= 20 {
		patterns = append(patterns, fmt.Sprintf("new wallets hold %.1f%% of supply", newWalletPct))
	}
	if connectedPct >= 25 {
		patterns = append(patterns, fmt.Sprintf("connected wallets hold %.1f%% of supply", connectedPct))
	}

	return &RiskSignal{
		Mint:               mint,
		ConcentrationRisk:  concentration,
		Top3HolderSharePct: top3,
		HasMintAuthority:   hasMintAuth,
		HasFreezeAuthority: hasFreezeAuth,
		HolderBehavior: HolderBehavior{
			ConnectedHolderPct:  connectedPct,
			NewWalletHolderPct:  newWalletPct,
			ConnectedGroupCount: len(groups),
			AvgWalletAgeDays:    avgAge,
		},
		HolderProfiles:     profiles,
		SuspiciousPatterns: patterns,
	}
}
