// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Scan metrics
	SignalsGenerated *prometheus.CounterVec
	ScanBatchSize    prometheus.Histogram
	ScanDuration     prometheus.Histogram
	HolderAnalyses   *prometheus.CounterVec
	HolderCacheHits  prometheus.Counter
	MarketCacheHits  prometheus.Counter
	KillSwitchScores prometheus.Histogram

	// Discovery metrics
	CandidatesSuggested prometheus.Counter
	PoolInitsSeen       prometheus.Counter

	// Chain metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec

	// Autotrade metrics
	TickRunsTotal   *prometheus.CounterVec
	PositionsOpened *prometheus.CounterVec
	PositionsClosed *prometheus.CounterVec
	OrderExecutions *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulScan prometheus.Gauge
	LastSuccessfulTick prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "mintsentry"
	}

	return &Metrics{
		// Scan metrics
		SignalsGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "signals_generated_total",
			Help:      "Total number of signals generated by status",
		}, []string{"status"}),
		ScanBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "batch_size",
			Help:      "Number of mints per scan batch",
			Buckets:   []float64{1, 2, 3, 5, 10, 25},
		}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Scan batch duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
		}),
		HolderAnalyses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "holders",
			Name:      "analyses_total",
			Help:      "Total number of holder analyses by outcome",
		}, []string{"status"}),
		HolderCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "holders",
			Name:      "cache_hits_total",
			Help:      "Total number of holder analysis cache hits",
		}),
		MarketCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "cache_hits_total",
			Help:      "Total number of market snapshot cache hits",
		}),
		KillSwitchScores: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "kill_switch_score",
			Help:      "Distribution of kill-switch scores",
			Buckets:   []float64{0, 25, 50, 65, 75, 85, 95, 100},
		}),

		// Discovery metrics
		CandidatesSuggested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "candidates_suggested_total",
			Help:      "Total number of candidate mints suggested",
		}),
		PoolInitsSeen: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "pool_inits_seen_total",
			Help:      "Total number of pool initializations observed over WebSocket",
		}),

		// Chain metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_errors_total",
			Help:      "Total number of failed RPC calls by method",
		}, []string{"method"}),

		// Autotrade metrics
		TickRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "autotrade",
			Name:      "tick_runs_total",
			Help:      "Total number of engine ticks by mode",
		}, []string{"mode"}),
		PositionsOpened: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "autotrade",
			Name:      "positions_opened_total",
			Help:      "Total number of positions opened by mode",
		}, []string{"mode"}),
		PositionsClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "autotrade",
			Name:      "positions_closed_total",
			Help:      "Total number of positions closed by reason",
		}, []string{"reason"}),
		OrderExecutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "orders_total",
			Help:      "Total number of order executions by mode and status",
		}, []string{"mode", "status"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulScan: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_scan_timestamp",
			Help:      "Unix timestamp of last successful scan",
		}),
		LastSuccessfulTick: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_tick_timestamp",
			Help:      "Unix timestamp of last successful engine tick",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSignalGenerated increments the signals generated counter.
func RecordSignalGenerated(status string) {
	DefaultMetrics.SignalsGenerated.WithLabelValues(status).Inc()
}

// RecordHolderAnalysis increments the holder analyses counter.
func RecordHolderAnalysis(status string) {
	DefaultMetrics.HolderAnalyses.WithLabelValues(status).Inc()
}

// RecordHolderCacheHit increments the holder cache hit counter.
func RecordHolderCacheHit() {
	DefaultMetrics.HolderCacheHits.Inc()
}

// RecordMarketCacheHit increments the market cache hit counter.
func RecordMarketCacheHit() {
	DefaultMetrics.MarketCacheHits.Inc()
}

// RecordKillSwitchScore records a kill-switch score observation.
func RecordKillSwitchScore(score int) {
	DefaultMetrics.KillSwitchScores.Observe(float64(score))
}

// RecordCandidateSuggested increments the discovery candidates counter.
func RecordCandidateSuggested() {
	DefaultMetrics.CandidatesSuggested.Inc()
}

// RecordPoolInit increments the pool initialization counter.
func RecordPoolInit() {
	DefaultMetrics.PoolInitsSeen.Inc()
}

// RecordTickRun increments the engine tick counter.
func RecordTickRun(mode string) {
	DefaultMetrics.TickRunsTotal.WithLabelValues(mode).Inc()
}

// RecordPositionOpened increments the positions opened counter.
func RecordPositionOpened(mode string) {
	DefaultMetrics.PositionsOpened.WithLabelValues(mode).Inc()
}

// RecordPositionClosed increments the positions closed counter.
func RecordPositionClosed(reason string) {
	DefaultMetrics.PositionsClosed.WithLabelValues(reason).Inc()
}

// RecordOrderExecution increments the order executions counter.
func RecordOrderExecution(mode, status string) {
	DefaultMetrics.OrderExecutions.WithLabelValues(mode, status).Inc()
}
