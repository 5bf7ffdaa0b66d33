package observability

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/routecard/internal/pkg/logger"
)

// Metrics is nil-safe: every method on a nil *Metrics is a no-op, so
// components take it as an optional dependency.
type Metrics struct {
	registry *prometheus.Registry

	storeAttempts   *prometheus.CounterVec
	storeRetries    *prometheus.CounterVec
	storeFailures   *prometheus.CounterVec
	storeReconnects prometheus.Counter
	storeDuration   *prometheus.HistogramVec

	cacheLookups *prometheus.CounterVec
	cacheSize    *prometheus.GaugeVec

	reconcileChanges  *prometheus.CounterVec
	hierarchyWarnings *prometheus.CounterVec
	importedRecords   *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init builds the process-wide metrics once. enabled=false returns nil.
func Init(enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
	})
	return instance
}

func Current() *Metrics {
	return instance
}

// New builds an independent metrics set on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		storeAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routecard_store_attempts_total",
			Help: "Store operations attempted, by operation.",
		}, []string{"op"}),
		storeRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routecard_store_retries_total",
			Help: "Store operations replayed after a retryable failure, by operation and error class.",
		}, []string{"op", "class"}),
		storeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routecard_store_failures_total",
			Help: "Store operations that failed for good, by operation and error class.",
		}, []string{"op", "class"}),
		storeReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "routecard_store_reconnects_total",
			Help: "Sessions re-established after a lost connection.",
		}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "routecard_store_duration_seconds",
			Help:    "Wall time of store operations including retries.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"op", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routecard_cache_lookups_total",
			Help: "Identity cache lookups by kind and result (hit, miss, loaded).",
		}, []string{"kind", "result"}),
		cacheSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "routecard_cache_rows",
			Help: "Rows held in each identity cache.",
		}, []string{"kind"}),
		reconcileChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routecard_reconcile_edges_total",
			Help: "Hierarchy edges written by reconciliation, by action.",
		}, []string{"action"}),
		hierarchyWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routecard_hierarchy_warnings_total",
			Help: "Branches cut while materializing a tree, by reason.",
		}, []string{"reason"}),
		importedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routecard_import_records_total",
			Help: "Records applied by bulk imports, by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(
		m.storeAttempts, m.storeRetries, m.storeFailures, m.storeReconnects, m.storeDuration,
		m.cacheLookups, m.cacheSize,
		m.reconcileChanges, m.hierarchyWarnings, m.importedRecords,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) ObserveStore(op string, attempts int, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.storeAttempts.WithLabelValues(op).Add(float64(attempts))
	m.storeDuration.WithLabelValues(op, status).Observe(dur.Seconds())
}

func (m *Metrics) IncStoreRetry(op, class string) {
	if m == nil {
		return
	}
	m.storeRetries.WithLabelValues(op, class).Inc()
}

func (m *Metrics) IncStoreFailure(op, class string) {
	if m == nil {
		return
	}
	m.storeFailures.WithLabelValues(op, class).Inc()
}

func (m *Metrics) IncReconnect() {
	if m == nil {
		return
	}
	m.storeReconnects.Inc()
}

func (m *Metrics) IncCacheLookup(kind, result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) SetCacheSize(kind string, n int) {
	if m == nil {
		return
	}
	m.cacheSize.WithLabelValues(kind).Set(float64(n))
}

func (m *Metrics) AddReconcile(action string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.reconcileChanges.WithLabelValues(action).Add(float64(n))
}

func (m *Metrics) IncHierarchyWarning(reason string) {
	if m == nil {
		return
	}
	m.hierarchyWarnings.WithLabelValues(reason).Inc()
}

func (m *Metrics) AddImported(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.importedRecords.WithLabelValues(kind).Add(float64(n))
}
