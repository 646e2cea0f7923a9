package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	metricPrefix = "fuel_"

	resultSuccess = "success"
	resultError   = "error"

	cacheHit  = "hit"
	cacheMiss = "miss"
)

var (
	registerOnce sync.Once

	transactionsTotal   *prometheus.CounterVec
	transactionsLatency *prometheus.HistogramVec
	litersTotal         *prometheus.CounterVec

	reportTotal   *prometheus.CounterVec
	reportLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	loginTotal      *prometheus.CounterVec
	snapshotCache   *prometheus.CounterVec
	tankAlertsTotal *prometheus.CounterVec
)

// Init registers dashboard metrics and DB-backed gauges.
func Init(db *sql.DB, logger *zap.Logger) {
	registerOnce.Do(func() {
		transactionsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "transactions_total",
				Help: "Total recorded fuel transactions by kind and result",
			},
			[]string{"kind", "result"},
		)
		transactionsLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "transaction_latency_seconds",
				Help:    "Fuel transaction write latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "result"},
		)
		litersTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "liters_total",
				Help: "Total liters moved by kind",
			},
			[]string{"kind"},
		)

		reportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_total",
				Help: "Total report computations by report and result",
			},
			[]string{"report", "result"},
		)
		reportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_latency_seconds",
				Help:    "Report computation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"report", "result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		loginTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "login_total",
				Help: "Total login attempts by result",
			},
			[]string{"result"},
		)
		snapshotCache = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reference_cache_total",
				Help: "Reference data cache lookups by result",
			},
			[]string{"result"},
		)
		tankAlertsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "tank_alerts_total",
				Help: "Tank level alerts sent by status",
			},
			[]string{"status"},
		)

		prometheus.MustRegister(
			transactionsTotal,
			transactionsLatency,
			litersTotal,
			reportTotal,
			reportLatency,
			exportTotal,
			exportLatency,
			loginTotal,
			snapshotCache,
			tankAlertsTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveTransaction records a fuel write with its liters on success.
func ObserveTransaction(kind, result string, liters float64, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if transactionsTotal != nil {
		transactionsTotal.WithLabelValues(kind, result).Inc()
	}
	if transactionsLatency != nil {
		transactionsLatency.WithLabelValues(kind, result).Observe(duration.Seconds())
	}
	if result == resultSuccess && liters > 0 && litersTotal != nil {
		litersTotal.WithLabelValues(kind).Add(liters)
	}
}

// ObserveReport records report computation latency and result.
func ObserveReport(report, result string, duration time.Duration) {
	if report == "" {
		report = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportTotal != nil {
		reportTotal.WithLabelValues(report, result).Inc()
	}
	if reportLatency != nil {
		reportLatency.WithLabelValues(report, result).Observe(duration.Seconds())
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncLogin increments the login counter.
func IncLogin(result string) {
	if result == "" {
		result = "unknown"
	}
	if loginTotal != nil {
		loginTotal.WithLabelValues(result).Inc()
	}
}

// IncReferenceCache counts reference cache hits and misses.
func IncReferenceCache(hit bool) {
	if snapshotCache == nil {
		return
	}
	if hit {
		snapshotCache.WithLabelValues(cacheHit).Inc()
		return
	}
	snapshotCache.WithLabelValues(cacheMiss).Inc()
}

// IncTankAlert counts delivered tank alerts.
func IncTankAlert(status string) {
	if status == "" {
		status = "unknown"
	}
	if tankAlertsTotal != nil {
		tankAlertsTotal.WithLabelValues(status).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
