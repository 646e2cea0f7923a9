package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func registerDBMetrics(db *sql.DB, logger *zap.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "tanks_low",
			Help: "Plaza tanks at or below the warning level",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM plaza_tanks WHERE current_balance <= 100")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "tank_liters",
			Help: "Liters held across all plaza tanks",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COALESCE(SUM(current_balance), 0) FROM plaza_tanks")
		},
	))
}

func queryCount(db *sql.DB, logger *zap.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var value float64
	if err := db.QueryRow(query).Scan(&value); err != nil {
		if logger != nil {
			logger.Warn("metrics query failed", zap.Error(err))
		}
		return 0
	}
	if value < 0 {
		return 0
	}
	return value
}
