package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ErrorsCreated tracks classified errors per kind and severity
	ErrorsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedrecovery_errors_created_total",
			Help: "Total number of classified errors",
		},
		[]string{"kind", "severity"},
	)

	// RecoveryAttempts tracks executed recovery actions
	RecoveryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedrecovery_recovery_attempts_total",
			Help: "Total number of executed recovery actions",
		},
		[]string{"action", "outcome"},
	)

	// RetryDelay tracks the backoff reported to callers
	RetryDelay = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schedrecovery_retry_delay_seconds",
			Help:    "Retry delay handed back to callers in seconds",
			Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"kind"},
	)

	// RollbacksTotal tracks rollback attempts
	RollbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedrecovery_rollbacks_total",
			Help: "Total number of rollback attempts",
		},
		[]string{"mode", "outcome"},
	)

	// RollbackPointsCreated tracks snapshots taken
	RollbackPointsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "schedrecovery_rollback_points_created_total",
			Help: "Total number of rollback points created",
		},
	)

	// OperationsRecorded tracks operations added to history
	OperationsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedrecovery_operations_recorded_total",
			Help: "Total number of operations recorded",
		},
		[]string{"kind"},
	)

	// UndoTotal tracks undo and redo outcomes
	UndoTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedrecovery_undo_total",
			Help: "Total number of undo and redo requests",
		},
		[]string{"action", "outcome"},
	)

	// StoreOperationDuration tracks latency of the persistent store
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schedrecovery_store_operation_duration_seconds",
			Help:    "Latency of key-value store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "op"},
	)

	// DBConnectionPoolUsage tracks open connections as a percentage of the pool
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "schedrecovery_db_connection_pool_usage_percent",
			Help: "Open database connections as a percentage of the pool limit",
		},
	)

	// ExpiredEntriesPruned tracks entries removed by the pruner
	ExpiredEntriesPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "schedrecovery_expired_entries_pruned_total",
			Help: "Total number of expired entries removed",
		},
	)
)

// Outcome maps a success flag to a label value.
func Outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
