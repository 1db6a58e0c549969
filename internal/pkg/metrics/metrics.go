// Package metrics defines and registers the custom Prometheus metrics of the
// user directory. It is the single source of truth for metric names, labels,
// and help strings.
//
// All metrics are registered with the default registry through promauto when
// the package is first imported; HTTP request metrics come from the
// echoprometheus middleware and are not declared here.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/99minutos/user-directory/internal/core/domain"
)

const namespace = "userdir"

// Outcome labels shared by the operation metrics.
const (
	OutcomeOK         = "ok"
	OutcomeValidation = "validation"
	OutcomeNotFound   = "not_found"
	OutcomeConflict   = "conflict"
	OutcomeError      = "error"
)

// ── Service metrics ───────────────────────────────────────────────────────────

// UserOperationsTotal counts service operations by result.
// Labels:
//   - operation: service method, e.g. "create_user", "patch_user"
//   - outcome: ok, validation, not_found, conflict or error
var UserOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_operations_total",
		Help:      "Total number of user service operations, by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

// UserOperationDuration measures service operation latency, storage included.
var UserOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "user_operation_duration_seconds",
		Help:      "Duration of user service operations.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// UsersCreatedTotal counts users persisted, by role.
var UsersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_created_total",
		Help:      "Total number of users created, by role.",
	},
	[]string{"role"},
)

// UniquenessConflictsTotal counts rejected duplicates.
// Labels:
//   - field: "username" or "email"
//   - stage: "precheck" when the advisory existence probe caught it,
//     "constraint" when only the storage unique constraint did (a race)
var UniquenessConflictsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uniqueness_conflicts_total",
		Help:      "Total number of username/email uniqueness conflicts, by field and detection stage.",
	},
	[]string{"field", "stage"},
)

// ── Transport metrics ─────────────────────────────────────────────────────────

// RateLimitedTotal counts requests rejected by the rate limiter.
var RateLimitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_requests_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
)

// ObserveOperation records the outcome and latency of one service call.
func ObserveOperation(operation string, start time.Time, err error) {
	UserOperationsTotal.WithLabelValues(operation, Outcome(err)).Inc()
	UserOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Outcome maps an operation error to its outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrValidation):
		return OutcomeValidation
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrConflict):
		return OutcomeConflict
	default:
		return OutcomeError
	}
}
