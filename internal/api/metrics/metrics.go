// Package metrics defines the custom Prometheus metrics of the library
// service. Metrics are registered on the default registry at package init
// through promauto and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "library"

// ── Lending metrics ───────────────────────────────────────────────────────────

// LoansBorrowedTotal counts successful borrows.
// Label:
//   - user_type: "student" or "professor"
var LoansBorrowedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loans_borrowed_total",
		Help:      "Total number of books lent, by borrower type.",
	},
	[]string{"user_type"},
)

// LoansReturnedTotal counts successful returns.
// Label:
//   - overdue: "true" or "false"
var LoansReturnedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loans_returned_total",
		Help:      "Total number of books returned, labelled by lateness.",
	},
	[]string{"overdue"},
)

// LendingErrorsTotal counts rejected borrow and return requests.
// Label:
//   - reason: e.g. "already_borrowed", "quota_exceeded", "not_borrowed"
var LendingErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lending_errors_total",
		Help:      "Total number of rejected lending operations, by reason.",
	},
	[]string{"reason"},
)

// DaysOverdue observes the lateness of overdue returns.
var DaysOverdue = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "return_days_overdue",
		Help:      "Days past the due date for late returns.",
		Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 90},
	},
)

// ── Catalog metrics ───────────────────────────────────────────────────────────

// CatalogBooks tracks the number of books in the catalog.
// Label:
//   - state: "available" or "borrowed"
var CatalogBooks = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_books",
		Help:      "Current number of books in the catalog, by state.",
	},
	[]string{"state"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditWritesTotal counts loan event writes.
// Label:
//   - result: "ok" or "error"
var AuditWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_writes_total",
		Help:      "Total number of loan event writes, by result.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks pending loan events per dispatcher worker.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of loan events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// SetCatalog refreshes the catalog gauges.
func SetCatalog(total, available int) {
	CatalogBooks.WithLabelValues("available").Set(float64(available))
	CatalogBooks.WithLabelValues("borrowed").Set(float64(total - available))
}
