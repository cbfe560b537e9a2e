// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counters exported by the engine and queue. Registered on the default
// registry and served by Handler on /metrics.
var (
	TransactionsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fintx_transactions_processed_total",
		Help: "Domain transactions that finished processing, by type and final status.",
	}, []string{"type", "status"})

	LockConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fintx_lock_conflicts_total",
		Help: "Wallet lock acquisitions that failed because the wallet was held.",
	})

	JobsRetried = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fintx_queue_jobs_retried_total",
		Help: "Queue jobs re-enqueued after a retryable failure.",
	})

	JobsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fintx_queue_jobs_dropped_total",
		Help: "Queue jobs abandoned after exhausting their attempts.",
	})

	LedgerPostings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fintx_ledger_postings_total",
		Help: "Ledger transaction postings, by outcome.",
	}, []string{"outcome"})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
