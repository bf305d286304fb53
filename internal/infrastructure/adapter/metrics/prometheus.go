// Package metrics exposes ledger and HTTP metrics to Prometheus.
package metrics

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implements core.MetricsRecorder on its own Prometheus registry
type Recorder struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	VotesTotal        *prometheus.CounterVec
	VoteFailuresTotal *prometheus.CounterVec

	WalletTransactionsTotal *prometheus.CounterVec
	WalletAmountTotal       *prometheus.CounterVec
	WalletRejectionsTotal   *prometheus.CounterVec

	CacheInvalidationsTotal *prometheus.CounterVec
	NotificationsTotal      *prometheus.CounterVec
	EmailQueueLength        prometheus.Gauge

	DBOpenConnections prometheus.Gauge
	DBInUse           prometheus.Gauge
	DBIdle            prometheus.Gauge
	DBWaitCount       prometheus.Gauge
}

// NewRecorder registers the ledger metrics under namespace
func NewRecorder(namespace string) *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,

		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		VotesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Committed vote mutations",
		}, []string{"target_type", "action"}),

		VoteFailuresTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vote_failures_total",
			Help:      "Vote requests that did not commit",
		}, []string{"target_type", "reason"}),

		WalletTransactionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wallet_transactions_total",
			Help:      "Committed wallet ledger entries",
		}, []string{"payment_type"}),

		WalletAmountTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wallet_amount_total",
			Help:      "Sum of committed ledger entry amounts",
		}, []string{"payment_type"}),

		WalletRejectionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wallet_rejections_total",
			Help:      "Wallet requests rejected before commit",
		}, []string{"payment_type", "reason"}),

		CacheInvalidationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidations_total",
			Help:      "Cache tag invalidations by result",
		}, []string{"result"}),

		NotificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification attempts by kind and result",
		}, []string{"kind", "result"}),

		EmailQueueLength: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "email_queue_length",
			Help:      "Current length of the email queue",
		}),

		DBOpenConnections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_open_connections",
			Help:      "Open database connections",
		}),
		DBInUse: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_in_use_connections",
			Help:      "Database connections in use",
		}),
		DBIdle: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_idle_connections",
			Help:      "Idle database connections",
		}),
		DBWaitCount: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_wait_count",
			Help:      "Total number of connections waited for",
		}),
	}
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordHTTPRequest counts one request and observes its duration in seconds
func (r *Recorder) RecordHTTPRequest(method, path, status string, duration float64) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func (r *Recorder) RecordVote(targetType, action string) {
	r.VotesTotal.WithLabelValues(targetType, action).Inc()
}

func (r *Recorder) RecordVoteFailure(targetType, reason string) {
	r.VoteFailuresTotal.WithLabelValues(targetType, reason).Inc()
}

func (r *Recorder) RecordWalletTransaction(paymentType string, amount float64) {
	r.WalletTransactionsTotal.WithLabelValues(paymentType).Inc()
	r.WalletAmountTotal.WithLabelValues(paymentType).Add(amount)
}

func (r *Recorder) RecordWalletRejection(paymentType, reason string) {
	r.WalletRejectionsTotal.WithLabelValues(paymentType, reason).Inc()
}

func (r *Recorder) RecordCacheInvalidation(result string) {
	r.CacheInvalidationsTotal.WithLabelValues(result).Inc()
}

func (r *Recorder) RecordNotification(kind, result string) {
	r.NotificationsTotal.WithLabelValues(kind, result).Inc()
}

// SetEmailQueueLength publishes the current email backlog
func (r *Recorder) SetEmailQueueLength(n int64) {
	r.EmailQueueLength.Set(float64(n))
}

// RecordDBStats publishes connection pool statistics
func (r *Recorder) RecordDBStats(stats sql.DBStats) {
	r.DBOpenConnections.Set(float64(stats.OpenConnections))
	r.DBInUse.Set(float64(stats.InUse))
	r.DBIdle.Set(float64(stats.Idle))
	r.DBWaitCount.Set(float64(stats.WaitCount))
}
