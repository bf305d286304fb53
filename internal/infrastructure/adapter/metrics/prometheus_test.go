package metrics

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

var (
	_ coreport.MetricsRecorder = (*Recorder)(nil)
	_ coreport.MetricsRecorder = NoopRecorder{}
)

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRecorder("gsl")

	r.RecordHTTPRequest("POST", "/api/v1/wallet/recharge", "200", 0.1)
	r.RecordHTTPRequest("POST", "/api/v1/wallet/recharge", "200", 0.2)
	r.RecordHTTPRequest("POST", "/api/v1/wallet/recharge", "409", 0.05)

	assert.Equal(t, float64(2), testutil.ToFloat64(r.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/wallet/recharge", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/wallet/recharge", "409")))
}

func TestRecordVotes(t *testing.T) {
	r := NewRecorder("gsl")

	r.RecordVote("post", "create")
	r.RecordVote("post", "flip")
	r.RecordVote("post", "create")
	r.RecordVoteFailure("comment", "target_not_found")

	assert.Equal(t, float64(2), testutil.ToFloat64(r.VotesTotal.WithLabelValues("post", "create")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.VotesTotal.WithLabelValues("post", "flip")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.VoteFailuresTotal.WithLabelValues("comment", "target_not_found")))
}

func TestRecordWallet(t *testing.T) {
	r := NewRecorder("gsl")

	r.RecordWalletTransaction("recharge", 100)
	r.RecordWalletTransaction("recharge", 50.5)
	r.RecordWalletRejection("payment", "insufficient_funds")

	assert.Equal(t, float64(2), testutil.ToFloat64(r.WalletTransactionsTotal.WithLabelValues("recharge")))
	assert.Equal(t, 150.5, testutil.ToFloat64(r.WalletAmountTotal.WithLabelValues("recharge")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.WalletRejectionsTotal.WithLabelValues("payment", "insufficient_funds")))
}

func TestGauges(t *testing.T) {
	r := NewRecorder("gsl")

	r.SetEmailQueueLength(10)
	assert.Equal(t, float64(10), testutil.ToFloat64(r.EmailQueueLength))

	r.RecordDBStats(sql.DBStats{OpenConnections: 5, InUse: 2, Idle: 3, WaitCount: 7})
	assert.Equal(t, float64(5), testutil.ToFloat64(r.DBOpenConnections))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.DBInUse))
	assert.Equal(t, float64(3), testutil.ToFloat64(r.DBIdle))
	assert.Equal(t, float64(7), testutil.ToFloat64(r.DBWaitCount))
}

func TestRecordersAreIndependent(t *testing.T) {
	a := NewRecorder("gsl")
	b := NewRecorder("gsl")

	a.RecordCacheInvalidation("ok")

	assert.Equal(t, float64(1), testutil.ToFloat64(a.CacheInvalidationsTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.CacheInvalidationsTotal.WithLabelValues("ok")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRecorder("gsl")
	r.RecordNotification("wallet_recharge", "queued")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `gsl_notifications_total{kind="wallet_recharge",result="queued"} 1`)
}
