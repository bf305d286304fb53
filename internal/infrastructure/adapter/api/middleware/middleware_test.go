package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	mockcore "github.com/amirhossein-jamali/gamestore-ledger/mocks/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/logger"
	timeadapter "github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/time"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"insufficient funds", errs.NewInsufficientFundsError(1, "400.00", "300.00", "100.00"), http.StatusUnprocessableEntity},
		{"duplicate reference", fmt.Errorf("%w: order-1", errs.ErrDuplicateReference), http.StatusConflict},
		{"target not found", errs.NewVoteError(1, "post", 9, "apply vote", errs.ErrTargetNotFound), http.StatusNotFound},
		{"transient", errs.NewStorageError("lock wallet", errors.New("deadlock detected")), http.StatusServiceUnavailable},
		{"unauthorized", errs.ErrUnauthorized, http.StatusUnauthorized},
		{"constraint", errs.ErrConstraintViolation, http.StatusConflict},
		{"rate limited", errs.ErrRateLimited, http.StatusTooManyRequests},
		{"validation", errs.NewValidationError("amount", "x", errs.ErrInvalidAmount), http.StatusBadRequest},
		{"conflicting vote", errs.ErrConflictingVote, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestAbortWithError_HidesServerErrorDetails(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/fail", func(c *gin.Context) {
		AbortWithError(c, logger.NewNoopLogger(), errors.New("pq: password authentication failed"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.Contains(t, w.Body.String(), `"requestId"`)
}

func TestErrorHandler_RecoversPanic(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler(logger.NewNoopLogger()))
	router.GET("/panic", func(c *gin.Context) { panic("nil map") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprint(errs.CodeInternalServer))
}

func TestIdentity(t *testing.T) {
	log := logger.NewNoopLogger()
	router := gin.New()
	router.Use(Identity(log))
	router.GET("/me", RequireUser(log), func(c *gin.Context) {
		id, _ := UserID(c)
		c.String(http.StatusOK, "%d %s", id, UserEmail(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(UserIDHeader, "12")
	req.Header.Set(UserEmailHeader, "p@example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12 p@example.com", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInternalToken_EmptyTokenDisablesRoutes(t *testing.T) {
	router := gin.New()
	router.GET("/internal", InternalToken("", logger.NewNoopLogger()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/internal", nil)
	req.Header.Set(InternalTokenHeader, "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"https://store.example"}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://store.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://store.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

type recordedRequest struct {
	method, path, status string
}

type fakeHTTPMetrics struct {
	calls []recordedRequest
}

func (f *fakeHTTPMetrics) RecordHTTPRequest(method, path, status string, _ float64) {
	f.calls = append(f.calls, recordedRequest{method, path, status})
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	recorder := &fakeHTTPMetrics{}
	router := gin.New()
	router.Use(Metrics(recorder, timeadapter.NewRealTimeProvider()))
	router.GET("/votes/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/votes/42", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, []recordedRequest{
		{http.MethodGet, "/votes/:id", "200"},
		{http.MethodGet, "unmatched", "404"},
	}, recorder.calls)
}

func TestLogger_ServerErrorsLogAtErrorLevel(t *testing.T) {
	clock := timeadapter.NewManualTimeProvider(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	log := mockcore.NewMockLogger(t)
	log.On("Error", "Request processed", mock.MatchedBy(func(fields map[string]any) bool {
		return fields["status"] == http.StatusServiceUnavailable &&
			fields["route"] == "/wallet/:id" &&
			fields["latency_ms"] == int64(250) &&
			fields["user_id"] == uint64(7)
	})).Once()
	log.On("Info", "Request processed", mock.MatchedBy(func(fields map[string]any) bool {
		return fields["status"] == http.StatusOK
	})).Once()

	router := gin.New()
	router.Use(RequestID(), Logger(log, clock), Identity(logger.NewNoopLogger()))
	router.GET("/wallet/:id", func(c *gin.Context) {
		clock.Advance(250 * time.Millisecond)
		c.Status(http.StatusServiceUnavailable)
	})
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/wallet/3", nil)
	req.Header.Set(UserIDHeader, "7")
	router.ServeHTTP(httptest.NewRecorder(), req)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
}

func TestRateLimit(t *testing.T) {
	clock := timeadapter.NewManualTimeProvider(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewRateLimiter(1, 2, time.Minute, clock)

	router := gin.New()
	router.Use(Identity(logger.NewNoopLogger()), RateLimit(limiter, logger.NewNoopLogger()))
	router.POST("/votes", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/votes", nil)
		req.Header.Set(UserIDHeader, userID)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("7"))
	assert.Equal(t, http.StatusOK, send("7"))
	assert.Equal(t, http.StatusTooManyRequests, send("7"))
	assert.Equal(t, http.StatusOK, send("8"), "buckets are per user")

	clock.Advance(time.Second)
	assert.Equal(t, http.StatusOK, send("7"))

	clock.Advance(2 * time.Minute)
	assert.Equal(t, http.StatusOK, send("9"))
	assert.Equal(t, 1, limiter.Clients(), "idle clients are pruned")
}
