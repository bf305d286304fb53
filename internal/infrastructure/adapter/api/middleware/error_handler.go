package middleware

import (
	"net/http"

	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// ErrorHandler middleware recovers from panics and returns a 500 response
func ErrorHandler(logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered in API request", map[string]any{
					"error":      err,
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
					"client_ip":  c.ClientIP(),
					"request_id": GetRequestID(c),
					"user_agent": c.Request.UserAgent(),
				})

				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
					Code:      errs.ErrorCode(errs.ErrInternalServer),
					Message:   "Internal server error",
					RequestID: GetRequestID(c),
				})
			}
		}()

		c.Next()
	}
}

// StatusCode maps a domain error to its HTTP status
func StatusCode(err error) int {
	switch {
	case errs.IsInsufficientFundsError(err):
		return http.StatusUnprocessableEntity
	case errs.IsDuplicateReferenceError(err):
		return http.StatusConflict
	case errs.IsNotFoundError(err):
		return http.StatusNotFound
	case errs.IsTransientStorageError(err):
		return http.StatusServiceUnavailable
	}

	switch code := errs.ErrorCode(err); {
	case code == errs.CodeUnauthorized:
		return http.StatusUnauthorized
	case code == errs.CodeRateLimited:
		return http.StatusTooManyRequests
	case code == errs.CodeConstraintViolation:
		return http.StatusConflict
	case code >= 4000 && code < 5000:
		return http.StatusBadRequest
	}

	if errs.IsValidationError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// AbortWithError logs err and writes the standard error body
func AbortWithError(c *gin.Context, logger coreport.Logger, err error) {
	status := StatusCode(err)
	resp := dto.ErrorResponse{
		Code:      errs.ErrorCode(err),
		Message:   err.Error(),
		RequestID: GetRequestID(c),
	}
	if shortfall, ok := errs.ShortfallOf(err); ok {
		resp.Shortfall = shortfall
	}

	fields := map[string]any{
		"path":       c.FullPath(),
		"status":     status,
		"error":      err.Error(),
		"error_code": resp.Code,
		"request_id": resp.RequestID,
	}
	if status >= http.StatusInternalServerError {
		// Storage details stay in the log
		resp.Message = http.StatusText(status)
		logger.Error("Request failed", fields)
	} else {
		logger.Warn("Request rejected", fields)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}
