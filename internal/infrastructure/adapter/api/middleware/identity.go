package middleware

import (
	"crypto/subtle"
	"fmt"
	"strconv"
	"strings"

	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/gin-gonic/gin"
)

// Headers set by the upstream auth gateway and by internal callers
const (
	UserIDHeader        = "X-User-ID"
	UserEmailHeader     = "X-User-Email"
	InternalTokenHeader = "X-Internal-Token"
)

const (
	userIDKey    = "user_id"
	userEmailKey = "user_email"
)

// Identity reads the forwarded user identity. Requests without one are
// anonymous; a malformed user ID is rejected.
func Identity(logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				AbortWithError(c, logger, errs.NewValidationError(UserIDHeader, raw, errs.ErrInvalidUserID))
				return
			}
			c.Set(userIDKey, id)
			c.Set(userEmailKey, strings.TrimSpace(c.GetHeader(UserEmailHeader)))
		}
		c.Next()
	}
}

// RequireUser rejects anonymous requests
func RequireUser(logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			AbortWithError(c, logger, fmt.Errorf("%w: missing %s", errs.ErrUnauthorized, UserIDHeader))
			return
		}
		c.Next()
	}
}

// UserID returns the signed-in user's ID
func UserID(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}

// UserEmail returns the signed-in user's email, "" when not forwarded
func UserEmail(c *gin.Context) string {
	return c.GetString(userEmailKey)
}

// InternalToken guards service-to-service routes with a shared token.
// An empty configured token disables the routes.
func InternalToken(token string, logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		given := c.GetHeader(InternalTokenHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			AbortWithError(c, logger, fmt.Errorf("%w: invalid internal token", errs.ErrUnauthorized))
			return
		}
		c.Next()
	}
}
