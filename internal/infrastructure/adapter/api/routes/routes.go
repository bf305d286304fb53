package routes

import (
	"net/http"

	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/api/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler the router serves
type Handlers struct {
	Vote        *handler.VoteHandler
	Wallet      *handler.WalletHandler
	Transaction *handler.TransactionHandler
	Health      *handler.HealthHandler
	Metrics     http.Handler // nil disables /metrics
}

// SetupRoutes configures all the routes for the API
func SetupRoutes(router *gin.Engine, h Handlers, internalToken string, logger coreport.Logger) {
	router.GET("/health", h.Health.Health)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := router.Group("/api/v1")
	{
		// Anonymous readers get counters without their own vote
		api.GET("/votes/:targetType/:targetId", h.Vote.GetVotes)

		authed := api.Group("")
		authed.Use(middleware.RequireUser(logger))
		{
			authed.POST("/votes/:targetType/:targetId", h.Vote.Vote)

			authed.GET("/wallet", h.Wallet.GetBalance)
			authed.POST("/wallet/recharge", h.Wallet.Recharge)
			authed.GET("/wallet/transactions", h.Wallet.ListTransactions)
		}
	}

	internal := router.Group("/internal/v1")
	internal.Use(middleware.InternalToken(internalToken, logger))
	{
		internal.POST("/wallets/:userId/payments", h.Transaction.Pay)
		internal.POST("/wallets/:userId/refunds", h.Transaction.Refund)
		internal.GET("/wallets/:userId/reconciliation", h.Transaction.Reconcile)
		internal.POST("/votes/:targetType/:targetId/recount", h.Vote.Recount)
	}
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(
	router *gin.Engine,
	logger coreport.Logger,
	timeProvider coreport.TimeProvider,
	recorder middleware.HTTPMetrics,
	allowedOrigins []string,
) {
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Logger(logger, timeProvider))
	if recorder != nil {
		router.Use(middleware.Metrics(recorder, timeProvider))
	}
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.Identity(logger))
}
