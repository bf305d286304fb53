package handler

import (
	"context"
	"net/http"

	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/api/middleware"
	"github.com/gin-gonic/gin"
)

// TransactionHandler handles wallet postings made by other services:
// purchases, ticket refunds and audits
type TransactionHandler struct {
	walletUseCase usecase.WalletUseCase
	options       Options
	logger        coreport.Logger
}

// NewTransactionHandler creates a new transaction handler instance
func NewTransactionHandler(walletUseCase usecase.WalletUseCase, options Options, logger coreport.Logger) *TransactionHandler {
	return &TransactionHandler{
		walletUseCase: walletUseCase,
		options:       options,
		logger:        logger,
	}
}

// posting parses the user and body shared by payments and refunds
func (h *TransactionHandler) posting(c *gin.Context) (uint64, dto.WalletPostingRequest, bool) {
	var req dto.WalletPostingRequest

	userID, err := parseID(c, "userId", errs.ErrInvalidUserID)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return 0, req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, h.logger, bindError(err))
		return 0, req, false
	}
	return userID, req, true
}

// Pay handles POST /internal/v1/wallets/:userId/payments
func (h *TransactionHandler) Pay(c *gin.Context) {
	userID, req, ok := h.posting(c)
	if !ok {
		return
	}
	amount, err := parseAmount(string(req.Amount))
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	var result *usecase.TransactionResult
	err = h.options.run(c, h.logger, func(ctx context.Context) error {
		var err error
		result, err = h.walletUseCase.Pay(ctx, userID, amount, req.Reference)
		return err
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(postingStatus(result), dto.NewPostingResponse(result))
}

// Refund handles POST /internal/v1/wallets/:userId/refunds
func (h *TransactionHandler) Refund(c *gin.Context) {
	userID, req, ok := h.posting(c)
	if !ok {
		return
	}
	amount, err := parseAmount(string(req.Amount))
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	var result *usecase.TransactionResult
	err = h.options.run(c, h.logger, func(ctx context.Context) error {
		var err error
		result, err = h.walletUseCase.Refund(ctx, userID, req.Email, amount, req.Reference)
		return err
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(postingStatus(result), dto.NewPostingResponse(result))
}

// Reconcile handles GET /internal/v1/wallets/:userId/reconciliation
func (h *TransactionHandler) Reconcile(c *gin.Context) {
	userID, err := parseID(c, "userId", errs.ErrInvalidUserID)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	var report *usecase.ReconciliationReport
	err = h.options.run(c, h.logger, func(ctx context.Context) error {
		var err error
		report, err = h.walletUseCase.Reconcile(ctx, userID)
		return err
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewReconciliationResponse(report))
}
