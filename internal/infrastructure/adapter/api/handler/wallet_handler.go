package handler

import (
	"context"
	"net/http"

	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/api/middleware"
	"github.com/gin-gonic/gin"
)

// WalletHandler handles the signed-in user's wallet requests
type WalletHandler struct {
	walletUseCase usecase.WalletUseCase
	options       Options
	logger        coreport.Logger
}

// NewWalletHandler creates a new wallet handler instance
func NewWalletHandler(walletUseCase usecase.WalletUseCase, options Options, logger coreport.Logger) *WalletHandler {
	return &WalletHandler{
		walletUseCase: walletUseCase,
		options:       options,
		logger:        logger,
	}
}

// GetBalance handles GET /api/v1/wallet
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var balance *usecase.BalanceResponse
	err := h.options.run(c, h.logger, func(ctx context.Context) error {
		var err error
		balance, err = h.walletUseCase.GetBalance(ctx, userID)
		return err
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		UserID:    balance.UserID,
		WalletID:  balance.WalletID,
		Balance:   balance.Balance,
		Currency:  h.options.Currency,
		UpdatedAt: balance.UpdatedAt,
	})
}

// Recharge handles POST /api/v1/wallet/recharge
func (h *WalletHandler) Recharge(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req dto.RechargeRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.AbortWithError(c, h.logger, bindError(err))
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
		result, err = h.walletUseCase.Recharge(ctx, userID, middleware.UserEmail(c), amount, req.Reference)
		return err
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(postingStatus(result), dto.NewPostingResponse(result))
}

// ListTransactions handles GET /api/v1/wallet/transactions
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var query dto.ListTransactionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.AbortWithError(c, h.logger, bindError(err))
		return
	}

	var page *usecase.TransactionPage
	err := h.options.run(c, h.logger, func(ctx context.Context) error {
		var err error
		page, err = h.walletUseCase.ListTransactions(ctx, userID, query.Limit, query.Offset)
		return err
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTransactionPageResponse(page))
}

// postingStatus is 201 for a new entry and 200 for a replayed reference
func postingStatus(result *usecase.TransactionResult) int {
	if result.Replayed {
		return http.StatusOK
	}
	return http.StatusCreated
}
