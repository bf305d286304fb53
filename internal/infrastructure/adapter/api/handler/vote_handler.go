package handler

import (
	"context"
	"net/http"
	"strings"

	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/usecase/vote"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/api/middleware"
	"github.com/gin-gonic/gin"
)

// VoteHandler handles vote-related HTTP requests
type VoteHandler struct {
	voteUseCase usecase.VoteUseCase
	options     Options
	logger      coreport.Logger
}

// NewVoteHandler creates a new vote handler instance
func NewVoteHandler(voteUseCase usecase.VoteUseCase, options Options, logger coreport.Logger) *VoteHandler {
	return &VoteHandler{
		voteUseCase: voteUseCase,
		options:     options,
		logger:      logger,
	}
}

// GetVotes handles GET /api/v1/votes/:targetType/:targetId
func (h *VoteHandler) GetVotes(c *gin.Context) {
	target, err := parseTarget(c)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	voterID, _ := middleware.UserID(c)

	var state *usecase.VoteState
	err = h.options.run(c, h.logger, func(ctx context.Context) error {
		var err error
		state, err = h.voteUseCase.GetVoteState(ctx, voterID, target)
		return err
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewVoteResponse(target, state.Counters, state.UserVote, ""))
}

// Vote handles POST /api/v1/votes/:targetType/:targetId. The body carries
// upvote_<type> or downvote_<type> as JSON or form fields.
func (h *VoteHandler) Vote(c *gin.Context) {
	target, err := parseTarget(c)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}
	voterID, _ := middleware.UserID(c)

	fields, err := voteFields(c)
	if err != nil {
		middleware.AbortWithError(c, h.logger, bindError(err))
		return
	}

	req, err := vote.ParseVoteRequest(target.Type, fields)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	var result *usecase.VoteResult
	err = h.options.run(c, h.logger, func(ctx context.Context) error {
		var err error
		result, err = h.voteUseCase.ApplyVote(ctx, voterID, target, req)
		return err
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewVoteResponse(target, result.Counters, result.UserVote, result.Action.String()))
}

// Recount handles POST /internal/v1/votes/:targetType/:targetId/recount
func (h *VoteHandler) Recount(c *gin.Context) {
	target, err := parseTarget(c)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	var result *usecase.RecountResult
	err = h.options.run(c, h.logger, func(ctx context.Context) error {
		var err error
		result, err = h.voteUseCase.RecountCounters(ctx, target)
		return err
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRecountResponse(result))
}

// voteFields decodes the request body into raw field values. Form values are
// kept as []string; JSON values keep their decoded type.
func voteFields(c *gin.Context) (map[string]any, error) {
	fields := make(map[string]any)
	if c.Request.ContentLength == 0 {
		return fields, nil
	}

	if strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
		if err := c.ShouldBindJSON(&fields); err != nil {
			return nil, err
		}
		return fields, nil
	}

	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	for key, values := range c.Request.PostForm {
		fields[key] = values
	}
	return fields, nil
}
