package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/nestlearn/planner-api/internal/dto"
	"github.com/nestlearn/planner-api/internal/models"
	appErrors "github.com/nestlearn/planner-api/pkg/errors"
	"github.com/nestlearn/planner-api/pkg/response"
)

type blackoutService interface {
	Create(ctx context.Context, req dto.CreateBlackoutRequest) (*models.BlackoutPeriod, error)
}

// BlackoutHandler exposes blackout creation over HTTP.
type BlackoutHandler struct {
	service blackoutService
}

// NewBlackoutHandler constructs the handler.
func NewBlackoutHandler(blackoutSvc blackoutService) *BlackoutHandler {
	return &BlackoutHandler{service: blackoutSvc}
}

// Create godoc
// @Summary Declare a no-schedule period
// @Tags Blackouts
// @Accept json
// @Produce json
// @Param payload body dto.CreateBlackoutRequest true "Blackout period"
// @Success 201 {object} response.Envelope
// @Router /blackouts [post]
func (h *BlackoutHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "blackout service not configured"))
		return
	}
	var req dto.CreateBlackoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid blackout payload"))
		return
	}
	blackout, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, blackout)
}
