package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nestlearn/planner-api/internal/dto"
	appErrors "github.com/nestlearn/planner-api/pkg/errors"
	"github.com/nestlearn/planner-api/pkg/response"
)

type rescheduleService interface {
	Suggest(ctx context.Context, commitmentID, reason string) (*dto.SuggestionsResponse, error)
}

// RescheduleHandler exposes conflict suggestions over HTTP.
type RescheduleHandler struct {
	service rescheduleService
}

// NewRescheduleHandler constructs the handler.
func NewRescheduleHandler(rescheduleSvc rescheduleService) *RescheduleHandler {
	return &RescheduleHandler{service: rescheduleSvc}
}

// Suggestions godoc
// @Summary Suggest replacement windows for a blocked commitment
// @Tags Reschedule
// @Produce json
// @Param id path string true "Commitment ID"
// @Param reason query string false "Conflict reason (sick, weather, family_emergency, travel, other)"
// @Success 200 {object} response.Envelope
// @Router /commitments/{id}/suggestions [get]
func (h *RescheduleHandler) Suggestions(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "reschedule service not configured"))
		return
	}
	var query dto.SuggestionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid suggestions query"))
		return
	}
	result, err := h.service.Suggest(c.Request.Context(), c.Param("id"), query.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
