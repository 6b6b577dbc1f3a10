package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nestlearn/planner-api/internal/dto"
	"github.com/nestlearn/planner-api/internal/models"
	appErrors "github.com/nestlearn/planner-api/pkg/errors"
	"github.com/nestlearn/planner-api/pkg/response"
)

type gapService interface {
	FindGaps(ctx context.Context, learnerID string, from, to time.Time, minGapMinutes int) ([]models.Gap, error)
}

// GapHandler exposes free-time inspection over HTTP.
type GapHandler struct {
	service       gapService
	minGapMinutes int
}

// NewGapHandler constructs the handler.
func NewGapHandler(gapSvc gapService, minGapMinutes int) *GapHandler {
	return &GapHandler{service: gapSvc, minGapMinutes: minGapMinutes}
}

// Gaps godoc
// @Summary List a learner's free intervals in a date range
// @Tags Gaps
// @Produce json
// @Param id path string true "Learner ID"
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /learners/{id}/gaps [get]
func (h *GapHandler) Gaps(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "gap service not configured"))
		return
	}
	var query dto.GapsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from and to query parameters are required"))
		return
	}
	from, err := time.ParseInLocation("2006-01-02", query.From, time.UTC)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD"))
		return
	}
	to, err := time.ParseInLocation("2006-01-02", query.To, time.UTC)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD"))
		return
	}
	if to.Before(from) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must not precede from"))
		return
	}

	learnerID := c.Param("id")
	gaps, err := h.service.FindGaps(c.Request.Context(), learnerID, from, to, h.minGapMinutes)
	if err != nil {
		response.Error(c, err)
		return
	}

	total := 0
	for _, g := range gaps {
		total += g.AvailableMinutes
	}
	response.JSON(c, http.StatusOK, dto.GapsResponse{
		LearnerID:    learnerID,
		From:         query.From,
		To:           query.To,
		Gaps:         gaps,
		TotalMinutes: total,
	})
}
