package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nestlearn/planner-api/internal/dto"
	"github.com/nestlearn/planner-api/internal/service"
	"github.com/nestlearn/planner-api/pkg/config"
	appErrors "github.com/nestlearn/planner-api/pkg/errors"
	"github.com/nestlearn/planner-api/pkg/jobs"
	"github.com/nestlearn/planner-api/pkg/response"
)

// JobKindVelocityRecompute labels queued family recompute jobs.
const JobKindVelocityRecompute = "velocity_recompute"

// VelocityRecomputePayload is the queued job payload for async recomputes.
type VelocityRecomputePayload struct {
	FamilyID   string
	SinceWeeks int
}

type velocityService interface {
	Recompute(ctx context.Context, familyID, learnerID, subjectID string, sinceWeeks int) (*dto.VelocityUpdate, error)
	RecomputeFamily(ctx context.Context, familyID string, sinceWeeks int) ([]dto.VelocityUpdate, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// VelocityHandler exposes pace recomputation over HTTP.
type VelocityHandler struct {
	service velocityService
	queue   jobEnqueuer
	metrics *service.MetricsService
	cfg     config.VelocityConfig
}

// NewVelocityHandler constructs the handler. Queue and metrics may be nil;
// without a queue, async requests run synchronously.
func NewVelocityHandler(velocitySvc velocityService, queue jobEnqueuer, metrics *service.MetricsService, cfg config.VelocityConfig) *VelocityHandler {
	return &VelocityHandler{service: velocitySvc, queue: queue, metrics: metrics, cfg: cfg}
}

// Recompute godoc
// @Summary Recompute adaptive pace multipliers
// @Tags Velocity
// @Accept json
// @Produce json
// @Param payload body dto.RecomputeVelocityRequest true "Recompute scope"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /velocity/recompute [post]
func (h *VelocityHandler) Recompute(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "velocity service not configured"))
		return
	}
	var req dto.RecomputeVelocityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid recompute payload"))
		return
	}
	if req.FamilyID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "familyId is required"))
		return
	}
	if req.SinceWeeks <= 0 {
		req.SinceWeeks = h.cfg.DefaultSinceWeeks
	}

	if req.LearnerID != "" && req.SubjectID != "" {
		update, err := h.service.Recompute(c.Request.Context(), req.FamilyID, req.LearnerID, req.SubjectID, req.SinceWeeks)
		if err != nil {
			response.Error(c, err)
			return
		}
		resp := dto.RecomputeVelocityResponse{}
		if update != nil {
			resp.Updates = []dto.VelocityUpdate{*update}
			if h.metrics != nil {
				h.metrics.ObserveVelocityUpdates(1)
			}
		}
		response.JSON(c, http.StatusOK, resp)
		return
	}

	if req.Async && h.queue != nil {
		err := h.queue.Enqueue(jobs.Job{
			ID:   uuid.NewString(),
			Kind: JobKindVelocityRecompute,
			Payload: VelocityRecomputePayload{
				FamilyID:   req.FamilyID,
				SinceWeeks: req.SinceWeeks,
			},
		})
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "enqueue recompute"))
			return
		}
		response.JSON(c, http.StatusAccepted, dto.RecomputeVelocityResponse{Enqueued: true})
		return
	}

	updates, err := h.service.RecomputeFamily(c.Request.Context(), req.FamilyID, req.SinceWeeks)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveVelocityUpdates(len(updates))
	}
	response.JSON(c, http.StatusOK, dto.RecomputeVelocityResponse{Updates: updates})
}
