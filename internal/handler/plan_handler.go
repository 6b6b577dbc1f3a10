package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nestlearn/planner-api/internal/dto"
	"github.com/nestlearn/planner-api/internal/service"
	appErrors "github.com/nestlearn/planner-api/pkg/errors"
	"github.com/nestlearn/planner-api/pkg/response"
)

type planService interface {
	Propose(ctx context.Context, req dto.ProposePlanRequest) (*dto.ProposePlanResponse, error)
	ApproveAndApply(ctx context.Context, planID string, req dto.ApplyPlanRequest) (*dto.ApplyPlanResponse, error)
}

type planExporter interface {
	ExportPlan(ctx context.Context, planID, format string) (*service.ExportDocument, error)
}

// PlanHandler exposes the proposal lifecycle over HTTP.
type PlanHandler struct {
	service  planService
	exporter planExporter
	metrics  *service.MetricsService
}

// NewPlanHandler constructs the handler. Metrics may be nil.
func NewPlanHandler(planSvc planService, exporter planExporter, metrics *service.MetricsService) *PlanHandler {
	return &PlanHandler{service: planSvc, exporter: exporter, metrics: metrics}
}

// Propose godoc
// @Summary Draft a schedule proposal for a family's week
// @Tags Plans
// @Accept json
// @Produce json
// @Param payload body dto.ProposePlanRequest true "Proposal parameters"
// @Success 201 {object} response.Envelope
// @Router /plans/propose [post]
func (h *PlanHandler) Propose(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "plan service not configured"))
		return
	}
	var req dto.ProposePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid proposal payload"))
		return
	}

	start := time.Now()
	result, err := h.service.Propose(c.Request.Context(), req)
	if err != nil {
		h.observeRun(req.Mode, "error", 0, time.Since(start))
		response.Error(c, err)
		return
	}
	h.observeRun(req.Mode, "ok", len(result.Changes), time.Since(start))
	response.JSON(c, http.StatusCreated, result)
}

// Apply godoc
// @Summary Submit approvals and materialize a draft plan
// @Tags Plans
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param payload body dto.ApplyPlanRequest true "Approval decisions"
// @Success 200 {object} response.Envelope
// @Router /plans/{id}/apply [patch]
func (h *PlanHandler) Apply(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "plan service not configured"))
		return
	}
	var req dto.ApplyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid approvals payload"))
		return
	}

	result, err := h.service.ApproveAndApply(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		for _, r := range result.Results {
			h.metrics.ObserveChangeOutcome(string(r.Status))
		}
	}
	response.JSON(c, http.StatusOK, result)
}

// Export godoc
// @Summary Download a plan as CSV or PDF
// @Tags Plans
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Plan ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /plans/{id}/export [get]
func (h *PlanHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	var query dto.PlanExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid export query"))
		return
	}
	doc, err := h.exporter.ExportPlan(c.Request.Context(), c.Param("id"), query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}

func (h *PlanHandler) observeRun(mode, outcome string, changes int, duration time.Duration) {
	if h.metrics == nil {
		return
	}
	if mode == "" {
		mode = service.ModeRebalance
	}
	h.metrics.ObservePlanningRun(mode, outcome, changes, duration)
}
