package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/nestlearn/planner-api/internal/dto"
	"github.com/nestlearn/planner-api/internal/models"
	"github.com/nestlearn/planner-api/internal/service"
	appErrors "github.com/nestlearn/planner-api/pkg/errors"
)

type planServiceMock struct {
	proposeResp *dto.ProposePlanResponse
	proposeErr  error
	applyResp   *dto.ApplyPlanResponse
	applyErr    error
}

func (m *planServiceMock) Propose(ctx context.Context, req dto.ProposePlanRequest) (*dto.ProposePlanResponse, error) {
	return m.proposeResp, m.proposeErr
}

func (m *planServiceMock) ApproveAndApply(ctx context.Context, planID string, req dto.ApplyPlanRequest) (*dto.ApplyPlanResponse, error) {
	return m.applyResp, m.applyErr
}

type planExporterMock struct {
	doc       *service.ExportDocument
	err       error
	gotFormat string
}

func (m *planExporterMock) ExportPlan(ctx context.Context, planID, format string) (*service.ExportDocument, error) {
	m.gotFormat = format
	return m.doc, m.err
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestPlanHandlerPropose(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &planServiceMock{
		proposeResp: &dto.ProposePlanResponse{PlanID: "plan-1", Status: models.PlanStatusDraft, WeekStart: "2026-09-07"},
	}
	handler := NewPlanHandler(mockSvc, nil, nil)

	payload, _ := json.Marshal(dto.ProposePlanRequest{FamilyID: "family-1", WeekStart: "2026-09-07"})
	c, w := newGinContext(http.MethodPost, "/plans/propose", payload)

	handler.Propose(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestPlanHandlerProposeBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPlanHandler(&planServiceMock{}, nil, nil)

	c, w := newGinContext(http.MethodPost, "/plans/propose", []byte("{not json"))

	handler.Propose(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlanHandlerApplyStateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &planServiceMock{
		applyErr: appErrors.Clone(appErrors.ErrStateConflict, "plan is no longer a draft"),
	}
	handler := NewPlanHandler(mockSvc, nil, nil)

	payload, _ := json.Marshal(dto.ApplyPlanRequest{
		Approvals: []dto.ChangeApproval{{ChangeID: "change-1", Approved: true}},
	})
	c, w := newGinContext(http.MethodPatch, "/plans/plan-1/apply", payload)
	c.Params = gin.Params{{Key: "id", Value: "plan-1"}}

	handler.Apply(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestPlanHandlerApply(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &planServiceMock{
		applyResp: &dto.ApplyPlanResponse{
			PlanID: "plan-1",
			Status: models.PlanStatusApplied,
			Results: []models.ChangeResult{
				{ChangeID: "change-1", Status: models.ChangeOutcomeApplied},
			},
		},
	}
	handler := NewPlanHandler(mockSvc, nil, nil)

	payload, _ := json.Marshal(dto.ApplyPlanRequest{
		Approvals: []dto.ChangeApproval{{ChangeID: "change-1", Approved: true}},
	})
	c, w := newGinContext(http.MethodPatch, "/plans/plan-1/apply", payload)
	c.Params = gin.Params{{Key: "id", Value: "plan-1"}}

	handler.Apply(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestPlanHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := &planExporterMock{doc: &service.ExportDocument{
		Content:     []byte("Type,Learner\n"),
		ContentType: "text/csv",
		Filename:    "plan-2026-09-07.csv",
	}}
	handler := NewPlanHandler(&planServiceMock{}, exporter, nil)

	c, w := newGinContext(http.MethodGet, "/plans/plan-1/export", nil)
	c.Params = gin.Params{{Key: "id", Value: "plan-1"}}

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "plan-2026-09-07.csv")
}

func TestPlanHandlerExportBindsFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := &planExporterMock{doc: &service.ExportDocument{
		Content:     []byte("%PDF-1.3"),
		ContentType: "application/pdf",
		Filename:    "plan-2026-09-07.pdf",
	}}
	handler := NewPlanHandler(&planServiceMock{}, exporter, nil)

	c, w := newGinContext(http.MethodGet, "/plans/plan-1/export?format=pdf", nil)
	c.Params = gin.Params{{Key: "id", Value: "plan-1"}}

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "pdf", exporter.gotFormat)
}
