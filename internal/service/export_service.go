package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/nestlearn/planner-api/internal/models"
	appErrors "github.com/nestlearn/planner-api/pkg/errors"
	"github.com/nestlearn/planner-api/pkg/export"
)

type planReader interface {
	FindByID(ctx context.Context, id string) (*models.Plan, error)
	ListChanges(ctx context.Context, planID string) ([]models.ProposedChange, error)
}

// ExportDocument is a rendered plan report ready to serve.
type ExportDocument struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders a plan's changes as a printable report.
type ExportService struct {
	plans  planReader
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(plans planReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		plans:  plans,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// ExportPlan renders the plan in the requested format (csv or pdf).
func (s *ExportService) ExportPlan(ctx context.Context, planID, format string) (*ExportDocument, error) {
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "read plan")
	}
	changes, err := s.plans.ListChanges(ctx, planID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "read plan changes")
	}

	table := export.Table{
		Title:   fmt.Sprintf("Weekly plan %s (%s)", plan.WeekStart.Format(dateLayout), plan.Status),
		Headers: []string{"Type", "Learner", "Subject", "Title", "Start", "End", "Minutes", "Approved", "Applied"},
	}
	for _, change := range changes {
		payload, err := change.DecodePayload()
		if err != nil {
			s.logger.Warn("skipping undecodable change in export",
				zap.String("change_id", change.ID), zap.Error(err))
			continue
		}
		subjectID := ""
		if payload.SubjectID != nil {
			subjectID = *payload.SubjectID
		}
		table.Rows = append(table.Rows, []string{
			string(change.ChangeType),
			payload.LearnerID,
			subjectID,
			payload.Title,
			payload.Start.Format("2006-01-02 15:04"),
			payload.End.Format("2006-01-02 15:04"),
			strconv.Itoa(payload.Minutes),
			strconv.FormatBool(change.Approved),
			strconv.FormatBool(change.Applied),
		})
	}

	switch format {
	case "pdf":
		content, err := s.pdf.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render pdf")
		}
		return &ExportDocument{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("plan-%s.pdf", plan.WeekStart.Format(dateLayout)),
		}, nil
	default:
		content, err := s.csv.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render csv")
		}
		return &ExportDocument{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("plan-%s.csv", plan.WeekStart.Format(dateLayout)),
		}, nil
	}
}
