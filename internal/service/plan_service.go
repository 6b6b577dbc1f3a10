package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/nestlearn/planner-api/internal/dto"
	"github.com/nestlearn/planner-api/internal/models"
	"github.com/nestlearn/planner-api/pkg/config"
	appErrors "github.com/nestlearn/planner-api/pkg/errors"
)

type planStore interface {
	CreateWithChanges(ctx context.Context, plan *models.Plan, changes []models.ProposedChange) error
	FindByID(ctx context.Context, id string) (*models.Plan, error)
	ListChanges(ctx context.Context, planID string) ([]models.ProposedChange, error)
	UpdateChangeApproval(ctx context.Context, changeID string, approved bool, payload []byte) error
	MarkChangeApplied(ctx context.Context, changeID string, commitmentID *string, appliedAt time.Time) error
	UpdateStatus(ctx context.Context, planID string, status models.PlanStatus, appliedAt *time.Time) (bool, error)
}

type commitmentWriter interface {
	FindByID(ctx context.Context, id string) (*models.Commitment, error)
	Create(ctx context.Context, commitment *models.Commitment) error
	UpdateWindow(ctx context.Context, id string, start, end time.Time) error
	Cancel(ctx context.Context, id string) error
}

type gapFinder interface {
	FindGapsForLearners(ctx context.Context, familyID string, learnerIDs []string, from, to time.Time, minGapMinutes int) ([]models.Gap, error)
}

type needsBuilder interface {
	BuildNeeds(ctx context.Context, familyID string, learnerIDs []string, weekStart time.Time, horizonWeeks int, mode string) ([]Need, error)
}

type availabilityInvalidator interface {
	Invalidate(ctx context.Context, learnerIDs []string)
}

// PlanService owns the proposal lifecycle: drafting a plan from needs and
// gaps, then settling it to applied or partial through approvals.
type PlanService struct {
	plans       planStore
	commitments commitmentWriter
	gaps        gapFinder
	needs       needsBuilder
	learners    familyLearnerSource
	cache       availabilityInvalidator
	cfg         config.PlannerConfig
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewPlanService constructs the service.
func NewPlanService(plans planStore, commitments commitmentWriter, gaps gapFinder, needs needsBuilder, learners familyLearnerSource, cache availabilityInvalidator, cfg config.PlannerConfig, validate *validator.Validate, logger *zap.Logger) *PlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanService{
		plans:       plans,
		commitments: commitments,
		gaps:        gaps,
		needs:       needs,
		learners:    learners,
		cache:       cache,
		cfg:         cfg,
		validate:    validate,
		logger:      logger,
	}
}

// Propose builds a draft plan for the family's week. It either fully
// succeeds or fully fails; no partial proposal is ever stored.
func (s *PlanService) Propose(ctx context.Context, req dto.ProposePlanRequest) (*dto.ProposePlanResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	weekStart, err := time.ParseInLocation(dateLayout, req.WeekStart, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "weekStart must be YYYY-MM-DD")
	}

	horizon := req.HorizonWeeks
	if horizon <= 0 {
		horizon = s.cfg.DefaultHorizonWeeks
	}
	if horizon <= 0 {
		horizon = 1
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeRebalance
	}

	learnerIDs := req.LearnerIDs
	if len(learnerIDs) == 0 {
		learners, err := s.learners.ListByFamily(ctx, req.FamilyID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read learners")
		}
		for _, l := range learners {
			learnerIDs = append(learnerIDs, l.ID)
		}
	}
	if len(learnerIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "family has no learners to plan for")
	}

	needs, err := s.needs.BuildNeeds(ctx, req.FamilyID, learnerIDs, weekStart, horizon, mode)
	if err != nil {
		return nil, err
	}

	horizonEnd := weekStart.AddDate(0, 0, 7*horizon-1)
	gaps, err := s.gaps.FindGapsForLearners(ctx, req.FamilyID, learnerIDs, weekStart, horizonEnd, s.cfg.MinGapMinutes)
	if err != nil {
		return nil, err
	}

	sessions, unmet := packNeeds(needs, gaps, PackConstraints{
		MaxMinutesPerDay:   s.cfg.MaxMinutesPerDay,
		MaxMinutesPerBlock: s.cfg.MaxMinutesPerBlock,
		MinMinutesPerBlock: s.cfg.MinMinutesPerBlock,
	})

	scope, err := json.Marshal(models.PlanScope{
		LearnerIDs:   learnerIDs,
		Reason:       req.Reason,
		HorizonWeeks: horizon,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode plan scope")
	}

	plan := &models.Plan{
		FamilyID:  req.FamilyID,
		WeekStart: weekStart,
		Scope:     types.JSONText(scope),
		Status:    models.PlanStatusDraft,
	}

	changes := make([]models.ProposedChange, 0, len(sessions))
	views := make([]dto.ProposedChangeView, 0, len(sessions))
	minutesPlanned := 0
	for _, session := range sessions {
		payload := sessionPayload(session)
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode change payload")
		}
		changes = append(changes, models.ProposedChange{
			ChangeType:  models.ChangeTypeAdd,
			Payload:     types.JSONText(raw),
			SuggestedBy: "system",
		})
		minutesPlanned += session.Minutes
	}

	if err := s.plans.CreateWithChanges(ctx, plan, changes); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "store plan")
	}

	for i, change := range changes {
		views = append(views, dto.ProposedChangeView{
			ID:          change.ID,
			ChangeType:  change.ChangeType,
			Payload:     sessionPayload(sessions[i]),
			SuggestedBy: change.SuggestedBy,
		})
	}

	s.logger.Info("plan proposed",
		zap.String("plan_id", plan.ID),
		zap.String("family_id", req.FamilyID),
		zap.Int("changes", len(changes)),
		zap.Int("unmet_needs", len(unmet)),
	)

	return &dto.ProposePlanResponse{
		PlanID:    plan.ID,
		Status:    plan.Status,
		WeekStart: req.WeekStart,
		Changes:   views,
		Summary: dto.PlanSummary{
			Adds:           len(changes),
			MinutesPlanned: minutesPlanned,
			UnmetNeeds:     len(unmet),
		},
	}, nil
}

func sessionPayload(session PackedSession) models.ChangePayload {
	payload := models.ChangePayload{
		LearnerID:      session.Need.LearnerID,
		Title:          session.Need.Title,
		Start:          session.Start,
		End:            session.End,
		Minutes:        session.Minutes,
		IsFlexible:     session.Need.IsFlexible,
		BacklogID:      session.Need.BacklogID,
		DeficitMinutes: session.Need.Deficit,
	}
	if session.Need.SubjectID != "" {
		subjectID := session.Need.SubjectID
		payload.SubjectID = &subjectID
	}
	return payload
}

// ApproveAndApply materializes approval decisions for a draft plan. Each
// approved change is attempted independently; one failure never rolls back
// siblings. The plan settles to applied only when every submitted approval
// ended in an applied outcome, otherwise partial. Both states are terminal,
// so a second apply fails fast.
func (s *PlanService) ApproveAndApply(ctx context.Context, planID string, req dto.ApplyPlanRequest) (*dto.ApplyPlanResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "read plan")
	}
	if plan.Status != models.PlanStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrStateConflict, "plan is no longer a draft")
	}

	changes, err := s.plans.ListChanges(ctx, planID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "read plan changes")
	}
	changeByID := make(map[string]models.ProposedChange, len(changes))
	for _, change := range changes {
		changeByID[change.ID] = change
	}

	results := make([]models.ChangeResult, 0, len(req.Approvals))
	touched := make(map[string]struct{})

	for _, approval := range req.Approvals {
		result := s.applyOne(ctx, plan, changeByID, approval, touched)
		results = append(results, result)
	}

	status := models.PlanStatusPartial
	if len(results) > 0 {
		status = models.PlanStatusApplied
		for _, r := range results {
			if r.Status != models.ChangeOutcomeApplied {
				status = models.PlanStatusPartial
				break
			}
		}
	}

	var appliedAt *time.Time
	if status == models.PlanStatusApplied {
		now := time.Now().UTC()
		appliedAt = &now
	}
	transitioned, err := s.plans.UpdateStatus(ctx, planID, status, appliedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "settle plan status")
	}
	if !transitioned {
		// Another apply won the transition while this one was writing.
		s.logger.Warn("plan status transition lost", zap.String("plan_id", planID))
	}

	if len(touched) > 0 && s.cache != nil {
		learnerIDs := make([]string, 0, len(touched))
		for id := range touched {
			learnerIDs = append(learnerIDs, id)
		}
		s.cache.Invalidate(ctx, learnerIDs)
	}

	s.logger.Info("plan applied",
		zap.String("plan_id", planID),
		zap.String("status", string(status)),
		zap.Int("results", len(results)),
	)

	return &dto.ApplyPlanResponse{PlanID: planID, Status: status, Results: results}, nil
}

func (s *PlanService) applyOne(ctx context.Context, plan *models.Plan, changeByID map[string]models.ProposedChange, approval dto.ChangeApproval, touched map[string]struct{}) models.ChangeResult {
	result := models.ChangeResult{ChangeID: approval.ChangeID}

	change, ok := changeByID[approval.ChangeID]
	if !ok {
		result.Status = models.ChangeOutcomeError
		result.Error = "change does not belong to this plan"
		return result
	}

	if !approval.Approved {
		if err := s.plans.UpdateChangeApproval(ctx, change.ID, false, nil); err != nil {
			s.logger.Warn("record rejection failed", zap.String("change_id", change.ID), zap.Error(err))
		}
		result.Status = models.ChangeOutcomeSkipped
		return result
	}

	payload, err := change.DecodePayload()
	if err != nil {
		result.Status = models.ChangeOutcomeError
		result.Error = "undecodable change payload"
		return result
	}
	applyEdits(&payload, approval.Edits)
	// Delete payloads carry no window.
	if change.ChangeType != models.ChangeTypeDelete && !payload.End.After(payload.Start) {
		result.Status = models.ChangeOutcomeError
		result.Error = "edited window must end after it starts"
		return result
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		result.Status = models.ChangeOutcomeError
		result.Error = "encode edited payload"
		return result
	}
	if err := s.plans.UpdateChangeApproval(ctx, change.ID, true, raw); err != nil {
		result.Status = models.ChangeOutcomeError
		result.Error = err.Error()
		return result
	}

	var commitmentID *string
	switch change.ChangeType {
	case models.ChangeTypeAdd:
		commitment := s.buildCommitment(plan, payload)
		if err := s.commitments.Create(ctx, commitment); err != nil {
			result.Status = models.ChangeOutcomeError
			result.Error = err.Error()
			return result
		}
		commitmentID = &commitment.ID

	case models.ChangeTypeMove:
		if change.CommitmentID == nil {
			result.Status = models.ChangeOutcomeError
			result.Error = "move change has no commitment reference"
			return result
		}
		if _, err := s.commitments.FindByID(ctx, *change.CommitmentID); err != nil {
			result.Status = models.ChangeOutcomeError
			if errors.Is(err, sql.ErrNoRows) {
				result.Error = "commitment not found"
			} else {
				result.Error = err.Error()
			}
			return result
		}
		if err := s.commitments.UpdateWindow(ctx, *change.CommitmentID, payload.Start, payload.End); err != nil {
			result.Status = models.ChangeOutcomeError
			result.Error = err.Error()
			return result
		}
		commitmentID = change.CommitmentID

	case models.ChangeTypeDelete:
		if change.CommitmentID == nil {
			result.Status = models.ChangeOutcomeError
			result.Error = "delete change has no commitment reference"
			return result
		}
		if err := s.commitments.Cancel(ctx, *change.CommitmentID); err != nil {
			result.Status = models.ChangeOutcomeError
			result.Error = err.Error()
			return result
		}
		commitmentID = change.CommitmentID

	default:
		result.Status = models.ChangeOutcomeError
		result.Error = "unknown change type"
		return result
	}

	if err := s.plans.MarkChangeApplied(ctx, change.ID, commitmentID, time.Now().UTC()); err != nil {
		s.logger.Warn("mark change applied failed", zap.String("change_id", change.ID), zap.Error(err))
	}

	touched[payload.LearnerID] = struct{}{}
	result.Status = models.ChangeOutcomeApplied
	result.CommitmentID = commitmentID
	return result
}

func applyEdits(payload *models.ChangePayload, edits *dto.ChangeEdits) {
	if edits == nil {
		return
	}
	if edits.Start != nil {
		payload.Start = *edits.Start
	}
	if edits.End != nil {
		payload.End = *edits.End
	}
	if edits.Minutes != nil {
		payload.Minutes = *edits.Minutes
		payload.End = payload.Start.Add(time.Duration(*edits.Minutes) * time.Minute)
	} else if payload.End.After(payload.Start) {
		payload.Minutes = int(payload.End.Sub(payload.Start) / time.Minute)
	}
}

func (s *PlanService) buildCommitment(plan *models.Plan, payload models.ChangePayload) *models.Commitment {
	title := payload.Title
	if title == "" {
		title = "Study session"
	}
	source := "plan:" + plan.ID
	if payload.BacklogID != nil {
		source = "backlog:" + *payload.BacklogID
	}
	return &models.Commitment{
		FamilyID:         plan.FamilyID,
		LearnerID:        payload.LearnerID,
		SubjectID:        payload.SubjectID,
		Title:            title,
		Start:            payload.Start,
		End:              payload.End,
		Status:           models.CommitmentStatusScheduled,
		IsFlexible:       payload.IsFlexible,
		EstimatedMinutes: payload.Minutes,
		Source:           source,
	}
}
