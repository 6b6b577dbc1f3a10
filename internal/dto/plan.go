package dto

import (
	"time"

	"github.com/nestlearn/planner-api/internal/models"
)

// ProposePlanRequest asks the engine to draft a schedule proposal.
type ProposePlanRequest struct {
	FamilyID     string   `json:"familyId" validate:"required"`
	WeekStart    string   `json:"weekStart" validate:"required,datetime=2006-01-02"`
	LearnerIDs   []string `json:"learnerIds" validate:"omitempty,dive,required"`
	HorizonWeeks int      `json:"horizonWeeks" validate:"omitempty,min=1,max=8"`
	Mode         string   `json:"mode" validate:"omitempty,oneof=rebalance pack_week what_if"`
	Reason       string   `json:"reason"`
}

// PlanSummary aggregates a drafted plan's contents.
type PlanSummary struct {
	Adds           int `json:"adds"`
	Moves          int `json:"moves"`
	Deletes        int `json:"deletes"`
	MinutesPlanned int `json:"minutesPlanned"`
	UnmetNeeds     int `json:"unmetNeeds"`
}

// ProposedChangeView is a decoded change as returned to clients.
type ProposedChangeView struct {
	ID           string               `json:"id"`
	ChangeType   models.ChangeType    `json:"changeType"`
	CommitmentID *string              `json:"commitmentId,omitempty"`
	Payload      models.ChangePayload `json:"payload"`
	SuggestedBy  string               `json:"suggestedBy"`
	Approved     bool                 `json:"approved"`
	Applied      bool                 `json:"applied"`
}

// ProposePlanResponse returns the drafted plan.
type ProposePlanResponse struct {
	PlanID    string               `json:"planId"`
	Status    models.PlanStatus    `json:"status"`
	WeekStart string               `json:"weekStart"`
	Changes   []ProposedChangeView `json:"changes"`
	Summary   PlanSummary          `json:"summary"`
}

// ChangeEdits carries parent adjustments applied with an approval.
type ChangeEdits struct {
	Start   *time.Time `json:"start,omitempty"`
	End     *time.Time `json:"end,omitempty"`
	Minutes *int       `json:"minutes,omitempty" validate:"omitempty,min=1"`
}

// ChangeApproval is one approval decision inside an apply request.
type ChangeApproval struct {
	ChangeID string       `json:"changeId" validate:"required"`
	Approved bool         `json:"approved"`
	Edits    *ChangeEdits `json:"edits,omitempty"`
}

// ApplyPlanRequest submits approval decisions for a draft plan.
type ApplyPlanRequest struct {
	Approvals []ChangeApproval `json:"approvals" validate:"omitempty,dive"`
}

// ApplyPlanResponse reports the per-change outcomes and final plan status.
type ApplyPlanResponse struct {
	PlanID  string                `json:"planId"`
	Status  models.PlanStatus     `json:"status"`
	Results []models.ChangeResult `json:"results"`
}

// PlanExportQuery selects the export format.
type PlanExportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
