package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// PlanStatus is the lifecycle state of a proposal batch.
// A plan is created in draft and settles to applied only when every approved
// change materialized cleanly; any skip or error forces partial. Both applied
// and partial are terminal.
type PlanStatus string

const (
	PlanStatusDraft   PlanStatus = "draft"
	PlanStatusApplied PlanStatus = "applied"
	PlanStatusPartial PlanStatus = "partial"
)

// ChangeType classifies a proposed schedule change.
type ChangeType string

const (
	ChangeTypeAdd    ChangeType = "add"
	ChangeTypeMove   ChangeType = "move"
	ChangeTypeDelete ChangeType = "delete"
)

// ChangeOutcome is the per-change result of an apply attempt.
type ChangeOutcome string

const (
	ChangeOutcomeApplied ChangeOutcome = "applied"
	ChangeOutcomeSkipped ChangeOutcome = "skipped"
	ChangeOutcomeError   ChangeOutcome = "error"
)

// Plan owns a batch of proposed schedule changes for one planning run.
type Plan struct {
	ID        string         `db:"id" json:"id"`
	FamilyID  string         `db:"family_id" json:"family_id"`
	WeekStart time.Time      `db:"week_start" json:"week_start"`
	Scope     types.JSONText `db:"scope" json:"scope"`
	Status    PlanStatus     `db:"status" json:"status"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	AppliedAt *time.Time     `db:"applied_at" json:"applied_at,omitempty"`
}

// PlanScope is the decoded Scope payload.
type PlanScope struct {
	LearnerIDs   []string `json:"learner_ids"`
	Reason       string   `json:"reason"`
	HorizonWeeks int      `json:"horizon_weeks"`
}

// ProposedChange is one atomic schedule change inside a plan.
// CommitmentID references an existing commitment for move/delete changes.
type ProposedChange struct {
	ID           string         `db:"id" json:"id"`
	PlanID       string         `db:"plan_id" json:"plan_id"`
	ChangeType   ChangeType     `db:"change_type" json:"change_type"`
	CommitmentID *string        `db:"commitment_id" json:"commitment_id,omitempty"`
	Payload      types.JSONText `db:"payload" json:"payload"`
	SuggestedBy  string         `db:"suggested_by" json:"suggested_by"`
	Approved     bool           `db:"approved" json:"approved"`
	Applied      bool           `db:"applied" json:"applied"`
	AppliedAt    *time.Time     `db:"applied_at" json:"applied_at,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// ChangePayload is the decoded Payload of a proposed change. For add changes
// Start/End describe the new session window; for move changes they describe
// the target window of the referenced commitment.
type ChangePayload struct {
	LearnerID      string    `json:"learner_id"`
	SubjectID      *string   `json:"subject_id,omitempty"`
	Title          string    `json:"title,omitempty"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Minutes        int       `json:"minutes,omitempty"`
	IsFlexible     bool      `json:"is_flexible,omitempty"`
	BacklogID      *string   `json:"backlog_id,omitempty"`
	DeficitMinutes int       `json:"deficit_minutes,omitempty"`
}

// DecodePayload unmarshals the raw payload.
func (c ProposedChange) DecodePayload() (ChangePayload, error) {
	var payload ChangePayload
	err := json.Unmarshal(c.Payload, &payload)
	return payload, err
}

// ChangeResult is the outcome of one apply attempt, reported per change.
type ChangeResult struct {
	ChangeID     string        `json:"change_id"`
	Status       ChangeOutcome `json:"status"`
	CommitmentID *string       `json:"commitment_id,omitempty"`
	Error        string        `json:"error,omitempty"`
}
