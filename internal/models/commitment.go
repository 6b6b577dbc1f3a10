package models

import "time"

// CommitmentStatus is the lifecycle state of a scheduled learning activity.
type CommitmentStatus string

const (
	CommitmentStatusScheduled  CommitmentStatus = "scheduled"
	CommitmentStatusInProgress CommitmentStatus = "in_progress"
	CommitmentStatusDone       CommitmentStatus = "done"
	CommitmentStatusCanceled   CommitmentStatus = "canceled"
)

// Commitment is an existing scheduled activity on a learner's calendar.
type Commitment struct {
	ID               string           `db:"id" json:"id"`
	FamilyID         string           `db:"family_id" json:"family_id"`
	LearnerID        string           `db:"learner_id" json:"learner_id"`
	SubjectID        *string          `db:"subject_id" json:"subject_id,omitempty"`
	Title            string           `db:"title" json:"title"`
	Start            time.Time        `db:"start_ts" json:"start_ts"`
	End              time.Time        `db:"end_ts" json:"end_ts"`
	Status           CommitmentStatus `db:"status" json:"status"`
	IsFlexible       bool             `db:"is_flexible" json:"is_flexible"`
	EstimatedMinutes int              `db:"estimated_minutes" json:"estimated_minutes"`
	Source           string           `db:"source" json:"source"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// OccupiesTime reports whether the commitment blocks calendar time.
// Canceled commitments free their window.
func (c Commitment) OccupiesTime() bool {
	switch c.Status {
	case CommitmentStatusScheduled, CommitmentStatusInProgress, CommitmentStatusDone:
		return true
	default:
		return false
	}
}

// DurationMinutes returns the commitment length in whole minutes.
func (c Commitment) DurationMinutes() int {
	if !c.End.After(c.Start) {
		return 0
	}
	return int(c.End.Sub(c.Start) / time.Minute)
}
