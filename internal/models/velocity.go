package models

import "time"

// Velocity bounds. The multiplier dampens targets but never eliminates or
// more than 1.5x-es them, so a learner can never be scheduled to zero or
// buried under a runaway backlog.
const (
	VelocityFloor   = 0.6
	VelocityCeiling = 1.5
)

// VelocityRecord is the adaptive pace multiplier for a learner/subject pair.
// It is the only durable state the planning engine owns.
type VelocityRecord struct {
	ID          string    `db:"id" json:"id"`
	FamilyID    string    `db:"family_id" json:"family_id"`
	LearnerID   string    `db:"learner_id" json:"learner_id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	Velocity    float64   `db:"velocity" json:"velocity"`
	LastUpdated time.Time `db:"last_updated" json:"last_updated"`
}

// SubjectMinutes aggregates effort minutes for a learner/subject pair over
// a query window.
type SubjectMinutes struct {
	LearnerID string `db:"learner_id" json:"learner_id"`
	SubjectID string `db:"subject_id" json:"subject_id"`
	Minutes   int    `db:"minutes" json:"minutes"`
}

// ClampVelocity bounds a raw velocity into the allowed range.
func ClampVelocity(v float64) float64 {
	if v < VelocityFloor {
		return VelocityFloor
	}
	if v > VelocityCeiling {
		return VelocityCeiling
	}
	return v
}
