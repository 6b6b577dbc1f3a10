package models

import "time"

// CurriculumTarget sets the expected weekly minutes for a learner/subject
// pair over an active date range.
type CurriculumTarget struct {
	ID                    string     `db:"id" json:"id"`
	FamilyID              string     `db:"family_id" json:"family_id"`
	LearnerID             string     `db:"learner_id" json:"learner_id"`
	SubjectID             string     `db:"subject_id" json:"subject_id"`
	ExpectedWeeklyMinutes int        `db:"expected_weekly_minutes" json:"expected_weekly_minutes"`
	StartDate             time.Time  `db:"start_date" json:"start_date"`
	EndDate               *time.Time `db:"end_date" json:"end_date,omitempty"`
}

// ActiveOn reports whether the target applies to the week beginning at the
// given date.
func (t CurriculumTarget) ActiveOn(weekStart time.Time) bool {
	if weekStart.Before(t.StartDate) {
		return false
	}
	return t.EndDate == nil || !weekStart.After(*t.EndDate)
}

// BacklogItem is an ad-hoc flexible task not tied to a recurring target,
// optionally carrying a hard due timestamp.
type BacklogItem struct {
	ID               string     `db:"id" json:"id"`
	FamilyID         string     `db:"family_id" json:"family_id"`
	LearnerID        *string    `db:"learner_id" json:"learner_id,omitempty"`
	SubjectID        *string    `db:"subject_id" json:"subject_id,omitempty"`
	Title            string     `db:"title" json:"title"`
	EstimatedMinutes int        `db:"estimated_minutes" json:"estimated_minutes"`
	DueTS            *time.Time `db:"due_ts" json:"due_ts,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}
