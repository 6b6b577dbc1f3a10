package models

import "time"

// BlackoutPeriod blocks scheduling for a learner or, when LearnerID is nil,
// the whole family across an inclusive date range.
type BlackoutPeriod struct {
	ID        string    `db:"id" json:"id"`
	FamilyID  string    `db:"family_id" json:"family_id"`
	LearnerID *string   `db:"learner_id" json:"learner_id,omitempty"`
	StartsOn  time.Time `db:"starts_on" json:"starts_on"`
	EndsOn    time.Time `db:"ends_on" json:"ends_on"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Covers reports whether the blackout applies to the given learner on the
// given date. A nil LearnerID scopes the blackout to the entire family.
func (b BlackoutPeriod) Covers(learnerID string, date time.Time) bool {
	if b.LearnerID != nil && *b.LearnerID != learnerID {
		return false
	}
	return !date.Before(b.StartsOn) && !date.After(b.EndsOn)
}
