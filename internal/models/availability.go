package models

import "time"

// DayStatus is the resolved teaching status for a learner's calendar day.
// Resolution of schedule rules and overrides into a day status happens
// upstream; this service only consumes the result.
type DayStatus string

const (
	DayStatusOff     DayStatus = "off"
	DayStatusTeach   DayStatus = "teach"
	DayStatusPartial DayStatus = "partial"
)

// TimeWindow is a half-open [Start, End) interval.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AvailabilityDay is the resolved availability for one learner on one date.
type AvailabilityDay struct {
	LearnerID string       `db:"learner_id" json:"learner_id"`
	Date      time.Time    `db:"date" json:"date"`
	Status    DayStatus    `db:"day_status" json:"day_status"`
	Blocks    []TimeWindow `json:"blocks"`
}

// Teachable reports whether the day can contribute free time at all.
// Status is authoritative: an off day never teaches, even with blocks present.
func (d AvailabilityDay) Teachable() bool {
	return d.Status == DayStatusTeach || d.Status == DayStatusPartial
}

// Gap is a contiguous free interval on a date, derived per planning request
// and never persisted.
type Gap struct {
	LearnerID        string    `json:"learner_id"`
	Date             time.Time `json:"date"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	AvailableMinutes int       `json:"available_minutes"`
}
