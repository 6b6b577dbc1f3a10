package dto

import "time"

// SuggestionsQuery filters conflict suggestions for a commitment.
type SuggestionsQuery struct {
	Reason string `form:"reason" validate:"omitempty,oneof=sick weather family_emergency travel other"`
}

// SlotSuggestion is one candidate replacement window.
type SlotSuggestion struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Minutes int       `json:"minutes"`
}

// DayAlternatives groups candidate slots on a later date.
type DayAlternatives struct {
	Date  string           `json:"date"`
	Slots []SlotSuggestion `json:"slots"`
}

// SuggestionsResponse returns reschedule options for a conflicted commitment.
type SuggestionsResponse struct {
	CommitmentID    string            `json:"commitmentId"`
	Reason          string            `json:"reason"`
	SameDay         []SlotSuggestion  `json:"sameDay"`
	AlternativeDays []DayAlternatives `json:"alternativeDays"`
	Recommendations []string          `json:"recommendations"`
}
