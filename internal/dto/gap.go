package dto

import "github.com/nestlearn/planner-api/internal/models"

// GapsQuery bounds the free-time report for one learner.
type GapsQuery struct {
	From string `form:"from" validate:"required,datetime=2006-01-02"`
	To   string `form:"to" validate:"required,datetime=2006-01-02"`
}

// GapsResponse lists a learner's free intervals in the window.
type GapsResponse struct {
	LearnerID    string       `json:"learnerId"`
	From         string       `json:"from"`
	To           string       `json:"to"`
	Gaps         []models.Gap `json:"gaps"`
	TotalMinutes int          `json:"totalMinutes"`
}
