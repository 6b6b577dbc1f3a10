package dto

// CreateBlackoutRequest declares a no-schedule period for a learner or the
// whole family.
type CreateBlackoutRequest struct {
	FamilyID  string  `json:"familyId" validate:"required"`
	LearnerID *string `json:"learnerId,omitempty"`
	StartsOn  string  `json:"startsOn" validate:"required,datetime=2006-01-02"`
	EndsOn    string  `json:"endsOn" validate:"required,datetime=2006-01-02"`
	Reason    string  `json:"reason"`
}
