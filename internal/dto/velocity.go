package dto

// RecomputeVelocityRequest triggers a pace update for one learner/subject
// pair, or for the whole family when LearnerID and SubjectID are empty.
type RecomputeVelocityRequest struct {
	FamilyID   string `json:"familyId" validate:"required"`
	LearnerID  string `json:"learnerId" validate:"required_with=SubjectID"`
	SubjectID  string `json:"subjectId" validate:"required_with=LearnerID"`
	SinceWeeks int    `json:"sinceWeeks" validate:"omitempty,min=1,max=52"`
	Async      bool   `json:"async"`
}

// VelocityUpdate is one recomputed pace multiplier.
type VelocityUpdate struct {
	LearnerID       string  `json:"learnerId"`
	SubjectID       string  `json:"subjectId"`
	OldVelocity     float64 `json:"oldVelocity"`
	Velocity        float64 `json:"velocity"`
	CompletionRatio float64 `json:"completionRatio"`
	DoneMinutes     int     `json:"doneMinutes"`
	ExpectedMinutes int     `json:"expectedMinutes"`
}

// RecomputeVelocityResponse returns the updates, or an acknowledgement when
// the recompute ran asynchronously.
type RecomputeVelocityResponse struct {
	Updates  []VelocityUpdate `json:"updates,omitempty"`
	Enqueued bool             `json:"enqueued,omitempty"`
}
