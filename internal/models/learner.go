package models

import "time"

// Learner is a child enrolled in the family's home learning program.
type Learner struct {
	ID        string    `db:"id" json:"id"`
	FamilyID  string    `db:"family_id" json:"family_id"`
	Name      string    `db:"name" json:"name"`
	Grade     *string   `db:"grade" json:"grade,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Subject is a learning area commitments and targets attach to.
type Subject struct {
	ID       string `db:"id" json:"id"`
	FamilyID string `db:"family_id" json:"family_id"`
	Name     string `db:"name" json:"name"`
}
