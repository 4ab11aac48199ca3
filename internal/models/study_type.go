package models

import "time"

// StudyType represents a study track such as morning or evening classes.
type StudyType struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SaveStudyTypeRequest carries a study type create or update payload.
type SaveStudyTypeRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}
