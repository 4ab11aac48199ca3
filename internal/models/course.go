package models

import "time"

// CourseType distinguishes how a course is taught.
type CourseType string

const (
	CourseTheory    CourseType = "theory"
	CoursePractical CourseType = "practical"
	CourseBoth      CourseType = "both"
)

// Course represents a taught subject owned by a stage. A nil semester means
// the course is yearly and spans both terms.
type Course struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Code      string     `db:"code" json:"code"`
	StageID   string     `db:"stage_id" json:"stage_id"`
	Type      CourseType `db:"type" json:"type"`
	Semester  *int       `db:"semester" json:"semester"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// CourseDetail expands a course with its stage name.
type CourseDetail struct {
	Course
	StageName string `db:"stage_name" json:"stage_name"`
}

// SaveCourseRequest carries a course create or update payload. A nil
// semester marks the course yearly.
type SaveCourseRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Code     string `json:"code" validate:"required,min=1,max=20"`
	StageID  string `json:"stage_id" validate:"required,uuid4"`
	Type     string `json:"type" validate:"required,oneof=theory practical both"`
	Semester *int   `json:"semester" validate:"omitempty,oneof=1 2"`
}

// CourseFilter encapsulates list/export filters.
type CourseFilter struct {
	StageID  string
	Semester string // "1", "2" or "yearly"
	Search   string
	// LecturerID scopes results to courses assigned to the lecturer.
	LecturerID string
}
