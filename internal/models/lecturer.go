package models

import "time"

// Lecturer represents a teaching staff member. Lecturers authenticate with
// the same token mechanism as admin users but carry the LECTURER role.
type Lecturer struct {
	ID            string    `db:"id" json:"id"`
	FullName      string    `db:"full_name" json:"full_name"`
	Username      string    `db:"username" json:"username"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	Code          string    `db:"code" json:"code"`
	ImagePath     *string   `db:"image_path" json:"image_path,omitempty"`
	Certificate   *string   `db:"certificate" json:"certificate,omitempty"`
	AcademicTitle *string   `db:"academic_title" json:"academic_title,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// LecturerAssignments holds the four teaching-scope id sets. Each set is
// synced wholesale on save.
type LecturerAssignments struct {
	StageIDs     []string `json:"stage_ids"`
	CourseIDs    []string `json:"course_ids"`
	GroupIDs     []string `json:"group_ids"`
	StudyTypeIDs []string `json:"study_type_ids"`
}

// LecturerDetail expands a lecturer with assignment sets.
type LecturerDetail struct {
	Lecturer
	Assignments LecturerAssignments `json:"assignments"`
}

// SaveLecturerRequest carries a lecturer create or update payload. Password
// is required on create and optional on update.
type SaveLecturerRequest struct {
	FullName      string              `json:"full_name" validate:"required,min=2,max=150"`
	Username      string              `json:"username" validate:"required,min=3,max=50"`
	Password      string              `json:"password" validate:"omitempty,min=8"`
	Code          string              `json:"code" validate:"required,min=1,max=30"`
	Certificate   *string             `json:"certificate" validate:"omitempty,max=150"`
	AcademicTitle *string             `json:"academic_title" validate:"omitempty,max=150"`
	Assignments   LecturerAssignments `json:"assignments"`
}
