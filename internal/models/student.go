package models

import "time"

// Gender values accepted on student records.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Student represents a learner registered in the institution.
// Gender is nullable: the import normalizer stores null for anything it
// cannot map onto the two canonical values.
type Student struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	FullName    string    `db:"full_name" json:"full_name"`
	Gender      *string   `db:"gender" json:"gender"`
	PhoneNumber *string   `db:"phone_number" json:"phone_number,omitempty"`
	Address     *string   `db:"address" json:"address,omitempty"`
	ImagePath   *string   `db:"image_path" json:"image_path,omitempty"`
	StageID     string    `db:"stage_id" json:"stage_id"`
	StudyTypeID string    `db:"study_type_id" json:"study_type_id"`
	GroupID     *string   `db:"group_id" json:"group_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail expands a student with related display names.
type StudentDetail struct {
	Student
	StageName     string  `db:"stage_name" json:"stage_name"`
	StudyTypeName string  `db:"study_type_name" json:"study_type_name"`
	GroupSymbol   *string `db:"group_symbol" json:"group_symbol,omitempty"`
}

// SaveStudentRequest carries a student create or update payload. The image
// file travels alongside as multipart and is handled by the service.
type SaveStudentRequest struct {
	Code        string  `json:"code" validate:"required,min=1,max=30"`
	FullName    string  `json:"full_name" validate:"required,min=2,max=150"`
	Gender      *string `json:"gender" validate:"omitempty,oneof=male female"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=30"`
	Address     *string `json:"address" validate:"omitempty,max=255"`
	StageID     string  `json:"stage_id" validate:"required,uuid4"`
	StudyTypeID string  `json:"study_type_id" validate:"required,uuid4"`
	GroupID     *string `json:"group_id" validate:"omitempty,uuid4"`
}

// ImportSummary reports the outcome of a spreadsheet import. Rows are
// processed best effort; a bad row is counted, not fatal.
type ImportSummary struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search      string
	StageID     string
	StudyTypeID string
	GroupID     string
	Page        int
	PageSize    int
}
