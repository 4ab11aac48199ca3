package models

import "time"

// ScheduleType distinguishes lecture kinds on the weekly timetable.
type ScheduleType string

const (
	ScheduleTheory    ScheduleType = "theory"
	SchedulePractical ScheduleType = "practical"
)

// Weekdays lists the accepted day values for schedule entries.
var Weekdays = map[string]struct{}{
	"sunday":    {},
	"monday":    {},
	"tuesday":   {},
	"wednesday": {},
	"thursday":  {},
	"friday":    {},
	"saturday":  {},
}

// Schedule is one weekly timetable slot. Times are stored as "HH:MM" and
// end must be strictly after start.
type Schedule struct {
	ID         string       `db:"id" json:"id"`
	StageID    string       `db:"stage_id" json:"stage_id"`
	GroupID    string       `db:"group_id" json:"group_id"`
	CourseID   string       `db:"course_id" json:"course_id"`
	LecturerID string       `db:"lecturer_id" json:"lecturer_id"`
	Day        string       `db:"day" json:"day"`
	StartTime  string       `db:"start_time" json:"start_time"`
	EndTime    string       `db:"end_time" json:"end_time"`
	Type       ScheduleType `db:"type" json:"type"`
	Room       *string      `db:"room" json:"room,omitempty"`
	Location   *string      `db:"location" json:"location,omitempty"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// ScheduleDetail expands a slot with display names for presentation.
type ScheduleDetail struct {
	Schedule
	CourseName   string `db:"course_name" json:"course_name"`
	LecturerName string `db:"lecturer_name" json:"lecturer_name"`
	StageName    string `db:"stage_name" json:"stage_name"`
	GroupSymbol  string `db:"group_symbol" json:"group_symbol"`
}

// SaveScheduleRequest carries a timetable slot create or update payload.
type SaveScheduleRequest struct {
	StageID    string  `json:"stage_id" validate:"required,uuid4"`
	GroupID    string  `json:"group_id" validate:"required,uuid4"`
	CourseID   string  `json:"course_id" validate:"required,uuid4"`
	LecturerID string  `json:"lecturer_id" validate:"required,uuid4"`
	Day        string  `json:"day" validate:"required"`
	StartTime  string  `json:"start_time" validate:"required"`
	EndTime    string  `json:"end_time" validate:"required"`
	Type       string  `json:"type" validate:"required,oneof=theory practical"`
	Room       *string `json:"room" validate:"omitempty,max=50"`
	Location   *string `json:"location" validate:"omitempty,max=100"`
}

// ScheduleFilter narrows timetable listings.
type ScheduleFilter struct {
	StageID string
	GroupID string
}
