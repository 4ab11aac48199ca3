package models

import "time"

// Grade stores the six mark components for one student on one course.
// The (student_id, course_id) pair is unique; saving again overwrites.
// Components are independently nullable: an absent value is null, not zero.
type Grade struct {
	ID                string    `db:"id" json:"id"`
	StudentID         string    `db:"student_id" json:"student_id"`
	CourseID          string    `db:"course_id" json:"course_id"`
	Quizzes           *float64  `db:"quizzes" json:"quizzes"`
	Projects          *float64  `db:"projects" json:"projects"`
	OnlineAssignments *float64  `db:"online_assignments" json:"online_assignments"`
	OnsiteAssignments *float64  `db:"onsite_assignments" json:"onsite_assignments"`
	MidtermPractical  *float64  `db:"midterm_practical" json:"midterm_practical"`
	FinalExam         *float64  `db:"final_exam" json:"final_exam"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Coursework sums the five 10-point components treating nulls as zero.
func (g *Grade) Coursework() float64 {
	total := 0.0
	for _, v := range []*float64{g.Quizzes, g.Projects, g.OnlineAssignments, g.OnsiteAssignments, g.MidtermPractical} {
		if v != nil {
			total += *v
		}
	}
	return total
}

// Total returns coursework plus the final exam, nulls as zero.
func (g *Grade) Total() float64 {
	total := g.Coursework()
	if g.FinalExam != nil {
		total += *g.FinalExam
	}
	return total
}

// GradeComponents carries the six mark values inside ledger responses.
type GradeComponents struct {
	Quizzes           *float64 `json:"quizzes"`
	Projects          *float64 `json:"projects"`
	OnlineAssignments *float64 `json:"online_assignments"`
	OnsiteAssignments *float64 `json:"onsite_assignments"`
	MidtermPractical  *float64 `json:"midterm_practical"`
	FinalExam         *float64 `json:"final_exam"`
}

// GradeEntry is one student's marks inside a bulk save request. Component
// values are capped at 10 and the final exam at 50.
type GradeEntry struct {
	StudentID         string   `json:"student_id" validate:"required,uuid4"`
	Quizzes           *float64 `json:"quizzes" validate:"omitempty,gte=0,lte=10"`
	Projects          *float64 `json:"projects" validate:"omitempty,gte=0,lte=10"`
	OnlineAssignments *float64 `json:"online_assignments" validate:"omitempty,gte=0,lte=10"`
	OnsiteAssignments *float64 `json:"onsite_assignments" validate:"omitempty,gte=0,lte=10"`
	MidtermPractical  *float64 `json:"midterm_practical" validate:"omitempty,gte=0,lte=10"`
	FinalExam         *float64 `json:"final_exam" validate:"omitempty,gte=0,lte=50"`
}

// SaveGradesRequest carries a bulk grade write for one course. Every entry is
// validated before anything is written.
type SaveGradesRequest struct {
	CourseID string       `json:"course_id" validate:"required,uuid4"`
	Grades   []GradeEntry `json:"grades" validate:"required,min=1,dive"`
}

// GradeLedgerRow is one roster line: a student of the requested stage joined
// with their grade for the course, if graded. Coursework and Total are
// recomputed on every read and never persisted.
type GradeLedgerRow struct {
	StudentID   string           `json:"student_id"`
	StudentName string           `json:"student_name"`
	StudentCode string           `json:"student_code"`
	Grades      *GradeComponents `json:"grades"`
	Coursework  *float64         `json:"coursework"`
	Total       *float64         `json:"total"`
}
