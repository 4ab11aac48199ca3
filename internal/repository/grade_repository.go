package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alrafidain/college-records-api/internal/models"
)

// GradeRepository handles grade ledger persistence.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

type ledgerRow struct {
	StudentID         string   `db:"student_id"`
	StudentName       string   `db:"student_name"`
	StudentCode       string   `db:"student_code"`
	GradeID           *string  `db:"grade_id"`
	Quizzes           *float64 `db:"quizzes"`
	Projects          *float64 `db:"projects"`
	OnlineAssignments *float64 `db:"online_assignments"`
	OnsiteAssignments *float64 `db:"onsite_assignments"`
	MidtermPractical  *float64 `db:"midterm_practical"`
	FinalExam         *float64 `db:"final_exam"`
}

// ListLedger returns every student of the stage (and group, when given)
// left-joined with their grade for the course, ordered by full name. Students
// without a grade row come back with nil components.
func (r *GradeRepository) ListLedger(ctx context.Context, courseID, stageID, groupID string) ([]models.GradeLedgerRow, error) {
	query := `SELECT s.id AS student_id, s.full_name AS student_name, s.code AS student_code,
        g.id AS grade_id, g.quizzes, g.projects, g.online_assignments, g.onsite_assignments, g.midterm_practical, g.final_exam
        FROM students s
        LEFT JOIN grades g ON g.student_id = s.id AND g.course_id = $1
        WHERE s.stage_id = $2 AND s.deleted_at IS NULL`
	args := []interface{}{courseID, stageID}
	if groupID != "" {
		query += fmt.Sprintf(" AND s.group_id = $%d", len(args)+1)
		args = append(args, groupID)
	}
	query += " ORDER BY s.full_name"

	var scanned []ledgerRow
	if err := r.db.SelectContext(ctx, &scanned, query, args...); err != nil {
		return nil, fmt.Errorf("list grade ledger: %w", err)
	}

	rows := make([]models.GradeLedgerRow, 0, len(scanned))
	for _, row := range scanned {
		out := models.GradeLedgerRow{
			StudentID:   row.StudentID,
			StudentName: row.StudentName,
			StudentCode: row.StudentCode,
		}
		if row.GradeID != nil {
			grade := models.Grade{
				Quizzes:           row.Quizzes,
				Projects:          row.Projects,
				OnlineAssignments: row.OnlineAssignments,
				OnsiteAssignments: row.OnsiteAssignments,
				MidtermPractical:  row.MidtermPractical,
				FinalExam:         row.FinalExam,
			}
			coursework := grade.Coursework()
			total := grade.Total()
			out.Grades = &models.GradeComponents{
				Quizzes:           grade.Quizzes,
				Projects:          grade.Projects,
				OnlineAssignments: grade.OnlineAssignments,
				OnsiteAssignments: grade.OnsiteAssignments,
				MidtermPractical:  grade.MidtermPractical,
				FinalExam:         grade.FinalExam,
			}
			out.Coursework = &coursework
			out.Total = &total
		}
		rows = append(rows, out)
	}
	return rows, nil
}

// BulkUpsert writes every grade inside one transaction keyed on the unique
// (student_id, course_id) pair: either the whole batch lands or none does.
func (r *GradeRepository) BulkUpsert(ctx context.Context, grades []models.Grade) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `INSERT INTO grades (id, student_id, course_id, quizzes, projects, online_assignments, onsite_assignments, midterm_practical, final_exam, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :quizzes, :projects, :online_assignments, :onsite_assignments, :midterm_practical, :final_exam, :created_at, :updated_at)
        ON CONFLICT (student_id, course_id)
        DO UPDATE SET quizzes = EXCLUDED.quizzes, projects = EXCLUDED.projects, online_assignments = EXCLUDED.online_assignments,
            onsite_assignments = EXCLUDED.onsite_assignments, midterm_practical = EXCLUDED.midterm_practical,
            final_exam = EXCLUDED.final_exam, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range grades {
		if grades[i].ID == "" {
			grades[i].ID = uuid.NewString()
		}
		if grades[i].CreatedAt.IsZero() {
			grades[i].CreatedAt = now
		}
		grades[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, grades[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert grade: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grades: %w", err)
	}
	return nil
}
