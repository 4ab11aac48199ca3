package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alrafidain/college-records-api/internal/models"
)

// CourseRepository manages persistence for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `c.id, c.name, c.code, c.stage_id, c.type, c.semester, c.created_at, c.updated_at, s.name AS stage_name`

// List returns courses matching the filter. A filter with a LecturerID limits
// results to courses assigned to that lecturer.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses c
        JOIN stages s ON s.id = c.stage_id
        WHERE c.deleted_at IS NULL`, courseColumns)
	var args []interface{}

	if filter.StageID != "" {
		args = append(args, filter.StageID)
		query += fmt.Sprintf(" AND c.stage_id = $%d", len(args))
	}
	switch filter.Semester {
	case "1", "2":
		args = append(args, filter.Semester)
		query += fmt.Sprintf(" AND c.semester = $%d", len(args))
	case "yearly":
		query += " AND c.semester IS NULL"
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (c.name ILIKE $%d OR c.code ILIKE $%d)", len(args), len(args))
	}
	if filter.LecturerID != "" {
		args = append(args, filter.LecturerID)
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM lecturer_courses lc WHERE lc.course_id = c.id AND lc.lecturer_id = $%d)", len(args))
	}
	query += " ORDER BY c.created_at ASC"

	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID fetches a course with its stage name.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses c
        JOIN stages s ON s.id = c.stage_id
        WHERE c.id = $1 AND c.deleted_at IS NULL`, courseColumns)
	var course models.CourseDetail
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ExistsByCode checks course code uniqueness, optionally excluding an ID.
func (r *CourseRepository) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM courses WHERE code = $1 AND deleted_at IS NULL"
	args := []interface{}{code}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("check course code: %w", err)
	}
	return true, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, name, code, stage_id, type, semester, created_at, updated_at)
        VALUES (:id, :name, :code, :stage_id, :type, :semester, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies an existing course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = :name, code = :code, stage_id = :stage_id, type = :type,
        semester = :semester, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete soft-deletes a course.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	const query = `UPDATE courses SET deleted_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

// SoftDeleteByStage soft-deletes every course of a stage. Used by the stage
// cascade.
func (r *CourseRepository) SoftDeleteByStage(ctx context.Context, stageID string) error {
	const query = `UPDATE courses SET deleted_at = $2 WHERE stage_id = $1 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, stageID, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete stage courses: %w", err)
	}
	return nil
}

// IsAssignedToLecturer reports whether the lecturer teaches the course.
func (r *CourseRepository) IsAssignedToLecturer(ctx context.Context, courseID, lecturerID string) (bool, error) {
	const query = `SELECT 1 FROM lecturer_courses WHERE course_id = $1 AND lecturer_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, courseID, lecturerID); err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("check course assignment: %w", err)
	}
	return true, nil
}

// Count returns the number of live courses.
func (r *CourseRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM courses WHERE deleted_at IS NULL"); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return count, nil
}
