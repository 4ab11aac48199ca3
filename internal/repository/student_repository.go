package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alrafidain/college-records-api/internal/models"
)

// StudentRepository manages persistence for students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `s.id, s.code, s.full_name, s.gender, s.phone_number, s.address, s.image_path,
        s.stage_id, s.study_type_id, s.group_id, s.created_at, s.updated_at,
        st.name AS stage_name, sty.name AS study_type_name, g.symbol AS group_symbol`

const studentJoins = `FROM students s
        JOIN stages st ON st.id = s.stage_id
        JOIN study_types sty ON sty.id = s.study_type_id
        LEFT JOIN groups g ON g.id = s.group_id`

func studentFilterClause(filter models.StudentFilter) (string, []interface{}) {
	clause := " WHERE s.deleted_at IS NULL"
	var args []interface{}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		clause += fmt.Sprintf(" AND (s.full_name ILIKE $%d OR s.code ILIKE $%d)", len(args), len(args))
	}
	if filter.StageID != "" {
		args = append(args, filter.StageID)
		clause += fmt.Sprintf(" AND s.stage_id = $%d", len(args))
	}
	if filter.StudyTypeID != "" {
		args = append(args, filter.StudyTypeID)
		clause += fmt.Sprintf(" AND s.study_type_id = $%d", len(args))
	}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		clause += fmt.Sprintf(" AND s.group_id = $%d", len(args))
	}
	return clause, args
}

// List returns a page of students matching the filter plus the total count
// before pagination.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	clause, args := studentFilterClause(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM students s" + clause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	query := fmt.Sprintf("SELECT %s %s%s ORDER BY s.full_name ASC", studentColumns, studentJoins, clause)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}
	return students, total, nil
}

// ListAll returns every student matching the filter without pagination. Used
// by the spreadsheet export.
func (r *StudentRepository) ListAll(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error) {
	clause, args := studentFilterClause(filter)
	query := fmt.Sprintf("SELECT %s %s%s ORDER BY s.full_name ASC", studentColumns, studentJoins, clause)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list all students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student with related display names.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE s.id = $1 AND s.deleted_at IS NULL", studentColumns, studentJoins)
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByCode checks student code uniqueness, optionally excluding an ID.
func (r *StudentRepository) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE code = $1 AND deleted_at IS NULL"
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
		return false, fmt.Errorf("check student code: %w", err)
	}
	return true, nil
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, code, full_name, gender, phone_number, address, image_path, stage_id, study_type_id, group_id, created_at, updated_at)
        VALUES (:id, :code, :full_name, :gender, :phone_number, :address, :image_path, :stage_id, :study_type_id, :group_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET code = :code, full_name = :full_name, gender = :gender,
        phone_number = :phone_number, address = :address, image_path = :image_path,
        stage_id = :stage_id, study_type_id = :study_type_id, group_id = :group_id,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete soft-deletes a student.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	const query = `UPDATE students SET deleted_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// ListByStage returns the live students of a stage. The stage cascade walks
// this list to release each student's image before deletion.
func (r *StudentRepository) ListByStage(ctx context.Context, stageID string) ([]models.Student, error) {
	const query = `SELECT id, code, full_name, gender, phone_number, address, image_path, stage_id, study_type_id, group_id, created_at, updated_at
        FROM students WHERE stage_id = $1 AND deleted_at IS NULL`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, stageID); err != nil {
		return nil, fmt.Errorf("list stage students: %w", err)
	}
	return students, nil
}

// ListByGroup returns the live students of a group.
func (r *StudentRepository) ListByGroup(ctx context.Context, groupID string) ([]models.Student, error) {
	const query = `SELECT id, code, full_name, gender, phone_number, address, image_path, stage_id, study_type_id, group_id, created_at, updated_at
        FROM students WHERE group_id = $1 AND deleted_at IS NULL`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, groupID); err != nil {
		return nil, fmt.Errorf("list group students: %w", err)
	}
	return students, nil
}

// ListByStudyType returns the live students of a study type.
func (r *StudentRepository) ListByStudyType(ctx context.Context, studyTypeID string) ([]models.Student, error) {
	const query = `SELECT id, code, full_name, gender, phone_number, address, image_path, stage_id, study_type_id, group_id, created_at, updated_at
        FROM students WHERE study_type_id = $1 AND deleted_at IS NULL`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, studyTypeID); err != nil {
		return nil, fmt.Errorf("list study type students: %w", err)
	}
	return students, nil
}

// ListImagePaths returns every non-null image path across live students. The
// delete-all operation removes these files before wiping the rows.
func (r *StudentRepository) ListImagePaths(ctx context.Context) ([]string, error) {
	const query = `SELECT image_path FROM students WHERE image_path IS NOT NULL AND deleted_at IS NULL`
	var paths []string
	if err := r.db.SelectContext(ctx, &paths, query); err != nil {
		return nil, fmt.Errorf("list student images: %w", err)
	}
	return paths, nil
}

// DeleteAll soft-deletes every live student in one statement.
func (r *StudentRepository) DeleteAll(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE students SET deleted_at = $1 WHERE deleted_at IS NULL`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete all students: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete all students: %w", err)
	}
	return int(affected), nil
}

// ListRecent returns the most recently registered students.
func (r *StudentRepository) ListRecent(ctx context.Context, limit int) ([]models.StudentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE s.deleted_at IS NULL ORDER BY s.created_at DESC LIMIT $1", studentColumns, studentJoins)
	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, limit); err != nil {
		return nil, fmt.Errorf("list recent students: %w", err)
	}
	return students, nil
}

// Count returns the number of live students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM students WHERE deleted_at IS NULL"); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}
