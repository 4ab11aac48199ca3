package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alrafidain/college-records-api/internal/models"
)

// LecturerRepository manages persistence for lecturers and their teaching
// assignment sets.
type LecturerRepository struct {
	db *sqlx.DB
}

// NewLecturerRepository constructs a LecturerRepository.
func NewLecturerRepository(db *sqlx.DB) *LecturerRepository {
	return &LecturerRepository{db: db}
}

const lecturerColumns = `id, full_name, username, password_hash, code, image_path, certificate, academic_title, created_at, updated_at`

// List returns all live lecturers.
func (r *LecturerRepository) List(ctx context.Context) ([]models.Lecturer, error) {
	query := fmt.Sprintf(`SELECT %s FROM lecturers WHERE deleted_at IS NULL ORDER BY full_name ASC`, lecturerColumns)
	var lecturers []models.Lecturer
	if err := r.db.SelectContext(ctx, &lecturers, query); err != nil {
		return nil, fmt.Errorf("list lecturers: %w", err)
	}
	return lecturers, nil
}

// FindByID fetches a lecturer by ID.
func (r *LecturerRepository) FindByID(ctx context.Context, id string) (*models.Lecturer, error) {
	query := fmt.Sprintf(`SELECT %s FROM lecturers WHERE id = $1 AND deleted_at IS NULL`, lecturerColumns)
	var lecturer models.Lecturer
	if err := r.db.GetContext(ctx, &lecturer, query, id); err != nil {
		return nil, err
	}
	return &lecturer, nil
}

// ExistsByUsername checks username uniqueness among lecturers, optionally
// excluding an ID.
func (r *LecturerRepository) ExistsByUsername(ctx context.Context, username string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM lecturers WHERE username = $1 AND deleted_at IS NULL"
	args := []interface{}{username}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("check lecturer username: %w", err)
	}
	return true, nil
}

// ExistsByCode checks lecturer code uniqueness, optionally excluding an ID.
func (r *LecturerRepository) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM lecturers WHERE code = $1 AND deleted_at IS NULL"
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
		return false, fmt.Errorf("check lecturer code: %w", err)
	}
	return true, nil
}

// Create inserts a lecturer and syncs the assignment sets in one transaction.
func (r *LecturerRepository) Create(ctx context.Context, lecturer *models.Lecturer, assignments models.LecturerAssignments) error {
	if lecturer.ID == "" {
		lecturer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lecturer.CreatedAt = now
	lecturer.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `INSERT INTO lecturers (id, full_name, username, password_hash, code, image_path, certificate, academic_title, created_at, updated_at)
        VALUES (:id, :full_name, :username, :password_hash, :code, :image_path, :certificate, :academic_title, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, lecturer); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create lecturer: %w", err)
	}
	if err := syncAssignments(ctx, tx, lecturer.ID, assignments); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit lecturer: %w", err)
	}
	return nil
}

// Update modifies a lecturer and replaces its assignment sets wholesale in
// one transaction.
func (r *LecturerRepository) Update(ctx context.Context, lecturer *models.Lecturer, assignments models.LecturerAssignments) error {
	lecturer.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `UPDATE lecturers SET full_name = :full_name, username = :username, password_hash = :password_hash,
        code = :code, image_path = :image_path, certificate = :certificate, academic_title = :academic_title,
        updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, lecturer); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update lecturer: %w", err)
	}
	if err := syncAssignments(ctx, tx, lecturer.ID, assignments); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit lecturer update: %w", err)
	}
	return nil
}

// syncAssignments replaces the four join-table sets for the lecturer.
func syncAssignments(ctx context.Context, tx *sqlx.Tx, lecturerID string, assignments models.LecturerAssignments) error {
	sets := []struct {
		table  string
		column string
		ids    []string
	}{
		{"lecturer_stages", "stage_id", assignments.StageIDs},
		{"lecturer_courses", "course_id", assignments.CourseIDs},
		{"lecturer_groups", "group_id", assignments.GroupIDs},
		{"lecturer_study_types", "study_type_id", assignments.StudyTypeIDs},
	}
	for _, set := range sets {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE lecturer_id = $1", set.table), lecturerID); err != nil {
			return fmt.Errorf("clear %s: %w", set.table, err)
		}
		insert := fmt.Sprintf("INSERT INTO %s (lecturer_id, %s) VALUES ($1, $2)", set.table, set.column)
		for _, id := range set.ids {
			if _, err := tx.ExecContext(ctx, insert, lecturerID, id); err != nil {
				return fmt.Errorf("insert %s: %w", set.table, err)
			}
		}
	}
	return nil
}

// GetAssignments loads the four assignment id sets of a lecturer.
func (r *LecturerRepository) GetAssignments(ctx context.Context, lecturerID string) (models.LecturerAssignments, error) {
	assignments := models.LecturerAssignments{
		StageIDs:     []string{},
		CourseIDs:    []string{},
		GroupIDs:     []string{},
		StudyTypeIDs: []string{},
	}
	sets := []struct {
		table  string
		column string
		dest   *[]string
	}{
		{"lecturer_stages", "stage_id", &assignments.StageIDs},
		{"lecturer_courses", "course_id", &assignments.CourseIDs},
		{"lecturer_groups", "group_id", &assignments.GroupIDs},
		{"lecturer_study_types", "study_type_id", &assignments.StudyTypeIDs},
	}
	for _, set := range sets {
		query := fmt.Sprintf("SELECT %s FROM %s WHERE lecturer_id = $1", set.column, set.table)
		if err := r.db.SelectContext(ctx, set.dest, query, lecturerID); err != nil {
			return assignments, fmt.Errorf("load %s: %w", set.table, err)
		}
	}
	return assignments, nil
}

// Delete soft-deletes a lecturer and clears its assignment sets.
func (r *LecturerRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	for _, table := range []string{"lecturer_stages", "lecturer_courses", "lecturer_groups", "lecturer_study_types"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE lecturer_id = $1", table), id); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "UPDATE lecturers SET deleted_at = $2 WHERE id = $1", id, time.Now().UTC()); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete lecturer: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit lecturer delete: %w", err)
	}
	return nil
}

// Count returns the number of live lecturers.
func (r *LecturerRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM lecturers WHERE deleted_at IS NULL"); err != nil {
		return 0, fmt.Errorf("count lecturers: %w", err)
	}
	return count, nil
}
