package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alrafidain/college-records-api/internal/models"
)

// StudyTypeRepository manages persistence for study tracks.
type StudyTypeRepository struct {
	db *sqlx.DB
}

// NewStudyTypeRepository constructs a StudyTypeRepository.
func NewStudyTypeRepository(db *sqlx.DB) *StudyTypeRepository {
	return &StudyTypeRepository{db: db}
}

// List returns all live study types.
func (r *StudyTypeRepository) List(ctx context.Context) ([]models.StudyType, error) {
	const query = `SELECT id, name, created_at, updated_at FROM study_types WHERE deleted_at IS NULL ORDER BY created_at ASC`
	var types []models.StudyType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list study types: %w", err)
	}
	return types, nil
}

// FindByID fetches a study type by ID.
func (r *StudyTypeRepository) FindByID(ctx context.Context, id string) (*models.StudyType, error) {
	const query = `SELECT id, name, created_at, updated_at FROM study_types WHERE id = $1 AND deleted_at IS NULL`
	var studyType models.StudyType
	if err := r.db.GetContext(ctx, &studyType, query, id); err != nil {
		return nil, err
	}
	return &studyType, nil
}

// ExistsByName checks name uniqueness, optionally excluding an ID.
func (r *StudyTypeRepository) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM study_types WHERE name = $1 AND deleted_at IS NULL"
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("check study type name: %w", err)
	}
	return true, nil
}

// Create inserts a new study type.
func (r *StudyTypeRepository) Create(ctx context.Context, studyType *models.StudyType) error {
	if studyType.ID == "" {
		studyType.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	studyType.CreatedAt = now
	studyType.UpdatedAt = now
	const query = `INSERT INTO study_types (id, name, created_at, updated_at) VALUES (:id, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, studyType); err != nil {
		return fmt.Errorf("create study type: %w", err)
	}
	return nil
}

// Update modifies an existing study type.
func (r *StudyTypeRepository) Update(ctx context.Context, studyType *models.StudyType) error {
	studyType.UpdatedAt = time.Now().UTC()
	const query = `UPDATE study_types SET name = :name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, studyType); err != nil {
		return fmt.Errorf("update study type: %w", err)
	}
	return nil
}

// Delete soft-deletes a study type.
func (r *StudyTypeRepository) Delete(ctx context.Context, id string) error {
	const query = `UPDATE study_types SET deleted_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete study type: %w", err)
	}
	return nil
}

// Count returns the number of live study types.
func (r *StudyTypeRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM study_types WHERE deleted_at IS NULL"); err != nil {
		return 0, fmt.Errorf("count study types: %w", err)
	}
	return count, nil
}
