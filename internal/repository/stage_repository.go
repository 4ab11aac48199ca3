package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alrafidain/college-records-api/internal/models"
)

// StageRepository manages persistence for stages and their configuration
// matrix rows.
type StageRepository struct {
	db *sqlx.DB
}

// NewStageRepository constructs a StageRepository.
func NewStageRepository(db *sqlx.DB) *StageRepository {
	return &StageRepository{db: db}
}

// List returns all stages, optionally scoped to those a lecturer teaches.
func (r *StageRepository) List(ctx context.Context, lecturerID string) ([]models.Stage, error) {
	query := `SELECT s.id, s.name, s.code, s.created_at, s.updated_at FROM stages s WHERE s.deleted_at IS NULL`
	var args []interface{}
	if lecturerID != "" {
		query += ` AND EXISTS (SELECT 1 FROM lecturer_stages ls WHERE ls.stage_id = s.id AND ls.lecturer_id = $1)`
		args = append(args, lecturerID)
	}
	query += " ORDER BY s.created_at ASC"

	var stages []models.Stage
	if err := r.db.SelectContext(ctx, &stages, query, args...); err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	return stages, nil
}

// FindByID fetches a stage by ID.
func (r *StageRepository) FindByID(ctx context.Context, id string) (*models.Stage, error) {
	const query = `SELECT id, name, code, created_at, updated_at FROM stages WHERE id = $1 AND deleted_at IS NULL`
	var stage models.Stage
	if err := r.db.GetContext(ctx, &stage, query, id); err != nil {
		return nil, err
	}
	return &stage, nil
}

// ExistsByCode checks stage code uniqueness, optionally excluding an ID.
func (r *StageRepository) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM stages WHERE code = $1 AND deleted_at IS NULL"
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
		return false, fmt.Errorf("check stage code: %w", err)
	}
	return true, nil
}

// Create inserts a stage together with its configuration rows in one
// transaction.
func (r *StageRepository) Create(ctx context.Context, stage *models.Stage, configurations []models.StageConfiguration) error {
	if stage.ID == "" {
		stage.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	stage.CreatedAt = now
	stage.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const insertStage = `INSERT INTO stages (id, name, code, created_at, updated_at)
        VALUES (:id, :name, :code, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertStage, stage); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create stage: %w", err)
	}
	if err := insertConfigurations(ctx, tx, stage.ID, configurations); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit stage: %w", err)
	}
	return nil
}

// Update rewrites the stage scalars and replaces the configuration set
// wholesale inside one transaction. Configurations omitted from the new set
// disappear; this is a full replace, not a merge.
func (r *StageRepository) Update(ctx context.Context, stage *models.Stage, configurations []models.StageConfiguration) error {
	stage.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const updateStage = `UPDATE stages SET name = :name, code = :code, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateStage, stage); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update stage: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM stage_configurations WHERE stage_id = $1", stage.ID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear stage configurations: %w", err)
	}
	if err := insertConfigurations(ctx, tx, stage.ID, configurations); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit stage update: %w", err)
	}
	return nil
}

func insertConfigurations(ctx context.Context, tx *sqlx.Tx, stageID string, configurations []models.StageConfiguration) error {
	const query = `INSERT INTO stage_configurations (id, stage_id, study_type_id, group_id)
        VALUES (:id, :stage_id, :study_type_id, :group_id)`
	for i := range configurations {
		configurations[i].StageID = stageID
		if configurations[i].ID == "" {
			configurations[i].ID = uuid.NewString()
		}
		if _, err := tx.NamedExecContext(ctx, query, configurations[i]); err != nil {
			return fmt.Errorf("insert stage configuration: %w", err)
		}
	}
	return nil
}

// ListConfigurations returns the expanded configuration rows of a stage as a
// flat list; grouping by study type is a presentation concern.
func (r *StageRepository) ListConfigurations(ctx context.Context, stageID string) ([]models.StageConfigurationDetail, error) {
	const query = `SELECT sc.id, sc.stage_id, sc.study_type_id, sc.group_id, st.name AS study_type_name, g.symbol AS group_symbol
        FROM stage_configurations sc
        JOIN study_types st ON st.id = sc.study_type_id
        JOIN groups g ON g.id = sc.group_id
        WHERE sc.stage_id = $1
        ORDER BY st.name, g.symbol`
	var configurations []models.StageConfigurationDetail
	if err := r.db.SelectContext(ctx, &configurations, query, stageID); err != nil {
		return nil, fmt.Errorf("list stage configurations: %w", err)
	}
	return configurations, nil
}

// Delete removes the configuration rows and soft-deletes the stage.
func (r *StageRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM stage_configurations WHERE stage_id = $1", id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete stage configurations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE stages SET deleted_at = $2 WHERE id = $1", id, time.Now().UTC()); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete stage: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit stage delete: %w", err)
	}
	return nil
}

// Count returns the number of live stages.
func (r *StageRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM stages WHERE deleted_at IS NULL"); err != nil {
		return 0, fmt.Errorf("count stages: %w", err)
	}
	return count, nil
}
