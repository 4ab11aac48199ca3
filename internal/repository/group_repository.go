package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alrafidain/college-records-api/internal/models"
)

// GroupRepository manages persistence for class sections.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs a GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// List returns groups, optionally narrowed to those configured for a stage.
func (r *GroupRepository) List(ctx context.Context, stageID string) ([]models.Group, error) {
	query := `SELECT g.id, g.symbol, g.created_at, g.updated_at FROM groups g WHERE g.deleted_at IS NULL`
	var args []interface{}
	if stageID != "" {
		query += ` AND EXISTS (SELECT 1 FROM stage_configurations sc WHERE sc.group_id = g.id AND sc.stage_id = $1)`
		args = append(args, stageID)
	}
	query += " ORDER BY g.symbol ASC"

	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// FindByID fetches a group by ID.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	const query = `SELECT id, symbol, created_at, updated_at FROM groups WHERE id = $1 AND deleted_at IS NULL`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// FindBySymbol resolves a group by its section symbol. Used by the import
// normalizer when a spreadsheet row names its own group.
func (r *GroupRepository) FindBySymbol(ctx context.Context, symbol string) (*models.Group, error) {
	const query = `SELECT id, symbol, created_at, updated_at FROM groups WHERE symbol = $1 AND deleted_at IS NULL LIMIT 1`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, symbol); err != nil {
		return nil, err
	}
	return &group, nil
}

// ExistsBySymbol checks symbol uniqueness, optionally excluding an ID.
func (r *GroupRepository) ExistsBySymbol(ctx context.Context, symbol string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM groups WHERE symbol = $1 AND deleted_at IS NULL"
	args := []interface{}{symbol}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("check group symbol: %w", err)
	}
	return true, nil
}

// Create inserts a new group.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now
	const query = `INSERT INTO groups (id, symbol, created_at, updated_at) VALUES (:id, :symbol, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// Update modifies an existing group.
func (r *GroupRepository) Update(ctx context.Context, group *models.Group) error {
	group.UpdatedAt = time.Now().UTC()
	const query = `UPDATE groups SET symbol = :symbol, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return nil
}

// Delete soft-deletes a group.
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	const query = `UPDATE groups SET deleted_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}

// Count returns the number of live groups.
func (r *GroupRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM groups WHERE deleted_at IS NULL"); err != nil {
		return 0, fmt.Errorf("count groups: %w", err)
	}
	return count, nil
}
