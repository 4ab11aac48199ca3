package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alrafidain/college-records-api/internal/models"
)

// ActivityLogRepository appends and pages the audit trail.
type ActivityLogRepository struct {
	db *sqlx.DB
}

// NewActivityLogRepository constructs an ActivityLogRepository.
func NewActivityLogRepository(db *sqlx.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// Create appends one audit entry. Entries are never updated or deleted.
func (r *ActivityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO activity_logs (id, user_id, user_name, subject_type, subject_id, action, description, properties, ip_address, created_at)
        VALUES (:id, :user_id, :user_name, :subject_type, :subject_id, :action, :description, :properties, :ip_address, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create activity log: %w", err)
	}
	return nil
}

// List returns one page of audit entries, newest first, plus the total count.
func (r *ActivityLogRepository) List(ctx context.Context, page, pageSize int) ([]models.ActivityLog, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM activity_logs"); err != nil {
		return nil, 0, fmt.Errorf("count activity logs: %w", err)
	}

	const query = `SELECT id, user_id, user_name, subject_type, subject_id, action, description, properties, ip_address, created_at
        FROM activity_logs ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	var entries []models.ActivityLog
	if err := r.db.SelectContext(ctx, &entries, query, pageSize, (page-1)*pageSize); err != nil {
		return nil, 0, fmt.Errorf("list activity logs: %w", err)
	}
	return entries, total, nil
}
