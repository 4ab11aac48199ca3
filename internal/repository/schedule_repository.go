package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alrafidain/college-records-api/internal/models"
)

// ScheduleRepository manages persistence for weekly timetable slots.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = `sc.id, sc.stage_id, sc.group_id, sc.course_id, sc.lecturer_id, sc.day,
        sc.start_time, sc.end_time, sc.type, sc.room, sc.location, sc.created_at, sc.updated_at,
        c.name AS course_name, l.full_name AS lecturer_name, st.name AS stage_name, g.symbol AS group_symbol`

const scheduleJoins = `FROM schedules sc
        JOIN courses c ON c.id = sc.course_id
        JOIN lecturers l ON l.id = sc.lecturer_id
        JOIN stages st ON st.id = sc.stage_id
        JOIN groups g ON g.id = sc.group_id`

// List returns timetable slots matching the filter ordered for weekly
// display.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE sc.deleted_at IS NULL", scheduleColumns, scheduleJoins)
	var args []interface{}
	if filter.StageID != "" {
		args = append(args, filter.StageID)
		query += fmt.Sprintf(" AND sc.stage_id = $%d", len(args))
	}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		query += fmt.Sprintf(" AND sc.group_id = $%d", len(args))
	}
	query += ` ORDER BY CASE sc.day
        WHEN 'sunday' THEN 0 WHEN 'monday' THEN 1 WHEN 'tuesday' THEN 2 WHEN 'wednesday' THEN 3
        WHEN 'thursday' THEN 4 WHEN 'friday' THEN 5 ELSE 6 END, sc.start_time ASC`

	var schedules []models.ScheduleDetail
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

// FindByID fetches a timetable slot with display names.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ScheduleDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE sc.id = $1 AND sc.deleted_at IS NULL", scheduleColumns, scheduleJoins)
	var schedule models.ScheduleDetail
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Create inserts a new timetable slot.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	const query = `INSERT INTO schedules (id, stage_id, group_id, course_id, lecturer_id, day, start_time, end_time, type, room, location, created_at, updated_at)
        VALUES (:id, :stage_id, :group_id, :course_id, :lecturer_id, :day, :start_time, :end_time, :type, :room, :location, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update modifies an existing timetable slot.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.Schedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET stage_id = :stage_id, group_id = :group_id, course_id = :course_id,
        lecturer_id = :lecturer_id, day = :day, start_time = :start_time, end_time = :end_time,
        type = :type, room = :room, location = :location, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// Delete soft-deletes a timetable slot.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	const query = `UPDATE schedules SET deleted_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}
