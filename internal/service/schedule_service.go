package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alrafidain/college-records-api/internal/models"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleDetail, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, schedule *models.Schedule) error
	Delete(ctx context.Context, id string) error
}

// ScheduleService manages the weekly timetable.
type ScheduleService struct {
	repo      scheduleRepository
	activity  *ActivityService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(repo scheduleRepository, activity *ActivityService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ScheduleService{repo: repo, activity: activity, validator: validate, logger: logger}
}

// List returns timetable slots in weekly display order.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, error) {
	schedules, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return schedules, nil
}

// Get fetches one timetable slot.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.ScheduleDetail, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

// Create registers a timetable slot.
func (s *ScheduleService) Create(ctx context.Context, actor Actor, req models.SaveScheduleRequest) (*models.ScheduleDetail, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	schedule := scheduleFromRequest(req)
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}

	s.activity.Record(ctx, actor, "schedule", schedule.ID, models.ActivityCreated, "created schedule slot on "+schedule.Day, &models.ActivityChange{New: schedule})
	return s.Get(ctx, schedule.ID)
}

// Update modifies a timetable slot.
func (s *ScheduleService) Update(ctx context.Context, actor Actor, id string, req models.SaveScheduleRequest) (*models.ScheduleDetail, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := existing.Schedule
	schedule := scheduleFromRequest(req)
	schedule.ID = id
	schedule.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}

	s.activity.Record(ctx, actor, "schedule", id, models.ActivityUpdated, "updated schedule slot on "+schedule.Day, &models.ActivityChange{Old: previous, New: schedule})
	return s.Get(ctx, id)
}

// Delete removes a timetable slot.
func (s *ScheduleService) Delete(ctx context.Context, actor Actor, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	s.activity.Record(ctx, actor, "schedule", id, models.ActivityDeleted, "deleted schedule slot on "+existing.Day, &models.ActivityChange{Old: existing.Schedule})
	return nil
}

func (s *ScheduleService) validateRequest(req models.SaveScheduleRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	day := strings.ToLower(req.Day)
	if _, ok := models.Weekdays[day]; !ok {
		return appErrors.Clone(appErrors.ErrValidation, "invalid weekday")
	}
	start, err := parseClock(req.StartTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid start time, expected HH:MM")
	}
	end, err := parseClock(req.EndTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid end time, expected HH:MM")
	}
	if !end.After(start) {
		return appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	return nil
}

func parseClock(value string) (time.Time, error) {
	return time.Parse("15:04", value)
}

func scheduleFromRequest(req models.SaveScheduleRequest) *models.Schedule {
	return &models.Schedule{
		StageID:    req.StageID,
		GroupID:    req.GroupID,
		CourseID:   req.CourseID,
		LecturerID: req.LecturerID,
		Day:        strings.ToLower(req.Day),
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Type:       models.ScheduleType(req.Type),
		Room:       req.Room,
		Location:   req.Location,
	}
}
