package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alrafidain/college-records-api/internal/models"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, error)
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	IsAssignedToLecturer(ctx context.Context, courseID, lecturerID string) (bool, error)
}

type courseStageRepository interface {
	FindByID(ctx context.Context, id string) (*models.Stage, error)
}

// CourseService manages courses. Lecturers only see courses assigned to
// them; admins see and mutate everything.
type CourseService struct {
	repo      courseRepository
	stages    courseStageRepository
	activity  *ActivityService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, stages courseStageRepository, activity *ActivityService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CourseService{repo: repo, stages: stages, activity: activity, validator: validate, logger: logger}
}

// List returns courses matching the filter, scoped to the actor's role.
func (s *CourseService) List(ctx context.Context, actor Actor, filter models.CourseFilter) ([]models.CourseDetail, error) {
	if actor.Role == models.RoleLecturer {
		filter.LecturerID = actor.ID
	}
	courses, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Get fetches one course. A lecturer can only read a course assigned to
// them.
func (s *CourseService) Get(ctx context.Context, actor Actor, id string) (*models.CourseDetail, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if actor.Role == models.RoleLecturer {
		assigned, err := s.repo.IsAssignedToLecturer(ctx, id, actor.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course assignment")
		}
		if !assigned {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "course is not assigned to you")
		}
	}
	return course, nil
}

// Create registers a new course.
func (s *CourseService) Create(ctx context.Context, actor Actor, req models.SaveCourseRequest) (*models.CourseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if _, err := s.stages.FindByID(ctx, req.StageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "stage does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify stage")
	}
	taken, err := s.repo.ExistsByCode(ctx, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists")
	}

	course := &models.Course{
		Name:     req.Name,
		Code:     req.Code,
		StageID:  req.StageID,
		Type:     models.CourseType(req.Type),
		Semester: req.Semester,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.activity.Record(ctx, actor, "course", course.ID, models.ActivityCreated, "created course "+course.Name, &models.ActivityChange{New: course})
	return s.repo.FindByID(ctx, course.ID)
}

// Update modifies an existing course.
func (s *CourseService) Update(ctx context.Context, actor Actor, id string, req models.SaveCourseRequest) (*models.CourseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if _, err := s.stages.FindByID(ctx, req.StageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "stage does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify stage")
	}
	taken, err := s.repo.ExistsByCode(ctx, req.Code, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists")
	}

	previous := existing.Course
	course := existing.Course
	course.Name = req.Name
	course.Code = req.Code
	course.StageID = req.StageID
	course.Type = models.CourseType(req.Type)
	course.Semester = req.Semester
	if err := s.repo.Update(ctx, &course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	s.activity.Record(ctx, actor, "course", course.ID, models.ActivityUpdated, "updated course "+course.Name, &models.ActivityChange{Old: previous, New: course})
	return s.repo.FindByID(ctx, course.ID)
}

// Delete removes a course. Grade rows keyed to it stay in place; the ledger
// simply becomes unreachable once the course is gone.
func (s *CourseService) Delete(ctx context.Context, actor Actor, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.activity.Record(ctx, actor, "course", id, models.ActivityDeleted, "deleted course "+existing.Name, &models.ActivityChange{Old: existing.Course})
	return nil
}
