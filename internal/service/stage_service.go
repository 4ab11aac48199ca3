package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alrafidain/college-records-api/internal/models"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
)

type stageRepository interface {
	List(ctx context.Context, lecturerID string) ([]models.Stage, error)
	FindByID(ctx context.Context, id string) (*models.Stage, error)
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	Create(ctx context.Context, stage *models.Stage, configurations []models.StageConfiguration) error
	Update(ctx context.Context, stage *models.Stage, configurations []models.StageConfiguration) error
	ListConfigurations(ctx context.Context, stageID string) ([]models.StageConfigurationDetail, error)
	Delete(ctx context.Context, id string) error
}

type stageStudyTypeRepository interface {
	FindByID(ctx context.Context, id string) (*models.StudyType, error)
}

type stageGroupRepository interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

type stageStudentRepository interface {
	ListByStage(ctx context.Context, stageID string) ([]models.Student, error)
}

type stageCourseRepository interface {
	SoftDeleteByStage(ctx context.Context, stageID string) error
}

// StageService manages academic stages and their configuration matrix.
// Saving a stage replaces the stored configuration set wholesale; deleting a
// stage cascades to its students and courses as explicit steps.
type StageService struct {
	repo       stageRepository
	studyTypes stageStudyTypeRepository
	groups     stageGroupRepository
	students   stageStudentRepository
	courses    stageCourseRepository
	cascade    *StudentService
	activity   *ActivityService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewStageService constructs a StageService.
func NewStageService(repo stageRepository, studyTypes stageStudyTypeRepository, groups stageGroupRepository, students stageStudentRepository, courses stageCourseRepository, cascade *StudentService, activity *ActivityService, validate *validator.Validate, logger *zap.Logger) *StageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StageService{
		repo:       repo,
		studyTypes: studyTypes,
		groups:     groups,
		students:   students,
		courses:    courses,
		cascade:    cascade,
		activity:   activity,
		validator:  validate,
		logger:     logger,
	}
}

// List returns stages. A lecturer actor only sees stages they are assigned
// to; admins see all.
func (s *StageService) List(ctx context.Context, actor Actor) ([]models.Stage, error) {
	lecturerID := ""
	if actor.Role == models.RoleLecturer {
		lecturerID = actor.ID
	}
	stages, err := s.repo.List(ctx, lecturerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list stages")
	}
	return stages, nil
}

// Get fetches a stage with its configuration rows.
func (s *StageService) Get(ctx context.Context, id string) (*models.StageDetail, error) {
	stage, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "stage not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stage")
	}
	configurations, err := s.repo.ListConfigurations(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stage configurations")
	}
	return &models.StageDetail{Stage: *stage, Configurations: configurations}, nil
}

// Create registers a stage together with its configuration matrix.
func (s *StageService) Create(ctx context.Context, actor Actor, req models.SaveStageRequest) (*models.StageDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid stage payload")
	}
	taken, err := s.repo.ExistsByCode(ctx, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check stage code")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "stage code already exists")
	}
	configurations, err := s.resolveConfigurations(ctx, req.StudyTypes)
	if err != nil {
		return nil, err
	}

	stage := &models.Stage{Name: req.Name, Code: req.Code}
	if err := s.repo.Create(ctx, stage, configurations); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create stage")
	}

	s.activity.Record(ctx, actor, "stage", stage.ID, models.ActivityCreated, "created stage "+stage.Name, &models.ActivityChange{New: stage})
	return s.Get(ctx, stage.ID)
}

// Update modifies a stage. The request's configuration list replaces the
// stored set entirely; omitted pairings are removed.
func (s *StageService) Update(ctx context.Context, actor Actor, id string, req models.SaveStageRequest) (*models.StageDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid stage payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	taken, err := s.repo.ExistsByCode(ctx, req.Code, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check stage code")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "stage code already exists")
	}
	configurations, err := s.resolveConfigurations(ctx, req.StudyTypes)
	if err != nil {
		return nil, err
	}

	previous := existing.Stage
	stage := existing.Stage
	stage.Name = req.Name
	stage.Code = req.Code
	if err := s.repo.Update(ctx, &stage, configurations); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update stage")
	}

	s.activity.Record(ctx, actor, "stage", stage.ID, models.ActivityUpdated, "updated stage "+stage.Name, &models.ActivityChange{Old: previous, New: stage})
	return s.Get(ctx, stage.ID)
}

// resolveConfigurations flattens the nested study type input into one
// configuration row per (study type, group) pairing, verifying every
// referenced study type and group exists and rejecting duplicate pairings.
func (s *StageService) resolveConfigurations(ctx context.Context, inputs []models.StageStudyTypeInput) ([]models.StageConfiguration, error) {
	seen := make(map[string]struct{}, len(inputs))
	configurations := make([]models.StageConfiguration, 0, len(inputs))
	for _, input := range inputs {
		if _, err := s.studyTypes.FindByID(ctx, input.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("study type %s does not exist", input.ID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify study type")
		}

		for _, groupID := range input.Groups {
			key := input.ID + ":" + groupID
			if _, dup := seen[key]; dup {
				return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate configuration pairing")
			}
			seen[key] = struct{}{}

			if _, err := s.groups.FindByID(ctx, groupID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("group %s does not exist", groupID))
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify group")
			}

			configurations = append(configurations, models.StageConfiguration{
				StudyTypeID: input.ID,
				GroupID:     groupID,
			})
		}
	}
	return configurations, nil
}

// Delete removes a stage after cascading to its students and courses. The
// students are removed one by one so each stored image is released.
func (s *StageService) Delete(ctx context.Context, actor Actor, id string) error {
	stage, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	students, err := s.students.ListByStage(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stage students")
	}
	for _, student := range students {
		if err := s.cascade.deleteStudent(ctx, actor, &student); err != nil {
			return err
		}
	}

	if err := s.courses.SoftDeleteByStage(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete stage courses")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete stage")
	}

	s.activity.Record(ctx, actor, "stage", id, models.ActivityDeleted, "deleted stage "+stage.Name, &models.ActivityChange{Old: stage.Stage})
	return nil
}
