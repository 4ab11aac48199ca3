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

type studyTypeRepository interface {
	List(ctx context.Context) ([]models.StudyType, error)
	FindByID(ctx context.Context, id string) (*models.StudyType, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	Create(ctx context.Context, studyType *models.StudyType) error
	Update(ctx context.Context, studyType *models.StudyType) error
	Delete(ctx context.Context, id string) error
}

type studyTypeStudentRepository interface {
	ListByStudyType(ctx context.Context, studyTypeID string) ([]models.Student, error)
}

// StudyTypeService manages study tracks. Deleting a track cascades to its
// students through the student service so image cleanup stays in one place.
type StudyTypeService struct {
	repo      studyTypeRepository
	students  studyTypeStudentRepository
	cascade   *StudentService
	activity  *ActivityService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudyTypeService constructs a StudyTypeService.
func NewStudyTypeService(repo studyTypeRepository, students studyTypeStudentRepository, cascade *StudentService, activity *ActivityService, validate *validator.Validate, logger *zap.Logger) *StudyTypeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StudyTypeService{repo: repo, students: students, cascade: cascade, activity: activity, validator: validate, logger: logger}
}

// List returns every study type.
func (s *StudyTypeService) List(ctx context.Context) ([]models.StudyType, error) {
	types, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list study types")
	}
	return types, nil
}

// Get fetches one study type.
func (s *StudyTypeService) Get(ctx context.Context, id string) (*models.StudyType, error) {
	studyType, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "study type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study type")
	}
	return studyType, nil
}

// Create registers a new study type.
func (s *StudyTypeService) Create(ctx context.Context, actor Actor, req models.SaveStudyTypeRequest) (*models.StudyType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid study type payload")
	}
	taken, err := s.repo.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check study type name")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "study type name already exists")
	}

	studyType := &models.StudyType{Name: req.Name}
	if err := s.repo.Create(ctx, studyType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create study type")
	}

	s.activity.Record(ctx, actor, "study_type", studyType.ID, models.ActivityCreated, "created study type "+studyType.Name, &models.ActivityChange{New: studyType})
	return studyType, nil
}

// Update renames a study type.
func (s *StudyTypeService) Update(ctx context.Context, actor Actor, id string, req models.SaveStudyTypeRequest) (*models.StudyType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid study type payload")
	}
	studyType, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	taken, err := s.repo.ExistsByName(ctx, req.Name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check study type name")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "study type name already exists")
	}

	previous := *studyType
	studyType.Name = req.Name
	if err := s.repo.Update(ctx, studyType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update study type")
	}

	s.activity.Record(ctx, actor, "study_type", studyType.ID, models.ActivityUpdated, "updated study type "+studyType.Name, &models.ActivityChange{Old: previous, New: studyType})
	return studyType, nil
}

// Delete removes a study type and every student registered under it.
func (s *StudyTypeService) Delete(ctx context.Context, actor Actor, id string) error {
	studyType, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	students, err := s.students.ListByStudyType(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study type students")
	}
	for _, student := range students {
		if err := s.cascade.deleteStudent(ctx, actor, &student); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete study type")
	}

	s.activity.Record(ctx, actor, "study_type", id, models.ActivityDeleted, "deleted study type "+studyType.Name, &models.ActivityChange{Old: studyType})
	return nil
}
