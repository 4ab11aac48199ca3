package service

import (
	"context"
	"database/sql"
	"errors"
	"mime/multipart"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alrafidain/college-records-api/internal/models"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
	"github.com/alrafidain/college-records-api/pkg/storage"
)

const (
	defaultStudentPageSize = 50
	maxStudentPageSize     = 200
	studentImageDir        = "students"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	ListAll(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
	ListImagePaths(ctx context.Context) ([]string, error)
	DeleteAll(ctx context.Context) (int, error)
}

// StudentService manages the student roster. Image handling and audit
// recording are explicit steps of every mutation rather than hidden hooks.
type StudentService struct {
	repo      studentRepository
	storage   *storage.LocalStorage
	activity  *ActivityService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, store *storage.LocalStorage, activity *ActivityService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StudentService{repo: repo, storage: store, activity: activity, validator: validate, logger: logger}
}

// List returns a filtered page of students plus pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultStudentPageSize
	}
	if filter.PageSize > maxStudentPageSize {
		filter.PageSize = maxStudentPageSize
	}

	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get fetches one student with related display names.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a student, storing the optional profile image first so a
// failed insert never leaves a dangling database row.
func (s *StudentService) Create(ctx context.Context, actor Actor, req models.SaveStudentRequest, image *multipart.FileHeader) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	taken, err := s.repo.ExistsByCode(ctx, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student code")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student code already exists")
	}

	student := &models.Student{
		Code:        req.Code,
		FullName:    req.FullName,
		Gender:      req.Gender,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		StageID:     req.StageID,
		StudyTypeID: req.StudyTypeID,
		GroupID:     req.GroupID,
	}
	if image != nil {
		path, err := s.storage.SaveUpload(studentImageDir, image)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store student image")
		}
		student.ImagePath = &path
	}

	if err := s.repo.Create(ctx, student); err != nil {
		if student.ImagePath != nil {
			if cleanupErr := s.storage.Delete(*student.ImagePath); cleanupErr != nil {
				s.logger.Warn("failed to remove orphaned student image", zap.Error(cleanupErr))
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.activity.Record(ctx, actor, "student", student.ID, models.ActivityCreated, "created student "+student.FullName, &models.ActivityChange{New: student})
	return s.Get(ctx, student.ID)
}

// Update modifies a student. Supplying a new image releases the old file
// after the row is saved.
func (s *StudentService) Update(ctx context.Context, actor Actor, id string, req models.SaveStudentRequest, image *multipart.FileHeader) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	taken, err := s.repo.ExistsByCode(ctx, req.Code, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student code")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student code already exists")
	}

	previous := existing.Student
	student := existing.Student
	student.Code = req.Code
	student.FullName = req.FullName
	student.Gender = req.Gender
	student.PhoneNumber = req.PhoneNumber
	student.Address = req.Address
	student.StageID = req.StageID
	student.StudyTypeID = req.StudyTypeID
	student.GroupID = req.GroupID

	var replacedImage string
	if image != nil {
		path, err := s.storage.SaveUpload(studentImageDir, image)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store student image")
		}
		if student.ImagePath != nil {
			replacedImage = *student.ImagePath
		}
		student.ImagePath = &path
	}

	if err := s.repo.Update(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	if replacedImage != "" {
		if err := s.storage.Delete(replacedImage); err != nil {
			s.logger.Warn("failed to remove replaced student image", zap.Error(err))
		}
	}

	s.activity.Record(ctx, actor, "student", student.ID, models.ActivityUpdated, "updated student "+student.FullName, &models.ActivityChange{Old: previous, New: student})
	return s.Get(ctx, student.ID)
}

// Delete removes one student, releasing the stored image first.
func (s *StudentService) Delete(ctx context.Context, actor Actor, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.deleteStudent(ctx, actor, &existing.Student)
}

// deleteStudent performs the image cleanup, row delete and audit record for
// one student. Cascading deletes from stages, groups and study types funnel
// through here so every path behaves identically.
func (s *StudentService) deleteStudent(ctx context.Context, actor Actor, student *models.Student) error {
	if student.ImagePath != nil {
		if err := s.storage.Delete(*student.ImagePath); err != nil {
			s.logger.Warn("failed to remove student image", zap.String("student_id", student.ID), zap.Error(err))
		}
	}
	if err := s.repo.Delete(ctx, student.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.activity.Record(ctx, actor, "student", student.ID, models.ActivityDeleted, "deleted student "+student.FullName, &models.ActivityChange{Old: student})
	return nil
}

// DeleteAll wipes the whole roster: stored images first, then every row in
// one statement. Returns how many students were removed.
func (s *StudentService) DeleteAll(ctx context.Context, actor Actor) (int, error) {
	paths, err := s.repo.ListImagePaths(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student images")
	}
	for _, path := range paths {
		if err := s.storage.Delete(path); err != nil {
			s.logger.Warn("failed to remove student image", zap.String("path", path), zap.Error(err))
		}
	}

	removed, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete students")
	}

	s.activity.Record(ctx, actor, "student", "", models.ActivityDeleted, "deleted all students", nil)
	return removed, nil
}
