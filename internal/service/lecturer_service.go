package service

import (
	"context"
	"database/sql"
	"errors"
	"mime/multipart"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/alrafidain/college-records-api/internal/models"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
	"github.com/alrafidain/college-records-api/pkg/storage"
)

const lecturerImageDir = "lecturers"

type lecturerRepository interface {
	List(ctx context.Context) ([]models.Lecturer, error)
	FindByID(ctx context.Context, id string) (*models.Lecturer, error)
	ExistsByUsername(ctx context.Context, username string, excludeID string) (bool, error)
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	Create(ctx context.Context, lecturer *models.Lecturer, assignments models.LecturerAssignments) error
	Update(ctx context.Context, lecturer *models.Lecturer, assignments models.LecturerAssignments) error
	GetAssignments(ctx context.Context, lecturerID string) (models.LecturerAssignments, error)
	Delete(ctx context.Context, id string) error
}

// LecturerService manages teaching staff accounts and their assignment
// scopes. Passwords are hashed with bcrypt; the four assignment sets are
// replaced wholesale on every save.
type LecturerService struct {
	repo      lecturerRepository
	storage   *storage.LocalStorage
	activity  *ActivityService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLecturerService constructs a LecturerService.
func NewLecturerService(repo lecturerRepository, store *storage.LocalStorage, activity *ActivityService, validate *validator.Validate, logger *zap.Logger) *LecturerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LecturerService{repo: repo, storage: store, activity: activity, validator: validate, logger: logger}
}

// List returns every lecturer.
func (s *LecturerService) List(ctx context.Context) ([]models.Lecturer, error) {
	lecturers, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lecturers")
	}
	return lecturers, nil
}

// Get fetches one lecturer with their assignment sets.
func (s *LecturerService) Get(ctx context.Context, id string) (*models.LecturerDetail, error) {
	lecturer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}
	assignments, err := s.repo.GetAssignments(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer assignments")
	}
	return &models.LecturerDetail{Lecturer: *lecturer, Assignments: assignments}, nil
}

// Create registers a lecturer account. Password is mandatory here even
// though the shared request type marks it optional for updates.
func (s *LecturerService) Create(ctx context.Context, actor Actor, req models.SaveLecturerRequest, image *multipart.FileHeader) (*models.LecturerDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecturer payload")
	}
	if req.Password == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "password is required")
	}
	if err := s.checkUniqueness(ctx, req, ""); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	lecturer := &models.Lecturer{
		FullName:      req.FullName,
		Username:      req.Username,
		PasswordHash:  string(hash),
		Code:          req.Code,
		Certificate:   req.Certificate,
		AcademicTitle: req.AcademicTitle,
	}
	if image != nil {
		path, err := s.storage.SaveUpload(lecturerImageDir, image)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store lecturer image")
		}
		lecturer.ImagePath = &path
	}

	if err := s.repo.Create(ctx, lecturer, normalizeAssignments(req.Assignments)); err != nil {
		if lecturer.ImagePath != nil {
			if cleanupErr := s.storage.Delete(*lecturer.ImagePath); cleanupErr != nil {
				s.logger.Warn("failed to remove orphaned lecturer image", zap.Error(cleanupErr))
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lecturer")
	}

	s.activity.Record(ctx, actor, "lecturer", lecturer.ID, models.ActivityCreated, "created lecturer "+lecturer.FullName, &models.ActivityChange{New: lecturer})
	return s.Get(ctx, lecturer.ID)
}

// Update modifies a lecturer. An empty password keeps the current hash; a
// new image releases the previous file after the row is saved.
func (s *LecturerService) Update(ctx context.Context, actor Actor, id string, req models.SaveLecturerRequest, image *multipart.FileHeader) (*models.LecturerDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecturer payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkUniqueness(ctx, req, id); err != nil {
		return nil, err
	}

	previous := existing.Lecturer
	lecturer := existing.Lecturer
	lecturer.FullName = req.FullName
	lecturer.Username = req.Username
	lecturer.Code = req.Code
	lecturer.Certificate = req.Certificate
	lecturer.AcademicTitle = req.AcademicTitle
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		lecturer.PasswordHash = string(hash)
	}

	var replacedImage string
	if image != nil {
		path, err := s.storage.SaveUpload(lecturerImageDir, image)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store lecturer image")
		}
		if lecturer.ImagePath != nil {
			replacedImage = *lecturer.ImagePath
		}
		lecturer.ImagePath = &path
	}

	if err := s.repo.Update(ctx, &lecturer, normalizeAssignments(req.Assignments)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lecturer")
	}
	if replacedImage != "" {
		if err := s.storage.Delete(replacedImage); err != nil {
			s.logger.Warn("failed to remove replaced lecturer image", zap.Error(err))
		}
	}

	s.activity.Record(ctx, actor, "lecturer", lecturer.ID, models.ActivityUpdated, "updated lecturer "+lecturer.FullName, &models.ActivityChange{Old: previous, New: lecturer})
	return s.Get(ctx, lecturer.ID)
}

// Delete removes a lecturer, releasing the stored image and revoking any
// outstanding teaching assignments.
func (s *LecturerService) Delete(ctx context.Context, actor Actor, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.ImagePath != nil {
		if err := s.storage.Delete(*existing.ImagePath); err != nil {
			s.logger.Warn("failed to remove lecturer image", zap.Error(err))
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lecturer")
	}
	s.activity.Record(ctx, actor, "lecturer", id, models.ActivityDeleted, "deleted lecturer "+existing.FullName, &models.ActivityChange{Old: existing.Lecturer})
	return nil
}

func (s *LecturerService) checkUniqueness(ctx context.Context, req models.SaveLecturerRequest, excludeID string) error {
	usernameTaken, err := s.repo.ExistsByUsername(ctx, req.Username, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check lecturer username")
	}
	if usernameTaken {
		return appErrors.Clone(appErrors.ErrConflict, "username already exists")
	}
	codeTaken, err := s.repo.ExistsByCode(ctx, req.Code, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check lecturer code")
	}
	if codeTaken {
		return appErrors.Clone(appErrors.ErrConflict, "lecturer code already exists")
	}
	return nil
}

// normalizeAssignments replaces nil slices with empty ones so a partial
// payload clears the omitted sets instead of failing.
func normalizeAssignments(a models.LecturerAssignments) models.LecturerAssignments {
	if a.StageIDs == nil {
		a.StageIDs = []string{}
	}
	if a.CourseIDs == nil {
		a.CourseIDs = []string{}
	}
	if a.GroupIDs == nil {
		a.GroupIDs = []string{}
	}
	if a.StudyTypeIDs == nil {
		a.StudyTypeIDs = []string{}
	}
	return a
}
