package service

import (
	"context"
	"mime/multipart"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/alrafidain/college-records-api/internal/models"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
	"github.com/alrafidain/college-records-api/pkg/storage"
)

const profileImageDir = "profiles"

type profilePrincipalRepository interface {
	FindByID(ctx context.Context, id string, role models.Role) (*models.Principal, error)
	ExistsByUsername(ctx context.Context, username string, role models.Role, excludeID string) (bool, error)
	UpdateProfile(ctx context.Context, principal *models.Principal) error
	UpdatePassword(ctx context.Context, id string, role models.Role, passwordHash string) error
	RevokePrincipalTokens(ctx context.Context, principalID string, role models.Role) error
}

// ProfileService lets the authenticated principal manage their own account,
// whichever table they live in.
type ProfileService struct {
	repo      profilePrincipalRepository
	storage   *storage.LocalStorage
	activity  *ActivityService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs a ProfileService.
func NewProfileService(repo profilePrincipalRepository, store *storage.LocalStorage, activity *ActivityService, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProfileService{repo: repo, storage: store, activity: activity, validator: validate, logger: logger}
}

// Get returns the acting principal's profile.
func (s *ProfileService) Get(ctx context.Context, claims *models.JWTClaims) (*models.Principal, error) {
	principal, err := s.repo.FindByID(ctx, claims.PrincipalID, claims.Role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return principal, nil
}

// Update changes the principal's display name, username and optionally the
// avatar. A replaced avatar file is released after the row is saved.
func (s *ProfileService) Update(ctx context.Context, claims *models.JWTClaims, actor Actor, req models.UpdateProfileRequest, image *multipart.FileHeader) (*models.Principal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	principal, err := s.Get(ctx, claims)
	if err != nil {
		return nil, err
	}
	taken, err := s.repo.ExistsByUsername(ctx, req.Username, claims.Role, claims.PrincipalID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already exists")
	}

	principal.FullName = req.FullName
	principal.Username = req.Username

	var replacedImage string
	if image != nil {
		path, err := s.storage.SaveUpload(profileImageDir, image)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store profile image")
		}
		if principal.ImagePath != nil {
			replacedImage = *principal.ImagePath
		}
		principal.ImagePath = &path
	}

	if err := s.repo.UpdateProfile(ctx, principal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	if replacedImage != "" {
		if err := s.storage.Delete(replacedImage); err != nil {
			s.logger.Warn("failed to remove replaced profile image", zap.Error(err))
		}
	}

	s.activity.Record(ctx, actor, "profile", principal.ID, models.ActivityUpdated, "updated own profile", nil)
	return principal, nil
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every outstanding token so other sessions drop immediately.
func (s *ProfileService) ChangePassword(ctx context.Context, claims *models.JWTClaims, actor Actor, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change password payload")
	}
	principal, err := s.Get(ctx, claims)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(principal.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrForbidden, "current password does not match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, principal.ID, claims.Role, string(hash)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	if err := s.repo.RevokePrincipalTokens(ctx, principal.ID, claims.Role); err != nil {
		s.logger.Warn("failed to revoke tokens after password change", zap.Error(err))
	}

	s.activity.Record(ctx, actor, "profile", principal.ID, models.ActivityUpdated, "changed own password", nil)
	return nil
}
