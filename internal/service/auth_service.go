package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/alrafidain/college-records-api/internal/models"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
)

type authPrincipalRepository interface {
	FindByUsername(ctx context.Context, username string, roleHint models.Role) (*models.Principal, error)
	FindByID(ctx context.Context, id string, role models.Role) (*models.Principal, error)
	CreateToken(ctx context.Context, token *models.Token) error
	FindToken(ctx context.Context, id string) (*models.Token, error)
	RevokeToken(ctx context.Context, id string) error
	RevokePrincipalTokens(ctx context.Context, principalID string, role models.Role) error
}

// AuthConfig defines configuration for the authentication flow.
type AuthConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AuthService authenticates admins and lecturers through the single
// principal path and manages issued tokens.
type AuthService struct {
	repo      authPrincipalRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authPrincipalRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{repo: repo, validator: validate, logger: logger, config: config}
}

// Login authenticates a principal and issues a fresh access token. Any token
// previously issued to the same principal is revoked so only the newest
// session stays valid.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	var roleHint models.Role
	switch req.Type {
	case "admin":
		roleHint = models.RoleAdmin
	case "lecturer":
		roleHint = models.RoleLecturer
	}

	principal, err := s.repo.FindByUsername(ctx, req.Username, roleHint)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch principal")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(principal.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	if err := s.repo.RevokePrincipalTokens(ctx, principal.ID, principal.Role); err != nil {
		s.logger.Warn("failed to revoke previous tokens", zap.Error(err))
	}

	tokenID := uuid.NewString()
	accessToken, expiresAt, err := s.generateAccessToken(principal, tokenID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	record := &models.Token{
		ID:          tokenID,
		PrincipalID: principal.ID,
		Role:        principal.Role,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now().UTC(),
		IPAddress:   req.IP,
	}
	if err := s.repo.CreateToken(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist token")
	}

	return &models.LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.config.Expiration.Seconds()),
		User: models.PrincipalInfo{
			ID:       principal.ID,
			Username: principal.Username,
			FullName: principal.FullName,
			Role:     principal.Role,
		},
		Role: string(principal.Role),
	}, nil
}

// Logout revokes the token identified by the claims' token ID.
func (s *AuthService) Logout(ctx context.Context, claims *models.JWTClaims) error {
	stored, err := s.repo.FindToken(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrUnauthorized, "token not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load token")
	}
	if stored.PrincipalID != claims.PrincipalID {
		return appErrors.Clone(appErrors.ErrForbidden, "token does not belong to principal")
	}
	if err := s.repo.RevokeToken(ctx, stored.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke token")
	}
	return nil
}

// ValidateToken parses the token, verifies the signature and rejects tokens
// revoked by a later login or an explicit logout.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	stored, err := s.repo.FindToken(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token not recognised")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load token")
	}
	if stored.Revoked || time.Now().UTC().After(stored.ExpiresAt) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token is expired or revoked")
	}

	return claims, nil
}

// CurrentPrincipal loads the principal behind validated claims.
func (s *AuthService) CurrentPrincipal(ctx context.Context, claims *models.JWTClaims) (*models.Principal, error) {
	principal, err := s.repo.FindByID(ctx, claims.PrincipalID, claims.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "principal no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load principal")
	}
	return principal, nil
}

func (s *AuthService) generateAccessToken(principal *models.Principal, tokenID string) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.Expiration)
	claims := &models.JWTClaims{
		PrincipalID: principal.ID,
		Role:        principal.Role,
		Username:    principal.Username,
		FullName:    principal.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Issuer:    s.config.Issuer,
			Subject:   principal.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
