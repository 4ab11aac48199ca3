package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/alrafidain/college-records-api/internal/models"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
)

type mockPrincipalRepo struct {
	principal      *models.Principal
	findErr        error
	tokens         map[string]*models.Token
	revokedFor     []string
	createTokenErr error
}

func newMockPrincipalRepo() *mockPrincipalRepo {
	return &mockPrincipalRepo{tokens: make(map[string]*models.Token)}
}

func (m *mockPrincipalRepo) FindByUsername(ctx context.Context, username string, roleHint models.Role) (*models.Principal, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.principal == nil || m.principal.Username != username {
		return nil, sql.ErrNoRows
	}
	return m.principal, nil
}

func (m *mockPrincipalRepo) FindByID(ctx context.Context, id string, role models.Role) (*models.Principal, error) {
	if m.principal == nil || m.principal.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.principal, nil
}

func (m *mockPrincipalRepo) CreateToken(ctx context.Context, token *models.Token) error {
	if m.createTokenErr != nil {
		return m.createTokenErr
	}
	m.tokens[token.ID] = token
	return nil
}

func (m *mockPrincipalRepo) FindToken(ctx context.Context, id string) (*models.Token, error) {
	token, ok := m.tokens[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return token, nil
}

func (m *mockPrincipalRepo) RevokeToken(ctx context.Context, id string) error {
	if token, ok := m.tokens[id]; ok {
		now := time.Now().UTC()
		token.Revoked = true
		token.RevokedAt = &now
	}
	return nil
}

func (m *mockPrincipalRepo) RevokePrincipalTokens(ctx context.Context, principalID string, role models.Role) error {
	m.revokedFor = append(m.revokedFor, principalID)
	for _, token := range m.tokens {
		if token.PrincipalID == principalID {
			now := time.Now().UTC()
			token.Revoked = true
			token.RevokedAt = &now
		}
	}
	return nil
}

func newTestAuthService(repo *mockPrincipalRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		Secret:     "secret",
		Expiration: time.Hour,
		Issuer:     "test",
	})
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := newMockPrincipalRepo()
	repo.principal = &models.Principal{ID: "p1", Username: "admin", FullName: "Admin", PasswordHash: hashPassword(t, "password"), Role: models.RoleAdmin}
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "password", Type: "admin"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, string(models.RoleAdmin), res.Role)
	assert.Len(t, repo.tokens, 1)
	assert.Equal(t, []string{"p1"}, repo.revokedFor)
}

func TestAuthServiceLoginDisplacesPreviousSession(t *testing.T) {
	repo := newMockPrincipalRepo()
	repo.principal = &models.Principal{ID: "p1", Username: "admin", FullName: "Admin", PasswordHash: hashPassword(t, "password"), Role: models.RoleAdmin}
	svc := newTestAuthService(repo)

	first, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "password"})
	require.NoError(t, err)
	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "password"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), first.AccessToken)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newMockPrincipalRepo()
	repo.principal = &models.Principal{ID: "p1", Username: "admin", PasswordHash: hashPassword(t, "password"), Role: models.RoleAdmin}
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "wrong"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Status, appErr.Status)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Message, appErr.Message)
}

func TestAuthServiceLoginUnknownUsername(t *testing.T) {
	repo := newMockPrincipalRepo()
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "ghost", Password: "password"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceValidateTokenRoundTrip(t *testing.T) {
	repo := newMockPrincipalRepo()
	repo.principal = &models.Principal{ID: "p1", Username: "lect", FullName: "Lecturer", PasswordHash: hashPassword(t, "password"), Role: models.RoleLecturer}
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "lect", Password: "password", Type: "lecturer"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(context.Background(), res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "p1", claims.PrincipalID)
	assert.Equal(t, models.RoleLecturer, claims.Role)
	assert.Equal(t, "lect", claims.Username)
}

func TestAuthServiceValidateTokenAfterLogout(t *testing.T) {
	repo := newMockPrincipalRepo()
	repo.principal = &models.Principal{ID: "p1", Username: "admin", PasswordHash: hashPassword(t, "password"), Role: models.RoleAdmin}
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "password"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(context.Background(), res.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims))

	_, err = svc.ValidateToken(context.Background(), res.AccessToken)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthServiceLogoutForeignToken(t *testing.T) {
	repo := newMockPrincipalRepo()
	repo.principal = &models.Principal{ID: "p1", Username: "admin", PasswordHash: hashPassword(t, "password"), Role: models.RoleAdmin}
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "password"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(context.Background(), res.AccessToken)
	require.NoError(t, err)

	claims.PrincipalID = "someone-else"
	err = svc.Logout(context.Background(), claims)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestAuthServiceValidateTokenWrongSecret(t *testing.T) {
	repo := newMockPrincipalRepo()
	repo.principal = &models.Principal{ID: "p1", Username: "admin", PasswordHash: hashPassword(t, "password"), Role: models.RoleAdmin}
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "password"})
	require.NoError(t, err)

	other := NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{Secret: "different", Expiration: time.Hour})
	_, err = other.ValidateToken(context.Background(), res.AccessToken)
	require.Error(t, err)
}
