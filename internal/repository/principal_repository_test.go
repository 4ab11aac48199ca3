package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alrafidain/college-records-api/internal/models"
)

func newPrincipalMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() } //nolint:errcheck
}

func principalColumnsRow(role models.Role) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "full_name", "password_hash", "image_path", "role"}).
		AddRow("p1", "director", "Director", "hash", nil, role)
}

func TestPrincipalRepositoryFindByUsernameOrdersAdminsFirst(t *testing.T) {
	db, mock, cleanup := newPrincipalMock(t)
	defer cleanup()
	repo := NewPrincipalRepository(db)

	// Without a role hint the union query must carry ORDER BY role so an
	// admin wins a username shared with a lecturer.
	mock.ExpectQuery(`UNION ALL .* ORDER BY role LIMIT 1`).
		WithArgs("director").
		WillReturnRows(principalColumnsRow(models.RoleAdmin))

	principal, err := repo.FindByUsername(context.Background(), "director", "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, principal.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrincipalRepositoryFindByUsernameRoleHint(t *testing.T) {
	db, mock, cleanup := newPrincipalMock(t)
	defer cleanup()
	repo := NewPrincipalRepository(db)

	mock.ExpectQuery(`FROM lecturers WHERE username = \$1`).
		WithArgs("director").
		WillReturnRows(principalColumnsRow(models.RoleLecturer))

	principal, err := repo.FindByUsername(context.Background(), "director", models.RoleLecturer)
	require.NoError(t, err)
	assert.Equal(t, models.RoleLecturer, principal.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}
