package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alrafidain/college-records-api/internal/models"
)

func newStageMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() } //nolint:errcheck
}

func TestStageRepositoryList(t *testing.T) {
	db, mock, cleanup := newStageMock(t)
	defer cleanup()
	repo := NewStageRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "code", "created_at", "updated_at"}).
		AddRow("s1", "First Stage", "S1", time.Now(), time.Now())
	mock.ExpectQuery("SELECT s.id, s.name, s.code").WillReturnRows(rows)

	stages, err := repo.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, stages, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStageRepositoryListScopedToLecturer(t *testing.T) {
	db, mock, cleanup := newStageMock(t)
	defer cleanup()
	repo := NewStageRepository(db)

	mock.ExpectQuery("EXISTS \\(SELECT 1 FROM lecturer_stages").
		WithArgs("l1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "created_at", "updated_at"}))

	stages, err := repo.List(context.Background(), "l1")
	require.NoError(t, err)
	assert.Empty(t, stages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStageRepositoryCreateWithConfigurations(t *testing.T) {
	db, mock, cleanup := newStageMock(t)
	defer cleanup()
	repo := NewStageRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO stages").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO stage_configurations").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO stage_configurations").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	stage := &models.Stage{Name: "First Stage", Code: "S1"}
	err := repo.Create(context.Background(), stage, []models.StageConfiguration{
		{StudyTypeID: "t1", GroupID: "g1"},
		{StudyTypeID: "t1", GroupID: "g2"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, stage.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStageRepositoryUpdateReplacesConfigurations(t *testing.T) {
	db, mock, cleanup := newStageMock(t)
	defer cleanup()
	repo := NewStageRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE stages SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM stage_configurations").
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO stage_configurations").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	stage := &models.Stage{ID: "s1", Name: "First Stage", Code: "S1"}
	err := repo.Update(context.Background(), stage, []models.StageConfiguration{
		{StudyTypeID: "t1", GroupID: "g1"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStageRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newStageMock(t)
	defer cleanup()
	repo := NewStageRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM stage_configurations").
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE stages SET deleted_at").
		WithArgs("s1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStageRepositoryExistsByCode(t *testing.T) {
	db, mock, cleanup := newStageMock(t)
	defer cleanup()
	repo := NewStageRepository(db)

	mock.ExpectQuery("SELECT 1 FROM stages WHERE code").
		WithArgs("S1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	taken, err := repo.ExistsByCode(context.Background(), "S1", "")
	require.NoError(t, err)
	assert.True(t, taken)

	mock.ExpectQuery("SELECT 1 FROM stages WHERE code").
		WithArgs("S2").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	taken, err = repo.ExistsByCode(context.Background(), "S2", "")
	require.NoError(t, err)
	assert.False(t, taken)
	assert.NoError(t, mock.ExpectationsWereMet())
}
