package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alrafidain/college-records-api/internal/models"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
)

type mockGradeRepo struct {
	ledger    []models.GradeLedgerRow
	upserted  []models.Grade
	upsertErr error
}

func (m *mockGradeRepo) ListLedger(ctx context.Context, courseID, stageID, groupID string) ([]models.GradeLedgerRow, error) {
	return m.ledger, nil
}

func (m *mockGradeRepo) BulkUpsert(ctx context.Context, grades []models.Grade) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = grades
	return nil
}

type mockGradeCourseRepo struct {
	course   *models.CourseDetail
	assigned bool
}

func (m *mockGradeCourseRepo) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	if m.course == nil || m.course.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.course, nil
}

func (m *mockGradeCourseRepo) IsAssignedToLecturer(ctx context.Context, courseID, lecturerID string) (bool, error) {
	return m.assigned, nil
}

type mockGradeStudentRepo struct {
	students map[string]*models.StudentDetail
}

func (m *mockGradeStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return student, nil
}

func floatPtr(v float64) *float64 { return &v }

func newGradeFixture() (courseID, stageID, studentID string, repo *mockGradeRepo, svc *GradeService, students *mockGradeStudentRepo, courses *mockGradeCourseRepo) {
	courseID = uuid.NewString()
	stageID = uuid.NewString()
	studentID = uuid.NewString()

	repo = &mockGradeRepo{}
	courses = &mockGradeCourseRepo{course: &models.CourseDetail{Course: models.Course{ID: courseID, Name: "Algorithms", StageID: stageID}}}
	students = &mockGradeStudentRepo{students: map[string]*models.StudentDetail{
		studentID: {Student: models.Student{ID: studentID, StageID: stageID, FullName: "Student"}},
	}}
	activity, _ := newTestActivityService()
	svc = NewGradeService(repo, courses, students, activity, validator.New(), zap.NewNop())
	return
}

func TestGradeServiceSave(t *testing.T) {
	courseID, _, studentID, repo, svc, _, _ := newGradeFixture()

	err := svc.Save(context.Background(), Actor{Role: models.RoleAdmin}, models.SaveGradesRequest{
		CourseID: courseID,
		Grades: []models.GradeEntry{{
			StudentID: studentID,
			Quizzes:   floatPtr(8),
			FinalExam: floatPtr(42),
		}},
	})
	require.NoError(t, err)
	require.Len(t, repo.upserted, 1)
	assert.Equal(t, studentID, repo.upserted[0].StudentID)
	assert.Equal(t, courseID, repo.upserted[0].CourseID)
	assert.Equal(t, 8.0, *repo.upserted[0].Quizzes)
	assert.Nil(t, repo.upserted[0].Projects)
}

func TestGradeServiceSaveComponentOutOfRange(t *testing.T) {
	courseID, _, studentID, repo, svc, _, _ := newGradeFixture()

	err := svc.Save(context.Background(), Actor{Role: models.RoleAdmin}, models.SaveGradesRequest{
		CourseID: courseID,
		Grades:   []models.GradeEntry{{StudentID: studentID, Quizzes: floatPtr(11)}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.upserted)
}

func TestGradeServiceSaveFinalExamAboveCap(t *testing.T) {
	courseID, _, studentID, _, svc, _, _ := newGradeFixture()

	err := svc.Save(context.Background(), Actor{Role: models.RoleAdmin}, models.SaveGradesRequest{
		CourseID: courseID,
		Grades:   []models.GradeEntry{{StudentID: studentID, FinalExam: floatPtr(51)}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceSaveDuplicateStudent(t *testing.T) {
	courseID, _, studentID, repo, svc, _, _ := newGradeFixture()

	err := svc.Save(context.Background(), Actor{Role: models.RoleAdmin}, models.SaveGradesRequest{
		CourseID: courseID,
		Grades: []models.GradeEntry{
			{StudentID: studentID, Quizzes: floatPtr(5)},
			{StudentID: studentID, Quizzes: floatPtr(6)},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.upserted)
}

func TestGradeServiceSaveStageMismatch(t *testing.T) {
	courseID, _, studentID, repo, svc, students, _ := newGradeFixture()
	students.students[studentID].StageID = uuid.NewString()

	err := svc.Save(context.Background(), Actor{Role: models.RoleAdmin}, models.SaveGradesRequest{
		CourseID: courseID,
		Grades:   []models.GradeEntry{{StudentID: studentID, Quizzes: floatPtr(5)}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.upserted)
}

func TestGradeServiceSaveUnknownStudent(t *testing.T) {
	courseID, _, _, repo, svc, _, _ := newGradeFixture()

	err := svc.Save(context.Background(), Actor{Role: models.RoleAdmin}, models.SaveGradesRequest{
		CourseID: courseID,
		Grades:   []models.GradeEntry{{StudentID: uuid.NewString(), Quizzes: floatPtr(5)}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.upserted)
}

func TestGradeServiceLecturerMustBeAssigned(t *testing.T) {
	courseID, _, _, _, svc, _, courses := newGradeFixture()
	courses.assigned = false

	_, err := svc.Ledger(context.Background(), Actor{ID: "l1", Role: models.RoleLecturer}, courseID, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	courses.assigned = true
	_, err = svc.Ledger(context.Background(), Actor{ID: "l1", Role: models.RoleLecturer}, courseID, "")
	require.NoError(t, err)
}

func TestGradeServiceLedgerUnknownCourse(t *testing.T) {
	_, _, _, _, svc, _, _ := newGradeFixture()

	_, err := svc.Ledger(context.Background(), Actor{Role: models.RoleAdmin}, uuid.NewString(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGradeCourseworkAndTotal(t *testing.T) {
	grade := models.Grade{
		Quizzes:          floatPtr(7),
		Projects:         floatPtr(9),
		MidtermPractical: floatPtr(10),
		FinalExam:        floatPtr(40),
	}
	assert.Equal(t, 26.0, grade.Coursework())
	assert.Equal(t, 66.0, grade.Total())

	empty := models.Grade{}
	assert.Equal(t, 0.0, empty.Coursework())
	assert.Equal(t, 0.0, empty.Total())
}
