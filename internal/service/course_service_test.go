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

type mockCourseRepo struct {
	courses    map[string]*models.CourseDetail
	takenCodes map[string]string
	assigned   map[string]bool
	lastFilter models.CourseFilter
	deleted    []string
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{
		courses:    make(map[string]*models.CourseDetail),
		takenCodes: make(map[string]string),
		assigned:   make(map[string]bool),
	}
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, error) {
	m.lastFilter = filter
	courses := make([]models.CourseDetail, 0, len(m.courses))
	for _, course := range m.courses {
		courses = append(courses, *course)
	}
	return courses, nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return course, nil
}

func (m *mockCourseRepo) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	owner, taken := m.takenCodes[code]
	return taken && owner != excludeID, nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	m.courses[course.ID] = &models.CourseDetail{Course: *course}
	m.takenCodes[course.Code] = course.ID
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	m.courses[course.ID] = &models.CourseDetail{Course: *course}
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.courses, id)
	return nil
}

func (m *mockCourseRepo) IsAssignedToLecturer(ctx context.Context, courseID, lecturerID string) (bool, error) {
	return m.assigned[courseID+":"+lecturerID], nil
}

type mockCourseStageRepo struct {
	known map[string]bool
}

func (m *mockCourseStageRepo) FindByID(ctx context.Context, id string) (*models.Stage, error) {
	if !m.known[id] {
		return nil, sql.ErrNoRows
	}
	return &models.Stage{ID: id, Name: "First Stage"}, nil
}

func newTestCourseService(stageID string) (*CourseService, *mockCourseRepo) {
	repo := newMockCourseRepo()
	stages := &mockCourseStageRepo{known: map[string]bool{stageID: true}}
	activity, _ := newTestActivityService()
	return NewCourseService(repo, stages, activity, validator.New(), zap.NewNop()), repo
}

func TestCourseServiceCreate(t *testing.T) {
	stageID := uuid.NewString()
	svc, _ := newTestCourseService(stageID)

	semester := 1
	created, err := svc.Create(context.Background(), Actor{Role: models.RoleAdmin}, models.SaveCourseRequest{
		Name:     "Algorithms",
		Code:     "ALG-1",
		StageID:  stageID,
		Type:     "theory",
		Semester: &semester,
	})
	require.NoError(t, err)
	assert.Equal(t, models.CourseTheory, created.Type)
	assert.Equal(t, 1, *created.Semester)
}

func TestCourseServiceCreateYearlyCourse(t *testing.T) {
	stageID := uuid.NewString()
	svc, _ := newTestCourseService(stageID)

	created, err := svc.Create(context.Background(), Actor{}, models.SaveCourseRequest{
		Name:    "Project",
		Code:    "PRJ-1",
		StageID: stageID,
		Type:    "both",
	})
	require.NoError(t, err)
	assert.Nil(t, created.Semester)
}

func TestCourseServiceCreateUnknownStage(t *testing.T) {
	svc, _ := newTestCourseService(uuid.NewString())

	_, err := svc.Create(context.Background(), Actor{}, models.SaveCourseRequest{
		Name:    "Algorithms",
		Code:    "ALG-1",
		StageID: uuid.NewString(),
		Type:    "theory",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceCreateDuplicateCode(t *testing.T) {
	stageID := uuid.NewString()
	svc, repo := newTestCourseService(stageID)
	repo.takenCodes["ALG-1"] = "existing"

	_, err := svc.Create(context.Background(), Actor{}, models.SaveCourseRequest{
		Name:    "Algorithms",
		Code:    "ALG-1",
		StageID: stageID,
		Type:    "theory",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceListScopesLecturer(t *testing.T) {
	svc, repo := newTestCourseService(uuid.NewString())

	_, err := svc.List(context.Background(), Actor{ID: "l1", Role: models.RoleLecturer}, models.CourseFilter{})
	require.NoError(t, err)
	assert.Equal(t, "l1", repo.lastFilter.LecturerID)

	_, err = svc.List(context.Background(), Actor{ID: "a1", Role: models.RoleAdmin}, models.CourseFilter{})
	require.NoError(t, err)
	assert.Equal(t, "", repo.lastFilter.LecturerID)
}

func TestCourseServiceGetLecturerAssignment(t *testing.T) {
	stageID := uuid.NewString()
	svc, repo := newTestCourseService(stageID)

	created, err := svc.Create(context.Background(), Actor{}, models.SaveCourseRequest{
		Name:    "Algorithms",
		Code:    "ALG-1",
		StageID: stageID,
		Type:    "theory",
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), Actor{ID: "l1", Role: models.RoleLecturer}, created.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	repo.assigned[created.ID+":l1"] = true
	course, err := svc.Get(context.Background(), Actor{ID: "l1", Role: models.RoleLecturer}, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, course.ID)
}

func TestCourseServiceDelete(t *testing.T) {
	stageID := uuid.NewString()
	svc, repo := newTestCourseService(stageID)

	created, err := svc.Create(context.Background(), Actor{}, models.SaveCourseRequest{
		Name:    "Algorithms",
		Code:    "ALG-1",
		StageID: stageID,
		Type:    "theory",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), Actor{}, created.ID))
	assert.Equal(t, []string{created.ID}, repo.deleted)

	err = svc.Delete(context.Background(), Actor{}, created.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
