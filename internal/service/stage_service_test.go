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
	"github.com/alrafidain/college-records-api/pkg/storage"
)

type mockStageRepo struct {
	stages         map[string]*models.Stage
	configurations map[string][]models.StageConfiguration
	takenCodes     map[string]string
	lastLecturerID string
	deleted        []string
}

func newMockStageRepo() *mockStageRepo {
	return &mockStageRepo{
		stages:         make(map[string]*models.Stage),
		configurations: make(map[string][]models.StageConfiguration),
		takenCodes:     make(map[string]string),
	}
}

func (m *mockStageRepo) List(ctx context.Context, lecturerID string) ([]models.Stage, error) {
	m.lastLecturerID = lecturerID
	stages := make([]models.Stage, 0, len(m.stages))
	for _, stage := range m.stages {
		stages = append(stages, *stage)
	}
	return stages, nil
}

func (m *mockStageRepo) FindByID(ctx context.Context, id string) (*models.Stage, error) {
	stage, ok := m.stages[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stage, nil
}

func (m *mockStageRepo) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	owner, taken := m.takenCodes[code]
	return taken && owner != excludeID, nil
}

func (m *mockStageRepo) Create(ctx context.Context, stage *models.Stage, configurations []models.StageConfiguration) error {
	if stage.ID == "" {
		stage.ID = uuid.NewString()
	}
	m.stages[stage.ID] = stage
	m.configurations[stage.ID] = configurations
	m.takenCodes[stage.Code] = stage.ID
	return nil
}

func (m *mockStageRepo) Update(ctx context.Context, stage *models.Stage, configurations []models.StageConfiguration) error {
	m.stages[stage.ID] = stage
	m.configurations[stage.ID] = configurations
	return nil
}

func (m *mockStageRepo) ListConfigurations(ctx context.Context, stageID string) ([]models.StageConfigurationDetail, error) {
	details := make([]models.StageConfigurationDetail, 0, len(m.configurations[stageID]))
	for _, configuration := range m.configurations[stageID] {
		details = append(details, models.StageConfigurationDetail{StageConfiguration: configuration})
	}
	return details, nil
}

func (m *mockStageRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.stages, id)
	return nil
}

type mockStudyTypeLookup struct {
	known map[string]bool
}

func (m *mockStudyTypeLookup) FindByID(ctx context.Context, id string) (*models.StudyType, error) {
	if !m.known[id] {
		return nil, sql.ErrNoRows
	}
	return &models.StudyType{ID: id, Name: "Morning"}, nil
}

type mockGroupLookup struct {
	known map[string]bool
}

func (m *mockGroupLookup) FindByID(ctx context.Context, id string) (*models.Group, error) {
	if !m.known[id] {
		return nil, sql.ErrNoRows
	}
	return &models.Group{ID: id, Symbol: "A"}, nil
}

type mockStageCourseRepo struct {
	softDeletedStages []string
}

func (m *mockStageCourseRepo) SoftDeleteByStage(ctx context.Context, stageID string) error {
	m.softDeletedStages = append(m.softDeletedStages, stageID)
	return nil
}

type stageFixture struct {
	svc         *StageService
	repo        *mockStageRepo
	students    *mockStudentRepo
	courses     *mockStageCourseRepo
	groups      *mockGroupLookup
	store       *storage.LocalStorage
	studyTypeID string
	groupID     string
}

func newStageFixture(t *testing.T) *stageFixture {
	t.Helper()

	repo := newMockStageRepo()
	students := newMockStudentRepo()
	courses := &mockStageCourseRepo{}
	studyTypeID := uuid.NewString()
	groupID := uuid.NewString()
	studyTypes := &mockStudyTypeLookup{known: map[string]bool{studyTypeID: true}}
	groups := &mockGroupLookup{known: map[string]bool{groupID: true}}

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	activity, _ := newTestActivityService()
	cascade := NewStudentService(students, store, activity, validator.New(), zap.NewNop())

	svc := NewStageService(repo, studyTypes, groups, students, courses, cascade, activity, validator.New(), zap.NewNop())
	return &stageFixture{
		svc:         svc,
		repo:        repo,
		students:    students,
		courses:     courses,
		groups:      groups,
		store:       store,
		studyTypeID: studyTypeID,
		groupID:     groupID,
	}
}

func TestStageServiceCreateWithConfigurations(t *testing.T) {
	f := newStageFixture(t)

	detail, err := f.svc.Create(context.Background(), Actor{Role: models.RoleAdmin}, models.SaveStageRequest{
		Name: "First Stage",
		Code: "S1",
		StudyTypes: []models.StageStudyTypeInput{
			{ID: f.studyTypeID, Groups: []string{f.groupID}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "First Stage", detail.Name)
	require.Len(t, detail.Configurations, 1)
	assert.Equal(t, f.studyTypeID, detail.Configurations[0].StudyTypeID)
}

func TestStageServiceCreateFlattensGroupList(t *testing.T) {
	f := newStageFixture(t)
	secondGroupID := uuid.NewString()
	f.groups.known[secondGroupID] = true

	// One study type with two groups yields one configuration row per pairing.
	detail, err := f.svc.Create(context.Background(), Actor{Role: models.RoleAdmin}, models.SaveStageRequest{
		Name: "First Stage",
		Code: "S1",
		StudyTypes: []models.StageStudyTypeInput{
			{ID: f.studyTypeID, Groups: []string{f.groupID, secondGroupID}},
		},
	})
	require.NoError(t, err)
	require.Len(t, detail.Configurations, 2)
	assert.Equal(t, f.groupID, detail.Configurations[0].GroupID)
	assert.Equal(t, secondGroupID, detail.Configurations[1].GroupID)
	for _, configuration := range detail.Configurations {
		assert.Equal(t, f.studyTypeID, configuration.StudyTypeID)
	}
}

func TestStageServiceCreateDuplicatePairing(t *testing.T) {
	f := newStageFixture(t)

	_, err := f.svc.Create(context.Background(), Actor{}, models.SaveStageRequest{
		Name: "First Stage",
		Code: "S1",
		StudyTypes: []models.StageStudyTypeInput{
			{ID: f.studyTypeID, Groups: []string{f.groupID, f.groupID}},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStageServiceCreateUnknownStudyType(t *testing.T) {
	f := newStageFixture(t)

	_, err := f.svc.Create(context.Background(), Actor{}, models.SaveStageRequest{
		Name: "First Stage",
		Code: "S1",
		StudyTypes: []models.StageStudyTypeInput{
			{ID: uuid.NewString(), Groups: []string{f.groupID}},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStageServiceCreateDuplicateCode(t *testing.T) {
	f := newStageFixture(t)
	f.repo.takenCodes["S1"] = "existing"

	_, err := f.svc.Create(context.Background(), Actor{}, models.SaveStageRequest{Name: "First Stage", Code: "S1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStageServiceUpdateReplacesConfigurations(t *testing.T) {
	f := newStageFixture(t)

	created, err := f.svc.Create(context.Background(), Actor{}, models.SaveStageRequest{
		Name: "First Stage",
		Code: "S1",
		StudyTypes: []models.StageStudyTypeInput{
			{ID: f.studyTypeID, Groups: []string{f.groupID}},
		},
	})
	require.NoError(t, err)

	updated, err := f.svc.Update(context.Background(), Actor{}, created.ID, models.SaveStageRequest{
		Name: "First Stage Renamed",
		Code: "S1",
	})
	require.NoError(t, err)
	assert.Equal(t, "First Stage Renamed", updated.Name)
	assert.Empty(t, updated.Configurations)
}

func TestStageServiceListScopesLecturer(t *testing.T) {
	f := newStageFixture(t)

	_, err := f.svc.List(context.Background(), Actor{ID: "l1", Role: models.RoleLecturer})
	require.NoError(t, err)
	assert.Equal(t, "l1", f.repo.lastLecturerID)

	_, err = f.svc.List(context.Background(), Actor{ID: "a1", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "", f.repo.lastLecturerID)
}

func TestStageServiceDeleteCascades(t *testing.T) {
	f := newStageFixture(t)

	created, err := f.svc.Create(context.Background(), Actor{}, models.SaveStageRequest{Name: "First Stage", Code: "S1"})
	require.NoError(t, err)

	imagePath, err := f.store.Save("students/photo.jpg", []byte("fake image"))
	require.NoError(t, err)
	student := models.Student{ID: uuid.NewString(), Code: "CS-001", FullName: "Ali", StageID: created.ID, ImagePath: &imagePath}
	f.students.students[student.ID] = &models.StudentDetail{Student: student}

	require.NoError(t, f.svc.Delete(context.Background(), Actor{}, created.ID))

	assert.Equal(t, []string{student.ID}, f.students.deleted)
	assert.False(t, f.store.Exists(imagePath))
	assert.Equal(t, []string{created.ID}, f.courses.softDeletedStages)
	assert.Equal(t, []string{created.ID}, f.repo.deleted)
}

func TestStageServiceDeleteUnknown(t *testing.T) {
	f := newStageFixture(t)

	err := f.svc.Delete(context.Background(), Actor{}, uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
