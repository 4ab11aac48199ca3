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

type mockScheduleRepo struct {
	schedules map[string]*models.ScheduleDetail
	deleted   []string
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{schedules: make(map[string]*models.ScheduleDetail)}
}

func (m *mockScheduleRepo) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, error) {
	schedules := make([]models.ScheduleDetail, 0, len(m.schedules))
	for _, schedule := range m.schedules {
		schedules = append(schedules, *schedule)
	}
	return schedules, nil
}

func (m *mockScheduleRepo) FindByID(ctx context.Context, id string) (*models.ScheduleDetail, error) {
	schedule, ok := m.schedules[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return schedule, nil
}

func (m *mockScheduleRepo) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	m.schedules[schedule.ID] = &models.ScheduleDetail{Schedule: *schedule}
	return nil
}

func (m *mockScheduleRepo) Update(ctx context.Context, schedule *models.Schedule) error {
	m.schedules[schedule.ID] = &models.ScheduleDetail{Schedule: *schedule}
	return nil
}

func (m *mockScheduleRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.schedules, id)
	return nil
}

func validScheduleRequest() models.SaveScheduleRequest {
	return models.SaveScheduleRequest{
		StageID:    uuid.NewString(),
		GroupID:    uuid.NewString(),
		CourseID:   uuid.NewString(),
		LecturerID: uuid.NewString(),
		Day:        "Sunday",
		StartTime:  "08:30",
		EndTime:    "10:00",
		Type:       "theory",
	}
}

func newTestScheduleService() (*ScheduleService, *mockScheduleRepo) {
	repo := newMockScheduleRepo()
	activity, _ := newTestActivityService()
	return NewScheduleService(repo, activity, validator.New(), zap.NewNop()), repo
}

func TestScheduleServiceCreate(t *testing.T) {
	svc, repo := newTestScheduleService()

	detail, err := svc.Create(context.Background(), Actor{Role: models.RoleAdmin}, validScheduleRequest())
	require.NoError(t, err)
	assert.Equal(t, "sunday", detail.Day)
	assert.Equal(t, models.ScheduleTheory, detail.Type)
	assert.Len(t, repo.schedules, 1)
}

func TestScheduleServiceCreateInvalidDay(t *testing.T) {
	svc, _ := newTestScheduleService()

	req := validScheduleRequest()
	req.Day = "someday"
	_, err := svc.Create(context.Background(), Actor{}, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceCreateInvalidTimes(t *testing.T) {
	svc, _ := newTestScheduleService()

	req := validScheduleRequest()
	req.StartTime = "8h30"
	_, err := svc.Create(context.Background(), Actor{}, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = validScheduleRequest()
	req.StartTime = "10:00"
	req.EndTime = "10:00"
	_, err = svc.Create(context.Background(), Actor{}, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = validScheduleRequest()
	req.StartTime = "12:00"
	req.EndTime = "09:00"
	_, err = svc.Create(context.Background(), Actor{}, req)
	require.Error(t, err)
}

func TestScheduleServiceCreateInvalidType(t *testing.T) {
	svc, _ := newTestScheduleService()

	req := validScheduleRequest()
	req.Type = "seminar"
	_, err := svc.Create(context.Background(), Actor{}, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceUpdate(t *testing.T) {
	svc, _ := newTestScheduleService()

	created, err := svc.Create(context.Background(), Actor{}, validScheduleRequest())
	require.NoError(t, err)

	req := validScheduleRequest()
	req.Day = "Monday"
	updated, err := svc.Update(context.Background(), Actor{}, created.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "monday", updated.Day)
	assert.Equal(t, created.ID, updated.ID)
}

func TestScheduleServiceDelete(t *testing.T) {
	svc, repo := newTestScheduleService()

	created, err := svc.Create(context.Background(), Actor{}, validScheduleRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), Actor{}, created.ID))
	assert.Equal(t, []string{created.ID}, repo.deleted)

	err = svc.Delete(context.Background(), Actor{}, created.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
