package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alrafidain/college-records-api/internal/models"
)

type fixedCounter struct {
	value int
	err   error
	calls int
}

func (c *fixedCounter) Count(ctx context.Context) (int, error) {
	c.calls++
	return c.value, c.err
}

type mockDashboardStudentRepo struct {
	count  int
	recent []models.StudentDetail
}

func (m *mockDashboardStudentRepo) Count(ctx context.Context) (int, error) {
	return m.count, nil
}

func (m *mockDashboardStudentRepo) ListRecent(ctx context.Context, limit int) ([]models.StudentDetail, error) {
	if limit < len(m.recent) {
		return m.recent[:limit], nil
	}
	return m.recent, nil
}

func TestDashboardServiceStats(t *testing.T) {
	students := &mockDashboardStudentRepo{
		count: 120,
		recent: []models.StudentDetail{
			{Student: models.Student{ID: "s1", FullName: "Newest"}},
			{Student: models.Student{ID: "s2", FullName: "Older"}},
		},
	}
	svc := NewDashboardService(
		students,
		&fixedCounter{value: 14},
		&fixedCounter{value: 4},
		&fixedCounter{value: 32},
		&fixedCounter{value: 3},
		&fixedCounter{value: 2},
		nil, 0, zap.NewNop(),
	)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, stats.Students)
	assert.Equal(t, 14, stats.Lecturers)
	assert.Equal(t, 4, stats.Stages)
	assert.Equal(t, 32, stats.Courses)
	assert.Equal(t, 3, stats.Groups)
	assert.Equal(t, 2, stats.StudyTypes)
	require.Len(t, stats.RecentStudents, 2)
	assert.Equal(t, "Newest", stats.RecentStudents[0].FullName)
}

func TestDashboardServiceStatsCounterFailure(t *testing.T) {
	students := &mockDashboardStudentRepo{}
	svc := NewDashboardService(
		students,
		&fixedCounter{err: errors.New("db down")},
		&fixedCounter{}, &fixedCounter{}, &fixedCounter{}, &fixedCounter{},
		nil, 0, zap.NewNop(),
	)

	_, err := svc.Stats(context.Background())
	require.Error(t, err)
}

func TestDashboardServiceRecountsWithoutCache(t *testing.T) {
	students := &mockDashboardStudentRepo{}
	lecturers := &fixedCounter{value: 1}
	svc := NewDashboardService(
		students, lecturers,
		&fixedCounter{}, &fixedCounter{}, &fixedCounter{}, &fixedCounter{},
		nil, 0, zap.NewNop(),
	)

	_, err := svc.Stats(context.Background())
	require.NoError(t, err)
	_, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, lecturers.calls)
}
