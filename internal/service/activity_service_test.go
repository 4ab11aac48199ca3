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

type mockActivityRepo struct {
	entries   []*models.ActivityLog
	createErr error
	listErr   error
}

func (m *mockActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockActivityRepo) List(ctx context.Context, page, pageSize int) ([]models.ActivityLog, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	logs := make([]models.ActivityLog, 0, len(m.entries))
	for _, entry := range m.entries {
		logs = append(logs, *entry)
	}
	return logs, len(m.entries), nil
}

func newTestActivityService() (*ActivityService, *mockActivityRepo) {
	repo := &mockActivityRepo{}
	return NewActivityService(repo, zap.NewNop()), repo
}

func TestActivityServiceRecord(t *testing.T) {
	svc, repo := newTestActivityService()
	actor := Actor{ID: "u1", FullName: "Admin", Role: models.RoleAdmin, IP: "10.0.0.1"}

	svc.Record(context.Background(), actor, "student", "s1", models.ActivityCreated, "created student", &models.ActivityChange{New: "x"})

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.Equal(t, "student", entry.SubjectType)
	assert.Equal(t, models.ActivityCreated, entry.Action)
	assert.Equal(t, "u1", *entry.UserID)
	assert.Equal(t, "s1", *entry.SubjectID)
	assert.Equal(t, "10.0.0.1", entry.IPAddress)
	assert.NotEmpty(t, entry.Properties)
}

func TestActivityServiceRecordSwallowsFailure(t *testing.T) {
	repo := &mockActivityRepo{createErr: errors.New("db down")}
	svc := NewActivityService(repo, zap.NewNop())

	// Must not panic or propagate; a broken trail never blocks the mutation.
	svc.Record(context.Background(), Actor{}, "stage", "", models.ActivityDeleted, "deleted stage", nil)
	assert.Empty(t, repo.entries)
}

func TestActivityServiceListClampsPage(t *testing.T) {
	svc, repo := newTestActivityService()
	repo.entries = append(repo.entries, &models.ActivityLog{ID: "a1"})

	entries, pagination, err := svc.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, activityPageSize, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}
