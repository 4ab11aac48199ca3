package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/alrafidain/college-records-api/internal/models"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
)

const activityPageSize = 10

type activityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, page, pageSize int) ([]models.ActivityLog, int, error)
}

// Actor identifies who performed an operation. Handlers build it from the
// authenticated principal and the request IP.
type Actor struct {
	ID       string
	FullName string
	Role     models.Role
	IP       string
}

// ActivityService records audit trail entries as an explicit step of each
// mutating operation and serves the paginated history.
type ActivityService struct {
	repo   activityLogRepository
	logger *zap.Logger
}

// NewActivityService constructs an ActivityService.
func NewActivityService(repo activityLogRepository, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, logger: logger}
}

// Record appends one audit entry. Failures are logged and swallowed so a
// broken trail never blocks the operation that triggered it.
func (s *ActivityService) Record(ctx context.Context, actor Actor, subjectType, subjectID, action, description string, change *models.ActivityChange) {
	entry := &models.ActivityLog{
		SubjectType: subjectType,
		Action:      action,
		Description: description,
		IPAddress:   actor.IP,
	}
	if actor.ID != "" {
		id := actor.ID
		name := actor.FullName
		entry.UserID = &id
		entry.UserName = &name
	}
	if subjectID != "" {
		id := subjectID
		entry.SubjectID = &id
	}
	if change != nil {
		raw, err := json.Marshal(change)
		if err != nil {
			s.logger.Warn("failed to encode activity properties", zap.Error(err))
		} else {
			entry.Properties = raw
		}
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record activity",
			zap.String("subject_type", subjectType),
			zap.String("action", action),
			zap.Error(err))
	}
}

// List returns one page of the audit trail, newest first.
func (s *ActivityService) List(ctx context.Context, page int) ([]models.ActivityLog, models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	entries, total, err := s.repo.List(ctx, page, activityPageSize)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activity logs")
	}
	return entries, models.Pagination{Page: page, PageSize: activityPageSize, TotalCount: total}, nil
}
