package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alrafidain/college-records-api/internal/models"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
)

const (
	dashboardCacheKey     = "dashboard:stats"
	recentStudentsDisplay = 5
)

type counter interface {
	Count(ctx context.Context) (int, error)
}

type dashboardStudentRepository interface {
	Count(ctx context.Context) (int, error)
	ListRecent(ctx context.Context, limit int) ([]models.StudentDetail, error)
}

// DashboardService aggregates entity counts for the landing dashboard. When
// a Redis client and a positive TTL are configured the computed snapshot is
// cached; otherwise every request recounts.
type DashboardService struct {
	students   dashboardStudentRepository
	lecturers  counter
	stages     counter
	courses    counter
	groups     counter
	studyTypes counter
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewDashboardService constructs a DashboardService. cache may be nil.
func NewDashboardService(students dashboardStudentRepository, lecturers, stages, courses, groups, studyTypes counter, cache *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students:   students,
		lecturers:  lecturers,
		stages:     stages,
		courses:    courses,
		groups:     groups,
		studyTypes: studyTypes,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// Stats returns the dashboard snapshot.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	stats := &models.DashboardStats{}
	counts := []struct {
		dest *int
		repo counter
	}{
		{&stats.Students, s.students},
		{&stats.Lecturers, s.lecturers},
		{&stats.Stages, s.stages},
		{&stats.Courses, s.courses},
		{&stats.Groups, s.groups},
		{&stats.StudyTypes, s.studyTypes},
	}
	for _, c := range counts {
		value, err := c.repo.Count(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute dashboard counts")
		}
		*c.dest = value
	}

	recent, err := s.students.ListRecent(ctx, recentStudentsDisplay)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent students")
	}
	stats.RecentStudents = recent

	s.toCache(ctx, stats)
	return stats, nil
}

func (s *DashboardService) fromCache(ctx context.Context) *models.DashboardStats {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	raw, err := s.cache.Get(ctx, dashboardCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("failed to read dashboard cache", zap.Error(err))
		}
		return nil
	}
	var stats models.DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		s.logger.Warn("failed to decode dashboard cache", zap.Error(err))
		return nil
	}
	return &stats
}

func (s *DashboardService) toCache(ctx context.Context, stats *models.DashboardStats) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		s.logger.Warn("failed to encode dashboard cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("failed to write dashboard cache", zap.Error(err))
	}
}
