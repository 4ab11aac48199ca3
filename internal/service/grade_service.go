package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alrafidain/college-records-api/internal/models"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
)

type gradeRepository interface {
	ListLedger(ctx context.Context, courseID, stageID, groupID string) ([]models.GradeLedgerRow, error)
	BulkUpsert(ctx context.Context, grades []models.Grade) error
}

type gradeCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
	IsAssignedToLecturer(ctx context.Context, courseID, lecturerID string) (bool, error)
}

type gradeStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

// GradeService serves the grade ledger and handles bulk grade writes.
// Derived coursework and total values are computed on read and never stored.
type GradeService struct {
	repo      gradeRepository
	courses   gradeCourseRepository
	students  gradeStudentRepository
	activity  *ActivityService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs a GradeService.
func NewGradeService(repo gradeRepository, courses gradeCourseRepository, students gradeStudentRepository, activity *ActivityService, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &GradeService{repo: repo, courses: courses, students: students, activity: activity, validator: validate, logger: logger}
}

// Ledger returns the full roster of the course's stage joined with any
// recorded grades. A lecturer can only read courses assigned to them.
func (s *GradeService) Ledger(ctx context.Context, actor Actor, courseID, groupID string) ([]models.GradeLedgerRow, error) {
	course, err := s.authorizeCourse(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListLedger(ctx, courseID, course.StageID, groupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade ledger")
	}
	return rows, nil
}

// Save validates every entry before anything is written, then upserts the
// whole batch in one transaction. Saving the same payload twice is a no-op
// beyond the updated timestamps.
func (s *GradeService) Save(ctx context.Context, actor Actor, req models.SaveGradesRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grades payload")
	}
	course, err := s.authorizeCourse(ctx, actor, req.CourseID)
	if err != nil {
		return err
	}

	grades := make([]models.Grade, 0, len(req.Grades))
	seen := make(map[string]struct{}, len(req.Grades))
	for _, entry := range req.Grades {
		if _, dup := seen[entry.StudentID]; dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate grade entry for student %s", entry.StudentID))
		}
		seen[entry.StudentID] = struct{}{}

		student, err := s.students.FindByID(ctx, entry.StudentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s does not exist", entry.StudentID))
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify student")
		}
		if student.StageID != course.StageID {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s does not belong to the course stage", entry.StudentID))
		}

		grades = append(grades, models.Grade{
			StudentID:         entry.StudentID,
			CourseID:          req.CourseID,
			Quizzes:           entry.Quizzes,
			Projects:          entry.Projects,
			OnlineAssignments: entry.OnlineAssignments,
			OnsiteAssignments: entry.OnsiteAssignments,
			MidtermPractical:  entry.MidtermPractical,
			FinalExam:         entry.FinalExam,
		})
	}

	if err := s.repo.BulkUpsert(ctx, grades); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grades")
	}

	s.activity.Record(ctx, actor, "grade", req.CourseID, models.ActivityUpdated,
		fmt.Sprintf("saved %d grades for course %s", len(grades), course.Name), nil)
	return nil
}

func (s *GradeService) authorizeCourse(ctx context.Context, actor Actor, courseID string) (*models.CourseDetail, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if actor.Role == models.RoleLecturer {
		assigned, err := s.courses.IsAssignedToLecturer(ctx, courseID, actor.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course assignment")
		}
		if !assigned {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "course is not assigned to you")
		}
	}
	return course, nil
}
