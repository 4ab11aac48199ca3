package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alrafidain/college-records-api/internal/models"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
)

type groupRepository interface {
	List(ctx context.Context, stageID string) ([]models.Group, error)
	FindByID(ctx context.Context, id string) (*models.Group, error)
	FindBySymbol(ctx context.Context, symbol string) (*models.Group, error)
	ExistsBySymbol(ctx context.Context, symbol string, excludeID string) (bool, error)
	Create(ctx context.Context, group *models.Group) error
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id string) error
}

type groupStudentRepository interface {
	ListByGroup(ctx context.Context, groupID string) ([]models.Student, error)
}

// GroupService manages class sections. Deleting a group cascades to its
// students through the student service.
type GroupService struct {
	repo      groupRepository
	students  groupStudentRepository
	cascade   *StudentService
	activity  *ActivityService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService constructs a GroupService.
func NewGroupService(repo groupRepository, students groupStudentRepository, cascade *StudentService, activity *ActivityService, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &GroupService{repo: repo, students: students, cascade: cascade, activity: activity, validator: validate, logger: logger}
}

// List returns groups, optionally narrowed to a stage's configured sections.
func (s *GroupService) List(ctx context.Context, stageID string) ([]models.Group, error) {
	groups, err := s.repo.List(ctx, stageID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}
	return groups, nil
}

// Get fetches one group.
func (s *GroupService) Get(ctx context.Context, id string) (*models.Group, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	return group, nil
}

// Create registers a new group symbol.
func (s *GroupService) Create(ctx context.Context, actor Actor, req models.SaveGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}
	taken, err := s.repo.ExistsBySymbol(ctx, req.Symbol, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check group symbol")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "group symbol already exists")
	}

	group := &models.Group{Symbol: req.Symbol}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create group")
	}

	s.activity.Record(ctx, actor, "group", group.ID, models.ActivityCreated, "created group "+group.Symbol, &models.ActivityChange{New: group})
	return group, nil
}

// Update changes a group's symbol.
func (s *GroupService) Update(ctx context.Context, actor Actor, id string, req models.SaveGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}
	group, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	taken, err := s.repo.ExistsBySymbol(ctx, req.Symbol, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check group symbol")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "group symbol already exists")
	}

	previous := *group
	group.Symbol = req.Symbol
	if err := s.repo.Update(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update group")
	}

	s.activity.Record(ctx, actor, "group", group.ID, models.ActivityUpdated, "updated group "+group.Symbol, &models.ActivityChange{Old: previous, New: group})
	return group, nil
}

// Delete removes a group and every student assigned to it.
func (s *GroupService) Delete(ctx context.Context, actor Actor, id string) error {
	group, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	students, err := s.students.ListByGroup(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group students")
	}
	for _, student := range students {
		if err := s.cascade.deleteStudent(ctx, actor, &student); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete group")
	}

	s.activity.Record(ctx, actor, "group", id, models.ActivityDeleted, "deleted group "+group.Symbol, &models.ActivityChange{Old: group})
	return nil
}
