package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/taxirank/rank-api/internal/models"
	appErrors "github.com/taxirank/rank-api/pkg/errors"
)

type userStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

type managedRankLister interface {
	RanksManagedBy(ctx context.Context, userID string) ([]models.RankRef, error)
}

// UserService serves the read side of the user directory. Every record it
// hands out goes through the role projection, so callers only ever see the
// redacted view.
type UserService struct {
	repo     userStore
	bindings managedRankLister
	logger   *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(repo userStore, bindings managedRankLister, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, bindings: bindings, logger: logger}
}

// GetByID returns the projected view of one user.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.RoleView, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return s.project(ctx, user)
}

// GetByEmail returns the projected view of one user looked up by email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.RoleView, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return s.project(ctx, user)
}

// List returns projected users matching the filter with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.RoleView, models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	views := make([]models.RoleView, 0, len(users))
	for i := range users {
		view, err := s.project(ctx, &users[i])
		if err != nil {
			return nil, models.Pagination{}, err
		}
		views = append(views, *view)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return views, models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// project loads managed ranks only for roles whose view includes them.
func (s *UserService) project(ctx context.Context, user *models.User) (*models.RoleView, error) {
	var managed []models.RankRef
	if fields, ok := projectionRules[user.Role]; !ok || fields.ManagedRanks {
		var err error
		managed, err = s.bindings.RanksManagedBy(ctx, user.ID)
		if err != nil {
			return nil, err
		}
	}
	view := ProjectUser(user, managed, user.Role)
	return &view, nil
}
