package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/taxirank/rank-api/internal/models"
	"github.com/taxirank/rank-api/internal/repository"
	appErrors "github.com/taxirank/rank-api/pkg/errors"
)

type bindingStore interface {
	Create(ctx context.Context, binding *models.Binding) error
	Find(ctx context.Context, userID, rankID string) (*models.Binding, error)
	ListByUser(ctx context.Context, userID string) ([]models.Binding, error)
	ListByRank(ctx context.Context, rankID string) ([]models.Binding, error)
	CountByRank(ctx context.Context, rankID string) (int, error)
	Delete(ctx context.Context, userID, rankID string) error
	UpdatePermissions(ctx context.Context, binding *models.Binding) error
	ListRoster(ctx context.Context) ([]models.BindingDetail, error)
}

type bindingUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateRole(ctx context.Context, id string, role models.UserRole) error
}

type bindingRankStore interface {
	FindByID(ctx context.Context, id string) (*models.Rank, error)
	FindByCode(ctx context.Context, code string) (*models.Rank, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AssignBindingRequest is the payload for direct binding creation.
type AssignBindingRequest struct {
	UserID      string                  `json:"user_id" validate:"required"`
	RankCode    string                  `json:"rank_code" validate:"required"`
	Permissions models.PermissionUpdate `json:"permissions"`
	Designation *string                 `json:"designation,omitempty"`
	Notes       *string                 `json:"notes,omitempty"`
}

// BindingService owns the admin-to-rank binding registry and the
// one-admin-per-rank rule. Both onboarding workflows go through Bind, so
// conflict handling lives in exactly one place.
type BindingService struct {
	repo      bindingStore
	users     bindingUserStore
	ranks     bindingRankStore
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBindingService constructs the service.
func NewBindingService(repo bindingStore, users bindingUserStore, ranks bindingRankStore, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *BindingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BindingService{repo: repo, users: users, ranks: ranks, audit: audit, validator: validate, logger: logger}
}

// Assign creates a binding for a rank referenced by code, applying the
// partial permission payload over a full-permission default.
func (s *BindingService) Assign(ctx context.Context, req AssignBindingRequest, actorID string) (*models.Binding, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid binding payload")
	}

	rank, err := s.ranks.FindByCode(ctx, req.RankCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rank not found with code: "+req.RankCode)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve rank")
	}

	if count, err := s.repo.CountByRank(ctx, rank.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check rank bindings")
	} else if count > 0 {
		return nil, appErrors.Clone(appErrors.ErrRankAlreadyAssigned, "rank '"+rank.Name+"' already has an admin assigned")
	}

	perms := req.Permissions.Apply(models.FullPermissions())
	binding, err := s.Bind(ctx, req.UserID, rank, perms, req.Designation, req.Notes)
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actorID, models.AuditActionBindingCreate, binding.ID, binding)
	return binding, nil
}

// Bind persists one binding and promotes the user to ADMIN when needed. It
// is the single commit point for the one-admin-per-rank rule: a constraint
// violation raced in by a concurrent reviewer surfaces as the same
// RankAlreadyAssigned error the pre-checks produce.
func (s *BindingService) Bind(ctx context.Context, userID string, rank *models.Rank, perms models.BindingPermissions, designation, notes *string) (*models.Binding, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	binding := &models.Binding{
		UserID:             user.ID,
		RankID:             rank.ID,
		Designation:        designation,
		Notes:              notes,
		BindingPermissions: perms,
	}
	if err := s.repo.Create(ctx, binding); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateBinding):
			return nil, appErrors.Clone(appErrors.ErrAlreadyBound, "user is already an admin for rank '"+rank.Name+"'")
		case errors.Is(err, repository.ErrRankTaken):
			return nil, appErrors.Clone(appErrors.ErrRankAlreadyAssigned, "rank '"+rank.Name+"' already has an admin assigned")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create binding")
		}
	}

	if user.Role != models.RoleAdmin && user.Role != models.RoleSuperAdmin {
		if err := s.users.UpdateRole(ctx, user.ID, models.RoleAdmin); err != nil {
			s.logger.Warn("failed to promote user to admin", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	return binding, nil
}

// FirstConflict returns the first rank in the set that already has a
// binding, or nil when all are free. Both workflows run it before
// committing an approval.
func (s *BindingService) FirstConflict(ctx context.Context, ranks []models.RankRef) (*models.RankRef, error) {
	for i := range ranks {
		count, err := s.repo.CountByRank(ctx, ranks[i].ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check rank bindings")
		}
		if count > 0 {
			return &ranks[i], nil
		}
	}
	return nil, nil
}

// CountForRank returns the number of bindings on a rank.
func (s *BindingService) CountForRank(ctx context.Context, rankID string) (int, error) {
	count, err := s.repo.CountByRank(ctx, rankID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count rank bindings")
	}
	return count, nil
}

// RanksManagedBy returns the ranks an admin currently manages, in binding
// order.
func (s *BindingService) RanksManagedBy(ctx context.Context, userID string) ([]models.RankRef, error) {
	bindings, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bindings")
	}
	refs := make([]models.RankRef, 0, len(bindings))
	for _, binding := range bindings {
		rank, err := s.ranks.FindByID(ctx, binding.RankID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve rank")
		}
		refs = append(refs, models.RankRef{ID: rank.ID, Name: rank.Name, Code: rank.Code, City: rank.City})
	}
	return refs, nil
}

// BindingsFor returns the raw bindings held by an admin.
func (s *BindingService) BindingsFor(ctx context.Context, userID string) ([]models.Binding, error) {
	bindings, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bindings")
	}
	return bindings, nil
}

// AdminsForRank returns the admin identities bound to a rank.
func (s *BindingService) AdminsForRank(ctx context.Context, rankID string) ([]models.UserInfo, error) {
	bindings, err := s.repo.ListByRank(ctx, rankID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rank bindings")
	}
	admins := make([]models.UserInfo, 0, len(bindings))
	for _, binding := range bindings {
		user, err := s.users.FindByID(ctx, binding.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin")
		}
		admins = append(admins, models.UserInfo{
			ID:        user.ID,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Role:      user.Role,
		})
	}
	return admins, nil
}

// IsAdminForRank reports whether the (user, rank) binding exists.
func (s *BindingService) IsAdminForRank(ctx context.Context, userID, rankID string) (bool, error) {
	if _, err := s.repo.Find(ctx, userID, rankID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check binding")
	}
	return true, nil
}

// Remove deletes a binding.
func (s *BindingService) Remove(ctx context.Context, userID, rankID, actorID string) error {
	if err := s.repo.Delete(ctx, userID, rankID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user is not an admin for this rank")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove binding")
	}
	s.emitAudit(ctx, actorID, models.AuditActionBindingRemove, userID+":"+rankID, nil)
	return nil
}

// UpdatePermissions merges the provided flags into the stored binding,
// leaving absent flags untouched.
func (s *BindingService) UpdatePermissions(ctx context.Context, userID, rankID string, update models.PermissionUpdate, actorID string) (*models.Binding, error) {
	binding, err := s.repo.Find(ctx, userID, rankID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user is not an admin for this rank")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load binding")
	}

	binding.BindingPermissions = update.Apply(binding.BindingPermissions)
	if update.Designation != nil {
		binding.Designation = update.Designation
	}
	if update.Notes != nil {
		binding.Notes = update.Notes
	}

	if err := s.repo.UpdatePermissions(ctx, binding); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user is not an admin for this rank")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update binding")
	}

	s.emitAudit(ctx, actorID, models.AuditActionBindingUpdate, binding.ID, binding)
	return binding, nil
}

// Roster returns the joined binding roster for export.
func (s *BindingService) Roster(ctx context.Context) ([]models.BindingDetail, error) {
	roster, err := s.repo.ListRoster(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load binding roster")
	}
	return roster, nil
}

func (s *BindingService) emitAudit(ctx context.Context, actorID, action, resourceID string, payload interface{}) {
	if s.audit == nil {
		return
	}
	var newValues []byte
	if payload != nil {
		newValues, _ = json.Marshal(payload)
	}
	log := &models.AuditLog{
		Action:     action,
		Resource:   "bindings",
		ResourceID: &resourceID,
		NewValues:  newValues,
		IPAddress:  "system",
		UserAgent:  "binding-service",
	}
	if actorID != "" {
		log.UserID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
