package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/taxirank/rank-api/internal/models"
	"github.com/taxirank/rank-api/internal/repository"
	appErrors "github.com/taxirank/rank-api/pkg/errors"
)

type assignmentStore interface {
	Create(ctx context.Context, request *models.AssignmentRequest) error
	GetByID(ctx context.Context, id string) (*models.AssignmentRequest, error)
	List(ctx context.Context, filter models.AssignmentRequestFilter) ([]models.AssignmentRequest, error)
	ExistsPending(ctx context.Context, adminID, rankID string) (bool, error)
	ExistsPendingForRank(ctx context.Context, rankID string) (bool, error)
	UpdateResponse(ctx context.Context, params repository.UpdateResponseParams) error
}

type assignmentBinder interface {
	Bind(ctx context.Context, userID string, rank *models.Rank, perms models.BindingPermissions, designation, notes *string) (*models.Binding, error)
	Remove(ctx context.Context, userID, rankID, actorID string) error
	CountForRank(ctx context.Context, rankID string) (int, error)
	BindingsFor(ctx context.Context, userID string) ([]models.Binding, error)
	IsAdminForRank(ctx context.Context, userID, rankID string) (bool, error)
}

// SubmitAssignmentRequest is the payload for an additional-rank application.
type SubmitAssignmentRequest struct {
	RankCode string  `json:"rank_code" validate:"required"`
	Reason   *string `json:"reason,omitempty" validate:"omitempty,max=1000"`
}

// ReviewAssignmentRequest is the super admin's decision payload.
type ReviewAssignmentRequest struct {
	Status  models.RequestStatus `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	Message *string              `json:"message,omitempty"`
}

// AssignmentService runs the additional-rank workflow for existing admins.
// Approval reuses the requester's current permission flags as the template
// for the new binding.
type AssignmentService struct {
	repo      assignmentStore
	bindings  assignmentBinder
	ranks     bindingRankStore
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs the service.
func NewAssignmentService(repo assignmentStore, bindings assignmentBinder, ranks bindingRankStore, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AssignmentService{
		repo:      repo,
		bindings:  bindings,
		ranks:     ranks,
		audit:     audit,
		validator: validate,
		logger:    logger,
	}
}

// Submit files a PENDING request for one more rank. The requester must
// already hold at least one binding, must not manage the target rank, and
// may not queue two open requests for the same rank.
func (s *AssignmentService) Submit(ctx context.Context, adminID string, req SubmitAssignmentRequest) (*models.AssignmentRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	held, err := s.bindings.BindingsFor(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if len(held) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotAdmin, "")
	}

	rank, err := s.ranks.FindByCode(ctx, req.RankCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rank not found with code: "+req.RankCode)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve rank")
	}

	bound, err := s.bindings.IsAdminForRank(ctx, adminID, rank.ID)
	if err != nil {
		return nil, err
	}
	if bound {
		return nil, appErrors.Clone(appErrors.ErrAlreadyBound, "you already manage rank '"+rank.Name+"'")
	}

	if count, err := s.bindings.CountForRank(ctx, rank.ID); err != nil {
		return nil, err
	} else if count > 0 {
		return nil, appErrors.Clone(appErrors.ErrRankAlreadyAssigned, "rank '"+rank.Name+"' already has an admin assigned")
	}

	pending, err := s.repo.ExistsPending(ctx, adminID, rank.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending requests")
	}
	if pending {
		return nil, appErrors.Clone(appErrors.ErrDuplicatePending, "a pending request for rank '"+rank.Name+"' already exists")
	}

	request := &models.AssignmentRequest{
		RequestingAdmin: adminID,
		RankID:          rank.ID,
		Status:          models.RequestPending,
		RequestReason:   req.Reason,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store assignment request")
	}

	s.emitAudit(ctx, adminID, models.AuditActionAssignmentSubmit, request.ID, request)
	return request, nil
}

// Review applies a super admin decision to a PENDING request. Approval
// binds the requester to the rank with their existing permission flags; if
// the rank was taken in the meantime, the request is auto-rejected with the
// rank named in the response message.
func (s *AssignmentService) Review(ctx context.Context, id string, req ReviewAssignmentRequest, reviewerID string) (*models.AssignmentRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment request")
	}
	if request.Status != models.RequestPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "assignment request has already been processed")
	}

	if req.Status == models.RequestRejected {
		if err := s.recordResponse(ctx, id, models.RequestRejected, req.Message, &reviewerID); err != nil {
			return nil, err
		}
		return s.reload(ctx, id, reviewerID)
	}

	rank, err := s.ranks.FindByID(ctx, request.RankID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rank not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve rank")
	}

	if count, err := s.bindings.CountForRank(ctx, rank.ID); err != nil {
		return nil, err
	} else if count > 0 {
		return nil, s.autoReject(ctx, id, rank.Name, req.Message, reviewerID)
	}

	perms, designation := s.permissionTemplate(ctx, request.RequestingAdmin)
	if _, err := s.bindings.Bind(ctx, request.RequestingAdmin, rank, perms, designation, nil); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrRankAlreadyAssigned.Code {
			// Raced out between the availability check and the bind.
			return nil, s.autoReject(ctx, id, rank.Name, req.Message, reviewerID)
		}
		return nil, err
	}

	if err := s.recordResponse(ctx, id, models.RequestApproved, req.Message, &reviewerID); err != nil {
		if removeErr := s.bindings.Remove(ctx, request.RequestingAdmin, rank.ID, ""); removeErr != nil {
			s.logger.Warn("failed to unwind assignment binding", zap.String("request_id", id), zap.Error(removeErr))
		}
		return nil, err
	}

	return s.reload(ctx, id, reviewerID)
}

// Cancel withdraws a PENDING request. Only the requester may cancel, and
// the ownership check runs before the state check so strangers learn
// nothing about the request's state.
func (s *AssignmentService) Cancel(ctx context.Context, id, actorID string) (*models.AssignmentRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment request")
	}
	if request.RequestingAdmin != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the requesting admin may cancel this request")
	}
	if request.Status != models.RequestPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "assignment request has already been processed")
	}

	if err := s.recordResponse(ctx, id, models.RequestCancelled, nil, nil); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload assignment request")
	}
	s.emitAudit(ctx, actorID, models.AuditActionAssignmentCancel, id, updated)
	return updated, nil
}

// GetByID fetches one request.
func (s *AssignmentService) GetByID(ctx context.Context, id string) (*models.AssignmentRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment request")
	}
	return request, nil
}

// List returns requests matching the filter.
func (s *AssignmentService) List(ctx context.Context, filter models.AssignmentRequestFilter) ([]models.AssignmentRequest, error) {
	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignment requests")
	}
	return requests, nil
}

// ListForAdmin returns an admin's own requests, newest first.
func (s *AssignmentService) ListForAdmin(ctx context.Context, adminID string) ([]models.AssignmentRequest, error) {
	return s.List(ctx, models.AssignmentRequestFilter{RequestingAdmin: adminID})
}

// HasPendingForRank reports whether any PENDING request targets the rank.
func (s *AssignmentService) HasPendingForRank(ctx context.Context, rankID string) (bool, error) {
	pending, err := s.repo.ExistsPendingForRank(ctx, rankID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending requests")
	}
	return pending, nil
}

// permissionTemplate copies the flags from the requester's first existing
// binding so the new rank starts with the same access profile. An admin
// with no surviving binding falls back to full permissions.
func (s *AssignmentService) permissionTemplate(ctx context.Context, adminID string) (models.BindingPermissions, *string) {
	held, err := s.bindings.BindingsFor(ctx, adminID)
	if err != nil || len(held) == 0 {
		if err != nil {
			s.logger.Warn("failed to load permission template", zap.String("admin_id", adminID), zap.Error(err))
		}
		return models.FullPermissions(), nil
	}
	return held[0].BindingPermissions, held[0].Designation
}

func (s *AssignmentService) autoReject(ctx context.Context, id, rankName string, message *string, reviewerID string) error {
	note := "automatically rejected: rank '" + rankName + "' already has an admin assigned"
	if message != nil && *message != "" {
		note = *message + "; " + note
	}
	if err := s.recordResponse(ctx, id, models.RequestRejected, &note, &reviewerID); err != nil {
		return err
	}
	return appErrors.Clone(appErrors.ErrRankAlreadyAssigned, "rank '"+rankName+"' already has an admin assigned")
}

func (s *AssignmentService) recordResponse(ctx context.Context, id string, status models.RequestStatus, message, reviewerID *string) error {
	err := s.repo.UpdateResponse(ctx, repository.UpdateResponseParams{
		ID:              id,
		Status:          status,
		ResponseMessage: message,
		ReviewedBy:      reviewerID,
		RespondedAt:     time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInvalidState, "assignment request has already been processed")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record response")
	}
	return nil
}

func (s *AssignmentService) reload(ctx context.Context, id, reviewerID string) (*models.AssignmentRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload assignment request")
	}
	s.emitAudit(ctx, reviewerID, models.AuditActionAssignmentReview, id, request)
	return request, nil
}

func (s *AssignmentService) emitAudit(ctx context.Context, actorID, action, resourceID string, payload interface{}) {
	if s.audit == nil {
		return
	}
	var newValues []byte
	if payload != nil {
		newValues, _ = json.Marshal(payload)
	}
	log := &models.AuditLog{
		Action:     action,
		Resource:   "assignment_requests",
		ResourceID: &resourceID,
		NewValues:  newValues,
		IPAddress:  "system",
		UserAgent:  "assignment-service",
	}
	if actorID != "" {
		log.UserID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
