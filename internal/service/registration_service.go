package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/taxirank/rank-api/internal/models"
	"github.com/taxirank/rank-api/internal/repository"
	appErrors "github.com/taxirank/rank-api/pkg/errors"
)

type registrationStore interface {
	Create(ctx context.Context, request *models.RegistrationRequest) error
	GetByID(ctx context.Context, id string) (*models.RegistrationRequest, error)
	ListByStatus(ctx context.Context, status models.RequestStatus) ([]models.RegistrationRequest, error)
	ExistsPendingByEmail(ctx context.Context, email string) (bool, error)
	UpdateReview(ctx context.Context, params repository.UpdateReviewParams) error
}

type registrationUserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

type registrationRankStore interface {
	FindByCode(ctx context.Context, code string) (*models.Rank, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Rank, error)
}

type rankBinder interface {
	FirstConflict(ctx context.Context, ranks []models.RankRef) (*models.RankRef, error)
	Bind(ctx context.Context, userID string, rank *models.Rank, perms models.BindingPermissions, designation, notes *string) (*models.Binding, error)
	Remove(ctx context.Context, userID, rankID, actorID string) error
}

// SubmitRegistrationRequest is the self-service application payload.
type SubmitRegistrationRequest struct {
	FirstName     string                `json:"first_name" validate:"required,max=100"`
	LastName      string                `json:"last_name" validate:"required,max=100"`
	Email         string                `json:"email" validate:"required,email"`
	PhoneNumber   string                `json:"phone_number" validate:"required,max=32"`
	Password      string                `json:"password" validate:"required,min=8"`
	PaymentMethod *models.PaymentMethod `json:"preferred_payment_method,omitempty" validate:"omitempty,oneof=CASH CARD MOBILE_MONEY WALLET"`
	Designation   *string               `json:"designation,omitempty"`
	Justification *string               `json:"justification,omitempty"`
	Experience    *string               `json:"professional_experience,omitempty"`
	AdminNotes    *string               `json:"admin_notes,omitempty"`
	RankCodes     []string              `json:"rank_codes" validate:"required,min=1,dive,required"`
}

// ReviewRegistrationRequest is the super admin's decision payload.
type ReviewRegistrationRequest struct {
	Status models.RequestStatus `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	Notes  *string              `json:"notes,omitempty"`
}

// RegistrationService runs the admin registration workflow: a public
// submission queue reviewed by super admins. Approval creates the admin
// account and its initial rank bindings in one pass; any rank conflict
// rejects the whole request.
type RegistrationService struct {
	repo               registrationStore
	users              registrationUserStore
	ranks              registrationRankStore
	bindings           rankBinder
	audit              auditLogger
	validator          *validator.Validate
	logger             *zap.Logger
	defaultDesignation string
}

// NewRegistrationService constructs the service.
func NewRegistrationService(repo registrationStore, users registrationUserStore, ranks registrationRankStore, bindings rankBinder, audit auditLogger, validate *validator.Validate, logger *zap.Logger, defaultDesignation string) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RegistrationService{
		repo:               repo,
		users:              users,
		ranks:              ranks,
		bindings:           bindings,
		audit:              audit,
		validator:          validate,
		logger:             logger,
		defaultDesignation: defaultDesignation,
	}
}

// Submit validates and stores a registration request in PENDING state. The
// password is bcrypt-encoded here, so reviewers only ever see the hash.
func (s *RegistrationService) Submit(ctx context.Context, req SubmitRegistrationRequest) (*models.RegistrationRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicateEmail, "email already registered: "+req.Email)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	pending, err := s.repo.ExistsPendingByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending registrations")
	}
	if pending {
		return nil, appErrors.Clone(appErrors.ErrDuplicateEmail, "a pending registration already exists for this email")
	}

	selected := make([]models.RankRef, 0, len(req.RankCodes))
	seen := make(map[string]struct{}, len(req.RankCodes))
	for _, code := range req.RankCodes {
		rank, err := s.ranks.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "rank not found with code: "+code)
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve rank")
		}
		if _, dup := seen[rank.ID]; dup {
			continue
		}
		seen[rank.ID] = struct{}{}
		selected = append(selected, models.RankRef{ID: rank.ID, Name: rank.Name, Code: rank.Code, City: rank.City})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode password")
	}

	request := &models.RegistrationRequest{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		PhoneNumber:   req.PhoneNumber,
		PasswordHash:  string(hash),
		PaymentMethod: req.PaymentMethod,
		Designation:   req.Designation,
		Justification: req.Justification,
		Experience:    req.Experience,
		AdminNotes:    req.AdminNotes,
		Status:        models.RequestPending,
		SelectedRanks: selected,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		if errors.Is(err, repository.ErrPendingEmailTaken) {
			// A concurrent submission landed between the pre-check and
			// the insert.
			return nil, appErrors.Clone(appErrors.ErrDuplicateEmail, "a pending registration already exists for this email")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store registration request")
	}

	s.emitAudit(ctx, "", models.AuditActionRegistrationSubmit, request.ID, request)
	return request, nil
}

// Review applies a super admin decision to a PENDING request. Rejection only
// records the outcome. Approval creates the admin account plus one
// full-permission binding per selected rank; if any selected rank already
// has an admin, the whole request is auto-rejected with the conflicting rank
// named in the review notes.
func (s *RegistrationService) Review(ctx context.Context, id string, req ReviewRegistrationRequest, reviewerID string) (*models.RegistrationRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration request")
	}
	if request.Status != models.RequestPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "registration request has already been reviewed")
	}

	if req.Status == models.RequestRejected {
		if err := s.recordReview(ctx, id, models.RequestRejected, req.Notes, reviewerID); err != nil {
			return nil, err
		}
		return s.reload(ctx, id, reviewerID)
	}

	conflict, err := s.bindings.FirstConflict(ctx, request.SelectedRanks)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, s.autoReject(ctx, id, conflict.Name, req.Notes, reviewerID)
	}

	ids := make([]string, 0, len(request.SelectedRanks))
	for _, ref := range request.SelectedRanks {
		ids = append(ids, ref.ID)
	}
	ranks, err := s.ranks.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve ranks")
	}
	byID := make(map[string]models.Rank, len(ranks))
	for _, rank := range ranks {
		byID[rank.ID] = rank
	}
	for _, ref := range request.SelectedRanks {
		if _, ok := byID[ref.ID]; !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rank not found: "+ref.Code)
		}
	}

	user := &models.User{
		FirstName:     request.FirstName,
		LastName:      request.LastName,
		Email:         request.Email,
		PhoneNumber:   request.PhoneNumber,
		PasswordHash:  request.PasswordHash,
		PaymentMethod: request.PaymentMethod,
		AccountStatus: models.AccountActive,
		Role:          models.RoleAdmin,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admin account")
	}

	designation := request.Designation
	if designation == nil && s.defaultDesignation != "" {
		designation = &s.defaultDesignation
	}

	bound := make([]string, 0, len(request.SelectedRanks))
	for _, ref := range request.SelectedRanks {
		rank := byID[ref.ID]
		if _, err := s.bindings.Bind(ctx, user.ID, &rank, models.FullPermissions(), designation, request.AdminNotes); err != nil {
			s.unwind(ctx, user.ID, bound)
			var appErr *appErrors.Error
			if errors.As(err, &appErr) && appErr.Code == appErrors.ErrRankAlreadyAssigned.Code {
				// Raced out between the conflict check and the bind.
				return nil, s.autoReject(ctx, id, rank.Name, req.Notes, reviewerID)
			}
			return nil, err
		}
		bound = append(bound, rank.ID)
	}

	if err := s.recordReview(ctx, id, models.RequestApproved, req.Notes, reviewerID); err != nil {
		s.unwind(ctx, user.ID, bound)
		return nil, err
	}

	return s.reload(ctx, id, reviewerID)
}

// GetPending returns the PENDING review queue, newest first.
func (s *RegistrationService) GetPending(ctx context.Context) ([]models.RegistrationRequest, error) {
	return s.GetByStatus(ctx, models.RequestPending)
}

// GetByStatus lists requests in the given status.
func (s *RegistrationService) GetByStatus(ctx context.Context, status models.RequestStatus) ([]models.RegistrationRequest, error) {
	requests, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registration requests")
	}
	return requests, nil
}

// GetByID fetches one request with its selected ranks.
func (s *RegistrationService) GetByID(ctx context.Context, id string) (*models.RegistrationRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration request")
	}
	return request, nil
}

// HasPendingForEmail reports whether a PENDING request exists for the email.
func (s *RegistrationService) HasPendingForEmail(ctx context.Context, email string) (bool, error) {
	pending, err := s.repo.ExistsPendingByEmail(ctx, email)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending registrations")
	}
	return pending, nil
}

// autoReject records the conflict rejection and returns the conflict error
// the caller should surface.
func (s *RegistrationService) autoReject(ctx context.Context, id, rankName string, notes *string, reviewerID string) error {
	message := "automatically rejected: rank '" + rankName + "' already has an admin assigned"
	if notes != nil && *notes != "" {
		message = *notes + "; " + message
	}
	if err := s.recordReview(ctx, id, models.RequestRejected, &message, reviewerID); err != nil {
		return err
	}
	return appErrors.Clone(appErrors.ErrRankAlreadyAssigned, "rank '"+rankName+"' already has an admin assigned")
}

func (s *RegistrationService) recordReview(ctx context.Context, id string, status models.RequestStatus, notes *string, reviewerID string) error {
	err := s.repo.UpdateReview(ctx, repository.UpdateReviewParams{
		ID:          id,
		Status:      status,
		ReviewNotes: notes,
		ReviewedBy:  reviewerID,
		ReviewedAt:  time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInvalidState, "registration request has already been reviewed")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record review")
	}
	return nil
}

// unwind removes the bindings and account created by a failed approval so a
// later review starts from a clean slate.
func (s *RegistrationService) unwind(ctx context.Context, userID string, rankIDs []string) {
	for _, rankID := range rankIDs {
		if err := s.bindings.Remove(ctx, userID, rankID, ""); err != nil {
			s.logger.Warn("failed to unwind binding", zap.String("user_id", userID), zap.String("rank_id", rankID), zap.Error(err))
		}
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		s.logger.Warn("failed to unwind admin account", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *RegistrationService) reload(ctx context.Context, id, reviewerID string) (*models.RegistrationRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload registration request")
	}
	s.emitAudit(ctx, reviewerID, models.AuditActionRegistrationReview, request.ID, request)
	return request, nil
}

func (s *RegistrationService) emitAudit(ctx context.Context, actorID, action, resourceID string, payload interface{}) {
	if s.audit == nil {
		return
	}
	var newValues []byte
	if payload != nil {
		newValues, _ = json.Marshal(payload)
	}
	log := &models.AuditLog{
		Action:     action,
		Resource:   "registration_requests",
		ResourceID: &resourceID,
		NewValues:  newValues,
		IPAddress:  "system",
		UserAgent:  "registration-service",
	}
	if actorID != "" {
		log.UserID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
