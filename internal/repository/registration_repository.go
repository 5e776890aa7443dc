package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/taxirank/rank-api/internal/models"
)

// ErrPendingEmailTaken is surfaced when the partial unique index on PENDING
// request emails rejects a submission raced in between the pre-check and
// the insert.
var ErrPendingEmailTaken = errors.New("a pending registration already holds this email")

const registrationPendingEmailIdx = "registration_requests_pending_email_key"

const registrationColumns = `id, first_name, last_name, email, phone_number, password_hash, preferred_payment_method,
       designation, justification, professional_experience, admin_notes, status, review_notes, reviewed_by, reviewed_at,
       created_at, updated_at`

// RegistrationRepository persists admin registration requests and their
// selected ranks.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Create inserts the request row plus one join row per selected rank.
func (r *RegistrationRepository) Create(ctx context.Context, request *models.RegistrationRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.RequestPending
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO registration_requests
	(id, first_name, last_name, email, phone_number, password_hash, preferred_payment_method, designation,
	 justification, professional_experience, admin_notes, status, review_notes, reviewed_by, reviewed_at, created_at, updated_at)
	VALUES (:id, :first_name, :last_name, :email, :phone_number, :password_hash, :preferred_payment_method, :designation,
	 :justification, :professional_experience, :admin_notes, :status, :review_notes, :reviewed_by, :reviewed_at, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, request); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == registrationPendingEmailIdx {
			return ErrPendingEmailTaken
		}
		return fmt.Errorf("create registration request: %w", err)
	}

	const joinQuery = `INSERT INTO registration_request_ranks (request_id, rank_id) VALUES ($1, $2)`
	for _, rank := range request.SelectedRanks {
		if _, err := tx.ExecContext(ctx, joinQuery, request.ID, rank.ID); err != nil {
			return fmt.Errorf("attach rank %s to registration: %w", rank.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registration tx: %w", err)
	}
	return nil
}

// GetByID fetches a request with its selected ranks.
func (r *RegistrationRepository) GetByID(ctx context.Context, id string) (*models.RegistrationRequest, error) {
	query := `SELECT ` + registrationColumns + ` FROM registration_requests WHERE id = $1 LIMIT 1`
	var request models.RegistrationRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get registration request: %w", err)
	}
	ranks, err := r.selectedRanks(ctx, id)
	if err != nil {
		return nil, err
	}
	request.SelectedRanks = ranks
	return &request, nil
}

// ListByStatus returns requests in a given status, newest first.
func (r *RegistrationRepository) ListByStatus(ctx context.Context, status models.RequestStatus) ([]models.RegistrationRequest, error) {
	query := `SELECT ` + registrationColumns + ` FROM registration_requests WHERE status = $1 ORDER BY created_at DESC`
	var requests []models.RegistrationRequest
	if err := r.db.SelectContext(ctx, &requests, query, status); err != nil {
		return nil, fmt.Errorf("list registration requests: %w", err)
	}
	for i := range requests {
		ranks, err := r.selectedRanks(ctx, requests[i].ID)
		if err != nil {
			return nil, err
		}
		requests[i].SelectedRanks = ranks
	}
	return requests, nil
}

// ExistsPendingByEmail reports whether a PENDING request holds this email.
func (r *RegistrationRepository) ExistsPendingByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT 1 FROM registration_requests WHERE LOWER(email) = LOWER($1) AND status = $2 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, email, models.RequestPending); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check pending registration: %w", err)
	}
	return true, nil
}

// UpdateReviewParams groups the mutable review columns.
type UpdateReviewParams struct {
	ID          string
	Status      models.RequestStatus
	ReviewNotes *string
	ReviewedBy  string
	ReviewedAt  time.Time
}

// UpdateReview persists the review outcome. The PENDING guard makes double
// review lose the race: the second update affects zero rows.
func (r *RegistrationRepository) UpdateReview(ctx context.Context, params UpdateReviewParams) error {
	const query = `UPDATE registration_requests
	SET status = $2, review_notes = $3, reviewed_by = $4, reviewed_at = $5, updated_at = $5
	WHERE id = $1 AND status = $6`
	result, err := r.db.ExecContext(ctx, query, params.ID, params.Status, params.ReviewNotes, params.ReviewedBy, params.ReviewedAt, models.RequestPending)
	if err != nil {
		return fmt.Errorf("update registration review: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check registration review rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *RegistrationRepository) selectedRanks(ctx context.Context, requestID string) ([]models.RankRef, error) {
	const query = `
SELECT r.id, r.name, r.code, r.city
FROM registration_request_ranks rr
JOIN ranks r ON r.id = rr.rank_id
WHERE rr.request_id = $1
ORDER BY r.name ASC`
	var ranks []models.RankRef
	if err := r.db.SelectContext(ctx, &ranks, query, requestID); err != nil {
		return nil, fmt.Errorf("load selected ranks: %w", err)
	}
	return ranks, nil
}
