package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taxirank/rank-api/internal/models"
)

const assignmentColumns = `id, requesting_admin_id, rank_id, status, request_reason, response_message,
       reviewed_by, requested_at, responded_at`

// AssignmentRepository persists rank assignment requests.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts a new assignment request row.
func (r *AssignmentRepository) Create(ctx context.Context, request *models.AssignmentRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.RequestPending
	}
	if request.RequestedAt.IsZero() {
		request.RequestedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assignment_requests
	(id, requesting_admin_id, rank_id, status, request_reason, response_message, reviewed_by, requested_at, responded_at)
	VALUES (:id, :requesting_admin_id, :rank_id, :status, :request_reason, :response_message, :reviewed_by, :requested_at, :responded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create assignment request: %w", err)
	}
	return nil
}

// GetByID fetches an assignment request by identifier.
func (r *AssignmentRepository) GetByID(ctx context.Context, id string) (*models.AssignmentRequest, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignment_requests WHERE id = $1 LIMIT 1`
	var request models.AssignmentRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get assignment request: %w", err)
	}
	return &request, nil
}

// List returns assignment requests matching the filter, newest first.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentRequestFilter) ([]models.AssignmentRequest, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT ` + assignmentColumns + ` FROM assignment_requests`)

	conditions := make([]string, 0, 3)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.RequestingAdmin != "" {
		args = append(args, filter.RequestingAdmin)
		conditions = append(conditions, fmt.Sprintf("requesting_admin_id = $%d", len(args)))
	}
	if filter.RankID != "" {
		args = append(args, filter.RankID)
		conditions = append(conditions, fmt.Sprintf("rank_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY requested_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var requests []models.AssignmentRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list assignment requests: %w", err)
	}
	return requests, nil
}

// ExistsPending reports whether the admin already has a PENDING request for
// the rank.
func (r *AssignmentRepository) ExistsPending(ctx context.Context, adminID, rankID string) (bool, error) {
	const query = `SELECT 1 FROM assignment_requests WHERE requesting_admin_id = $1 AND rank_id = $2 AND status = $3 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, adminID, rankID, models.RequestPending); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check pending assignment request: %w", err)
	}
	return true, nil
}

// ExistsPendingForRank reports whether any PENDING request targets the rank.
func (r *AssignmentRepository) ExistsPendingForRank(ctx context.Context, rankID string) (bool, error) {
	const query = `SELECT 1 FROM assignment_requests WHERE rank_id = $1 AND status = $2 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, rankID, models.RequestPending); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check pending requests for rank: %w", err)
	}
	return true, nil
}

// UpdateResponseParams groups the mutable response columns.
type UpdateResponseParams struct {
	ID              string
	Status          models.RequestStatus
	ResponseMessage *string
	ReviewedBy      *string
	RespondedAt     time.Time
}

// UpdateResponse persists a review or cancellation outcome. The PENDING
// guard excludes double processing of one request.
func (r *AssignmentRepository) UpdateResponse(ctx context.Context, params UpdateResponseParams) error {
	const query = `UPDATE assignment_requests
	SET status = $2, response_message = $3, reviewed_by = $4, responded_at = $5
	WHERE id = $1 AND status = $6`
	result, err := r.db.ExecContext(ctx, query, params.ID, params.Status, params.ResponseMessage, params.ReviewedBy, params.RespondedAt, models.RequestPending)
	if err != nil {
		return fmt.Errorf("update assignment response: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check assignment response rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
