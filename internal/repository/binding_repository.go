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

// Sentinel errors surfaced when the bindings table's unique constraints
// reject an insert. The one-admin-per-rank rule is enforced here even when a
// concurrent reviewer passed the same pre-check.
var (
	ErrRankTaken        = errors.New("rank already has an admin binding")
	ErrDuplicateBinding = errors.New("binding already exists for this admin and rank")
)

const (
	uniqueViolation      = "23505"
	bindingRankIdx       = "bindings_rank_id_key"
	bindingUserRankIdx   = "bindings_user_id_rank_id_key"
	bindingSelectColumns = `id, user_id, rank_id, designation, notes,
       can_manage_drivers, can_view_financials, can_edit_rank_details, can_manage_routes, can_manage_terminals,
       assigned_at, last_updated`
)

// BindingRepository persists admin-to-rank bindings.
type BindingRepository struct {
	db *sqlx.DB
}

// NewBindingRepository constructs the repository.
func NewBindingRepository(db *sqlx.DB) *BindingRepository {
	return &BindingRepository{db: db}
}

// Create inserts a binding row, mapping unique-constraint violations to the
// sentinel errors above.
func (r *BindingRepository) Create(ctx context.Context, binding *models.Binding) error {
	if binding.ID == "" {
		binding.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if binding.AssignedAt.IsZero() {
		binding.AssignedAt = now
	}
	binding.LastUpdated = now
	const query = `INSERT INTO bindings
	(id, user_id, rank_id, designation, notes, can_manage_drivers, can_view_financials, can_edit_rank_details,
	 can_manage_routes, can_manage_terminals, assigned_at, last_updated)
	VALUES (:id, :user_id, :rank_id, :designation, :notes, :can_manage_drivers, :can_view_financials, :can_edit_rank_details,
	 :can_manage_routes, :can_manage_terminals, :assigned_at, :last_updated)`
	if _, err := r.db.NamedExecContext(ctx, query, binding); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			switch pqErr.Constraint {
			case bindingUserRankIdx:
				return ErrDuplicateBinding
			case bindingRankIdx:
				return ErrRankTaken
			}
		}
		return fmt.Errorf("create binding: %w", err)
	}
	return nil
}

// Find returns the binding for an (admin, rank) pair.
func (r *BindingRepository) Find(ctx context.Context, userID, rankID string) (*models.Binding, error) {
	query := `SELECT ` + bindingSelectColumns + ` FROM bindings WHERE user_id = $1 AND rank_id = $2 LIMIT 1`
	var binding models.Binding
	if err := r.db.GetContext(ctx, &binding, query, userID, rankID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find binding: %w", err)
	}
	return &binding, nil
}

// ListByUser returns all bindings held by one admin, oldest first.
func (r *BindingRepository) ListByUser(ctx context.Context, userID string) ([]models.Binding, error) {
	query := `SELECT ` + bindingSelectColumns + ` FROM bindings WHERE user_id = $1 ORDER BY assigned_at ASC`
	var bindings []models.Binding
	if err := r.db.SelectContext(ctx, &bindings, query, userID); err != nil {
		return nil, fmt.Errorf("list bindings by user: %w", err)
	}
	return bindings, nil
}

// ListByRank returns bindings attached to a rank. Under the one-admin rule
// this yields at most one row, but listing keeps the invariant observable.
func (r *BindingRepository) ListByRank(ctx context.Context, rankID string) ([]models.Binding, error) {
	query := `SELECT ` + bindingSelectColumns + ` FROM bindings WHERE rank_id = $1 ORDER BY assigned_at ASC`
	var bindings []models.Binding
	if err := r.db.SelectContext(ctx, &bindings, query, rankID); err != nil {
		return nil, fmt.Errorf("list bindings by rank: %w", err)
	}
	return bindings, nil
}

// CountByRank returns the number of bindings held against a rank.
func (r *BindingRepository) CountByRank(ctx context.Context, rankID string) (int, error) {
	const query = `SELECT COUNT(*) FROM bindings WHERE rank_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, rankID); err != nil {
		return 0, fmt.Errorf("count bindings by rank: %w", err)
	}
	return count, nil
}

// Delete removes the binding for an (admin, rank) pair.
func (r *BindingRepository) Delete(ctx context.Context, userID, rankID string) error {
	const query = `DELETE FROM bindings WHERE user_id = $1 AND rank_id = $2`
	result, err := r.db.ExecContext(ctx, query, userID, rankID)
	if err != nil {
		return fmt.Errorf("delete binding: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted binding rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdatePermissions persists merged permission flags and metadata.
func (r *BindingRepository) UpdatePermissions(ctx context.Context, binding *models.Binding) error {
	binding.LastUpdated = time.Now().UTC()
	const query = `UPDATE bindings SET
		can_manage_drivers = :can_manage_drivers,
		can_view_financials = :can_view_financials,
		can_edit_rank_details = :can_edit_rank_details,
		can_manage_routes = :can_manage_routes,
		can_manage_terminals = :can_manage_terminals,
		designation = :designation,
		notes = :notes,
		last_updated = :last_updated
	WHERE user_id = :user_id AND rank_id = :rank_id`
	result, err := r.db.NamedExecContext(ctx, query, binding)
	if err != nil {
		return fmt.Errorf("update binding permissions: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check binding update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListRoster joins bindings with ranks and users for export listings.
func (r *BindingRepository) ListRoster(ctx context.Context) ([]models.BindingDetail, error) {
	const query = `
SELECT b.id, b.user_id, b.rank_id, b.designation, b.notes,
       b.can_manage_drivers, b.can_view_financials, b.can_edit_rank_details, b.can_manage_routes, b.can_manage_terminals,
       b.assigned_at, b.last_updated,
       r.name AS rank_name, r.code AS rank_code, r.city AS rank_city,
       u.first_name || ' ' || u.last_name AS admin_name, u.email AS admin_email
FROM bindings b
JOIN ranks r ON r.id = b.rank_id
JOIN users u ON u.id = b.user_id
ORDER BY r.name ASC`
	var roster []models.BindingDetail
	if err := r.db.SelectContext(ctx, &roster, query); err != nil {
		return nil, fmt.Errorf("list binding roster: %w", err)
	}
	return roster, nil
}
