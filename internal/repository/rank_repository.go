package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/taxirank/rank-api/internal/models"
)

const rankColumns = `id, name, code, city, province, address, active, created_at, updated_at`

// RankRepository provides database access for the rank store.
type RankRepository struct {
	db *sqlx.DB
}

// NewRankRepository constructs the repository.
func NewRankRepository(db *sqlx.DB) *RankRepository {
	return &RankRepository{db: db}
}

// FindByID returns a rank by identifier.
func (r *RankRepository) FindByID(ctx context.Context, id string) (*models.Rank, error) {
	query := `SELECT ` + rankColumns + ` FROM ranks WHERE id = $1 LIMIT 1`
	var rank models.Rank
	if err := r.db.GetContext(ctx, &rank, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find rank by id: %w", err)
	}
	return &rank, nil
}

// FindByCode returns a rank by its unique public code.
func (r *RankRepository) FindByCode(ctx context.Context, code string) (*models.Rank, error) {
	query := `SELECT ` + rankColumns + ` FROM ranks WHERE code = $1 LIMIT 1`
	var rank models.Rank
	if err := r.db.GetContext(ctx, &rank, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find rank by code: %w", err)
	}
	return &rank, nil
}

// FindByIDs loads all ranks for the given identifiers.
func (r *RankRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Rank, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+rankColumns+` FROM ranks WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build rank id query: %w", err)
	}
	query = r.db.Rebind(query)
	var ranks []models.Rank
	if err := r.db.SelectContext(ctx, &ranks, query, args...); err != nil {
		return nil, fmt.Errorf("find ranks by ids: %w", err)
	}
	return ranks, nil
}

// List returns all active ranks ordered by name.
func (r *RankRepository) List(ctx context.Context) ([]models.Rank, error) {
	query := `SELECT ` + rankColumns + ` FROM ranks WHERE active ORDER BY name ASC`
	var ranks []models.Rank
	if err := r.db.SelectContext(ctx, &ranks, query); err != nil {
		return nil, fmt.Errorf("list ranks: %w", err)
	}
	return ranks, nil
}
