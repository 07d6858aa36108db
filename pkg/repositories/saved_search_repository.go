package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sebench/evidence-engine/pkg/apperrors"
	"github.com/sebench/evidence-engine/pkg/database"
	"github.com/sebench/evidence-engine/pkg/models"
)

// SavedSearchRepository provides data access for saved searches.
// Records are insert-only; the criteria snapshot is never mutated in place.
type SavedSearchRepository interface {
	Create(ctx context.Context, search *models.SavedSearch) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SavedSearch, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.SavedSearch, error)
	// DeleteOwned deletes only when the row belongs to ownerID; ownership is
	// part of the DELETE predicate so it cannot race with a re-check.
	DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) (bool, error)
}

type savedSearchRepository struct {
	db *database.DB
}

// NewSavedSearchRepository creates a new SavedSearchRepository backed by the pool.
func NewSavedSearchRepository(db *database.DB) SavedSearchRepository {
	return &savedSearchRepository{db: db}
}

var _ SavedSearchRepository = (*savedSearchRepository)(nil)

func (r *savedSearchRepository) Create(ctx context.Context, search *models.SavedSearch) error {
	criteria, err := json.Marshal(search.Criteria)
	if err != nil {
		return fmt.Errorf("failed to marshal criteria: %w", err)
	}

	query := `
		INSERT INTO saved_searches (owner_id, name, criteria, saved_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, saved_at`

	err = r.db.QueryRow(ctx, query,
		search.OwnerID,
		search.Name,
		criteria,
		time.Now(),
	).Scan(&search.ID, &search.SavedAt)
	if err != nil {
		return fmt.Errorf("failed to create saved search: %w", err)
	}

	return nil
}

func (r *savedSearchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SavedSearch, error) {
	query := `
		SELECT id, owner_id, name, criteria, saved_at
		FROM saved_searches
		WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	search, err := scanSavedSearch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get saved search: %w", err)
	}

	return search, nil
}

func (r *savedSearchRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.SavedSearch, error) {
	query := `
		SELECT id, owner_id, name, criteria, saved_at
		FROM saved_searches
		WHERE owner_id = $1
		ORDER BY saved_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved searches: %w", err)
	}
	defer rows.Close()

	searches := []*models.SavedSearch{}
	for rows.Next() {
		search, err := scanSavedSearch(rows)
		if err != nil {
			return nil, err
		}
		searches = append(searches, search)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved searches: %w", err)
	}

	return searches, nil
}

func (r *savedSearchRepository) DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	query := `DELETE FROM saved_searches WHERE id = $1 AND owner_id = $2`

	result, err := r.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete saved search: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func scanSavedSearch(row pgx.Row) (*models.SavedSearch, error) {
	var s models.SavedSearch
	var criteria []byte

	err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &criteria, &s.SavedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan saved search: %w", err)
	}

	if len(criteria) > 0 {
		if err := json.Unmarshal(criteria, &s.Criteria); err != nil {
			return nil, fmt.Errorf("failed to unmarshal criteria: %w", err)
		}
	}

	return &s, nil
}
