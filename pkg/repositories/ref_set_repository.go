package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dailies-studio/dailies-engine/pkg/apperrors"
	"github.com/dailies-studio/dailies-engine/pkg/models"
	"github.com/dailies-studio/dailies-engine/pkg/store"
)

// RefSetRepository provides data access for character reference sets.
// The table is append-only: there is deliberately no update or delete
// here, and the database triggers back that up.
type RefSetRepository interface {
	Insert(ctx context.Context, s *models.CharacterRefSet) error
	GetByID(ctx context.Context, id string) (*models.CharacterRefSet, error)
	ListByCharacter(ctx context.Context, characterID string) ([]models.CharacterRefSet, error)
	MaxVersion(ctx context.Context, characterID string) (int, error)
}

type refSetRepository struct {
	store *store.Store
}

// NewRefSetRepository creates a new RefSetRepository.
func NewRefSetRepository(st *store.Store) RefSetRepository {
	return &refSetRepository{store: st}
}

var _ RefSetRepository = (*refSetRepository)(nil)

const refSetColumns = `id, character_id, version, status, min_requirements_snapshot_json, created_at`

func (r *refSetRepository) Insert(ctx context.Context, s *models.CharacterRefSet) error {
	q, err := querierFrom(ctx)
	if err != nil {
		return err
	}

	row := map[string]any{
		"character_id":                   s.CharacterID,
		"version":                        s.Version,
		"status":                         s.Status,
		"min_requirements_snapshot_json": s.MinRequirementsSnapshotJSON,
	}
	if s.ID != "" {
		row["id"] = s.ID
	}
	if s.CreatedAt != "" {
		row["created_at"] = s.CreatedAt
	}

	id, err := r.store.Insert(ctx, q, "character_ref_sets", row)
	if err != nil {
		// The unique (character_id, version) index converts a
		// concurrent max(version)+1 race into a visible conflict.
		return fmt.Errorf("failed to insert ref set: %w", err)
	}
	s.ID = id
	return nil
}

func (r *refSetRepository) GetByID(ctx context.Context, id string) (*models.CharacterRefSet, error) {
	q, err := querierFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM character_ref_sets WHERE id = $1`, refSetColumns)

	var s models.CharacterRefSet
	err = q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.CharacterID, &s.Version, &s.Status,
		&s.MinRequirementsSnapshotJSON, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(apperrors.CodeRefSetNotFound,
				fmt.Sprintf("ref set %s not found", id))
		}
		return nil, fmt.Errorf("failed to get ref set: %w", err)
	}
	return &s, nil
}

func (r *refSetRepository) ListByCharacter(ctx context.Context, characterID string) ([]models.CharacterRefSet, error) {
	q, err := querierFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM character_ref_sets
		WHERE character_id = $1
		ORDER BY version DESC`, refSetColumns)

	rows, err := q.Query(ctx, query, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ref sets: %w", err)
	}
	defer rows.Close()

	var out []models.CharacterRefSet
	for rows.Next() {
		var s models.CharacterRefSet
		if err := rows.Scan(&s.ID, &s.CharacterID, &s.Version, &s.Status,
			&s.MinRequirementsSnapshotJSON, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ref set: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ref sets: %w", err)
	}
	return out, nil
}

func (r *refSetRepository) MaxVersion(ctx context.Context, characterID string) (int, error) {
	q, err := querierFrom(ctx)
	if err != nil {
		return 0, err
	}

	var max int
	err = q.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM character_ref_sets WHERE character_id = $1`,
		characterID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to get max ref set version: %w", err)
	}
	return max, nil
}
