package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dailies-studio/dailies-engine/pkg/apperrors"
	"github.com/dailies-studio/dailies-engine/pkg/ids"
	"github.com/dailies-studio/dailies-engine/pkg/models"
	"github.com/dailies-studio/dailies-engine/pkg/store"
)

// HierarchyRepository provides data access for the optional
// project/series/shot hierarchy.
type HierarchyRepository interface {
	CreateShot(ctx context.Context, s *models.Shot) error
	GetShot(ctx context.Context, id string) (*models.Shot, error)
	ListShots(ctx context.Context, limit, offset int) ([]models.Shot, error)
}

type hierarchyRepository struct{}

// NewHierarchyRepository creates a new HierarchyRepository.
func NewHierarchyRepository() HierarchyRepository {
	return &hierarchyRepository{}
}

var _ HierarchyRepository = (*hierarchyRepository)(nil)

func (r *hierarchyRepository) CreateShot(ctx context.Context, s *models.Shot) error {
	q, err := querierFrom(ctx)
	if err != nil {
		return err
	}

	if s.ID == "" {
		s.ID = ids.New()
	}
	if s.CreatedAt == "" {
		s.CreatedAt = store.NowUTC()
	}

	_, err = q.Exec(ctx,
		`INSERT INTO shots (id, project_id, series_id, name, created_at) VALUES ($1, $2, $3, $4, $5)`,
		s.ID, nullableString(s.ProjectID), nullableString(s.SeriesID), nullableString(s.Name), s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create shot: %w", err)
	}
	return nil
}

func (r *hierarchyRepository) GetShot(ctx context.Context, id string) (*models.Shot, error) {
	q, err := querierFrom(ctx)
	if err != nil {
		return nil, err
	}

	var s models.Shot
	err = q.QueryRow(ctx,
		`SELECT id, project_id, series_id, name, created_at FROM shots WHERE id = $1`, id).
		Scan(&s.ID, &s.ProjectID, &s.SeriesID, &s.Name, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(apperrors.CodeNotFound, fmt.Sprintf("shot %s not found", id))
		}
		return nil, fmt.Errorf("failed to get shot: %w", err)
	}
	return &s, nil
}

func (r *hierarchyRepository) ListShots(ctx context.Context, limit, offset int) ([]models.Shot, error) {
	q, err := querierFrom(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, project_id, series_id, name, created_at
		FROM shots
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list shots: %w", err)
	}
	defer rows.Close()

	var out []models.Shot
	for rows.Next() {
		var s models.Shot
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.SeriesID, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shot: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shots: %w", err)
	}
	return out, nil
}
