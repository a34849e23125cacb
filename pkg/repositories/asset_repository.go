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

// AssetRepository provides data access for assets. Assets soft-delete
// by setting deleted_at; trash purge is the only hard delete in the
// system and leaves links behind as audit trail.
type AssetRepository interface {
	Create(ctx context.Context, a *models.Asset) error
	GetByID(ctx context.Context, id string) (*models.Asset, error)
	List(ctx context.Context, includeDeleted bool, limit, offset int) ([]models.Asset, error)
	ListDeleted(ctx context.Context) ([]models.Asset, error)
	SoftDelete(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error
}

type assetRepository struct{}

// NewAssetRepository creates a new AssetRepository.
func NewAssetRepository() AssetRepository {
	return &assetRepository{}
}

var _ AssetRepository = (*assetRepository)(nil)

const assetColumns = `id, kind, uri, mime_type, sha256, width, height, duration_ms,
	project_id, series_id, shot_id, storage_path, meta_json, created_at, deleted_at`

func scanAsset(row pgx.Row) (*models.Asset, error) {
	var a models.Asset
	err := row.Scan(&a.ID, &a.Kind, &a.URI, &a.MimeType, &a.SHA256,
		&a.Width, &a.Height, &a.DurationMS,
		&a.ProjectID, &a.SeriesID, &a.ShotID, &a.StoragePath,
		&a.MetaJSON, &a.CreatedAt, &a.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assetRepository) Create(ctx context.Context, a *models.Asset) error {
	q, err := querierFrom(ctx)
	if err != nil {
		return err
	}

	if a.ID == "" {
		a.ID = ids.New()
	}
	if a.CreatedAt == "" {
		a.CreatedAt = store.NowUTC()
	}

	query := `
		INSERT INTO assets (id, kind, uri, mime_type, sha256, width, height, duration_ms,
			project_id, series_id, shot_id, storage_path, meta_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = q.Exec(ctx, query,
		a.ID, a.Kind, nullableString(a.URI), nullableString(a.MimeType), nullableString(a.SHA256),
		a.Width, a.Height, a.DurationMS,
		nullableString(a.ProjectID), nullableString(a.SeriesID), nullableString(a.ShotID),
		nullableString(a.StoragePath), nullableString(a.MetaJSON), a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}
	return nil
}

func (r *assetRepository) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	q, err := querierFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM assets WHERE id = $1`, assetColumns)
	a, err := scanAsset(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(apperrors.CodeNotFound, fmt.Sprintf("asset %s not found", id))
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return a, nil
}

func (r *assetRepository) List(ctx context.Context, includeDeleted bool, limit, offset int) ([]models.Asset, error) {
	where := "WHERE deleted_at IS NULL"
	if includeDeleted {
		where = ""
	}
	query := fmt.Sprintf(`
		SELECT %s FROM assets %s
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`, assetColumns, where)
	return r.listQuery(ctx, query, limit, offset)
}

func (r *assetRepository) ListDeleted(ctx context.Context) ([]models.Asset, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM assets
		WHERE deleted_at IS NOT NULL
		ORDER BY deleted_at`, assetColumns)
	return r.listQuery(ctx, query)
}

func (r *assetRepository) listQuery(ctx context.Context, query string, args ...any) ([]models.Asset, error) {
	q, err := querierFrom(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var out []models.Asset
	for rows.Next() {
		var a models.Asset
		if err := rows.Scan(&a.ID, &a.Kind, &a.URI, &a.MimeType, &a.SHA256,
			&a.Width, &a.Height, &a.DurationMS,
			&a.ProjectID, &a.SeriesID, &a.ShotID, &a.StoragePath,
			&a.MetaJSON, &a.CreatedAt, &a.DeletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assets: %w", err)
	}
	return out, nil
}

func (r *assetRepository) SoftDelete(ctx context.Context, id string) error {
	q, err := querierFrom(ctx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx,
		`UPDATE assets SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, store.NowUTC())
	if err != nil {
		return fmt.Errorf("failed to soft delete asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(apperrors.CodeNotFound,
			fmt.Sprintf("asset %s not found or already deleted", id))
	}
	return nil
}

func (r *assetRepository) HardDelete(ctx context.Context, id string) error {
	q, err := querierFrom(ctx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx,
		`DELETE FROM assets WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to hard delete asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Conflict(apperrors.CodeConflict,
			fmt.Sprintf("asset %s is not in the trash", id))
	}
	return nil
}
