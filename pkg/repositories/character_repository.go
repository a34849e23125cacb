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

// CharacterRepository provides data access for characters. Characters
// are mutable; their reference sets are not (see RefSetRepository).
type CharacterRepository interface {
	Create(ctx context.Context, c *models.Character) error
	GetByID(ctx context.Context, id string) (*models.Character, error)
	List(ctx context.Context, limit, offset int) ([]models.Character, error)
	Update(ctx context.Context, c *models.Character) error
}

type characterRepository struct{}

// NewCharacterRepository creates a new CharacterRepository.
func NewCharacterRepository() CharacterRepository {
	return &characterRepository{}
}

var _ CharacterRepository = (*characterRepository)(nil)

const characterColumns = `id, name, status, active_ref_set_id, tags_json, meta_json, created_at, updated_at`

func (r *characterRepository) Create(ctx context.Context, c *models.Character) error {
	q, err := querierFrom(ctx)
	if err != nil {
		return err
	}

	if c.ID == "" {
		c.ID = ids.New()
	}
	if c.Status == "" {
		c.Status = models.StatusDraft
	}
	now := store.NowUTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `
		INSERT INTO characters (id, name, status, active_ref_set_id, tags_json, meta_json, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = q.Exec(ctx, query,
		c.ID, c.Name, c.Status, nullableString(c.ActiveRefSetID),
		nullableString(c.TagsJSON), nullableString(c.MetaJSON), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create character: %w", err)
	}
	return nil
}

func (r *characterRepository) GetByID(ctx context.Context, id string) (*models.Character, error) {
	q, err := querierFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM characters WHERE id = $1`, characterColumns)

	var c models.Character
	err = q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Status, &c.ActiveRefSetID,
		&c.TagsJSON, &c.MetaJSON, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(apperrors.CodeCharacterNotFound,
				fmt.Sprintf("character %s not found", id))
		}
		return nil, fmt.Errorf("failed to get character: %w", err)
	}
	return &c, nil
}

func (r *characterRepository) List(ctx context.Context, limit, offset int) ([]models.Character, error) {
	q, err := querierFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM characters
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`, characterColumns)

	rows, err := q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	defer rows.Close()

	var out []models.Character
	for rows.Next() {
		var c models.Character
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, &c.ActiveRefSetID,
			&c.TagsJSON, &c.MetaJSON, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate characters: %w", err)
	}
	return out, nil
}

func (r *characterRepository) Update(ctx context.Context, c *models.Character) error {
	q, err := querierFrom(ctx)
	if err != nil {
		return err
	}

	c.UpdatedAt = store.NowUTC()

	query := `
		UPDATE characters
		SET name = $2, status = $3, active_ref_set_id = $4,
		    tags_json = $5, meta_json = $6, updated_at = $7
		WHERE id = $1`

	tag, err := q.Exec(ctx, query,
		c.ID, c.Name, c.Status, nullableString(c.ActiveRefSetID),
		nullableString(c.TagsJSON), nullableString(c.MetaJSON), c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(apperrors.CodeCharacterNotFound,
			fmt.Sprintf("character %s not found", c.ID))
	}
	return nil
}
