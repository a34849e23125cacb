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

// ProviderProfileRepository provides data access for provider profiles.
// Profiles are one of the two mutable entities; every mutation is a
// narrow UPDATE that bumps updated_at.
type ProviderProfileRepository interface {
	Create(ctx context.Context, p *models.ProviderProfile) error
	GetByID(ctx context.Context, id string) (*models.ProviderProfile, error)
	GetGlobalDefault(ctx context.Context) (*models.ProviderProfile, error)
	ListRecent(ctx context.Context, limit int) ([]models.ProviderProfile, error)
	Update(ctx context.Context, p *models.ProviderProfile) error
	ClearGlobalDefault(ctx context.Context) error
}

type providerProfileRepository struct{}

// NewProviderProfileRepository creates a new ProviderProfileRepository.
func NewProviderProfileRepository() ProviderProfileRepository {
	return &providerProfileRepository{}
}

var _ ProviderProfileRepository = (*providerProfileRepository)(nil)

const providerProfileColumns = `id, name, provider_type, config_json,
	secrets_redaction_policy_json, is_global_default = 1, created_at, updated_at`

func (r *providerProfileRepository) Create(ctx context.Context, p *models.ProviderProfile) error {
	q, err := querierFrom(ctx)
	if err != nil {
		return err
	}

	if p.ID == "" {
		p.ID = ids.New()
	}
	now := store.NowUTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	isDefault := 0
	if p.IsGlobalDefault {
		isDefault = 1
	}

	query := `
		INSERT INTO provider_profiles (
			id, name, provider_type, config_json,
			secrets_redaction_policy_json, is_global_default,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = q.Exec(ctx, query,
		p.ID, p.Name, p.ProviderType, p.ConfigJSON,
		p.SecretsRedactionPolicyJSON, isDefault, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create provider profile: %w", err)
	}
	return nil
}

func (r *providerProfileRepository) GetByID(ctx context.Context, id string) (*models.ProviderProfile, error) {
	q, err := querierFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM provider_profiles WHERE id = $1`, providerProfileColumns)

	var p models.ProviderProfile
	err = q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.ProviderType, &p.ConfigJSON,
		&p.SecretsRedactionPolicyJSON, &p.IsGlobalDefault, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(apperrors.CodeProviderProfileNotFound,
				fmt.Sprintf("provider profile %s not found", id))
		}
		return nil, fmt.Errorf("failed to get provider profile: %w", err)
	}
	return &p, nil
}

func (r *providerProfileRepository) GetGlobalDefault(ctx context.Context) (*models.ProviderProfile, error) {
	q, err := querierFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM provider_profiles WHERE is_global_default = 1`, providerProfileColumns)

	var p models.ProviderProfile
	err = q.QueryRow(ctx, query).Scan(
		&p.ID, &p.Name, &p.ProviderType, &p.ConfigJSON,
		&p.SecretsRedactionPolicyJSON, &p.IsGlobalDefault, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(apperrors.CodeProviderProfileNotFound, "no global default provider profile")
		}
		return nil, fmt.Errorf("failed to get global default provider profile: %w", err)
	}
	return &p, nil
}

func (r *providerProfileRepository) ListRecent(ctx context.Context, limit int) ([]models.ProviderProfile, error) {
	q, err := querierFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM provider_profiles
		ORDER BY updated_at DESC, id DESC
		LIMIT $1`, providerProfileColumns)

	rows, err := q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list provider profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.ProviderProfile
	for rows.Next() {
		var p models.ProviderProfile
		if err := rows.Scan(&p.ID, &p.Name, &p.ProviderType, &p.ConfigJSON,
			&p.SecretsRedactionPolicyJSON, &p.IsGlobalDefault, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan provider profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate provider profiles: %w", err)
	}
	return profiles, nil
}

func (r *providerProfileRepository) Update(ctx context.Context, p *models.ProviderProfile) error {
	q, err := querierFrom(ctx)
	if err != nil {
		return err
	}

	p.UpdatedAt = store.NowUTC()
	isDefault := 0
	if p.IsGlobalDefault {
		isDefault = 1
	}

	query := `
		UPDATE provider_profiles
		SET name = $2, provider_type = $3, config_json = $4,
		    secrets_redaction_policy_json = $5, is_global_default = $6,
		    updated_at = $7
		WHERE id = $1`

	tag, err := q.Exec(ctx, query,
		p.ID, p.Name, p.ProviderType, p.ConfigJSON,
		p.SecretsRedactionPolicyJSON, isDefault, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update provider profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(apperrors.CodeProviderProfileNotFound,
			fmt.Sprintf("provider profile %s not found", p.ID))
	}
	return nil
}

func (r *providerProfileRepository) ClearGlobalDefault(ctx context.Context) error {
	q, err := querierFrom(ctx)
	if err != nil {
		return err
	}

	query := `
		UPDATE provider_profiles
		SET is_global_default = 0, updated_at = $1
		WHERE is_global_default = 1`

	if _, err := q.Exec(ctx, query, store.NowUTC()); err != nil {
		return fmt.Errorf("failed to clear global default: %w", err)
	}
	return nil
}
