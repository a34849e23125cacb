package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/apperrors"
	"github.com/dailies-studio/dailies-engine/pkg/database"
	"github.com/dailies-studio/dailies-engine/pkg/logging"
	"github.com/dailies-studio/dailies-engine/pkg/models"
	"github.com/dailies-studio/dailies-engine/pkg/repositories"
)

// resolveScanLimit bounds the latest-usable fallback scan.
const resolveScanLimit = 50

// ProviderProfileView is the API projection of a profile: the config is
// redacted per the profile's own policy, never raw.
type ProviderProfileView struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	ProviderType    string         `json:"provider_type"`
	Config          map[string]any `json:"config"`
	IsGlobalDefault bool           `json:"is_global_default"`
	Scrubbed        bool           `json:"scrubbed"`
	CreatedAt       string         `json:"created_at"`
	UpdatedAt       string         `json:"updated_at"`
}

// CreateProviderProfileInput carries the fields a caller may set.
type CreateProviderProfileInput struct {
	Name            string         `json:"name"`
	ProviderType    string         `json:"provider_type"`
	Config          map[string]any `json:"config"`
	RedactionPolicy *logging.RedactionPolicy `json:"secrets_redaction_policy,omitempty"`
	IsGlobalDefault bool           `json:"is_global_default"`
}

// PatchProviderProfileInput carries the narrow patchable fields. Nil
// means "leave unchanged".
type PatchProviderProfileInput struct {
	Name            *string         `json:"name,omitempty"`
	Config          *map[string]any `json:"config,omitempty"`
	RedactionPolicy *logging.RedactionPolicy `json:"secrets_redaction_policy,omitempty"`
}

// ProviderProfileService owns provider profile lifecycle and the
// resolution algorithm used by run creation.
type ProviderProfileService struct {
	db     database.TxRunner
	repo   repositories.ProviderProfileRepository
	logger *zap.Logger
}

// NewProviderProfileService creates a new ProviderProfileService.
func NewProviderProfileService(db database.TxRunner, repo repositories.ProviderProfileRepository, logger *zap.Logger) *ProviderProfileService {
	return &ProviderProfileService{db: db, repo: repo, logger: logger.Named("provider_profiles")}
}

// Resolve picks the profile a run should use: explicit override first,
// then the global default, then the most recently updated usable
// profile. Scrubbed profiles never resolve; an override pointing at one
// fails even when a valid fallback exists.
func (s *ProviderProfileService) Resolve(ctx context.Context, overrideID *string) (*models.ProviderProfile, error) {
	if overrideID != nil && *overrideID != "" {
		p, err := s.repo.GetByID(ctx, *overrideID)
		if err != nil {
			return nil, err
		}
		if p.IsScrubbed() {
			return nil, apperrors.Conflict(apperrors.CodeProviderProfileDeleted,
				fmt.Sprintf("provider profile %s has been scrubbed", p.ID))
		}
		return p, nil
	}

	if p, err := s.repo.GetGlobalDefault(ctx); err == nil {
		if !p.IsScrubbed() {
			return p, nil
		}
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	recent, err := s.repo.ListRecent(ctx, resolveScanLimit)
	if err != nil {
		return nil, err
	}
	for i := range recent {
		if !recent[i].IsScrubbed() {
			return &recent[i], nil
		}
	}

	return nil, apperrors.Validation(apperrors.CodeProviderProfileRequired,
		"no usable provider profile configured")
}

// Create validates and persists a new profile. Setting the profile as
// global default clears any existing default in the same transaction.
func (s *ProviderProfileService) Create(ctx context.Context, in CreateProviderProfileInput) (*ProviderProfileView, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.Validation(apperrors.CodeBadRequest, "name is required")
	}
	if strings.HasPrefix(in.Name, models.ScrubbedNamePrefix) {
		return nil, apperrors.Validation(apperrors.CodeBadRequest, "name must not carry the scrub marker")
	}
	if strings.TrimSpace(in.ProviderType) == "" {
		return nil, apperrors.Validation(apperrors.CodeBadRequest, "provider_type is required")
	}

	configJSON, err := marshalConfig(in.Config)
	if err != nil {
		return nil, err
	}
	policyJSON, err := marshalPolicy(in.RedactionPolicy)
	if err != nil {
		return nil, err
	}

	p := &models.ProviderProfile{
		Name:                       in.Name,
		ProviderType:               in.ProviderType,
		ConfigJSON:                 configJSON,
		SecretsRedactionPolicyJSON: policyJSON,
		IsGlobalDefault:            in.IsGlobalDefault,
	}

	err = s.db.InTx(ctx, func(ctx context.Context) error {
		if p.IsGlobalDefault {
			if err := s.repo.ClearGlobalDefault(ctx); err != nil {
				return err
			}
		}
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return s.view(p), nil
}

// Get returns a single redacted profile view.
func (s *ProviderProfileService) Get(ctx context.Context, id string) (*ProviderProfileView, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(p), nil
}

// List returns redacted profile views, most recently updated first.
func (s *ProviderProfileService) List(ctx context.Context, limit int) ([]*ProviderProfileView, error) {
	profiles, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	views := make([]*ProviderProfileView, len(profiles))
	for i := range profiles {
		views[i] = s.view(&profiles[i])
	}
	return views, nil
}

// Patch applies the narrow field updates. Scrubbed profiles cannot be
// patched back to life.
func (s *ProviderProfileService) Patch(ctx context.Context, id string, in PatchProviderProfileInput) (*ProviderProfileView, error) {
	var out *ProviderProfileView
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.IsScrubbed() {
			return apperrors.Conflict(apperrors.CodeProviderProfileDeleted,
				fmt.Sprintf("provider profile %s has been scrubbed", id))
		}

		if in.Name != nil {
			if strings.TrimSpace(*in.Name) == "" {
				return apperrors.Validation(apperrors.CodeBadRequest, "name must not be empty")
			}
			if strings.HasPrefix(*in.Name, models.ScrubbedNamePrefix) {
				return apperrors.Validation(apperrors.CodeBadRequest, "name must not carry the scrub marker")
			}
			p.Name = *in.Name
		}
		if in.Config != nil {
			configJSON, err := marshalConfig(*in.Config)
			if err != nil {
				return err
			}
			p.ConfigJSON = configJSON
		}
		if in.RedactionPolicy != nil {
			policyJSON, err := marshalPolicy(in.RedactionPolicy)
			if err != nil {
				return err
			}
			p.SecretsRedactionPolicyJSON = policyJSON
		}

		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		out = s.view(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetGlobalDefault makes one profile the global default. Clear and set
// run in one transaction so the at-most-one invariant holds; the
// partial unique index is the backstop under concurrent callers.
func (s *ProviderProfileService) SetGlobalDefault(ctx context.Context, id string) (*ProviderProfileView, error) {
	var out *ProviderProfileView
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.IsScrubbed() {
			return apperrors.Conflict(apperrors.CodeProviderProfileDeleted,
				fmt.Sprintf("provider profile %s has been scrubbed", id))
		}
		if err := s.repo.ClearGlobalDefault(ctx); err != nil {
			return err
		}
		p.IsGlobalDefault = true
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		out = s.view(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Scrub is the only "deletion": config and policy are wiped, the
// default flag cleared and the name tagged, but the row is retained so
// past run evidence stays resolvable.
func (s *ProviderProfileService) Scrub(ctx context.Context, id string) (*ProviderProfileView, error) {
	var out *ProviderProfileView
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.IsScrubbed() {
			return apperrors.Conflict(apperrors.CodeProviderProfileDeleted,
				fmt.Sprintf("provider profile %s is already scrubbed", id))
		}

		p.Name = models.ScrubbedNamePrefix + p.ID
		p.ConfigJSON = ""
		p.SecretsRedactionPolicyJSON = ""
		p.IsGlobalDefault = false
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		out = s.view(p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("provider profile scrubbed", zap.String("profile_id", id))
	return out, nil
}

// view projects a profile for API exposure, applying its redaction
// policy to the config.
func (s *ProviderProfileService) view(p *models.ProviderProfile) *ProviderProfileView {
	var config map[string]any
	if strings.TrimSpace(p.ConfigJSON) != "" {
		if err := json.Unmarshal([]byte(p.ConfigJSON), &config); err != nil {
			s.logger.Warn("unparseable profile config, omitting from view",
				zap.String("profile_id", p.ID), zap.Error(err))
			config = nil
		}
	}
	var policy logging.RedactionPolicy
	if strings.TrimSpace(p.SecretsRedactionPolicyJSON) != "" {
		if err := json.Unmarshal([]byte(p.SecretsRedactionPolicyJSON), &policy); err != nil {
			s.logger.Warn("unparseable redaction policy, redacting nothing extra",
				zap.String("profile_id", p.ID), zap.Error(err))
		}
	}

	return &ProviderProfileView{
		ID:              p.ID,
		Name:            p.Name,
		ProviderType:    p.ProviderType,
		Config:          logging.RedactConfig(config, policy),
		IsGlobalDefault: p.IsGlobalDefault,
		Scrubbed:        p.IsScrubbed(),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func marshalConfig(config map[string]any) (string, error) {
	if config == nil {
		config = map[string]any{}
	}
	b, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile config: %w", err)
	}
	return string(b), nil
}

func marshalPolicy(policy *logging.RedactionPolicy) (string, error) {
	if policy == nil {
		policy = &logging.RedactionPolicy{}
	}
	b, err := json.Marshal(policy)
	if err != nil {
		return "", fmt.Errorf("failed to marshal redaction policy: %w", err)
	}
	return string(b), nil
}
