package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/apperrors"
	"github.com/dailies-studio/dailies-engine/pkg/database"
	"github.com/dailies-studio/dailies-engine/pkg/models"
	"github.com/dailies-studio/dailies-engine/pkg/repositories"
)

// CreateCharacterInput carries the fields a caller may set on a new
// character.
type CreateCharacterInput struct {
	Name string  `json:"name"`
	Tags *string `json:"tags,omitempty"`
	Meta *string `json:"meta,omitempty"`
}

// PatchCharacterInput is the narrow character patch. Nil means "leave
// unchanged". ActiveRefSetID re-validates confirmation and the minimum
// reference count before taking effect.
type PatchCharacterInput struct {
	Name           *string `json:"name,omitempty"`
	Status         *string `json:"status,omitempty"`
	ActiveRefSetID *string `json:"active_ref_set_id,omitempty"`
	Tags           *string `json:"tags,omitempty"`
	Meta           *string `json:"meta,omitempty"`
}

// CreateRefSetInput creates a new ref-set version for a character.
// BaseRefSetID names the set whose reference links seed the new
// version; required when Status is confirmed.
type CreateRefSetInput struct {
	CharacterID  string  `json:"character_id"`
	BaseRefSetID *string `json:"base_ref_set_id,omitempty"`
	Status       string  `json:"status"`
}

// CharacterService owns character lifecycle, ref-set versioning and
// the character resolution step of run creation.
type CharacterService struct {
	db         database.TxRunner
	characters repositories.CharacterRepository
	refSets    repositories.RefSetRepository
	assets     repositories.AssetRepository
	links      repositories.LinkRepository
	logger     *zap.Logger
}

// NewCharacterService creates a new CharacterService.
func NewCharacterService(
	db database.TxRunner,
	characters repositories.CharacterRepository,
	refSets repositories.RefSetRepository,
	assets repositories.AssetRepository,
	links repositories.LinkRepository,
	logger *zap.Logger,
) *CharacterService {
	return &CharacterService{
		db:         db,
		characters: characters,
		refSets:    refSets,
		assets:     assets,
		links:      links,
		logger:     logger.Named("characters"),
	}
}

// Create persists a draft character.
func (s *CharacterService) Create(ctx context.Context, in CreateCharacterInput) (*models.Character, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.Validation(apperrors.CodeBadRequest, "name is required")
	}
	c := &models.Character{
		Name:     in.Name,
		Status:   models.StatusDraft,
		TagsJSON: in.Tags,
		MetaJSON: in.Meta,
	}
	if err := s.characters.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns one character.
func (s *CharacterService) Get(ctx context.Context, id string) (*models.Character, error) {
	return s.characters.GetByID(ctx, id)
}

// List returns characters, newest first.
func (s *CharacterService) List(ctx context.Context, limit, offset int) ([]models.Character, error) {
	return s.characters.List(ctx, limit, offset)
}

// Patch applies the narrow character updates. Activating a ref set
// re-checks ownership, confirmation status and the reference minimum.
func (s *CharacterService) Patch(ctx context.Context, id string, in PatchCharacterInput) (*models.Character, error) {
	var out *models.Character
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		c, err := s.characters.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if in.Name != nil {
			if strings.TrimSpace(*in.Name) == "" {
				return apperrors.Validation(apperrors.CodeBadRequest, "name must not be empty")
			}
			c.Name = *in.Name
		}
		if in.Status != nil {
			if !models.ValidCharacterStatus(*in.Status) {
				return apperrors.Validation(apperrors.CodeBadRequest,
					fmt.Sprintf("unknown status %q", *in.Status))
			}
			c.Status = *in.Status
		}
		if in.Tags != nil {
			c.TagsJSON = in.Tags
		}
		if in.Meta != nil {
			c.MetaJSON = in.Meta
		}
		if in.ActiveRefSetID != nil {
			refSet, err := s.validateActivation(ctx, c, *in.ActiveRefSetID)
			if err != nil {
				return err
			}
			c.ActiveRefSetID = &refSet.ID
		}

		if err := s.characters.Update(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// validateActivation checks that refSetID may become the character's
// active set: owned, confirmed, and carrying at least the minimum
// number of alive reference links.
func (s *CharacterService) validateActivation(ctx context.Context, c *models.Character, refSetID string) (*models.CharacterRefSet, error) {
	refSet, err := s.refSets.GetByID(ctx, refSetID)
	if err != nil {
		return nil, err
	}
	if refSet.CharacterID != c.ID {
		return nil, apperrors.Validation(apperrors.CodeInvalidRefSetOwner,
			fmt.Sprintf("ref set %s belongs to another character", refSetID))
	}
	if !refSet.Confirmed() {
		return nil, apperrors.Validation(apperrors.CodeRefSetNotConfirmed,
			fmt.Sprintf("ref set %s is not confirmed", refSetID))
	}
	n, err := s.links.CountEdges(ctx, models.TypeCharacterRefSet, refSet.ID,
		models.TypeAsset, models.RelIncludesReferenceAsset)
	if err != nil {
		return nil, err
	}
	if n < models.MinRefsConfirmed {
		return nil, apperrors.Validation(apperrors.CodeInsufficientRefs,
			fmt.Sprintf("ref set %s has %d reference assets, minimum is %d", refSetID, n, models.MinRefsConfirmed))
	}
	return refSet, nil
}

// CreateRefSet appends a new ref-set version in one transaction:
// version = max+1, a has_ref_set_version link from the character, and
// the base set's alive reference links copied over. A confirmed
// creation additionally requires a base set carrying the reference
// minimum, and activates the new set on the character.
func (s *CharacterService) CreateRefSet(ctx context.Context, in CreateRefSetInput) (*models.CharacterRefSet, error) {
	if in.Status == "" {
		in.Status = models.StatusDraft
	}
	if !models.ValidCharacterStatus(in.Status) {
		return nil, apperrors.Validation(apperrors.CodeBadRequest,
			fmt.Sprintf("invalid ref set status %q", in.Status))
	}
	if in.Status == models.StatusConfirmed && (in.BaseRefSetID == nil || *in.BaseRefSetID == "") {
		return nil, apperrors.Validation(apperrors.CodeBadRequest,
			"confirmed requires base_ref_set_id")
	}

	var out *models.CharacterRefSet
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		c, err := s.characters.GetByID(ctx, in.CharacterID)
		if err != nil {
			return err
		}

		var baseRefs []models.EffectiveEdge
		if in.BaseRefSetID != nil && *in.BaseRefSetID != "" {
			base, err := s.refSets.GetByID(ctx, *in.BaseRefSetID)
			if err != nil {
				return err
			}
			if base.CharacterID != c.ID {
				return apperrors.Validation(apperrors.CodeInvalidRefSetOwner,
					fmt.Sprintf("base ref set %s belongs to another character", base.ID))
			}
			edges, err := s.links.EffectiveEdges(ctx, models.TypeCharacterRefSet, base.ID)
			if err != nil {
				return err
			}
			for _, e := range edges {
				if e.Rel == models.RelIncludesReferenceAsset {
					baseRefs = append(baseRefs, e)
				}
			}
		}

		if in.Status == models.StatusConfirmed && len(baseRefs) < models.MinRefsConfirmed {
			return apperrors.Validation(apperrors.CodeInsufficientRefs,
				fmt.Sprintf("confirmed ref set needs %d reference assets, base set has %d",
					models.MinRefsConfirmed, len(baseRefs)))
		}

		maxVersion, err := s.refSets.MaxVersion(ctx, c.ID)
		if err != nil {
			return err
		}

		snapshot, err := json.Marshal(map[string]any{"min_refs": models.MinRefsConfirmed})
		if err != nil {
			return fmt.Errorf("failed to marshal requirements snapshot: %w", err)
		}

		refSet := &models.CharacterRefSet{
			CharacterID:                 c.ID,
			Version:                     maxVersion + 1,
			Status:                      in.Status,
			MinRequirementsSnapshotJSON: string(snapshot),
		}
		if err := s.refSets.Insert(ctx, refSet); err != nil {
			return err
		}

		if _, err := s.links.Insert(ctx, models.TypeCharacter, c.ID,
			models.TypeCharacterRefSet, refSet.ID, models.RelHasRefSetVersion, nil); err != nil {
			return err
		}
		for _, e := range baseRefs {
			if _, err := s.links.Insert(ctx, models.TypeCharacterRefSet, refSet.ID,
				e.DstType, e.DstID, models.RelIncludesReferenceAsset, nil); err != nil {
				return err
			}
		}

		if in.Status == models.StatusConfirmed {
			c.ActiveRefSetID = &refSet.ID
			if err := s.characters.Update(ctx, c); err != nil {
				return err
			}
		}

		out = refSet
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetRefSet returns one ref set of a character.
func (s *CharacterService) GetRefSet(ctx context.Context, characterID, refSetID string) (*models.CharacterRefSet, error) {
	refSet, err := s.refSets.GetByID(ctx, refSetID)
	if err != nil {
		return nil, err
	}
	if refSet.CharacterID != characterID {
		return nil, apperrors.Validation(apperrors.CodeInvalidRefSetOwner,
			fmt.Sprintf("ref set %s belongs to another character", refSetID))
	}
	return refSet, nil
}

// ListRefSets returns a character's ref sets, newest version first.
func (s *CharacterService) ListRefSets(ctx context.Context, characterID string) ([]models.CharacterRefSet, error) {
	if _, err := s.characters.GetByID(ctx, characterID); err != nil {
		return nil, err
	}
	return s.refSets.ListByCharacter(ctx, characterID)
}

// AddRef attaches a reference asset to a draft ref set. Confirmed and
// archived sets are frozen. Re-adding an already-alive reference is
// idempotent and returns the existing link id.
func (s *CharacterService) AddRef(ctx context.Context, characterID, refSetID, assetID string) (string, error) {
	var linkID string
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		refSet, err := s.GetRefSet(ctx, characterID, refSetID)
		if err != nil {
			return err
		}
		if refSet.Status != models.StatusDraft {
			return apperrors.Conflict(apperrors.CodeConflict,
				fmt.Sprintf("ref set %s is %s; only draft sets accept references", refSetID, refSet.Status))
		}

		asset, err := s.assets.GetByID(ctx, assetID)
		if err != nil {
			return err
		}
		if asset.Deleted() {
			return apperrors.Validation(apperrors.CodeBadRequest,
				fmt.Sprintf("asset %s is in the trash", assetID))
		}

		links, err := s.links.ListBySource(ctx, models.TypeCharacterRefSet, refSetID)
		if err != nil {
			return err
		}
		for _, e := range models.EffectiveEdges(links) {
			if e.Rel == models.RelIncludesReferenceAsset && e.DstType == models.TypeAsset && e.DstID == assetID {
				linkID = aliveLinkID(links, e)
				return nil
			}
		}

		linkID, err = s.links.Insert(ctx, models.TypeCharacterRefSet, refSetID,
			models.TypeAsset, assetID, models.RelIncludesReferenceAsset, nil)
		return err
	})
	if err != nil {
		return "", err
	}
	return linkID, nil
}

// aliveLinkID finds the winning link row behind an effective edge.
func aliveLinkID(links []models.Link, edge models.EffectiveEdge) string {
	var winner *models.Link
	for i := range links {
		l := &links[i]
		if l.DstType != edge.DstType || l.DstID != edge.DstID || l.BaseRel() != edge.Rel {
			continue
		}
		if winner == nil || l.CreatedAt > winner.CreatedAt ||
			(l.CreatedAt == winner.CreatedAt && l.ID > winner.ID) {
			winner = l
		}
	}
	if winner == nil {
		return ""
	}
	return winner.ID
}

// ResolveRefs validates the character bindings of a run request and
// pins each to a concrete confirmed ref-set version. The exact-one-
// primary rule is the orchestrator's, not this resolver's.
func (s *CharacterService) ResolveRefs(ctx context.Context, refs []models.RunCharacterRef) ([]models.ResolvedCharacterRef, error) {
	resolved := make([]models.ResolvedCharacterRef, 0, len(refs))
	for _, ref := range refs {
		c, err := s.characters.GetByID(ctx, ref.CharacterID)
		if err != nil {
			return nil, err
		}

		refSetID := ""
		switch {
		case ref.RefSetID != nil && *ref.RefSetID != "":
			refSetID = *ref.RefSetID
		case c.ActiveRefSetID != nil && *c.ActiveRefSetID != "":
			refSetID = *c.ActiveRefSetID
		default:
			return nil, apperrors.Validation(apperrors.CodeActiveRefSetMissing,
				fmt.Sprintf("character %s has no active ref set and none was specified", c.ID))
		}

		refSet, err := s.refSets.GetByID(ctx, refSetID)
		if err != nil {
			return nil, err
		}
		if refSet.CharacterID != c.ID {
			return nil, apperrors.Validation(apperrors.CodeInvalidRefSetOwner,
				fmt.Sprintf("ref set %s belongs to another character", refSetID))
		}
		if !refSet.Confirmed() {
			return nil, apperrors.Validation(apperrors.CodeRefSetNotConfirmed,
				fmt.Sprintf("ref set %s is not confirmed", refSetID))
		}

		resolved = append(resolved, models.ResolvedCharacterRef{
			CharacterID:   c.ID,
			RefSetID:      refSet.ID,
			RefSetVersion: refSet.Version,
			IsPrimary:     ref.IsPrimary,
		})
	}
	return resolved, nil
}
