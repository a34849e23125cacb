//go:build integration

package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/apperrors"
	"github.com/dailies-studio/dailies-engine/pkg/models"
	"github.com/dailies-studio/dailies-engine/pkg/repositories"
	"github.com/dailies-studio/dailies-engine/pkg/schema"
	"github.com/dailies-studio/dailies-engine/pkg/store"
	"github.com/dailies-studio/dailies-engine/pkg/testhelpers"
)

type integrationFixture struct {
	ctx        context.Context
	characters *CharacterService
	assets     repositories.AssetRepository
	profiles   repositories.ProviderProfileRepository
}

func setupIntegration(t *testing.T) *integrationFixture {
	t.Helper()
	engineDB := testhelpers.GetEngineDB(t)
	ctx := engineDB.DB.WithPool(context.Background())

	cols, err := schema.ResolveLinkColumns(ctx, engineDB.DB.Pool)
	require.NoError(t, err)

	rowStore := store.New()
	linkRepo := repositories.NewLinkRepository(cols, rowStore)
	assetRepo := repositories.NewAssetRepository()
	characterRepo := repositories.NewCharacterRepository()
	refSetRepo := repositories.NewRefSetRepository(rowStore)

	return &integrationFixture{
		ctx: ctx,
		characters: NewCharacterService(engineDB.DB, characterRepo, refSetRepo,
			assetRepo, linkRepo, zap.NewNop()),
		assets:   assetRepo,
		profiles: repositories.NewProviderProfileRepository(),
	}
}

func (f *integrationFixture) seedAsset(t *testing.T, n int) string {
	t.Helper()
	uri := fmt.Sprintf("storage://refs/ref-%d.png", n)
	a := &models.Asset{Kind: models.AssetKindImage, URI: &uri}
	require.NoError(t, f.assets.Create(f.ctx, a))
	return a.ID
}

// The full ref-set lifecycle: draft character, draft set, references
// added one by one, then a confirmed version that copies the refs and
// becomes the active set.
func TestRefSetLifecycle(t *testing.T) {
	f := setupIntegration(t)

	c, err := f.characters.Create(f.ctx, CreateCharacterInput{Name: "lifecycle-mira"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, c.Status)

	r1, err := f.characters.CreateRefSet(f.ctx, CreateRefSetInput{CharacterID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, r1.Version)

	// Confirmed creation fails until the base set carries the minimum.
	_, err = f.characters.CreateRefSet(f.ctx, CreateRefSetInput{
		CharacterID:  c.ID,
		BaseRefSetID: &r1.ID,
		Status:       models.StatusConfirmed,
	})
	assert.Equal(t, apperrors.CodeInsufficientRefs, apperrors.CodeOf(err))

	for i := 0; i < models.MinRefsConfirmed; i++ {
		assetID := f.seedAsset(t, i)
		_, err := f.characters.AddRef(f.ctx, c.ID, r1.ID, assetID)
		require.NoError(t, err)
	}

	r2, err := f.characters.CreateRefSet(f.ctx, CreateRefSetInput{
		CharacterID:  c.ID,
		BaseRefSetID: &r1.ID,
		Status:       models.StatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, r2.Version)
	assert.Equal(t, models.StatusConfirmed, r2.Status)

	// The confirmed set activated and carries the copied references.
	stored, err := f.characters.Get(f.ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ActiveRefSetID)
	assert.Equal(t, r2.ID, *stored.ActiveRefSetID)

	// Confirmed sets are frozen.
	extraAsset := f.seedAsset(t, 99)
	_, err = f.characters.AddRef(f.ctx, c.ID, r2.ID, extraAsset)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	// Resolution pins the active confirmed version.
	resolved, err := f.characters.ResolveRefs(f.ctx, []models.RunCharacterRef{
		{CharacterID: c.ID, IsPrimary: true},
	})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, 2, resolved[0].RefSetVersion)
}

func TestGlobalDefaultUniquenessEnforced(t *testing.T) {
	f := setupIntegration(t)

	clear := func() {
		require.NoError(t, f.profiles.ClearGlobalDefault(f.ctx))
	}
	clear()
	t.Cleanup(clear)

	first := &models.ProviderProfile{
		Name:            "uniq-default-a",
		ProviderType:    models.ProviderTypeMock,
		ConfigJSON:      "{}",
		IsGlobalDefault: true,
	}
	require.NoError(t, f.profiles.Create(f.ctx, first))

	// The partial unique index is the backstop against a second
	// default sneaking past the clear-then-set transaction.
	second := &models.ProviderProfile{
		Name:            "uniq-default-b",
		ProviderType:    models.ProviderTypeMock,
		ConfigJSON:      "{}",
		IsGlobalDefault: true,
	}
	assert.Error(t, f.profiles.Create(f.ctx, second))
}
