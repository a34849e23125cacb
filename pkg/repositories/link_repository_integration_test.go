//go:build integration

package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailies-studio/dailies-engine/pkg/apperrors"
	"github.com/dailies-studio/dailies-engine/pkg/ids"
	"github.com/dailies-studio/dailies-engine/pkg/models"
	"github.com/dailies-studio/dailies-engine/pkg/schema"
	"github.com/dailies-studio/dailies-engine/pkg/store"
	"github.com/dailies-studio/dailies-engine/pkg/testhelpers"
)

func setupLinkRepo(t *testing.T) (context.Context, LinkRepository) {
	t.Helper()
	engineDB := testhelpers.GetEngineDB(t)
	ctx := engineDB.DB.WithPool(context.Background())

	cols, err := schema.ResolveLinkColumns(ctx, engineDB.DB.Pool)
	require.NoError(t, err)

	return ctx, NewLinkRepository(cols, store.New())
}

// insertAsset writes a minimal asset row so links pointing at it pass
// the target-existence check.
func insertAsset(t *testing.T, ctx context.Context) string {
	t.Helper()
	engineDB := testhelpers.GetEngineDB(t)

	id, err := store.New().Insert(ctx, engineDB.DB.Pool, "assets", map[string]any{"kind": "image"})
	require.NoError(t, err)
	return id
}

func TestLinkTombstoneProtocol(t *testing.T) {
	ctx, repo := setupLinkRepo(t)
	srcID, dstID := ids.New(), insertAsset(t, ctx)

	hasEdge := func() bool {
		edges, err := repo.EffectiveEdges(ctx, models.TypeRun, srcID)
		require.NoError(t, err)
		for _, e := range edges {
			if e.DstID == dstID && e.Rel == models.RelProducedAsset {
				return true
			}
		}
		return false
	}

	linkID, err := repo.Insert(ctx, models.TypeRun, srcID, models.TypeAsset, dstID, models.RelProducedAsset, nil)
	require.NoError(t, err)
	assert.True(t, hasEdge())

	// Tombstone hides the edge without touching the original row.
	tombstoneID, err := repo.Tombstone(ctx, linkID, models.TypeRun, srcID)
	require.NoError(t, err)
	assert.False(t, hasEdge())

	original, err := repo.GetByID(ctx, linkID)
	require.NoError(t, err)
	assert.Equal(t, models.RelProducedAsset, original.Rel)

	// Tombstoning a tombstone conflicts.
	_, err = repo.Tombstone(ctx, tombstoneID, models.TypeRun, srcID)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	// A later re-link restores the edge.
	_, err = repo.Insert(ctx, models.TypeRun, srcID, models.TypeAsset, dstID, models.RelProducedAsset, nil)
	require.NoError(t, err)
	assert.True(t, hasEdge())
}

func TestLinkTombstoneSourceMismatch(t *testing.T) {
	ctx, repo := setupLinkRepo(t)

	linkID, err := repo.Insert(ctx, models.TypeRun, ids.New(), models.TypeAsset, insertAsset(t, ctx), models.RelProducedAsset, nil)
	require.NoError(t, err)

	_, err = repo.Tombstone(ctx, linkID, models.TypeRun, ids.New())
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestLinkInsertRejectsReservedRelation(t *testing.T) {
	ctx, repo := setupLinkRepo(t)

	_, err := repo.Insert(ctx, models.TypeRun, ids.New(), models.TypeAsset, ids.New(),
		models.UnlinkPrefix+models.RelProducedAsset, nil)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestLinkInsertChecksTargetExists(t *testing.T) {
	ctx, repo := setupLinkRepo(t)

	// A destination of a known type must exist in its table.
	_, err := repo.Insert(ctx, models.TypeShot, ids.New(), models.TypeAsset, ids.New(), "references", nil)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	// Unknown destination types are external references and pass.
	_, err = repo.Insert(ctx, models.TypeShot, ids.New(), "external_doc", ids.New(), "references", nil)
	assert.NoError(t, err)

	// A seeded destination passes.
	_, err = repo.Insert(ctx, models.TypeShot, ids.New(), models.TypeAsset, insertAsset(t, ctx), "references", nil)
	assert.NoError(t, err)
}

func TestLinksTableIsAppendOnly(t *testing.T) {
	qctx, repo := setupLinkRepo(t)
	engineDB := testhelpers.GetEngineDB(t)
	ctx := context.Background()

	linkID, err := repo.Insert(qctx, models.TypeRun, ids.New(),
		models.TypeAsset, insertAsset(t, qctx), models.RelProducedAsset, nil)
	require.NoError(t, err)

	// The database trigger rejects mutation of committed rows.
	_, err = engineDB.DB.Exec(ctx, "UPDATE links SET rel = 'changed' WHERE id = $1", linkID)
	assert.Error(t, err)

	_, err = engineDB.DB.Exec(ctx, "DELETE FROM links WHERE id = $1", linkID)
	assert.Error(t, err)
}
