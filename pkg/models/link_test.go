package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func link(id, dstType, dstID, rel, createdAt string) Link {
	return Link{
		ID:        id,
		SrcType:   TypeRun,
		SrcID:     "01RUN",
		DstType:   dstType,
		DstID:     dstID,
		Rel:       rel,
		CreatedAt: createdAt,
	}
}

func TestLink_Tombstone(t *testing.T) {
	l := link("01", TypeAsset, "A1", RelProducedAsset, "2026-01-01T00:00:00Z")
	assert.False(t, l.IsTombstone())
	assert.Equal(t, RelProducedAsset, l.BaseRel())

	ts := link("02", TypeAsset, "A1", UnlinkPrefix+RelProducedAsset, "2026-01-01T00:00:01Z")
	assert.True(t, ts.IsTombstone())
	assert.Equal(t, RelProducedAsset, ts.BaseRel())
}

func TestEffectiveEdges_TombstoneHidesEdge(t *testing.T) {
	edges := EffectiveEdges([]Link{
		link("01", TypeAsset, "A1", RelProducedAsset, "2026-01-01T00:00:00Z"),
		link("02", TypeAsset, "A1", UnlinkPrefix+RelProducedAsset, "2026-01-01T00:00:05Z"),
	})
	assert.Empty(t, edges)
}

func TestEffectiveEdges_RelinkAfterUnlinkRestoresVisibility(t *testing.T) {
	edges := EffectiveEdges([]Link{
		link("01", TypeAsset, "A1", RelProducedAsset, "2026-01-01T00:00:00Z"),
		link("02", TypeAsset, "A1", UnlinkPrefix+RelProducedAsset, "2026-01-01T00:00:05Z"),
		link("03", TypeAsset, "A1", RelProducedAsset, "2026-01-01T00:00:09Z"),
	})
	require.Len(t, edges, 1)
	assert.Equal(t, EffectiveEdge{DstType: TypeAsset, DstID: "A1", Rel: RelProducedAsset}, edges[0])
}

func TestEffectiveEdges_GroupsByDestinationAndRelation(t *testing.T) {
	edges := EffectiveEdges([]Link{
		link("01", TypeAsset, "A1", RelProducedAsset, "2026-01-01T00:00:00Z"),
		link("02", TypeAsset, "A2", RelProducedAsset, "2026-01-01T00:00:00Z"),
		link("03", TypeAsset, "A1", RelIncludesReferenceAsset, "2026-01-01T00:00:00Z"),
		link("04", TypeAsset, "A2", UnlinkPrefix+RelProducedAsset, "2026-01-01T00:00:03Z"),
	})
	require.Len(t, edges, 2)
	assert.Equal(t, EffectiveEdge{DstType: TypeAsset, DstID: "A1", Rel: RelIncludesReferenceAsset}, edges[0])
	assert.Equal(t, EffectiveEdge{DstType: TypeAsset, DstID: "A1", Rel: RelProducedAsset}, edges[1])
}

func TestEffectiveEdges_EqualTimestampsBreakByID(t *testing.T) {
	// Same second, tombstone has the greater id: edge is gone.
	edges := EffectiveEdges([]Link{
		link("01A", TypeAsset, "A1", RelProducedAsset, "2026-01-01T00:00:00Z"),
		link("01B", TypeAsset, "A1", UnlinkPrefix+RelProducedAsset, "2026-01-01T00:00:00Z"),
	})
	assert.Empty(t, edges)

	// Same second, re-link has the greater id: edge is back.
	edges = EffectiveEdges([]Link{
		link("01A", TypeAsset, "A1", UnlinkPrefix+RelProducedAsset, "2026-01-01T00:00:00Z"),
		link("01B", TypeAsset, "A1", RelProducedAsset, "2026-01-01T00:00:00Z"),
	})
	require.Len(t, edges, 1)
	assert.Equal(t, RelProducedAsset, edges[0].Rel)
}

func TestEffectiveEdges_OrderInsensitive(t *testing.T) {
	links := []Link{
		link("01", TypeAsset, "A1", RelProducedAsset, "2026-01-01T00:00:00Z"),
		link("02", TypeAsset, "A1", UnlinkPrefix+RelProducedAsset, "2026-01-01T00:00:05Z"),
		link("03", TypeAsset, "A1", RelProducedAsset, "2026-01-01T00:00:09Z"),
	}
	reversed := []Link{links[2], links[1], links[0]}
	assert.Equal(t, EffectiveEdges(links), EffectiveEdges(reversed))
}

func TestEffectiveEdges_SkipsBlankRows(t *testing.T) {
	edges := EffectiveEdges([]Link{
		link("01", "", "A1", RelProducedAsset, "2026-01-01T00:00:00Z"),
		link("02", TypeAsset, "", RelProducedAsset, "2026-01-01T00:00:00Z"),
		link("03", TypeAsset, "A1", "", "2026-01-01T00:00:00Z"),
	})
	assert.Empty(t, edges)
}

func inboundLink(id, srcType, srcID, rel, createdAt string) Link {
	return Link{
		ID:        id,
		SrcType:   srcType,
		SrcID:     srcID,
		DstType:   TypeAsset,
		DstID:     "A1",
		Rel:       rel,
		CreatedAt: createdAt,
	}
}

func TestAliveInbound_TombstonePairFoldsAway(t *testing.T) {
	alive := AliveInbound([]Link{
		inboundLink("01", TypeRun, "R1", RelProducedAsset, "2026-01-01T00:00:00Z"),
		inboundLink("02", TypeRun, "R1", UnlinkPrefix+RelProducedAsset, "2026-01-01T00:00:05Z"),
		inboundLink("03", TypeCharacterRefSet, "RS1", RelIncludesReferenceAsset, "2026-01-01T00:00:07Z"),
	})
	require.Len(t, alive, 1)
	assert.Equal(t, "03", alive[0].ID)
	assert.Equal(t, RelIncludesReferenceAsset, alive[0].Rel)
}

func TestAliveInbound_GroupsBySource(t *testing.T) {
	alive := AliveInbound([]Link{
		inboundLink("01", TypeRun, "R1", RelProducedAsset, "2026-01-01T00:00:00Z"),
		inboundLink("02", TypeRun, "R2", RelProducedAsset, "2026-01-01T00:00:01Z"),
		inboundLink("03", TypeRun, "R2", UnlinkPrefix+RelProducedAsset, "2026-01-01T00:00:02Z"),
	})
	require.Len(t, alive, 1)
	assert.Equal(t, "R1", alive[0].SrcID)
}

func TestAliveInbound_RelinkSurvives(t *testing.T) {
	alive := AliveInbound([]Link{
		inboundLink("01", TypeRun, "R1", RelProducedAsset, "2026-01-01T00:00:00Z"),
		inboundLink("02", TypeRun, "R1", UnlinkPrefix+RelProducedAsset, "2026-01-01T00:00:05Z"),
		inboundLink("03", TypeRun, "R1", RelProducedAsset, "2026-01-01T00:00:09Z"),
	})
	require.Len(t, alive, 1)
	assert.Equal(t, "03", alive[0].ID)
}
