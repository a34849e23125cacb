package models

import (
	"sort"
	"strings"
)

// UnlinkPrefix marks a tombstone relation. A link whose relation is
// "unlink::<rel>" logically retracts the most recent "<rel>" edge to the
// same (dst_type, dst_id) pair. The prefix is reserved: normal link
// creation must reject it.
const UnlinkPrefix = "unlink::"

// Link relation names persisted in the links table. These are wire
// format; renaming one orphans existing evidence.
const (
	RelUsesPromptPack       = "uses_prompt_pack"
	RelUsesProviderProfile  = "uses_provider_profile"
	RelUsesCharacter        = "uses_character"
	RelUsesCharacterRefSet  = "uses_character_ref_set"
	RelProducedAsset        = "produced_asset"
	RelHasRefSetVersion     = "has_ref_set_version"
	RelIncludesReferenceAsset = "includes_reference_asset"
)

// Link is a directed, typed, timestamped edge between two entities.
// Rows are immutable once created; logical removal is a tombstone row.
type Link struct {
	ID        string  `json:"id"`
	SrcType   string  `json:"src_type"`
	SrcID     string  `json:"src_id"`
	DstType   string  `json:"dst_type"`
	DstID     string  `json:"dst_id"`
	Rel       string  `json:"rel"`
	MetaJSON  *string `json:"meta,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// IsTombstone reports whether the link retracts a prior relation.
func (l *Link) IsTombstone() bool {
	return strings.HasPrefix(l.Rel, UnlinkPrefix)
}

// BaseRel strips the tombstone prefix, if any.
func (l *Link) BaseRel() string {
	return strings.TrimPrefix(l.Rel, UnlinkPrefix)
}

// EffectiveEdge is a currently-alive edge after tombstone folding.
type EffectiveEdge struct {
	DstType string `json:"dst_type"`
	DstID   string `json:"dst_id"`
	Rel     string `json:"rel"`
}

type edgeKey struct {
	dstType string
	dstID   string
	baseRel string
}

// EffectiveEdges folds a source's outbound links into its alive edge
// set. Per (dst_type, dst_id, base relation) group the winner is the
// link with the lexicographically greatest created_at; equal timestamps
// are broken by link id, which is itself time-ordered, so the later
// insert wins deterministically. A tombstone winner removes the edge.
func EffectiveEdges(links []Link) []EffectiveEdge {
	latest := make(map[edgeKey]Link)
	for _, l := range links {
		rel := strings.TrimSpace(l.Rel)
		dstType := strings.TrimSpace(l.DstType)
		dstID := strings.TrimSpace(l.DstID)
		if rel == "" || dstType == "" || dstID == "" {
			continue
		}

		k := edgeKey{dstType: dstType, dstID: dstID, baseRel: strings.TrimPrefix(rel, UnlinkPrefix)}
		prev, ok := latest[k]
		if !ok || l.CreatedAt > prev.CreatedAt ||
			(l.CreatedAt == prev.CreatedAt && l.ID > prev.ID) {
			latest[k] = l
		}
	}

	out := make([]EffectiveEdge, 0, len(latest))
	for k, winner := range latest {
		if winner.IsTombstone() {
			continue
		}
		out = append(out, EffectiveEdge{DstType: k.dstType, DstID: k.dstID, Rel: k.baseRel})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DstType != out[j].DstType {
			return out[i].DstType < out[j].DstType
		}
		if out[i].DstID != out[j].DstID {
			return out[i].DstID < out[j].DstID
		}
		return out[i].Rel < out[j].Rel
	})
	return out
}

type inboundKey struct {
	srcType string
	srcID   string
	baseRel string
}

// AliveInbound is the destination-side counterpart of EffectiveEdges:
// it folds a destination's inbound links per (src_type, src_id, base
// relation) with the same winner rule and returns the surviving
// non-tombstone rows in (created_at, id) order.
func AliveInbound(links []Link) []Link {
	latest := make(map[inboundKey]Link)
	for _, l := range links {
		rel := strings.TrimSpace(l.Rel)
		srcType := strings.TrimSpace(l.SrcType)
		srcID := strings.TrimSpace(l.SrcID)
		if rel == "" || srcType == "" || srcID == "" {
			continue
		}

		k := inboundKey{srcType: srcType, srcID: srcID, baseRel: strings.TrimPrefix(rel, UnlinkPrefix)}
		prev, ok := latest[k]
		if !ok || l.CreatedAt > prev.CreatedAt ||
			(l.CreatedAt == prev.CreatedAt && l.ID > prev.ID) {
			latest[k] = l
		}
	}

	out := make([]Link, 0, len(latest))
	for _, winner := range latest {
		if winner.IsTombstone() {
			continue
		}
		out = append(out, winner)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}
