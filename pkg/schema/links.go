package schema

import (
	"context"
	"fmt"

	"github.com/dailies-studio/dailies-engine/pkg/apperrors"
	"github.com/dailies-studio/dailies-engine/pkg/database"
)

// LinkColumns names the columns of the links table. Two historical
// shapes exist; both are logically identical. The variant is detected
// once at startup, not probed per query.
type LinkColumns struct {
	SrcType string
	SrcID   string
	DstType string
	DstID   string
	Rel     string
}

// ModernLinkColumns is the current shape.
var ModernLinkColumns = LinkColumns{
	SrcType: "src_type",
	SrcID:   "src_id",
	DstType: "dst_type",
	DstID:   "dst_id",
	Rel:     "rel",
}

// LegacyLinkColumns is the shape of pre-rename deployments.
var LegacyLinkColumns = LinkColumns{
	SrcType: "source_type",
	SrcID:   "source_id",
	DstType: "target_type",
	DstID:   "target_id",
	Rel:     "relation",
}

// DetectLinkColumns picks the column variant present in an inspected
// links table.
func DetectLinkColumns(info *TableInfo) (LinkColumns, error) {
	if info.HasColumns(ModernLinkColumns.SrcType, ModernLinkColumns.SrcID,
		ModernLinkColumns.DstType, ModernLinkColumns.DstID, ModernLinkColumns.Rel) {
		return ModernLinkColumns, nil
	}
	if info.HasColumns(LegacyLinkColumns.SrcType, LegacyLinkColumns.SrcID,
		LegacyLinkColumns.DstType, LegacyLinkColumns.DstID, LegacyLinkColumns.Rel) {
		return LegacyLinkColumns, nil
	}
	return LinkColumns{}, apperrors.Internal(
		fmt.Sprintf("table %q matches no known links layout", info.Name))
}

// ResolveLinkColumns inspects the links table and returns its column
// variant. Called once at startup; the result is threaded into the
// link repository.
func ResolveLinkColumns(ctx context.Context, q database.Querier) (LinkColumns, error) {
	info, err := Inspect(ctx, q, "links")
	if err != nil {
		return LinkColumns{}, fmt.Errorf("failed to inspect links table: %w", err)
	}
	return DetectLinkColumns(info)
}
