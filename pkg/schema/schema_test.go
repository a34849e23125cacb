package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cols(names ...string) []ColumnInfo {
	out := make([]ColumnInfo, len(names))
	for i, n := range names {
		out[i] = ColumnInfo{Name: n, DataType: "text", Position: i + 1}
	}
	return out
}

func TestChoosePrimaryKey(t *testing.T) {
	assert.Equal(t, "run_id", choosePrimaryKey(cols("id", "run_id"), "run_id"), "declared key wins")
	assert.Equal(t, "id", choosePrimaryKey(cols("name", "id"), ""), "id fallback")
	assert.Equal(t, "name", choosePrimaryKey(cols("name", "version"), ""), "first column fallback")
	assert.Equal(t, "", choosePrimaryKey(nil, ""))
}

func TestTableInfo_Column(t *testing.T) {
	info := &TableInfo{Name: "runs", Columns: cols("id", "status")}
	c, ok := info.Column("status")
	require.True(t, ok)
	assert.Equal(t, "status", c.Name)

	_, ok = info.Column("missing")
	assert.False(t, ok)

	assert.True(t, info.HasColumns("id", "status"))
	assert.False(t, info.HasColumns("id", "missing"))
}

func TestDetectLinkColumns_Modern(t *testing.T) {
	info := &TableInfo{
		Name:    "links",
		Columns: cols("id", "src_type", "src_id", "dst_type", "dst_id", "rel", "meta_json", "created_at"),
	}
	lc, err := DetectLinkColumns(info)
	require.NoError(t, err)
	assert.Equal(t, ModernLinkColumns, lc)
}

func TestDetectLinkColumns_Legacy(t *testing.T) {
	info := &TableInfo{
		Name:    "links",
		Columns: cols("id", "source_type", "source_id", "target_type", "target_id", "relation", "created_at"),
	}
	lc, err := DetectLinkColumns(info)
	require.NoError(t, err)
	assert.Equal(t, LegacyLinkColumns, lc)
}

func TestDetectLinkColumns_Unknown(t *testing.T) {
	info := &TableInfo{Name: "links", Columns: cols("id", "from_id", "to_id")}
	_, err := DetectLinkColumns(info)
	assert.Error(t, err)
}
