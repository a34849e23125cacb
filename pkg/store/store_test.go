package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailies-studio/dailies-engine/pkg/ids"
	"github.com/dailies-studio/dailies-engine/pkg/schema"
)

const testNow = "2026-08-28T12:00:00Z"

func runsTable() *schema.TableInfo {
	return &schema.TableInfo{
		Name:       "runs",
		PrimaryKey: "id",
		Columns: []schema.ColumnInfo{
			{Name: "id", DataType: "text"},
			{Name: "prompt_pack_id", DataType: "text"},
			{Name: "run_type", DataType: "text"},
			{Name: "status", DataType: "text"},
			{Name: "input_json", DataType: "text", Nullable: true},
			{Name: "result_refs_json", DataType: "text", Nullable: true},
			{Name: "created_at", DataType: "text"},
		},
	}
}

func valueOf(t *testing.T, columns []string, values []any, name string) any {
	t.Helper()
	for i, c := range columns {
		if c == name {
			return values[i]
		}
	}
	t.Fatalf("column %s not in insert list", name)
	return nil
}

func TestFill_GeneratesPrimaryKeyULID(t *testing.T) {
	columns, values, id := fill(runsTable(), map[string]any{"run_type": "image"}, testNow)
	require.NotEmpty(t, id)
	assert.True(t, ids.Valid(id))
	assert.Equal(t, id, valueOf(t, columns, values, "id"))
}

func TestFill_SuppliedValuesWin(t *testing.T) {
	columns, values, id := fill(runsTable(), map[string]any{
		"id":       "01CUSTOM",
		"run_type": "image",
		"status":   "running",
	}, testNow)
	assert.Equal(t, "01CUSTOM", id)
	assert.Equal(t, "running", valueOf(t, columns, values, "status"))
}

func TestFill_DefaultsTimestampStatusAndForeignIDs(t *testing.T) {
	columns, values, _ := fill(runsTable(), map[string]any{"run_type": "image"}, testNow)
	assert.Equal(t, testNow, valueOf(t, columns, values, "created_at"))
	assert.Equal(t, "queued", valueOf(t, columns, values, "status"))

	ppID, ok := valueOf(t, columns, values, "prompt_pack_id").(string)
	require.True(t, ok)
	assert.True(t, ids.Valid(ppID), "*_id columns get a fresh id")

	assert.Equal(t, "", valueOf(t, columns, values, "run_type"))
}

func TestFill_SkipsNullableAndDefaultedColumns(t *testing.T) {
	columns, _, _ := fill(runsTable(), map[string]any{"run_type": "image"}, testNow)
	assert.NotContains(t, columns, "input_json")
	assert.NotContains(t, columns, "result_refs_json")

	info := runsTable()
	info.Columns[3].HasDefault = true // status
	columns, _, _ = fill(info, map[string]any{"run_type": "image"}, testNow)
	assert.NotContains(t, columns, "status")
}

func TestFill_AutoIncrementPrimaryKeyLeftToEngine(t *testing.T) {
	info := &schema.TableInfo{
		Name:       "counters",
		PrimaryKey: "seq",
		Columns: []schema.ColumnInfo{
			{Name: "seq", DataType: "bigint"},
			{Name: "label", DataType: "text"},
		},
	}
	columns, values, id := fill(info, map[string]any{"label": "x"}, testNow)
	assert.Empty(t, id)
	assert.NotContains(t, columns, "seq")
	assert.Equal(t, "x", valueOf(t, columns, values, "label"))
}

func TestFill_NumericDefaults(t *testing.T) {
	info := &schema.TableInfo{
		Name:       "metrics",
		PrimaryKey: "id",
		Columns: []schema.ColumnInfo{
			{Name: "id", DataType: "text"},
			{Name: "count", DataType: "integer"},
			{Name: "score", DataType: "double precision"},
		},
	}
	columns, values, _ := fill(info, nil, testNow)
	assert.Equal(t, 0, valueOf(t, columns, values, "count"))
	assert.Equal(t, 0.0, valueOf(t, columns, values, "score"))
}

func TestNowUTC_Shape(t *testing.T) {
	now := NowUTC()
	assert.Len(t, now, 20)
	assert.Equal(t, byte('Z'), now[len(now)-1])
	assert.Equal(t, byte('T'), now[10])
}
