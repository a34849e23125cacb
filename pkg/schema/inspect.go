package schema

import (
	"context"
	"fmt"

	"github.com/dailies-studio/dailies-engine/pkg/apperrors"
	"github.com/dailies-studio/dailies-engine/pkg/database"
)

// ColumnInfo describes one column of an inspected table.
type ColumnInfo struct {
	Name       string
	DataType   string
	Nullable   bool
	HasDefault bool
	Position   int
}

// TableInfo is the runtime shape of a table. Write paths use it to
// tolerate historical schema variants without migrations.
type TableInfo struct {
	Name       string
	Columns    []ColumnInfo
	PrimaryKey string
}

// Column returns the named column, if present.
func (t *TableInfo) Column(name string) (ColumnInfo, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnInfo{}, false
}

// HasColumns reports whether every named column exists.
func (t *TableInfo) HasColumns(names ...string) bool {
	for _, n := range names {
		if _, ok := t.Column(n); !ok {
			return false
		}
	}
	return true
}

// TableExists reports whether a base table is visible in the public
// schema.
func TableExists(ctx context.Context, q database.Querier, table string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public'
			  AND table_name = $1
			  AND table_type = 'BASE TABLE'
		)`
	var exists bool
	if err := q.QueryRow(ctx, query, table).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return exists, nil
}

// Inspect returns the columns, nullability, default presence and
// primary key of a table. A missing table is a NotFound: callers
// degrade to "feature unavailable" instead of failing hard.
func Inspect(ctx context.Context, q database.Querier, table string) (*TableInfo, error) {
	const columnsQuery = `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES' AS is_nullable,
			c.column_default IS NOT NULL AS has_default,
			c.ordinal_position
		FROM information_schema.columns c
		WHERE c.table_schema = 'public' AND c.table_name = $1
		ORDER BY c.ordinal_position`

	rows, err := q.Query(ctx, columnsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	info := &TableInfo{Name: table}
	for rows.Next() {
		var c ColumnInfo
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable, &c.HasDefault, &c.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		info.Columns = append(info.Columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate columns: %w", err)
	}
	if len(info.Columns) == 0 {
		return nil, apperrors.NotFound(apperrors.CodeNotFound, fmt.Sprintf("table %q not found", table))
	}

	declared, err := declaredPrimaryKey(ctx, q, table)
	if err != nil {
		return nil, err
	}
	info.PrimaryKey = choosePrimaryKey(info.Columns, declared)
	return info, nil
}

// declaredPrimaryKey returns the single-column primary key, or "" when
// the table has none (or a composite one). pg_index detects keys even
// when an ORM created them as unique indexes.
func declaredPrimaryKey(ctx context.Context, q database.Querier, table string) (string, error) {
	const query = `
		SELECT a.attname
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE ix.indisprimary = true
		  AND n.nspname = 'public'
		  AND t.relname = $1
		  AND array_length(ix.indkey, 1) = 1`

	rows, err := q.Query(ctx, query, table)
	if err != nil {
		return "", fmt.Errorf("failed to query primary key: %w", err)
	}
	defer rows.Close()

	var pk string
	for rows.Next() {
		if err := rows.Scan(&pk); err != nil {
			return "", fmt.Errorf("failed to scan primary key: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to iterate primary key rows: %w", err)
	}
	return pk, nil
}

// choosePrimaryKey applies the fallback chain: declared single-column
// key, then a conventional "id" column, then the first column.
func choosePrimaryKey(columns []ColumnInfo, declared string) string {
	if declared != "" {
		return declared
	}
	for _, c := range columns {
		if c.Name == "id" {
			return "id"
		}
	}
	if len(columns) > 0 {
		return columns[0].Name
	}
	return ""
}
