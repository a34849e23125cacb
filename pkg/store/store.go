package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dailies-studio/dailies-engine/pkg/apperrors"
	"github.com/dailies-studio/dailies-engine/pkg/database"
	"github.com/dailies-studio/dailies-engine/pkg/ids"
	"github.com/dailies-studio/dailies-engine/pkg/schema"
)

// NowUTC returns the current UTC instant in the stored timestamp
// format: ISO-8601 with a literal Z suffix, second granularity.
// Lexicographic order on these strings is chronological order.
func NowUTC() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}

// Store inserts rows into append-only tables, filling required columns
// the write path did not supply. The schema evolves across historical
// migrations faster than the write paths, so defaulting is wide rather
// than per-table. There are no Update or Delete operations: the tables
// carry triggers that reject both, and the store surfaces such a
// rejection as a fatal integrity error.
type Store struct {
	mu     sync.Mutex
	tables map[string]*schema.TableInfo
}

func New() *Store {
	return &Store{tables: make(map[string]*schema.TableInfo)}
}

// tableInfo returns the cached introspection result for table,
// inspecting on first use.
func (s *Store) tableInfo(ctx context.Context, q database.Querier, table string) (*schema.TableInfo, error) {
	s.mu.Lock()
	info, ok := s.tables[table]
	s.mu.Unlock()
	if ok {
		return info, nil
	}

	info, err := schema.Inspect(ctx, q, table)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.tables[table] = info
	s.mu.Unlock()
	return info, nil
}

// Insert appends one row and returns its id. Any NOT NULL column with
// neither a supplied value nor a database default is filled: generated
// sortable id for the primary key (unless it is an auto-incrementing
// integer), current UTC instant for timestamp columns, "queued" for
// status, a fresh id for *_id columns, and zero values by type for the
// rest.
func (s *Store) Insert(ctx context.Context, q database.Querier, table string, row map[string]any) (string, error) {
	info, err := s.tableInfo(ctx, q, table)
	if err != nil {
		return "", err
	}

	columns, values, id := fill(info, row, NowUTC())

	placeholders := make([]string, len(columns))
	quoted := make([]string, len(columns))
	for i, c := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{table}.Sanitize(),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "))

	if id == "" && info.PrimaryKey != "" {
		// Auto-increment key: let the engine assign and return it.
		query += " RETURNING " + pgx.Identifier{info.PrimaryKey}.Sanitize()
		var serial int64
		if err := q.QueryRow(ctx, query, values...).Scan(&serial); err != nil {
			return "", wrapInsertErr(table, err)
		}
		return fmt.Sprintf("%d", serial), nil
	}

	if _, err := q.Exec(ctx, query, values...); err != nil {
		return "", wrapInsertErr(table, err)
	}
	return id, nil
}

func wrapInsertErr(table string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return apperrors.Conflict(apperrors.CodeConflict,
				fmt.Sprintf("duplicate row in %s: %s", table, pgErr.ConstraintName))
		case "P0001":
			// Raised by the append-only triggers.
			return apperrors.Internal(fmt.Sprintf("integrity violation on %s: %s", table, pgErr.Message))
		}
	}
	return fmt.Errorf("failed to insert into %s: %w", table, err)
}

// fill computes the column/value lists for an insert, applying the
// defaulting rules. The returned id is "" only when the primary key is
// an auto-incrementing integer left to the engine.
func fill(info *schema.TableInfo, row map[string]any, now string) (columns []string, values []any, id string) {
	supplied := make(map[string]any, len(row))
	for k, v := range row {
		supplied[k] = v
	}

	for _, col := range info.Columns {
		if v, ok := supplied[col.Name]; ok {
			columns = append(columns, col.Name)
			values = append(values, v)
			if col.Name == info.PrimaryKey {
				id = fmt.Sprintf("%v", v)
			}
			continue
		}

		if col.Name == info.PrimaryKey {
			if isIntegerType(col.DataType) {
				continue // engine auto-increment
			}
			id = ids.New()
			columns = append(columns, col.Name)
			values = append(values, id)
			continue
		}

		if col.Nullable || col.HasDefault {
			continue
		}

		columns = append(columns, col.Name)
		values = append(values, defaultValue(col, now))
	}
	return columns, values, id
}

func defaultValue(col schema.ColumnInfo, now string) any {
	switch col.Name {
	case "created_at", "updated_at", "submitted_at":
		return now
	case "status":
		return "queued"
	}
	if strings.HasSuffix(col.Name, "_id") {
		return ids.New()
	}
	switch {
	case isIntegerType(col.DataType):
		return 0
	case isRealType(col.DataType):
		return 0.0
	default:
		return ""
	}
}

func isIntegerType(dataType string) bool {
	switch strings.ToLower(dataType) {
	case "integer", "bigint", "smallint", "int", "int2", "int4", "int8", "serial", "bigserial":
		return true
	}
	return false
}

func isRealType(dataType string) bool {
	switch strings.ToLower(dataType) {
	case "real", "double precision", "numeric", "decimal", "float", "float4", "float8":
		return true
	}
	return false
}
