package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dailies-studio/dailies-engine/pkg/database"
	"github.com/dailies-studio/dailies-engine/pkg/store"
)

// transferTables is the dump/restore order. Referenced tables come
// before their referrers so imports satisfy foreign keys.
var transferTables = []string{
	"projects",
	"series",
	"shots",
	"assets",
	"prompt_packs",
	"runs",
	"run_events",
	"reviews",
	"characters",
	"character_ref_sets",
	"provider_profiles",
	"links",
}

// BundleManifest describes an export bundle.
type BundleManifest struct {
	Version    int                  `yaml:"version"`
	ExportedAt string               `yaml:"exported_at"`
	Tables     []BundleTableEntry   `yaml:"tables"`
}

// BundleTableEntry is one table in the manifest.
type BundleTableEntry struct {
	Name string `yaml:"name"`
	Rows int    `yaml:"rows"`
	File string `yaml:"file"`
}

// TransferService exports the database to a bundle directory (a YAML
// manifest plus one JSONL file per table) and restores such bundles
// with ids preserved.
type TransferService struct {
	db     database.TxRunner
	logger *zap.Logger
}

// NewTransferService creates a new TransferService.
func NewTransferService(db database.TxRunner, logger *zap.Logger) *TransferService {
	return &TransferService{db: db, logger: logger.Named("transfer")}
}

// Export dumps every transfer table into dir and writes manifest.yaml.
func (s *TransferService) Export(ctx context.Context, dir string) (*BundleManifest, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create bundle directory: %w", err)
	}

	manifest := &BundleManifest{Version: 1, ExportedAt: store.NowUTC()}
	ctx = s.db.WithPool(ctx)

	for _, table := range transferTables {
		file := table + ".jsonl"
		rows, err := s.exportTable(ctx, table, filepath.Join(dir, file))
		if err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", table, err)
		}
		manifest.Tables = append(manifest.Tables, BundleTableEntry{Name: table, Rows: rows, File: file})
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.yaml"), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	s.logger.Info("bundle exported", zap.String("dir", dir), zap.Int("tables", len(manifest.Tables)))
	return manifest, nil
}

func (s *TransferService) exportTable(ctx context.Context, table, path string) (int, error) {
	q, _ := database.GetQuerier(ctx)

	rows, err := q.Query(ctx, "SELECT * FROM "+pgx.Identifier{table}.Sanitize())
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	fields := rows.FieldDescriptions()
	count := 0
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return 0, err
		}
		record := make(map[string]any, len(fields))
		for i, fd := range fields {
			record[string(fd.Name)] = values[i]
		}
		line, err := json.Marshal(record)
		if err != nil {
			return 0, err
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return 0, err
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if err := w.Flush(); err != nil {
		return 0, err
	}
	return count, nil
}

// Import restores a bundle. Rows keep their original ids; per-table
// restore runs inside one transaction so a bad file leaves nothing
// half-written.
func (s *TransferService) Import(ctx context.Context, dir string) (*BundleManifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var manifest BundleManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	byName := make(map[string]BundleTableEntry, len(manifest.Tables))
	for _, t := range manifest.Tables {
		byName[t.Name] = t
	}

	// Walk the canonical order, not the manifest's, so foreign keys
	// resolve regardless of how the bundle was written.
	for _, table := range transferTables {
		entry, ok := byName[table]
		if !ok {
			continue
		}
		err := s.db.InTx(ctx, func(ctx context.Context) error {
			return s.importTable(ctx, table, filepath.Join(dir, entry.File))
		})
		if err != nil {
			return nil, fmt.Errorf("failed to import %s: %w", table, err)
		}
	}

	s.logger.Info("bundle imported", zap.String("dir", dir), zap.Int("tables", len(manifest.Tables)))
	return &manifest, nil
}

func (s *TransferService) importTable(ctx context.Context, table, path string) error {
	q, _ := database.GetQuerier(ctx)

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return fmt.Errorf("bad record: %w", err)
		}

		columns := make([]string, 0, len(record))
		for k := range record {
			columns = append(columns, k)
		}
		// Stable order keeps the statements cacheable.
		sort.Strings(columns)

		placeholders := make([]string, len(columns))
		quoted := make([]string, len(columns))
		values := make([]any, len(columns))
		for i, c := range columns {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			quoted[i] = pgx.Identifier{c}.Sanitize()
			values[i] = record[c]
		}

		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING",
			pgx.Identifier{table}.Sanitize(),
			strings.Join(quoted, ", "),
			strings.Join(placeholders, ", "))
		if _, err := q.Exec(ctx, query, values...); err != nil {
			return err
		}
	}
	return scanner.Err()
}
