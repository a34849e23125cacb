package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dailies-studio/dailies-engine/pkg/apperrors"
	"github.com/dailies-studio/dailies-engine/pkg/models"
	"github.com/dailies-studio/dailies-engine/pkg/schema"
	"github.com/dailies-studio/dailies-engine/pkg/store"
)

// LinkRepository is the typed-edge store. Link rows are immutable:
// the only sanctioned removal is Tombstone, which appends a mirror row
// with the reserved "unlink::" relation prefix.
type LinkRepository interface {
	Insert(ctx context.Context, srcType, srcID, dstType, dstID, rel string, meta *string) (string, error)
	Tombstone(ctx context.Context, linkID, srcType, srcID string) (string, error)
	GetByID(ctx context.Context, linkID string) (*models.Link, error)
	ListBySource(ctx context.Context, srcType, srcID string) ([]models.Link, error)
	ListByDestination(ctx context.Context, dstType, dstID string) ([]models.Link, error)
	EffectiveEdges(ctx context.Context, srcType, srcID string) ([]models.EffectiveEdge, error)
	CountEdges(ctx context.Context, srcType, srcID, dstType, rel string) (int, error)
}

type linkRepository struct {
	cols  schema.LinkColumns
	store *store.Store
}

// NewLinkRepository creates a LinkRepository bound to the links-table
// column variant detected at startup.
func NewLinkRepository(cols schema.LinkColumns, st *store.Store) LinkRepository {
	return &linkRepository{cols: cols, store: st}
}

var _ LinkRepository = (*linkRepository)(nil)

func (r *linkRepository) Insert(ctx context.Context, srcType, srcID, dstType, dstID, rel string, meta *string) (string, error) {
	if strings.HasPrefix(rel, models.UnlinkPrefix) {
		return "", apperrors.Validation(apperrors.CodeBadRequest,
			fmt.Sprintf("relation must not start with the reserved prefix %q", models.UnlinkPrefix))
	}
	if err := r.checkTarget(ctx, dstType, dstID); err != nil {
		return "", err
	}
	return r.insertRaw(ctx, srcType, srcID, dstType, dstID, rel, meta)
}

// checkTarget verifies the destination row exists when the destination
// type maps to a local table. Unknown types pass: a link may point at
// an external reference that has no table here.
func (r *linkRepository) checkTarget(ctx context.Context, dstType, dstID string) error {
	table := models.TableForEntityType(dstType)
	if table == "" {
		return nil
	}
	q, err := querierFrom(ctx)
	if err != nil {
		return err
	}

	var one int
	err = q.QueryRow(ctx,
		fmt.Sprintf("SELECT 1 FROM %s WHERE id = $1 LIMIT 1", table), dstID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound(apperrors.CodeNotFound,
				fmt.Sprintf("link target %s/%s not found", dstType, dstID))
		}
		return fmt.Errorf("failed to check link target: %w", err)
	}
	return nil
}

// insertRaw writes the link row without the reserved-prefix check.
// Only Tombstone may reach it with an unlink relation.
func (r *linkRepository) insertRaw(ctx context.Context, srcType, srcID, dstType, dstID, rel string, meta *string) (string, error) {
	if srcType == "" || srcID == "" || dstType == "" || dstID == "" || rel == "" {
		return "", apperrors.Validation(apperrors.CodeBadRequest, "src, dst and rel are all required")
	}
	q, err := querierFrom(ctx)
	if err != nil {
		return "", err
	}

	row := map[string]any{
		r.cols.SrcType: srcType,
		r.cols.SrcID:   srcID,
		r.cols.DstType: dstType,
		r.cols.DstID:   dstID,
		r.cols.Rel:     rel,
	}
	if meta != nil {
		row["meta_json"] = *meta
	}

	id, err := r.store.Insert(ctx, q, "links", row)
	if err != nil {
		return "", fmt.Errorf("failed to insert link: %w", err)
	}
	return id, nil
}

func (r *linkRepository) Tombstone(ctx context.Context, linkID, srcType, srcID string) (string, error) {
	link, err := r.GetByID(ctx, linkID)
	if err != nil {
		return "", err
	}
	if link.SrcType != srcType || link.SrcID != srcID {
		// Links from other sources are invisible to the caller.
		return "", apperrors.NotFound(apperrors.CodeNotFound,
			fmt.Sprintf("link %s not found for source %s/%s", linkID, srcType, srcID))
	}
	if link.IsTombstone() {
		return "", apperrors.Conflict(apperrors.CodeConflict,
			fmt.Sprintf("link %s is already a tombstone", linkID))
	}
	return r.insertRaw(ctx, link.SrcType, link.SrcID, link.DstType, link.DstID,
		models.UnlinkPrefix+link.Rel, nil)
}

func (r *linkRepository) GetByID(ctx context.Context, linkID string) (*models.Link, error) {
	q, err := querierFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, %s, %s, %s, %s, %s, meta_json, created_at
		FROM links WHERE id = $1`,
		r.cols.SrcType, r.cols.SrcID, r.cols.DstType, r.cols.DstID, r.cols.Rel)

	var l models.Link
	err = q.QueryRow(ctx, query, linkID).Scan(
		&l.ID, &l.SrcType, &l.SrcID, &l.DstType, &l.DstID, &l.Rel, &l.MetaJSON, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(apperrors.CodeNotFound, fmt.Sprintf("link %s not found", linkID))
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return &l, nil
}

func (r *linkRepository) ListBySource(ctx context.Context, srcType, srcID string) ([]models.Link, error) {
	query := fmt.Sprintf(`
		SELECT id, %s, %s, %s, %s, %s, meta_json, created_at
		FROM links WHERE %s = $1 AND %s = $2
		ORDER BY created_at, id`,
		r.cols.SrcType, r.cols.SrcID, r.cols.DstType, r.cols.DstID, r.cols.Rel,
		r.cols.SrcType, r.cols.SrcID)
	return r.list(ctx, query, srcType, srcID)
}

func (r *linkRepository) ListByDestination(ctx context.Context, dstType, dstID string) ([]models.Link, error) {
	query := fmt.Sprintf(`
		SELECT id, %s, %s, %s, %s, %s, meta_json, created_at
		FROM links WHERE %s = $1 AND %s = $2
		ORDER BY created_at, id`,
		r.cols.SrcType, r.cols.SrcID, r.cols.DstType, r.cols.DstID, r.cols.Rel,
		r.cols.DstType, r.cols.DstID)
	return r.list(ctx, query, dstType, dstID)
}

func (r *linkRepository) list(ctx context.Context, query string, args ...any) ([]models.Link, error) {
	q, err := querierFrom(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var links []models.Link
	for rows.Next() {
		var l models.Link
		if err := rows.Scan(&l.ID, &l.SrcType, &l.SrcID, &l.DstType, &l.DstID, &l.Rel, &l.MetaJSON, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate links: %w", err)
	}
	return links, nil
}

func (r *linkRepository) EffectiveEdges(ctx context.Context, srcType, srcID string) ([]models.EffectiveEdge, error) {
	links, err := r.ListBySource(ctx, srcType, srcID)
	if err != nil {
		return nil, err
	}
	return models.EffectiveEdges(links), nil
}

func (r *linkRepository) CountEdges(ctx context.Context, srcType, srcID, dstType, rel string) (int, error) {
	edges, err := r.EffectiveEdges(ctx, srcType, srcID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range edges {
		if e.DstType == dstType && e.Rel == rel {
			n++
		}
	}
	return n, nil
}
