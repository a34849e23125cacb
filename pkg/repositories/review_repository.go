package repositories

import (
	"context"
	"fmt"

	"github.com/dailies-studio/dailies-engine/pkg/models"
	"github.com/dailies-studio/dailies-engine/pkg/store"
)

// ReviewRepository provides data access for reviews. Reviews are
// append-only: a changed verdict is a new row.
type ReviewRepository interface {
	Insert(ctx context.Context, rev *models.Review) error
	ListByRun(ctx context.Context, runID string) ([]models.Review, error)
}

type reviewRepository struct {
	store *store.Store
}

// NewReviewRepository creates a new ReviewRepository.
func NewReviewRepository(st *store.Store) ReviewRepository {
	return &reviewRepository{store: st}
}

var _ ReviewRepository = (*reviewRepository)(nil)

func (r *reviewRepository) Insert(ctx context.Context, rev *models.Review) error {
	q, err := querierFrom(ctx)
	if err != nil {
		return err
	}

	row := map[string]any{"run_id": rev.RunID}
	if rev.Rating != nil {
		row["rating"] = *rev.Rating
	}
	if rev.Notes != nil {
		row["notes"] = *rev.Notes
	}

	id, err := r.store.Insert(ctx, q, "reviews", row)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	rev.ID = id
	return nil
}

func (r *reviewRepository) ListByRun(ctx context.Context, runID string) ([]models.Review, error) {
	q, err := querierFrom(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, run_id, rating, notes, created_at
		FROM reviews
		WHERE run_id = $1
		ORDER BY created_at DESC, id DESC`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var out []models.Review
	for rows.Next() {
		var rev models.Review
		if err := rows.Scan(&rev.ID, &rev.RunID, &rev.Rating, &rev.Notes, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}
	return out, nil
}
