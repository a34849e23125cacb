package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dailies-studio/dailies-engine/pkg/apperrors"
	"github.com/dailies-studio/dailies-engine/pkg/models"
	"github.com/dailies-studio/dailies-engine/pkg/store"
)

// RunRepository provides data access for prompt packs, runs and the
// run_events log. All three tables are append-only; the current status
// of a run is a fold over its events, never a row update.
type RunRepository interface {
	InsertPromptPack(ctx context.Context, p *models.PromptPack) error
	GetPromptPack(ctx context.Context, id string) (*models.PromptPack, error)
	InsertRun(ctx context.Context, r *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, limit, offset int) ([]models.Run, error)
	InsertRunEvent(ctx context.Context, e *models.RunEvent) error
	ListRunEvents(ctx context.Context, runID string) ([]models.RunEvent, error)
}

type runRepository struct {
	store *store.Store
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(st *store.Store) RunRepository {
	return &runRepository{store: st}
}

var _ RunRepository = (*runRepository)(nil)

func (r *runRepository) InsertPromptPack(ctx context.Context, p *models.PromptPack) error {
	q, err := querierFrom(ctx)
	if err != nil {
		return err
	}

	row := map[string]any{"content": p.Content}
	if p.Name != nil {
		row["name"] = *p.Name
	}
	if p.Digest != nil {
		row["digest"] = *p.Digest
	}

	id, err := r.store.Insert(ctx, q, "prompt_packs", row)
	if err != nil {
		return fmt.Errorf("failed to insert prompt pack: %w", err)
	}
	p.ID = id
	return nil
}

func (r *runRepository) GetPromptPack(ctx context.Context, id string) (*models.PromptPack, error) {
	q, err := querierFrom(ctx)
	if err != nil {
		return nil, err
	}

	var p models.PromptPack
	err = q.QueryRow(ctx,
		`SELECT id, name, content, digest, created_at FROM prompt_packs WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Content, &p.Digest, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(apperrors.CodeNotFound,
				fmt.Sprintf("prompt pack %s not found", id))
		}
		return nil, fmt.Errorf("failed to get prompt pack: %w", err)
	}
	return &p, nil
}

func (r *runRepository) InsertRun(ctx context.Context, run *models.Run) error {
	q, err := querierFrom(ctx)
	if err != nil {
		return err
	}

	row := map[string]any{
		"run_type": run.RunType,
		"status":   run.Status,
	}
	if run.PromptPackID != nil {
		row["prompt_pack_id"] = *run.PromptPackID
	}
	if run.InputJSON != nil {
		row["input_json"] = *run.InputJSON
	}
	if run.ResultRefsJSON != nil {
		row["result_refs_json"] = *run.ResultRefsJSON
	}

	id, err := r.store.Insert(ctx, q, "runs", row)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	run.ID = id
	return nil
}

func (r *runRepository) GetRun(ctx context.Context, id string) (*models.Run, error) {
	q, err := querierFrom(ctx)
	if err != nil {
		return nil, err
	}

	var run models.Run
	err = q.QueryRow(ctx, `
		SELECT id, prompt_pack_id, run_type, status, input_json, result_refs_json, created_at
		FROM runs WHERE id = $1`, id).
		Scan(&run.ID, &run.PromptPackID, &run.RunType, &run.Status,
			&run.InputJSON, &run.ResultRefsJSON, &run.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(apperrors.CodeNotFound, fmt.Sprintf("run %s not found", id))
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

func (r *runRepository) ListRuns(ctx context.Context, limit, offset int) ([]models.Run, error) {
	q, err := querierFrom(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, prompt_pack_id, run_type, status, input_json, result_refs_json, created_at
		FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []models.Run
	for rows.Next() {
		var run models.Run
		if err := rows.Scan(&run.ID, &run.PromptPackID, &run.RunType, &run.Status,
			&run.InputJSON, &run.ResultRefsJSON, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return out, nil
}

func (r *runRepository) InsertRunEvent(ctx context.Context, e *models.RunEvent) error {
	q, err := querierFrom(ctx)
	if err != nil {
		return err
	}

	row := map[string]any{
		"run_id": e.RunID,
		"status": e.Status,
	}
	if e.ResultRefsJSON != nil {
		row["result_refs_json"] = *e.ResultRefsJSON
	}
	if e.RequestID != nil {
		row["request_id"] = *e.RequestID
	}

	id, err := r.store.Insert(ctx, q, "run_events", row)
	if err != nil {
		return fmt.Errorf("failed to insert run event: %w", err)
	}
	e.EventID = id
	return nil
}

func (r *runRepository) ListRunEvents(ctx context.Context, runID string) ([]models.RunEvent, error) {
	q, err := querierFrom(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT event_id, run_id, status, result_refs_json, request_id, created_at
		FROM run_events
		WHERE run_id = $1
		ORDER BY created_at, event_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list run events: %w", err)
	}
	defer rows.Close()

	var out []models.RunEvent
	for rows.Next() {
		var e models.RunEvent
		if err := rows.Scan(&e.EventID, &e.RunID, &e.Status,
			&e.ResultRefsJSON, &e.RequestID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run events: %w", err)
	}
	return out, nil
}
