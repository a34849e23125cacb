package services

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/apperrors"
	"github.com/dailies-studio/dailies-engine/pkg/database"
	"github.com/dailies-studio/dailies-engine/pkg/models"
	"github.com/dailies-studio/dailies-engine/pkg/providers"
	"github.com/dailies-studio/dailies-engine/pkg/repositories"
)

// CreateRunInput is the run creation request.
type CreateRunInput struct {
	RunType           string                   `json:"run_type"`
	PromptPack        models.PromptPackContent `json:"prompt_pack"`
	ProviderProfileID *string                  `json:"provider_profile_id,omitempty"`
	Characters        []models.RunCharacterRef `json:"characters,omitempty"`
	Inputs            map[string]any           `json:"inputs,omitempty"`
}

// CreateRunOutput is returned to the caller: a definitive run id and
// status plus the evidence that was captured.
type CreateRunOutput struct {
	RunID        string             `json:"run_id"`
	PromptPackID string             `json:"prompt_pack_id"`
	Status       string             `json:"status"`
	Evidence     models.RunEvidence `json:"evidence"`
}

// RunView overlays a run row with its event log: CurrentStatus and
// CurrentResultRefs come from the latest event, falling back to the
// row's initial values when no event exists yet.
type RunView struct {
	Run               models.Run        `json:"run"`
	CurrentStatus     string            `json:"current_status"`
	CurrentResultRefs *string           `json:"current_result_refs,omitempty"`
	Events            []models.RunEvent `json:"events"`
}

// LinkWriteFailure is one edge that could not be written.
type LinkWriteFailure struct {
	DstType string
	DstID   string
	Rel     string
	Err     error
}

// LinkWriteError reports failed best-effort edge fan-out. It is logged
// by the orchestrator and never surfaced to the caller: the run's
// evidence blob stays authoritative even when the denormalized graph
// could not be written.
type LinkWriteError struct {
	RunID    string
	Failures []LinkWriteFailure
}

func (e *LinkWriteError) Error() string {
	return fmt.Sprintf("%d link write(s) failed for run %s", len(e.Failures), e.RunID)
}

// RunService is the run creation orchestrator and the sibling
// operations around the run_events log.
type RunService struct {
	db              database.TxRunner
	runs            repositories.RunRepository
	links           repositories.LinkRepository
	assets          repositories.AssetRepository
	profiles        *ProviderProfileService
	chars           *CharacterService
	registry        *providers.Registry
	providerEnabled bool
	logger          *zap.Logger
}

// NewRunService creates a new RunService. providerEnabled gates real
// provider execution; when false, ExecuteProvider refuses.
func NewRunService(
	db database.TxRunner,
	runs repositories.RunRepository,
	links repositories.LinkRepository,
	assets repositories.AssetRepository,
	profiles *ProviderProfileService,
	chars *CharacterService,
	registry *providers.Registry,
	providerEnabled bool,
	logger *zap.Logger,
) *RunService {
	return &RunService{
		db:              db,
		runs:            runs,
		links:           links,
		assets:          assets,
		profiles:        profiles,
		chars:           chars,
		registry:        registry,
		providerEnabled: providerEnabled,
		logger:          logger.Named("runs"),
	}
}

// CreateRun resolves dependencies, snapshots the prompt pack, writes
// the run row with its evidence blob, then fans out graph edges.
// Resolution failures abort before anything is written. Edge failures
// after the core rows are committed are logged, never raised: the
// evidence blob is the durable source of truth.
func (s *RunService) CreateRun(ctx context.Context, in CreateRunInput) (*CreateRunOutput, error) {
	if in.RunType == "" {
		return nil, apperrors.Validation(apperrors.CodeBadRequest, "run_type is required")
	}
	if err := in.PromptPack.Validate(); err != nil {
		return nil, err
	}
	if err := validatePrimaryCardinality(in.Characters); err != nil {
		return nil, err
	}

	profile, err := s.profiles.Resolve(ctx, in.ProviderProfileID)
	if err != nil {
		return nil, err
	}
	resolvedChars, err := s.chars.ResolveRefs(ctx, in.Characters)
	if err != nil {
		return nil, err
	}

	snapshot := profile.Snapshot()
	evidence := models.RunEvidence{
		RunType:                   in.RunType,
		ResolvedProviderProfileID: &profile.ID,
		ProviderProfileSnapshot:   &snapshot,
		Characters:                resolvedChars,
		Inputs:                    in.Inputs,
	}
	evidenceJSON, err := json.Marshal(evidence)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run evidence: %w", err)
	}

	content, digest, err := in.PromptPack.Marshal(in.RunType)
	if err != nil {
		return nil, err
	}

	// Core rows: prompt pack then run, one atomic unit.
	pack := &models.PromptPack{Content: content, Digest: &digest}
	run := &models.Run{
		RunType:   in.RunType,
		Status:    models.RunStatusQueued,
		InputJSON: ptr(string(evidenceJSON)),
	}
	err = s.db.InTx(ctx, func(ctx context.Context) error {
		if err := s.runs.InsertPromptPack(ctx, pack); err != nil {
			return err
		}
		run.PromptPackID = &pack.ID
		return s.runs.InsertRun(ctx, run)
	})
	if err != nil {
		return nil, err
	}

	// Best-effort edge fan-out, outside the atomic boundary.
	if linkErr := s.fanOutEdges(ctx, run.ID, pack.ID, profile.ID, resolvedChars); linkErr != nil {
		s.logger.Warn("run edge fan-out degraded",
			zap.String("run_id", run.ID),
			zap.Int("failed_links", len(linkErr.Failures)),
			zap.Error(linkErr))
	}

	return &CreateRunOutput{
		RunID:        run.ID,
		PromptPackID: pack.ID,
		Status:       run.Status,
		Evidence:     evidence,
	}, nil
}

// validatePrimaryCardinality enforces exactly one primary when any
// characters are supplied.
func validatePrimaryCardinality(refs []models.RunCharacterRef) error {
	if len(refs) == 0 {
		return nil
	}
	primaries := 0
	for _, r := range refs {
		if r.IsPrimary {
			primaries++
		}
	}
	if primaries != 1 {
		return apperrors.Validation(apperrors.CodeBadRequest,
			fmt.Sprintf("exactly one character must be primary, got %d", primaries))
	}
	return nil
}

// fanOutEdges writes the run's graph edges. Individual failures are
// collected into a typed error instead of aborting: the fan-out is
// observably best-effort, never run-fatal.
func (s *RunService) fanOutEdges(ctx context.Context, runID, packID, profileID string, chars []models.ResolvedCharacterRef) *LinkWriteError {
	var failures []LinkWriteFailure
	insert := func(dstType, dstID, rel string, meta *string) {
		if _, err := s.links.Insert(ctx, models.TypeRun, runID, dstType, dstID, rel, meta); err != nil {
			failures = append(failures, LinkWriteFailure{DstType: dstType, DstID: dstID, Rel: rel, Err: err})
		}
	}

	insert(models.TypePromptPack, packID, models.RelUsesPromptPack, nil)
	if profileID != "" {
		insert(models.TypeProviderProfile, profileID, models.RelUsesProviderProfile, nil)
	}
	for _, c := range chars {
		charMeta, err := json.Marshal(map[string]any{"is_primary": c.IsPrimary})
		if err == nil {
			insert(models.TypeCharacter, c.CharacterID, models.RelUsesCharacter, ptr(string(charMeta)))
		}
		refMeta, err := json.Marshal(map[string]any{"character_id": c.CharacterID, "is_primary": c.IsPrimary})
		if err == nil {
			insert(models.TypeCharacterRefSet, c.RefSetID, models.RelUsesCharacterRefSet, ptr(string(refMeta)))
		}
	}

	if len(failures) == 0 {
		return nil
	}
	return &LinkWriteError{RunID: runID, Failures: failures}
}

// Get returns a run overlaid with its event log.
func (s *RunService) Get(ctx context.Context, runID string) (*RunView, error) {
	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	events, err := s.runs.ListRunEvents(ctx, runID)
	if err != nil {
		return nil, err
	}

	view := &RunView{
		Run:               *run,
		CurrentStatus:     run.Status,
		CurrentResultRefs: run.ResultRefsJSON,
		Events:            events,
	}
	if latest := models.LatestEvent(events); latest != nil {
		view.CurrentStatus = latest.Status
		if latest.ResultRefsJSON != nil {
			view.CurrentResultRefs = latest.ResultRefsJSON
		}
	}
	return view, nil
}

// List returns run rows, newest first.
func (s *RunService) List(ctx context.Context, limit, offset int) ([]models.Run, error) {
	return s.runs.ListRuns(ctx, limit, offset)
}

// AppendEvent records a status transition. The run row is never
// touched: readers fold the event log.
func (s *RunService) AppendEvent(ctx context.Context, runID, status string, resultRefs []string, requestID *string) (*models.RunEvent, error) {
	if !models.ValidRunStatus(status) {
		return nil, apperrors.Validation(apperrors.CodeBadRequest,
			fmt.Sprintf("unknown run status %q", status))
	}
	if _, err := s.runs.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	event := &models.RunEvent{RunID: runID, Status: status, RequestID: requestID}
	if resultRefs != nil {
		refsJSON, err := json.Marshal(resultRefs)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result refs: %w", err)
		}
		event.ResultRefsJSON = ptr(string(refsJSON))
	}
	if err := s.runs.InsertRunEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// ExecuteProvider runs the provider inline and records the outcome in
// the event log. A provider failure becomes a failed event, not an
// error to the caller; only pre-execution problems (missing run,
// disabled providers) are raised.
func (s *RunService) ExecuteProvider(ctx context.Context, runID string, requestID *string) (*RunView, error) {
	if !s.providerEnabled {
		return nil, apperrors.Conflict(apperrors.CodeConflict, "provider execution is disabled")
	}

	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	var evidence models.RunEvidence
	if run.InputJSON != nil {
		if err := json.Unmarshal([]byte(*run.InputJSON), &evidence); err != nil {
			return nil, apperrors.Internal(fmt.Sprintf("run %s has unparseable evidence: %v", runID, err))
		}
	}

	prompt, err := s.effectivePrompt(ctx, run)
	if err != nil {
		return nil, err
	}

	providerType := models.ProviderTypeMock
	configJSON := ""
	if evidence.ProviderProfileSnapshot != nil {
		providerType = evidence.ProviderProfileSnapshot.ProviderType
		// The raw config is re-read server side; it never lives in
		// the evidence blob.
		profile, err := s.profiles.repo.GetByID(ctx, evidence.ProviderProfileSnapshot.ID)
		if err == nil {
			configJSON = profile.ConfigJSON
		}
	}

	adapter, err := s.registry.Get(providerType)
	if err != nil {
		return nil, apperrors.Validation(apperrors.CodeBadRequest, err.Error())
	}

	if _, err := s.AppendEvent(ctx, runID, models.RunStatusRunning, nil, requestID); err != nil {
		return nil, err
	}

	result, execErr := adapter.Execute(ctx, providers.ExecuteInput{
		RunID:      runID,
		RunType:    run.RunType,
		Prompt:     prompt,
		ConfigJSON: configJSON,
		Inputs:     evidence.Inputs,
	})
	if execErr != nil {
		s.logger.Warn("provider execution failed",
			zap.String("run_id", runID),
			zap.String("provider_type", providerType),
			zap.Error(execErr))
		summary := []string{fmt.Sprintf("error: %s", execErr.Error())}
		if _, err := s.AppendEvent(ctx, runID, models.RunStatusFailed, summary, requestID); err != nil {
			return nil, err
		}
		return s.Get(ctx, runID)
	}

	if _, err := s.AppendEvent(ctx, runID, models.RunStatusSucceeded, result.ResultRefs, requestID); err != nil {
		return nil, err
	}

	// Materialize result assets in a separate transaction from the
	// event append; the produced_asset edges are best-effort.
	s.materializeResults(ctx, run, result)

	return s.Get(ctx, runID)
}

// effectivePrompt extracts the prompt to send from the run's prompt
// pack snapshot.
func (s *RunService) effectivePrompt(ctx context.Context, run *models.Run) (string, error) {
	if run.PromptPackID == nil {
		return "", apperrors.Internal(fmt.Sprintf("run %s has no prompt pack", run.ID))
	}
	pack, err := s.runs.GetPromptPack(ctx, *run.PromptPackID)
	if err != nil {
		return "", err
	}
	var content models.PromptPackContent
	if err := json.Unmarshal([]byte(pack.Content), &content); err != nil {
		return "", apperrors.Internal(fmt.Sprintf("prompt pack %s has unparseable content: %v", pack.ID, err))
	}
	return content.FinalPrompt, nil
}

// materializeResults creates asset rows for storage-backed results and
// links them with produced_asset edges. Failures are logged only.
func (s *RunService) materializeResults(ctx context.Context, run *models.Run, result *providers.Result) {
	for _, ref := range result.ResultRefs {
		ref := ref
		asset := &models.Asset{
			Kind:        run.RunType,
			URI:         &ref,
			StoragePath: &ref,
		}
		err := s.db.InTx(ctx, func(ctx context.Context) error {
			if err := s.assets.Create(ctx, asset); err != nil {
				return err
			}
			_, err := s.links.Insert(ctx, models.TypeRun, run.ID,
				models.TypeAsset, asset.ID, models.RelProducedAsset, nil)
			return err
		})
		if err != nil {
			s.logger.Warn("failed to materialize result asset",
				zap.String("run_id", run.ID),
				zap.String("result_ref", ref),
				zap.Error(err))
		}
	}
}

func ptr[T any](v T) *T { return &v }
