package models

// Run statuses. The runs row keeps the status at creation time; the
// current status is the latest run_events row for the run.
const (
	RunStatusQueued    = "queued"
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// Run types accepted by run creation.
const (
	RunTypeImage = "image"
	RunTypeVideo = "video"
	RunTypeText  = "text"
)

// ValidRunStatus reports whether s is a known run status.
func ValidRunStatus(s string) bool {
	switch s {
	case RunStatusQueued, RunStatusRunning, RunStatusSucceeded, RunStatusFailed:
		return true
	}
	return false
}

// Run is an immutable generation attempt. input_json holds the full
// evidence blob assembled at creation.
type Run struct {
	ID             string  `json:"id"`
	PromptPackID   *string `json:"prompt_pack_id,omitempty"`
	RunType        string  `json:"run_type"`
	Status         string  `json:"status"`
	InputJSON      *string `json:"input,omitempty"`
	ResultRefsJSON *string `json:"result_refs,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// RunEvent is one append-only status transition for a run.
type RunEvent struct {
	EventID        string  `json:"event_id"`
	RunID          string  `json:"run_id"`
	Status         string  `json:"status"`
	ResultRefsJSON *string `json:"result_refs,omitempty"`
	RequestID      *string `json:"request_id,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// LatestEvent returns the event that determines the run's current
// status: greatest created_at, ties broken by event_id. Returns nil
// for an empty slice, in which case the runs row status stands.
func LatestEvent(events []RunEvent) *RunEvent {
	var latest *RunEvent
	for i := range events {
		e := &events[i]
		if latest == nil || e.CreatedAt > latest.CreatedAt ||
			(e.CreatedAt == latest.CreatedAt && e.EventID > latest.EventID) {
			latest = e
		}
	}
	return latest
}

// ProviderProfileSnapshot is the scrub-safe projection of a provider
// profile embedded in run evidence. Raw config never appears here.
type ProviderProfileSnapshot struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProviderType string `json:"provider_type"`
	HasConfig    bool   `json:"has_config"`
}

// ResolvedCharacterRef records which ref-set version backed a character
// at run creation.
type ResolvedCharacterRef struct {
	CharacterID   string `json:"character_id"`
	RefSetID      string `json:"ref_set_id"`
	RefSetVersion int    `json:"ref_set_version"`
	IsPrimary     bool   `json:"is_primary"`
}

// RunEvidence is the input_json payload written at run creation. It is
// a point-in-time record; later edits to the referenced rows do not
// alter it.
type RunEvidence struct {
	RunType                   string                   `json:"run_type"`
	ResolvedProviderProfileID *string                  `json:"resolved_provider_profile_id,omitempty"`
	ProviderProfileSnapshot   *ProviderProfileSnapshot `json:"provider_profile_snapshot,omitempty"`
	Characters                []ResolvedCharacterRef   `json:"characters,omitempty"`
	Inputs                    map[string]any           `json:"inputs,omitempty"`
}
