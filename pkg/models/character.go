package models

// Statuses shared by characters and their reference sets. Only
// confirmed ref sets may become a character's active set or back a run.
const (
	StatusDraft     = "draft"
	StatusConfirmed = "confirmed"
	StatusArchived  = "archived"
)

// ValidCharacterStatus reports whether s is a known lifecycle status.
func ValidCharacterStatus(s string) bool {
	switch s {
	case StatusDraft, StatusConfirmed, StatusArchived:
		return true
	}
	return false
}

// MinRefsConfirmed is the minimum number of alive reference-asset
// links a ref set must carry before it can be confirmed or activated.
const MinRefsConfirmed = 8

// Character is a recurring subject whose visual identity is pinned by
// versioned reference sets. It is one of the two mutable entities.
type Character struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	ActiveRefSetID *string `json:"active_ref_set_id,omitempty"`
	TagsJSON       *string `json:"tags,omitempty"`
	MetaJSON       *string `json:"meta,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// CharacterRefSet is an append-only versioned bundle of reference
// assets for one character. Version is unique per character; the
// minimum-requirements snapshot records the gate in force at creation.
type CharacterRefSet struct {
	ID                          string `json:"id"`
	CharacterID                 string `json:"character_id"`
	Version                     int    `json:"version"`
	Status                      string `json:"status"`
	MinRequirementsSnapshotJSON string `json:"min_requirements_snapshot"`
	CreatedAt                   string `json:"created_at"`
}

// Confirmed reports whether the set may back a run.
func (s *CharacterRefSet) Confirmed() bool {
	return s.Status == StatusConfirmed
}

// RunCharacterRef is the caller-supplied character binding in a run
// request. RefSetID pins a specific confirmed version; when nil the
// character's active set is used.
type RunCharacterRef struct {
	CharacterID string  `json:"character_id"`
	RefSetID    *string `json:"ref_set_id,omitempty"`
	IsPrimary   bool    `json:"is_primary"`
}
