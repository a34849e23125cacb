package models

import (
	"strings"

	"github.com/jinzhu/inflection"
)

// Entity types. There is no base table unifying these: identity is the
// structural (type, id) pair used by the links table.
const (
	TypeAsset           = "asset"
	TypeCharacter       = "character"
	TypeCharacterRefSet = "character_ref_set"
	TypeProviderProfile = "provider_profile"
	TypeRun             = "run"
	TypePromptPack      = "prompt_pack"
	TypeProject         = "project"
	TypeSeries          = "series"
	TypeShot            = "shot"
)

// TableForEntityType maps an entity type tag to its backing table name.
// Returns "" for unknown types: links may point at external references
// that have no local table.
func TableForEntityType(entityType string) string {
	t := strings.ToLower(strings.TrimSpace(entityType))
	switch t {
	case TypeAsset, TypeRun, TypePromptPack, TypeProject, TypeShot,
		TypeCharacter, TypeCharacterRefSet, TypeProviderProfile:
		return inflection.Plural(t)
	case TypeSeries, "serie":
		return "series"
	case "assets", "runs", "prompt_packs", "projects", "shots",
		"characters", "character_ref_sets", "provider_profiles":
		// Already pluralized; historical callers sent both forms.
		return t
	default:
		return ""
	}
}
