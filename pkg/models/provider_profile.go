package models

import "strings"

// ScrubbedNamePrefix marks a profile whose secrets have been removed.
// Scrubbed profiles stay resolvable as evidence but are skipped when
// picking a profile for a new run.
const ScrubbedNamePrefix = "(scrubbed) "

// Provider types known to the adapter registry.
const (
	ProviderTypeMock      = "mock"
	ProviderTypeOpenAI    = "openai"
	ProviderTypeAnthropic = "anthropic"
)

// ProviderProfile names a generation backend plus its configuration.
// ConfigJSON may hold secrets: it must never be copied into run
// evidence, and log/API exposure goes through the redaction policy.
type ProviderProfile struct {
	ID                         string `json:"id"`
	Name                       string `json:"name"`
	ProviderType               string `json:"provider_type"`
	ConfigJSON                 string `json:"-"`
	SecretsRedactionPolicyJSON string `json:"-"`
	IsGlobalDefault            bool   `json:"is_global_default"`
	CreatedAt                  string `json:"created_at"`
	UpdatedAt                  string `json:"updated_at"`
}

// IsScrubbed reports whether the profile is unusable for new runs:
// either its name carries the scrub marker or its config is gone.
func (p *ProviderProfile) IsScrubbed() bool {
	if strings.HasPrefix(p.Name, ScrubbedNamePrefix) {
		return true
	}
	return strings.TrimSpace(p.ConfigJSON) == ""
}

// Snapshot projects the profile into its evidence form. The config is
// reduced to a presence flag.
func (p *ProviderProfile) Snapshot() ProviderProfileSnapshot {
	return ProviderProfileSnapshot{
		ID:           p.ID,
		Name:         p.Name,
		ProviderType: p.ProviderType,
		HasConfig:    strings.TrimSpace(p.ConfigJSON) != "",
	}
}
