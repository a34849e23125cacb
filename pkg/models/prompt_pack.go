package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dailies-studio/dailies-engine/pkg/apperrors"
)

// PromptPack is the stored row: an immutable snapshot of one run's
// input, serialized into Content with a sha256 digest for dedup checks.
type PromptPack struct {
	ID        string  `json:"id"`
	Name      *string `json:"name,omitempty"`
	Content   string  `json:"content"`
	Digest    *string `json:"digest,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// PromptPackContent is the caller-facing prompt pack shape, serialized
// (plus the run type) into the stored row's Content.
type PromptPackContent struct {
	RawInput       string         `json:"raw_input"`
	AssemblyPrompt *string        `json:"assembly_prompt,omitempty"`
	FinalPrompt    string         `json:"final_prompt"`
	AssemblyUsed   bool           `json:"assembly_used"`
	Extra          map[string]any `json:"extra,omitempty"`
	RunType        string         `json:"run_type,omitempty"`
}

// Validate enforces the assembly lock rule: a pack may only claim the
// assembled prompt was used when it actually carries one.
func (c *PromptPackContent) Validate() error {
	if strings.TrimSpace(c.FinalPrompt) == "" {
		return apperrors.Validation(apperrors.CodeBadRequest, "final_prompt is required")
	}
	if c.AssemblyUsed && (c.AssemblyPrompt == nil || strings.TrimSpace(*c.AssemblyPrompt) == "") {
		return apperrors.Validation(apperrors.CodeBadRequest, "assembly_used requires a non-empty assembly_prompt")
	}
	return nil
}

// Marshal serializes the content with the run type folded in and
// returns the JSON plus its sha256 digest.
func (c PromptPackContent) Marshal(runType string) (content string, digest string, err error) {
	c.RunType = runType
	b, err := json.Marshal(c)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal prompt pack content: %w", err)
	}
	sum := sha256.Sum256(b)
	return string(b), hex.EncodeToString(sum[:]), nil
}
