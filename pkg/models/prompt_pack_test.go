package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestPromptPackContent_Validate(t *testing.T) {
	c := PromptPackContent{RawInput: "a cat", FinalPrompt: "a cat, studio light"}
	require.NoError(t, c.Validate())

	c.FinalPrompt = "  "
	assert.Error(t, c.Validate())

	c.FinalPrompt = "a cat"
	c.AssemblyUsed = true
	assert.Error(t, c.Validate(), "assembly_used without assembly_prompt")

	c.AssemblyPrompt = strptr("")
	assert.Error(t, c.Validate())

	c.AssemblyPrompt = strptr("assembled: a cat")
	assert.NoError(t, c.Validate())
}

func TestPromptPackContent_Marshal(t *testing.T) {
	c := PromptPackContent{RawInput: "a cat", FinalPrompt: "a cat, studio light"}
	content, digest, err := c.Marshal(RunTypeImage)
	require.NoError(t, err)
	assert.Len(t, digest, 64)

	var round PromptPackContent
	require.NoError(t, json.Unmarshal([]byte(content), &round))
	assert.Equal(t, RunTypeImage, round.RunType)
	assert.Equal(t, "a cat", round.RawInput)

	// Digest is content-addressed: same content, same digest.
	_, digest2, err := c.Marshal(RunTypeImage)
	require.NoError(t, err)
	assert.Equal(t, digest, digest2)

	_, digest3, err := c.Marshal(RunTypeVideo)
	require.NoError(t, err)
	assert.NotEqual(t, digest, digest3)
}
