package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/dailies-studio/dailies-engine/pkg/models"
	"github.com/dailies-studio/dailies-engine/pkg/storage"
)

// MockAdapter writes a deterministic JSON artifact under the storage
// root instead of calling a real backend. It is the default adapter in
// local development and tests.
type MockAdapter struct {
	storage *storage.Storage
}

// NewMockAdapter creates a MockAdapter writing under st.
func NewMockAdapter(st *storage.Storage) *MockAdapter {
	return &MockAdapter{storage: st}
}

var _ Adapter = (*MockAdapter)(nil)

func (a *MockAdapter) Name() string {
	return models.ProviderTypeMock
}

func (a *MockAdapter) Execute(_ context.Context, in ExecuteInput) (*Result, error) {
	artifact := map[string]any{
		"run_id":   in.RunID,
		"run_type": in.RunType,
		"prompt":   in.Prompt,
		"inputs":   in.Inputs,
	}
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mock artifact: %w", err)
	}

	ref, err := a.storage.WriteArtifact(path.Join("runs", in.RunID, "result.json"), data)
	if err != nil {
		return nil, fmt.Errorf("failed to write mock artifact: %w", err)
	}
	return &Result{
		ResultRefs: []string{ref},
		Summary:    "mock execution completed",
	}, nil
}
