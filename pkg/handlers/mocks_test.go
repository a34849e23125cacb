package handlers

import (
	"context"

	"github.com/dailies-studio/dailies-engine/pkg/models"
	"github.com/dailies-studio/dailies-engine/pkg/services"
)

// mockRunOrchestrator scripts RunOrchestrator responses per test.
type mockRunOrchestrator struct {
	createOut *services.CreateRunOutput
	createErr error
	gotCreate *services.CreateRunInput

	view    *services.RunView
	viewErr error

	runs    []models.Run
	listErr error

	event    *models.RunEvent
	eventErr error
}

func (m *mockRunOrchestrator) CreateRun(_ context.Context, in services.CreateRunInput) (*services.CreateRunOutput, error) {
	m.gotCreate = &in
	return m.createOut, m.createErr
}

func (m *mockRunOrchestrator) Get(context.Context, string) (*services.RunView, error) {
	return m.view, m.viewErr
}

func (m *mockRunOrchestrator) List(context.Context, int, int) ([]models.Run, error) {
	return m.runs, m.listErr
}

func (m *mockRunOrchestrator) AppendEvent(_ context.Context, _ string, _ string, _ []string, _ *string) (*models.RunEvent, error) {
	return m.event, m.eventErr
}

func (m *mockRunOrchestrator) ExecuteProvider(context.Context, string, *string) (*services.RunView, error) {
	return m.view, m.viewErr
}

// mockLinkGraph scripts LinkGraph responses per test.
type mockLinkGraph struct {
	insertID  string
	insertErr error
	gotRel    string

	tombstoneID  string
	tombstoneErr error

	links   []models.Link
	edges   []models.EffectiveEdge
	listErr error
}

func (m *mockLinkGraph) Insert(_ context.Context, _, _, _, _, rel string, _ *string) (string, error) {
	m.gotRel = rel
	return m.insertID, m.insertErr
}

func (m *mockLinkGraph) Tombstone(context.Context, string, string, string) (string, error) {
	return m.tombstoneID, m.tombstoneErr
}

func (m *mockLinkGraph) GetByID(context.Context, string) (*models.Link, error) {
	return nil, nil
}

func (m *mockLinkGraph) ListBySource(context.Context, string, string) ([]models.Link, error) {
	return m.links, m.listErr
}

func (m *mockLinkGraph) ListByDestination(context.Context, string, string) ([]models.Link, error) {
	return m.links, m.listErr
}

func (m *mockLinkGraph) EffectiveEdges(context.Context, string, string) ([]models.EffectiveEdge, error) {
	return m.edges, m.listErr
}
