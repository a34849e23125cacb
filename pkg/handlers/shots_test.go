package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/ids"
	"github.com/dailies-studio/dailies-engine/pkg/models"
)

// mockShotBoard scripts ShotBoard responses per test.
type mockShotBoard struct {
	shot    *models.Shot
	shotErr error
	shots   []models.Shot
}

func (m *mockShotBoard) CreateShot(_ context.Context, s *models.Shot) error {
	return m.shotErr
}

func (m *mockShotBoard) GetShot(context.Context, string) (*models.Shot, error) {
	return m.shot, m.shotErr
}

func (m *mockShotBoard) ListShots(context.Context, int, int) ([]models.Shot, error) {
	return m.shots, m.shotErr
}

func newShotsServer(board *mockShotBoard, edges *mockLinkGraph) *http.ServeMux {
	mux := http.NewServeMux()
	NewShotsHandler(board, edges, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestShotsGet_SummarizesLinkedRefs(t *testing.T) {
	shotID := ids.New()
	assetID, runID := ids.New(), ids.New()
	board := &mockShotBoard{shot: &models.Shot{ID: shotID}}
	edges := &mockLinkGraph{edges: []models.EffectiveEdge{
		{DstType: models.TypeAsset, DstID: assetID, Rel: models.RelIncludesReferenceAsset},
		{DstType: models.TypeRun, DstID: runID, Rel: models.RelProducedAsset},
		{DstType: "external_doc", DstID: "doc-1", Rel: "references"},
	}}
	mux := newShotsServer(board, edges)

	req := httptest.NewRequest(http.MethodGet, "/api/shots/"+shotID, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp shotDetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, shotID, resp.Shot.ID)
	assert.Equal(t, []string{assetID}, resp.LinkedRefs.AssetIDs)
	assert.Equal(t, []string{runID}, resp.LinkedRefs.RunIDs)
	assert.Empty(t, resp.LinkedRefs.ProjectIDs)
	require.Len(t, resp.LinkedRefs.Other, 1)
	assert.Equal(t, "external_doc", resp.LinkedRefs.Other[0].DstType)
}

func TestShotsGet_EmptyBucketsSerializeAsArrays(t *testing.T) {
	shotID := ids.New()
	mux := newShotsServer(&mockShotBoard{shot: &models.Shot{ID: shotID}}, &mockLinkGraph{})

	req := httptest.NewRequest(http.MethodGet, "/api/shots/"+shotID, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"asset_ids":[]`)
	assert.NotContains(t, rec.Body.String(), `"asset_ids":null`)
}
