package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/apperrors"
	"github.com/dailies-studio/dailies-engine/pkg/ids"
	"github.com/dailies-studio/dailies-engine/pkg/models"
)

func newLinksServer(mock *mockLinkGraph) *http.ServeMux {
	mux := http.NewServeMux()
	NewLinksHandler(mock, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestLinksCreate_Success(t *testing.T) {
	mock := &mockLinkGraph{insertID: ids.New()}
	mux := newLinksServer(mock)

	body := `{"src_type":"run","src_id":"a","dst_type":"asset","dst_id":"b","rel":"produced_asset"}`
	req := httptest.NewRequest(http.MethodPost, "/api/links", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, models.RelProducedAsset, mock.gotRel)
}

func TestLinksCreate_MissingFields(t *testing.T) {
	mux := newLinksServer(&mockLinkGraph{})

	body := `{"src_type":"run","rel":"produced_asset"}`
	req := httptest.NewRequest(http.MethodPost, "/api/links", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLinksCreate_ReservedRelation(t *testing.T) {
	mock := &mockLinkGraph{
		insertErr: apperrors.Validation(apperrors.CodeBadRequest, "reserved relation"),
	}
	mux := newLinksServer(mock)

	body := `{"src_type":"run","src_id":"a","dst_type":"asset","dst_id":"b","rel":"unlink::produced_asset"}`
	req := httptest.NewRequest(http.MethodPost, "/api/links", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLinksCreate_TargetNotFound(t *testing.T) {
	mock := &mockLinkGraph{
		insertErr: apperrors.NotFound(apperrors.CodeNotFound, "link target asset/x not found"),
	}
	mux := newLinksServer(mock)

	body := `{"src_type":"shot","src_id":"a","dst_type":"asset","dst_id":"x","rel":"references"}`
	req := httptest.NewRequest(http.MethodPost, "/api/links", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLinksUnlink_Conflict(t *testing.T) {
	mock := &mockLinkGraph{
		tombstoneErr: apperrors.Conflict(apperrors.CodeConflict, "already a tombstone"),
	}
	mux := newLinksServer(mock)

	body := `{"src_type":"run","src_id":"a"}`
	req := httptest.NewRequest(http.MethodPost, "/api/links/"+ids.New()+"/unlink", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLinksEffective_RequiresSource(t *testing.T) {
	mux := newLinksServer(&mockLinkGraph{})

	req := httptest.NewRequest(http.MethodGet, "/api/links/effective", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLinksEffective_Success(t *testing.T) {
	mock := &mockLinkGraph{
		edges: []models.EffectiveEdge{
			{DstType: models.TypeAsset, DstID: "b", Rel: models.RelProducedAsset},
		},
	}
	mux := newLinksServer(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/links/effective?src_type=run&src_id=a", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Edges []models.EffectiveEdge `json:"edges"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Edges, 1)
	assert.Equal(t, models.RelProducedAsset, resp.Edges[0].Rel)
}
