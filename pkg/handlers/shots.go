package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/models"
)

// ShotBoard is the slice of the hierarchy repository this handler needs.
type ShotBoard interface {
	CreateShot(ctx context.Context, s *models.Shot) error
	GetShot(ctx context.Context, id string) (*models.Shot, error)
	ListShots(ctx context.Context, limit, offset int) ([]models.Shot, error)
}

// EdgeReader folds a source's links into its alive edge set.
type EdgeReader interface {
	EffectiveEdges(ctx context.Context, srcType, srcID string) ([]models.EffectiveEdge, error)
}

// ShotsHandler handles the optional production hierarchy's shot endpoints.
type ShotsHandler struct {
	shots  ShotBoard
	edges  EdgeReader
	logger *zap.Logger
}

// NewShotsHandler creates a new ShotsHandler.
func NewShotsHandler(shots ShotBoard, edges EdgeReader, logger *zap.Logger) *ShotsHandler {
	return &ShotsHandler{shots: shots, edges: edges, logger: logger}
}

// RegisterRoutes registers the shots handler's routes on the given mux.
func (h *ShotsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/shots", h.Create)
	mux.HandleFunc("GET /api/shots", h.List)
	mux.HandleFunc("GET /api/shots/{sid}", h.Get)
}

type createShotRequest struct {
	ProjectID *string `json:"project_id,omitempty"`
	SeriesID  *string `json:"series_id,omitempty"`
	Name      *string `json:"name,omitempty"`
}

// Create handles POST /api/shots
func (h *ShotsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createShotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	shot := &models.Shot{ProjectID: req.ProjectID, SeriesID: req.SeriesID, Name: req.Name}
	if err := h.shots.CreateShot(r.Context(), shot); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, shot); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// linkedRefs buckets a shot's alive edges by destination type. Unknown
// destination types land in Other as external references.
type linkedRefs struct {
	AssetIDs      []string               `json:"asset_ids"`
	RunIDs        []string               `json:"run_ids"`
	PromptPackIDs []string               `json:"prompt_pack_ids"`
	ProjectIDs    []string               `json:"project_ids"`
	SeriesIDs     []string               `json:"series_ids"`
	Other         []models.EffectiveEdge `json:"other"`
}

type shotDetailResponse struct {
	Shot       *models.Shot `json:"shot"`
	LinkedRefs linkedRefs   `json:"linked_refs"`
}

// Get handles GET /api/shots/{sid}
func (h *ShotsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sid, ok := ParseULID(w, r, "sid", h.logger)
	if !ok {
		return
	}

	shot, err := h.shots.GetShot(r.Context(), sid)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	edges, err := h.edges.EffectiveEdges(r.Context(), models.TypeShot, sid)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	refs := linkedRefs{
		AssetIDs:      []string{},
		RunIDs:        []string{},
		PromptPackIDs: []string{},
		ProjectIDs:    []string{},
		SeriesIDs:     []string{},
		Other:         []models.EffectiveEdge{},
	}
	for _, e := range edges {
		switch e.DstType {
		case models.TypeAsset:
			refs.AssetIDs = append(refs.AssetIDs, e.DstID)
		case models.TypeRun:
			refs.RunIDs = append(refs.RunIDs, e.DstID)
		case models.TypePromptPack:
			refs.PromptPackIDs = append(refs.PromptPackIDs, e.DstID)
		case models.TypeProject:
			refs.ProjectIDs = append(refs.ProjectIDs, e.DstID)
		case models.TypeSeries:
			refs.SeriesIDs = append(refs.SeriesIDs, e.DstID)
		default:
			refs.Other = append(refs.Other, e)
		}
	}

	if err := WriteJSON(w, http.StatusOK, shotDetailResponse{Shot: shot, LinkedRefs: refs}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/shots
func (h *ShotsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParsePagination(r)
	shots, err := h.shots.ListShots(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"shots": shots}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
