package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/models"
	"github.com/dailies-studio/dailies-engine/pkg/services"
)

// AssetCatalog is the slice of the asset service this handler needs.
type AssetCatalog interface {
	Create(ctx context.Context, in services.CreateAssetInput) (*models.Asset, error)
	Get(ctx context.Context, id string) (*models.Asset, error)
	List(ctx context.Context, includeDeleted bool, limit, offset int) ([]models.Asset, error)
	SoftDelete(ctx context.Context, id string) error
	Traceability(ctx context.Context, id string) (*services.AssetTraceability, error)
}

// TrashBin is the slice of the trash service this handler needs.
type TrashBin interface {
	List(ctx context.Context) ([]models.Asset, error)
	Purge(ctx context.Context) (*services.PurgeResult, error)
}

// AssetsHandler handles asset and trash endpoints.
type AssetsHandler struct {
	assets AssetCatalog
	trash  TrashBin
	logger *zap.Logger
}

// NewAssetsHandler creates a new AssetsHandler.
func NewAssetsHandler(assets AssetCatalog, trash TrashBin, logger *zap.Logger) *AssetsHandler {
	return &AssetsHandler{assets: assets, trash: trash, logger: logger}
}

// RegisterRoutes registers the assets handler's routes on the given mux.
func (h *AssetsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/assets", h.Create)
	mux.HandleFunc("GET /api/assets", h.List)
	mux.HandleFunc("GET /api/assets/{aid}", h.Get)
	mux.HandleFunc("DELETE /api/assets/{aid}", h.SoftDelete)
	mux.HandleFunc("GET /api/assets/{aid}/traceability", h.Traceability)
	mux.HandleFunc("GET /api/trash", h.ListTrash)
	mux.HandleFunc("POST /api/trash/purge", h.Purge)
}

// Create handles POST /api/assets
func (h *AssetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.CreateAssetInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	asset, err := h.assets.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, asset); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/assets/{aid}
func (h *AssetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	aid, ok := ParseULID(w, r, "aid", h.logger)
	if !ok {
		return
	}

	asset, err := h.assets.Get(r.Context(), aid)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, asset); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/assets?include_deleted=true
func (h *AssetsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParsePagination(r)
	includeDeleted := r.URL.Query().Get("include_deleted") == "true"

	assets, err := h.assets.List(r.Context(), includeDeleted, limit, offset)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"assets": assets}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// SoftDelete handles DELETE /api/assets/{aid}
// Moves the asset to the trash; hard deletion happens only via purge.
func (h *AssetsHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	aid, ok := ParseULID(w, r, "aid", h.logger)
	if !ok {
		return
	}

	if err := h.assets.SoftDelete(r.Context(), aid); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Traceability handles GET /api/assets/{aid}/traceability
func (h *AssetsHandler) Traceability(w http.ResponseWriter, r *http.Request) {
	aid, ok := ParseULID(w, r, "aid", h.logger)
	if !ok {
		return
	}

	trace, err := h.assets.Traceability(r.Context(), aid)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, trace); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListTrash handles GET /api/trash
func (h *AssetsHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	assets, err := h.trash.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"assets": assets}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Purge handles POST /api/trash/purge
func (h *AssetsHandler) Purge(w http.ResponseWriter, r *http.Request) {
	result, err := h.trash.Purge(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
