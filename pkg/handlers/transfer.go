package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/services"
)

// BundleMover is the slice of the transfer service this handler needs.
type BundleMover interface {
	Export(ctx context.Context, dir string) (*services.BundleManifest, error)
	Import(ctx context.Context, dir string) (*services.BundleManifest, error)
}

// TransferHandler handles export/import bundle endpoints. Bundles are
// directories on the server's filesystem; the caller names the path.
type TransferHandler struct {
	transfer BundleMover
	logger   *zap.Logger
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transfer BundleMover, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{transfer: transfer, logger: logger}
}

// RegisterRoutes registers the transfer handler's routes on the given mux.
func (h *TransferHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/transfer/export", h.Export)
	mux.HandleFunc("POST /api/transfer/import", h.Import)
}

type transferRequest struct {
	Dir string `json:"dir"`
}

// Export handles POST /api/transfer/export
func (h *TransferHandler) Export(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	manifest, err := h.transfer.Export(r.Context(), req.Dir)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, manifest); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Import handles POST /api/transfer/import
func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	manifest, err := h.transfer.Import(r.Context(), req.Dir)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, manifest); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *TransferHandler) decode(w http.ResponseWriter, r *http.Request) (*transferRequest, bool) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return nil, false
	}
	if req.Dir == "" {
		if werr := ErrorResponse(w, http.StatusBadRequest, "missing_fields", "dir is required"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return nil, false
	}
	return &req, true
}
