package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/models"
)

// LinkGraph is the slice of the link repository this handler needs.
type LinkGraph interface {
	Insert(ctx context.Context, srcType, srcID, dstType, dstID, rel string, meta *string) (string, error)
	Tombstone(ctx context.Context, linkID, srcType, srcID string) (string, error)
	GetByID(ctx context.Context, linkID string) (*models.Link, error)
	ListBySource(ctx context.Context, srcType, srcID string) ([]models.Link, error)
	ListByDestination(ctx context.Context, dstType, dstID string) ([]models.Link, error)
	EffectiveEdges(ctx context.Context, srcType, srcID string) ([]models.EffectiveEdge, error)
}

// LinksHandler exposes the raw link graph: append edges, tombstone
// them, and read either the full history or the folded effective view.
type LinksHandler struct {
	links  LinkGraph
	logger *zap.Logger
}

// NewLinksHandler creates a new LinksHandler.
func NewLinksHandler(links LinkGraph, logger *zap.Logger) *LinksHandler {
	return &LinksHandler{links: links, logger: logger}
}

// RegisterRoutes registers the links handler's routes on the given mux.
func (h *LinksHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/links", h.Create)
	mux.HandleFunc("GET /api/links", h.List)
	mux.HandleFunc("GET /api/links/effective", h.Effective)
	mux.HandleFunc("POST /api/links/{lid}/unlink", h.Unlink)
}

type createLinkRequest struct {
	SrcType string  `json:"src_type"`
	SrcID   string  `json:"src_id"`
	DstType string  `json:"dst_type"`
	DstID   string  `json:"dst_id"`
	Rel     string  `json:"rel"`
	Meta    *string `json:"meta,omitempty"`
}

// Create handles POST /api/links
func (h *LinksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}
	if req.SrcType == "" || req.SrcID == "" || req.DstType == "" || req.DstID == "" || req.Rel == "" {
		if werr := ErrorResponse(w, http.StatusBadRequest, "missing_fields", "src_type, src_id, dst_type, dst_id and rel are required"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	linkID, err := h.links.Insert(r.Context(), req.SrcType, req.SrcID, req.DstType, req.DstID, req.Rel, req.Meta)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, map[string]string{"link_id": linkID}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/links?src_type=&src_id= or ?dst_type=&dst_id=
// Returns raw rows, tombstones included.
func (h *LinksHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		links []models.Link
		err   error
	)
	switch {
	case q.Get("src_type") != "" && q.Get("src_id") != "":
		links, err = h.links.ListBySource(r.Context(), q.Get("src_type"), q.Get("src_id"))
	case q.Get("dst_type") != "" && q.Get("dst_id") != "":
		links, err = h.links.ListByDestination(r.Context(), q.Get("dst_type"), q.Get("dst_id"))
	default:
		if werr := ErrorResponse(w, http.StatusBadRequest, "missing_fields", "src_type+src_id or dst_type+dst_id query parameters are required"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"links": links}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Effective handles GET /api/links/effective?src_type=&src_id=
// Returns the folded view: one winner per (dst, rel) group, tombstoned
// edges absent.
func (h *LinksHandler) Effective(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	srcType, srcID := q.Get("src_type"), q.Get("src_id")
	if srcType == "" || srcID == "" {
		if werr := ErrorResponse(w, http.StatusBadRequest, "missing_fields", "src_type and src_id query parameters are required"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	edges, err := h.links.EffectiveEdges(r.Context(), srcType, srcID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"edges": edges}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

type unlinkRequest struct {
	SrcType string `json:"src_type"`
	SrcID   string `json:"src_id"`
}

// Unlink handles POST /api/links/{lid}/unlink
// Appends a tombstone row; the original link row is never touched.
func (h *LinksHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	lid, ok := ParseULID(w, r, "lid", h.logger)
	if !ok {
		return
	}

	var req unlinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	tombstoneID, err := h.links.Tombstone(r.Context(), lid, req.SrcType, req.SrcID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, map[string]string{"tombstone_id": tombstoneID}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
