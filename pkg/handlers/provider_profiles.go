package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/services"
)

// ProviderProfileDirectory is the slice of the provider profile
// service this handler needs.
type ProviderProfileDirectory interface {
	Create(ctx context.Context, in services.CreateProviderProfileInput) (*services.ProviderProfileView, error)
	Get(ctx context.Context, id string) (*services.ProviderProfileView, error)
	List(ctx context.Context, limit int) ([]*services.ProviderProfileView, error)
	Patch(ctx context.Context, id string, in services.PatchProviderProfileInput) (*services.ProviderProfileView, error)
	SetGlobalDefault(ctx context.Context, id string) (*services.ProviderProfileView, error)
	Scrub(ctx context.Context, id string) (*services.ProviderProfileView, error)
}

// ProviderProfilesHandler handles provider profile endpoints. All
// responses go through the service's redacting view; raw config never
// leaves the server.
type ProviderProfilesHandler struct {
	profiles ProviderProfileDirectory
	logger   *zap.Logger
}

// NewProviderProfilesHandler creates a new ProviderProfilesHandler.
func NewProviderProfilesHandler(profiles ProviderProfileDirectory, logger *zap.Logger) *ProviderProfilesHandler {
	return &ProviderProfilesHandler{profiles: profiles, logger: logger}
}

// RegisterRoutes registers the provider profiles handler's routes on the given mux.
func (h *ProviderProfilesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/provider-profiles", h.Create)
	mux.HandleFunc("GET /api/provider-profiles", h.List)
	mux.HandleFunc("GET /api/provider-profiles/{ppid}", h.Get)
	mux.HandleFunc("PATCH /api/provider-profiles/{ppid}", h.Patch)
	mux.HandleFunc("POST /api/provider-profiles/{ppid}/default", h.SetGlobalDefault)
	mux.HandleFunc("DELETE /api/provider-profiles/{ppid}", h.Scrub)
}

// Create handles POST /api/provider-profiles
func (h *ProviderProfilesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.CreateProviderProfileInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	view, err := h.profiles.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, view); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/provider-profiles/{ppid}
func (h *ProviderProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ppid, ok := ParseULID(w, r, "ppid", h.logger)
	if !ok {
		return
	}

	view, err := h.profiles.Get(r.Context(), ppid)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, view); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/provider-profiles
func (h *ProviderProfilesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := ParsePagination(r)
	views, err := h.profiles.List(r.Context(), limit)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"provider_profiles": views}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Patch handles PATCH /api/provider-profiles/{ppid}
func (h *ProviderProfilesHandler) Patch(w http.ResponseWriter, r *http.Request) {
	ppid, ok := ParseULID(w, r, "ppid", h.logger)
	if !ok {
		return
	}

	var in services.PatchProviderProfileInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	view, err := h.profiles.Patch(r.Context(), ppid, in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, view); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// SetGlobalDefault handles POST /api/provider-profiles/{ppid}/default
func (h *ProviderProfilesHandler) SetGlobalDefault(w http.ResponseWriter, r *http.Request) {
	ppid, ok := ParseULID(w, r, "ppid", h.logger)
	if !ok {
		return
	}

	view, err := h.profiles.SetGlobalDefault(r.Context(), ppid)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, view); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Scrub handles DELETE /api/provider-profiles/{ppid}
// Deletion is scrub-only: the row survives for run traceability.
func (h *ProviderProfilesHandler) Scrub(w http.ResponseWriter, r *http.Request) {
	ppid, ok := ParseULID(w, r, "ppid", h.logger)
	if !ok {
		return
	}

	view, err := h.profiles.Scrub(r.Context(), ppid)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, view); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
