package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/middleware"
	"github.com/dailies-studio/dailies-engine/pkg/models"
	"github.com/dailies-studio/dailies-engine/pkg/services"
)

// RunOrchestrator is the slice of the run service this handler needs.
type RunOrchestrator interface {
	CreateRun(ctx context.Context, in services.CreateRunInput) (*services.CreateRunOutput, error)
	Get(ctx context.Context, runID string) (*services.RunView, error)
	List(ctx context.Context, limit, offset int) ([]models.Run, error)
	AppendEvent(ctx context.Context, runID, status string, resultRefs []string, requestID *string) (*models.RunEvent, error)
	ExecuteProvider(ctx context.Context, runID string, requestID *string) (*services.RunView, error)
}

// RunsHandler handles run creation, inspection and execution endpoints.
type RunsHandler struct {
	runs   RunOrchestrator
	logger *zap.Logger
}

// NewRunsHandler creates a new RunsHandler.
func NewRunsHandler(runs RunOrchestrator, logger *zap.Logger) *RunsHandler {
	return &RunsHandler{runs: runs, logger: logger}
}

// RegisterRoutes registers the runs handler's routes on the given mux.
func (h *RunsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/runs", h.Create)
	mux.HandleFunc("GET /api/runs", h.List)
	mux.HandleFunc("GET /api/runs/{rid}", h.Get)
	mux.HandleFunc("POST /api/runs/{rid}/events", h.AppendEvent)
	mux.HandleFunc("POST /api/runs/{rid}/execute", h.Execute)
}

// Create handles POST /api/runs
func (h *RunsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.CreateRunInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	out, err := h.runs.CreateRun(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, out); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/runs/{rid}
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rid, ok := ParseULID(w, r, "rid", h.logger)
	if !ok {
		return
	}

	view, err := h.runs.Get(r.Context(), rid)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, view); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/runs
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParsePagination(r)
	runs, err := h.runs.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"runs": runs}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

type appendEventRequest struct {
	Status     string   `json:"status"`
	ResultRefs []string `json:"result_refs,omitempty"`
}

// AppendEvent handles POST /api/runs/{rid}/events
func (h *RunsHandler) AppendEvent(w http.ResponseWriter, r *http.Request) {
	rid, ok := ParseULID(w, r, "rid", h.logger)
	if !ok {
		return
	}

	var req appendEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	event, err := h.runs.AppendEvent(r.Context(), rid, req.Status, req.ResultRefs, requestIDPtr(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, event); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Execute handles POST /api/runs/{rid}/execute
func (h *RunsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	rid, ok := ParseULID(w, r, "rid", h.logger)
	if !ok {
		return
	}

	view, err := h.runs.ExecuteProvider(r.Context(), rid, requestIDPtr(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, view); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// requestIDPtr lifts the correlation id into the nullable form run
// events store.
func requestIDPtr(r *http.Request) *string {
	if id := middleware.GetRequestID(r.Context()); id != "" {
		return &id
	}
	return nil
}
