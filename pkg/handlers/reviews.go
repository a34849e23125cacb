package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/models"
	"github.com/dailies-studio/dailies-engine/pkg/services"
)

// ReviewBook is the slice of the review service this handler needs.
type ReviewBook interface {
	Create(ctx context.Context, in services.CreateReviewInput) (*models.Review, error)
	ListByRun(ctx context.Context, runID string) ([]models.Review, error)
}

// ReviewsHandler handles run review endpoints.
type ReviewsHandler struct {
	reviews ReviewBook
	logger  *zap.Logger
}

// NewReviewsHandler creates a new ReviewsHandler.
func NewReviewsHandler(reviews ReviewBook, logger *zap.Logger) *ReviewsHandler {
	return &ReviewsHandler{reviews: reviews, logger: logger}
}

// RegisterRoutes registers the reviews handler's routes on the given mux.
func (h *ReviewsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/runs/{rid}/reviews", h.Create)
	mux.HandleFunc("GET /api/runs/{rid}/reviews", h.ListByRun)
}

type createReviewRequest struct {
	Rating *int    `json:"rating,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

// Create handles POST /api/runs/{rid}/reviews
func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	rid, ok := ParseULID(w, r, "rid", h.logger)
	if !ok {
		return
	}

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	review, err := h.reviews.Create(r.Context(), services.CreateReviewInput{
		RunID:  rid,
		Rating: req.Rating,
		Notes:  req.Notes,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, review); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListByRun handles GET /api/runs/{rid}/reviews
func (h *ReviewsHandler) ListByRun(w http.ResponseWriter, r *http.Request) {
	rid, ok := ParseULID(w, r, "rid", h.logger)
	if !ok {
		return
	}

	reviews, err := h.reviews.ListByRun(r.Context(), rid)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"reviews": reviews}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
