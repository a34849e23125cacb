package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/models"
	"github.com/dailies-studio/dailies-engine/pkg/services"
)

// CharacterDirectory is the slice of the character service this
// handler needs.
type CharacterDirectory interface {
	Create(ctx context.Context, in services.CreateCharacterInput) (*models.Character, error)
	Get(ctx context.Context, id string) (*models.Character, error)
	List(ctx context.Context, limit, offset int) ([]models.Character, error)
	Patch(ctx context.Context, id string, in services.PatchCharacterInput) (*models.Character, error)
	CreateRefSet(ctx context.Context, in services.CreateRefSetInput) (*models.CharacterRefSet, error)
	GetRefSet(ctx context.Context, characterID, refSetID string) (*models.CharacterRefSet, error)
	ListRefSets(ctx context.Context, characterID string) ([]models.CharacterRefSet, error)
	AddRef(ctx context.Context, characterID, refSetID, assetID string) (string, error)
}

// CharactersHandler handles character and ref-set endpoints.
type CharactersHandler struct {
	characters CharacterDirectory
	logger     *zap.Logger
}

// NewCharactersHandler creates a new CharactersHandler.
func NewCharactersHandler(characters CharacterDirectory, logger *zap.Logger) *CharactersHandler {
	return &CharactersHandler{characters: characters, logger: logger}
}

// RegisterRoutes registers the characters handler's routes on the given mux.
func (h *CharactersHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/characters", h.Create)
	mux.HandleFunc("GET /api/characters", h.List)
	mux.HandleFunc("GET /api/characters/{cid}", h.Get)
	mux.HandleFunc("PATCH /api/characters/{cid}", h.Patch)
	mux.HandleFunc("POST /api/characters/{cid}/ref-sets", h.CreateRefSet)
	mux.HandleFunc("GET /api/characters/{cid}/ref-sets", h.ListRefSets)
	mux.HandleFunc("GET /api/characters/{cid}/ref-sets/{rsid}", h.GetRefSet)
	mux.HandleFunc("POST /api/characters/{cid}/ref-sets/{rsid}/refs", h.AddRef)
}

// Create handles POST /api/characters
func (h *CharactersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.CreateCharacterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	c, err := h.characters.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, c); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/characters/{cid}
func (h *CharactersHandler) Get(w http.ResponseWriter, r *http.Request) {
	cid, ok := ParseULID(w, r, "cid", h.logger)
	if !ok {
		return
	}

	c, err := h.characters.Get(r.Context(), cid)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, c); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/characters
func (h *CharactersHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParsePagination(r)
	characters, err := h.characters.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"characters": characters}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Patch handles PATCH /api/characters/{cid}
func (h *CharactersHandler) Patch(w http.ResponseWriter, r *http.Request) {
	cid, ok := ParseULID(w, r, "cid", h.logger)
	if !ok {
		return
	}

	var in services.PatchCharacterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	c, err := h.characters.Patch(r.Context(), cid, in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, c); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

type createRefSetRequest struct {
	BaseRefSetID *string `json:"base_ref_set_id,omitempty"`
	Status       string  `json:"status,omitempty"`
}

// CreateRefSet handles POST /api/characters/{cid}/ref-sets
func (h *CharactersHandler) CreateRefSet(w http.ResponseWriter, r *http.Request) {
	cid, ok := ParseULID(w, r, "cid", h.logger)
	if !ok {
		return
	}

	var req createRefSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	refSet, err := h.characters.CreateRefSet(r.Context(), services.CreateRefSetInput{
		CharacterID:  cid,
		BaseRefSetID: req.BaseRefSetID,
		Status:       req.Status,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, refSet); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListRefSets handles GET /api/characters/{cid}/ref-sets
func (h *CharactersHandler) ListRefSets(w http.ResponseWriter, r *http.Request) {
	cid, ok := ParseULID(w, r, "cid", h.logger)
	if !ok {
		return
	}

	refSets, err := h.characters.ListRefSets(r.Context(), cid)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"ref_sets": refSets}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetRefSet handles GET /api/characters/{cid}/ref-sets/{rsid}
func (h *CharactersHandler) GetRefSet(w http.ResponseWriter, r *http.Request) {
	cid, ok := ParseULID(w, r, "cid", h.logger)
	if !ok {
		return
	}
	rsid, ok := ParseULID(w, r, "rsid", h.logger)
	if !ok {
		return
	}

	refSet, err := h.characters.GetRefSet(r.Context(), cid, rsid)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, refSet); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

type addRefRequest struct {
	AssetID string `json:"asset_id"`
}

// AddRef handles POST /api/characters/{cid}/ref-sets/{rsid}/refs
func (h *CharactersHandler) AddRef(w http.ResponseWriter, r *http.Request) {
	cid, ok := ParseULID(w, r, "cid", h.logger)
	if !ok {
		return
	}
	rsid, ok := ParseULID(w, r, "rsid", h.logger)
	if !ok {
		return
	}

	var req addRefRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	linkID, err := h.characters.AddRef(r.Context(), cid, rsid, req.AssetID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, map[string]string{"link_id": linkID}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
