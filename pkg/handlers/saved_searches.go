package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sebench/evidence-engine/pkg/auth"
	"github.com/sebench/evidence-engine/pkg/authz"
	"github.com/sebench/evidence-engine/pkg/models"
	"github.com/sebench/evidence-engine/pkg/services"
)

// SaveSearchRequest is the request body for saving a search.
type SaveSearchRequest struct {
	Name     string                `json:"name"`
	Criteria models.SearchCriteria `json:"searchCriteria"`
}

// SavedSearchesHandler handles saved-search HTTP requests. The owner is
// always the authenticated caller; no route accepts an owner parameter.
type SavedSearchesHandler struct {
	savedSearchService services.SavedSearchService
	logger             *zap.Logger
}

// NewSavedSearchesHandler creates a new saved searches handler.
func NewSavedSearchesHandler(savedSearchService services.SavedSearchService, logger *zap.Logger) *SavedSearchesHandler {
	return &SavedSearchesHandler{
		savedSearchService: savedSearchService,
		logger:             logger,
	}
}

// RegisterRoutes registers the saved searches handler's routes on the given mux.
func (h *SavedSearchesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, authorizer *authz.Authorizer) {
	mux.HandleFunc("POST /api/saved-searches",
		authMiddleware.RequireAuth(
			authorizer.Require(authz.OpSaveSearch)(h.Save)))

	mux.HandleFunc("GET /api/saved-searches",
		authMiddleware.RequireAuth(
			authorizer.Require(authz.OpListSavedSearches)(h.List)))

	mux.HandleFunc("DELETE /api/saved-searches/{id}",
		authMiddleware.RequireAuth(
			authorizer.Require(authz.OpDeleteSavedSearch)(h.Delete)))

	mux.HandleFunc("GET /api/saved-searches/{id}/rerun",
		authMiddleware.RequireAuth(
			authorizer.Require(authz.OpRerunSavedSearch)(h.Rerun)))
}

// Save handles POST /api/saved-searches
// Stores a named criteria snapshot owned by the caller.
func (h *SavedSearchesHandler) Save(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	var req SaveSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	search, err := h.savedSearchService.Save(r.Context(), ownerID, req.Name, req.Criteria)
	if err != nil {
		writeServiceError(w, h.logger, err, "save_failed", "Failed to save search")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, search); err != nil {
		h.logger.Error("Failed to encode saved search response", zap.Error(err))
	}
}

// List handles GET /api/saved-searches
// Returns the caller's saved searches, most recent first.
func (h *SavedSearchesHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	searches, err := h.savedSearchService.ListOwned(r.Context(), ownerID)
	if err != nil {
		writeServiceError(w, h.logger, err, "list_failed", "Failed to list saved searches")
		return
	}

	if err := WriteJSON(w, http.StatusOK, searches); err != nil {
		h.logger.Error("Failed to encode saved searches", zap.Error(err))
	}
}

// Delete handles DELETE /api/saved-searches/{id}
// Deletes a saved search owned by the caller.
func (h *SavedSearchesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.savedSearchService.Delete(r.Context(), id, ownerID); err != nil {
		writeServiceError(w, h.logger, err, "delete_failed", "Failed to delete saved search")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Rerun handles GET /api/saved-searches/{id}/rerun
// Returns the stored criteria snapshot exactly as saved.
func (h *SavedSearchesHandler) Rerun(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	search, err := h.savedSearchService.Rerun(r.Context(), id, ownerID)
	if err != nil {
		writeServiceError(w, h.logger, err, "rerun_failed", "Failed to rerun saved search")
		return
	}

	// The response body is the bare criteria object, not the saved-search
	// envelope; callers feed it straight back into the search endpoint.
	if err := WriteJSON(w, http.StatusOK, search.Criteria); err != nil {
		h.logger.Error("Failed to encode saved search response", zap.Error(err))
	}
}

// requireOwner extracts the caller's user UUID from the claims in context.
func (h *SavedSearchesHandler) requireOwner(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	ownerID, err := auth.RequireUserUUIDFromContext(r.Context())
	if err != nil {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Valid user identity required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return ownerID, true
}

// parseID parses the {id} path parameter, writing a 400 on failure.
func (h *SavedSearchesHandler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_saved_search_id", "Invalid saved search ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}
