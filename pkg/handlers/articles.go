package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sebench/evidence-engine/pkg/auth"
	"github.com/sebench/evidence-engine/pkg/authz"
	"github.com/sebench/evidence-engine/pkg/models"
	"github.com/sebench/evidence-engine/pkg/services"
)

// SubmitArticleRequest is the request body for submitting an article.
type SubmitArticleRequest struct {
	Title          string `json:"title"`
	Authors        string `json:"authors"`
	Year           int    `json:"year"`
	PracticeType   string `json:"practiceType"`
	Claim          string `json:"claim"`
	EvidenceResult string `json:"evidenceResult"`
	DOI            string `json:"doi"`
}

// ReviewArticleRequest is the request body for a moderator decision.
type ReviewArticleRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

// RateArticleRequest is the request body for rating an article.
type RateArticleRequest struct {
	Rating int `json:"rating"`
}

// ArticlesHandler handles article-related HTTP requests.
type ArticlesHandler struct {
	articleService services.ArticleService
	searchService  services.SearchService
	logger         *zap.Logger
}

// NewArticlesHandler creates a new articles handler.
func NewArticlesHandler(articleService services.ArticleService, searchService services.SearchService, logger *zap.Logger) *ArticlesHandler {
	return &ArticlesHandler{
		articleService: articleService,
		searchService:  searchService,
		logger:         logger,
	}
}

// RegisterRoutes registers the articles handler's routes on the given mux.
// Every route authenticates first, then passes the authorization table.
func (h *ArticlesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, authorizer *authz.Authorizer) {
	mux.HandleFunc("POST /api/articles",
		authMiddleware.RequireAuth(
			authorizer.Require(authz.OpSubmitArticle)(h.Submit)))

	mux.HandleFunc("GET /api/articles/search",
		authMiddleware.RequireAuth(
			authorizer.Require(authz.OpSearchArticles)(h.Search)))

	mux.HandleFunc("GET /api/articles/pending-reviews",
		authMiddleware.RequireAuth(
			authorizer.Require(authz.OpListPendingReviews)(h.PendingReviews)))

	mux.HandleFunc("PUT /api/articles/review/{id}",
		authMiddleware.RequireAuth(
			authorizer.Require(authz.OpReviewArticle)(h.Review)))

	mux.HandleFunc("PUT /api/articles/rate/{id}",
		authMiddleware.RequireAuth(
			authorizer.Require(authz.OpRateArticle)(h.Rate)))

	mux.HandleFunc("GET /api/articles/analyze/pending",
		authMiddleware.RequireAuth(
			authorizer.Require(authz.OpListPendingAnalysis)(h.PendingAnalysis)))

	mux.HandleFunc("PUT /api/articles/admin/{id}",
		authMiddleware.RequireAuth(
			authorizer.Require(authz.OpAdminUpdateArticle)(h.AdminUpdate)))
}

// Submit handles POST /api/articles
// Validates and stores a new article awaiting moderator review.
func (h *ArticlesHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	article := &models.Article{
		Title:          req.Title,
		Authors:        req.Authors,
		Year:           req.Year,
		PracticeType:   req.PracticeType,
		Claim:          req.Claim,
		EvidenceResult: req.EvidenceResult,
		DOI:            req.DOI,
	}

	created, err := h.articleService.Submit(r.Context(), article)
	if err != nil {
		writeServiceError(w, h.logger, err, "submit_failed", "Failed to submit article")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, created); err != nil {
		h.logger.Error("Failed to encode article response", zap.Error(err))
	}
}

// Search handles GET /api/articles/search
// Returns approved articles matching the query criteria.
func (h *ArticlesHandler) Search(w http.ResponseWriter, r *http.Request) {
	criteria, ok := h.parseCriteria(w, r)
	if !ok {
		return
	}

	articles, err := h.searchService.Search(r.Context(), criteria)
	if err != nil {
		writeServiceError(w, h.logger, err, "search_failed", "Failed to search articles")
		return
	}

	if err := WriteJSON(w, http.StatusOK, articles); err != nil {
		h.logger.Error("Failed to encode search response", zap.Error(err))
	}
}

// PendingReviews handles GET /api/articles/pending-reviews
// Returns the moderator queue, newest submissions first.
func (h *ArticlesHandler) PendingReviews(w http.ResponseWriter, r *http.Request) {
	articles, err := h.articleService.ListPendingReview(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list_failed", "Failed to list pending reviews")
		return
	}

	if err := WriteJSON(w, http.StatusOK, articles); err != nil {
		h.logger.Error("Failed to encode pending reviews", zap.Error(err))
	}
}

// Review handles PUT /api/articles/review/{id}
// Applies a moderator decision to a pending article.
func (h *ArticlesHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req ReviewArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	article, err := h.articleService.Review(r.Context(), id, models.ReviewStatus(req.Status), req.Comment)
	if err != nil {
		writeServiceError(w, h.logger, err, "review_failed", "Failed to review article")
		return
	}

	if err := WriteJSON(w, http.StatusOK, article); err != nil {
		h.logger.Error("Failed to encode article response", zap.Error(err))
	}
}

// Rate handles PUT /api/articles/rate/{id}
// Sets the rating of an approved article.
func (h *ArticlesHandler) Rate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req RateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	article, err := h.articleService.Rate(r.Context(), id, req.Rating)
	if err != nil {
		writeServiceError(w, h.logger, err, "rate_failed", "Failed to rate article")
		return
	}

	if err := WriteJSON(w, http.StatusOK, article); err != nil {
		h.logger.Error("Failed to encode article response", zap.Error(err))
	}
}

// PendingAnalysis handles GET /api/articles/analyze/pending
// Returns approved articles awaiting analysis, most recently updated first.
func (h *ArticlesHandler) PendingAnalysis(w http.ResponseWriter, r *http.Request) {
	articles, err := h.articleService.ListPendingAnalysis(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list_failed", "Failed to list pending analysis")
		return
	}

	if err := WriteJSON(w, http.StatusOK, articles); err != nil {
		h.logger.Error("Failed to encode pending analysis", zap.Error(err))
	}
}

// AdminUpdate handles PUT /api/articles/admin/{id}
// Applies a field-level patch bypassing the review workflow.
func (h *ArticlesHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var patch models.ArticlePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	article, err := h.articleService.AdminUpdate(r.Context(), id, &patch)
	if err != nil {
		writeServiceError(w, h.logger, err, "update_failed", "Failed to update article")
		return
	}

	if err := WriteJSON(w, http.StatusOK, article); err != nil {
		h.logger.Error("Failed to encode article response", zap.Error(err))
	}
}

// parseID parses the {id} path parameter, writing a 400 on failure.
func (h *ArticlesHandler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_article_id", "Invalid article ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}

// parseCriteria builds SearchCriteria from query parameters, writing a 400 on
// malformed year bounds. Enum validation happens in the service.
func (h *ArticlesHandler) parseCriteria(w http.ResponseWriter, r *http.Request) (models.SearchCriteria, bool) {
	q := r.URL.Query()
	criteria := models.SearchCriteria{
		PracticeType: q.Get("practiceType"),
		Claim:        q.Get("claim"),
		Sort:         q.Get("sort"),
		Order:        q.Get("order"),
	}

	for param, target := range map[string]*int{
		"yearStart": &criteria.YearStart,
		"yearEnd":   &criteria.YearEnd,
	} {
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_"+param, param+" must be an integer"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return models.SearchCriteria{}, false
		}
		*target = value
	}

	return criteria, true
}
