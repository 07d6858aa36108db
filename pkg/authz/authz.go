// Package authz holds the authorization table for the API: every operation
// declares the roles allowed to invoke it, and Require enforces the table as
// middleware. Authorization is a single table lookup; handlers never check
// roles themselves.
package authz

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/sebench/evidence-engine/pkg/auth"
	"github.com/sebench/evidence-engine/pkg/models"
)

// Operation identifies an API operation in the authorization table.
type Operation string

const (
	OpSubmitArticle       Operation = "submitArticle"
	OpSearchArticles      Operation = "searchArticles"
	OpListPendingReviews  Operation = "listPendingReviews"
	OpReviewArticle       Operation = "reviewArticle"
	OpRateArticle         Operation = "rateArticle"
	OpListPendingAnalysis Operation = "listPendingAnalysis"
	OpAdminUpdateArticle  Operation = "adminUpdateArticle"
	OpSaveSearch          Operation = "saveSearch"
	OpListSavedSearches   Operation = "listSavedSearches"
	OpDeleteSavedSearch   Operation = "deleteSavedSearch"
	OpRerunSavedSearch    Operation = "rerunSavedSearch"
)

var allRoles = []string{models.RoleUser, models.RoleModerator, models.RoleAnalyst, models.RoleAdmin}

// allowedRoles is the authorization table. An operation missing from the
// table denies every role.
var allowedRoles = map[Operation][]string{
	OpSubmitArticle:       allRoles,
	OpSearchArticles:      allRoles,
	OpListPendingReviews:  {models.RoleModerator, models.RoleAdmin},
	OpReviewArticle:       {models.RoleModerator, models.RoleAdmin},
	OpRateArticle:         allRoles,
	OpListPendingAnalysis: {models.RoleAnalyst, models.RoleAdmin},
	OpAdminUpdateArticle:  {models.RoleAdmin},
	OpSaveSearch:          allRoles,
	OpListSavedSearches:   allRoles,
	OpDeleteSavedSearch:   allRoles,
	OpRerunSavedSearch:    allRoles,
}

// Check reports whether role may invoke op.
func Check(role string, op Operation) bool {
	for _, allowed := range allowedRoles[op] {
		if role == allowed {
			return true
		}
	}
	return false
}

// Authorizer enforces the authorization table as HTTP middleware. It runs
// after auth.Middleware.RequireAuth, which put the claims in context.
type Authorizer struct {
	logger *zap.Logger
}

// NewAuthorizer creates an Authorizer.
func NewAuthorizer(logger *zap.Logger) *Authorizer {
	return &Authorizer{logger: logger}
}

// Require returns middleware that allows the request through only when the
// authenticated role is in op's allow-list. Missing claims yield 401, a role
// outside the table (or outside the closed role set) yields 403.
func (a *Authorizer) Require(op Operation) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.GetClaims(r.Context())
			if !ok || claims == nil {
				a.unauthorized(w, "Authentication required")
				return
			}

			if !models.IsValidRole(claims.Role) || !Check(claims.Role, op) {
				a.logger.Warn("Operation denied by authorization table",
					zap.String("operation", string(op)),
					zap.String("role", claims.Role),
					zap.String("subject", claims.Subject))
				a.forbidden(w, "Insufficient role for this operation")
				return
			}

			next(w, r)
		}
	}
}

// unauthorized returns a 401 response with JSON error body.
func (a *Authorizer) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}

// forbidden returns a 403 response with JSON error body.
func (a *Authorizer) forbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "forbidden",
		"message": message,
	})
}
