package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sebench/evidence-engine/pkg/apperrors"
	"github.com/sebench/evidence-engine/pkg/auth"
	"github.com/sebench/evidence-engine/pkg/authz"
	"github.com/sebench/evidence-engine/pkg/models"
)

// newArticlesMux registers the articles routes behind an auth middleware
// that injects claims for the given role.
func newArticlesMux(articleSvc *mockArticleService, searchSvc *mockSearchService, role string) *http.ServeMux {
	claims := &auth.Claims{Role: role}
	claims.Subject = uuid.New().String()

	authMiddleware := auth.NewMiddleware(&mockAuthService{claims: claims, token: "test-token"}, zap.NewNop())
	authorizer := authz.NewAuthorizer(zap.NewNop())

	handler := NewArticlesHandler(articleSvc, searchSvc, zap.NewNop())
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authMiddleware, authorizer)
	return mux
}

func TestSubmit_Created(t *testing.T) {
	created := &models.Article{ID: uuid.New(), Title: "t", ReviewStatus: models.ReviewPending}
	mux := newArticlesMux(&mockArticleService{article: created}, &mockSearchService{}, models.RoleUser)

	body := `{"title":"t","authors":"a","year":2010,"practiceType":"TDD","claim":"c","evidenceResult":"e","doi":"10.1/x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/articles", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var got models.Article
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("expected article JSON: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("expected created article back, got %v", got.ID)
	}
}

func TestSubmit_MalformedBody(t *testing.T) {
	mux := newArticlesMux(&mockArticleService{}, &mockSearchService{}, models.RoleUser)

	req := httptest.NewRequest(http.MethodPost, "/api/articles", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSubmit_ConflictMapsTo409(t *testing.T) {
	svc := &mockArticleService{err: apperrors.ErrConflict}
	mux := newArticlesMux(svc, &mockSearchService{}, models.RoleUser)

	body := `{"title":"t"}`
	req := httptest.NewRequest(http.MethodPost, "/api/articles", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["error"] != "conflict" {
		t.Errorf("expected conflict code, got %q", resp["error"])
	}
}

func TestSearch_PassesCriteria(t *testing.T) {
	searchSvc := &mockSearchService{articles: []*models.Article{}}
	mux := newArticlesMux(&mockArticleService{}, searchSvc, models.RoleUser)

	req := httptest.NewRequest(http.MethodGet,
		"/api/articles/search?practiceType=TDD&claim=defect&yearStart=2005&yearEnd=2015&sort=rating&order=asc", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	got := searchSvc.capturedCriteria
	want := models.SearchCriteria{
		PracticeType: "TDD", Claim: "defect",
		YearStart: 2005, YearEnd: 2015,
		Sort: models.SortRating, Order: models.OrderAsc,
	}
	if got != want {
		t.Errorf("criteria mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestSearch_MalformedYear(t *testing.T) {
	mux := newArticlesMux(&mockArticleService{}, &mockSearchService{}, models.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/api/articles/search?yearStart=abc", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSearch_InvalidSortMapsTo400(t *testing.T) {
	searchSvc := &mockSearchService{err: apperrors.Validation("sort", "must be one of title, year, rating, updatedAt")}
	mux := newArticlesMux(&mockArticleService{}, searchSvc, models.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/api/articles/search?sort=createdAt", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["error"] != "validation_error" {
		t.Errorf("expected validation_error code, got %q", resp["error"])
	}
}

func TestReview_Success(t *testing.T) {
	reviewed := &models.Article{ID: uuid.New(), ReviewStatus: models.ReviewApproved}
	svc := &mockArticleService{article: reviewed}
	mux := newArticlesMux(svc, &mockSearchService{}, models.RoleModerator)

	body := `{"status":"approved","comment":"Checked duplication, relevance, and source"}`
	req := httptest.NewRequest(http.MethodPut, "/api/articles/review/"+reviewed.ID.String(), strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.capturedDecision != models.ReviewApproved {
		t.Errorf("expected approved decision, got %s", svc.capturedDecision)
	}
}

func TestReview_InvalidID(t *testing.T) {
	mux := newArticlesMux(&mockArticleService{}, &mockSearchService{}, models.RoleModerator)

	req := httptest.NewRequest(http.MethodPut, "/api/articles/review/not-a-uuid", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestReview_AlreadyReviewedMapsTo409(t *testing.T) {
	svc := &mockArticleService{err: apperrors.InvalidState("article already reviewed, state=%s", models.ReviewApproved)}
	mux := newArticlesMux(svc, &mockSearchService{}, models.RoleModerator)

	body := `{"status":"rejected","comment":"Second review attempt on this one"}`
	req := httptest.NewRequest(http.MethodPut, "/api/articles/review/"+uuid.NewString(), strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["error"] != "invalid_state" {
		t.Errorf("expected invalid_state code, got %q", resp["error"])
	}
}

func TestRate_ForbiddenMapsTo403(t *testing.T) {
	svc := &mockArticleService{err: apperrors.Forbidden("only approved articles may be rated")}
	mux := newArticlesMux(svc, &mockSearchService{}, models.RoleUser)

	req := httptest.NewRequest(http.MethodPut, "/api/articles/rate/"+uuid.NewString(), strings.NewReader(`{"rating":3}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRate_NotFoundMapsTo404(t *testing.T) {
	svc := &mockArticleService{err: apperrors.ErrNotFound}
	mux := newArticlesMux(svc, &mockSearchService{}, models.RoleUser)

	req := httptest.NewRequest(http.MethodPut, "/api/articles/rate/"+uuid.NewString(), strings.NewReader(`{"rating":3}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestAdminUpdate_PatchPassthrough(t *testing.T) {
	updated := &models.Article{ID: uuid.New()}
	svc := &mockArticleService{article: updated}
	mux := newArticlesMux(svc, &mockSearchService{}, models.RoleAdmin)

	body := `{"reviewStatus":"approved","rating":5}`
	req := httptest.NewRequest(http.MethodPut, "/api/articles/admin/"+updated.ID.String(), strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	patch := svc.capturedPatch
	if patch == nil || patch.ReviewStatus == nil || *patch.ReviewStatus != models.ReviewApproved {
		t.Errorf("expected reviewStatus in patch, got %+v", patch)
	}
	if patch.Rating == nil || *patch.Rating != 5 {
		t.Errorf("expected rating 5 in patch, got %+v", patch.Rating)
	}
	if patch.AnalyzeStatus != nil {
		t.Error("patch must not contain fields the request did not set")
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	authMiddleware := auth.NewMiddleware(&mockAuthService{err: auth.ErrMissingAuthorization}, zap.NewNop())
	authorizer := authz.NewAuthorizer(zap.NewNop())

	handler := NewArticlesHandler(&mockArticleService{}, &mockSearchService{}, zap.NewNop())
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authMiddleware, authorizer)

	req := httptest.NewRequest(http.MethodGet, "/api/articles/search", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}
