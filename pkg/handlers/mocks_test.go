package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/sebench/evidence-engine/pkg/auth"
	"github.com/sebench/evidence-engine/pkg/models"
)

// mockAuthService injects fixed claims, bypassing JWKS validation.
type mockAuthService struct {
	claims *auth.Claims
	token  string
	err    error
}

func (m *mockAuthService) ValidateRequest(r *http.Request) (*auth.Claims, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return m.claims, m.token, nil
}

func (m *mockAuthService) RequireSubject(claims *auth.Claims) error {
	if claims.Subject == "" {
		return auth.ErrMissingSubject
	}
	return nil
}

// mockArticleService is a configurable mock for handler tests.
type mockArticleService struct {
	article  *models.Article
	articles []*models.Article
	err      error

	capturedDecision models.ReviewStatus
	capturedComment  string
	capturedRating   int
	capturedPatch    *models.ArticlePatch
}

func (m *mockArticleService) Submit(ctx context.Context, article *models.Article) (*models.Article, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.article, nil
}

func (m *mockArticleService) Review(ctx context.Context, id uuid.UUID, decision models.ReviewStatus, comment string) (*models.Article, error) {
	m.capturedDecision = decision
	m.capturedComment = comment
	if m.err != nil {
		return nil, m.err
	}
	return m.article, nil
}

func (m *mockArticleService) Rate(ctx context.Context, id uuid.UUID, rating int) (*models.Article, error) {
	m.capturedRating = rating
	if m.err != nil {
		return nil, m.err
	}
	return m.article, nil
}

func (m *mockArticleService) ListPendingReview(ctx context.Context) ([]*models.Article, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.articles, nil
}

func (m *mockArticleService) ListPendingAnalysis(ctx context.Context) ([]*models.Article, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.articles, nil
}

func (m *mockArticleService) AdminUpdate(ctx context.Context, id uuid.UUID, patch *models.ArticlePatch) (*models.Article, error) {
	m.capturedPatch = patch
	if m.err != nil {
		return nil, m.err
	}
	return m.article, nil
}

// mockSearchService is a configurable mock for handler tests.
type mockSearchService struct {
	articles []*models.Article
	err      error

	capturedCriteria models.SearchCriteria
}

func (m *mockSearchService) Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Article, error) {
	m.capturedCriteria = criteria
	if m.err != nil {
		return nil, m.err
	}
	return m.articles, nil
}

// mockSavedSearchService is a configurable mock for handler tests.
type mockSavedSearchService struct {
	search   *models.SavedSearch
	searches []*models.SavedSearch
	err      error

	capturedOwner    uuid.UUID
	capturedName     string
	capturedCriteria models.SearchCriteria
}

func (m *mockSavedSearchService) Save(ctx context.Context, ownerID uuid.UUID, name string, criteria models.SearchCriteria) (*models.SavedSearch, error) {
	m.capturedOwner = ownerID
	m.capturedName = name
	m.capturedCriteria = criteria
	if m.err != nil {
		return nil, m.err
	}
	return m.search, nil
}

func (m *mockSavedSearchService) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]*models.SavedSearch, error) {
	m.capturedOwner = ownerID
	if m.err != nil {
		return nil, m.err
	}
	return m.searches, nil
}

func (m *mockSavedSearchService) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	m.capturedOwner = ownerID
	return m.err
}

func (m *mockSavedSearchService) Rerun(ctx context.Context, id, ownerID uuid.UUID) (*models.SavedSearch, error) {
	m.capturedOwner = ownerID
	if m.err != nil {
		return nil, m.err
	}
	return m.search, nil
}
