package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/sebench/evidence-engine/pkg/models"
)

// mockArticleRepository is a configurable mock for testing the article and
// search services.
type mockArticleRepository struct {
	article       *models.Article
	articles      []*models.Article
	exists        bool
	existsErr     error
	createErr     error
	getErr        error
	reviewResults []*models.Article // consumed one per UpdateReview call
	reviewErr     error
	ratingResult  *models.Article
	ratingErr     error
	adminResult   *models.Article
	adminErr      error
	listErr       error
	searchErr     error

	// Capture inputs for verification
	createdArticle   *models.Article
	reviewCalls      int
	capturedDecision models.ReviewStatus
	capturedComment  string
	capturedAnalyze  models.AnalyzeStatus
	capturedRating   int
	capturedPatch    *models.ArticlePatch
	capturedCriteria models.SearchCriteria
	searchCalls      int
}

func (m *mockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	m.createdArticle = article
	return m.createErr
}

func (m *mockArticleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.article, nil
}

func (m *mockArticleRepository) ExistsByDOI(ctx context.Context, doi string, excludeID uuid.UUID) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.exists, nil
}

func (m *mockArticleRepository) Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Article, error) {
	m.searchCalls++
	m.capturedCriteria = criteria
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.articles, nil
}

func (m *mockArticleRepository) ListPendingReview(ctx context.Context) ([]*models.Article, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.articles, nil
}

func (m *mockArticleRepository) ListPendingAnalysis(ctx context.Context) ([]*models.Article, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.articles, nil
}

func (m *mockArticleRepository) UpdateReview(ctx context.Context, id uuid.UUID, decision models.ReviewStatus, comment string, analyze models.AnalyzeStatus) (*models.Article, error) {
	m.reviewCalls++
	m.capturedDecision = decision
	m.capturedComment = comment
	m.capturedAnalyze = analyze
	if m.reviewErr != nil {
		return nil, m.reviewErr
	}
	if len(m.reviewResults) == 0 {
		return nil, nil
	}
	result := m.reviewResults[0]
	m.reviewResults = m.reviewResults[1:]
	return result, nil
}

func (m *mockArticleRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating int) (*models.Article, error) {
	m.capturedRating = rating
	if m.ratingErr != nil {
		return nil, m.ratingErr
	}
	return m.ratingResult, nil
}

func (m *mockArticleRepository) AdminUpdate(ctx context.Context, id uuid.UUID, patch *models.ArticlePatch) (*models.Article, error) {
	m.capturedPatch = patch
	if m.adminErr != nil {
		return nil, m.adminErr
	}
	return m.adminResult, nil
}

// mockSavedSearchRepository is a configurable mock for testing SavedSearchService.
type mockSavedSearchRepository struct {
	search    *models.SavedSearch
	searches  []*models.SavedSearch
	deleted   bool
	createErr error
	getErr    error
	listErr   error
	deleteErr error

	capturedSearch *models.SavedSearch
	deleteCalls    int
}

func (m *mockSavedSearchRepository) Create(ctx context.Context, search *models.SavedSearch) error {
	m.capturedSearch = search
	return m.createErr
}

func (m *mockSavedSearchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SavedSearch, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.search, nil
}

func (m *mockSavedSearchRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.SavedSearch, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.searches, nil
}

func (m *mockSavedSearchRepository) DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	m.deleteCalls++
	if m.deleteErr != nil {
		return false, m.deleteErr
	}
	return m.deleted, nil
}

// mockSearchCache records cache traffic; hit serves every Get when set.
type mockSearchCache struct {
	hit        []*models.Article
	generation int64

	gets              int
	sets              int
	invalidates       int
	lastSet           []*models.Article
	lastSetGeneration int64
}

func (m *mockSearchCache) Get(ctx context.Context, criteria models.SearchCriteria) ([]*models.Article, int64, bool) {
	m.gets++
	if m.hit != nil {
		return m.hit, m.generation, true
	}
	return nil, m.generation, false
}

func (m *mockSearchCache) Set(ctx context.Context, criteria models.SearchCriteria, generation int64, articles []*models.Article) {
	m.sets++
	m.lastSetGeneration = generation
	m.lastSet = articles
}

func (m *mockSearchCache) Invalidate(ctx context.Context) {
	m.invalidates++
}
