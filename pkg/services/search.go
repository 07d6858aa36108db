package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/sebench/evidence-engine/pkg/models"
	"github.com/sebench/evidence-engine/pkg/repositories"
)

// SearchService executes criteria-driven searches over approved articles.
type SearchService interface {
	// Search validates the criteria, applies sort/order defaults, and
	// returns matching approved articles. Results pass through the cache
	// when one is configured.
	Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Article, error)
}

// searchService implements SearchService.
type searchService struct {
	articleRepo repositories.ArticleRepository
	cache       SearchCache
	logger      *zap.Logger
}

// NewSearchService creates a new search service with dependencies.
func NewSearchService(articleRepo repositories.ArticleRepository, cache SearchCache, logger *zap.Logger) SearchService {
	return &searchService{
		articleRepo: articleRepo,
		cache:       cache,
		logger:      logger,
	}
}

func (s *searchService) Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Article, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	normalized := criteria.Normalized()

	// The generation observed before the store query pins the cache write:
	// if a mutation invalidates between store read and cache write, the
	// write lands under the old generation and is never served.
	cached, gen, ok := s.cache.Get(ctx, normalized)
	if ok {
		return cached, nil
	}

	articles, err := s.articleRepo.Search(ctx, normalized)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, normalized, gen, articles)
	return articles, nil
}

// Ensure searchService implements SearchService at compile time.
var _ SearchService = (*searchService)(nil)
