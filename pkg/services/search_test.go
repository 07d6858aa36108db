package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sebench/evidence-engine/pkg/apperrors"
	"github.com/sebench/evidence-engine/pkg/models"
)

func TestSearch_AppliesDefaults(t *testing.T) {
	repo := &mockArticleRepository{articles: []*models.Article{{ID: uuid.New()}}}
	cache := &mockSearchCache{}
	service := NewSearchService(repo, cache, zap.NewNop())

	got, err := service.Search(context.Background(), models.SearchCriteria{PracticeType: "TDD"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 article, got %d", len(got))
	}

	if repo.capturedCriteria.Sort != models.SortUpdatedAt {
		t.Errorf("expected default sort updatedAt, got %q", repo.capturedCriteria.Sort)
	}
	if repo.capturedCriteria.Order != models.OrderDesc {
		t.Errorf("expected default order desc, got %q", repo.capturedCriteria.Order)
	}
	if repo.capturedCriteria.PracticeType != "TDD" {
		t.Errorf("filter must survive normalization, got %q", repo.capturedCriteria.PracticeType)
	}
}

func TestSearch_RejectsInvalidCriteria(t *testing.T) {
	repo := &mockArticleRepository{}
	service := NewSearchService(repo, &mockSearchCache{}, zap.NewNop())

	cases := []models.SearchCriteria{
		{Sort: "createdAt"},
		{Order: "sideways"},
	}
	for _, criteria := range cases {
		_, err := service.Search(context.Background(), criteria)
		if !errors.Is(err, apperrors.ErrValidation) {
			t.Errorf("criteria %+v: expected validation error, got %v", criteria, err)
		}
	}
	if repo.searchCalls != 0 {
		t.Error("invalid criteria must never reach the store")
	}
}

func TestSearch_ServesFromCache(t *testing.T) {
	cached := []*models.Article{{ID: uuid.New()}}
	repo := &mockArticleRepository{}
	cache := &mockSearchCache{hit: cached}
	service := NewSearchService(repo, cache, zap.NewNop())

	got, err := service.Search(context.Background(), models.SearchCriteria{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 1 || got[0] != cached[0] {
		t.Error("expected the cached result")
	}
	if repo.searchCalls != 0 {
		t.Error("cache hit must not query the store")
	}
}

func TestSearch_PopulatesCacheOnMiss(t *testing.T) {
	results := []*models.Article{{ID: uuid.New()}}
	repo := &mockArticleRepository{articles: results}
	cache := &mockSearchCache{}
	service := NewSearchService(repo, cache, zap.NewNop())

	_, err := service.Search(context.Background(), models.SearchCriteria{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if cache.sets != 1 {
		t.Errorf("expected one cache write, got %d", cache.sets)
	}
	if len(cache.lastSet) != 1 || cache.lastSet[0] != results[0] {
		t.Error("cache must hold the store result")
	}
}

func TestSearch_WritePinsReadGeneration(t *testing.T) {
	// The cache write must carry the generation observed before the store
	// query, not whatever the counter says at write time. That keeps a
	// result computed before a concurrent invalidation from surfacing
	// under the fresh generation.
	repo := &mockArticleRepository{articles: []*models.Article{{ID: uuid.New()}}}
	cache := &mockSearchCache{generation: 7}
	service := NewSearchService(repo, cache, zap.NewNop())

	_, err := service.Search(context.Background(), models.SearchCriteria{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if cache.lastSetGeneration != 7 {
		t.Errorf("expected write under read-time generation 7, got %d", cache.lastSetGeneration)
	}
}

func TestSearch_StoreError(t *testing.T) {
	repo := &mockArticleRepository{searchErr: errors.New("connection reset")}
	cache := &mockSearchCache{}
	service := NewSearchService(repo, cache, zap.NewNop())

	_, err := service.Search(context.Background(), models.SearchCriteria{})
	if err == nil {
		t.Fatal("expected store error to surface")
	}
	if cache.sets != 0 {
		t.Error("errors must not be cached")
	}
}
