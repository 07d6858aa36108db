package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sebench/evidence-engine/pkg/apperrors"
	"github.com/sebench/evidence-engine/pkg/models"
	"github.com/sebench/evidence-engine/pkg/repositories"
)

// SavedSearchService manages per-user saved search criteria: snapshots are
// saved, listed, deleted, and replayed only by their owner.
type SavedSearchService interface {
	Save(ctx context.Context, ownerID uuid.UUID, name string, criteria models.SearchCriteria) (*models.SavedSearch, error)
	ListOwned(ctx context.Context, ownerID uuid.UUID) ([]*models.SavedSearch, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) error

	// Rerun returns the stored search unchanged for the caller to replay.
	// It does not execute the search; the stored criteria come back exactly
	// as saved, with no defaults applied.
	Rerun(ctx context.Context, id, ownerID uuid.UUID) (*models.SavedSearch, error)
}

// savedSearchService implements SavedSearchService.
type savedSearchService struct {
	savedSearchRepo repositories.SavedSearchRepository
	logger          *zap.Logger
}

// NewSavedSearchService creates a new saved search service with dependencies.
func NewSavedSearchService(savedSearchRepo repositories.SavedSearchRepository, logger *zap.Logger) SavedSearchService {
	return &savedSearchService{
		savedSearchRepo: savedSearchRepo,
		logger:          logger,
	}
}

func (s *savedSearchService) Save(ctx context.Context, ownerID uuid.UUID, name string, criteria models.SearchCriteria) (*models.SavedSearch, error) {
	search := &models.SavedSearch{
		OwnerID:  ownerID,
		Name:     name,
		Criteria: criteria,
	}

	if err := search.ValidateNew(); err != nil {
		return nil, err
	}

	if err := s.savedSearchRepo.Create(ctx, search); err != nil {
		return nil, err
	}

	s.logger.Info("Search saved",
		zap.String("saved_search_id", search.ID.String()),
		zap.String("owner_id", ownerID.String()))

	return search, nil
}

func (s *savedSearchService) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]*models.SavedSearch, error) {
	return s.savedSearchRepo.ListByOwner(ctx, ownerID)
}

func (s *savedSearchService) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	deleted, err := s.savedSearchRepo.DeleteOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if deleted {
		return nil
	}

	// Nothing matched: missing row or another user's row. Re-read to
	// report the right failure.
	if _, err := s.savedSearchRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return apperrors.Forbidden("saved search belongs to another user")
}

func (s *savedSearchService) Rerun(ctx context.Context, id, ownerID uuid.UUID) (*models.SavedSearch, error) {
	search, err := s.savedSearchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if search.OwnerID != ownerID {
		return nil, apperrors.Forbidden("saved search belongs to another user")
	}

	return search, nil
}

// Ensure savedSearchService implements SavedSearchService at compile time.
var _ SavedSearchService = (*savedSearchService)(nil)
