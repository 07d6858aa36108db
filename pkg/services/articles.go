package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sebench/evidence-engine/pkg/apperrors"
	"github.com/sebench/evidence-engine/pkg/models"
	"github.com/sebench/evidence-engine/pkg/repositories"
)

// ArticleService defines the article workflow operations: submission,
// moderator review, rating, the two triage lists, and the admin override.
type ArticleService interface {
	// Submit validates and stores a new article in the initial workflow
	// state (review pending, analysis skipped, no rating).
	Submit(ctx context.Context, article *models.Article) (*models.Article, error)

	// Review applies a moderator decision to a pending article. The
	// transition is one-shot: approved and rejected are terminal for this
	// path, and analyze status is derived from the decision.
	Review(ctx context.Context, id uuid.UUID, decision models.ReviewStatus, comment string) (*models.Article, error)

	// Rate sets the rating of an approved article, overwriting any
	// previous value.
	Rate(ctx context.Context, id uuid.UUID, rating int) (*models.Article, error)

	ListPendingReview(ctx context.Context) ([]*models.Article, error)
	ListPendingAnalysis(ctx context.Context) ([]*models.Article, error)

	// AdminUpdate applies a field-level patch directly, bypassing the
	// workflow. DOI uniqueness and primitive validation still hold; nothing
	// is derived on the admin path.
	AdminUpdate(ctx context.Context, id uuid.UUID, patch *models.ArticlePatch) (*models.Article, error)
}

// articleService implements ArticleService.
type articleService struct {
	articleRepo repositories.ArticleRepository
	cache       SearchCache
	logger      *zap.Logger
}

// NewArticleService creates a new article service with dependencies.
func NewArticleService(articleRepo repositories.ArticleRepository, cache SearchCache, logger *zap.Logger) ArticleService {
	return &articleService{
		articleRepo: articleRepo,
		cache:       cache,
		logger:      logger,
	}
}

func (s *articleService) Submit(ctx context.Context, article *models.Article) (*models.Article, error) {
	if err := article.ValidateNew(); err != nil {
		return nil, err
	}

	exists, err := s.articleRepo.ExistsByDOI(ctx, article.DOI, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("doi %s already registered: %w", article.DOI, apperrors.ErrConflict)
	}

	article.ReviewStatus = models.ReviewPending
	article.ReviewComment = models.DefaultReviewComment
	article.AnalyzeStatus = models.AnalyzeSkipped
	article.Rating = nil

	// The unique index still backstops the probe above under concurrent
	// submissions; Create maps the violation to Conflict.
	if err := s.articleRepo.Create(ctx, article); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("Article submitted",
		zap.String("article_id", article.ID.String()),
		zap.String("doi", article.DOI))

	return article, nil
}

func (s *articleService) Review(ctx context.Context, id uuid.UUID, decision models.ReviewStatus, comment string) (*models.Article, error) {
	if !models.IsReviewDecision(decision) {
		return nil, apperrors.Validation("status", "must be approved or rejected")
	}
	if err := models.ValidateReviewComment(comment); err != nil {
		return nil, err
	}

	analyze := models.DerivedAnalyzeStatus(decision)

	article, err := s.articleRepo.UpdateReview(ctx, id, decision, comment, analyze)
	if err != nil {
		return nil, err
	}
	if article == nil {
		// The conditional update matched nothing: the article is missing
		// or no longer pending. Re-read once to tell the two apart; a
		// still-pending row means the miss was transient, so try once more.
		current, err := s.articleRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.ReviewStatus != models.ReviewPending {
			return nil, apperrors.InvalidState("article already reviewed, state=%s", current.ReviewStatus)
		}

		article, err = s.articleRepo.UpdateReview(ctx, id, decision, comment, analyze)
		if err != nil {
			return nil, err
		}
		if article == nil {
			current, err = s.articleRepo.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if current.ReviewStatus == models.ReviewPending {
				// The retry also lost its race and the row reads pending
				// again, so another moderator's decision is in flight.
				return nil, apperrors.InvalidState("concurrent review in progress, please retry")
			}
			return nil, apperrors.InvalidState("article already reviewed, state=%s", current.ReviewStatus)
		}
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("Article reviewed",
		zap.String("article_id", id.String()),
		zap.String("decision", string(decision)))

	return article, nil
}

func (s *articleService) Rate(ctx context.Context, id uuid.UUID, rating int) (*models.Article, error) {
	if err := models.ValidateRating(rating); err != nil {
		return nil, err
	}

	article, err := s.articleRepo.UpdateRating(ctx, id, rating)
	if err != nil {
		return nil, err
	}
	if article == nil {
		// Missing or not approved; re-read to tell the two apart.
		if _, err := s.articleRepo.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperrors.Forbidden("only approved articles may be rated")
	}

	s.cache.Invalidate(ctx)
	return article, nil
}

func (s *articleService) ListPendingReview(ctx context.Context) ([]*models.Article, error) {
	return s.articleRepo.ListPendingReview(ctx)
}

func (s *articleService) ListPendingAnalysis(ctx context.Context) ([]*models.Article, error) {
	return s.articleRepo.ListPendingAnalysis(ctx)
}

func (s *articleService) AdminUpdate(ctx context.Context, id uuid.UUID, patch *models.ArticlePatch) (*models.Article, error) {
	if patch.IsEmpty() {
		return nil, apperrors.Validation("patch", "must set at least one field")
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	if patch.DOI != nil {
		exists, err := s.articleRepo.ExistsByDOI(ctx, *patch.DOI, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("doi %s already registered: %w", *patch.DOI, apperrors.ErrConflict)
		}
	}

	article, err := s.articleRepo.AdminUpdate(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("Article updated via admin override",
		zap.String("article_id", id.String()))

	return article, nil
}

// Ensure articleService implements ArticleService at compile time.
var _ ArticleService = (*articleService)(nil)
