package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sebench/evidence-engine/pkg/apperrors"
	"github.com/sebench/evidence-engine/pkg/database"
	"github.com/sebench/evidence-engine/pkg/models"
)

// ArticleRepository provides data access for evidence articles.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Article, error)
	// ExistsByDOI reports whether any article other than excludeID holds the
	// DOI. Pass uuid.Nil to check against the whole table.
	ExistsByDOI(ctx context.Context, doi string, excludeID uuid.UUID) (bool, error)
	// Search returns approved articles matching the criteria. The criteria
	// must already be normalized (sort/order defaults applied).
	Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Article, error)
	ListPendingReview(ctx context.Context) ([]*models.Article, error)
	ListPendingAnalysis(ctx context.Context) ([]*models.Article, error)
	// UpdateReview applies a review decision only if the article is still
	// pending (conditional update). Returns nil, nil when no pending row
	// matched; the caller decides between NotFound and InvalidState.
	UpdateReview(ctx context.Context, id uuid.UUID, decision models.ReviewStatus, comment string, analyze models.AnalyzeStatus) (*models.Article, error)
	// UpdateRating sets the rating only while the article is approved,
	// re-validated in the UPDATE predicate. Returns nil, nil when no
	// approved row matched.
	UpdateRating(ctx context.Context, id uuid.UUID, rating int) (*models.Article, error)
	// AdminUpdate applies the non-nil patch fields directly, bypassing the
	// workflow. Returns ErrNotFound when the article does not exist.
	AdminUpdate(ctx context.Context, id uuid.UUID, patch *models.ArticlePatch) (*models.Article, error)
}

type articleRepository struct {
	db *database.DB
}

// NewArticleRepository creates a new ArticleRepository backed by the pool.
func NewArticleRepository(db *database.DB) ArticleRepository {
	return &articleRepository{db: db}
}

var _ ArticleRepository = (*articleRepository)(nil)

const articleColumns = `id, title, authors, year, practice_type, claim, evidence_result,
	       doi, review_status, review_comment, analyze_status, rating,
	       created_at, updated_at`

// ============================================================================
// Writes
// ============================================================================

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	now := time.Now()

	query := `
		INSERT INTO articles (
			title, authors, year, practice_type, claim, evidence_result,
			doi, review_status, review_comment, analyze_status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		article.Title,
		article.Authors,
		article.Year,
		article.PracticeType,
		article.Claim,
		article.EvidenceResult,
		article.DOI,
		article.ReviewStatus,
		article.ReviewComment,
		article.AnalyzeStatus,
		now,
		now,
	).Scan(&article.ID, &article.CreatedAt, &article.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create article: %w", err)
	}

	return nil
}

func (r *articleRepository) UpdateReview(ctx context.Context, id uuid.UUID, decision models.ReviewStatus, comment string, analyze models.AnalyzeStatus) (*models.Article, error) {
	query := `
		UPDATE articles
		SET review_status = $2, review_comment = $3, analyze_status = $4,
		    updated_at = $5
		WHERE id = $1 AND review_status = 'pending'
		RETURNING ` + articleColumns

	row := r.db.QueryRow(ctx, query, id, decision, comment, analyze, time.Now())
	article, err := scanArticle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // no pending row matched
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	return article, nil
}

func (r *articleRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating int) (*models.Article, error) {
	query := `
		UPDATE articles
		SET rating = $2, updated_at = $3
		WHERE id = $1 AND review_status = 'approved'
		RETURNING ` + articleColumns

	row := r.db.QueryRow(ctx, query, id, rating, time.Now())
	article, err := scanArticle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // no approved row matched
		}
		return nil, fmt.Errorf("failed to update rating: %w", err)
	}

	return article, nil
}

func (r *articleRepository) AdminUpdate(ctx context.Context, id uuid.UUID, patch *models.ArticlePatch) (*models.Article, error) {
	setClauses := []string{}
	args := []any{id}

	addSet := func(column string, value any) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		addSet("title", *patch.Title)
	}
	if patch.Authors != nil {
		addSet("authors", *patch.Authors)
	}
	if patch.Year != nil {
		addSet("year", *patch.Year)
	}
	if patch.PracticeType != nil {
		addSet("practice_type", *patch.PracticeType)
	}
	if patch.Claim != nil {
		addSet("claim", *patch.Claim)
	}
	if patch.EvidenceResult != nil {
		addSet("evidence_result", *patch.EvidenceResult)
	}
	if patch.DOI != nil {
		addSet("doi", *patch.DOI)
	}
	if patch.ReviewStatus != nil {
		addSet("review_status", *patch.ReviewStatus)
	}
	if patch.ReviewComment != nil {
		addSet("review_comment", *patch.ReviewComment)
	}
	if patch.AnalyzeStatus != nil {
		addSet("analyze_status", *patch.AnalyzeStatus)
	}
	if patch.Rating != nil {
		addSet("rating", *patch.Rating)
	}
	addSet("updated_at", time.Now())

	query := fmt.Sprintf(`
		UPDATE articles
		SET %s
		WHERE id = $1
		RETURNING `+articleColumns, strings.Join(setClauses, ", "))

	row := r.db.QueryRow(ctx, query, args...)
	article, err := scanArticle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, apperrors.ErrConflict
		}
		return nil, fmt.Errorf("failed to apply admin update: %w", err)
	}

	return article, nil
}

// ============================================================================
// Reads
// ============================================================================

func (r *articleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	article, err := scanArticle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return article, nil
}

func (r *articleRepository) ExistsByDOI(ctx context.Context, doi string, excludeID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM articles WHERE doi = $1 AND id <> $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, doi, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check doi: %w", err)
	}

	return exists, nil
}

func (r *articleRepository) ListPendingReview(ctx context.Context) ([]*models.Article, error) {
	query := `SELECT ` + articleColumns + `
		FROM articles
		WHERE review_status = 'pending'
		ORDER BY created_at DESC`

	return r.queryArticles(ctx, query)
}

func (r *articleRepository) ListPendingAnalysis(ctx context.Context) ([]*models.Article, error) {
	query := `SELECT ` + articleColumns + `
		FROM articles
		WHERE review_status = 'approved' AND analyze_status = 'pending'
		ORDER BY updated_at DESC`

	return r.queryArticles(ctx, query)
}

// sortColumns whitelists the sortable columns; criteria validation already
// rejected anything else, this map is the only place criteria text reaches SQL.
var sortColumns = map[string]string{
	models.SortTitle:     "title",
	models.SortYear:      "year",
	models.SortRating:    "rating",
	models.SortUpdatedAt: "updated_at",
}

func (r *articleRepository) Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Article, error) {
	conditions := []string{"review_status = 'approved'"}
	args := []any{}

	addCondition := func(expr string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(expr, len(args)))
	}

	if criteria.PracticeType != "" {
		addCondition("practice_type = $%d", criteria.PracticeType)
	}
	if criteria.Claim != "" {
		addCondition("claim ILIKE $%d", "%"+escapeLike(criteria.Claim)+"%")
	}
	if criteria.YearStart != 0 {
		addCondition("year >= $%d", criteria.YearStart)
	}
	if criteria.YearEnd != 0 {
		addCondition("year <= $%d", criteria.YearEnd)
	}

	column, ok := sortColumns[criteria.Sort]
	if !ok {
		return nil, apperrors.Validation("sort", "unsupported sort key %q", criteria.Sort)
	}
	direction := "DESC"
	if criteria.Order == models.OrderAsc {
		direction = "ASC"
	}

	// Unrated articles sort last in both directions; id breaks ties so
	// pagination-free results stay deterministic.
	orderBy := fmt.Sprintf("%s %s, id ASC", column, direction)
	if column == "rating" {
		orderBy = fmt.Sprintf("rating %s NULLS LAST, id ASC", direction)
	}

	query := fmt.Sprintf(`SELECT `+articleColumns+`
		FROM articles
		WHERE %s
		ORDER BY %s`, strings.Join(conditions, " AND "), orderBy)

	return r.queryArticles(ctx, query, args...)
}

// ============================================================================
// Helper Functions
// ============================================================================

func (r *articleRepository) queryArticles(ctx context.Context, query string, args ...any) ([]*models.Article, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	articles := []*models.Article{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating articles: %w", err)
	}

	return articles, nil
}

func scanArticle(row pgx.Row) (*models.Article, error) {
	var a models.Article

	err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Authors,
		&a.Year,
		&a.PracticeType,
		&a.Claim,
		&a.EvidenceResult,
		&a.DOI,
		&a.ReviewStatus,
		&a.ReviewComment,
		&a.AnalyzeStatus,
		&a.Rating,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan article: %w", err)
	}

	return &a, nil
}

// escapeLike escapes LIKE/ILIKE metacharacters in user-supplied substrings.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// isUniqueViolation reports whether err is a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
