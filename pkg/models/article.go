package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sebench/evidence-engine/pkg/apperrors"
)

// Review status values for an article.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"  // awaiting moderator decision
	ReviewApproved ReviewStatus = "approved" // admitted to the corpus
	ReviewRejected ReviewStatus = "rejected" // kept for the record, never served
)

// Analyze status values for an article.
type AnalyzeStatus string

const (
	AnalyzePending   AnalyzeStatus = "pending"
	AnalyzeCompleted AnalyzeStatus = "completed"
	AnalyzeSkipped   AnalyzeStatus = "skipped"
)

// DefaultReviewComment is the placeholder set on submission. It names the
// three checks a moderator is expected to address in the review comment.
const DefaultReviewComment = "Awaiting moderator review (required checks: not a duplicate, empirical SE relevance, peer-reviewed source)"

const (
	MinYear             = 1900
	MinRating           = 1
	MaxRating           = 5
	MinReviewCommentLen = 10
)

// Article is a submitted evidence record describing a software-engineering
// practice claim and its supporting result. Stored in the articles table.
type Article struct {
	ID             uuid.UUID     `json:"id"`
	Title          string        `json:"title"`
	Authors        string        `json:"authors"`
	Year           int           `json:"year"`
	PracticeType   string        `json:"practiceType"`
	Claim          string        `json:"claim"`
	EvidenceResult string        `json:"evidenceResult"`
	DOI            string        `json:"doi"`
	ReviewStatus   ReviewStatus  `json:"reviewStatus"`
	ReviewComment  string        `json:"reviewComment"`
	AnalyzeStatus  AnalyzeStatus `json:"analyzeStatus"`
	Rating         *int          `json:"rating"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// IsValidReviewStatus checks membership in the review status enum.
func IsValidReviewStatus(s ReviewStatus) bool {
	return s == ReviewPending || s == ReviewApproved || s == ReviewRejected
}

// IsValidAnalyzeStatus checks membership in the analyze status enum.
func IsValidAnalyzeStatus(s AnalyzeStatus) bool {
	return s == AnalyzePending || s == AnalyzeCompleted || s == AnalyzeSkipped
}

// IsReviewDecision reports whether s is a legal review decision. Pending is
// a valid stored status but not a decision a moderator may hand down.
func IsReviewDecision(s ReviewStatus) bool {
	return s == ReviewApproved || s == ReviewRejected
}

// DerivedAnalyzeStatus returns the analyze status implied by a review
// decision: approved articles enter the analysis queue, rejected ones skip it.
func DerivedAnalyzeStatus(decision ReviewStatus) AnalyzeStatus {
	if decision == ReviewApproved {
		return AnalyzePending
	}
	return AnalyzeSkipped
}

// ValidateNew checks all fields required at submission time. The review
// lifecycle fields are not checked here; the submission path assigns them.
func (a *Article) ValidateNew() error {
	if strings.TrimSpace(a.Title) == "" {
		return apperrors.Validation("title", "must not be empty")
	}
	if strings.TrimSpace(a.Authors) == "" {
		return apperrors.Validation("authors", "must not be empty")
	}
	if err := ValidateYear(a.Year); err != nil {
		return err
	}
	if strings.TrimSpace(a.PracticeType) == "" {
		return apperrors.Validation("practiceType", "must not be empty")
	}
	if strings.TrimSpace(a.Claim) == "" {
		return apperrors.Validation("claim", "must not be empty")
	}
	if strings.TrimSpace(a.EvidenceResult) == "" {
		return apperrors.Validation("evidenceResult", "must not be empty")
	}
	if strings.TrimSpace(a.DOI) == "" {
		return apperrors.Validation("doi", "must not be empty")
	}
	return nil
}

// ValidateYear checks the publication year range. The upper bound is the
// current calendar year, evaluated at validation time.
func ValidateYear(year int) error {
	if year < MinYear {
		return apperrors.Validation("year", "must not be earlier than %d", MinYear)
	}
	if now := time.Now().Year(); year > now {
		return apperrors.Validation("year", "must not be later than %d", now)
	}
	return nil
}

// ValidateRating checks the 1..5 rating range.
func ValidateRating(value int) error {
	if value < MinRating || value > MaxRating {
		return apperrors.Validation("rating", "must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}

// ValidateReviewComment checks the moderator comment. Length is the only
// mechanical check; addressing the three review checks is a documented
// expectation, not something we can verify here.
func ValidateReviewComment(comment string) error {
	if len(strings.TrimSpace(comment)) < MinReviewCommentLen {
		return apperrors.Validation("comment", "must be at least %d characters", MinReviewCommentLen)
	}
	return nil
}
