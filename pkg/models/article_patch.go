package models

import (
	"strings"

	"github.com/sebench/evidence-engine/pkg/apperrors"
)

// ArticlePatch carries the fields an admin override may set. Every field is
// optional; only non-nil fields are applied. The patch bypasses the review
// workflow entirely, so it can move an article out of a terminal state —
// note that it does NOT derive analyzeStatus when reviewStatus changes.
type ArticlePatch struct {
	Title          *string        `json:"title,omitempty"`
	Authors        *string        `json:"authors,omitempty"`
	Year           *int           `json:"year,omitempty"`
	PracticeType   *string        `json:"practiceType,omitempty"`
	Claim          *string        `json:"claim,omitempty"`
	EvidenceResult *string        `json:"evidenceResult,omitempty"`
	DOI            *string        `json:"doi,omitempty"`
	ReviewStatus   *ReviewStatus  `json:"reviewStatus,omitempty"`
	ReviewComment  *string        `json:"reviewComment,omitempty"`
	AnalyzeStatus  *AnalyzeStatus `json:"analyzeStatus,omitempty"`
	Rating         *int           `json:"rating,omitempty"`
}

// IsEmpty reports whether the patch sets no fields at all.
func (p *ArticlePatch) IsEmpty() bool {
	return p.Title == nil && p.Authors == nil && p.Year == nil &&
		p.PracticeType == nil && p.Claim == nil && p.EvidenceResult == nil &&
		p.DOI == nil && p.ReviewStatus == nil && p.ReviewComment == nil &&
		p.AnalyzeStatus == nil && p.Rating == nil
}

// Validate applies the same primitive field checks as submission to every
// supplied field: non-empty text, year range, rating range, enum membership.
func (p *ArticlePatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return apperrors.Validation("title", "must not be empty")
	}
	if p.Authors != nil && strings.TrimSpace(*p.Authors) == "" {
		return apperrors.Validation("authors", "must not be empty")
	}
	if p.Year != nil {
		if err := ValidateYear(*p.Year); err != nil {
			return err
		}
	}
	if p.PracticeType != nil && strings.TrimSpace(*p.PracticeType) == "" {
		return apperrors.Validation("practiceType", "must not be empty")
	}
	if p.Claim != nil && strings.TrimSpace(*p.Claim) == "" {
		return apperrors.Validation("claim", "must not be empty")
	}
	if p.EvidenceResult != nil && strings.TrimSpace(*p.EvidenceResult) == "" {
		return apperrors.Validation("evidenceResult", "must not be empty")
	}
	if p.DOI != nil && strings.TrimSpace(*p.DOI) == "" {
		return apperrors.Validation("doi", "must not be empty")
	}
	if p.ReviewStatus != nil && !IsValidReviewStatus(*p.ReviewStatus) {
		return apperrors.Validation("reviewStatus", "must be one of pending, approved, rejected")
	}
	if p.ReviewComment != nil && strings.TrimSpace(*p.ReviewComment) == "" {
		return apperrors.Validation("reviewComment", "must not be empty")
	}
	if p.AnalyzeStatus != nil && !IsValidAnalyzeStatus(*p.AnalyzeStatus) {
		return apperrors.Validation("analyzeStatus", "must be one of pending, completed, skipped")
	}
	if p.Rating != nil {
		if err := ValidateRating(*p.Rating); err != nil {
			return err
		}
	}
	return nil
}
