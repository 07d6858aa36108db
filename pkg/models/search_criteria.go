package models

import (
	"time"

	"github.com/sebench/evidence-engine/pkg/apperrors"
)

// Sort keys accepted by the search endpoint. The set is closed; anything
// else fails validation before a query is built.
const (
	SortTitle     = "title"
	SortYear      = "year"
	SortRating    = "rating"
	SortUpdatedAt = "updatedAt"
)

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// SearchCriteria is the single criteria contract shared by the live search
// path and the saved-search store. Keeping one type prevents the two from
// drifting apart when the search schema changes.
type SearchCriteria struct {
	PracticeType string `json:"practiceType,omitempty"`
	Claim        string `json:"claim,omitempty"`
	YearStart    int    `json:"yearStart,omitempty"`
	YearEnd      int    `json:"yearEnd,omitempty"`
	Sort         string `json:"sort,omitempty"`
	Order        string `json:"order,omitempty"`
}

// IsValidSortKey checks membership in the sort key enum.
func IsValidSortKey(sort string) bool {
	switch sort {
	case SortTitle, SortYear, SortRating, SortUpdatedAt:
		return true
	}
	return false
}

// IsValidOrder checks membership in the order enum.
func IsValidOrder(order string) bool {
	return order == OrderAsc || order == OrderDesc
}

// Validate checks the criteria fields. Absent sort/order are legal (defaults
// apply at execution time); present but unknown values are rejected rather
// than clamped.
func (c SearchCriteria) Validate() error {
	if c.YearStart != 0 && c.YearStart < MinYear {
		return apperrors.Validation("yearStart", "must not be earlier than %d", MinYear)
	}
	if c.YearEnd != 0 {
		if now := time.Now().Year(); c.YearEnd > now {
			return apperrors.Validation("yearEnd", "must not be later than %d", now)
		}
	}
	// An inverted range (yearStart > yearEnd) is legal; it simply matches
	// nothing, since the bounds apply as independent predicates.
	if c.Sort != "" && !IsValidSortKey(c.Sort) {
		return apperrors.Validation("sort", "must be one of title, year, rating, updatedAt")
	}
	if c.Order != "" && !IsValidOrder(c.Order) {
		return apperrors.Validation("order", "must be asc or desc")
	}
	return nil
}

// Normalized returns a copy with the execution-time defaults applied:
// sort updatedAt, order desc. Stored saved-search criteria are never
// normalized so replay returns them exactly as saved.
func (c SearchCriteria) Normalized() SearchCriteria {
	if c.Sort == "" {
		c.Sort = SortUpdatedAt
	}
	if c.Order == "" {
		c.Order = OrderDesc
	}
	return c
}
