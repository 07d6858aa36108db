package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sebench/evidence-engine/pkg/apperrors"
)

const (
	MinSavedSearchNameLen = 2
	MaxSavedSearchNameLen = 50
)

// SavedSearch is a named, owner-scoped snapshot of search criteria.
// Records are immutable after creation; replay hands the criteria back
// without executing them. Stored in the saved_searches table.
type SavedSearch struct {
	ID       uuid.UUID      `json:"id"`
	OwnerID  uuid.UUID      `json:"ownerId"`
	Name     string         `json:"name"`
	Criteria SearchCriteria `json:"searchCriteria"`
	SavedAt  time.Time      `json:"savedAt"`
}

// ValidateNew checks the fields supplied on save. No duplicate-name
// constraint exists; a user may save the same name twice.
func (s *SavedSearch) ValidateNew() error {
	name := strings.TrimSpace(s.Name)
	if len(name) < MinSavedSearchNameLen {
		return apperrors.Validation("name", "must be at least %d characters", MinSavedSearchNameLen)
	}
	if len(name) > MaxSavedSearchNameLen {
		return apperrors.Validation("name", "must be at most %d characters", MaxSavedSearchNameLen)
	}
	return s.Criteria.Validate()
}
