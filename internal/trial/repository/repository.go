package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories bundles the trial repositories.
type Repositories struct {
	Request   *RequestRepository
	Audit     *AuditRepository
	Reference *ReferenceRepository
}

// NewRepositories creates the trial repository bundle.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Request:   NewRequestRepository(db),
		Audit:     NewAuditRepository(db),
		Reference: NewReferenceRepository(db),
	}
}
