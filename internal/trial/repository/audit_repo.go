package repository

import (
	"context"

	"github.com/aarnav1729/sample-trials/internal/trial/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRepository appends and reads the per-request audit trail.
// There are deliberately no update or delete methods; entries are
// immutable once committed.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append inserts one entry using the given transaction handle, assigning
// the next per-request sequence number. Must only be called by the command
// layer inside the same transaction as the state change it records.
func (r *AuditRepository) Append(ctx context.Context, tx *gorm.DB, e *entity.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()[:32]
	}

	var maxSeq int
	err := tx.WithContext(ctx).
		Model(&entity.AuditEntry{}).
		Select("COALESCE(MAX(seq), 0)").
		Where("request_id = ?", e.RequestID).
		Scan(&maxSeq).Error
	if err != nil {
		return err
	}
	e.Seq = maxSeq + 1

	return tx.WithContext(ctx).Create(e).Error
}

// FindByRequestID returns the full trail in insertion order. Display
// layers may re-sort; stored order is never changed.
func (r *AuditRepository) FindByRequestID(ctx context.Context, requestID string) ([]entity.AuditEntry, error) {
	var entries []entity.AuditEntry
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("seq ASC").
		Find(&entries).Error
	return entries, err
}

// CountByRequestID returns the trail length for a request.
func (r *AuditRepository) CountByRequestID(ctx context.Context, requestID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&entity.AuditEntry{}).
		Where("request_id = ?", requestID).
		Count(&total).Error
	return total, err
}
