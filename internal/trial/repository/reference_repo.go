package repository

import (
	"context"

	"github.com/aarnav1729/sample-trials/internal/trial/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferenceRepository manages the open reference-value sets.
type ReferenceRepository struct {
	db *gorm.DB
}

func NewReferenceRepository(db *gorm.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// Register adds a value to a set using the given transaction handle.
// Registering an existing value is a no-op; the sets behave as sets.
func (r *ReferenceRepository) Register(ctx context.Context, tx *gorm.DB, kind, value string) error {
	rv := &entity.ReferenceValue{
		ID:    uuid.New().String()[:32],
		Kind:  kind,
		Value: value,
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rv).Error
}

// List returns the values of one set, alphabetically.
func (r *ReferenceRepository) List(ctx context.Context, kind string) ([]string, error) {
	var values []string
	err := r.db.WithContext(ctx).
		Model(&entity.ReferenceValue{}).
		Where("kind = ?", kind).
		Order("value ASC").
		Pluck("value", &values).Error
	return values, err
}

// Seed registers a batch of default values, skipping existing ones.
func (r *ReferenceRepository) Seed(ctx context.Context, kind string, values []string) error {
	for _, v := range values {
		if err := r.Register(ctx, r.db, kind, v); err != nil {
			return err
		}
	}
	return nil
}
