package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aarnav1729/sample-trials/internal/trial/entity"
	"gorm.io/gorm"
)

// RequestRepository persists material trial requests.
type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// FindAll lists requests with optional filters and pagination.
func (r *RequestRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.MaterialRequest, int64, error) {
	var items []entity.MaterialRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.MaterialRequest{})

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if plant := filters["plant"]; plant != "" {
		query = query.Where("plant = ?", plant)
	}
	if requestedBy := filters["requested_by"]; requestedBy != "" {
		query = query.Where("requested_by = ?", requestedBy)
	}
	if category := filters["material_category"]; category != "" {
		query = query.Where("material_category = ?", category)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("code ILIKE ? OR supplier_name ILIKE ? OR material_details ILIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID looks up one request.
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*entity.MaterialRequest, error) {
	var req entity.MaterialRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// Create inserts a request using the given transaction handle.
func (r *RequestRepository) Create(ctx context.Context, tx *gorm.DB, req *entity.MaterialRequest) error {
	return tx.WithContext(ctx).Create(req).Error
}

// Save writes back a mutated request using the given transaction handle.
func (r *RequestRepository) Save(ctx context.Context, tx *gorm.DB, req *entity.MaterialRequest) error {
	return tx.WithContext(ctx).Save(req).Error
}

// GenerateCode produces the next request code, MTR-{year}-{4 digits}.
func (r *RequestRepository) GenerateCode(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("MTR-%s-", year)

	var maxCode string
	err := r.db.WithContext(ctx).
		Model(&entity.MaterialRequest{}).
		Select("COALESCE(MAX(code), '')").
		Where("code LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "MTR-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("MTR-%s-%04d", year, seq), nil
}
