package zones

import (
	"context"

	"gorm.io/gorm"

	"github.com/sliceline/sliceline-backend/pkg/db/models"
)

// Repository defines persistence operations for delivery zones.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActive(ctx context.Context) ([]models.DeliveryZone, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a zones repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListActive(ctx context.Context) ([]models.DeliveryZone, error) {
	var zones []models.DeliveryZone
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("priority DESC, id ASC").
		Find(&zones).Error
	if err != nil {
		return nil, err
	}
	return zones, nil
}
