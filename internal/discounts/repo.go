package discounts

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sliceline/sliceline-backend/pkg/db/models"
)

// Repository defines persistence operations for discount codes and usage.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error)
	CountUsageByUser(ctx context.Context, codeID uuid.UUID, userID uuid.UUID) (int64, error)
	// ConsumeUsage bumps total_used_count only while under the total limit.
	// Returns false when the conditional update matched no row.
	ConsumeUsage(ctx context.Context, codeID uuid.UUID) (bool, error)
	CreateUsage(ctx context.Context, usage *models.DiscountUsage) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a discounts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var discount models.DiscountCode
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&discount).Error
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	var discount models.DiscountCode
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&discount).Error
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

func (r *repository) CountUsageByUser(ctx context.Context, codeID uuid.UUID, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DiscountUsage{}).
		Where("discount_code_id = ? AND user_id = ?", codeID, userID).
		Count(&count).Error
	return count, err
}

func (r *repository) ConsumeUsage(ctx context.Context, codeID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("id = ? AND (total_usage_limit IS NULL OR total_used_count < total_usage_limit)", codeID).
		UpdateColumn("total_used_count", gorm.Expr("total_used_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) CreateUsage(ctx context.Context, usage *models.DiscountUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}
