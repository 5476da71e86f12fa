package stock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sliceline/sliceline-backend/pkg/db/models"
)

// Repository defines persistence operations for tracked stock.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindItemByID(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	// DecrementStock is the atomic reserve: the update only matches while
	// enough stock remains, so racing callers cannot drive it negative.
	DecrementStock(ctx context.Context, itemID uuid.UUID, qty int) (bool, error)
	IncrementStock(ctx context.Context, itemID uuid.UUID, qty int) error
	SetStock(ctx context.Context, itemID uuid.UUID, qty int) error
	CurrentStock(ctx context.Context, itemID uuid.UUID) (int, error)
	CreateHistory(ctx context.Context, row *models.StockHistory) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a stock repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindItemByID(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) DecrementStock(ctx context.Context, itemID uuid.UUID, qty int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Where("id = ? AND stock_tracked = ? AND current_stock >= ?", itemID, true, qty).
		UpdateColumn("current_stock", gorm.Expr("current_stock - ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) IncrementStock(ctx context.Context, itemID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Where("id = ? AND stock_tracked = ?", itemID, true).
		UpdateColumn("current_stock", gorm.Expr("COALESCE(current_stock, 0) + ?", qty)).Error
}

func (r *repository) SetStock(ctx context.Context, itemID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Where("id = ? AND stock_tracked = ?", itemID, true).
		UpdateColumn("current_stock", qty).Error
}

func (r *repository) CurrentStock(ctx context.Context, itemID uuid.UUID) (int, error) {
	var item models.MenuItem
	err := r.db.WithContext(ctx).
		Select("current_stock").
		Where("id = ?", itemID).
		First(&item).Error
	if err != nil {
		return 0, err
	}
	if item.CurrentStock == nil {
		return 0, nil
	}
	return *item.CurrentStock, nil
}

func (r *repository) CreateHistory(ctx context.Context, row *models.StockHistory) error {
	return r.db.WithContext(ctx).Create(row).Error
}
