package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sliceline/sliceline-backend/pkg/db/models"
	"github.com/sliceline/sliceline-backend/pkg/enums"
	pkgerrors "github.com/sliceline/sliceline-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ReservationLine is one order line to reserve.
type ReservationLine struct {
	MenuItemID uuid.UUID
	Quantity   int
}

// LowStockAlert reports a threshold crossing detected during a reservation.
type LowStockAlert struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Name       string    `json:"name"`
	Current    int       `json:"current_stock"`
	Threshold  int       `json:"low_stock_threshold"`
}

// Service owns every mutation of current_stock. Each change writes the new
// stock value and a history row as one pair.
type Service interface {
	// Reserve decrements stock for every line inside the caller's
	// transaction. Untracked items pass through without touching the
	// ledger. Any shortfall aborts with INSUFFICIENT_STOCK and the
	// caller's rollback undoes the earlier lines.
	Reserve(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, lines []ReservationLine) ([]LowStockAlert, error)
	Restock(ctx context.Context, itemID uuid.UUID, qty int) (*models.MenuItem, error)
	Adjust(ctx context.Context, itemID uuid.UUID, newQty int) (*models.MenuItem, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the stock ledger service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Reserve(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, lines []ReservationLine) ([]LowStockAlert, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stock reservation requires a transaction")
	}
	repo := s.repo.WithTx(tx)

	var alerts []LowStockAlert
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be positive")
		}

		item, err := repo.FindItemByID(ctx, line.MenuItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
		}
		if !item.StockTracked {
			continue
		}

		ok, err := repo.DecrementStock(ctx, line.MenuItemID, line.Quantity)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
		}
		if !ok {
			available, err := repo.CurrentStock(ctx, line.MenuItemID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read available stock")
			}
			return nil, pkgerrors.Newf(pkgerrors.CodeInsufficientStock,
				"only %d of %s available", available, item.Name).
				WithDetails(map[string]any{"menu_item_id": line.MenuItemID, "available": available})
		}

		newStock, err := repo.CurrentStock(ctx, line.MenuItemID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read stock after reserve")
		}
		previous := newStock + line.Quantity

		history := &models.StockHistory{
			ID:              uuid.New(),
			MenuItemID:      line.MenuItemID,
			ChangeType:      enums.StockChangeTypeSale,
			QuantityChanged: -line.Quantity,
			PreviousStock:   previous,
			NewStock:        newStock,
			OrderID:         &orderID,
		}
		if err := repo.CreateHistory(ctx, history); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock history")
		}

		// Edge-triggered: alert only on the sale that crosses the line.
		if newStock < item.LowStockThreshold && previous >= item.LowStockThreshold {
			alerts = append(alerts, LowStockAlert{
				MenuItemID: item.ID,
				Name:       item.Name,
				Current:    newStock,
				Threshold:  item.LowStockThreshold,
			})
		}
	}
	return alerts, nil
}

func (s *service) Restock(ctx context.Context, itemID uuid.UUID, qty int) (*models.MenuItem, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restock quantity must be positive")
	}
	var item *models.MenuItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindItemByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
		}
		if !loaded.StockTracked {
			return pkgerrors.New(pkgerrors.CodeValidation, "menu item is not stock tracked")
		}

		if err := repo.IncrementStock(ctx, itemID, qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment stock")
		}
		newStock, err := repo.CurrentStock(ctx, itemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read stock after restock")
		}

		history := &models.StockHistory{
			ID:              uuid.New(),
			MenuItemID:      itemID,
			ChangeType:      enums.StockChangeTypeRestock,
			QuantityChanged: qty,
			PreviousStock:   newStock - qty,
			NewStock:        newStock,
		}
		if err := repo.CreateHistory(ctx, history); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock history")
		}

		loaded.CurrentStock = &newStock
		item = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) Adjust(ctx context.Context, itemID uuid.UUID, newQty int) (*models.MenuItem, error) {
	if newQty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be adjusted below zero")
	}
	var item *models.MenuItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindItemByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
		}
		if !loaded.StockTracked {
			return pkgerrors.New(pkgerrors.CodeValidation, "menu item is not stock tracked")
		}

		previous := 0
		if loaded.CurrentStock != nil {
			previous = *loaded.CurrentStock
		}
		if err := repo.SetStock(ctx, itemID, newQty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set stock")
		}

		history := &models.StockHistory{
			ID:              uuid.New(),
			MenuItemID:      itemID,
			ChangeType:      enums.StockChangeTypeAdjustment,
			QuantityChanged: newQty - previous,
			PreviousStock:   previous,
			NewStock:        newQty,
		}
		if err := repo.CreateHistory(ctx, history); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock history")
		}

		stock := newQty
		loaded.CurrentStock = &stock
		item = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}
