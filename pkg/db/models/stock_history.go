package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sliceline/sliceline-backend/pkg/enums"
)

// StockHistory is the append-only ledger of stock deltas. current_stock may
// only change through a paired (stock value, history row) write.
type StockHistory struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MenuItemID      uuid.UUID             `gorm:"column:menu_item_id;type:uuid;not null;index"`
	ChangeType      enums.StockChangeType `gorm:"column:change_type;not null"`
	QuantityChanged int                   `gorm:"column:quantity_changed;not null"`
	PreviousStock   int                   `gorm:"column:previous_stock;not null"`
	NewStock        int                   `gorm:"column:new_stock;not null"`
	OrderID         *uuid.UUID            `gorm:"column:order_id;type:uuid"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}
