package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuItem is a sellable item. CurrentStock is meaningful only while
// StockTracked is set; untracked items never hit the stock ledger.
type MenuItem struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string           `gorm:"column:name;not null"`
	Description       *string          `gorm:"column:description"`
	Price             decimal.Decimal  `gorm:"column:price;type:decimal(10,2);not null"`
	Category          string           `gorm:"column:category;not null;default:''"`
	StockTracked      bool             `gorm:"column:stock_tracked;not null;default:false"`
	CurrentStock      *int             `gorm:"column:current_stock"`
	LowStockThreshold int              `gorm:"column:low_stock_threshold;not null;default:0"`
	IsAvailable       bool             `gorm:"column:is_available;not null;default:true"`
	Options           []MenuItemOption `gorm:"foreignKey:MenuItemID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// MenuItemOption is a selectable customization with an additional price.
type MenuItemOption struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MenuItemID      uuid.UUID       `gorm:"column:menu_item_id;type:uuid;not null"`
	Name            string          `gorm:"column:name;not null"`
	AdditionalPrice decimal.Decimal `gorm:"column:additional_price;type:decimal(10,2);not null;default:0"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}
