package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sliceline/sliceline-backend/pkg/enums"
)

// CartRecord is the cart owned by one customer session. Guest carts carry a
// session key instead of a user id.
type CartRecord struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     *uuid.UUID       `gorm:"column:user_id;type:uuid"`
	SessionKey string           `gorm:"column:session_key;not null;default:''"`
	Status     enums.CartStatus `gorm:"column:status;not null;default:'active'"`
	Items      []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// CartItem snapshots the unit price (base price plus selected options) at
// quote time; line_total = unit_price * quantity.
type CartItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID     uuid.UUID       `gorm:"column:cart_id;type:uuid;not null"`
	MenuItemID uuid.UUID       `gorm:"column:menu_item_id;type:uuid;not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	OptionIDs  []uuid.UUID     `gorm:"column:option_ids;type:jsonb;serializer:json"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:decimal(10,2);not null"`
	LineTotal  decimal.Decimal `gorm:"column:line_total;type:decimal(10,2);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
