package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sliceline/sliceline-backend/pkg/enums"
	"github.com/sliceline/sliceline-backend/pkg/types"
)

// Order is created once, atomically, with its items and first history row.
// After creation it is mutated only through the status state machine.
type Order struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber        string               `gorm:"column:order_number;uniqueIndex;not null"`
	UserID             *uuid.UUID           `gorm:"column:user_id;type:uuid;index"`
	TicketNumber       *string              `gorm:"column:ticket_number;uniqueIndex"`
	TrackingToken      *string              `gorm:"column:tracking_token;index"`
	OrderType          enums.OrderType      `gorm:"column:order_type;not null"`
	Status             enums.OrderStatus    `gorm:"column:status;not null;default:'received'"`
	Subtotal           decimal.Decimal      `gorm:"column:subtotal;type:decimal(10,2);not null"`
	DiscountAmount     decimal.Decimal      `gorm:"column:discount_amount;type:decimal(10,2);not null;default:0"`
	DeliveryFee        decimal.Decimal      `gorm:"column:delivery_fee;type:decimal(10,2);not null;default:0"`
	TaxAmount          decimal.Decimal      `gorm:"column:tax_amount;type:decimal(10,2);not null"`
	TotalAmount        decimal.Decimal      `gorm:"column:total_amount;type:decimal(10,2);not null"`
	DiscountCodeID     *uuid.UUID           `gorm:"column:discount_code_id;type:uuid"`
	DeliveryZoneID     *uuid.UUID           `gorm:"column:delivery_zone_id;type:uuid"`
	DeliveryAddress    *string              `gorm:"column:delivery_address"`
	DeliveryPoint      *types.GeoPoint      `gorm:"column:delivery_point;type:jsonb;serializer:json"`
	PaymentStatus      enums.PaymentStatus  `gorm:"column:payment_status;not null;default:'pending'"`
	PaymentRef         *string              `gorm:"column:payment_ref"`
	Notes              *string              `gorm:"column:notes"`
	CancellationReason *string              `gorm:"column:cancellation_reason"`
	Items              []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory      []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime"`
	CompletedAt        *time.Time           `gorm:"column:completed_at"`
	CancelledAt        *time.Time           `gorm:"column:cancelled_at"`
}

// OrderItemOption snapshots a selected customization at order time.
type OrderItemOption struct {
	Name            string          `json:"name"`
	AdditionalPrice decimal.Decimal `json:"additional_price"`
}

// OrderItem snapshots name, price and customizations so historical orders
// stay immutable when the menu changes.
type OrderItem struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID         `gorm:"column:order_id;type:uuid;not null"`
	MenuItemID *uuid.UUID        `gorm:"column:menu_item_id;type:uuid"`
	Name       string            `gorm:"column:name;not null"`
	UnitPrice  decimal.Decimal   `gorm:"column:unit_price;type:decimal(10,2);not null"`
	Quantity   int               `gorm:"column:quantity;not null"`
	Options    []OrderItemOption `gorm:"column:options;type:jsonb;serializer:json"`
	LineTotal  decimal.Decimal   `gorm:"column:line_total;type:decimal(10,2);not null"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// OrderStatusHistory is append-only; one row per accepted transition.
type OrderStatusHistory struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;not null"`
	ActorID   *uuid.UUID        `gorm:"column:actor_id;type:uuid"`
	Notes     *string           `gorm:"column:notes"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// Invoice is written alongside the order inside the creation transaction.
type Invoice struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID       `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	InvoiceNumber string          `gorm:"column:invoice_number;uniqueIndex;not null"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(10,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
