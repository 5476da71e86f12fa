package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sliceline/sliceline-backend/pkg/enums"
)

// DiscountCode defines a redeemable code. TotalUsedCount is monotonic and
// only ever incremented by the conditional update that enforces the limit.
type DiscountCode struct {
	ID                    uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code                  string               `gorm:"column:code;uniqueIndex;not null"`
	Type                  enums.DiscountType   `gorm:"column:type;not null"`
	Value                 decimal.Decimal      `gorm:"column:value;type:decimal(10,2);not null"`
	MinimumOrderValue     decimal.Decimal      `gorm:"column:minimum_order_value;type:decimal(10,2);not null;default:0"`
	ApplicableOrderTypes  []enums.OrderType    `gorm:"column:applicable_order_types;type:jsonb;serializer:json"`
	ApplicableCategories  []string             `gorm:"column:applicable_categories;type:jsonb;serializer:json"`
	ApplicableItemIDs     []uuid.UUID          `gorm:"column:applicable_item_ids;type:jsonb;serializer:json"`
	TotalUsageLimit       *int                 `gorm:"column:total_usage_limit"`
	PerCustomerUsageLimit *int                 `gorm:"column:per_customer_usage_limit"`
	TotalUsedCount        int                  `gorm:"column:total_used_count;not null;default:0"`
	ValidFrom             time.Time            `gorm:"column:valid_from;not null"`
	ValidUntil            time.Time            `gorm:"column:valid_until;not null"`
	Status                enums.DiscountStatus `gorm:"column:status;not null;default:'active'"`
	CreatedAt             time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// DiscountUsage records one redemption, written in the same transaction as
// the order it belongs to.
type DiscountUsage struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DiscountCodeID uuid.UUID  `gorm:"column:discount_code_id;type:uuid;not null;index"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	UserID         *uuid.UUID `gorm:"column:user_id;type:uuid;index"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}
