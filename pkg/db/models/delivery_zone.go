package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sliceline/sliceline-backend/pkg/types"
)

// DeliveryZone is a geofenced area with its own fee, minimum and ETA.
// Zones may overlap; resolution picks the highest priority, then the
// lexicographically smallest id.
type DeliveryZone struct {
	ID                       uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                     string          `gorm:"column:name;not null"`
	Polygon                  types.Polygon   `gorm:"column:polygon;type:jsonb;serializer:json;not null"`
	DeliveryFee              decimal.Decimal `gorm:"column:delivery_fee;type:decimal(10,2);not null"`
	MinimumOrderValue        decimal.Decimal `gorm:"column:minimum_order_value;type:decimal(10,2);not null;default:0"`
	EstimatedDeliveryMinutes int             `gorm:"column:estimated_delivery_minutes;not null"`
	Priority                 int             `gorm:"column:priority;not null;default:0"`
	IsActive                 bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt                time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
