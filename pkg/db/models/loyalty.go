package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sliceline/sliceline-backend/pkg/enums"
)

// LoyaltyAccount carries the derived balance; the ledger rows are the truth.
// CurrentPointsBalance always equals the running balance of the latest
// PointsTransaction for the account.
type LoyaltyAccount struct {
	ID                   uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID               uuid.UUID `gorm:"column:user_id;type:uuid;uniqueIndex;not null"`
	CurrentPointsBalance int64     `gorm:"column:current_points_balance;not null;default:0"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// PointsTransaction is one ledger row; RunningBalance is the previous
// running balance plus Points.
type PointsTransaction struct {
	ID             uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID      uuid.UUID                   `gorm:"column:account_id;type:uuid;not null;index"`
	OrderID        *uuid.UUID                  `gorm:"column:order_id;type:uuid"`
	Type           enums.PointsTransactionType `gorm:"column:type;not null"`
	Points         int64                       `gorm:"column:points;not null"`
	RunningBalance int64                       `gorm:"column:running_balance;not null"`
	Description    string                      `gorm:"column:description;not null;default:''"`
	CreatedAt      time.Time                   `gorm:"column:created_at;autoCreateTime"`
}
