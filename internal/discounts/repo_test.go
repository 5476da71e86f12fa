package discounts

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sliceline/sliceline-backend/pkg/db/models"
	"github.com/sliceline/sliceline-backend/pkg/enums"
)

func setupDiscountsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	codes := `
CREATE TABLE IF NOT EXISTS discount_codes (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  type TEXT NOT NULL,
  value TEXT NOT NULL,
  minimum_order_value TEXT NOT NULL DEFAULT '0',
  applicable_order_types TEXT,
  applicable_categories TEXT,
  applicable_item_ids TEXT,
  total_usage_limit INTEGER,
  per_customer_usage_limit INTEGER,
  total_used_count INTEGER NOT NULL DEFAULT 0,
  valid_from DATETIME NOT NULL,
  valid_until DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`
	usages := `
CREATE TABLE IF NOT EXISTS discount_usages (
  id TEXT PRIMARY KEY,
  discount_code_id TEXT NOT NULL,
  order_id TEXT NOT NULL,
  user_id TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(codes).Error)
	require.NoError(t, db.Exec(usages).Error)
	return db
}

func seedCode(t *testing.T, db *gorm.DB, mutate func(*models.DiscountCode)) *models.DiscountCode {
	t.Helper()
	code := &models.DiscountCode{
		ID:         uuid.New(),
		Code:       "SAVE10",
		Type:       enums.DiscountTypePercentage,
		Value:      decimal.RequireFromString("10"),
		ValidFrom:  time.Now().Add(-time.Hour),
		ValidUntil: time.Now().Add(time.Hour),
		Status:     enums.DiscountStatusActive,
	}
	if mutate != nil {
		mutate(code)
	}
	require.NoError(t, db.Create(code).Error)
	return code
}

func TestConsumeUsageEnforcesTotalLimit(t *testing.T) {
	db := setupDiscountsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	limit := 1
	code := seedCode(t, db, func(c *models.DiscountCode) { c.TotalUsageLimit = &limit })

	first, err := repo.ConsumeUsage(ctx, code.ID)
	require.NoError(t, err)
	require.True(t, first, "first consume should win")

	second, err := repo.ConsumeUsage(ctx, code.ID)
	require.NoError(t, err)
	require.False(t, second, "second consume must lose once the limit is reached")

	reloaded, err := repo.FindByID(ctx, code.ID)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.TotalUsedCount)
}

func TestConsumeUsageUnlimitedWhenNoLimitSet(t *testing.T) {
	db := setupDiscountsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	code := seedCode(t, db, nil)

	for i := 0; i < 3; i++ {
		ok, err := repo.ConsumeUsage(ctx, code.ID)
		require.NoError(t, err)
		require.True(t, ok)
	}

	reloaded, err := repo.FindByID(ctx, code.ID)
	require.NoError(t, err)
	require.Equal(t, 3, reloaded.TotalUsedCount)
}

func TestCountUsageByUser(t *testing.T) {
	db := setupDiscountsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	code := seedCode(t, db, nil)
	userID := uuid.New()
	otherID := uuid.New()

	for _, uid := range []uuid.UUID{userID, userID, otherID} {
		uid := uid
		require.NoError(t, repo.CreateUsage(ctx, &models.DiscountUsage{
			ID:             uuid.New(),
			DiscountCodeID: code.ID,
			OrderID:        uuid.New(),
			UserID:         &uid,
		}))
	}

	count, err := repo.CountUsageByUser(ctx, code.ID, userID)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestFindByCodeNormalizesInput(t *testing.T) {
	db := setupDiscountsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedCode(t, db, nil)

	found, err := repo.FindByCode(ctx, "  save10 ")
	require.NoError(t, err)
	require.Equal(t, "SAVE10", found.Code)
}
