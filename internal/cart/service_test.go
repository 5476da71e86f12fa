package cart

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sliceline/sliceline-backend/internal/menu"
	"github.com/sliceline/sliceline-backend/pkg/db/models"
	pkgerrors "github.com/sliceline/sliceline-backend/pkg/errors"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS menu_items (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  price TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT '',
  stock_tracked INTEGER NOT NULL DEFAULT 0,
  current_stock INTEGER,
  low_stock_threshold INTEGER NOT NULL DEFAULT 0,
  is_available INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS menu_item_options (
  id TEXT PRIMARY KEY,
  menu_item_id TEXT NOT NULL,
  name TEXT NOT NULL,
  additional_price TEXT NOT NULL DEFAULT '0',
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS cart_records (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  session_key TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  menu_item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  option_ids TEXT,
  unit_price TEXT NOT NULL,
  line_total TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range stmts {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedMenuItem(t *testing.T, db *gorm.DB, price string, optionPrices ...string) *models.MenuItem {
	t.Helper()
	item := &models.MenuItem{
		ID:          uuid.New(),
		Name:        "quattro formaggi",
		Price:       decimal.RequireFromString(price),
		IsAvailable: true,
	}
	require.NoError(t, db.Create(item).Error)
	for i, op := range optionPrices {
		option := &models.MenuItemOption{
			ID:              uuid.New(),
			MenuItemID:      item.ID,
			Name:            fmt.Sprintf("extra %d", i),
			AdditionalPrice: decimal.RequireFromString(op),
		}
		require.NoError(t, db.Create(option).Error)
		item.Options = append(item.Options, *option)
	}
	return item
}

func newCartService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), menu.NewRepository(db))
	require.NoError(t, err)
	return svc
}

func TestAddItemSnapshotsUnitPriceWithOptions(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	item := seedMenuItem(t, db, "10.00", "1.50", "0.75")
	userID := uuid.New()

	cart, err := svc.AddItem(context.Background(), Owner{UserID: &userID}, AddItemInput{
		MenuItemID: item.ID,
		Quantity:   2,
		OptionIDs:  []uuid.UUID{item.Options[0].ID, item.Options[1].ID},
	})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	line := cart.Items[0]
	require.True(t, line.UnitPrice.Equal(decimal.RequireFromString("12.25")), "unit price %s", line.UnitPrice)
	require.True(t, line.LineTotal.Equal(decimal.RequireFromString("24.50")), "line total %s", line.LineTotal)
}

func TestAddItemRejectsForeignOption(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	item := seedMenuItem(t, db, "10.00")
	userID := uuid.New()

	_, err := svc.AddItem(context.Background(), Owner{UserID: &userID}, AddItemInput{
		MenuItemID: item.ID,
		Quantity:   1,
		OptionIDs:  []uuid.UUID{uuid.New()},
	})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestGetActiveCreatesCartPerOwner(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	guest := Owner{SessionKey: "sess-1"}
	first, err := svc.GetActive(ctx, guest)
	require.NoError(t, err)

	again, err := svc.GetActive(ctx, guest)
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID, "same session must reuse the active cart")

	other, err := svc.GetActive(ctx, Owner{SessionKey: "sess-2"})
	require.NoError(t, err)
	require.NotEqual(t, first.ID, other.ID)
}

func TestRemoveItem(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	item := seedMenuItem(t, db, "8.00")
	userID := uuid.New()
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, Owner{UserID: &userID}, AddItemInput{MenuItemID: item.ID, Quantity: 1})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	cart, err = svc.RemoveItem(ctx, Owner{UserID: &userID}, cart.Items[0].ID)
	require.NoError(t, err)
	require.Empty(t, cart.Items)

	_, err = svc.RemoveItem(ctx, Owner{UserID: &userID}, uuid.New())
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}
