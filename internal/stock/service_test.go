package stock

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

	"github.com/sliceline/sliceline-backend/pkg/db/models"
	"github.com/sliceline/sliceline-backend/pkg/enums"
	pkgerrors "github.com/sliceline/sliceline-backend/pkg/errors"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupStockTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	menuItems := `
CREATE TABLE IF NOT EXISTS menu_items (
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
);`
	stockHistories := `
CREATE TABLE IF NOT EXISTS stock_histories (
  id TEXT PRIMARY KEY,
  menu_item_id TEXT NOT NULL,
  change_type TEXT NOT NULL,
  quantity_changed INTEGER NOT NULL,
  previous_stock INTEGER NOT NULL,
  new_stock INTEGER NOT NULL,
  order_id TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(menuItems).Error)
	require.NoError(t, db.Exec(stockHistories).Error)
	return db
}

func seedItem(t *testing.T, db *gorm.DB, tracked bool, stock, threshold int) *models.MenuItem {
	t.Helper()
	item := &models.MenuItem{
		ID:                uuid.New(),
		Name:              "margherita",
		Price:             decimal.RequireFromString("10.00"),
		StockTracked:      tracked,
		LowStockThreshold: threshold,
		IsAvailable:       true,
	}
	if tracked {
		item.CurrentStock = &stock
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func newStockService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), &testTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func reserveInTx(t *testing.T, db *gorm.DB, svc Service, orderID uuid.UUID, lines []ReservationLine) ([]LowStockAlert, error) {
	t.Helper()
	var alerts []LowStockAlert
	err := db.Transaction(func(tx *gorm.DB) error {
		var innerErr error
		alerts, innerErr = svc.Reserve(context.Background(), tx, orderID, lines)
		return innerErr
	})
	return alerts, err
}

func TestReserveDecrementsAndWritesHistory(t *testing.T) {
	db := setupStockTestDB(t)
	svc := newStockService(t, db)
	item := seedItem(t, db, true, 10, 2)
	orderID := uuid.New()

	alerts, err := reserveInTx(t, db, svc, orderID, []ReservationLine{{MenuItemID: item.ID, Quantity: 3}})
	require.NoError(t, err)
	require.Empty(t, alerts)

	var reloaded models.MenuItem
	require.NoError(t, db.First(&reloaded, "id = ?", item.ID).Error)
	require.NotNil(t, reloaded.CurrentStock)
	require.Equal(t, 7, *reloaded.CurrentStock)

	var history []models.StockHistory
	require.NoError(t, db.Find(&history, "menu_item_id = ?", item.ID).Error)
	require.Len(t, history, 1)
	require.Equal(t, enums.StockChangeTypeSale, history[0].ChangeType)
	require.Equal(t, -3, history[0].QuantityChanged)
	require.Equal(t, 10, history[0].PreviousStock)
	require.Equal(t, 7, history[0].NewStock)
	require.NotNil(t, history[0].OrderID)
	require.Equal(t, orderID, *history[0].OrderID)
}

func TestReserveInsufficientStockReportsAvailable(t *testing.T) {
	db := setupStockTestDB(t)
	svc := newStockService(t, db)
	item := seedItem(t, db, true, 2, 0)

	_, err := reserveInTx(t, db, svc, uuid.New(), []ReservationLine{{MenuItemID: item.ID, Quantity: 5}})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeInsufficientStock, appErr.Code())
	require.Contains(t, appErr.Message(), "only 2")

	var reloaded models.MenuItem
	require.NoError(t, db.First(&reloaded, "id = ?", item.ID).Error)
	require.Equal(t, 2, *reloaded.CurrentStock)

	var count int64
	require.NoError(t, db.Model(&models.StockHistory{}).Count(&count).Error)
	require.Zero(t, count, "failed reservation must not leave ledger rows")
}

func TestReserveRollsBackEarlierLinesOnFailure(t *testing.T) {
	db := setupStockTestDB(t)
	svc := newStockService(t, db)
	plenty := seedItem(t, db, true, 10, 0)
	scarce := seedItem(t, db, true, 1, 0)

	_, err := reserveInTx(t, db, svc, uuid.New(), []ReservationLine{
		{MenuItemID: plenty.ID, Quantity: 2},
		{MenuItemID: scarce.ID, Quantity: 3},
	})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeInsufficientStock, appErr.Code())

	var reloaded models.MenuItem
	require.NoError(t, db.First(&reloaded, "id = ?", plenty.ID).Error)
	require.Equal(t, 10, *reloaded.CurrentStock, "earlier line must roll back with the transaction")
}

func TestReserveSkipsUntrackedItems(t *testing.T) {
	db := setupStockTestDB(t)
	svc := newStockService(t, db)
	item := seedItem(t, db, false, 0, 0)

	alerts, err := reserveInTx(t, db, svc, uuid.New(), []ReservationLine{{MenuItemID: item.ID, Quantity: 100}})
	require.NoError(t, err)
	require.Empty(t, alerts)

	var count int64
	require.NoError(t, db.Model(&models.StockHistory{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestReserveConservesStockUnderContention(t *testing.T) {
	db := setupStockTestDB(t)
	svc := newStockService(t, db)
	item := seedItem(t, db, true, 5, 0)

	successes := 0
	for i := 0; i < 10; i++ {
		_, err := reserveInTx(t, db, svc, uuid.New(), []ReservationLine{{MenuItemID: item.ID, Quantity: 1}})
		if err == nil {
			successes++
			continue
		}
		appErr := pkgerrors.As(err)
		require.NotNil(t, appErr)
		require.Equal(t, pkgerrors.CodeInsufficientStock, appErr.Code())
	}
	require.Equal(t, 5, successes)

	var reloaded models.MenuItem
	require.NoError(t, db.First(&reloaded, "id = ?", item.ID).Error)
	require.Equal(t, 0, *reloaded.CurrentStock)
}

func TestReserveLowStockAlertIsEdgeTriggered(t *testing.T) {
	db := setupStockTestDB(t)
	svc := newStockService(t, db)
	item := seedItem(t, db, true, 4, 3)

	// 4 -> 3: still at the threshold, no alert.
	alerts, err := reserveInTx(t, db, svc, uuid.New(), []ReservationLine{{MenuItemID: item.ID, Quantity: 1}})
	require.NoError(t, err)
	require.Empty(t, alerts)

	// 3 -> 2: crosses below the threshold, one alert.
	alerts, err = reserveInTx(t, db, svc, uuid.New(), []ReservationLine{{MenuItemID: item.ID, Quantity: 1}})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, item.ID, alerts[0].MenuItemID)
	require.Equal(t, 2, alerts[0].Current)

	// 2 -> 1: already below, no repeat alert.
	alerts, err = reserveInTx(t, db, svc, uuid.New(), []ReservationLine{{MenuItemID: item.ID, Quantity: 1}})
	require.NoError(t, err)
	require.Empty(t, alerts)
}

func TestRestockAppendsLedgerRow(t *testing.T) {
	db := setupStockTestDB(t)
	svc := newStockService(t, db)
	item := seedItem(t, db, true, 2, 0)

	updated, err := svc.Restock(context.Background(), item.ID, 8)
	require.NoError(t, err)
	require.NotNil(t, updated.CurrentStock)
	require.Equal(t, 10, *updated.CurrentStock)

	var history []models.StockHistory
	require.NoError(t, db.Find(&history, "menu_item_id = ?", item.ID).Error)
	require.Len(t, history, 1)
	require.Equal(t, enums.StockChangeTypeRestock, history[0].ChangeType)
	require.Equal(t, 8, history[0].QuantityChanged)
	require.Equal(t, 2, history[0].PreviousStock)
	require.Equal(t, 10, history[0].NewStock)
}

func TestAdjustSetsAbsoluteStock(t *testing.T) {
	db := setupStockTestDB(t)
	svc := newStockService(t, db)
	item := seedItem(t, db, true, 9, 0)

	updated, err := svc.Adjust(context.Background(), item.ID, 4)
	require.NoError(t, err)
	require.Equal(t, 4, *updated.CurrentStock)

	var history []models.StockHistory
	require.NoError(t, db.Find(&history, "menu_item_id = ?", item.ID).Error)
	require.Len(t, history, 1)
	require.Equal(t, enums.StockChangeTypeAdjustment, history[0].ChangeType)
	require.Equal(t, -5, history[0].QuantityChanged)
}

func TestRestockRejectsUntrackedItem(t *testing.T) {
	db := setupStockTestDB(t)
	svc := newStockService(t, db)
	item := seedItem(t, db, false, 0, 0)

	_, err := svc.Restock(context.Background(), item.ID, 5)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}
