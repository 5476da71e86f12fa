package loyalty

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
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

func setupLoyaltyTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	accounts := `
CREATE TABLE IF NOT EXISTS loyalty_accounts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  current_points_balance INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	transactions := `
CREATE TABLE IF NOT EXISTS points_transactions (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  order_id TEXT,
  type TEXT NOT NULL,
  points INTEGER NOT NULL,
  running_balance INTEGER NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  created_at DATETIME
);`
	require.NoError(t, db.Exec(accounts).Error)
	require.NoError(t, db.Exec(transactions).Error)
	return db
}

func newLoyaltyService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), &testTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func TestCreditCreatesAccountAndLedgerRow(t *testing.T) {
	db := setupLoyaltyTestDB(t)
	svc := newLoyaltyService(t, db)
	userID := uuid.New()
	orderID := uuid.New()

	txn, err := svc.Credit(context.Background(), nil, userID, 22, &orderID, "order ORD-000001")
	require.NoError(t, err)
	require.Equal(t, enums.PointsTransactionTypeEarn, txn.Type)
	require.Equal(t, int64(22), txn.Points)
	require.Equal(t, int64(22), txn.RunningBalance)

	balance, err := svc.Balance(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, int64(22), balance)
}

func TestRunningBalanceMatchesLatestTransaction(t *testing.T) {
	db := setupLoyaltyTestDB(t)
	repo := NewRepository(db)
	svc := newLoyaltyService(t, db)
	userID := uuid.New()
	ctx := context.Background()

	_, err := svc.Credit(ctx, nil, userID, 10, nil, "first order")
	require.NoError(t, err)
	_, err = svc.Credit(ctx, nil, userID, 15, nil, "second order")
	require.NoError(t, err)
	_, err = svc.Debit(ctx, nil, userID, 5, nil, "redemption")
	require.NoError(t, err)

	account, err := repo.FindAccountByUserID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(20), account.CurrentPointsBalance)

	latest, err := repo.LatestTransaction(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, account.CurrentPointsBalance, latest.RunningBalance)
}

func TestDebitRejectsInsufficientPoints(t *testing.T) {
	db := setupLoyaltyTestDB(t)
	svc := newLoyaltyService(t, db)
	userID := uuid.New()
	ctx := context.Background()

	_, err := svc.Credit(ctx, nil, userID, 5, nil, "small order")
	require.NoError(t, err)

	_, err = svc.Debit(ctx, nil, userID, 10, nil, "too large")
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeInsufficientPoints, appErr.Code())

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(5), balance, "rejected debit must not move the balance")

	var count int64
	require.NoError(t, db.Model(&models.PointsTransaction{}).Count(&count).Error)
	require.Equal(t, int64(1), count, "rejected debit must not append a ledger row")
}

func TestDebitAgainstMissingAccountRejects(t *testing.T) {
	db := setupLoyaltyTestDB(t)
	svc := newLoyaltyService(t, db)

	_, err := svc.Debit(context.Background(), nil, uuid.New(), 1, nil, "no account")
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeInsufficientPoints, appErr.Code())
}

func TestCreditInsideCallerTransactionRollsBack(t *testing.T) {
	db := setupLoyaltyTestDB(t)
	svc := newLoyaltyService(t, db)
	userID := uuid.New()
	ctx := context.Background()

	boom := fmt.Errorf("abort")
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.Credit(ctx, tx, userID, 30, nil, "doomed order"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	require.Zero(t, balance, "rolled back credit must leave no balance")

	var count int64
	require.NoError(t, db.Model(&models.PointsTransaction{}).Count(&count).Error)
	require.Zero(t, count)
}
