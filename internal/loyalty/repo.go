package loyalty

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sliceline/sliceline-backend/pkg/db/models"
)

// Repository defines persistence operations for loyalty accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindAccountByUserID(ctx context.Context, userID uuid.UUID) (*models.LoyaltyAccount, error)
	CreateAccount(ctx context.Context, account *models.LoyaltyAccount) error
	// AdjustBalance applies delta only while the result stays non-negative,
	// so racing debits cannot overdraw the account. Returns false when the
	// conditional update matched no row.
	AdjustBalance(ctx context.Context, accountID uuid.UUID, delta int64) (bool, error)
	Balance(ctx context.Context, accountID uuid.UUID) (int64, error)
	CreateTransaction(ctx context.Context, txn *models.PointsTransaction) error
	LatestTransaction(ctx context.Context, accountID uuid.UUID) (*models.PointsTransaction, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]models.PointsTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a loyalty repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindAccountByUserID(ctx context.Context, userID uuid.UUID) (*models.LoyaltyAccount, error) {
	var account models.LoyaltyAccount
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) CreateAccount(ctx context.Context, account *models.LoyaltyAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repository) AdjustBalance(ctx context.Context, accountID uuid.UUID, delta int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.LoyaltyAccount{}).
		Where("id = ? AND current_points_balance + ? >= 0", accountID, delta).
		UpdateColumn("current_points_balance", gorm.Expr("current_points_balance + ?", delta))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) Balance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var account models.LoyaltyAccount
	err := r.db.WithContext(ctx).
		Select("current_points_balance").
		Where("id = ?", accountID).
		First(&account).Error
	if err != nil {
		return 0, err
	}
	return account.CurrentPointsBalance, nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.PointsTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) LatestTransaction(ctx context.Context, accountID uuid.UUID) (*models.PointsTransaction, error) {
	var txn models.PointsTransaction
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]models.PointsTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var txns []models.PointsTransaction
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}
