package loyalty

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sliceline/sliceline-backend/pkg/db/models"
	"github.com/sliceline/sliceline-backend/pkg/enums"
	pkgerrors "github.com/sliceline/sliceline-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns loyalty balances. Every change appends one ledger row whose
// running balance equals the previous balance plus the delta; the account
// balance is only ever the latest running balance.
type Service interface {
	// Credit runs inside the caller's transaction when tx is non-nil,
	// otherwise in its own.
	Credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, points int64, orderID *uuid.UUID, description string) (*models.PointsTransaction, error)
	Debit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, points int64, orderID *uuid.UUID, description string) (*models.PointsTransaction, error)
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]models.PointsTransaction, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the loyalty ledger service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("loyalty repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, points int64, orderID *uuid.UUID, description string) (*models.PointsTransaction, error) {
	if points <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit points must be positive")
	}
	return s.apply(ctx, tx, userID, points, enums.PointsTransactionTypeEarn, orderID, description)
}

func (s *service) Debit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, points int64, orderID *uuid.UUID, description string) (*models.PointsTransaction, error) {
	if points <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "debit points must be positive")
	}
	return s.apply(ctx, tx, userID, -points, enums.PointsTransactionTypeRedeem, orderID, description)
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	account, err := s.repo.FindAccountByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load loyalty account")
	}
	return account.CurrentPointsBalance, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.PointsTransaction, error) {
	account, err := s.repo.FindAccountByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load loyalty account")
	}
	txns, err := s.repo.ListTransactions(ctx, account.ID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list points transactions")
	}
	return txns, nil
}

func (s *service) apply(ctx context.Context, tx *gorm.DB, userID uuid.UUID, delta int64, txnType enums.PointsTransactionType, orderID *uuid.UUID, description string) (*models.PointsTransaction, error) {
	var result *models.PointsTransaction
	run := func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		account, err := repo.FindAccountByUserID(ctx, userID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load loyalty account")
			}
			if delta < 0 {
				return pkgerrors.New(pkgerrors.CodeInsufficientPoints, "not enough points")
			}
			account = &models.LoyaltyAccount{ID: uuid.New(), UserID: userID}
			if err := repo.CreateAccount(ctx, account); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create loyalty account")
			}
		}

		ok, err := repo.AdjustBalance(ctx, account.ID, delta)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust loyalty balance")
		}
		if !ok {
			return pkgerrors.Newf(pkgerrors.CodeInsufficientPoints,
				"not enough points: balance %d", account.CurrentPointsBalance)
		}

		balance, err := repo.Balance(ctx, account.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read loyalty balance")
		}

		txn := &models.PointsTransaction{
			ID:             uuid.New(),
			AccountID:      account.ID,
			OrderID:        orderID,
			Type:           txnType,
			Points:         delta,
			RunningBalance: balance,
			Description:    description,
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append points transaction")
		}

		result = txn
		return nil
	}

	var err error
	if tx != nil {
		err = run(tx)
	} else {
		err = s.tx.WithTx(ctx, run)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
