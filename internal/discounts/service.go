package discounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sliceline/sliceline-backend/pkg/db/models"
	"github.com/sliceline/sliceline-backend/pkg/enums"
	pkgerrors "github.com/sliceline/sliceline-backend/pkg/errors"
)

// ValidateInput carries everything the validation pass inspects.
type ValidateInput struct {
	Code       string
	OrderType  enums.OrderType
	OrderValue decimal.Decimal
	ItemIDs    []uuid.UUID
	Categories []string
	UserID     *uuid.UUID
	Now        time.Time
}

// Service validates discount codes and commits their usage.
type Service interface {
	// Validate runs the ordered rule pass; the first failing rule wins.
	Validate(ctx context.Context, input ValidateInput) (*models.DiscountCode, error)
	// Commit re-checks the usage limits inside the caller's transaction and
	// records the redemption. Must only be called with an open transaction.
	Commit(ctx context.Context, tx *gorm.DB, codeID, orderID uuid.UUID, userID *uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService builds a discount validation service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discounts repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Validate(ctx context.Context, input ValidateInput) (*models.DiscountCode, error) {
	discount, err := s.repo.FindByCode(ctx, input.Code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidCode, "discount code not recognized")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount code")
	}
	if discount.Status != enums.DiscountStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCode, "discount code not recognized")
	}

	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	if now.Before(discount.ValidFrom) || now.After(discount.ValidUntil) {
		return nil, pkgerrors.New(pkgerrors.CodeCodeExpired, "discount code is not valid at this time")
	}

	if len(discount.ApplicableOrderTypes) > 0 && !containsOrderType(discount.ApplicableOrderTypes, input.OrderType) {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotApplicable, "discount does not apply to %s orders", input.OrderType)
	}
	if !s.cartMatches(discount, input) {
		return nil, pkgerrors.New(pkgerrors.CodeNotApplicable, "discount does not apply to the items in this order")
	}

	if input.OrderValue.LessThan(discount.MinimumOrderValue) {
		return nil, pkgerrors.Newf(pkgerrors.CodeMinimumOrderNotMet,
			"order must be at least %s to use this code", discount.MinimumOrderValue.StringFixed(2))
	}

	if discount.TotalUsageLimit != nil && discount.TotalUsedCount >= *discount.TotalUsageLimit {
		return nil, pkgerrors.New(pkgerrors.CodeUsageLimitExceeded, "discount code usage limit reached")
	}

	if discount.PerCustomerUsageLimit != nil && input.UserID != nil {
		used, err := s.repo.CountUsageByUser(ctx, discount.ID, *input.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count discount usage")
		}
		if used >= int64(*discount.PerCustomerUsageLimit) {
			return nil, pkgerrors.New(pkgerrors.CodeUsageLimitExceeded, "discount code already used")
		}
	}

	return discount, nil
}

// Commit closes the race window between validation and order creation: the
// conditional increment and per-customer recount run against the caller's
// transaction so a concurrent redemption of the last use loses cleanly.
func (s *service) Commit(ctx context.Context, tx *gorm.DB, codeID, orderID uuid.UUID, userID *uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "discount commit requires a transaction")
	}
	repo := s.repo.WithTx(tx)

	discount, err := repo.FindByID(ctx, codeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload discount code")
	}

	consumed, err := repo.ConsumeUsage(ctx, codeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume discount usage")
	}
	if !consumed {
		return pkgerrors.New(pkgerrors.CodeUsageLimitExceeded, "discount code usage limit reached")
	}

	// The recount must run after ConsumeUsage: its update locks the code row,
	// so a concurrent redemption by the same customer serializes here and the
	// loser counts the winner's committed usage row.
	if discount.PerCustomerUsageLimit != nil && userID != nil {
		used, err := repo.CountUsageByUser(ctx, codeID, *userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count discount usage")
		}
		if used >= int64(*discount.PerCustomerUsageLimit) {
			return pkgerrors.New(pkgerrors.CodeUsageLimitExceeded, "discount code already used")
		}
	}

	usage := &models.DiscountUsage{
		ID:             uuid.New(),
		DiscountCodeID: codeID,
		OrderID:        orderID,
		UserID:         userID,
	}
	if err := repo.CreateUsage(ctx, usage); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record discount usage")
	}
	return nil
}

func (s *service) cartMatches(discount *models.DiscountCode, input ValidateInput) bool {
	if len(discount.ApplicableItemIDs) == 0 && len(discount.ApplicableCategories) == 0 {
		return true
	}
	for _, id := range input.ItemIDs {
		for _, applicable := range discount.ApplicableItemIDs {
			if id == applicable {
				return true
			}
		}
	}
	for _, category := range input.Categories {
		for _, applicable := range discount.ApplicableCategories {
			if category == applicable {
				return true
			}
		}
	}
	return false
}

func containsOrderType(set []enums.OrderType, target enums.OrderType) bool {
	for _, ot := range set {
		if ot == target {
			return true
		}
	}
	return false
}
