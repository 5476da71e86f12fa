package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sliceline/sliceline-backend/internal/menu"
	"github.com/sliceline/sliceline-backend/pkg/db/models"
	"github.com/sliceline/sliceline-backend/pkg/enums"
	pkgerrors "github.com/sliceline/sliceline-backend/pkg/errors"
)

// Owner identifies who a cart belongs to: a logged-in user or a guest
// session key. Exactly one of the two is expected.
type Owner struct {
	UserID     *uuid.UUID
	SessionKey string
}

func (o Owner) valid() bool {
	return o.UserID != nil || o.SessionKey != ""
}

// AddItemInput is one line to add, priced server-side at quote time.
type AddItemInput struct {
	MenuItemID uuid.UUID
	Quantity   int
	OptionIDs  []uuid.UUID
}

// Service manages active carts. Unit prices snapshot base price plus the
// selected options so the quote cannot drift under later menu edits.
type Service interface {
	GetActive(ctx context.Context, owner Owner) (*models.CartRecord, error)
	AddItem(ctx context.Context, owner Owner, input AddItemInput) (*models.CartRecord, error)
	RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*models.CartRecord, error)
}

type service struct {
	repo Repository
	menu menu.Repository
}

// NewService builds the cart service.
func NewService(repo Repository, menuRepo menu.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if menuRepo == nil {
		return nil, fmt.Errorf("menu repository required")
	}
	return &service{repo: repo, menu: menuRepo}, nil
}

func (s *service) GetActive(ctx context.Context, owner Owner) (*models.CartRecord, error) {
	if !owner.valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner required")
	}
	cart, err := s.findActive(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.create(ctx, owner)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) AddItem(ctx context.Context, owner Owner, input AddItemInput) (*models.CartRecord, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	item, err := s.menu.FindByID(ctx, input.MenuItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}
	if !item.IsAvailable {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s is not available", item.Name)
	}

	unitPrice, err := priceWithOptions(item, input.OptionIDs)
	if err != nil {
		return nil, err
	}

	cart, err := s.GetActive(ctx, owner)
	if err != nil {
		return nil, err
	}

	line := &models.CartItem{
		ID:         uuid.New(),
		CartID:     cart.ID,
		MenuItemID: item.ID,
		Quantity:   input.Quantity,
		OptionIDs:  input.OptionIDs,
		UnitPrice:  unitPrice,
		LineTotal:  unitPrice.Mul(decimal.NewFromInt(int64(input.Quantity))).Round(2),
	}
	if err := s.repo.CreateItem(ctx, line); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}

	return s.reload(ctx, cart.ID)
}

func (s *service) RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*models.CartRecord, error) {
	cart, err := s.GetActive(ctx, owner)
	if err != nil {
		return nil, err
	}
	removed, err := s.repo.DeleteItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if !removed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.reload(ctx, cart.ID)
}

func (s *service) findActive(ctx context.Context, owner Owner) (*models.CartRecord, error) {
	if owner.UserID != nil {
		return s.repo.FindActiveByUser(ctx, *owner.UserID)
	}
	return s.repo.FindActiveBySession(ctx, owner.SessionKey)
}

func (s *service) create(ctx context.Context, owner Owner) (*models.CartRecord, error) {
	cart := &models.CartRecord{
		ID:         uuid.New(),
		UserID:     owner.UserID,
		SessionKey: owner.SessionKey,
		Status:     enums.CartStatusActive,
	}
	if err := s.repo.Create(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return cart, nil
}

func (s *service) reload(ctx context.Context, cartID uuid.UUID) (*models.CartRecord, error) {
	cart, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return cart, nil
}

func priceWithOptions(item *models.MenuItem, optionIDs []uuid.UUID) (decimal.Decimal, error) {
	price := item.Price
	for _, optionID := range optionIDs {
		found := false
		for _, option := range item.Options {
			if option.ID == optionID {
				price = price.Add(option.AdditionalPrice)
				found = true
				break
			}
		}
		if !found {
			return decimal.Zero, pkgerrors.Newf(pkgerrors.CodeValidation,
				"option %s does not belong to %s", optionID, item.Name)
		}
	}
	return price.Round(2), nil
}
