package checkout

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sliceline/sliceline-backend/internal/cart"
	"github.com/sliceline/sliceline-backend/internal/discounts"
	"github.com/sliceline/sliceline-backend/internal/menu"
	"github.com/sliceline/sliceline-backend/internal/notify"
	"github.com/sliceline/sliceline-backend/internal/orders"
	"github.com/sliceline/sliceline-backend/internal/pricing"
	"github.com/sliceline/sliceline-backend/internal/stock"
	"github.com/sliceline/sliceline-backend/internal/zones"
	"github.com/sliceline/sliceline-backend/pkg/config"
	"github.com/sliceline/sliceline-backend/pkg/db/models"
	"github.com/sliceline/sliceline-backend/pkg/enums"
	pkgerrors "github.com/sliceline/sliceline-backend/pkg/errors"
	"github.com/sliceline/sliceline-backend/pkg/metrics"
	"github.com/sliceline/sliceline-backend/pkg/payments"
	"github.com/sliceline/sliceline-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type loyaltyCreditor interface {
	Credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, points int64, orderID *uuid.UUID, description string) (*models.PointsTransaction, error)
}

// QuoteInput identifies the cart to price and how it will be fulfilled.
type QuoteInput struct {
	Owner         cart.Owner
	OrderType     enums.OrderType
	DiscountCode  string
	DeliveryPoint *types.GeoPoint
}

// QuoteResult is the priced cart plus the resolved delivery context.
type QuoteResult struct {
	Quote    pricing.Quote
	Zone     *models.DeliveryZone
	Discount *models.DiscountCode
}

// PlaceOrderInput carries everything needed to turn a cart into an order.
type PlaceOrderInput struct {
	QuoteInput
	DeliveryAddress string
	PaymentToken    string
	Notes           *string
}

// NewOrderEvent is the payload of order.new.
type NewOrderEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	OrderType   enums.OrderType `json:"order_type"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
}

// Service turns carts into quotes and quotes into orders. Order creation is
// a single transaction: stock reservation, discount redemption, payment
// authorization and every order row commit together or not at all.
type Service interface {
	Quote(ctx context.Context, input QuoteInput) (*QuoteResult, error)
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
}

// Deps wires the checkout orchestrator.
type Deps struct {
	Sequences  Repository
	Orders     orders.Repository
	Carts      cart.Repository
	Menu       menu.Repository
	Discounts  discounts.Service
	Stock      stock.Service
	Loyalty    loyaltyCreditor
	Zones      zones.Service
	Calculator *pricing.Calculator
	Gateway    payments.Gateway
	Emitter    notify.Emitter
	Metrics    *metrics.CheckoutMetrics
	Tx         txRunner
}

type service struct {
	deps             Deps
	pointsRate       decimal.Decimal
	loyaltyBasis     string
	authorizeTimeout time.Duration
}

// NewService builds the checkout service.
func NewService(deps Deps, loyaltyCfg config.LoyaltyConfig, paymentsCfg config.PaymentsConfig) (Service, error) {
	switch {
	case deps.Sequences == nil:
		return nil, fmt.Errorf("sequence repository required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case deps.Menu == nil:
		return nil, fmt.Errorf("menu repository required")
	case deps.Discounts == nil:
		return nil, fmt.Errorf("discounts service required")
	case deps.Stock == nil:
		return nil, fmt.Errorf("stock service required")
	case deps.Loyalty == nil:
		return nil, fmt.Errorf("loyalty service required")
	case deps.Zones == nil:
		return nil, fmt.Errorf("zones service required")
	case deps.Calculator == nil:
		return nil, fmt.Errorf("calculator required")
	case deps.Gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	case deps.Emitter == nil:
		return nil, fmt.Errorf("event emitter required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	}
	rate, err := loyaltyCfg.PointsRateDecimal()
	if err != nil {
		return nil, err
	}
	if paymentsCfg.AuthorizeTimeout <= 0 {
		return nil, fmt.Errorf("payment authorize timeout must be positive")
	}
	return &service{
		deps:             deps,
		pointsRate:       rate,
		loyaltyBasis:     loyaltyCfg.Basis,
		authorizeTimeout: paymentsCfg.AuthorizeTimeout,
	}, nil
}

func (s *service) Quote(ctx context.Context, input QuoteInput) (*QuoteResult, error) {
	qc, err := s.buildQuote(ctx, input)
	if err != nil {
		return nil, err
	}
	return &QuoteResult{Quote: qc.quote, Zone: qc.zone, Discount: qc.discount}, nil
}

func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	start := time.Now()
	order, err := s.placeOrder(ctx, input)
	if err != nil {
		code := pkgerrors.CodeInternal
		if appErr := pkgerrors.As(err); appErr != nil {
			code = appErr.Code()
		}
		s.deps.Metrics.IncCheckoutFailure(string(code))
		return nil, err
	}
	s.deps.Metrics.ObserveDuration(order.OrderType.String(), time.Since(start))
	s.deps.Metrics.IncOrderCreated(order.OrderType.String())
	return order, nil
}

// quoteContext carries the loaded cart through pricing into order creation.
type quoteContext struct {
	cart     *models.CartRecord
	items    map[uuid.UUID]*models.MenuItem
	lines    []pricing.Line
	subtotal decimal.Decimal
	zone     *models.DeliveryZone
	discount *models.DiscountCode
	quote    pricing.Quote
}

func (s *service) buildQuote(ctx context.Context, input QuoteInput) (*quoteContext, error) {
	if !input.OrderType.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown order type %q", input.OrderType)
	}

	active, err := s.loadCart(ctx, input.Owner)
	if err != nil {
		return nil, err
	}
	if len(active.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	items, err := s.loadMenuItems(ctx, active)
	if err != nil {
		return nil, err
	}

	qc := &quoteContext{cart: active, items: items}
	for _, line := range active.Items {
		qc.lines = append(qc.lines, pricing.Line{UnitPrice: line.UnitPrice, Quantity: line.Quantity})
		qc.subtotal = qc.subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	qc.subtotal = qc.subtotal.Round(2)

	deliveryFee := decimal.Zero
	if input.OrderType == enums.OrderTypeDelivery {
		if input.DeliveryPoint == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery coordinates required")
		}
		zone, err := s.deps.Zones.Resolve(ctx, *input.DeliveryPoint)
		if err != nil {
			return nil, err
		}
		if qc.subtotal.LessThan(zone.MinimumOrderValue) {
			return nil, pkgerrors.Newf(pkgerrors.CodeMinimumOrderNotMet,
				"order must be at least %s for delivery to %s",
				zone.MinimumOrderValue.StringFixed(2), zone.Name)
		}
		qc.zone = zone
		deliveryFee = zone.DeliveryFee
	}

	var priced *pricing.Discount
	if input.DiscountCode != "" {
		itemIDs := make([]uuid.UUID, 0, len(active.Items))
		categories := make([]string, 0, len(active.Items))
		for _, line := range active.Items {
			itemIDs = append(itemIDs, line.MenuItemID)
			if item, ok := items[line.MenuItemID]; ok {
				categories = append(categories, item.Category)
			}
		}
		discount, err := s.deps.Discounts.Validate(ctx, discounts.ValidateInput{
			Code:       input.DiscountCode,
			OrderType:  input.OrderType,
			OrderValue: qc.subtotal,
			ItemIDs:    itemIDs,
			Categories: categories,
			UserID:     input.Owner.UserID,
			Now:        time.Now(),
		})
		if err != nil {
			return nil, err
		}
		qc.discount = discount
		priced = &pricing.Discount{Type: discount.Type, Value: discount.Value}
	}

	qc.quote = s.deps.Calculator.Calculate(pricing.Input{
		Lines:       qc.lines,
		OrderType:   input.OrderType,
		DeliveryFee: deliveryFee,
		Discount:    priced,
	})
	return qc, nil
}

func (s *service) loadCart(ctx context.Context, owner cart.Owner) (*models.CartRecord, error) {
	if owner.UserID == nil && owner.SessionKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner required")
	}
	var (
		active *models.CartRecord
		err    error
	)
	if owner.UserID != nil {
		active, err = s.deps.Carts.FindActiveByUser(ctx, *owner.UserID)
	} else {
		active, err = s.deps.Carts.FindActiveBySession(ctx, owner.SessionKey)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return active, nil
}

func (s *service) loadMenuItems(ctx context.Context, active *models.CartRecord) (map[uuid.UUID]*models.MenuItem, error) {
	ids := make([]uuid.UUID, 0, len(active.Items))
	for _, line := range active.Items {
		ids = append(ids, line.MenuItemID)
	}
	loaded, err := s.deps.Menu.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu items")
	}
	items := make(map[uuid.UUID]*models.MenuItem, len(loaded))
	for i := range loaded {
		items[loaded[i].ID] = &loaded[i]
	}
	for _, line := range active.Items {
		item, ok := items[line.MenuItemID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a cart item is no longer on the menu")
		}
		if !item.IsAvailable {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s is no longer available", item.Name)
		}
	}
	return items, nil
}

func (s *service) placeOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if input.PaymentToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment token required")
	}
	if input.OrderType == enums.OrderTypeDelivery && input.DeliveryAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
	}

	qc, err := s.buildQuote(ctx, input.QuoteInput)
	if err != nil {
		return nil, err
	}

	var (
		orderID uuid.UUID
		alerts  []stock.LowStockAlert
	)
	err = s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		seq := s.deps.Sequences.WithTx(tx)
		ordersRepo := s.deps.Orders.WithTx(tx)

		order, err := s.newOrder(ctx, seq, qc, input)
		if err != nil {
			return err
		}
		if err := ordersRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		orderID = order.ID

		if err := ordersRepo.CreateItems(ctx, s.snapshotItems(order.ID, qc)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		lines := make([]stock.ReservationLine, 0, len(qc.cart.Items))
		for _, line := range qc.cart.Items {
			lines = append(lines, stock.ReservationLine{MenuItemID: line.MenuItemID, Quantity: line.Quantity})
		}
		alerts, err = s.deps.Stock.Reserve(ctx, tx, order.ID, lines)
		if err != nil {
			return err
		}

		if qc.discount != nil {
			if err := s.deps.Discounts.Commit(ctx, tx, qc.discount.ID, order.ID, input.Owner.UserID); err != nil {
				return err
			}
		}

		auth, err := s.authorize(ctx, input.PaymentToken, qc.quote.TotalAmount)
		if err != nil {
			return err
		}
		err = tx.WithContext(ctx).Model(&models.Order{}).
			Where("id = ?", order.ID).
			Updates(map[string]any{
				"payment_status": enums.PaymentStatusPaid,
				"payment_ref":    auth.TransactionRef,
			}).Error
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
		}

		history := &models.OrderStatusHistory{
			ID:      uuid.New(),
			OrderID: order.ID,
			Status:  enums.OrderStatusReceived,
			ActorID: input.Owner.UserID,
		}
		if err := ordersRepo.CreateHistory(ctx, history); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
		}

		invoiceSeq, err := seq.NextSequence(ctx, SequenceInvoices)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate invoice number")
		}
		invoice := &models.Invoice{
			ID:            uuid.New(),
			OrderID:       order.ID,
			InvoiceNumber: fmt.Sprintf("INV-%06d", invoiceSeq),
			Amount:        qc.quote.TotalAmount,
		}
		if err := ordersRepo.CreateInvoice(ctx, invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
		}

		if input.Owner.UserID != nil {
			if err := s.creditPoints(ctx, tx, *input.Owner.UserID, order, qc.quote); err != nil {
				return err
			}
		}

		if err := s.deps.Carts.WithTx(tx).MarkConverted(ctx, qc.cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark cart converted")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.deps.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}

	s.emitOrderNew(ctx, order)
	s.emitLowStock(ctx, alerts)
	return order, nil
}

func (s *service) newOrder(ctx context.Context, seq Repository, qc *quoteContext, input PlaceOrderInput) (*models.Order, error) {
	orderSeq, err := seq.NextSequence(ctx, SequenceOrders)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
	}

	order := &models.Order{
		ID:             uuid.New(),
		OrderNumber:    fmt.Sprintf("ORD-%06d", orderSeq),
		UserID:         input.Owner.UserID,
		OrderType:      input.OrderType,
		Status:         enums.OrderStatusReceived,
		Subtotal:       qc.quote.Subtotal,
		DiscountAmount: qc.quote.DiscountAmount,
		DeliveryFee:    qc.quote.DeliveryFee,
		TaxAmount:      qc.quote.TaxAmount,
		TotalAmount:    qc.quote.TotalAmount,
		PaymentStatus:  enums.PaymentStatusPending,
		Notes:          input.Notes,
	}
	if qc.discount != nil {
		order.DiscountCodeID = &qc.discount.ID
	}
	if qc.zone != nil {
		order.DeliveryZoneID = &qc.zone.ID
		order.DeliveryAddress = &input.DeliveryAddress
		order.DeliveryPoint = input.DeliveryPoint
	}

	// Guests get a ticket number and a tracking token instead of an account.
	if input.Owner.UserID == nil {
		ticketSeq, err := seq.NextSequence(ctx, SequenceTickets)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate ticket number")
		}
		ticket := fmt.Sprintf("SL-%06d", ticketSeq)
		token, err := newTrackingToken()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate tracking token")
		}
		order.TicketNumber = &ticket
		order.TrackingToken = &token
	}
	return order, nil
}

func (s *service) snapshotItems(orderID uuid.UUID, qc *quoteContext) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(qc.cart.Items))
	for _, line := range qc.cart.Items {
		menuItemID := line.MenuItemID
		snapshot := models.OrderItem{
			ID:         uuid.New(),
			OrderID:    orderID,
			MenuItemID: &menuItemID,
			UnitPrice:  line.UnitPrice,
			Quantity:   line.Quantity,
			LineTotal:  line.LineTotal,
		}
		if item, ok := qc.items[line.MenuItemID]; ok {
			snapshot.Name = item.Name
			for _, optionID := range line.OptionIDs {
				for _, option := range item.Options {
					if option.ID == optionID {
						snapshot.Options = append(snapshot.Options, models.OrderItemOption{
							Name:            option.Name,
							AdditionalPrice: option.AdditionalPrice,
						})
						break
					}
				}
			}
		}
		items = append(items, snapshot)
	}
	return items
}

// authorize charges the card under its own deadline so a slow gateway cannot
// hold the checkout transaction open indefinitely.
func (s *service) authorize(ctx context.Context, token string, amount decimal.Decimal) (*payments.Authorization, error) {
	authCtx, cancel := context.WithTimeout(ctx, s.authorizeTimeout)
	defer cancel()

	auth, err := s.deps.Gateway.Authorize(authCtx, token, amount)
	if err != nil {
		s.deps.Metrics.IncPaymentDecline()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, pkgerrors.Wrap(pkgerrors.CodePaymentFailed, err, "payment authorization timed out")
		}
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentFailed, err, "payment was declined")
	}
	return auth, nil
}

func (s *service) creditPoints(ctx context.Context, tx *gorm.DB, userID uuid.UUID, order *models.Order, quote pricing.Quote) error {
	basis := quote.Subtotal.Sub(quote.DiscountAmount)
	if s.loyaltyBasis == config.LoyaltyBasisTotal {
		basis = quote.TotalAmount
	}
	points := basis.Mul(s.pointsRate).Floor().IntPart()
	if points <= 0 {
		return nil
	}
	_, err := s.deps.Loyalty.Credit(ctx, tx, userID, points, &order.ID,
		fmt.Sprintf("Points earned on order %s", order.OrderNumber))
	return err
}

func (s *service) emitOrderNew(ctx context.Context, order *models.Order) {
	s.deps.Emitter.Emit(ctx, notify.Event{
		Envelope: types.EventEnvelope{
			Event: enums.EventOrderNew,
			Data: NewOrderEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				OrderType:   order.OrderType,
				TotalAmount: order.TotalAmount,
				ItemCount:   len(order.Items),
			},
		},
		CustomerKey: orders.CustomerKey(order),
	})
}

func (s *service) emitLowStock(ctx context.Context, alerts []stock.LowStockAlert) {
	for _, alert := range alerts {
		s.deps.Emitter.Emit(ctx, notify.Event{
			Envelope: types.EventEnvelope{Event: enums.EventStockLow, Data: alert},
		})
	}
}

func newTrackingToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
