package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sliceline/sliceline-backend/internal/notify"
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

// Actor is the caller of an order operation.
type Actor struct {
	UserID        *uuid.UUID
	Role          enums.ActorRole
	TrackingToken string
}

func (a Actor) isStaff() bool {
	return a.Role.IsStaff()
}

// StatusUpdateInput carries one requested lifecycle transition.
type StatusUpdateInput struct {
	OrderID uuid.UUID
	Target  enums.OrderStatus
	ActorID *uuid.UUID
	Notes   *string
}

// CancelInput carries a cancellation request.
type CancelInput struct {
	OrderID uuid.UUID
	Reason  string
	Actor   Actor
}

// StatusChangedEvent is the payload of order.status_changed.
type StatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	Status      enums.OrderStatus `json:"status"`
	Message     string            `json:"message"`
}

// Service drives orders through their lifecycle after creation.
type Service interface {
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error)
	Track(ctx context.Context, ticket, token string) (*models.Order, error)
	ListActive(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, input StatusUpdateInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
}

type service struct {
	repo               Repository
	tx                 txRunner
	gateway            payments.Gateway
	emitter            notify.Emitter
	metrics            *metrics.CheckoutMetrics
	cancellationWindow time.Duration
}

// NewService builds the order lifecycle service.
func NewService(repo Repository, tx txRunner, gateway payments.Gateway, emitter notify.Emitter, checkoutMetrics *metrics.CheckoutMetrics, cancellationWindow time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if cancellationWindow <= 0 {
		return nil, fmt.Errorf("cancellation window must be positive")
	}
	return &service{
		repo:               repo,
		tx:                 tx,
		gateway:            gateway,
		emitter:            emitter,
		metrics:            checkoutMetrics,
		cancellationWindow: cancellationWindow,
	}, nil
}

func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Track(ctx context.Context, ticket, token string) (*models.Order, error) {
	if ticket == "" || token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket and token required")
	}
	order, err := s.repo.FindByTicket(ctx, ticket)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by ticket")
	}
	if order.TrackingToken == nil || *order.TrackingToken != token {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "invalid tracking token")
	}
	return order, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.Order, error) {
	orders, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active orders")
	}
	return orders, nil
}

func (s *service) UpdateStatus(ctx context.Context, input StatusUpdateInput) (*models.Order, error) {
	if !input.Target.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown status %q", input.Target)
	}

	order, err := s.load(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if !CanTransition(from, input.Target) {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidStatusTransition,
			"cannot move order from %s to %s", from, input.Target)
	}

	now := time.Now()
	updates := map[string]any{"status": input.Target, "updated_at": now}
	switch input.Target {
	case enums.OrderStatusCompleted:
		updates["completed_at"] = now
	case enums.OrderStatusCancelled:
		updates["cancelled_at"] = now
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		applied, err := repo.ApplyTransition(ctx, order.ID, from, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply status transition")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeConflict, "order was updated concurrently")
		}
		history := &models.OrderStatusHistory{
			ID:      uuid.New(),
			OrderID: order.ID,
			Status:  input.Target,
			ActorID: input.ActorID,
			Notes:   input.Notes,
		}
		if err := repo.CreateHistory(ctx, history); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncStatusChange(from.String(), input.Target.String())
	s.emitStatusChanged(ctx, order, input.Target)

	return s.load(ctx, order.ID)
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	order, err := s.load(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeCancel(input.Actor, order); err != nil {
		return nil, err
	}

	if order.Status != enums.OrderStatusReceived {
		return nil, pkgerrors.Newf(pkgerrors.CodeCancellationNotAllowed,
			"order can no longer be cancelled in status %s", order.Status)
	}
	if time.Since(order.CreatedAt) > s.cancellationWindow {
		return nil, pkgerrors.Newf(pkgerrors.CodeCancellationNotAllowed,
			"cancellation window of %s has passed", s.cancellationWindow)
	}

	now := time.Now()
	reason := input.Reason
	updates := map[string]any{
		"status":              enums.OrderStatusCancelled,
		"payment_status":      enums.PaymentStatusRefunded,
		"cancelled_at":        now,
		"updated_at":          now,
		"cancellation_reason": reason,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		applied, err := repo.ApplyTransition(ctx, order.ID, enums.OrderStatusReceived, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply cancellation")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeCancellationNotAllowed,
				"order can no longer be cancelled")
		}

		if order.PaymentRef != nil {
			if err := s.gateway.Refund(ctx, *order.PaymentRef, order.TotalAmount); err != nil {
				return err
			}
		}

		history := &models.OrderStatusHistory{
			ID:      uuid.New(),
			OrderID: order.ID,
			Status:  enums.OrderStatusCancelled,
			ActorID: input.Actor.UserID,
			Notes:   &reason,
		}
		if err := repo.CreateHistory(ctx, history); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncStatusChange(enums.OrderStatusReceived.String(), enums.OrderStatusCancelled.String())
	s.emitStatusChanged(ctx, order, enums.OrderStatusCancelled)

	return s.load(ctx, order.ID)
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) emitStatusChanged(ctx context.Context, order *models.Order, status enums.OrderStatus) {
	s.emitter.Emit(ctx, notify.Event{
		Envelope: types.EventEnvelope{
			Event: enums.EventOrderStatusChanged,
			Data: StatusChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				Status:      status,
				Message:     StatusMessage(status),
			},
		},
		CustomerKey: CustomerKey(order),
	})
}

// CustomerKey derives the notification routing key for an order: the user
// id for account holders, the tracking token for guests.
func CustomerKey(order *models.Order) string {
	if order.UserID != nil {
		return order.UserID.String()
	}
	if order.TrackingToken != nil {
		return *order.TrackingToken
	}
	return ""
}

func authorizeRead(actor Actor, order *models.Order) error {
	if actor.isStaff() {
		return nil
	}
	if actor.UserID != nil && order.UserID != nil && *actor.UserID == *order.UserID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
}

func authorizeCancel(actor Actor, order *models.Order) error {
	if actor.isStaff() {
		return nil
	}
	if actor.UserID != nil && order.UserID != nil && *actor.UserID == *order.UserID {
		return nil
	}
	if actor.TrackingToken != "" && order.TrackingToken != nil && actor.TrackingToken == *order.TrackingToken {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
}
