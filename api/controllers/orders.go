package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sliceline/sliceline-backend/api/middleware"
	"github.com/sliceline/sliceline-backend/api/responses"
	"github.com/sliceline/sliceline-backend/api/validators"
	ordersvc "github.com/sliceline/sliceline-backend/internal/orders"
	"github.com/sliceline/sliceline-backend/pkg/db/models"
	pkgerrors "github.com/sliceline/sliceline-backend/pkg/errors"
	"github.com/sliceline/sliceline-backend/pkg/logger"
)

// OrderDetail returns one order to its owner or to staff.
func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), actorFromRequest(r, ""), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// OrderCancel cancels a freshly received order and refunds the payment.
func OrderCancel(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), ordersvc.CancelInput{
			OrderID: orderID,
			Reason:  payload.Reason,
			Actor:   actorFromRequest(r, payload.TrackingToken),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// OrderTrack lets a guest follow their order by ticket number and token.
func OrderTrack(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticket := chi.URLParam(r, "ticket")
		token := r.URL.Query().Get("token")

		order, err := svc.Track(r.Context(), ticket, token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

func orderIDFromRequest(r *http.Request) (uuid.UUID, error) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id")
	}
	return orderID, nil
}

func actorFromRequest(r *http.Request, trackingToken string) ordersvc.Actor {
	return ordersvc.Actor{
		UserID:        middleware.UserIDFromContext(r.Context()),
		Role:          middleware.RoleFromContext(r.Context()),
		TrackingToken: trackingToken,
	}
}

type cancelOrderRequest struct {
	Reason        string `json:"reason" validate:"required,max=500"`
	TrackingToken string `json:"tracking_token,omitempty"`
}

type orderResponse struct {
	OrderID        uuid.UUID       `json:"order_id"`
	OrderNumber    string          `json:"order_number"`
	TicketNumber   *string         `json:"ticket_number,omitempty"`
	TrackingToken  *string         `json:"tracking_token,omitempty"`
	OrderType      string          `json:"order_type"`
	Status         string          `json:"status"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentStatus  string          `json:"payment_status"`

	DeliveryAddress *string `json:"delivery_address,omitempty"`

	Items         []orderItemResponse     `json:"items"`
	StatusHistory []statusHistoryResponse `json:"status_history,omitempty"`

	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type orderItemResponse struct {
	Name      string                   `json:"name"`
	UnitPrice decimal.Decimal          `json:"unit_price"`
	Quantity  int                      `json:"quantity"`
	Options   []models.OrderItemOption `json:"options,omitempty"`
	LineTotal decimal.Decimal          `json:"line_total"`
}

type statusHistoryResponse struct {
	Status    string    `json:"status"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	resp := orderResponse{
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		TicketNumber:    order.TicketNumber,
		TrackingToken:   order.TrackingToken,
		OrderType:       order.OrderType.String(),
		Status:          order.Status.String(),
		Subtotal:        order.Subtotal,
		DiscountAmount:  order.DiscountAmount,
		DeliveryFee:     order.DeliveryFee,
		TaxAmount:       order.TaxAmount,
		TotalAmount:     order.TotalAmount,
		PaymentStatus:   order.PaymentStatus.String(),
		DeliveryAddress: order.DeliveryAddress,
		Items:           make([]orderItemResponse, 0, len(order.Items)),
		Notes:           order.Notes,
		CreatedAt:       order.CreatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Options:   item.Options,
			LineTotal: item.LineTotal,
		})
	}
	for _, row := range order.StatusHistory {
		resp.StatusHistory = append(resp.StatusHistory, statusHistoryResponse{
			Status:    row.Status.String(),
			Notes:     row.Notes,
			CreatedAt: row.CreatedAt,
		})
	}
	return resp
}
