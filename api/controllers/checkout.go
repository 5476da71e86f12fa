package controllers

import (
	"net/http"

	"github.com/sliceline/sliceline-backend/api/responses"
	"github.com/sliceline/sliceline-backend/api/validators"
	checkoutsvc "github.com/sliceline/sliceline-backend/internal/checkout"
	"github.com/sliceline/sliceline-backend/pkg/enums"
	pkgerrors "github.com/sliceline/sliceline-backend/pkg/errors"
	"github.com/sliceline/sliceline-backend/pkg/logger"
	"github.com/sliceline/sliceline-backend/pkg/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutQuote prices the caller's cart without creating anything.
func CheckoutQuote(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := cartOwnerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderType, err := enums.ParseOrderType(payload.OrderType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order type"))
			return
		}

		result, err := svc.Quote(r.Context(), checkoutsvc.QuoteInput{
			Owner:         owner,
			OrderType:     orderType,
			DiscountCode:  payload.DiscountCode,
			DeliveryPoint: payload.DeliveryPoint,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newQuoteResponse(result))
	}
}

// CheckoutPlaceOrder turns the caller's cart into a paid order.
func CheckoutPlaceOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := cartOwnerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderType, err := enums.ParseOrderType(payload.OrderType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order type"))
			return
		}

		order, err := svc.PlaceOrder(r.Context(), checkoutsvc.PlaceOrderInput{
			QuoteInput: checkoutsvc.QuoteInput{
				Owner:         owner,
				OrderType:     orderType,
				DiscountCode:  payload.DiscountCode,
				DeliveryPoint: payload.DeliveryPoint,
			},
			DeliveryAddress: payload.DeliveryAddress,
			PaymentToken:    payload.PaymentToken,
			Notes:           payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

type quoteRequest struct {
	OrderType     string          `json:"order_type" validate:"required,oneof=collection delivery"`
	DiscountCode  string          `json:"discount_code,omitempty"`
	DeliveryPoint *types.GeoPoint `json:"delivery_point,omitempty"`
}

type placeOrderRequest struct {
	OrderType       string          `json:"order_type" validate:"required,oneof=collection delivery"`
	DiscountCode    string          `json:"discount_code,omitempty"`
	DeliveryPoint   *types.GeoPoint `json:"delivery_point,omitempty"`
	DeliveryAddress string          `json:"delivery_address,omitempty" validate:"omitempty,max=500"`
	PaymentToken    string          `json:"payment_token" validate:"required"`
	Notes           *string         `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type quoteResponse struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`

	DiscountCode             *string    `json:"discount_code,omitempty"`
	DeliveryZoneID           *uuid.UUID `json:"delivery_zone_id,omitempty"`
	DeliveryZoneName         *string    `json:"delivery_zone_name,omitempty"`
	EstimatedDeliveryMinutes *int       `json:"estimated_delivery_minutes,omitempty"`
}

func newQuoteResponse(result *checkoutsvc.QuoteResult) quoteResponse {
	if result == nil {
		return quoteResponse{}
	}
	resp := quoteResponse{
		Subtotal:       result.Quote.Subtotal,
		DiscountAmount: result.Quote.DiscountAmount,
		DeliveryFee:    result.Quote.DeliveryFee,
		TaxAmount:      result.Quote.TaxAmount,
		TotalAmount:    result.Quote.TotalAmount,
	}
	if result.Discount != nil {
		resp.DiscountCode = &result.Discount.Code
	}
	if result.Zone != nil {
		resp.DeliveryZoneID = &result.Zone.ID
		resp.DeliveryZoneName = &result.Zone.Name
		resp.EstimatedDeliveryMinutes = &result.Zone.EstimatedDeliveryMinutes
	}
	return resp
}
