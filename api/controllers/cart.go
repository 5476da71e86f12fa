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
	cartsvc "github.com/sliceline/sliceline-backend/internal/cart"
	"github.com/sliceline/sliceline-backend/pkg/db/models"
	pkgerrors "github.com/sliceline/sliceline-backend/pkg/errors"
	"github.com/sliceline/sliceline-backend/pkg/logger"
)

// CartFetch returns the caller's active cart, creating one on first use.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := cartOwnerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetActive(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// CartAddItem adds one priced line to the caller's cart.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := cartOwnerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartAddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.AddItem(r.Context(), owner, cartsvc.AddItemInput{
			MenuItemID: payload.MenuItemID,
			Quantity:   payload.Quantity,
			OptionIDs:  payload.OptionIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(record))
	}
}

// CartRemoveItem deletes one line from the caller's cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := cartOwnerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid cart item id"))
			return
		}

		record, err := svc.RemoveItem(r.Context(), owner, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(record))
	}
}

func cartOwnerFromRequest(r *http.Request) (cartsvc.Owner, error) {
	owner := cartsvc.Owner{
		UserID:     middleware.UserIDFromContext(r.Context()),
		SessionKey: middleware.SessionKeyFromContext(r.Context()),
	}
	if owner.UserID == nil && owner.SessionKey == "" {
		return cartsvc.Owner{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in or provide a session key")
	}
	return owner, nil
}

type cartAddItemRequest struct {
	MenuItemID uuid.UUID   `json:"menu_item_id" validate:"required"`
	Quantity   int         `json:"quantity" validate:"required,min=1,max=50"`
	OptionIDs  []uuid.UUID `json:"option_ids,omitempty"`
}

type cartResponse struct {
	CartID    uuid.UUID          `json:"cart_id"`
	Status    string             `json:"status"`
	Items     []cartItemResponse `json:"items"`
	Subtotal  decimal.Decimal    `json:"subtotal"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type cartItemResponse struct {
	ItemID     uuid.UUID       `json:"item_id"`
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Quantity   int             `json:"quantity"`
	OptionIDs  []uuid.UUID     `json:"option_ids,omitempty"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
}

func newCartResponse(record *models.CartRecord) cartResponse {
	if record == nil {
		return cartResponse{}
	}
	resp := cartResponse{
		CartID:    record.ID,
		Status:    record.Status.String(),
		Items:     make([]cartItemResponse, 0, len(record.Items)),
		Subtotal:  decimal.Zero,
		UpdatedAt: record.UpdatedAt,
	}
	for _, line := range record.Items {
		resp.Items = append(resp.Items, cartItemResponse{
			ItemID:     line.ID,
			MenuItemID: line.MenuItemID,
			Quantity:   line.Quantity,
			OptionIDs:  line.OptionIDs,
			UnitPrice:  line.UnitPrice,
			LineTotal:  line.LineTotal,
		})
		resp.Subtotal = resp.Subtotal.Add(line.LineTotal)
	}
	resp.Subtotal = resp.Subtotal.Round(2)
	return resp
}
