package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sliceline/sliceline-backend/api/middleware"
	"github.com/sliceline/sliceline-backend/api/responses"
	"github.com/sliceline/sliceline-backend/api/validators"
	ordersvc "github.com/sliceline/sliceline-backend/internal/orders"
	stocksvc "github.com/sliceline/sliceline-backend/internal/stock"
	"github.com/sliceline/sliceline-backend/pkg/db/models"
	"github.com/sliceline/sliceline-backend/pkg/enums"
	pkgerrors "github.com/sliceline/sliceline-backend/pkg/errors"
	"github.com/sliceline/sliceline-backend/pkg/logger"
)

// StaffActiveOrders lists every order still moving through the kitchen.
func StaffActiveOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]orderResponse, 0, len(active))
		for i := range active {
			out = append(out, newOrderResponse(&active[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// StaffUpdateOrderStatus moves an order one step through its lifecycle.
func StaffUpdateOrderStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), ordersvc.StatusUpdateInput{
			OrderID: orderID,
			Target:  target,
			ActorID: middleware.UserIDFromContext(r.Context()),
			Notes:   payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// StaffRestock adds stock to a tracked menu item.
func StaffRestock(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := menuItemIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload restockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Restock(r.Context(), itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newStockResponse(item))
	}
}

// StaffAdjustStock overwrites a tracked menu item's stock level.
func StaffAdjustStock(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := menuItemIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Adjust(r.Context(), itemID, *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newStockResponse(item))
	}
}

func menuItemIDFromRequest(r *http.Request) (uuid.UUID, error) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid menu item id")
	}
	return itemID, nil
}

type updateStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type restockRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// Quantity is a pointer so an explicit zero survives validation.
type adjustStockRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0"`
}

type stockResponse struct {
	MenuItemID        uuid.UUID `json:"menu_item_id"`
	Name              string    `json:"name"`
	CurrentStock      *int      `json:"current_stock"`
	LowStockThreshold int       `json:"low_stock_threshold"`
}

func newStockResponse(item *models.MenuItem) stockResponse {
	if item == nil {
		return stockResponse{}
	}
	return stockResponse{
		MenuItemID:        item.ID,
		Name:              item.Name,
		CurrentStock:      item.CurrentStock,
		LowStockThreshold: item.LowStockThreshold,
	}
}
