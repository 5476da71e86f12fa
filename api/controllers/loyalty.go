package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sliceline/sliceline-backend/api/middleware"
	"github.com/sliceline/sliceline-backend/api/responses"
	"github.com/sliceline/sliceline-backend/api/validators"
	loyaltysvc "github.com/sliceline/sliceline-backend/internal/loyalty"
	pkgerrors "github.com/sliceline/sliceline-backend/pkg/errors"
	"github.com/sliceline/sliceline-backend/pkg/logger"
)

// LoyaltyBalance returns the caller's current points balance.
func LoyaltyBalance(svc loyaltysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required"))
			return
		}

		balance, err := svc.Balance(r.Context(), *userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"balance": balance})
	}
}

// LoyaltyHistory lists the caller's most recent points transactions.
func LoyaltyHistory(svc loyaltysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txns, err := svc.History(r.Context(), *userID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]pointsTransactionResponse, 0, len(txns))
		for _, txn := range txns {
			out = append(out, pointsTransactionResponse{
				TransactionID:  txn.ID,
				OrderID:        txn.OrderID,
				Type:           txn.Type.String(),
				Points:         txn.Points,
				RunningBalance: txn.RunningBalance,
				Description:    txn.Description,
				CreatedAt:      txn.CreatedAt,
			})
		}
		responses.WriteSuccess(w, out)
	}
}

type pointsTransactionResponse struct {
	TransactionID  uuid.UUID  `json:"transaction_id"`
	OrderID        *uuid.UUID `json:"order_id,omitempty"`
	Type           string     `json:"type"`
	Points         int64      `json:"points"`
	RunningBalance int64      `json:"running_balance"`
	Description    string     `json:"description"`
	CreatedAt      time.Time  `json:"created_at"`
}
