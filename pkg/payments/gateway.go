package payments

import (
	"context"

	"github.com/shopspring/decimal"
)

// Authorization is the result of a successful authorize call.
type Authorization struct {
	TransactionRef string
}

// Gateway is the payment capability the checkout engine consumes. A timeout
// or transport failure is treated as a decline by callers: the surrounding
// unit of work rolls back and nothing is charged twice.
type Gateway interface {
	Authorize(ctx context.Context, paymentToken string, amount decimal.Decimal) (*Authorization, error)
	Refund(ctx context.Context, transactionRef string, amount decimal.Decimal) error
}
