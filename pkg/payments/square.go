package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/sliceline/sliceline-backend/pkg/config"
	pkgerrors "github.com/sliceline/sliceline-backend/pkg/errors"
	"github.com/sliceline/sliceline-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"
)

var (
	errAccessTokenRequired = errors.New("square access token is required")
	errLoggerRequired      = errors.New("square logger is required")
	errInvalidSquareEnv    = fmt.Errorf("square environment must be %q or %q", sandboxEnv, productionEnv)
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://connect.squareupsandbox.com",
	productionEnv: "https://connect.squareup.com",
}

// SquareGateway implements Gateway on top of the Square Payments API with
// centralized logging, idempotency keys, and error mapping.
type SquareGateway struct {
	sdk        *sqclient.Client
	locationID string
	currency   string
	logger     *logger.Logger
}

// NewSquareGateway initializes the Square wrapper and validates credentials.
func NewSquareGateway(ctx context.Context, cfg config.PaymentsConfig, logg *logger.Logger) (*SquareGateway, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env := strings.ToLower(strings.TrimSpace(cfg.SquareEnv))
	baseURL, ok := baseURLs[env]
	if !ok {
		return nil, errInvalidSquareEnv
	}
	accessToken := strings.TrimSpace(cfg.SquareAccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}

	sdk := sqclient.NewClient(
		sqoption.WithBaseURL(baseURL),
		sqoption.WithToken(accessToken),
	)

	g := &SquareGateway{
		sdk:        sdk,
		locationID: strings.TrimSpace(cfg.SquareLocationID),
		currency:   strings.ToUpper(strings.TrimSpace(cfg.Currency)),
		logger:     logg,
	}

	logg.Info(ctx, "square gateway initialized")
	return g, nil
}

// Authorize charges the tokenized payment method for the given amount.
func (g *SquareGateway) Authorize(ctx context.Context, paymentToken string, amount decimal.Decimal) (*Authorization, error) {
	if strings.TrimSpace(paymentToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment token required")
	}
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authorization amount must be positive")
	}

	req := &sq.CreatePaymentRequest{
		IdempotencyKey: newIdempotencyKey("payment.create"),
		SourceID:       paymentToken,
		AmountMoney:    g.money(amount),
	}
	if g.locationID != "" {
		req.LocationID = &g.locationID
	}

	g.log(ctx, "request", "create_payment", map[string]any{"amount": amount.StringFixed(2)})

	resp, err := g.sdk.Payments.Create(ctx, req)
	if err != nil {
		g.log(ctx, "error", "create_payment", map[string]any{"error": err.Error()})
		return nil, g.mapSquareError(err, "create payment")
	}

	payment := resp.GetPayment()
	ref := stringValue(payment.GetID())
	g.log(ctx, "response", "create_payment", map[string]any{
		"payment_id": ref,
		"status":     stringValue(payment.GetStatus()),
	})
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodePaymentFailed, "gateway returned no transaction reference")
	}
	return &Authorization{TransactionRef: ref}, nil
}

// Refund returns the given amount against a prior authorization.
func (g *SquareGateway) Refund(ctx context.Context, transactionRef string, amount decimal.Decimal) error {
	if strings.TrimSpace(transactionRef) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction reference required")
	}
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}

	req := &sq.RefundPaymentRequest{
		IdempotencyKey: refundIdempotencyKey(transactionRef),
		PaymentID:      &transactionRef,
		AmountMoney:    g.money(amount),
	}

	g.log(ctx, "request", "refund_payment", map[string]any{
		"payment_id": transactionRef,
		"amount":     amount.StringFixed(2),
	})

	resp, err := g.sdk.Refunds.RefundPayment(ctx, req)
	if err != nil {
		g.log(ctx, "error", "refund_payment", map[string]any{"error": err.Error()})
		return g.mapSquareError(err, "refund payment")
	}

	refund := resp.GetRefund()
	g.log(ctx, "response", "refund_payment", map[string]any{
		"refund_id": refund.GetID(),
		"status":    stringValue(refund.GetStatus()),
	})
	return nil
}

func (g *SquareGateway) money(amount decimal.Decimal) *sq.Money {
	cents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	currency := sq.Currency(g.currency)
	return &sq.Money{
		Amount:   &cents,
		Currency: &currency,
	}
}

func (g *SquareGateway) log(ctx context.Context, phase, op string, fields map[string]any) {
	if g == nil || g.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = g.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		g.logger.Error(ctx, fmt.Sprintf("square %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		g.logger.Info(ctx, fmt.Sprintf("square %s", phase))
	}
}

func (g *SquareGateway) mapSquareError(err error, op string) error {
	if err == nil {
		return nil
	}
	var apiErr *sqcore.APIError
	if errors.As(err, &apiErr) {
		// Any definitive gateway response means the charge did not go
		// through; the caller rolls back and surfaces the decline.
		return pkgerrors.Wrap(pkgerrors.CodePaymentFailed, err, fmt.Sprintf("square %s failed", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("square %s failed", op))
}

func newIdempotencyKey(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// refundIdempotencyKey is stable per payment: a cancellation retried after a
// partial failure submits the same key and Square deduplicates the refund.
func refundIdempotencyKey(transactionRef string) string {
	return fmt.Sprintf("payment.refund-%s", transactionRef)
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
