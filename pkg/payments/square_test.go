package payments

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sliceline/sliceline-backend/pkg/config"
	"github.com/sliceline/sliceline-backend/pkg/logger"
)

func testGateway(t *testing.T) *SquareGateway {
	t.Helper()
	g, err := NewSquareGateway(context.Background(), config.PaymentsConfig{
		SquareAccessToken: "test-token",
		SquareEnv:         "sandbox",
		Currency:          "eur",
	}, logger.New(logger.Options{ServiceName: "test"}))
	require.NoError(t, err)
	return g
}

func TestNewSquareGatewayRejectsBadConfig(t *testing.T) {
	t.Parallel()
	logg := logger.New(logger.Options{ServiceName: "test"})

	_, err := NewSquareGateway(context.Background(), config.PaymentsConfig{
		SquareAccessToken: "test-token",
		SquareEnv:         "staging",
	}, logg)
	require.ErrorIs(t, err, errInvalidSquareEnv)

	_, err = NewSquareGateway(context.Background(), config.PaymentsConfig{
		SquareEnv: "sandbox",
	}, logg)
	require.ErrorIs(t, err, errAccessTokenRequired)
}

func TestAuthorizeRejectsInvalidInput(t *testing.T) {
	t.Parallel()
	g := testGateway(t)

	_, err := g.Authorize(context.Background(), "  ", decimal.RequireFromString("10.00"))
	require.Error(t, err)

	_, err = g.Authorize(context.Background(), "tok-1", decimal.Zero)
	require.Error(t, err)
}

func TestRefundIdempotencyKeyStablePerPayment(t *testing.T) {
	t.Parallel()

	first := refundIdempotencyKey("pay-123")
	second := refundIdempotencyKey("pay-123")
	require.Equal(t, first, second, "retried refunds must submit the same key")
	require.True(t, strings.HasSuffix(first, "pay-123"))

	require.NotEqual(t, first, refundIdempotencyKey("pay-456"))
}

func TestMoneyConvertsToCents(t *testing.T) {
	t.Parallel()
	g := testGateway(t)

	money := g.money(decimal.RequireFromString("22.14"))
	require.EqualValues(t, 2214, *money.Amount)
	require.EqualValues(t, "EUR", *money.Currency)
}
