package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	cartsvc "github.com/sliceline/sliceline-backend/internal/cart"
	checkoutsvc "github.com/sliceline/sliceline-backend/internal/checkout"
	"github.com/sliceline/sliceline-backend/internal/notify"
	ordersvc "github.com/sliceline/sliceline-backend/internal/orders"
	stocksvc "github.com/sliceline/sliceline-backend/internal/stock"
	pkgauth "github.com/sliceline/sliceline-backend/pkg/auth"
	"github.com/sliceline/sliceline-backend/pkg/config"
	"github.com/sliceline/sliceline-backend/pkg/db/models"
	"github.com/sliceline/sliceline-backend/pkg/enums"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCartService struct{}

func (stubCartService) GetActive(ctx context.Context, owner cartsvc.Owner) (*models.CartRecord, error) {
	return &models.CartRecord{ID: uuid.New(), SessionKey: owner.SessionKey, Status: enums.CartStatusActive}, nil
}

func (stubCartService) AddItem(ctx context.Context, owner cartsvc.Owner, input cartsvc.AddItemInput) (*models.CartRecord, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveItem(ctx context.Context, owner cartsvc.Owner, itemID uuid.UUID) (*models.CartRecord, error) {
	panic("unimplemented")
}

type stubCheckoutService struct{}

func (stubCheckoutService) Quote(ctx context.Context, input checkoutsvc.QuoteInput) (*checkoutsvc.QuoteResult, error) {
	panic("unimplemented")
}

func (stubCheckoutService) PlaceOrder(ctx context.Context, input checkoutsvc.PlaceOrderInput) (*models.Order, error) {
	panic("unimplemented")
}

type stubOrdersService struct{}

func (stubOrdersService) Get(ctx context.Context, actor ordersvc.Actor, orderID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Track(ctx context.Context, ticket, token string) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) ListActive(ctx context.Context) ([]models.Order, error) {
	return nil, nil
}

func (stubOrdersService) UpdateStatus(ctx context.Context, input ordersvc.StatusUpdateInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Cancel(ctx context.Context, input ordersvc.CancelInput) (*models.Order, error) {
	panic("unimplemented")
}

type stubStockService struct{}

func (stubStockService) Reserve(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, lines []stocksvc.ReservationLine) ([]stocksvc.LowStockAlert, error) {
	panic("unimplemented")
}

func (stubStockService) Restock(ctx context.Context, itemID uuid.UUID, qty int) (*models.MenuItem, error) {
	panic("unimplemented")
}

func (stubStockService) Adjust(ctx context.Context, itemID uuid.UUID, newQty int) (*models.MenuItem, error) {
	panic("unimplemented")
}

type stubLoyaltyService struct{}

func (stubLoyaltyService) Credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, points int64, orderID *uuid.UUID, description string) (*models.PointsTransaction, error) {
	panic("unimplemented")
}

func (stubLoyaltyService) Debit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, points int64, orderID *uuid.UUID, description string) (*models.PointsTransaction, error) {
	panic("unimplemented")
}

func (stubLoyaltyService) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 42, nil
}

func (stubLoyaltyService) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.PointsTransaction, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: config.AppEnvDev},
		JWT: config.JWTConfig{Secret: "router-test-secret", Issuer: "sliceline-accounts"},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(testConfig(), nil, stubPinger{}, stubPinger{}, nil, Services{
		Cart:     stubCartService{},
		Checkout: stubCheckoutService{},
		Orders:   stubOrdersService{},
		Stock:    stubStockService{},
		Loyalty:  stubLoyaltyService{},
		Hub:      notify.NewHub(),
	})
}

func mintToken(t *testing.T, role enums.ActorRole) string {
	t.Helper()
	signed, err := pkgauth.MintAccessToken(testConfig().JWT, time.Now(), time.Hour, pkgauth.AccessTokenClaims{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return signed
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAuthedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/loyalty/", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestStaffGroupRejectsCustomerRole(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/staff/orders/active", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleCustomer))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestStaffGroupAcceptsStaffRole(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/staff/orders/active", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleStaff))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestCartRejectsAnonymousWithoutSessionKey(t *testing.T) {
	router := newTestRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestCartAcceptsGuestSessionKey(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	req.Header.Set("X-Session-Key", "guest-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestCheckoutPathAliasesAreRouted(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{
		"/api/v1/checkout/quote",
		"/api/v1/checkout/validate",
		"/api/v1/checkout/calculate",
		"/api/v1/checkout",
		"/api/v1/checkout/order",
	} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Session-Key", "guest-1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		// An empty body fails validation, which proves the path dispatched
		// to the checkout handler rather than chi's 404/405 fallbacks.
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestStaffStatusRouteAcceptsPut(t *testing.T) {
	router := newTestRouter(t)
	path := "/api/v1/staff/orders/" + uuid.NewString() + "/status"

	for _, method := range []string{http.MethodPost, http.MethodPut} {
		req := httptest.NewRequest(method, path, strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleStaff))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s %s: expected 400, got %d", method, path, w.Code)
		}
	}
}

func TestAuthedGroupRejectsInvalidJWT(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/loyalty/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
