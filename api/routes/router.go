package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sliceline/sliceline-backend/api/controllers"
	"github.com/sliceline/sliceline-backend/api/middleware"
	cartsvc "github.com/sliceline/sliceline-backend/internal/cart"
	checkoutsvc "github.com/sliceline/sliceline-backend/internal/checkout"
	loyaltysvc "github.com/sliceline/sliceline-backend/internal/loyalty"
	"github.com/sliceline/sliceline-backend/internal/notify"
	ordersvc "github.com/sliceline/sliceline-backend/internal/orders"
	stocksvc "github.com/sliceline/sliceline-backend/internal/stock"
	"github.com/sliceline/sliceline-backend/pkg/config"
	"github.com/sliceline/sliceline-backend/pkg/db"
	"github.com/sliceline/sliceline-backend/pkg/logger"
	"github.com/sliceline/sliceline-backend/pkg/redis"
)

// Services bundles everything the HTTP surface dispatches to.
type Services struct {
	Cart     cartsvc.Service
	Checkout checkoutsvc.Service
	Orders   ordersvc.Service
	Stock    stocksvc.Service
	Loyalty  loyaltysvc.Service
	Hub      *notify.Hub
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	registry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// Guest tracking needs no credentials at all; the token is the secret.
	r.Get("/api/v1/track/{ticket}", controllers.OrderTrack(svcs.Orders, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(svcs.Cart, logg))
				r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(svcs.Cart, logg))
			})

			// validate and calculate are aliases of the quote pass; order is
			// the canonical placement path, /checkout a shorthand.
			r.Post("/checkout/quote", controllers.CheckoutQuote(svcs.Checkout, logg))
			r.Post("/checkout/validate", controllers.CheckoutQuote(svcs.Checkout, logg))
			r.Post("/checkout/calculate", controllers.CheckoutQuote(svcs.Checkout, logg))
			r.Post("/checkout", controllers.CheckoutPlaceOrder(svcs.Checkout, logg))
			r.Post("/checkout/order", controllers.CheckoutPlaceOrder(svcs.Checkout, logg))

			r.Post("/orders/{orderId}/cancel", controllers.OrderCancel(svcs.Orders, logg))

			r.Get("/events", controllers.EventsCustomer(svcs.Hub, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Get("/orders/{orderId}", controllers.OrderDetail(svcs.Orders, logg))

			r.Route("/loyalty", func(r chi.Router) {
				r.Get("/", controllers.LoyaltyBalance(svcs.Loyalty, logg))
				r.Get("/history", controllers.LoyaltyHistory(svcs.Loyalty, logg))
			})
		})

		r.Route("/staff", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireStaff(logg))

			r.Get("/orders/active", controllers.StaffActiveOrders(svcs.Orders, logg))
			r.Post("/orders/{orderId}/status", controllers.StaffUpdateOrderStatus(svcs.Orders, logg))
			r.Put("/orders/{orderId}/status", controllers.StaffUpdateOrderStatus(svcs.Orders, logg))
			r.Post("/menu-items/{itemId}/restock", controllers.StaffRestock(svcs.Stock, logg))
			r.Put("/menu-items/{itemId}/stock", controllers.StaffAdjustStock(svcs.Stock, logg))
			r.Get("/events", controllers.EventsStaff(svcs.Hub, logg))
		})
	})

	return r
}
