package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sliceline/sliceline-backend/api/routes"
	cartsvc "github.com/sliceline/sliceline-backend/internal/cart"
	checkoutsvc "github.com/sliceline/sliceline-backend/internal/checkout"
	"github.com/sliceline/sliceline-backend/internal/discounts"
	loyaltysvc "github.com/sliceline/sliceline-backend/internal/loyalty"
	"github.com/sliceline/sliceline-backend/internal/menu"
	"github.com/sliceline/sliceline-backend/internal/notify"
	ordersvc "github.com/sliceline/sliceline-backend/internal/orders"
	"github.com/sliceline/sliceline-backend/internal/pricing"
	stocksvc "github.com/sliceline/sliceline-backend/internal/stock"
	"github.com/sliceline/sliceline-backend/internal/zones"
	"github.com/sliceline/sliceline-backend/pkg/config"
	"github.com/sliceline/sliceline-backend/pkg/db"
	"github.com/sliceline/sliceline-backend/pkg/logger"
	"github.com/sliceline/sliceline-backend/pkg/metrics"
	"github.com/sliceline/sliceline-backend/pkg/migrate"
	"github.com/sliceline/sliceline-backend/pkg/payments"
	"github.com/sliceline/sliceline-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	gateway, err := payments.NewSquareGateway(context.Background(), cfg.Payments, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway", err)
		os.Exit(1)
	}

	hub := notify.NewHub()
	emitter, err := notify.NewFanout(hub, notify.NewRedisPublisher(redisClient), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create event fan-out", err)
		os.Exit(1)
	}

	calculator, err := pricing.NewCalculator(cfg.Checkout)
	if err != nil {
		logg.Error(context.Background(), "failed to create price calculator", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	cartRepo := cartsvc.NewRepository(gormDB)
	menuRepo := menu.NewRepository(gormDB)
	ordersRepo := ordersvc.NewRepository(gormDB)

	cartService, err := cartsvc.NewService(cartRepo, menuRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	zoneService, err := zones.NewService(zones.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create zones service", err)
		os.Exit(1)
	}
	discountService, err := discounts.NewService(discounts.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create discounts service", err)
		os.Exit(1)
	}
	stockService, err := stocksvc.NewService(stocksvc.NewRepository(gormDB), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock service", err)
		os.Exit(1)
	}
	loyaltyService, err := loyaltysvc.NewService(loyaltysvc.NewRepository(gormDB), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create loyalty service", err)
		os.Exit(1)
	}
	orderService, err := ordersvc.NewService(ordersRepo, dbClient, gateway, emitter, checkoutMetrics, cfg.Checkout.CancellationWindow)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	checkoutService, err := checkoutsvc.NewService(checkoutsvc.Deps{
		Sequences:  checkoutsvc.NewRepository(gormDB),
		Orders:     ordersRepo,
		Carts:      cartRepo,
		Menu:       menuRepo,
		Discounts:  discountService,
		Stock:      stockService,
		Loyalty:    loyaltyService,
		Zones:      zoneService,
		Calculator: calculator,
		Gateway:    gateway,
		Emitter:    emitter,
		Metrics:    checkoutMetrics,
		Tx:         dbClient,
	}, cfg.Loyalty, cfg.Payments)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, routes.Services{
			Cart:     cartService,
			Checkout: checkoutService,
			Orders:   orderService,
			Stock:    stockService,
			Loyalty:  loyaltyService,
			Hub:      hub,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
