package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix  = "sliceline"
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Checkout     CheckoutConfig
	Loyalty      LoyaltyConfig
	Payments     PaymentsConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := cfg.Checkout.TaxRateDecimal(); err != nil {
		return nil, err
	}
	if _, err := cfg.Loyalty.PointsRateDecimal(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SLICELINE_APP_ENV" required:"true"`
	Port         string `envconfig:"SLICELINE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SLICELINE_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"SLICELINE_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"SLICELINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"SLICELINE_DB_DSN" required:"true"`

	MaxOpenConns    int           `envconfig:"SLICELINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SLICELINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SLICELINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SLICELINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SLICELINE_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"SLICELINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SLICELINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SLICELINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SLICELINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SLICELINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies externally issued tokens; this service never mints them.
type JWTConfig struct {
	Secret string `envconfig:"SLICELINE_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"SLICELINE_JWT_ISSUER" required:"true"`
}

type CheckoutConfig struct {
	TaxRate            string        `envconfig:"SLICELINE_TAX_RATE" default:"0.23"`
	DeliveryFeeTaxed   bool          `envconfig:"SLICELINE_DELIVERY_FEE_TAXED" default:"true"`
	CancellationWindow time.Duration `envconfig:"SLICELINE_CANCELLATION_WINDOW" default:"5m"`
}

// TaxRateDecimal parses the configured tax rate as a fixed-point fraction.
func (c CheckoutConfig) TaxRateDecimal() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing tax rate %q: %w", c.TaxRate, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("tax rate must not be negative, got %s", rate)
	}
	return rate, nil
}

const (
	// LoyaltyBasisSubtotal credits points on the post-discount, pre-tax subtotal.
	LoyaltyBasisSubtotal = "post_discount_subtotal"
	// LoyaltyBasisTotal credits points on the grand total.
	LoyaltyBasisTotal = "total_amount"
)

type LoyaltyConfig struct {
	PointsRate string `envconfig:"SLICELINE_LOYALTY_POINTS_RATE" default:"1"`
	Basis      string `envconfig:"SLICELINE_LOYALTY_BASIS" default:"post_discount_subtotal"`
}

// PointsRateDecimal parses the points-per-currency-unit rate.
func (l LoyaltyConfig) PointsRateDecimal() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(l.PointsRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing loyalty points rate %q: %w", l.PointsRate, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("loyalty points rate must not be negative, got %s", rate)
	}
	return rate, nil
}

type PaymentsConfig struct {
	SquareAccessToken string        `envconfig:"SLICELINE_SQUARE_ACCESS_TOKEN"`
	SquareEnv         string        `envconfig:"SLICELINE_SQUARE_ENV" default:"sandbox"`
	SquareLocationID  string        `envconfig:"SLICELINE_SQUARE_LOCATION_ID"`
	AuthorizeTimeout  time.Duration `envconfig:"SLICELINE_PAYMENT_AUTHORIZE_TIMEOUT" default:"10s"`
	Currency          string        `envconfig:"SLICELINE_PAYMENT_CURRENCY" default:"EUR"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SLICELINE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SLICELINE_AUTO_MIGRATE" default:"false"`
}
