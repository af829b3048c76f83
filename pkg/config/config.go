package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Auth         AuthConfig
	Printful     PrintfulConfig
	Stripe       StripeConfig
	Checkout     CheckoutConfig
	Shipping     ShippingConfig
	Cart         CartConfig
	Contact      ContactConfig
	RateLimit    RateLimitConfig
	Worker       WorkerConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string   `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	PublicURL    string   `envconfig:"STOREFRONT_PUBLIC_URL" default:"http://localhost:5173"`
	CORSOrigins  []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOREFRONT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite dialector should be used.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// AuthConfig verifies access tokens minted by the hosted auth provider.
type AuthConfig struct {
	JWTSecret string        `envconfig:"STOREFRONT_AUTH_JWT_SECRET" required:"true"`
	Issuer    string        `envconfig:"STOREFRONT_AUTH_ISSUER"`
	Audience  string        `envconfig:"STOREFRONT_AUTH_AUDIENCE" default:"authenticated"`
	Leeway    time.Duration `envconfig:"STOREFRONT_AUTH_LEEWAY" default:"30s"`
}

type PrintfulConfig struct {
	APIKey     string        `envconfig:"STOREFRONT_PRINTFUL_API_KEY" required:"true"`
	StoreID    string        `envconfig:"STOREFRONT_PRINTFUL_STORE_ID"`
	BaseURL    string        `envconfig:"STOREFRONT_PRINTFUL_BASE_URL" default:"https://api.printful.com"`
	Timeout    time.Duration `envconfig:"STOREFRONT_PRINTFUL_TIMEOUT" default:"15s"`
	CatalogTTL time.Duration `envconfig:"STOREFRONT_PRINTFUL_CATALOG_TTL" default:"10m"`
}

type StripeConfig struct {
	APIKey     string `envconfig:"STOREFRONT_STRIPE_API_KEY"`
	Secret     string `envconfig:"STOREFRONT_STRIPE_SECRET"`
	Env        string `envconfig:"STOREFRONT_STRIPE_ENV" default:"test"`
	Currency   string `envconfig:"STOREFRONT_STRIPE_CURRENCY" default:"usd"`
	SuccessURL string `envconfig:"STOREFRONT_STRIPE_SUCCESS_URL"`
	CancelURL  string `envconfig:"STOREFRONT_STRIPE_CANCEL_URL"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CheckoutConfig struct {
	TaxRate          decimal.Decimal `envconfig:"STOREFRONT_CHECKOUT_TAX_RATE" default:"0.08"`
	DefaultShipping  decimal.Decimal `envconfig:"STOREFRONT_CHECKOUT_DEFAULT_SHIPPING" default:"9.99"`
	AllowedCountries []string        `envconfig:"STOREFRONT_CHECKOUT_ALLOWED_COUNTRIES" default:"US,CA,GB,AU,DE,FR,JP"`
	AutomaticTax     bool            `envconfig:"STOREFRONT_CHECKOUT_AUTOMATIC_TAX" default:"true"`
}

type ShippingConfig struct {
	HomeCountry string `envconfig:"STOREFRONT_SHIPPING_HOME_COUNTRY" default:"US"`
}

type CartConfig struct {
	SessionTTL time.Duration `envconfig:"STOREFRONT_CART_SESSION_TTL" default:"720h"`
}

type ContactConfig struct {
	RateLimit  int64         `envconfig:"STOREFRONT_CONTACT_RATE_LIMIT" default:"5"`
	RateWindow time.Duration `envconfig:"STOREFRONT_CONTACT_RATE_WINDOW" default:"1h"`
}

// RateLimitConfig bounds the per-IP request rate on the paid upstream surfaces.
type RateLimitConfig struct {
	Window          time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_WINDOW" default:"1m"`
	ShippingIPLimit int64         `envconfig:"STOREFRONT_RATE_LIMIT_SHIPPING_IP" default:"30"`
	CheckoutIPLimit int64         `envconfig:"STOREFRONT_RATE_LIMIT_CHECKOUT_IP" default:"10"`
}

type WorkerConfig struct {
	Interval        time.Duration `envconfig:"STOREFRONT_WORKER_INTERVAL" default:"1h"`
	PendingOrderTTL time.Duration `envconfig:"STOREFRONT_WORKER_PENDING_ORDER_TTL" default:"48h"`
	LockTTL         time.Duration `envconfig:"STOREFRONT_WORKER_LOCK_TTL" default:"30m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
	PubSub      bool `envconfig:"STOREFRONT_FEATURE_PUBSUB" default:"true"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"STOREFRONT_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	WebhookTTL     time.Duration `envconfig:"STOREFRONT_WEBHOOK_IDEMPOTENCY_TTL" default:"168h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"STOREFRONT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOREFRONT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"STOREFRONT_PUBSUB_ORDERS_TOPIC" default:"storefront-orders"`
	OrdersSubscription string `envconfig:"STOREFRONT_PUBSUB_ORDERS_SUBSCRIPTION" default:"storefront-orders-fulfillment"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DBDriverSQLite
	}
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
