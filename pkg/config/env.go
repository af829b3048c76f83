package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DefaultSQLiteDSN = "file:storefront.db?cache=shared&_foreign_keys=on"
)

const (
	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN    = "STOREFRONT_DB_DSN"
	EnvDBDriver = "STOREFRONT_DB_DRIVER"
	EnvDBHost   = "STOREFRONT_DB_HOST"
	EnvDBPort   = "STOREFRONT_DB_PORT"
	EnvDBUser   = "STOREFRONT_DB_USER"
	EnvDBName   = "STOREFRONT_DB_NAME"
	EnvDBPass   = "STOREFRONT_DB_PASSWORD"
	EnvUseSQL   = "STOREFRONT_USE_SQLITE"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvAuthJWTSecret = "STOREFRONT_AUTH_JWT_SECRET"

	EnvPrintfulAPIKey     = "STOREFRONT_PRINTFUL_API_KEY"
	EnvPrintfulCatalogTTL = "STOREFRONT_PRINTFUL_CATALOG_TTL"

	EnvStripeAPIKey = "STOREFRONT_STRIPE_API_KEY"
	EnvStripeSecret = "STOREFRONT_STRIPE_SECRET"

	EnvCheckoutTaxRate          = "STOREFRONT_CHECKOUT_TAX_RATE"
	EnvCheckoutAllowedCountries = "STOREFRONT_CHECKOUT_ALLOWED_COUNTRIES"

	EnvGCPProjectID = "STOREFRONT_GCP_PROJECT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
