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
	App           AppConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Hash          HashConfig
	AuthRateLimit AuthRateLimitConfig
	Catalog       CatalogConfig
	Account       AccountConfig
	Pricing       PricingConfig
	Recovery      RecoveryConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Catalog.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	if err := cfg.validateProd(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool     `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

const minProdJWTSecretLen = 32

// validateProd refuses settings that are only tolerable on a laptop.
func (c *Config) validateProd() error {
	if !c.App.IsProd() {
		return nil
	}
	if len(c.JWT.Secret) < minProdJWTSecretLen {
		return fmt.Errorf("%s must be at least %d bytes in prod", EnvJWTSecret, minProdJWTSecretLen)
	}
	for _, origin := range c.App.CORSOrigins {
		if strings.TrimSpace(origin) == "*" {
			return fmt.Errorf("wildcard cors origin is not allowed in prod")
		}
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" default:"storefront"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" default:"720"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// HashConfig tunes the argon2id parameters used for one-time codes.
type HashConfig struct {
	ArgonMemoryKB    int `envconfig:"STOREFRONT_ARGON_MEMORY_KB" default:"19456"`
	ArgonTime        int `envconfig:"STOREFRONT_ARGON_TIME" default:"2"`
	ArgonParallelism int `envconfig:"STOREFRONT_ARGON_PARALLELISM" default:"1"`
	ArgonSaltLen     int `envconfig:"STOREFRONT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOREFRONT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow       time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupEmailLimit   int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignupIPLimit      int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
	RecoveryWindow     time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_RECOVERY_WINDOW" default:"15m"`
	RecoveryEmailLimit int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_RECOVERY_EMAIL_LIMIT" default:"3"`
	RecoveryIPLimit    int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_RECOVERY_IP_LIMIT" default:"10"`
}

// CatalogConfig points at the read-only product API and tunes the cache in front of it.
type CatalogConfig struct {
	BaseURL        string        `envconfig:"STOREFRONT_CATALOG_BASE_URL" default:"https://fakestoreapi.com"`
	RequestTimeout time.Duration `envconfig:"STOREFRONT_CATALOG_REQUEST_TIMEOUT" default:"10s"`
	MaxRetries     uint64        `envconfig:"STOREFRONT_CATALOG_MAX_RETRIES" default:"3"`
	RetryBaseDelay time.Duration `envconfig:"STOREFRONT_CATALOG_RETRY_BASE_DELAY" default:"200ms"`
	FreshTTL       time.Duration `envconfig:"STOREFRONT_CATALOG_FRESH_TTL" default:"5m"`
	StaleTTL       time.Duration `envconfig:"STOREFRONT_CATALOG_STALE_TTL" default:"24h"`
}

func (c CatalogConfig) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute url", EnvCatalogBaseURL)
	}
	if c.StaleTTL < c.FreshTTL {
		return fmt.Errorf("%s (%s) must not be shorter than %s (%s)", EnvCatalogStaleTTL, c.StaleTTL, EnvCatalogFreshTTL, c.FreshTTL)
	}
	return nil
}

type AccountConfig struct {
	EndpointURL    string        `envconfig:"STOREFRONT_ACCOUNT_ENDPOINT_URL" required:"true"`
	RequestTimeout time.Duration `envconfig:"STOREFRONT_ACCOUNT_REQUEST_TIMEOUT" default:"15s"`
	MaxRetries     uint64        `envconfig:"STOREFRONT_ACCOUNT_MAX_RETRIES" default:"1"`
}

// PricingConfig holds the sample coupon and tax policy applied to carts.
type PricingConfig struct {
	CouponCode      string `envconfig:"STOREFRONT_PRICING_COUPON_CODE" default:"SAVE10"`
	DiscountPercent string `envconfig:"STOREFRONT_PRICING_DISCOUNT_PERCENT" default:"10"`
	TaxPercent      string `envconfig:"STOREFRONT_PRICING_TAX_PERCENT" default:"8"`
}

// Discount parses the configured discount percentage.
func (p PricingConfig) Discount() decimal.Decimal {
	return decimal.RequireFromString(p.DiscountPercent)
}

// Tax parses the configured tax percentage.
func (p PricingConfig) Tax() decimal.Decimal {
	return decimal.RequireFromString(p.TaxPercent)
}

func (p PricingConfig) validate() error {
	for env, raw := range map[string]string{
		EnvPricingDiscountPercent: p.DiscountPercent,
		EnvPricingTaxPercent:      p.TaxPercent,
	} {
		value, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s must be a decimal: %w", env, err)
		}
		if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("%s must be between 0 and 100", env)
		}
	}
	return nil
}

type RecoveryConfig struct {
	TicketTTL   time.Duration `envconfig:"STOREFRONT_RECOVERY_TICKET_TTL" default:"10m"`
	MaxAttempts int           `envconfig:"STOREFRONT_RECOVERY_MAX_ATTEMPTS" default:"5"`
}
