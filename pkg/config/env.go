package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvProd = "prod"

	EnvAppEnv                 = "STOREFRONT_APP_ENV"
	EnvPort                   = "STOREFRONT_APP_PORT"
	EnvCORSOrigins            = "STOREFRONT_CORS_ORIGINS"
	EnvRedisURL               = "STOREFRONT_REDIS_URL"
	EnvJWTSecret              = "STOREFRONT_JWT_SECRET"
	EnvCatalogBaseURL         = "STOREFRONT_CATALOG_BASE_URL"
	EnvCatalogFreshTTL        = "STOREFRONT_CATALOG_FRESH_TTL"
	EnvCatalogStaleTTL        = "STOREFRONT_CATALOG_STALE_TTL"
	EnvAccountEndpointURL     = "STOREFRONT_ACCOUNT_ENDPOINT_URL"
	EnvPricingCouponCode      = "STOREFRONT_PRICING_COUPON_CODE"
	EnvPricingDiscountPercent = "STOREFRONT_PRICING_DISCOUNT_PERCENT"
	EnvPricingTaxPercent      = "STOREFRONT_PRICING_TAX_PERCENT"
)
