package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL: %q", cfg.Redis.URL)
	}
	if cfg.Catalog.BaseURL != "https://fakestoreapi.com" {
		t.Fatalf("unexpected catalog base url %q", cfg.Catalog.BaseURL)
	}
	if got := cfg.Catalog.FreshTTL; got != 5*time.Minute {
		t.Fatalf("expected fresh ttl 5m, got %v", got)
	}
	if cfg.Pricing.CouponCode != "SAVE10" {
		t.Fatalf("unexpected coupon code %q", cfg.Pricing.CouponCode)
	}
	if cfg.Pricing.Tax().String() != "8" {
		t.Fatalf("unexpected tax percent %s", cfg.Pricing.Tax())
	}
	if cfg.JWT.TTL() != 12*time.Hour {
		t.Fatalf("unexpected jwt ttl %v", cfg.JWT.TTL())
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsStaleShorterThanFresh(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCatalogFreshTTL, "10m")
	t.Setenv(EnvCatalogStaleTTL, "1m")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when stale ttl is shorter than fresh ttl")
	}
}

func TestLoad_RejectsOutOfRangePercent(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvPricingTaxPercent, "140")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for tax percent above 100")
	}
}

func TestLoad_RejectsRelativeCatalogURL(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCatalogBaseURL, "/products")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for relative catalog url")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvJWTSecret, "secret")
	t.Setenv(EnvAccountEndpointURL, "https://script.example.com/exec")
}

func TestLoad_ProdRequiresStrongSecret(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvAppEnv, "PROD")

	if _, err := Load(); err == nil {
		t.Fatal("expected short jwt secret to be rejected in prod")
	}

	t.Setenv(EnvJWTSecret, strings.Repeat("s", minProdJWTSecretLen))
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.App.IsProd() {
		t.Fatalf("expected IsProd true for %q", cfg.App.Env)
	}
}

func TestLoad_ProdRejectsWildcardCORS(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvJWTSecret, strings.Repeat("s", minProdJWTSecretLen))
	t.Setenv(EnvCORSOrigins, "https://shop.example.com,*")

	if _, err := Load(); err == nil {
		t.Fatal("expected wildcard cors origin to be rejected in prod")
	}
}
