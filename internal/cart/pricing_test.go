package cart

import (
	"testing"

	"github.com/angelmondragon/storefront/pkg/config"
)

func TestCouponScenario(t *testing.T) {
	policy := DefaultPricingPolicy()
	items := []LineItem{{Product: item(1, "100"), Quantity: 1}}

	totals := policy.Price(items, "SAVE10")
	if totals.Discount.StringFixed(2) != "10.00" {
		t.Fatalf("expected discount 10.00, got %s", totals.Discount)
	}
	if totals.Tax.StringFixed(2) != "7.20" {
		t.Fatalf("expected tax on 90 to be 7.20, got %s", totals.Tax)
	}
	if totals.Total.StringFixed(2) != "97.20" {
		t.Fatalf("expected total 97.20, got %s", totals.Total)
	}

	bad := policy.Price(items, "BADCODE")
	if !bad.Discount.IsZero() {
		t.Fatalf("unknown coupon must not discount, got %s", bad.Discount)
	}
	if bad.Total.StringFixed(2) != "108.00" {
		t.Fatalf("expected total 108.00, got %s", bad.Total)
	}
}

func TestCouponMatchIsExact(t *testing.T) {
	policy := DefaultPricingPolicy()
	for _, code := range []string{"save10", "SAVE10 ", "SAVE", "SAVE100", ""} {
		if policy.CouponApplies(code) {
			t.Fatalf("coupon %q should not apply", code)
		}
	}
}

func TestPriceRoundsToCents(t *testing.T) {
	policy := DefaultPricingPolicy()
	items := []LineItem{
		{Product: item(1, "19.99"), Quantity: 3},
		{Product: item(2, "0.01"), Quantity: 1},
	}
	totals := policy.Price(items, "SAVE10")
	if totals.ItemCount != 4 {
		t.Fatalf("expected 4 items, got %d", totals.ItemCount)
	}
	if totals.Subtotal.StringFixed(2) != "59.98" {
		t.Fatalf("unexpected subtotal %s", totals.Subtotal)
	}
	if totals.Discount.StringFixed(2) != "6.00" {
		t.Fatalf("unexpected discount %s", totals.Discount)
	}
	// (59.98 - 6.00) * 0.08 = 4.3184
	if totals.Tax.StringFixed(2) != "4.32" {
		t.Fatalf("unexpected tax %s", totals.Tax)
	}
	if totals.Total.StringFixed(2) != "58.30" {
		t.Fatalf("unexpected total %s", totals.Total)
	}
}

func TestEmptyLedgerTotals(t *testing.T) {
	totals := DefaultPricingPolicy().Price(nil, "SAVE10")
	if totals.ItemCount != 0 || !totals.Total.IsZero() {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}

func TestPricingPolicyFromConfig(t *testing.T) {
	policy, err := PricingPolicyFromConfig(config.PricingConfig{CouponCode: "WELCOME", DiscountPercent: "15", TaxPercent: "7.5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !policy.CouponApplies("WELCOME") || policy.TaxPercent.String() != "7.5" {
		t.Fatalf("unexpected policy %+v", policy)
	}
	if _, err := PricingPolicyFromConfig(config.PricingConfig{CouponCode: "X", DiscountPercent: "ten", TaxPercent: "8"}); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := PricingPolicyFromConfig(config.PricingConfig{DiscountPercent: "10", TaxPercent: "8"}); err == nil {
		t.Fatal("expected error for blank coupon")
	}
}
