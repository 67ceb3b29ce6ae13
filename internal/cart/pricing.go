package cart

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/shopspring/decimal"
)

const centsPlaces = 2

var hundred = decimal.NewFromInt(100)

// PricingPolicy is the coupon and tax rule set applied to a ledger.
type PricingPolicy struct {
	CouponCode      string
	DiscountPercent decimal.Decimal
	TaxPercent      decimal.Decimal
}

// Totals are derived from the ledger on every read and never stored.
type Totals struct {
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
}

// DefaultPricingPolicy is SAVE10 for 10% off with 8% tax.
func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		CouponCode:      "SAVE10",
		DiscountPercent: decimal.NewFromInt(10),
		TaxPercent:      decimal.NewFromInt(8),
	}
}

// PricingPolicyFromConfig builds the policy from validated config.
func PricingPolicyFromConfig(cfg config.PricingConfig) (PricingPolicy, error) {
	code := strings.TrimSpace(cfg.CouponCode)
	if code == "" {
		return PricingPolicy{}, fmt.Errorf("coupon code is required")
	}
	discount, err := decimal.NewFromString(strings.TrimSpace(cfg.DiscountPercent))
	if err != nil {
		return PricingPolicy{}, fmt.Errorf("parse discount percent: %w", err)
	}
	tax, err := decimal.NewFromString(strings.TrimSpace(cfg.TaxPercent))
	if err != nil {
		return PricingPolicy{}, fmt.Errorf("parse tax percent: %w", err)
	}
	return PricingPolicy{CouponCode: code, DiscountPercent: discount, TaxPercent: tax}, nil
}

// CouponApplies is an exact, case-sensitive match against the one known code.
func (p PricingPolicy) CouponApplies(coupon string) bool {
	return p.CouponCode != "" && coupon == p.CouponCode
}

// Price derives totals for items: discount is a percentage of the subtotal
// when the coupon matches, tax is a percentage of subtotal minus discount,
// and total is subtotal minus discount plus tax. Each value is rounded to cents.
func (p PricingPolicy) Price(items []LineItem, coupon string) Totals {
	subtotal := decimal.Zero
	count := 0
	for _, item := range items {
		subtotal = subtotal.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		count += item.Quantity
	}
	subtotal = subtotal.Round(centsPlaces)

	discount := decimal.Zero
	if p.CouponApplies(coupon) {
		discount = subtotal.Mul(p.DiscountPercent).Div(hundred).Round(centsPlaces)
	}
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(p.TaxPercent).Div(hundred).Round(centsPlaces)

	return Totals{
		ItemCount: count,
		Subtotal:  subtotal,
		Discount:  discount,
		Tax:       tax,
		Total:     taxable.Add(tax),
	}
}
