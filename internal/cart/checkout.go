package cart

import (
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/google/uuid"
)

// OrderReceipt is the record handed back when a cart is checked out. No
// payment is taken.
type OrderReceipt struct {
	ID       uuid.UUID  `json:"id"`
	Items    []LineItem `json:"items"`
	Totals   Totals     `json:"totals"`
	Coupon   string     `json:"coupon,omitempty"`
	PlacedAt time.Time  `json:"placed_at"`
}

// Checkout snapshots items and totals into a receipt and clears the ledger.
func (s *Store) Checkout(coupon string, now time.Time) (OrderReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return OrderReceipt{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	receipt := OrderReceipt{
		ID:       uuid.New(),
		Items:    s.snapshot(),
		Totals:   s.policy.Price(s.items, coupon),
		PlacedAt: now.UTC(),
	}
	if s.policy.CouponApplies(coupon) {
		receipt.Coupon = coupon
	}
	s.items = nil
	return receipt, nil
}
