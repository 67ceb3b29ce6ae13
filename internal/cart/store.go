package cart

import (
	"slices"
	"sync"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/enums"
)

// LineItem is one product and its quantity. Quantity is always at least 1.
type LineItem struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// MutationResult reports what a mutation did. Rejected and absent outcomes
// are normal results, not errors.
type MutationResult struct {
	Outcome   enums.MutationOutcome `json:"outcome"`
	ProductID int                   `json:"product_id,omitempty"`
	Quantity  int                   `json:"quantity"`
}

// Store owns one shopper's ledger. Items stay in first-add order; quantity
// changes never reorder them. Every method is safe for concurrent use and
// applies its read-modify-write atomically.
type Store struct {
	mu     sync.Mutex
	items  []LineItem
	policy PricingPolicy
}

func NewStore(policy PricingPolicy) *Store {
	return &Store{policy: policy}
}

// AddToCart merges into an existing line or appends a new one with quantity 1.
func (s *Store) AddToCart(product catalog.Product) MutationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(product.ID); idx >= 0 {
		s.items[idx].Quantity++
		return applied(product.ID, s.items[idx].Quantity)
	}
	s.items = append(s.items, LineItem{Product: product, Quantity: 1})
	return applied(product.ID, 1)
}

// RemoveFromCart deletes the line for productID. Removing an absent product
// is a no-op, so repeated calls are idempotent.
func (s *Store) RemoveFromCart(productID int) MutationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(productID)
	if idx < 0 {
		return MutationResult{Outcome: enums.MutationOutcomeNoopAbsent, ProductID: productID}
	}
	s.items = slices.Delete(s.items, idx, idx+1)
	return applied(productID, 0)
}

// UpdateQuantity sets an absolute quantity. Values below 1 leave the line
// untouched; use RemoveFromCart to delete.
func (s *Store) UpdateQuantity(productID, quantity int) MutationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setQuantity(productID, quantity)
}

// Increment raises the quantity of an existing line by one.
func (s *Store) Increment(productID int) MutationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(productID)
	if idx < 0 {
		return MutationResult{Outcome: enums.MutationOutcomeNoopAbsent, ProductID: productID}
	}
	return s.setQuantity(productID, s.items[idx].Quantity+1)
}

// Decrement lowers the quantity by one. At quantity 1 it is rejected rather
// than removing the line.
func (s *Store) Decrement(productID int) MutationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(productID)
	if idx < 0 {
		return MutationResult{Outcome: enums.MutationOutcomeNoopAbsent, ProductID: productID}
	}
	return s.setQuantity(productID, s.items[idx].Quantity-1)
}

// ClearCart empties the ledger.
func (s *Store) ClearCart() MutationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return MutationResult{Outcome: enums.MutationOutcomeApplied}
}

// ComputeTotals prices the current ledger.
func (s *Store) ComputeTotals(coupon string) Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy.Price(s.items, coupon)
}

// Items returns a copy of the ordered line items.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// View returns items and totals read under one lock.
func (s *Store) View(coupon string) ([]LineItem, Totals) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), s.policy.Price(s.items, coupon)
}

func (s *Store) setQuantity(productID, quantity int) MutationResult {
	idx := s.indexOf(productID)
	if quantity < 1 {
		current := 0
		if idx >= 0 {
			current = s.items[idx].Quantity
		}
		return MutationResult{Outcome: enums.MutationOutcomeRejectedBelowMinimum, ProductID: productID, Quantity: current}
	}
	if idx < 0 {
		return MutationResult{Outcome: enums.MutationOutcomeNoopAbsent, ProductID: productID}
	}
	s.items[idx].Quantity = quantity
	return applied(productID, quantity)
}

func (s *Store) indexOf(productID int) int {
	return slices.IndexFunc(s.items, func(item LineItem) bool {
		return item.Product.ID == productID
	})
}

func (s *Store) snapshot() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func applied(productID, quantity int) MutationResult {
	return MutationResult{Outcome: enums.MutationOutcomeApplied, ProductID: productID, Quantity: quantity}
}
