package catalog

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Rating is the aggregate review score attached to a product.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product mirrors the read-only product record served by the catalog API.
type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Rating      Rating          `json:"rating"`
	Image       string          `json:"image"`
}

// Snapshot is an immutable, point-in-time copy of the catalog.
type Snapshot struct {
	Products   []Product `json:"products"`
	Categories []string  `json:"categories"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// NewSnapshot copies products and settles the category list. Supplied
// categories keep their order; any category observed on a product but
// missing from the supplied list is appended in first-seen order.
func NewSnapshot(products []Product, categories []string, fetchedAt time.Time) Snapshot {
	merged := make([]string, 0, len(categories))
	for _, category := range categories {
		if !slices.Contains(merged, category) {
			merged = append(merged, category)
		}
	}
	for _, category := range DeriveCategories(products) {
		if !slices.Contains(merged, category) {
			merged = append(merged, category)
		}
	}
	return Snapshot{
		Products:   slices.Clone(products),
		Categories: merged,
		FetchedAt:  fetchedAt,
	}
}

// DeriveCategories returns the distinct categories of products in first-seen order.
func DeriveCategories(products []Product) []string {
	seen := make(map[string]struct{}, len(products))
	out := make([]string, 0)
	for _, product := range products {
		if _, ok := seen[product.Category]; ok {
			continue
		}
		seen[product.Category] = struct{}{}
		out = append(out, product.Category)
	}
	return out
}

// ValidateSources reports every disagreement between the product list and a
// separately supplied category list, plus malformed product records.
func ValidateSources(products []Product, categories []string) error {
	var err error

	ids := make(map[int]struct{}, len(products))
	for _, product := range products {
		if _, dup := ids[product.ID]; dup {
			err = multierr.Append(err, fmt.Errorf("duplicate product id %d", product.ID))
		}
		ids[product.ID] = struct{}{}
		if product.Price.IsNegative() {
			err = multierr.Append(err, fmt.Errorf("product %d has negative price %s", product.ID, product.Price))
		}
		if product.Rating.Rate < 0 || product.Rating.Rate > 5 {
			err = multierr.Append(err, fmt.Errorf("product %d has rating %.2f outside 0-5", product.ID, product.Rating.Rate))
		}
	}

	if len(categories) == 0 {
		return err
	}
	derived := DeriveCategories(products)
	for _, category := range derived {
		if !slices.Contains(categories, category) {
			err = multierr.Append(err, fmt.Errorf("category %q observed on products but not listed", category))
		}
	}
	for _, category := range categories {
		if !slices.Contains(derived, category) {
			err = multierr.Append(err, fmt.Errorf("category %q listed but has no products", category))
		}
	}
	return err
}

// Find returns the product with the given id.
func (s Snapshot) Find(id int) (Product, bool) {
	for _, product := range s.Products {
		if product.ID == id {
			return product, true
		}
	}
	return Product{}, false
}

// HasCategory reports whether the tag is part of the snapshot.
func (s Snapshot) HasCategory(category string) bool {
	return slices.Contains(s.Categories, category)
}
