package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// DefaultSuggestLimit caps search-as-you-type hints.
const DefaultSuggestLimit = 5

// Every function in this file is total and returns a fresh slice; inputs are
// never modified.

// PriceRange is an inclusive price window. A nil bound is open.
type PriceRange struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// Contains reports whether price falls inside the range.
func (r PriceRange) Contains(price decimal.Decimal) bool {
	if r.Min != nil && price.LessThan(*r.Min) {
		return false
	}
	if r.Max != nil && price.GreaterThan(*r.Max) {
		return false
	}
	return true
}

// IsOpen reports whether neither bound is set.
func (r PriceRange) IsOpen() bool {
	return r.Min == nil && r.Max == nil
}

// Validate rejects negative bounds and inverted ranges.
func (r PriceRange) Validate() error {
	if r.Min != nil && r.Min.IsNegative() {
		return fmt.Errorf("min price must not be negative")
	}
	if r.Max != nil && r.Max.IsNegative() {
		return fmt.Errorf("max price must not be negative")
	}
	if r.Min != nil && r.Max != nil && r.Min.GreaterThan(*r.Max) {
		return fmt.Errorf("min price %s exceeds max price %s", r.Min, r.Max)
	}
	return nil
}

// FilterBySearch keeps products whose title (and, for the title_description
// scope, description) contains text, ignoring case. Blank text keeps everything.
func FilterBySearch(products []Product, text string, scope enums.SearchScope) []Product {
	needle := normalizeSearch(text)
	if needle == "" {
		return slices.Clone(nonNil(products))
	}
	out := make([]Product, 0, len(products))
	for _, product := range products {
		if matches(product, needle, scope) {
			out = append(out, product)
		}
	}
	return out
}

// FilterByCategory keeps products with exactly the given category. An empty
// category selects all products.
func FilterByCategory(products []Product, category string) []Product {
	if category == "" {
		return slices.Clone(nonNil(products))
	}
	out := make([]Product, 0, len(products))
	for _, product := range products {
		if product.Category == category {
			out = append(out, product)
		}
	}
	return out
}

// FilterByPriceRange keeps products priced within r, bounds inclusive.
func FilterByPriceRange(products []Product, r PriceRange) []Product {
	out := make([]Product, 0, len(products))
	for _, product := range products {
		if r.Contains(product.Price) {
			out = append(out, product)
		}
	}
	return out
}

// SortProducts orders products by key. The sort is stable so ties keep their
// input order; featured and unknown keys leave the order untouched.
func SortProducts(products []Product, key enums.SortKey) []Product {
	out := slices.Clone(nonNil(products))
	switch key {
	case enums.SortKeyPriceAscending:
		slices.SortStableFunc(out, func(a, b Product) int {
			return a.Price.Cmp(b.Price)
		})
	case enums.SortKeyPriceDescending:
		slices.SortStableFunc(out, func(a, b Product) int {
			return b.Price.Cmp(a.Price)
		})
	case enums.SortKeyRatingDesc:
		slices.SortStableFunc(out, func(a, b Product) int {
			return cmp.Compare(b.Rating.Rate, a.Rating.Rate)
		})
	}
	return out
}

// Suggest returns up to limit title matches in source order. Blank text
// yields no suggestions; limit <= 0 falls back to DefaultSuggestLimit.
func Suggest(products []Product, text string, limit int) []Product {
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}
	needle := normalizeSearch(text)
	out := make([]Product, 0, min(limit, len(products)))
	if needle == "" {
		return out
	}
	for _, product := range products {
		if len(out) == limit {
			break
		}
		if matches(product, needle, enums.SearchScopeTitle) {
			out = append(out, product)
		}
	}
	return out
}

// Apply runs the search, category and price filters (conjunctively) and then
// sorts the survivors.
func Apply(products []Product, state QueryState, scope enums.SearchScope) []Product {
	filtered := FilterBySearch(products, state.Search, scope)
	filtered = FilterByCategory(filtered, state.Category)
	filtered = FilterByPriceRange(filtered, state.Price)
	return SortProducts(filtered, state.Sort)
}

func matches(product Product, needle string, scope enums.SearchScope) bool {
	if strings.Contains(strings.ToLower(product.Title), needle) {
		return true
	}
	return scope == enums.SearchScopeTitleDescription &&
		strings.Contains(strings.ToLower(product.Description), needle)
}

func normalizeSearch(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func nonNil(products []Product) []Product {
	if products == nil {
		return []Product{}
	}
	return products
}
