package catalog

import (
	"maps"
	"strings"

	"github.com/angelmondragon/storefront/pkg/enums"
)

// QueryState holds the per-view search, filter, sort and grouping choices.
// Transitions return a new value; the receiver is left unchanged.
//
// Search and category are mutually exclusive: setting one clears the other.
// Price range and sort survive both.
type QueryState struct {
	Search   string
	Category string
	Price    PriceRange
	Sort     enums.SortKey
	Expanded map[string]bool
}

// NewQueryState returns the initial view: everything visible, featured order.
func NewQueryState() QueryState {
	return QueryState{Sort: enums.SortKeyFeatured}
}

func (q QueryState) WithSearch(text string) QueryState {
	q.Search = strings.TrimSpace(text)
	q.Category = ""
	return q
}

func (q QueryState) WithCategory(category string) QueryState {
	q.Category = category
	q.Search = ""
	return q
}

// Reset clears search and category, matching the "All Categories" action.
func (q QueryState) Reset() QueryState {
	q.Search = ""
	q.Category = ""
	return q
}

func (q QueryState) WithPriceRange(r PriceRange) QueryState {
	q.Price = r
	return q
}

func (q QueryState) WithSort(key enums.SortKey) QueryState {
	q.Sort = key
	return q
}

// Toggle flips the expanded flag for category.
func (q QueryState) Toggle(category string) QueryState {
	next := maps.Clone(q.Expanded)
	if next == nil {
		next = make(map[string]bool, 1)
	}
	next[category] = !q.IsExpanded(category)
	q.Expanded = next
	return q
}

// IsExpanded defaults to true for categories never toggled.
func (q QueryState) IsExpanded(category string) bool {
	expanded, ok := q.Expanded[category]
	if !ok {
		return true
	}
	return expanded
}
