package catalog

import (
	"slices"

	"github.com/angelmondragon/storefront/pkg/enums"
)

// Group is one category section of a grouped view.
type Group struct {
	Category string    `json:"category"`
	Products []Product `json:"products"`
}

// GroupView is a Group as rendered: collapsed groups keep their count but
// carry no products.
type GroupView struct {
	Category string    `json:"category"`
	Expanded bool      `json:"expanded"`
	Count    int       `json:"count"`
	Products []Product `json:"products"`
}

// GroupByCategory partitions products by category. Groups appear in
// first-seen category order and members keep their input order.
func GroupByCategory(products []Product) []Group {
	index := make(map[string]int)
	groups := make([]Group, 0)
	for _, product := range products {
		pos, ok := index[product.Category]
		if !ok {
			pos = len(groups)
			index[product.Category] = pos
			groups = append(groups, Group{Category: product.Category})
		}
		groups[pos].Products = append(groups[pos].Products, product)
	}
	return groups
}

// Flatten concatenates the groups in order. It reproduces the input of
// GroupByCategory whenever that input already had each category contiguous.
func Flatten(groups []Group) []Product {
	out := make([]Product, 0)
	for _, group := range groups {
		out = append(out, group.Products...)
	}
	return out
}

// Grouped applies state to products (title search, as on the browse page)
// and groups the result, honoring the per-category expanded flags.
func Grouped(products []Product, state QueryState) []GroupView {
	filtered := Apply(products, state, enums.SearchScopeTitle)
	groups := GroupByCategory(filtered)
	views := make([]GroupView, 0, len(groups))
	for _, group := range groups {
		view := GroupView{
			Category: group.Category,
			Expanded: state.IsExpanded(group.Category),
			Count:    len(group.Products),
			Products: []Product{},
		}
		if view.Expanded {
			view.Products = slices.Clone(group.Products)
		}
		views = append(views, view)
	}
	return views
}
