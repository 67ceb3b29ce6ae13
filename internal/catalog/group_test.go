package catalog

import (
	"slices"
	"testing"

	"github.com/angelmondragon/storefront/pkg/enums"
)

func TestGroupByCategoryPreservesOrder(t *testing.T) {
	products := []Product{
		product(1, "A", "electronics", 1),
		product(2, "B", "clothing", 1),
		product(3, "C", "electronics", 1),
		product(4, "D", "jewelery", 1),
	}
	groups := GroupByCategory(products)

	var categories []string
	for _, g := range groups {
		categories = append(categories, g.Category)
	}
	if !slices.Equal(categories, []string{"electronics", "clothing", "jewelery"}) {
		t.Fatalf("unexpected group order %v", categories)
	}
	if !slices.Equal(ids(groups[0].Products), []int{1, 3}) {
		t.Fatalf("unexpected members %v", ids(groups[0].Products))
	}

	flat := Flatten(groups)
	if len(flat) != len(products) {
		t.Fatalf("flatten lost products: %v", ids(flat))
	}
}

func TestGroupThenFlattenRoundTripsContiguousInput(t *testing.T) {
	products := sampleProducts()
	sorted := SortProducts(FilterByPriceRange(products, PriceRange{Max: dec(1000)}), enums.SortKeyFeatured)

	if !slices.Equal(ids(Flatten(GroupByCategory(sorted))), ids(sorted)) {
		t.Fatalf("round trip changed order: %v", ids(Flatten(GroupByCategory(sorted))))
	}
	if len(GroupByCategory(nil)) != 0 || len(Flatten(nil)) != 0 {
		t.Fatal("empty input should give empty output")
	}
}

func TestGroupedHonorsCollapsedCategories(t *testing.T) {
	state := NewQueryState().Toggle("clothing")
	views := Grouped(sampleProducts(), state)

	if len(views) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(views))
	}
	clothing := views[0]
	if clothing.Expanded || clothing.Count != 2 || len(clothing.Products) != 0 {
		t.Fatalf("collapsed group should keep count only, got %+v", clothing)
	}
	electronics := views[1]
	if !electronics.Expanded || electronics.Count != 1 || len(electronics.Products) != 1 {
		t.Fatalf("unexpected expanded group %+v", electronics)
	}
}

func TestGroupedAppliesFilters(t *testing.T) {
	views := Grouped(sampleProducts(), NewQueryState().WithSearch("phone"))
	if len(views) != 1 || views[0].Category != "electronics" {
		t.Fatalf("expected only electronics, got %+v", views)
	}
}
