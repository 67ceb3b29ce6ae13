package enums

import (
	"fmt"
	"strings"
)

// SortKey selects the ordering applied to a catalog view.
type SortKey string

const (
	SortKeyFeatured        SortKey = "featured"
	SortKeyPriceAscending  SortKey = "price-ascending"
	SortKeyPriceDescending SortKey = "price-descending"
	SortKeyRatingDesc      SortKey = "rating-descending"
)

var validSortKeys = []SortKey{
	SortKeyFeatured,
	SortKeyPriceAscending,
	SortKeyPriceDescending,
	SortKeyRatingDesc,
}

// Short names used by the storefront's sort dropdown.
var sortKeyAliases = map[string]SortKey{
	"":           SortKeyFeatured,
	"none":       SortKeyFeatured,
	"price-low":  SortKeyPriceAscending,
	"price-high": SortKeyPriceDescending,
	"rating":     SortKeyRatingDesc,
}

// String implements fmt.Stringer.
func (s SortKey) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SortKey.
func (s SortKey) IsValid() bool {
	for _, candidate := range validSortKeys {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSortKey converts raw input into a SortKey. Blank input is featured.
func ParseSortKey(value string) (SortKey, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if alias, ok := sortKeyAliases[normalized]; ok {
		return alias, nil
	}
	for _, candidate := range validSortKeys {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort key %q", value)
}
