package catalog

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront/api/validators"
	catalogsvc "github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

const maxSearchLength = 200

// stateFromQuery rebuilds a view state from the URL. Query parameters:
// q, category, min_price, max_price, sort and collapsed (comma separated).
func stateFromQuery(r *http.Request) (catalogsvc.QueryState, error) {
	query := r.URL.Query()
	state := catalogsvc.NewQueryState()

	search := validators.SanitizeString(query.Get("q"), maxSearchLength)
	category := strings.TrimSpace(query.Get("category"))
	if search != "" && category != "" {
		return state, pkgerrors.New(pkgerrors.CodeValidation, "search and category cannot be combined").
			WithDetails(map[string]any{"fields": []string{"q", "category"}})
	}
	switch {
	case search != "":
		state = state.WithSearch(search)
	case category != "":
		state = state.WithCategory(category)
	}

	minPrice, err := validators.ParseQueryDecimal(r, "min_price")
	if err != nil {
		return state, err
	}
	maxPrice, err := validators.ParseQueryDecimal(r, "max_price")
	if err != nil {
		return state, err
	}
	price := catalogsvc.PriceRange{Min: minPrice, Max: maxPrice}
	if err := price.Validate(); err != nil {
		return state, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	state = state.WithPriceRange(price)

	sortKey, err := enums.ParseSortKey(query.Get("sort"))
	if err != nil {
		return state, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown sort").
			WithDetails(map[string]any{"field": "sort"})
	}
	state = state.WithSort(sortKey)

	for _, collapsed := range validators.ParseQueryList(r, "collapsed") {
		if state.IsExpanded(collapsed) {
			state = state.Toggle(collapsed)
		}
	}
	return state, nil
}

func scopeFromQuery(r *http.Request) (enums.SearchScope, error) {
	scope, err := enums.ParseSearchScope(r.URL.Query().Get("scope"))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown search scope").
			WithDetails(map[string]any{"field": "scope"})
	}
	return scope, nil
}

// pageFromQuery reads limit and cursor; both absent means no paging.
func pageFromQuery(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Limit: limit, Cursor: strings.TrimSpace(r.URL.Query().Get("cursor"))}, nil
}
