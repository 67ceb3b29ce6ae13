package catalog

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	catalogsvc "github.com/angelmondragon/storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/pagination"
	"github.com/go-chi/chi/v5"
)

const maxSuggestLimit = 20

// Browse lists products after search, category, price and sort are applied.
func Browse(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := stateFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		scope, err := scopeFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := pageFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Browse(r.Context(), state, scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !page.Requested() {
			responses.WriteList(w, result.Products)
			return
		}
		products, next, err := pagination.Page(result.Products, page, result.SnapshotAt)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error()).
				WithDetails(map[string]any{"field": "cursor"}))
			return
		}
		responses.WritePage(w, products, result.Count, next)
	}
}

// Grouped returns the home page view: products bucketed by category with
// collapsed buckets carrying only their count.
func Grouped(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := stateFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groups, err := svc.Grouped(r.Context(), state)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, groups)
	}
}

func Suggest(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", catalogsvc.DefaultSuggestLimit, 1, maxSuggestLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		text := validators.SanitizeString(r.URL.Query().Get("q"), maxSearchLength)
		products, err := svc.Suggest(r.Context(), text, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, suggestionsFrom(products))
	}
}

func Categories(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, categories)
	}
}

func Product(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathInt(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Product(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// CategoryPage serves /categories/{category}; q searches title and description.
func CategoryPage(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		q.Del("category")
		r.URL.RawQuery = q.Encode()

		state, err := stateFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category := pathCategory(r)
		if category == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "category is required"))
			return
		}

		result, err := svc.ByCategory(r.Context(), category, state)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DefaultCategoryPage serves the category page before a category is chosen.
func DefaultCategoryPage(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := stateFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ByCategory(r.Context(), "", state)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// pathCategory unescapes the category segment; chi hands back the raw form
// when the request path carried escapes.
func pathCategory(r *http.Request) string {
	raw := chi.URLParam(r, "category")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	return strings.TrimSpace(raw)
}
