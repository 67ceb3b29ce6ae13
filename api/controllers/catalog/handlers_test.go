package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	catalogsvc "github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type stubCatalog struct {
	lastState    catalogsvc.QueryState
	lastScope    enums.SearchScope
	lastCategory string
	lastLimit    int
	products     []catalogsvc.Product
	err          error
}

func (s *stubCatalog) Snapshot(ctx context.Context) (catalogsvc.Snapshot, error) {
	return catalogsvc.Snapshot{Products: s.products}, s.err
}

func (s *stubCatalog) Browse(ctx context.Context, state catalogsvc.QueryState, scope enums.SearchScope) (catalogsvc.BrowseResult, error) {
	s.lastState, s.lastScope = state, scope
	return catalogsvc.BrowseResult{Products: s.products, Count: len(s.products)}, s.err
}

func (s *stubCatalog) Grouped(ctx context.Context, state catalogsvc.QueryState) ([]catalogsvc.GroupView, error) {
	s.lastState = state
	return catalogsvc.Grouped(s.products, state), s.err
}

func (s *stubCatalog) Suggest(ctx context.Context, text string, limit int) ([]catalogsvc.Product, error) {
	s.lastLimit = limit
	return s.products, s.err
}

func (s *stubCatalog) Categories(ctx context.Context) ([]string, error) {
	return []string{"clothing"}, s.err
}

func (s *stubCatalog) Product(ctx context.Context, id int) (catalogsvc.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return catalogsvc.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (s *stubCatalog) ByCategory(ctx context.Context, category string, state catalogsvc.QueryState) (catalogsvc.BrowseResult, error) {
	s.lastCategory, s.lastState = category, state
	return catalogsvc.BrowseResult{Category: category, Products: s.products, Count: len(s.products)}, s.err
}

func newRouter(svc *stubCatalog) http.Handler {
	r := chi.NewRouter()
	r.Get("/products", Browse(svc, nil))
	r.Get("/products/grouped", Grouped(svc, nil))
	r.Get("/products/suggest", Suggest(svc, nil))
	r.Get("/products/{productID}", Product(svc, nil))
	r.Get("/categories/{category}/products", CategoryPage(svc, nil))
	return r
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func sampleProducts() []catalogsvc.Product {
	return []catalogsvc.Product{
		{ID: 1, Title: "Red Shirt", Category: "clothing", Price: decimal.NewFromInt(20)},
		{ID: 2, Title: "Phone", Category: "electronics", Price: decimal.NewFromInt(300)},
	}
}

func TestBrowseParsesQueryState(t *testing.T) {
	svc := &stubCatalog{products: sampleProducts()}
	rec := get(t, newRouter(svc), "/products?q=shirt&min_price=10&max_price=50&sort=price-high&scope=title_description")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastState.Search != "shirt" || svc.lastState.Sort != enums.SortKeyPriceDescending {
		t.Fatalf("unexpected state %+v", svc.lastState)
	}
	if !svc.lastState.Price.Min.Equal(decimal.NewFromInt(10)) || !svc.lastState.Price.Max.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected price range %+v", svc.lastState.Price)
	}
	if svc.lastScope != enums.SearchScopeTitleDescription {
		t.Fatalf("unexpected scope %s", svc.lastScope)
	}

	var body struct {
		Meta struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Meta.Count != 2 {
		t.Fatalf("expected count 2, got %d", body.Meta.Count)
	}
}

func TestBrowseRejectsBadInput(t *testing.T) {
	svc := &stubCatalog{}
	router := newRouter(svc)
	for _, target := range []string{
		"/products?q=shirt&category=clothing",
		"/products?min_price=50&max_price=10",
		"/products?min_price=abc",
		"/products?sort=alphabetical",
		"/products?scope=everything",
	} {
		if rec := get(t, router, target); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestGroupedAppliesCollapsedCategories(t *testing.T) {
	svc := &stubCatalog{products: sampleProducts()}
	rec := get(t, newRouter(svc), "/products/grouped?collapsed=electronics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastState.IsExpanded("electronics") || !svc.lastState.IsExpanded("clothing") {
		t.Fatalf("unexpected expanded map %v", svc.lastState.Expanded)
	}
}

func TestSuggestLimitBounds(t *testing.T) {
	svc := &stubCatalog{products: sampleProducts()}
	router := newRouter(svc)
	if rec := get(t, router, "/products/suggest?q=sh"); rec.Code != http.StatusOK || svc.lastLimit != catalogsvc.DefaultSuggestLimit {
		t.Fatalf("expected default limit, got %d (%d)", svc.lastLimit, rec.Code)
	}
	if rec := get(t, router, "/products/suggest?q=sh&limit=99"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized limit, got %d", rec.Code)
	}
}

func TestProductNotFound(t *testing.T) {
	svc := &stubCatalog{products: sampleProducts()}
	router := newRouter(svc)
	if rec := get(t, router, "/products/1"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := get(t, router, "/products/999"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := get(t, router, "/products/zero"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCategoryPageUsesPathCategory(t *testing.T) {
	svc := &stubCatalog{products: sampleProducts()}
	rec := get(t, newRouter(svc), "/categories/men%27s%20clothing/products?q=shirt&category=ignored")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastCategory != "men's clothing" {
		t.Fatalf("unexpected category %q", svc.lastCategory)
	}
	if svc.lastState.Search != "shirt" {
		t.Fatalf("expected search to survive, got %+v", svc.lastState)
	}
}

func TestBrowsePaginates(t *testing.T) {
	svc := &stubCatalog{products: sampleProducts()}
	router := newRouter(svc)

	rec := get(t, router, "/products?limit=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Data []struct {
			ID int `json:"id"`
		} `json:"data"`
		Meta struct {
			Total      int    `json:"total"`
			NextCursor string `json:"next_cursor"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 || body.Meta.Total != 2 || body.Meta.NextCursor == "" {
		t.Fatalf("unexpected first page %+v", body)
	}

	rec = get(t, router, "/products?limit=1&cursor="+body.Meta.NextCursor)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"id":2`) {
		t.Fatalf("unexpected second page %d: %s", rec.Code, rec.Body.String())
	}

	if rec := get(t, router, "/products?cursor=garbage!"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad cursor, got %d", rec.Code)
	}
}
