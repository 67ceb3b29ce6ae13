package cart

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type stubLookup struct {
	products map[int]catalog.Product
}

func (s stubLookup) Product(ctx context.Context, id int) (catalog.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return catalog.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func newTestService(t *testing.T) (Service, *Registry) {
	t.Helper()
	registry := NewRegistry(DefaultPricingPolicy())
	svc, err := NewService(ServiceParams{
		Registry: registry,
		Products: stubLookup{products: map[int]catalog.Product{1: item(1, "100"), 2: item(2, "5")}},
		Logger:   logger.Nop(),
		Metrics:  metrics.NewCartMetrics(prometheus.NewRegistry()),
		Clock:    func() time.Time { return time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, registry
}

func TestServiceAddResolvesCatalogPrice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.Add(ctx, "sess", 1, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if view.Result.Outcome != enums.MutationOutcomeApplied || len(view.Cart.Items) != 1 {
		t.Fatalf("unexpected mutation view %+v", view)
	}
	if view.Cart.Totals.Subtotal.StringFixed(2) != "100.00" {
		t.Fatalf("unexpected subtotal %s", view.Cart.Totals.Subtotal)
	}

	if _, err := svc.Add(ctx, "sess", 404, ""); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}
}

func TestServiceNoopOutcomesAreNotErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "sess", 2, ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	view, err := svc.UpdateQuantity(ctx, "sess", 2, 0, "")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if view.Result.Outcome != enums.MutationOutcomeRejectedBelowMinimum || view.Cart.Items[0].Quantity != 1 {
		t.Fatalf("unexpected view %+v", view)
	}

	view, err = svc.Remove(ctx, "sess", 99, "")
	if err != nil || view.Result.Outcome != enums.MutationOutcomeNoopAbsent {
		t.Fatalf("expected noop absent, got %+v err=%v", view, err)
	}

	if view, err = svc.Increment(ctx, "sess", 2, ""); err != nil || view.Result.Quantity != 2 {
		t.Fatalf("increment: %+v err=%v", view, err)
	}
	if view, err = svc.Decrement(ctx, "sess", 2, ""); err != nil || view.Result.Quantity != 1 {
		t.Fatalf("decrement: %+v err=%v", view, err)
	}
	if view, err = svc.Clear(ctx, "sess", ""); err != nil || len(view.Cart.Items) != 0 {
		t.Fatalf("clear: %+v err=%v", view, err)
	}
}

func TestServiceViewAppliesCoupon(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Add(ctx, "sess", 1, ""); err != nil {
		t.Fatalf("add: %v", err)
	}

	view, err := svc.View(ctx, "sess", "SAVE10")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.Coupon != "SAVE10" || view.Totals.Total.StringFixed(2) != "97.20" {
		t.Fatalf("unexpected view %+v", view)
	}

	view, err = svc.View(ctx, "sess", "BADCODE")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.Coupon != "" || !view.Totals.Discount.IsZero() {
		t.Fatalf("bad coupon should not apply, got %+v", view)
	}
}

func TestServiceMutationsPriceWithCoupon(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.Add(ctx, "sess", 1, "SAVE10")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if view.Cart.Coupon != "SAVE10" || view.Cart.Totals.Total.StringFixed(2) != "97.20" {
		t.Fatalf("add should price with the coupon, got %+v", view.Cart)
	}

	view, err = svc.Increment(ctx, "sess", 1, " SAVE10 ")
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if view.Cart.Totals.Discount.StringFixed(2) != "20.00" {
		t.Fatalf("increment should keep the discount, got %+v", view.Cart.Totals)
	}

	view, err = svc.Decrement(ctx, "sess", 1, "")
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if !view.Cart.Totals.Discount.IsZero() || view.Cart.Coupon != "" {
		t.Fatalf("no coupon means no discount, got %+v", view.Cart)
	}
}

func TestServiceCheckoutAndDrop(t *testing.T) {
	svc, registry := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Checkout(ctx, "sess", ""); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error on empty cart, got %v", err)
	}
	if _, err := svc.Add(ctx, "sess", 1, ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	receipt, err := svc.Checkout(ctx, "sess", " SAVE10 ")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if receipt.Coupon != "SAVE10" || receipt.Totals.Total.StringFixed(2) != "97.20" {
		t.Fatalf("unexpected receipt %+v", receipt)
	}

	svc.Drop(ctx, "sess")
	if registry.Len() != 0 {
		t.Fatalf("expected session dropped, got %d", registry.Len())
	}
}

func TestServiceRequiresSession(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.View(context.Background(), " ", ""); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected error without registry")
	}
	if _, err := NewService(ServiceParams{Registry: NewRegistry(DefaultPricingPolicy())}); err == nil {
		t.Fatal("expected error without product lookup")
	}
}
