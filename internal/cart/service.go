package cart

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

const (
	opAdd       = "add"
	opRemove    = "remove"
	opUpdate    = "update_quantity"
	opIncrement = "increment"
	opDecrement = "decrement"
	opClear     = "clear"
)

type productLookup interface {
	Product(ctx context.Context, id int) (catalog.Product, error)
}

// View is the cart as returned to clients.
type View struct {
	Items  []LineItem `json:"items"`
	Totals Totals     `json:"totals"`
	Coupon string     `json:"coupon,omitempty"`
}

// MutationView pairs a mutation outcome with the resulting cart.
type MutationView struct {
	Result MutationResult `json:"result"`
	Cart   View           `json:"cart"`
}

// Service exposes per-session cart operations.
type Service interface {
	View(ctx context.Context, sessionID, coupon string) (View, error)
	Add(ctx context.Context, sessionID string, productID int, coupon string) (MutationView, error)
	Remove(ctx context.Context, sessionID string, productID int, coupon string) (MutationView, error)
	UpdateQuantity(ctx context.Context, sessionID string, productID, quantity int, coupon string) (MutationView, error)
	Increment(ctx context.Context, sessionID string, productID int, coupon string) (MutationView, error)
	Decrement(ctx context.Context, sessionID string, productID int, coupon string) (MutationView, error)
	Clear(ctx context.Context, sessionID, coupon string) (MutationView, error)
	Checkout(ctx context.Context, sessionID, coupon string) (OrderReceipt, error)
	Drop(ctx context.Context, sessionID string)
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Registry *Registry
	Products productLookup
	Logger   *logger.Logger
	Metrics  *metrics.CartMetrics
	Clock    func() time.Time
}

type service struct {
	registry *Registry
	products productLookup
	logg     *logger.Logger
	metrics  *metrics.CartMetrics
	now      func() time.Time
}

// NewService builds a cart service backed by the provided registry.
func NewService(params ServiceParams) (Service, error) {
	if params.Registry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart registry is required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product lookup is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		registry: params.Registry,
		products: params.Products,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      clock,
	}, nil
}

func (s *service) View(ctx context.Context, sessionID, coupon string) (View, error) {
	store, err := s.store(sessionID)
	if err != nil {
		return View{}, err
	}
	return viewOf(store, coupon), nil
}

// Add resolves the product through the catalog so the line carries a
// trusted price rather than one supplied by the client. Like every mutation,
// the returned cart is priced with coupon.
func (s *service) Add(ctx context.Context, sessionID string, productID int, coupon string) (MutationView, error) {
	store, err := s.store(sessionID)
	if err != nil {
		return MutationView{}, err
	}
	product, err := s.products.Product(ctx, productID)
	if err != nil {
		return MutationView{}, err
	}
	return s.finish(ctx, opAdd, store, store.AddToCart(product), coupon), nil
}

func (s *service) Remove(ctx context.Context, sessionID string, productID int, coupon string) (MutationView, error) {
	return s.mutate(ctx, opRemove, sessionID, coupon, func(store *Store) MutationResult {
		return store.RemoveFromCart(productID)
	})
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID string, productID, quantity int, coupon string) (MutationView, error) {
	return s.mutate(ctx, opUpdate, sessionID, coupon, func(store *Store) MutationResult {
		return store.UpdateQuantity(productID, quantity)
	})
}

func (s *service) Increment(ctx context.Context, sessionID string, productID int, coupon string) (MutationView, error) {
	return s.mutate(ctx, opIncrement, sessionID, coupon, func(store *Store) MutationResult {
		return store.Increment(productID)
	})
}

func (s *service) Decrement(ctx context.Context, sessionID string, productID int, coupon string) (MutationView, error) {
	return s.mutate(ctx, opDecrement, sessionID, coupon, func(store *Store) MutationResult {
		return store.Decrement(productID)
	})
}

func (s *service) Clear(ctx context.Context, sessionID, coupon string) (MutationView, error) {
	return s.mutate(ctx, opClear, sessionID, coupon, func(store *Store) MutationResult {
		return store.ClearCart()
	})
}

func (s *service) Checkout(ctx context.Context, sessionID, coupon string) (OrderReceipt, error) {
	store, err := s.store(sessionID)
	if err != nil {
		return OrderReceipt{}, err
	}
	receipt, err := store.Checkout(strings.TrimSpace(coupon), s.now())
	if err != nil {
		return OrderReceipt{}, err
	}
	s.metrics.IncCheckout()
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"receipt_id": receipt.ID.String(),
		"item_count": receipt.Totals.ItemCount,
		"total":      receipt.Totals.Total.StringFixed(centsPlaces),
	}), "cart.checked_out")
	return receipt, nil
}

func (s *service) Drop(ctx context.Context, sessionID string) {
	if strings.TrimSpace(sessionID) == "" {
		return
	}
	s.registry.Drop(sessionID)
	s.logg.Debug(ctx, "cart.dropped")
}

func (s *service) mutate(ctx context.Context, op, sessionID, coupon string, fn func(*Store) MutationResult) (MutationView, error) {
	store, err := s.store(sessionID)
	if err != nil {
		return MutationView{}, err
	}
	return s.finish(ctx, op, store, fn(store), coupon), nil
}

func (s *service) finish(ctx context.Context, op string, store *Store, result MutationResult, coupon string) MutationView {
	s.metrics.IncMutation(op, result.Outcome.String())
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"op":         op,
		"outcome":    result.Outcome.String(),
		"product_id": result.ProductID,
		"quantity":   result.Quantity,
	}), "cart.mutated")
	return MutationView{Result: result, Cart: viewOf(store, strings.TrimSpace(coupon))}
}

func (s *service) store(sessionID string) (*Store, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session is required")
	}
	return s.registry.Get(sessionID), nil
}

func viewOf(store *Store, coupon string) View {
	items, totals := store.View(coupon)
	view := View{Items: items, Totals: totals}
	if store.policy.CouponApplies(coupon) {
		view.Coupon = coupon
	}
	return view
}
