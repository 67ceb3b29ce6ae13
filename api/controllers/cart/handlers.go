package cart

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	cartsvc "github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// CartFetch returns the session cart priced with the optional ?coupon=.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.View(r.Context(), middleware.SessionIDFromContext(r.Context()), couponFromQuery(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartAddItem and the other mutations accept the same ?coupon= as CartFetch so
// the cart they return is priced the way the client is showing it.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Add(r.Context(), middleware.SessionIDFromContext(r.Context()), body.ProductID, couponFromQuery(r))
		writeMutation(w, r, logg, result, err)
	}
}

// CartUpdateQuantity sets an absolute quantity. Values below one come back
// as a rejected outcome with the cart unchanged.
func CartUpdateQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathInt(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.UpdateQuantity(r.Context(), middleware.SessionIDFromContext(r.Context()), productID, body.Quantity, couponFromQuery(r))
		writeMutation(w, r, logg, result, err)
	}
}

func CartIncrement(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return itemAction(logg, svc.Increment)
}

func CartDecrement(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return itemAction(logg, svc.Decrement)
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return itemAction(logg, svc.Remove)
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.Clear(r.Context(), middleware.SessionIDFromContext(r.Context()), couponFromQuery(r))
		writeMutation(w, r, logg, result, err)
	}
}

func CartCheckout(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		receipt, err := svc.Checkout(r.Context(), middleware.SessionIDFromContext(r.Context()), body.Coupon)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, receipt)
	}
}

type itemMutation func(ctx context.Context, sessionID string, productID int, coupon string) (cartsvc.MutationView, error)

func itemAction(logg *logger.Logger, fn itemMutation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathInt(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := fn(r.Context(), middleware.SessionIDFromContext(r.Context()), productID, couponFromQuery(r))
		writeMutation(w, r, logg, result, err)
	}
}

func couponFromQuery(r *http.Request) string {
	return validators.SanitizeString(r.URL.Query().Get("coupon"), 64)
}

func writeMutation(w http.ResponseWriter, r *http.Request, logg *logger.Logger, result cartsvc.MutationView, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, result)
}
