package cart

type addItemRequest struct {
	ProductID int `json:"product_id" validate:"required,gte=1"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type checkoutRequest struct {
	Coupon string `json:"coupon" validate:"max=64"`
}
