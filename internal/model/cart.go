package model

import "github.com/shopspring/decimal"

// Cart is the customer's cart for a single retailer.
type Cart struct {
	ID          int64           `json:"id"`
	RetailerID  int64           `json:"retailer_id,omitempty"`
	Items       []CartItem      `json:"items"`
	TotalItems  int             `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// CartItem is one line of a cart with a price snapshot.
type CartItem struct {
	ID                   int64           `json:"id"`
	ProductID            int64           `json:"product_id"`
	ProductName          string          `json:"product_name"`
	ProductPrice         decimal.Decimal `json:"product_price"`
	ProductImage         string          `json:"product_image,omitempty"`
	Quantity             int             `json:"quantity"`
	StockQuantity        int             `json:"stock_quantity"`
	MinimumOrderQuantity int             `json:"minimum_order_quantity,omitempty"`
	MaximumOrderQuantity *int            `json:"maximum_order_quantity,omitempty"`
	TotalPrice           decimal.Decimal `json:"total_price"`
}

// Bounds returns the quantity limits of the cart line.
func (i CartItem) Bounds() QuantityBounds {
	return Product{
		StockQuantity:        i.StockQuantity,
		MinimumOrderQuantity: i.MinimumOrderQuantity,
		MaximumOrderQuantity: i.MaximumOrderQuantity,
	}.Bounds()
}

// Item returns the cart line with the given id.
func (c *Cart) Item(id int64) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ID == id {
			return it, true
		}
	}
	return CartItem{}, false
}

// AddToCartRequest is the payload of an add-to-cart call.
type AddToCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CartMutationResponse is what the backend returns after a cart change.
type CartMutationResponse struct {
	Message string `json:"message,omitempty"`
	Cart    *Cart  `json:"cart,omitempty"`
}
