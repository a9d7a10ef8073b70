package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"storefront/internal/cache"
	"storefront/internal/model"
)

// Cart returns the customer's cart at a retailer.
func (c *Client) Cart(ctx context.Context, retailerID int64, force bool) (*model.Cart, error) {
	id := idString(retailerID)
	out, err := get[model.Cart](ctx, c, "cart_"+id, tags(cache.Res(KindCart, id)), force,
		"cart/", url.Values{"retailer_id": {id}})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AddToCart adds quantity units of a product. The backend infers the
// retailer from the product, so every cached cart is invalidated.
func (c *Client) AddToCart(ctx context.Context, productID int64, quantity int) (*model.CartMutationResponse, error) {
	out, err := mutate[model.CartMutationResponse](ctx, c, http.MethodPost, "cart/add/", model.AddToCartRequest{
		ProductID: productID,
		Quantity:  quantity,
	})
	if err != nil {
		return nil, err
	}
	c.cache.Invalidate(cache.Kind(KindCart))
	return &out, nil
}

// UpdateCartItem sets a cart line's quantity.
func (c *Client) UpdateCartItem(ctx context.Context, itemID int64, quantity int) (*model.CartMutationResponse, error) {
	out, err := mutate[model.CartMutationResponse](ctx, c, http.MethodPatch,
		fmt.Sprintf("cart/items/%s/", idString(itemID)), map[string]int{"quantity": quantity})
	if err != nil {
		return nil, err
	}
	c.cache.Invalidate(cache.Kind(KindCart))
	return &out, nil
}

// RemoveCartItem deletes a cart line.
func (c *Client) RemoveCartItem(ctx context.Context, itemID int64) error {
	err := c.exec(ctx, http.MethodDelete,
		fmt.Sprintf("cart/items/%s/remove/", idString(itemID)), nil)
	if err != nil {
		return err
	}
	c.cache.Invalidate(cache.Kind(KindCart))
	return nil
}
