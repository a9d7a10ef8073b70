package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"storefront/internal/model"
)

// productRef sends numeric ids as JSON numbers and anything else verbatim.
func productRef(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}

// Wishlist returns the wishlisted product ids in normalised string form.
func (c *Client) Wishlist(ctx context.Context, force bool) (model.WishlistIDs, error) {
	return get[model.WishlistIDs](ctx, c, "customer_wishlist", tags(wishlistRes), force, "customer/wishlist/", nil)
}

// AddToWishlist adds a product to the wishlist.
func (c *Client) AddToWishlist(ctx context.Context, productID string) error {
	err := c.exec(ctx, http.MethodPost, "customer/wishlist/add/",
		map[string]any{"product": productRef(productID)})
	if err != nil {
		return err
	}
	c.cache.Invalidate(wishlistRes)
	return nil
}

// RemoveFromWishlist removes a product from the wishlist.
func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) error {
	err := c.exec(ctx, http.MethodDelete,
		fmt.Sprintf("customer/wishlist/remove/%s/", url.PathEscape(productID)), nil)
	if err != nil {
		return err
	}
	c.cache.Invalidate(wishlistRes)
	return nil
}
