package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"storefront/internal/cache"
	"storefront/internal/model"
)

func retailerQuery(q model.RetailerQuery) url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.City != "" {
		v.Set("city", q.City)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

func productQuery(q model.ProductQuery) url.Values {
	v := url.Values{}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Ordering != "" {
		v.Set("ordering", q.Ordering)
	}
	return v
}

// paramsKey renders query parameters the way cache keys embed them.
func paramsKey(params any) string {
	b, err := json.Marshal(params)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Retailers lists retailers matching q.
func (c *Client) Retailers(ctx context.Context, q model.RetailerQuery, force bool) ([]model.Retailer, error) {
	key := "retailers_" + paramsKey(q)
	out, err := get[list[model.Retailer]](ctx, c, key, tags(cache.Kind(KindRetailers)), force, "retailers/", retailerQuery(q))
	return out, err
}

// Retailer returns one retailer's details.
func (c *Client) Retailer(ctx context.Context, retailerID int64, force bool) (*model.Retailer, error) {
	id := idString(retailerID)
	out, err := get[model.Retailer](ctx, c, "retailer_"+id, tags(cache.Res(KindRetailer, id)), force, fmt.Sprintf("retailers/%s/", id), nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Categories lists a retailer's product categories.
func (c *Client) Categories(ctx context.Context, retailerID int64, force bool) ([]model.Category, error) {
	id := idString(retailerID)
	return get[list[model.Category]](ctx, c, "categories_"+id, tags(cache.Res(KindCategories, id)), force,
		fmt.Sprintf("products/retailer/%s/categories/", id), nil)
}

// Featured lists a retailer's featured products.
func (c *Client) Featured(ctx context.Context, retailerID int64, force bool) ([]model.Product, error) {
	return c.productList(ctx, KindFeatured, "featured", retailerID, force)
}

// BestSelling lists a retailer's best-selling products.
func (c *Client) BestSelling(ctx context.Context, retailerID int64, force bool) ([]model.Product, error) {
	return c.productList(ctx, KindBestSelling, "best-selling", retailerID, force)
}

// BuyAgain lists products the customer ordered before from the retailer.
func (c *Client) BuyAgain(ctx context.Context, retailerID int64, force bool) ([]model.Product, error) {
	return c.productList(ctx, KindBuyAgain, "buy-again", retailerID, force)
}

// Recommended lists products recommended to the customer.
func (c *Client) Recommended(ctx context.Context, retailerID int64, force bool) ([]model.Product, error) {
	return c.productList(ctx, KindRecommended, "recommended", retailerID, force)
}

func (c *Client) productList(ctx context.Context, kind, segment string, retailerID int64, force bool) ([]model.Product, error) {
	id := idString(retailerID)
	return get[list[model.Product]](ctx, c, kind+"_"+id, tags(cache.Res(kind, id)), force,
		fmt.Sprintf("products/retailer/%s/%s/", id, segment), nil)
}

// Products returns one page of a retailer's products.
func (c *Client) Products(ctx context.Context, retailerID int64, q model.ProductQuery, force bool) (*model.ProductPage, error) {
	id := idString(retailerID)
	key := fmt.Sprintf("products_%s_%s", id, paramsKey(q))

	out, err := get[productPage](ctx, c, key, tags(cache.Res(KindProducts, id)), force,
		fmt.Sprintf("products/retailer/%s/", id), productQuery(q))
	if err != nil {
		return nil, err
	}
	page := model.ProductPage(out)
	return &page, nil
}

// Product returns one product with its stock and order limits.
func (c *Client) Product(ctx context.Context, retailerID, productID int64, force bool) (*model.Product, error) {
	rid, pid := idString(retailerID), idString(productID)
	out, err := get[model.Product](ctx, c, fmt.Sprintf("product_%s_%s", rid, pid), tags(cache.Res(KindProduct, pid)), force,
		fmt.Sprintf("products/retailer/%s/%s/", rid, pid), nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// productPage accepts a paginated envelope or a bare product array.
type productPage model.ProductPage

func (p *productPage) UnmarshalJSON(data []byte) error {
	var items list[model.Product]
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*p = productPage{Count: len(items), Results: items}
		return nil
	}

	type plain model.ProductPage
	var page plain
	if err := json.Unmarshal(data, &page); err != nil {
		return err
	}
	if page.Results == nil {
		page.Results = []model.Product{}
	}
	*p = productPage(page)
	return nil
}
