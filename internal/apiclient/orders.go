package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"storefront/internal/cache"
	"storefront/internal/model"
)

// placedOrder accepts either the order itself or {"order": {...}}.
type placedOrder model.Order

func (p *placedOrder) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Order json.RawMessage `json:"order"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && len(bytes.TrimSpace(envelope.Order)) > 0 && envelope.Order[0] == '{' {
		data = envelope.Order
	}

	type plain model.Order
	var o plain
	if err := json.Unmarshal(data, &o); err != nil {
		return err
	}
	*p = placedOrder(o)
	return nil
}

// PlaceOrder turns the server-side cart into an order.
func (c *Client) PlaceOrder(ctx context.Context, req model.PlaceOrderRequest) (*model.Order, error) {
	out, err := mutate[placedOrder](ctx, c, http.MethodPost, "orders/place/", req)
	if err != nil {
		return nil, err
	}

	stale := []cache.Resource{
		cache.Kind(KindOrders),
		cache.Kind(KindCart),
		cache.Kind(KindBuyAgain),
		cache.Res(KindLoyalty, "all"),
	}
	if req.RetailerID != "" {
		stale = append(stale, cache.Res(KindLoyalty, req.RetailerID))
	}
	c.cache.Invalidate(stale...)

	order := model.Order(out)
	return &order, nil
}

// OrderHistory lists past orders.
func (c *Client) OrderHistory(ctx context.Context, force bool) ([]model.Order, error) {
	return get[list[model.Order]](ctx, c, "orders_history", tags(cache.Res(KindOrders, "history")), force, "orders/history/", nil)
}

// CurrentOrders lists orders still in progress.
func (c *Client) CurrentOrders(ctx context.Context, force bool) ([]model.Order, error) {
	return get[list[model.Order]](ctx, c, "orders_current", tags(cache.Res(KindOrders, "current")), force, "orders/current/", nil)
}

// Order returns one order with its items.
func (c *Client) Order(ctx context.Context, id int64, force bool) (*model.Order, error) {
	sid := idString(id)
	out, err := get[model.Order](ctx, c, "order_"+sid, tags(cache.Res(KindOrder, sid)), force, fmt.Sprintf("orders/%s/", sid), nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelOrder cancels an order.
func (c *Client) CancelOrder(ctx context.Context, id int64, reason string) error {
	return c.orderAction(ctx, id, "cancel", map[string]string{"reason": reason})
}

// ConfirmModification accepts or rejects a retailer's change to an order.
func (c *Client) ConfirmModification(ctx context.Context, id int64, action string) error {
	return c.orderAction(ctx, id, "confirm_modification", map[string]string{"action": action})
}

// RateOrder rates a delivered order.
func (c *Client) RateOrder(ctx context.Context, id int64, rating model.OrderRating) error {
	sid := idString(id)
	err := c.exec(ctx, http.MethodPost, fmt.Sprintf("orders/%s/rate/", sid), rating)
	if err != nil {
		return err
	}
	c.cache.Invalidate(cache.Res(KindOrder, sid), cache.Kind(KindOrders))
	return nil
}

// orderAction posts to an order action endpoint. Actions can move loyalty
// points at any retailer, so every loyalty entry is invalidated.
func (c *Client) orderAction(ctx context.Context, id int64, action string, body any) error {
	sid := idString(id)
	err := c.exec(ctx, http.MethodPost, fmt.Sprintf("orders/%s/%s/", sid, action), body)
	if err != nil {
		return err
	}
	c.cache.Invalidate(
		cache.Res(KindOrder, sid),
		cache.Kind(KindOrders),
		cache.Kind(KindLoyalty),
	)
	return nil
}
