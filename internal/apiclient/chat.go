package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"storefront/internal/model"
)

// ChatMessages lists an order's chat messages, oldest first.
func (c *Client) ChatMessages(ctx context.Context, orderID int64) ([]model.ChatMessage, error) {
	var out list[model.ChatMessage]
	err := c.do(ctx, call{method: http.MethodGet, path: fmt.Sprintf("orders/%s/chat/", idString(orderID))}, &out)
	return out, err
}

// SendChatMessage posts a message to an order's chat.
func (c *Client) SendChatMessage(ctx context.Context, orderID int64, text string) (*model.ChatMessage, error) {
	out, err := mutate[model.ChatMessage](ctx, c, http.MethodPost,
		fmt.Sprintf("orders/%s/chat/send/", idString(orderID)), map[string]string{"message": text})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkChatRead marks the retailer's messages on an order as read.
func (c *Client) MarkChatRead(ctx context.Context, orderID int64) error {
	sid := idString(orderID)
	err := c.exec(ctx, http.MethodPost, fmt.Sprintf("orders/%s/chat/mark_read/", sid), nil)
	if err != nil {
		return err
	}
	c.cache.Invalidate(orderRes(sid))
	return nil
}
