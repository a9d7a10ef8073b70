package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// CartHandler serves the cart and checkout pages.
type CartHandler struct {
	logger zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		logger: logger.With().Str("handler", "cart").Logger(),
	}
}

// AddItemRequest is the body of POST /api/cart/items.
type AddItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// UpdateItemRequest is the body of PATCH /api/cart/items/{id}.
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	cart, err := sf.Cart.Get(r.Context(), forceRefresh(r))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// AddItem handles POST /api/cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}

	req := AddItemRequest{Quantity: 1}
	if err := decodeJSON(w, r, &req); err != nil {
		badJSON(w, h.logger)
		return
	}
	if req.ProductID <= 0 {
		writeError(w, http.StatusBadRequest, "product_id is required", model.ErrCodeMissingField, h.logger)
		return
	}

	resp, err := sf.Cart.Add(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// UpdateItem handles PATCH /api/cart/items/{id}.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		badID(w, "cart item ID", h.logger)
		return
	}

	var req UpdateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badJSON(w, h.logger)
		return
	}

	resp, err := sf.Cart.UpdateQuantity(r.Context(), id, req.Quantity)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RemoveItem handles DELETE /api/cart/items/{id}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		badID(w, "cart item ID", h.logger)
		return
	}

	if err := sf.Cart.Remove(r.Context(), id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout handles GET /api/checkout.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	summary, err := sf.Checkout.Summary(r.Context(), forceRefresh(r))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// PlaceOrder handles POST /api/checkout.
func (h *CartHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}

	var req service.CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badJSON(w, h.logger)
		return
	}

	order, err := sf.Checkout.PlaceOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	h.logger.Info().Int64("order_id", order.ID).Str("session_id", sf.ID()).Msg("order placed")
	writeJSON(w, http.StatusCreated, order)
}
