package handler

import (
	"net/http"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// OrderHandler serves order tracking, order actions and the order chat.
type OrderHandler struct {
	logger zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		logger: logger.With().Str("handler", "order").Logger(),
	}
}

// CancelRequest is the body of POST /api/orders/{id}/cancel.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// ModificationRequest is the body of POST /api/orders/{id}/modification.
type ModificationRequest struct {
	Action string `json:"action"`
}

// ChatRequest is the body of POST /api/orders/{id}/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// List handles GET /api/orders. scope=current lists the active orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}

	var (
		orders []model.Order
		err    error
	)
	switch scope := r.URL.Query().Get("scope"); scope {
	case "", "history":
		orders, err = sf.Orders.History(r.Context(), forceRefresh(r))
	case "current":
		orders, err = sf.Orders.Current(r.Context(), forceRefresh(r))
	default:
		writeError(w, http.StatusBadRequest, "scope must be history or current", model.ErrCodeMissingField, h.logger)
		return
	}
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// Get handles GET /api/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		badID(w, "order ID", h.logger)
		return
	}

	order, err := sf.Orders.Detail(r.Context(), id, forceRefresh(r))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Cancel handles POST /api/orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		badID(w, "order ID", h.logger)
		return
	}
	var req CancelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badJSON(w, h.logger)
		return
	}

	if err := sf.Orders.Cancel(r.Context(), id, req.Reason); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	h.writeOrder(w, r, id)
}

// RespondToModification handles POST /api/orders/{id}/modification.
func (h *OrderHandler) RespondToModification(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		badID(w, "order ID", h.logger)
		return
	}
	var req ModificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badJSON(w, h.logger)
		return
	}

	if err := sf.Orders.RespondToModification(r.Context(), id, req.Action); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	h.writeOrder(w, r, id)
}

// Rate handles POST /api/orders/{id}/rate.
func (h *OrderHandler) Rate(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		badID(w, "order ID", h.logger)
		return
	}
	var rating model.OrderRating
	if err := decodeJSON(w, r, &rating); err != nil {
		badJSON(w, h.logger)
		return
	}

	if err := sf.Orders.Rate(r.Context(), id, rating); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Thank you for your feedback", Success: true})
}

// writeOrder answers an order action with the order as it is now.
func (h *OrderHandler) writeOrder(w http.ResponseWriter, r *http.Request, id int64) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	order, err := sf.Orders.Detail(r.Context(), id, true)
	if err != nil {
		h.logger.Warn().Err(err).Int64("order_id", id).Msg("failed to reload order after update")
		writeJSON(w, http.StatusOK, model.MessageResponse{Success: true})
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Messages handles GET /api/orders/{id}/chat.
func (h *OrderHandler) Messages(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		badID(w, "order ID", h.logger)
		return
	}

	messages, err := sf.Chat.Messages(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if messages == nil {
		messages = []model.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// Send handles POST /api/orders/{id}/chat.
func (h *OrderHandler) Send(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		badID(w, "order ID", h.logger)
		return
	}
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badJSON(w, h.logger)
		return
	}

	msg, err := sf.Chat.Send(r.Context(), id, req.Message)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// MarkRead handles POST /api/orders/{id}/chat/read.
func (h *OrderHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		badID(w, "order ID", h.logger)
		return
	}

	if err := sf.Chat.MarkRead(r.Context(), id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
