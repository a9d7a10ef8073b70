package handler

import (
	"net/http"

	"storefront/internal/wishlist"

	"github.com/rs/zerolog"
)

// WishlistHandler serves the wishlist heart toggles.
type WishlistHandler struct {
	logger zerolog.Logger
}

// NewWishlistHandler creates a new wishlist handler.
func NewWishlistHandler(logger zerolog.Logger) *WishlistHandler {
	return &WishlistHandler{
		logger: logger.With().Str("handler", "wishlist").Logger(),
	}
}

type wishlistResponse struct {
	ProductIDs []string `json:"product_ids"`
}

type toggleResponse struct {
	ProductID  string         `json:"product_id"`
	Wishlisted bool           `json:"wishlisted"`
	State      wishlist.State `json:"state"`
}

// List handles GET /api/wishlist.
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	if err := sf.Wishlist.Load(r.Context(), forceRefresh(r)); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, wishlistResponse{ProductIDs: sf.Wishlist.IDs()})
}

// Toggle handles POST /api/wishlist/{id}/toggle.
func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	id := wishlist.ID(r.PathValue("id"))
	if id == "" {
		badID(w, "product ID", h.logger)
		return
	}

	member, err := sf.Wishlist.Toggle(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{
		ProductID:  id,
		Wishlisted: member,
		State:      sf.Wishlist.State(id),
	})
}
