package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// CatalogHandler serves the retailer directory and catalogue pages.
type CatalogHandler struct {
	logger zerolog.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		logger: logger.With().Str("handler", "catalog").Logger(),
	}
}

// productView is a product page with the customer's wishlist membership.
type productView struct {
	*service.ProductDetail
	Wishlisted bool `json:"wishlisted"`
}

// Retailers handles GET /api/retailers.
func (h *CatalogHandler) Retailers(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}

	page, ok := queryInt(r, "page")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid page parameter", model.ErrCodeInvalidID, h.logger)
		return
	}
	q := model.RetailerQuery{
		Search: r.URL.Query().Get("search"),
		City:   r.URL.Query().Get("city"),
		Page:   page,
	}

	retailers, err := sf.Catalog.ListRetailers(r.Context(), q, forceRefresh(r))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if retailers == nil {
		retailers = []model.Retailer{}
	}
	writeJSON(w, http.StatusOK, retailers)
}

// RetailerHome handles GET /api/retailers/{id}.
func (h *CatalogHandler) RetailerHome(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		badID(w, "retailer ID", h.logger)
		return
	}

	home, err := sf.Catalog.RetailerHome(r.Context(), id, forceRefresh(r))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, home)
}

// Categories handles GET /api/retailers/{id}/categories.
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		badID(w, "retailer ID", h.logger)
		return
	}

	categories, err := sf.Catalog.Categories(r.Context(), id, forceRefresh(r))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

// Products handles GET /api/retailers/{id}/products.
func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		badID(w, "retailer ID", h.logger)
		return
	}
	page, ok := queryInt(r, "page")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid page parameter", model.ErrCodeInvalidID, h.logger)
		return
	}

	q := model.ProductQuery{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
		Ordering: r.URL.Query().Get("ordering"),
		Page:     page,
	}
	products, err := sf.Catalog.Products(r.Context(), id, q, forceRefresh(r))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// Product handles GET /api/retailers/{id}/products/{pid}.
func (h *CatalogHandler) Product(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	retailerID, ok := pathID(r, "id")
	if !ok {
		badID(w, "retailer ID", h.logger)
		return
	}
	productID, ok := pathID(r, "pid")
	if !ok {
		badID(w, "product ID", h.logger)
		return
	}

	detail, err := sf.Catalog.ProductDetail(r.Context(), retailerID, productID, forceRefresh(r))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	view := productView{ProductDetail: detail}
	if sf.Authenticated() {
		// The page still renders with an unknown wishlist state.
		if err := sf.Wishlist.Load(r.Context(), false); err == nil {
			view.Wishlisted = sf.Wishlist.IsWishlisted(strconv.FormatInt(productID, 10))
		}
	}
	writeJSON(w, http.StatusOK, view)
}
