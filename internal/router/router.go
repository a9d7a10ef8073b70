package router

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups the page handlers the router mounts.
type Handlers struct {
	Catalog       *handler.CatalogHandler
	Cart          *handler.CartHandler
	Wishlist      *handler.WishlistHandler
	Orders        *handler.OrderHandler
	Account       *handler.AccountHandler
	Rewards       *handler.RewardsHandler
	Notifications *handler.NotificationHandler
}

// NewHandlers creates every page handler with the given logger.
func NewHandlers(logger zerolog.Logger) Handlers {
	return Handlers{
		Catalog:       handler.NewCatalogHandler(logger),
		Cart:          handler.NewCartHandler(logger),
		Wishlist:      handler.NewWishlistHandler(logger),
		Orders:        handler.NewOrderHandler(logger),
		Account:       handler.NewAccountHandler(logger),
		Rewards:       handler.NewRewardsHandler(logger),
		Notifications: handler.NewNotificationHandler(handler.DefaultKeepAlive, logger),
	}
}

// New creates a new HTTP router with all routes and middleware configured.
func New(
	h Handlers,
	sessions middleware.Opener,
	sessionCfg config.SessionConfig,
	logger zerolog.Logger,
) http.Handler {
	api := http.NewServeMux()
	auth := middleware.RequireAuth(logger)
	private := func(fn http.HandlerFunc) http.Handler {
		return auth(fn)
	}

	// Public pages
	api.HandleFunc("GET /api/session", h.Account.Session)
	api.HandleFunc("POST /api/auth/login", h.Account.Login)
	api.HandleFunc("POST /api/auth/signup", h.Account.Signup)
	api.HandleFunc("POST /api/auth/logout", h.Account.Logout)

	api.HandleFunc("GET /api/retailers", h.Catalog.Retailers)
	api.HandleFunc("GET /api/retailers/{id}", h.Catalog.RetailerHome)
	api.HandleFunc("GET /api/retailers/{id}/categories", h.Catalog.Categories)
	api.HandleFunc("GET /api/retailers/{id}/products", h.Catalog.Products)
	api.HandleFunc("GET /api/retailers/{id}/products/{pid}", h.Catalog.Product)

	api.HandleFunc("GET /api/notifications/route", h.Notifications.Route)

	// Pages that need a logged-in customer
	api.Handle("POST /api/auth/verify-phone", private(h.Account.VerifyPhone))
	api.Handle("POST /api/device-token", private(h.Account.RegisterDevice))

	api.Handle("GET /api/cart", private(h.Cart.Get))
	api.Handle("POST /api/cart/items", private(h.Cart.AddItem))
	api.Handle("PATCH /api/cart/items/{id}", private(h.Cart.UpdateItem))
	api.Handle("DELETE /api/cart/items/{id}", private(h.Cart.RemoveItem))
	api.Handle("GET /api/checkout", private(h.Cart.Checkout))
	api.Handle("POST /api/checkout", private(h.Cart.PlaceOrder))

	api.Handle("GET /api/wishlist", private(h.Wishlist.List))
	api.Handle("POST /api/wishlist/{id}/toggle", private(h.Wishlist.Toggle))

	api.Handle("GET /api/orders", private(h.Orders.List))
	api.Handle("GET /api/orders/{id}", private(h.Orders.Get))
	api.Handle("POST /api/orders/{id}/cancel", private(h.Orders.Cancel))
	api.Handle("POST /api/orders/{id}/modification", private(h.Orders.RespondToModification))
	api.Handle("POST /api/orders/{id}/rate", private(h.Orders.Rate))
	api.Handle("GET /api/orders/{id}/chat", private(h.Orders.Messages))
	api.Handle("POST /api/orders/{id}/chat", private(h.Orders.Send))
	api.Handle("POST /api/orders/{id}/chat/read", private(h.Orders.MarkRead))

	api.Handle("GET /api/profile", private(h.Account.Profile))
	api.Handle("PATCH /api/profile", private(h.Account.UpdateProfile))
	api.Handle("GET /api/addresses", private(h.Account.Addresses))
	api.Handle("POST /api/addresses", private(h.Account.CreateAddress))
	api.Handle("GET /api/addresses/locate", private(h.Account.LocateAddress))
	api.Handle("GET /api/addresses/{id}", private(h.Account.Address))
	api.Handle("PUT /api/addresses/{id}", private(h.Account.UpdateAddress))
	api.Handle("DELETE /api/addresses/{id}", private(h.Account.DeleteAddress))

	api.Handle("GET /api/rewards", private(h.Rewards.Overview))
	api.Handle("GET /api/rewards/loyalty", private(h.Rewards.Loyalty))
	api.Handle("POST /api/rewards/referral", private(h.Rewards.ApplyReferral))

	api.Handle("GET /api/events", private(h.Notifications.Events))
	api.Handle("POST /api/notifications", private(h.Notifications.Deliver))

	mux := http.NewServeMux()

	// Health check endpoint (no session required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})
	mux.Handle("/api/", middleware.Session(sessions, sessionCfg.CookieName, sessionCfg.IdleTimeout, logger)(api))

	// Apply middleware in order: Recovery -> Logging -> CORS
	var handler http.Handler = mux
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
