package apiclient

import (
	"context"

	"storefront/internal/model"
)

// AuthAPI covers login, signup and device registration.
type AuthAPI interface {
	Login(ctx context.Context, phone, password string) (*model.LoginResponse, error)
	Signup(ctx context.Context, req model.SignupRequest) (*model.LoginResponse, error)
	VerifyPhone(ctx context.Context, req model.PhoneVerification) (*model.MessageResponse, error)
	RegisterDevice(ctx context.Context, token string) error
	Logout(ctx context.Context) error
	Authenticated() bool
}

// CatalogAPI covers retailers, categories and products.
type CatalogAPI interface {
	Retailers(ctx context.Context, q model.RetailerQuery, force bool) ([]model.Retailer, error)
	Retailer(ctx context.Context, retailerID int64, force bool) (*model.Retailer, error)
	Categories(ctx context.Context, retailerID int64, force bool) ([]model.Category, error)
	Featured(ctx context.Context, retailerID int64, force bool) ([]model.Product, error)
	BestSelling(ctx context.Context, retailerID int64, force bool) ([]model.Product, error)
	BuyAgain(ctx context.Context, retailerID int64, force bool) ([]model.Product, error)
	Recommended(ctx context.Context, retailerID int64, force bool) ([]model.Product, error)
	Products(ctx context.Context, retailerID int64, q model.ProductQuery, force bool) (*model.ProductPage, error)
	Product(ctx context.Context, retailerID, productID int64, force bool) (*model.Product, error)
}

// CartAPI covers the retailer-scoped cart.
type CartAPI interface {
	Cart(ctx context.Context, retailerID int64, force bool) (*model.Cart, error)
	AddToCart(ctx context.Context, productID int64, quantity int) (*model.CartMutationResponse, error)
	UpdateCartItem(ctx context.Context, itemID int64, quantity int) (*model.CartMutationResponse, error)
	RemoveCartItem(ctx context.Context, itemID int64) error
}

// WishlistAPI covers the customer's wishlist. Product ids are the normalised
// string form.
type WishlistAPI interface {
	Wishlist(ctx context.Context, force bool) (model.WishlistIDs, error)
	AddToWishlist(ctx context.Context, productID string) error
	RemoveFromWishlist(ctx context.Context, productID string) error
}

// AccountAPI covers the profile and the address book.
type AccountAPI interface {
	Profile(ctx context.Context, force bool) (*model.Profile, error)
	UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.Profile, error)
	Addresses(ctx context.Context, force bool) ([]model.Address, error)
	Address(ctx context.Context, id int64, force bool) (*model.Address, error)
	CreateAddress(ctx context.Context, form model.AddressForm) (*model.Address, error)
	UpdateAddress(ctx context.Context, id int64, form model.AddressForm) (*model.Address, error)
	DeleteAddress(ctx context.Context, id int64) error
}

// OrderAPI covers placing and managing orders.
type OrderAPI interface {
	PlaceOrder(ctx context.Context, req model.PlaceOrderRequest) (*model.Order, error)
	OrderHistory(ctx context.Context, force bool) ([]model.Order, error)
	CurrentOrders(ctx context.Context, force bool) ([]model.Order, error)
	Order(ctx context.Context, id int64, force bool) (*model.Order, error)
	CancelOrder(ctx context.Context, id int64, reason string) error
	ConfirmModification(ctx context.Context, id int64, action string) error
	RateOrder(ctx context.Context, id int64, rating model.OrderRating) error
}

// ChatAPI covers the per-order chat. Chat is never cached.
type ChatAPI interface {
	ChatMessages(ctx context.Context, orderID int64) ([]model.ChatMessage, error)
	SendChatMessage(ctx context.Context, orderID int64, text string) (*model.ChatMessage, error)
	MarkChatRead(ctx context.Context, orderID int64) error
}

// RewardsAPI covers loyalty points and referrals.
type RewardsAPI interface {
	RewardConfig(ctx context.Context, retailerID int64, force bool) (*model.RewardConfig, error)
	Loyalty(ctx context.Context, retailerID int64, force bool) (*model.Loyalty, error)
	AllLoyalty(ctx context.Context, force bool) ([]model.Loyalty, error)
	ReferralStats(ctx context.Context, force bool) (*model.ReferralStats, error)
	ApplyReferral(ctx context.Context, code string, retailerID int64) (*model.MessageResponse, error)
}

var (
	_ AuthAPI     = (*Client)(nil)
	_ CatalogAPI  = (*Client)(nil)
	_ CartAPI     = (*Client)(nil)
	_ WishlistAPI = (*Client)(nil)
	_ AccountAPI  = (*Client)(nil)
	_ OrderAPI    = (*Client)(nil)
	_ ChatAPI     = (*Client)(nil)
	_ RewardsAPI  = (*Client)(nil)
)
