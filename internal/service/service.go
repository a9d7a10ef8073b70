package service

import (
	"context"

	"storefront/internal/model"
)

// RetailerSelection remembers which retailer the customer is shopping at.
// A zero id means none is selected.
type RetailerSelection interface {
	CurrentRetailer() int64
	SetCurrentRetailer(ctx context.Context, retailerID int64) error
}

// WishlistState is the part of the session wishlist the services reset.
type WishlistState interface {
	Reset()
}

// RetailerHome is everything the retailer landing page renders.
type RetailerHome struct {
	Retailer    *model.Retailer  `json:"retailer"`
	Categories  []model.Category `json:"categories"`
	Featured    []model.Product  `json:"featured"`
	BestSelling []model.Product  `json:"best_selling"`
	BuyAgain    []model.Product  `json:"buy_again"`
	Recommended []model.Product  `json:"recommended"`
	Profile     *model.Profile   `json:"profile,omitempty"`
}

// ProductDetail is a product with the quantities the customer may order.
type ProductDetail struct {
	Product *model.Product       `json:"product"`
	Bounds  model.QuantityBounds `json:"bounds"`
}

// CheckoutRequest is what the customer picks on the checkout page.
type CheckoutRequest struct {
	AddressID           int64  `json:"address_id"`
	PaymentMethod       string `json:"payment_method,omitempty"`
	DeliveryMode        string `json:"delivery_mode,omitempty"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
	UsePoints           bool   `json:"use_loyalty_points,omitempty"`
}

// CheckoutSummary is the data the checkout page renders.
type CheckoutSummary struct {
	RetailerID       int64               `json:"retailer_id"`
	Cart             *model.Cart         `json:"cart"`
	Addresses        []model.Address     `json:"addresses"`
	DefaultAddressID int64               `json:"default_address_id,omitempty"`
	Loyalty          *model.Loyalty      `json:"loyalty,omitempty"`
	RewardConfig     *model.RewardConfig `json:"reward_config,omitempty"`
}

// RewardsOverview is the data the rewards page renders.
type RewardsOverview struct {
	Referrals    *model.ReferralStats `json:"referrals"`
	Retailers    []model.Retailer     `json:"retailers"`
	Loyalty      []model.Loyalty      `json:"loyalty"`
	RewardConfig *model.RewardConfig  `json:"reward_config,omitempty"`
}

// CatalogService serves the retailer directory and catalogue pages.
type CatalogService interface {
	// ListRetailers returns the retailer directory.
	ListRetailers(ctx context.Context, q model.RetailerQuery, force bool) ([]model.Retailer, error)

	// RetailerHome loads the retailer landing page and selects the retailer.
	RetailerHome(ctx context.Context, retailerID int64, force bool) (*RetailerHome, error)

	// Categories returns the retailer's categories.
	Categories(ctx context.Context, retailerID int64, force bool) ([]model.Category, error)

	// Products returns a filtered page of the retailer's products.
	Products(ctx context.Context, retailerID int64, q model.ProductQuery, force bool) (*model.ProductPage, error)

	// ProductDetail returns a product and its quantity bounds.
	ProductDetail(ctx context.Context, retailerID, productID int64, force bool) (*ProductDetail, error)
}

// CartService serves the cart of the current retailer.
type CartService interface {
	Get(ctx context.Context, force bool) (*model.Cart, error)
	Add(ctx context.Context, productID int64, quantity int) (*model.CartMutationResponse, error)
	UpdateQuantity(ctx context.Context, itemID int64, quantity int) (*model.CartMutationResponse, error)
	Remove(ctx context.Context, itemID int64) error
}

// CheckoutService turns the current cart into an order.
type CheckoutService interface {
	Summary(ctx context.Context, force bool) (*CheckoutSummary, error)
	PlaceOrder(ctx context.Context, req CheckoutRequest) (*model.Order, error)
}

// OrderService serves order tracking and the actions allowed on an order.
type OrderService interface {
	History(ctx context.Context, force bool) ([]model.Order, error)
	Current(ctx context.Context, force bool) ([]model.Order, error)
	Detail(ctx context.Context, id int64, force bool) (*model.Order, error)
	Cancel(ctx context.Context, id int64, reason string) error
	RespondToModification(ctx context.Context, id int64, action string) error
	Rate(ctx context.Context, id int64, rating model.OrderRating) error
}

// ChatService serves the per-order chat.
type ChatService interface {
	Messages(ctx context.Context, orderID int64) ([]model.ChatMessage, error)
	Send(ctx context.Context, orderID int64, text string) (*model.ChatMessage, error)
	MarkRead(ctx context.Context, orderID int64) error
}

// AccountService serves authentication, the profile and the address book.
type AccountService interface {
	Login(ctx context.Context, phone, password string) (*model.LoginResponse, error)
	Signup(ctx context.Context, req model.SignupRequest) (*model.LoginResponse, error)
	VerifyPhone(ctx context.Context, req model.PhoneVerification) (*model.MessageResponse, error)
	Logout(ctx context.Context) error
	RegisterDevice(ctx context.Context, token string) error

	Profile(ctx context.Context, force bool) (*model.Profile, error)
	UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.Profile, error)

	Addresses(ctx context.Context, force bool) ([]model.Address, error)
	Address(ctx context.Context, id int64, force bool) (*model.Address, error)
	CreateAddress(ctx context.Context, form model.AddressForm) (*model.Address, error)
	UpdateAddress(ctx context.Context, id int64, form model.AddressForm) (*model.Address, error)
	DeleteAddress(ctx context.Context, id int64) error

	// LocateAddress reverse geocodes a map pin into a prefilled form.
	LocateAddress(ctx context.Context, lat, lon float64) (*model.AddressForm, error)
}

// RewardsService serves loyalty points and referrals.
type RewardsService interface {
	Overview(ctx context.Context, force bool) (*RewardsOverview, error)
	AllLoyalty(ctx context.Context, force bool) ([]model.Loyalty, error)
	ApplyReferral(ctx context.Context, code string, retailerID int64) (*model.MessageResponse, error)
}
