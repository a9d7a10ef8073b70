package service

import (
	"context"
	"sync"

	"storefront/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockCatalogAPI is a mock implementation of apiclient.CatalogAPI.
type MockCatalogAPI struct {
	mock.Mock
}

func (m *MockCatalogAPI) Retailers(ctx context.Context, q model.RetailerQuery, force bool) ([]model.Retailer, error) {
	args := m.Called(ctx, q, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Retailer), args.Error(1)
}

func (m *MockCatalogAPI) Retailer(ctx context.Context, retailerID int64, force bool) (*model.Retailer, error) {
	args := m.Called(ctx, retailerID, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Retailer), args.Error(1)
}

func (m *MockCatalogAPI) Categories(ctx context.Context, retailerID int64, force bool) ([]model.Category, error) {
	args := m.Called(ctx, retailerID, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockCatalogAPI) products(method string, ctx context.Context, retailerID int64, force bool) ([]model.Product, error) {
	args := m.MethodCalled(method, ctx, retailerID, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockCatalogAPI) Featured(ctx context.Context, retailerID int64, force bool) ([]model.Product, error) {
	return m.products("Featured", ctx, retailerID, force)
}

func (m *MockCatalogAPI) BestSelling(ctx context.Context, retailerID int64, force bool) ([]model.Product, error) {
	return m.products("BestSelling", ctx, retailerID, force)
}

func (m *MockCatalogAPI) BuyAgain(ctx context.Context, retailerID int64, force bool) ([]model.Product, error) {
	return m.products("BuyAgain", ctx, retailerID, force)
}

func (m *MockCatalogAPI) Recommended(ctx context.Context, retailerID int64, force bool) ([]model.Product, error) {
	return m.products("Recommended", ctx, retailerID, force)
}

func (m *MockCatalogAPI) Products(ctx context.Context, retailerID int64, q model.ProductQuery, force bool) (*model.ProductPage, error) {
	args := m.Called(ctx, retailerID, q, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductPage), args.Error(1)
}

func (m *MockCatalogAPI) Product(ctx context.Context, retailerID, productID int64, force bool) (*model.Product, error) {
	args := m.Called(ctx, retailerID, productID, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

// MockCartAPI is a mock implementation of apiclient.CartAPI.
type MockCartAPI struct {
	mock.Mock
}

func (m *MockCartAPI) Cart(ctx context.Context, retailerID int64, force bool) (*model.Cart, error) {
	args := m.Called(ctx, retailerID, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartAPI) AddToCart(ctx context.Context, productID int64, quantity int) (*model.CartMutationResponse, error) {
	args := m.Called(ctx, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartMutationResponse), args.Error(1)
}

func (m *MockCartAPI) UpdateCartItem(ctx context.Context, itemID int64, quantity int) (*model.CartMutationResponse, error) {
	args := m.Called(ctx, itemID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartMutationResponse), args.Error(1)
}

func (m *MockCartAPI) RemoveCartItem(ctx context.Context, itemID int64) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

// MockAuthAPI is a mock implementation of apiclient.AuthAPI.
type MockAuthAPI struct {
	mock.Mock
}

func (m *MockAuthAPI) Login(ctx context.Context, phone, password string) (*model.LoginResponse, error) {
	args := m.Called(ctx, phone, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LoginResponse), args.Error(1)
}

func (m *MockAuthAPI) Signup(ctx context.Context, req model.SignupRequest) (*model.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LoginResponse), args.Error(1)
}

func (m *MockAuthAPI) VerifyPhone(ctx context.Context, req model.PhoneVerification) (*model.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MessageResponse), args.Error(1)
}

func (m *MockAuthAPI) RegisterDevice(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAuthAPI) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockAuthAPI) Authenticated() bool {
	return m.Called().Bool(0)
}

// MockAccountAPI is a mock implementation of apiclient.AccountAPI.
type MockAccountAPI struct {
	mock.Mock
}

func (m *MockAccountAPI) Profile(ctx context.Context, force bool) (*model.Profile, error) {
	args := m.Called(ctx, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockAccountAPI) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.Profile, error) {
	args := m.Called(ctx, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockAccountAPI) Addresses(ctx context.Context, force bool) ([]model.Address, error) {
	args := m.Called(ctx, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Address), args.Error(1)
}

func (m *MockAccountAPI) Address(ctx context.Context, id int64, force bool) (*model.Address, error) {
	args := m.Called(ctx, id, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Address), args.Error(1)
}

func (m *MockAccountAPI) CreateAddress(ctx context.Context, form model.AddressForm) (*model.Address, error) {
	args := m.Called(ctx, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Address), args.Error(1)
}

func (m *MockAccountAPI) UpdateAddress(ctx context.Context, id int64, form model.AddressForm) (*model.Address, error) {
	args := m.Called(ctx, id, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Address), args.Error(1)
}

func (m *MockAccountAPI) DeleteAddress(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// MockOrderAPI is a mock implementation of apiclient.OrderAPI.
type MockOrderAPI struct {
	mock.Mock
}

func (m *MockOrderAPI) PlaceOrder(ctx context.Context, req model.PlaceOrderRequest) (*model.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderAPI) OrderHistory(ctx context.Context, force bool) ([]model.Order, error) {
	args := m.Called(ctx, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderAPI) CurrentOrders(ctx context.Context, force bool) ([]model.Order, error) {
	args := m.Called(ctx, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderAPI) Order(ctx context.Context, id int64, force bool) (*model.Order, error) {
	args := m.Called(ctx, id, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderAPI) CancelOrder(ctx context.Context, id int64, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
}

func (m *MockOrderAPI) ConfirmModification(ctx context.Context, id int64, action string) error {
	return m.Called(ctx, id, action).Error(0)
}

func (m *MockOrderAPI) RateOrder(ctx context.Context, id int64, rating model.OrderRating) error {
	return m.Called(ctx, id, rating).Error(0)
}

// MockChatAPI is a mock implementation of apiclient.ChatAPI.
type MockChatAPI struct {
	mock.Mock
}

func (m *MockChatAPI) ChatMessages(ctx context.Context, orderID int64) ([]model.ChatMessage, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChatMessage), args.Error(1)
}

func (m *MockChatAPI) SendChatMessage(ctx context.Context, orderID int64, text string) (*model.ChatMessage, error) {
	args := m.Called(ctx, orderID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChatMessage), args.Error(1)
}

func (m *MockChatAPI) MarkChatRead(ctx context.Context, orderID int64) error {
	return m.Called(ctx, orderID).Error(0)
}

// MockRewardsAPI is a mock implementation of apiclient.RewardsAPI.
type MockRewardsAPI struct {
	mock.Mock
}

func (m *MockRewardsAPI) RewardConfig(ctx context.Context, retailerID int64, force bool) (*model.RewardConfig, error) {
	args := m.Called(ctx, retailerID, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RewardConfig), args.Error(1)
}

func (m *MockRewardsAPI) Loyalty(ctx context.Context, retailerID int64, force bool) (*model.Loyalty, error) {
	args := m.Called(ctx, retailerID, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Loyalty), args.Error(1)
}

func (m *MockRewardsAPI) AllLoyalty(ctx context.Context, force bool) ([]model.Loyalty, error) {
	args := m.Called(ctx, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Loyalty), args.Error(1)
}

func (m *MockRewardsAPI) ReferralStats(ctx context.Context, force bool) (*model.ReferralStats, error) {
	args := m.Called(ctx, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralStats), args.Error(1)
}

func (m *MockRewardsAPI) ApplyReferral(ctx context.Context, code string, retailerID int64) (*model.MessageResponse, error) {
	args := m.Called(ctx, code, retailerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MessageResponse), args.Error(1)
}

// MockGeocoder is a mock implementation of geocode.Geocoder.
type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Reverse(ctx context.Context, lat, lon float64) (*model.PostalAddress, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PostalAddress), args.Error(1)
}

// fakeSelection keeps the current retailer in memory.
type fakeSelection struct {
	mu       sync.Mutex
	retailer int64
	err      error
}

func (f *fakeSelection) CurrentRetailer() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.retailer
}

func (f *fakeSelection) SetCurrentRetailer(ctx context.Context, retailerID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.retailer = retailerID
	return nil
}

// fakeWishlist counts resets.
type fakeWishlist struct {
	resets int
}

func (f *fakeWishlist) Reset() { f.resets++ }
