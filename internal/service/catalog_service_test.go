package service

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/apiclient"
	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCatalogFixture() (*MockCatalogAPI, *MockAccountAPI, *MockAuthAPI, *fakeSelection, CatalogService) {
	catalog := new(MockCatalogAPI)
	account := new(MockAccountAPI)
	auth := new(MockAuthAPI)
	selection := &fakeSelection{}
	svc := NewCatalogService(catalog, account, auth, selection, zerolog.Nop())
	return catalog, account, auth, selection, svc
}

func TestCatalogService_RetailerHome_Anonymous(t *testing.T) {
	catalog, account, auth, selection, svc := newCatalogFixture()
	ctx := context.Background()

	auth.On("Authenticated").Return(false)
	catalog.On("Retailer", mock.Anything, int64(7), false).Return(&model.Retailer{ID: 7, ShopName: "Fresh Mart"}, nil)
	catalog.On("Categories", mock.Anything, int64(7), false).Return([]model.Category{{ID: 1, Name: "Dairy"}}, nil)
	catalog.On("Featured", mock.Anything, int64(7), false).Return([]model.Product{{ID: 10}}, nil)
	catalog.On("BestSelling", mock.Anything, int64(7), false).Return(nil, errors.New("boom"))

	home, err := svc.RetailerHome(ctx, 7, false)
	require.NoError(t, err)
	assert.Equal(t, "Fresh Mart", home.Retailer.ShopName)
	assert.Len(t, home.Categories, 1)
	assert.Len(t, home.Featured, 1)
	assert.Empty(t, home.BestSelling)
	assert.NotNil(t, home.BestSelling)
	assert.Empty(t, home.BuyAgain)
	assert.Nil(t, home.Profile)
	assert.Equal(t, int64(7), selection.CurrentRetailer())

	catalog.AssertNotCalled(t, "BuyAgain", mock.Anything, mock.Anything, mock.Anything)
	catalog.AssertNotCalled(t, "Recommended", mock.Anything, mock.Anything, mock.Anything)
	account.AssertNotCalled(t, "Profile", mock.Anything, mock.Anything)
	catalog.AssertExpectations(t)
}

func TestCatalogService_RetailerHome_Authenticated(t *testing.T) {
	catalog, account, auth, _, svc := newCatalogFixture()

	auth.On("Authenticated").Return(true)
	catalog.On("Retailer", mock.Anything, int64(7), true).Return(&model.Retailer{ID: 7}, nil)
	catalog.On("Categories", mock.Anything, int64(7), true).Return([]model.Category{}, nil)
	catalog.On("Featured", mock.Anything, int64(7), true).Return([]model.Product{}, nil)
	catalog.On("BestSelling", mock.Anything, int64(7), true).Return([]model.Product{{ID: 1}}, nil)
	catalog.On("BuyAgain", mock.Anything, int64(7), true).Return([]model.Product{{ID: 2}}, nil)
	catalog.On("Recommended", mock.Anything, int64(7), true).Return(nil, errors.New("unavailable"))
	account.On("Profile", mock.Anything, true).Return(&model.Profile{ReferralCode: "ABC"}, nil)

	home, err := svc.RetailerHome(context.Background(), 7, true)
	require.NoError(t, err)
	assert.Len(t, home.BestSelling, 1)
	assert.Len(t, home.BuyAgain, 1)
	assert.Empty(t, home.Recommended)
	require.NotNil(t, home.Profile)
	assert.Equal(t, "ABC", home.Profile.ReferralCode)

	catalog.AssertExpectations(t)
	account.AssertExpectations(t)
}

func TestCatalogService_RetailerHome_RequiredSectionFails(t *testing.T) {
	catalog, _, auth, selection, svc := newCatalogFixture()

	auth.On("Authenticated").Return(false)
	catalog.On("Retailer", mock.Anything, int64(7), false).Return(nil, &apiclient.APIError{Status: 404, Message: "Not found"})
	catalog.On("Categories", mock.Anything, int64(7), false).Return([]model.Category{}, nil).Maybe()
	catalog.On("Featured", mock.Anything, int64(7), false).Return([]model.Product{}, nil).Maybe()
	catalog.On("BestSelling", mock.Anything, int64(7), false).Return([]model.Product{}, nil).Maybe()

	home, err := svc.RetailerHome(context.Background(), 7, false)
	require.Error(t, err)
	assert.Nil(t, home)
	assert.Equal(t, 404, apiclient.StatusOf(err))
	assert.Zero(t, selection.CurrentRetailer(), "a failed page does not select the retailer")
}

func TestCatalogService_ProductDetail(t *testing.T) {
	catalog, _, _, _, svc := newCatalogFixture()
	maxQty := 5

	catalog.On("Product", mock.Anything, int64(7), int64(42), false).Return(&model.Product{
		ID:                   42,
		StockQuantity:        3,
		MinimumOrderQuantity: 2,
		MaximumOrderQuantity: &maxQty,
	}, nil)

	detail, err := svc.ProductDetail(context.Background(), 7, 42, false)
	require.NoError(t, err)
	assert.Equal(t, model.QuantityBounds{Min: 2, Max: 3}, detail.Bounds)
}

func TestCatalogService_ListRetailers_Error(t *testing.T) {
	catalog, _, _, _, svc := newCatalogFixture()
	catalog.On("Retailers", mock.Anything, model.RetailerQuery{City: "Pune"}, false).Return(nil, apiclient.ErrBackendUnavailable)

	_, err := svc.ListRetailers(context.Background(), model.RetailerQuery{City: "Pune"}, false)
	assert.ErrorIs(t, err, apiclient.ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "failed to list retailers")
}
