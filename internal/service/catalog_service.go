package service

import (
	"context"
	"fmt"

	"storefront/internal/apiclient"
	"storefront/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// catalogService implements CatalogService.
type catalogService struct {
	catalog   apiclient.CatalogAPI
	account   apiclient.AccountAPI
	auth      apiclient.AuthAPI
	selection RetailerSelection
	logger    zerolog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	catalog apiclient.CatalogAPI,
	account apiclient.AccountAPI,
	auth apiclient.AuthAPI,
	selection RetailerSelection,
	logger zerolog.Logger,
) CatalogService {
	return &catalogService{
		catalog:   catalog,
		account:   account,
		auth:      auth,
		selection: selection,
		logger:    logger.With().Str("service", "catalog").Logger(),
	}
}

func (s *catalogService) ListRetailers(ctx context.Context, q model.RetailerQuery, force bool) ([]model.Retailer, error) {
	retailers, err := s.catalog.Retailers(ctx, q, force)
	if err != nil {
		return nil, fmt.Errorf("failed to list retailers: %w", err)
	}
	return retailers, nil
}

// RetailerHome fetches the landing page sections in parallel. The retailer,
// its categories and featured products are required; the other sections
// degrade to empty.
func (s *catalogService) RetailerHome(ctx context.Context, retailerID int64, force bool) (*RetailerHome, error) {
	home := &RetailerHome{
		BestSelling: []model.Product{},
		BuyAgain:    []model.Product{},
		Recommended: []model.Product{},
	}
	authenticated := s.auth.Authenticated()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		retailer, err := s.catalog.Retailer(gctx, retailerID, force)
		if err != nil {
			return fmt.Errorf("failed to get retailer: %w", err)
		}
		home.Retailer = retailer
		return nil
	})
	g.Go(func() error {
		categories, err := s.catalog.Categories(gctx, retailerID, force)
		if err != nil {
			return fmt.Errorf("failed to get categories: %w", err)
		}
		home.Categories = categories
		return nil
	})
	g.Go(func() error {
		featured, err := s.catalog.Featured(gctx, retailerID, force)
		if err != nil {
			return fmt.Errorf("failed to get featured products: %w", err)
		}
		home.Featured = featured
		return nil
	})
	g.Go(func() error {
		products, err := s.catalog.BestSelling(gctx, retailerID, force)
		if err != nil {
			s.logger.Warn().Err(err).Int64("retailer_id", retailerID).Msg("best selling products unavailable")
			return nil
		}
		home.BestSelling = products
		return nil
	})
	if authenticated {
		g.Go(func() error {
			products, err := s.catalog.BuyAgain(gctx, retailerID, force)
			if err != nil {
				s.logger.Warn().Err(err).Int64("retailer_id", retailerID).Msg("buy again products unavailable")
				return nil
			}
			home.BuyAgain = products
			return nil
		})
		g.Go(func() error {
			products, err := s.catalog.Recommended(gctx, retailerID, force)
			if err != nil {
				s.logger.Warn().Err(err).Int64("retailer_id", retailerID).Msg("recommended products unavailable")
				return nil
			}
			home.Recommended = products
			return nil
		})
		g.Go(func() error {
			profile, err := s.account.Profile(gctx, force)
			if err != nil {
				s.logger.Warn().Err(err).Msg("profile unavailable")
				return nil
			}
			home.Profile = profile
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.selection.SetCurrentRetailer(ctx, retailerID); err != nil {
		s.logger.Error().Err(err).Int64("retailer_id", retailerID).Msg("failed to remember current retailer")
	}
	return home, nil
}

func (s *catalogService) Categories(ctx context.Context, retailerID int64, force bool) ([]model.Category, error) {
	categories, err := s.catalog.Categories(ctx, retailerID, force)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

func (s *catalogService) Products(ctx context.Context, retailerID int64, q model.ProductQuery, force bool) (*model.ProductPage, error) {
	page, err := s.catalog.Products(ctx, retailerID, q, force)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return page, nil
}

func (s *catalogService) ProductDetail(ctx context.Context, retailerID, productID int64, force bool) (*ProductDetail, error) {
	product, err := s.catalog.Product(ctx, retailerID, productID, force)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &ProductDetail{Product: product, Bounds: product.Bounds()}, nil
}
