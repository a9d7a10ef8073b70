package service

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/apiclient"
	"storefront/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// rewardsService implements RewardsService.
type rewardsService struct {
	rewards   apiclient.RewardsAPI
	catalog   apiclient.CatalogAPI
	selection RetailerSelection
	logger    zerolog.Logger
}

// NewRewardsService creates a new rewards service.
func NewRewardsService(
	rewards apiclient.RewardsAPI,
	catalog apiclient.CatalogAPI,
	selection RetailerSelection,
	logger zerolog.Logger,
) RewardsService {
	return &rewardsService{
		rewards:   rewards,
		catalog:   catalog,
		selection: selection,
		logger:    logger.With().Str("service", "rewards").Logger(),
	}
}

// Overview loads referral stats and the retailer list for the referral
// form. Balances and the current retailer's programme are optional.
func (s *rewardsService) Overview(ctx context.Context, force bool) (*RewardsOverview, error) {
	overview := &RewardsOverview{Loyalty: []model.Loyalty{}}
	retailerID := s.selection.CurrentRetailer()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.rewards.ReferralStats(gctx, force)
		if err != nil {
			return fmt.Errorf("failed to get referral stats: %w", err)
		}
		overview.Referrals = stats
		return nil
	})
	g.Go(func() error {
		retailers, err := s.catalog.Retailers(gctx, model.RetailerQuery{}, force)
		if err != nil {
			return fmt.Errorf("failed to list retailers: %w", err)
		}
		overview.Retailers = retailers
		return nil
	})
	g.Go(func() error {
		loyalty, err := s.rewards.AllLoyalty(gctx, force)
		if err != nil {
			s.logger.Warn().Err(err).Msg("loyalty balances unavailable")
			return nil
		}
		overview.Loyalty = loyalty
		return nil
	})
	if retailerID != 0 {
		g.Go(func() error {
			cfg, err := s.rewards.RewardConfig(gctx, retailerID, force)
			if err != nil {
				s.logger.Debug().Err(err).Int64("retailer_id", retailerID).Msg("reward config unavailable")
				return nil
			}
			overview.RewardConfig = cfg
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}

func (s *rewardsService) AllLoyalty(ctx context.Context, force bool) ([]model.Loyalty, error) {
	loyalty, err := s.rewards.AllLoyalty(ctx, force)
	if err != nil {
		return nil, fmt.Errorf("failed to get loyalty balances: %w", err)
	}
	return loyalty, nil
}

func (s *rewardsService) ApplyReferral(ctx context.Context, code string, retailerID int64) (*model.MessageResponse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, model.ErrInvalidReferralCode
	}
	if retailerID == 0 {
		retailerID = s.selection.CurrentRetailer()
	}
	if retailerID == 0 {
		return nil, model.ErrRetailerNotSelected
	}

	resp, err := s.rewards.ApplyReferral(ctx, code, retailerID)
	if err != nil {
		return nil, fmt.Errorf("failed to apply referral code: %w", err)
	}
	s.logger.Info().Int64("retailer_id", retailerID).Msg("referral code applied")
	return resp, nil
}
