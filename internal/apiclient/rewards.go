package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"storefront/internal/cache"
	"storefront/internal/model"
)

// RewardConfig returns a retailer's loyalty and referral settings.
func (c *Client) RewardConfig(ctx context.Context, retailerID int64, force bool) (*model.RewardConfig, error) {
	id := idString(retailerID)
	out, err := get[model.RewardConfig](ctx, c, "reward_config_"+id, tags(cache.Res(KindRewardConfig, id)), force,
		"customer/reward-configuration/", url.Values{"retailer_id": {id}})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Loyalty returns the customer's points at one retailer.
func (c *Client) Loyalty(ctx context.Context, retailerID int64, force bool) (*model.Loyalty, error) {
	id := idString(retailerID)
	out, err := get[model.Loyalty](ctx, c, "loyalty_"+id, tags(cache.Res(KindLoyalty, id)), force,
		"customer/loyalty/", url.Values{"retailer_id": {id}})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AllLoyalty returns the customer's points at every retailer.
func (c *Client) AllLoyalty(ctx context.Context, force bool) ([]model.Loyalty, error) {
	return get[list[model.Loyalty]](ctx, c, "loyalty_all", tags(cache.Res(KindLoyalty, "all")), force, "customer/loyalty/all/", nil)
}

// ReferralStats returns the customer's referral code and totals.
func (c *Client) ReferralStats(ctx context.Context, force bool) (*model.ReferralStats, error) {
	out, err := get[model.ReferralStats](ctx, c, "referral_stats", tags(referralsRes), force, "customer/referral/stats/", nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ApplyReferral applies a friend's referral code at a retailer.
func (c *Client) ApplyReferral(ctx context.Context, code string, retailerID int64) (*model.MessageResponse, error) {
	out, err := mutate[model.MessageResponse](ctx, c, http.MethodPost, "customer/referral/apply/", model.ApplyReferralRequest{
		ReferralCode: code,
		RetailerID:   retailerID,
	})
	if err != nil {
		return nil, err
	}
	c.cache.Invalidate(referralsRes, cache.Kind(KindLoyalty))
	return &out, nil
}
