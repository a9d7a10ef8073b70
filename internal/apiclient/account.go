package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"storefront/internal/cache"
	"storefront/internal/model"
)

// Profile returns the logged-in customer's profile.
func (c *Client) Profile(ctx context.Context, force bool) (*model.Profile, error) {
	out, err := get[model.Profile](ctx, c, "user_profile", tags(profileRes), force, "customer/profile/", nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile patches the profile and returns the updated record.
func (c *Client) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.Profile, error) {
	out, err := mutate[model.Profile](ctx, c, http.MethodPatch, "customer/profile/update/", update)
	if err != nil {
		return nil, err
	}
	c.cache.Invalidate(profileRes)
	return &out, nil
}

// Addresses lists saved delivery addresses.
func (c *Client) Addresses(ctx context.Context, force bool) ([]model.Address, error) {
	return get[list[model.Address]](ctx, c, "addresses", tags(addressesRes), force, "customer/addresses/", nil)
}

// Address returns one saved address.
func (c *Client) Address(ctx context.Context, id int64, force bool) (*model.Address, error) {
	sid := idString(id)
	out, err := get[model.Address](ctx, c, "address_"+sid, tags(cache.Res(KindAddress, sid)), force,
		fmt.Sprintf("customer/addresses/%s/", sid), nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateAddress saves a new address.
func (c *Client) CreateAddress(ctx context.Context, form model.AddressForm) (*model.Address, error) {
	out, err := mutate[model.Address](ctx, c, http.MethodPost, "customer/addresses/create/", form)
	if err != nil {
		return nil, err
	}
	c.cache.Invalidate(addressesRes)
	return &out, nil
}

// UpdateAddress patches a saved address.
func (c *Client) UpdateAddress(ctx context.Context, id int64, form model.AddressForm) (*model.Address, error) {
	sid := idString(id)
	out, err := mutate[model.Address](ctx, c, http.MethodPatch, fmt.Sprintf("customer/addresses/%s/update/", sid), form)
	if err != nil {
		return nil, err
	}
	c.cache.Invalidate(addressesRes, cache.Res(KindAddress, sid))
	return &out, nil
}

// DeleteAddress removes a saved address.
func (c *Client) DeleteAddress(ctx context.Context, id int64) error {
	sid := idString(id)
	err := c.exec(ctx, http.MethodDelete, fmt.Sprintf("customer/addresses/%s/delete/", sid), nil)
	if err != nil {
		return err
	}
	c.cache.Invalidate(addressesRes, cache.Res(KindAddress, sid))
	return nil
}
