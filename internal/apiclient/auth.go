package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"storefront/internal/model"
)

const (
	phonePrefix      = "+91"
	customerUserType = "customer"
	webDeviceType    = "web"
)

// withPhonePrefix adds the country prefix the backend expects on usernames.
func withPhonePrefix(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.HasPrefix(phone, phonePrefix) {
		return phone
	}
	return phonePrefix + phone
}

// Login authenticates with phone and password and stores the returned
// tokens. Anything cached for a previous user is dropped.
func (c *Client) Login(ctx context.Context, phone, password string) (*model.LoginResponse, error) {
	resp, err := mutate[model.LoginResponse](ctx, c, http.MethodPost, "auth/customer/login/", model.LoginRequest{
		Username: withPhonePrefix(phone),
		Password: password,
	})
	if err != nil {
		return nil, err
	}
	if err := c.adoptTokens(ctx, resp.Tokens); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Signup registers a customer account. When the backend answers with tokens
// the session is logged in straight away.
func (c *Client) Signup(ctx context.Context, req model.SignupRequest) (*model.LoginResponse, error) {
	req.PhoneNumber = withPhonePrefix(req.PhoneNumber)
	if req.Username == "" {
		req.Username = req.PhoneNumber
	}
	req.UserType = customerUserType

	resp, err := mutate[model.LoginResponse](ctx, c, http.MethodPost, "auth/customer/signup/", req)
	if err != nil {
		return nil, err
	}
	if err := c.adoptTokens(ctx, resp.Tokens); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyPhone submits a phone verification token for the logged-in user.
func (c *Client) VerifyPhone(ctx context.Context, req model.PhoneVerification) (*model.MessageResponse, error) {
	req.PhoneNumber = withPhonePrefix(req.PhoneNumber)
	resp, err := mutate[model.MessageResponse](ctx, c, http.MethodPost, "auth/verify-phone/", req)
	if err != nil {
		return nil, err
	}
	c.cache.Invalidate(profileRes)
	return &resp, nil
}

// RegisterDevice registers a push token for the logged-in user.
func (c *Client) RegisterDevice(ctx context.Context, token string) error {
	err := c.exec(ctx, http.MethodPost, "customer/device-token/", model.DeviceRegistration{
		Token:      token,
		DeviceType: webDeviceType,
	})
	return err
}

// Logout forgets the tokens and everything cached for the session.
func (c *Client) Logout(ctx context.Context) error {
	c.cache.Clear()
	if err := c.tokens.ClearTokens(ctx); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}
	return nil
}

func (c *Client) adoptTokens(ctx context.Context, tokens *model.Tokens) error {
	if tokens == nil || tokens.Access == "" {
		return nil
	}
	c.cache.Clear()
	if err := c.tokens.SetTokens(ctx, *tokens); err != nil {
		return fmt.Errorf("failed to store tokens: %w", err)
	}
	return nil
}
