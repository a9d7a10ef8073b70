package service

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/apiclient"
	"storefront/internal/geocode"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// accountService implements AccountService.
type accountService struct {
	auth     apiclient.AuthAPI
	account  apiclient.AccountAPI
	geocoder geocode.Geocoder
	wishlist WishlistState
	logger   zerolog.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(
	auth apiclient.AuthAPI,
	account apiclient.AccountAPI,
	geocoder geocode.Geocoder,
	wishlist WishlistState,
	logger zerolog.Logger,
) AccountService {
	return &accountService{
		auth:     auth,
		account:  account,
		geocoder: geocoder,
		wishlist: wishlist,
		logger:   logger.With().Str("service", "account").Logger(),
	}
}

func (s *accountService) Login(ctx context.Context, phone, password string) (*model.LoginResponse, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return nil, model.ErrMissingCredentials
	}

	resp, err := s.auth.Login(ctx, phone, password)
	if err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	// Membership of the previous identity must not leak into this one.
	s.wishlist.Reset()
	s.logger.Info().Msg("customer logged in")
	return resp, nil
}

func (s *accountService) Signup(ctx context.Context, req model.SignupRequest) (*model.LoginResponse, error) {
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.PhoneNumber == "" || req.Password == "" {
		return nil, model.ErrMissingCredentials
	}

	resp, err := s.auth.Signup(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to sign up: %w", err)
	}
	s.wishlist.Reset()
	s.logger.Info().Msg("customer signed up")
	return resp, nil
}

func (s *accountService) VerifyPhone(ctx context.Context, req model.PhoneVerification) (*model.MessageResponse, error) {
	if req.IDToken == "" {
		return nil, missingField("id_token")
	}
	resp, err := s.auth.VerifyPhone(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to verify phone: %w", err)
	}
	return resp, nil
}

// Logout drops tokens, cached responses and wishlist state.
func (s *accountService) Logout(ctx context.Context) error {
	s.wishlist.Reset()
	if err := s.auth.Logout(ctx); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	s.logger.Info().Msg("customer logged out")
	return nil
}

func (s *accountService) RegisterDevice(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return missingField("token")
	}
	if !s.auth.Authenticated() {
		return model.ErrNotAuthenticated
	}
	if err := s.auth.RegisterDevice(ctx, token); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *accountService) Profile(ctx context.Context, force bool) (*model.Profile, error) {
	profile, err := s.account.Profile(ctx, force)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (s *accountService) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.Profile, error) {
	profile, err := s.account.UpdateProfile(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}

func (s *accountService) Addresses(ctx context.Context, force bool) ([]model.Address, error) {
	addresses, err := s.account.Addresses(ctx, force)
	if err != nil {
		return nil, fmt.Errorf("failed to get addresses: %w", err)
	}
	return addresses, nil
}

func (s *accountService) Address(ctx context.Context, id int64, force bool) (*model.Address, error) {
	addr, err := s.account.Address(ctx, id, force)
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	return addr, nil
}

func (s *accountService) CreateAddress(ctx context.Context, form model.AddressForm) (*model.Address, error) {
	if missing := form.Missing(); len(missing) > 0 {
		return nil, missingField(missing...)
	}
	addr, err := s.account.CreateAddress(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}
	return addr, nil
}

func (s *accountService) UpdateAddress(ctx context.Context, id int64, form model.AddressForm) (*model.Address, error) {
	if missing := form.Missing(); len(missing) > 0 {
		return nil, missingField(missing...)
	}
	addr, err := s.account.UpdateAddress(ctx, id, form)
	if err != nil {
		return nil, fmt.Errorf("failed to update address: %w", err)
	}
	return addr, nil
}

func (s *accountService) DeleteAddress(ctx context.Context, id int64) error {
	if err := s.account.DeleteAddress(ctx, id); err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	return nil
}

func (s *accountService) LocateAddress(ctx context.Context, lat, lon float64) (*model.AddressForm, error) {
	addr, err := s.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("failed to locate address: %w", err)
	}

	form := &model.AddressForm{}
	model.FillAddressForm(form, *addr)
	return form, nil
}

func missingField(fields ...string) *model.DomainError {
	return model.NewDomainError(model.ErrCodeMissingField, "Please fill in: "+strings.Join(fields, ", "))
}
