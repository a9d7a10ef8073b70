package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tokens is the access/refresh pair issued by the backend.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// LoginRequest is sent to the customer login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by login and signup.
type LoginResponse struct {
	Tokens  *Tokens  `json:"tokens,omitempty"`
	User    *Profile `json:"user,omitempty"`
	Message string   `json:"message,omitempty"`
}

// SignupRequest registers a new customer.
type SignupRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Password2   string `json:"password2,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number"`
	UserType    string `json:"user_type"`
}

// Profile is the customer's own account view.
type Profile struct {
	ID            int64  `json:"id"`
	Username      string `json:"username,omitempty"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	Email         string `json:"email,omitempty"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	PhoneVerified bool   `json:"is_phone_verified"`
	ReferralCode  string `json:"referral_code,omitempty"`
	ProfileImage  string `json:"profile_image,omitempty"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// Loyalty is the customer's point balance with one retailer.
type Loyalty struct {
	RetailerID     int64           `json:"retailer"`
	RetailerName   string          `json:"retailer_name,omitempty"`
	Points         decimal.Decimal `json:"points"`
	TotalEarned    decimal.Decimal `json:"total_points_earned"`
	TotalRedeemed  decimal.Decimal `json:"total_points_redeemed"`
	Tier           string          `json:"tier,omitempty"`
	LastActivityAt *time.Time      `json:"updated_at,omitempty"`
}

// RewardConfig is the retailer's loyalty programme configuration.
type RewardConfig struct {
	RetailerID             int64           `json:"retailer"`
	IsActive               bool            `json:"is_active"`
	CashbackPercentage     decimal.Decimal `json:"cashback_percentage"`
	MaxRewardUsagePercent  decimal.Decimal `json:"max_reward_usage_percent"`
	ConversionRate         decimal.Decimal `json:"conversion_rate"`
	IsReferralEnabled      bool            `json:"is_referral_enabled"`
	ReferralRewardPoints   decimal.Decimal `json:"referral_reward_points"`
	RefereeRewardPoints    decimal.Decimal `json:"referee_reward_points"`
	MinReferralOrderAmount decimal.Decimal `json:"min_referral_order_amount"`
}

// ReferralStats summarises the customer's referrals.
type ReferralStats struct {
	ReferralCode       string          `json:"referral_code"`
	TotalReferrals     int             `json:"total_referrals"`
	SuccessfulReferral int             `json:"successful_referrals"`
	PointsEarned       decimal.Decimal `json:"total_points_earned"`
}

// ApplyReferralRequest applies someone else's referral code at a retailer.
type ApplyReferralRequest struct {
	ReferralCode string `json:"referral_code"`
	RetailerID   int64  `json:"retailer_id"`
}

// DeviceRegistration registers a push messaging token with the backend.
type DeviceRegistration struct {
	Token      string `json:"token"`
	DeviceType string `json:"device_type"`
}

// PhoneVerification carries a provider-issued proof of phone ownership.
type PhoneVerification struct {
	PhoneNumber string `json:"phone_number"`
	IDToken     string `json:"id_token"`
}

// MessageResponse is a generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message,omitempty"`
	Success bool   `json:"success,omitempty"`
}
