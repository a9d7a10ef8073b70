package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/model"
	"storefront/internal/storefront"

	"github.com/rs/zerolog"
)

// AccountHandler serves login, the profile and the address book.
type AccountHandler struct {
	logger zerolog.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		logger: logger.With().Str("handler", "account").Logger(),
	}
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// DeviceTokenRequest is the body of POST /api/device-token.
type DeviceTokenRequest struct {
	Token string `json:"token"`
}

// SessionInfo describes the caller's session. Backend tokens never leave
// the server.
type SessionInfo struct {
	SessionID     string         `json:"session_id"`
	Authenticated bool           `json:"authenticated"`
	RetailerID    int64          `json:"retailer_id,omitempty"`
	User          *model.Profile `json:"user,omitempty"`
	Message       string         `json:"message,omitempty"`
}

func sessionInfo(sf *storefront.Storefront) SessionInfo {
	return SessionInfo{
		SessionID:     sf.ID(),
		Authenticated: sf.Authenticated(),
		RetailerID:    sf.CurrentRetailer(),
	}
}

// Session handles GET /api/session.
func (h *AccountHandler) Session(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionInfo(sf))
}

// Login handles POST /api/auth/login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badJSON(w, h.logger)
		return
	}

	resp, err := sf.Account.Login(r.Context(), req.Phone, req.Password)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	info := sessionInfo(sf)
	info.User = resp.User
	info.Message = resp.Message
	writeJSON(w, http.StatusOK, info)
}

// Signup handles POST /api/auth/signup.
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	var req model.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badJSON(w, h.logger)
		return
	}

	resp, err := sf.Account.Signup(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	info := sessionInfo(sf)
	info.User = resp.User
	info.Message = resp.Message
	writeJSON(w, http.StatusCreated, info)
}

// VerifyPhone handles POST /api/auth/verify-phone.
func (h *AccountHandler) VerifyPhone(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	var req model.PhoneVerification
	if err := decodeJSON(w, r, &req); err != nil {
		badJSON(w, h.logger)
		return
	}

	resp, err := sf.Account.VerifyPhone(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /api/auth/logout.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	if err := sf.Account.Logout(r.Context()); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, sessionInfo(sf))
}

// RegisterDevice handles POST /api/device-token.
func (h *AccountHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	var req DeviceTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badJSON(w, h.logger)
		return
	}

	if err := sf.RegisterDevice(r.Context(), req.Token); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Profile handles GET /api/profile.
func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	profile, err := sf.Account.Profile(r.Context(), forceRefresh(r))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PATCH /api/profile.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	var update model.ProfileUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		badJSON(w, h.logger)
		return
	}

	profile, err := sf.Account.UpdateProfile(r.Context(), update)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Addresses handles GET /api/addresses.
func (h *AccountHandler) Addresses(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	addresses, err := sf.Account.Addresses(r.Context(), forceRefresh(r))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if addresses == nil {
		addresses = []model.Address{}
	}
	writeJSON(w, http.StatusOK, addresses)
}

// Address handles GET /api/addresses/{id}.
func (h *AccountHandler) Address(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		badID(w, "address ID", h.logger)
		return
	}

	addr, err := sf.Account.Address(r.Context(), id, forceRefresh(r))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, addr)
}

// CreateAddress handles POST /api/addresses.
func (h *AccountHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	var form model.AddressForm
	if err := decodeJSON(w, r, &form); err != nil {
		badJSON(w, h.logger)
		return
	}

	addr, err := sf.Account.CreateAddress(r.Context(), form)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, addr)
}

// UpdateAddress handles PUT /api/addresses/{id}.
func (h *AccountHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		badID(w, "address ID", h.logger)
		return
	}
	var form model.AddressForm
	if err := decodeJSON(w, r, &form); err != nil {
		badJSON(w, h.logger)
		return
	}

	addr, err := sf.Account.UpdateAddress(r.Context(), id, form)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, addr)
}

// DeleteAddress handles DELETE /api/addresses/{id}.
func (h *AccountHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		badID(w, "address ID", h.logger)
		return
	}

	if err := sf.Account.DeleteAddress(r.Context(), id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LocateAddress handles GET /api/addresses/locate?lat=&lon=.
func (h *AccountHandler) LocateAddress(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}

	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		writeServiceError(w, model.ErrInvalidCoordinates, h.logger)
		return
	}

	form, err := sf.Account.LocateAddress(r.Context(), lat, lon)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, form)
}
