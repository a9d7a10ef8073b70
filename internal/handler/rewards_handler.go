package handler

import (
	"net/http"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// RewardsHandler serves loyalty points and referrals.
type RewardsHandler struct {
	logger zerolog.Logger
}

// NewRewardsHandler creates a new rewards handler.
func NewRewardsHandler(logger zerolog.Logger) *RewardsHandler {
	return &RewardsHandler{
		logger: logger.With().Str("handler", "rewards").Logger(),
	}
}

// Overview handles GET /api/rewards.
func (h *RewardsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	overview, err := sf.Rewards.Overview(r.Context(), forceRefresh(r))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// Loyalty handles GET /api/rewards/loyalty.
func (h *RewardsHandler) Loyalty(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	loyalty, err := sf.Rewards.AllLoyalty(r.Context(), forceRefresh(r))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if loyalty == nil {
		loyalty = []model.Loyalty{}
	}
	writeJSON(w, http.StatusOK, loyalty)
}

// ApplyReferral handles POST /api/rewards/referral. A zero retailer_id
// applies the code at the current retailer.
func (h *RewardsHandler) ApplyReferral(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	var req model.ApplyReferralRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badJSON(w, h.logger)
		return
	}

	resp, err := sf.Rewards.ApplyReferral(r.Context(), req.ReferralCode, req.RetailerID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
