// Package handler exposes the storefront pages as JSON endpoints. Every
// handler works on the storefront the session middleware attached to the
// request.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"storefront/internal/apiclient"
	"storefront/internal/geocode"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/storefront"

	"github.com/rs/zerolog"
)

// maxRequestBody caps decoded request bodies.
const maxRequestBody = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message, code string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: message, Code: code})
}

// writeServiceError maps an error from the services or the backend client
// to a response.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var (
		domainErr *model.DomainError
		apiErr    *apiclient.APIError
	)

	switch {
	case errors.Is(err, apiclient.ErrSessionExpired):
		logger.Info().Msg("session expired")
		writeJSON(w, http.StatusUnauthorized, model.ErrorResponse{
			Error:    err.Error(),
			Code:     model.ErrCodeSessionExpired,
			Redirect: "/login",
		})
	case errors.Is(err, apiclient.ErrBackendUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable, please try again", model.ErrCodeBackendUnavailable, logger)
	case errors.Is(err, geocode.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "Too many location lookups, please try again shortly", model.ErrCodeRateLimited, logger)
	case errors.Is(err, geocode.ErrLocationNotFound):
		logger.Debug().Err(err).Msg("location not found")
		writeJSON(w, http.StatusNotFound, model.ErrorResponse{Error: "Could not find an address for this location", Code: model.ErrCodeLocationNotFound})
	case errors.As(err, &domainErr):
		logger.Debug().Str("code", domainErr.Code).Msg(domainErr.Message)
		resp := model.ErrorResponse{Error: domainErr.Message, Code: domainErr.Code}
		if domainErr.Code == model.ErrCodeNotAuthenticated {
			resp.Redirect = "/login"
		}
		writeJSON(w, domainStatus(domainErr.Code), resp)
	case errors.As(err, &apiErr):
		logger.Warn().Int("backend_status", apiErr.Status).Str("error", apiErr.Message).Msg("backend rejected request")
		status := apiErr.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		code := model.ErrCodeBackendError
		if status == http.StatusNotFound {
			code = model.ErrCodeNotFound
		}
		writeJSON(w, status, model.ErrorResponse{Error: apiErr.Message, Code: code, Fields: apiErr.Fields})
	default:
		logger.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "internal server error", Code: model.ErrCodeInternalError})
	}
}

func domainStatus(code string) int {
	switch code {
	case model.ErrCodeNotAuthenticated:
		return http.StatusUnauthorized
	case model.ErrCodeOrderNotCancellable, model.ErrCodeOrderNotAwaiting, model.ErrCodeOrderNotRateable:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// decodeJSON reads a JSON request body into v. An empty body leaves v as is.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// pathID parses a positive integer path value.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// forceRefresh reports whether the client asked to bypass the cache.
func forceRefresh(r *http.Request) bool {
	force, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	return force
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// session returns the request's storefront, answering 500 when the session
// middleware did not run.
func session(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (*storefront.Storefront, bool) {
	sf, ok := middleware.StorefrontFrom(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "session missing from request", model.ErrCodeInternalError, logger)
		return nil, false
	}
	return sf, true
}

func badID(w http.ResponseWriter, name string, logger zerolog.Logger) {
	writeError(w, http.StatusBadRequest, "invalid "+name, model.ErrCodeInvalidID, logger)
}

func badJSON(w http.ResponseWriter, logger zerolog.Logger) {
	writeError(w, http.StatusBadRequest, "invalid request body", model.ErrCodeInvalidJSON, logger)
}
