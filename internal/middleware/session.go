package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"storefront/internal/model"
	"storefront/internal/storefront"

	"github.com/rs/zerolog"
)

// SessionHeader carries the session id for clients that do not keep cookies.
const SessionHeader = "X-Session-ID"

// Opener resolves a session id to its storefront.
type Opener interface {
	Open(ctx context.Context, sessionID string) (*storefront.Storefront, error)
}

type storefrontKey struct{}

// WithStorefront returns a copy of ctx carrying sf.
func WithStorefront(ctx context.Context, sf *storefront.Storefront) context.Context {
	return context.WithValue(ctx, storefrontKey{}, sf)
}

// StorefrontFrom returns the storefront attached by Session.
func StorefrontFrom(ctx context.Context) (*storefront.Storefront, bool) {
	sf, ok := ctx.Value(storefrontKey{}).(*storefront.Storefront)
	return sf, ok && sf != nil
}

// Session opens the caller's storefront, starting a new session when the
// request carries none, and echoes the session id back as a cookie and a
// header.
func Session(opener Opener, cookieName string, idleTimeout time.Duration, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(SessionHeader)
			if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
				id = cookie.Value
			}

			sf, err := opener.Open(r.Context(), id)
			if err != nil {
				logger.Error().Err(err).Str("path", r.URL.Path).Msg("failed to open session")
				writeJSONError(w, http.StatusServiceUnavailable, model.ErrorResponse{
					Error: "Session storage is unavailable",
					Code:  model.ErrCodeSessionUnavailable,
				})
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     cookieName,
				Value:    sf.ID(),
				Path:     "/",
				MaxAge:   int(idleTimeout.Seconds()),
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(SessionHeader, sf.ID())

			next.ServeHTTP(w, r.WithContext(WithStorefront(r.Context(), sf)))
		})
	}
}

// RequireAuth rejects requests whose session holds no backend tokens and
// points the client at the login page.
func RequireAuth(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sf, ok := StorefrontFrom(r.Context())
			if !ok || !sf.Authenticated() {
				logger.Debug().Str("path", r.URL.Path).Msg("unauthenticated request")
				writeJSONError(w, http.StatusUnauthorized, model.ErrorResponse{
					Error:    "Please log in to continue",
					Code:     model.ErrCodeNotAuthenticated,
					Redirect: "/login",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, body model.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
