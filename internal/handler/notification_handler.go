package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/model"
	"storefront/internal/notify"

	"github.com/rs/zerolog"
)

// DefaultKeepAlive is how often an idle event stream sends a comment line.
const DefaultKeepAlive = 25 * time.Second

// eventBuffer is how many events a slow stream may fall behind by before
// events are dropped for it.
const eventBuffer = 16

// NotificationHandler streams foreground push events to the page and
// accepts payloads relayed by the page's push listener.
type NotificationHandler struct {
	keepAlive time.Duration
	logger    zerolog.Logger
}

// NewNotificationHandler creates a new notification handler. A non-positive
// keepAlive uses DefaultKeepAlive.
func NewNotificationHandler(keepAlive time.Duration, logger zerolog.Logger) *NotificationHandler {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &NotificationHandler{
		keepAlive: keepAlive,
		logger:    logger.With().Str("handler", "notification").Logger(),
	}
}

type deliverResponse struct {
	Delivered bool `json:"delivered"`
}

type routeResponse struct {
	Target string `json:"target"`
}

// Events handles GET /api/events as a server-sent event stream.
func (h *NotificationHandler) Events(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}

	events, unsubscribe := sf.Bridge.Bus().Subscribe(eventBuffer)
	defer unsubscribe()

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Error().Err(err).Msg("event stream not supported")
		return
	}

	logger := h.logger.With().Str("session_id", sf.ID()).Logger()
	logger.Debug().Msg("event stream opened")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Msg("event stream closed by client")
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case ev, open := <-events:
			if !open {
				logger.Debug().Msg("event stream closed by session")
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Error().Err(err).Str("event", string(ev.Name)).Msg("failed to encode event")
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// Deliver handles POST /api/notifications with a foreground push payload.
func (h *NotificationHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	sf, ok := session(w, r, h.logger)
	if !ok {
		return
	}
	var p notify.Payload
	if err := decodeJSON(w, r, &p); err != nil {
		badJSON(w, h.logger)
		return
	}

	fresh, err := sf.Deliver(r.Context(), p)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusAccepted, deliverResponse{Delivered: fresh})
}

// Route handles GET /api/notifications/route for notification clicks. The
// query parameters are the payload's data fields.
func (h *NotificationHandler) Route(w http.ResponseWriter, r *http.Request) {
	data := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			data[key] = values[0]
		}
	}

	target, ok := notify.Route(notify.Payload{Data: data})
	if !ok {
		writeError(w, http.StatusNotFound, "notification has no order to open", model.ErrCodeNotFound, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, routeResponse{Target: target})
}
