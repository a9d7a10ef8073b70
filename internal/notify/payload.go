// Package notify turns push messages into per-session events. A payload
// reaching the process from the browser or from another instance is
// classified once, fanned out to the session's local subscribers and, when
// it came from the browser, republished so every instance serving the same
// session sees it.
package notify

import "strings"

// Notification is the visible part of a push message.
type Notification struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

// Payload is a push message as delivered by the messaging provider.
type Payload struct {
	MessageID    string            `json:"messageId,omitempty"`
	From         string            `json:"from,omitempty"`
	Notification *Notification     `json:"notification,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
}

// Type returns the data type, falling back to the data event field.
func (p Payload) Type() string {
	if t := p.Data["type"]; t != "" {
		return t
	}
	return p.Data["event"]
}

// Silent reports whether the payload is a data-only update.
func (p Payload) Silent() bool {
	return p.Data["is_silent"] == "true"
}

// OrderID returns the order the payload refers to, if any.
func (p Payload) OrderID() string {
	return strings.TrimSpace(p.Data["order_id"])
}

// EventName identifies what a payload means to the pages.
type EventName string

const (
	EventChat    EventName = "fcm_chat_message"
	EventOrder   EventName = "fcm_order_update"
	EventMessage EventName = "fcm_message"

	// EventAlert carries a visible notification that has no data meaning.
	EventAlert EventName = "notification"
)

const defaultAlertTitle = "Order Update"

var (
	chatTypes = map[string]bool{
		"new_message": true,
		"chat":        true,
		"order_chat":  true,
	}
	orderTypes = map[string]bool{
		"order_status_update": true,
		"order_refresh":       true,
		"order_update":        true,
		"new_order":           true,
	}
)

// Classify maps a payload to the event pages listen for. Payloads that are
// neither silent, typed nor about an order produce no event.
func Classify(p Payload) (EventName, bool) {
	typ := p.Type()
	if !p.Silent() && typ == "" && p.OrderID() == "" {
		return "", false
	}

	switch {
	case chatTypes[typ]:
		return EventChat, true
	case orderTypes[typ], p.OrderID() != "":
		return EventOrder, true
	default:
		return EventMessage, true
	}
}

// Alert is what the browser shows for a visible notification.
type Alert struct {
	Title  string `json:"title"`
	Body   string `json:"body,omitempty"`
	Target string `json:"target,omitempty"`
}

// Event is dispatched to local subscribers.
type Event struct {
	Name    EventName `json:"event"`
	Payload Payload   `json:"payload"`
	Alert   *Alert    `json:"alert,omitempty"`
}

// NewEvent builds the event for a payload. It reports false when the payload
// carries neither a data event nor a visible notification.
func NewEvent(p Payload) (Event, bool) {
	name, ok := Classify(p)
	if !ok && p.Notification == nil {
		return Event{}, false
	}
	if !ok {
		name = EventAlert
	}

	ev := Event{Name: name, Payload: p}
	if p.Notification != nil {
		title := p.Notification.Title
		if title == "" {
			title = defaultAlertTitle
		}
		target, _ := Route(p)
		ev.Alert = &Alert{Title: title, Body: p.Notification.Body, Target: target}
	}
	return ev, true
}
