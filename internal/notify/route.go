package notify

import (
	"net/url"
	"strings"
)

// Route returns the page a click on the payload's notification opens.
// Chat messages open the order chat, anything naming an order opens the
// order detail page.
func Route(p Payload) (string, bool) {
	id := p.OrderID()
	if id == "" {
		id = strings.TrimSpace(p.Data["id"])
	}
	if id == "" {
		return "", false
	}

	if name, _ := Classify(p); name == EventChat {
		return "/orders/chat?id=" + url.QueryEscape(id), true
	}
	return "/orders/detail?id=" + url.QueryEscape(id), true
}
