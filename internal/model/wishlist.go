package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// WishlistIDs is the wishlist reduced to product identifiers. The backend
// answers either with a paginated envelope or a bare list, and each entry is
// a bare id, an object with a product id or an object with a nested product.
type WishlistIDs []string

// UnmarshalJSON normalises every known wishlist shape into string ids.
func (w *WishlistIDs) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*w = WishlistIDs{}
		return nil
	}

	var raw []json.RawMessage
	if data[0] == '{' {
		var envelope struct {
			Results []json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return fmt.Errorf("failed to decode wishlist envelope: %w", err)
		}
		raw = envelope.Results
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode wishlist: %w", err)
	}

	ids := make(WishlistIDs, 0, len(raw))
	for i, item := range raw {
		id, err := wishlistItemID(item)
		if err != nil {
			return fmt.Errorf("wishlist item %d: %w", i, err)
		}
		if id != "" {
			ids = append(ids, id)
		}
	}
	*w = ids
	return nil
}

func wishlistItemID(item json.RawMessage) (string, error) {
	item = bytes.TrimSpace(item)
	if len(item) == 0 || bytes.Equal(item, []byte("null")) {
		return "", nil
	}
	if item[0] != '{' {
		return scalarID(item)
	}

	var obj struct {
		Product json.RawMessage `json:"product"`
		ID      json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(item, &obj); err != nil {
		return "", err
	}
	if len(obj.Product) > 0 && !bytes.Equal(obj.Product, []byte("null")) {
		return wishlistItemID(obj.Product)
	}
	return scalarID(obj.ID)
}

func scalarID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("unsupported identifier %s", string(raw))
	}
	return s, nil
}

// ProductKey converts a numeric product id into the string form used for
// wishlist membership.
func ProductKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
