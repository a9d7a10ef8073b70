package model

// Address is a saved delivery address.
type Address struct {
	ID           int64    `json:"id"`
	Title        string   `json:"address_type,omitempty"`
	AddressLine1 string   `json:"address_line1"`
	AddressLine2 string   `json:"address_line2,omitempty"`
	Landmark     string   `json:"landmark,omitempty"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Pincode      string   `json:"pincode"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	IsDefault    bool     `json:"is_default"`
}

// AddressForm is the payload for creating or editing an address.
type AddressForm struct {
	Title        string   `json:"address_type,omitempty"`
	AddressLine1 string   `json:"address_line1"`
	AddressLine2 string   `json:"address_line2,omitempty"`
	Landmark     string   `json:"landmark,omitempty"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Pincode      string   `json:"pincode"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	IsDefault    bool     `json:"is_default"`
}

// Missing lists required fields that are still empty.
func (f AddressForm) Missing() []string {
	var missing []string
	if f.AddressLine1 == "" {
		missing = append(missing, "address_line1")
	}
	if f.City == "" {
		missing = append(missing, "city")
	}
	if f.State == "" {
		missing = append(missing, "state")
	}
	if f.Pincode == "" {
		missing = append(missing, "pincode")
	}
	return missing
}

// PostalAddress is the outcome of reverse geocoding a coordinate.
type PostalAddress struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name"`
	PostalCode  string  `json:"postal_code"`
	City        string  `json:"city"`
	State       string  `json:"state"`
	Country     string  `json:"country,omitempty"`
}

// FillAddressForm copies a geocoding result into the form fields it maps to.
// Empty geocoded values leave whatever the customer already typed.
func FillAddressForm(form *AddressForm, addr PostalAddress) {
	if addr.DisplayName != "" {
		form.AddressLine1 = addr.DisplayName
	}
	if addr.PostalCode != "" {
		form.Pincode = addr.PostalCode
	}
	if addr.City != "" {
		form.City = addr.City
	}
	if addr.State != "" {
		form.State = addr.State
	}
	lat, lng := addr.Latitude, addr.Longitude
	form.Latitude = &lat
	form.Longitude = &lng
}
