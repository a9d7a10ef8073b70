package model

import "github.com/shopspring/decimal"

// Retailer is a shop listed on the marketplace.
type Retailer struct {
	ID           int64   `json:"id"`
	ShopName     string  `json:"shop_name"`
	Description  string  `json:"description,omitempty"`
	Address      string  `json:"address,omitempty"`
	City         string  `json:"city,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	Logo         string  `json:"logo,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	IsOpen       bool    `json:"is_open"`
	DeliveryMode string  `json:"delivery_mode,omitempty"`
}

// Category groups products of a retailer.
type Category struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Image        string `json:"image,omitempty"`
	ProductCount int    `json:"product_count,omitempty"`
}

// Product is a retailer's catalogue item as rendered by the storefront.
type Product struct {
	ID                   int64           `json:"id"`
	Name                 string          `json:"name"`
	Description          string          `json:"description,omitempty"`
	Price                decimal.Decimal `json:"price"`
	OriginalPrice        decimal.Decimal `json:"original_price"`
	Image                string          `json:"image,omitempty"`
	CategoryID           int64           `json:"category,omitempty"`
	CategoryName         string          `json:"category_name,omitempty"`
	Unit                 string          `json:"unit,omitempty"`
	StockQuantity        int             `json:"stock_quantity"`
	MinimumOrderQuantity int             `json:"minimum_order_quantity,omitempty"`
	MaximumOrderQuantity *int            `json:"maximum_order_quantity,omitempty"`
	IsAvailable          bool            `json:"is_available"`
}

// Bounds returns the quantity limits a customer may order for the product.
func (p Product) Bounds() QuantityBounds {
	b := QuantityBounds{Min: p.MinimumOrderQuantity}
	if p.MaximumOrderQuantity != nil {
		b.Max = *p.MaximumOrderQuantity
	}
	if p.StockQuantity > 0 && (b.Max == 0 || p.StockQuantity < b.Max) {
		b.Max = p.StockQuantity
	}
	return b.normalised()
}

// ProductPage is a paginated product listing.
type ProductPage struct {
	Count    int       `json:"count"`
	Next     *string   `json:"next"`
	Previous *string   `json:"previous"`
	Results  []Product `json:"results"`
}

// ProductQuery holds the listing filters sent to the backend.
type ProductQuery struct {
	Category string `json:"category,omitempty"`
	Search   string `json:"search,omitempty"`
	Page     int    `json:"page,omitempty"`
	Ordering string `json:"ordering,omitempty"`
}

// RetailerQuery holds retailer directory filters.
type RetailerQuery struct {
	Search string `json:"search,omitempty"`
	City   string `json:"city,omitempty"`
	Page   int    `json:"page,omitempty"`
}

// QuantityBounds mirrors server-reported order quantity limits.
// A zero Max means no ceiling is known.
type QuantityBounds struct {
	Min int `json:"min"`
	Max int `json:"max,omitempty"`
}

func (b QuantityBounds) normalised() QuantityBounds {
	if b.Min < 1 {
		b.Min = 1
	}
	if b.Max != 0 && b.Max < b.Min {
		b.Max = b.Min
	}
	return b
}

// Clamp brings qty inside the bounds.
func (b QuantityBounds) Clamp(qty int) int {
	b = b.normalised()
	if qty < b.Min {
		return b.Min
	}
	if b.Max > 0 && qty > b.Max {
		return b.Max
	}
	return qty
}
