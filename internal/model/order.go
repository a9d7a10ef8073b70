package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the backend-owned lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending                    OrderStatus = "pending"
	OrderStatusWaitingForCustomerApproval OrderStatus = "waiting_for_customer_approval"
	OrderStatusConfirmed                  OrderStatus = "confirmed"
	OrderStatusProcessing                 OrderStatus = "processing"
	OrderStatusOutForDelivery             OrderStatus = "out_for_delivery"
	OrderStatusDelivered                  OrderStatus = "delivered"
	OrderStatusCancelled                  OrderStatus = "cancelled"
	OrderStatusRejected                   OrderStatus = "rejected"
)

func (s OrderStatus) normalised() OrderStatus {
	return OrderStatus(strings.ToLower(string(s)))
}

// Cancellable reports whether the customer may still cancel the order.
func (s OrderStatus) Cancellable() bool {
	switch s.normalised() {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing:
		return true
	}
	return false
}

// AwaitingApproval reports whether the retailer modified the order and
// needs the customer to accept or reject the change.
func (s OrderStatus) AwaitingApproval() bool {
	return s.normalised() == OrderStatusWaitingForCustomerApproval
}

// Rateable reports whether the order can be rated.
func (s OrderStatus) Rateable() bool {
	return s.normalised() == OrderStatusDelivered
}

// Label returns the status in human readable form.
func (s OrderStatus) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// Order is a read-only view of a placed order.
type Order struct {
	ID                  int64           `json:"id"`
	OrderNumber         string          `json:"order_number"`
	RetailerID          int64           `json:"retailer,omitempty"`
	RetailerName        string          `json:"retailer_name"`
	RetailerPhone       string          `json:"retailer_phone,omitempty"`
	RetailerAddress     string          `json:"retailer_address,omitempty"`
	Status              OrderStatus     `json:"status"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	DeliveryFee         decimal.Decimal `json:"delivery_fee"`
	DiscountAmount      decimal.Decimal `json:"discount_amount"`
	DiscountFromPoints  decimal.Decimal `json:"discount_from_points"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	DeliveryMode        string          `json:"delivery_mode,omitempty"`
	PaymentMode         string          `json:"payment_mode,omitempty"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
	DeliveryAddressText string          `json:"delivery_address_text,omitempty"`
	Items               []OrderItem     `json:"items,omitempty"`
	UnreadMessages      int             `json:"unread_messages_count,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID           int64           `json:"id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image,omitempty"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Quantity     int             `json:"quantity"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

// PlaceOrderRequest is the checkout payload. Items come from the
// server-side cart of the retailer.
type PlaceOrderRequest struct {
	RetailerID          string `json:"retailer_id"`
	AddressID           int64  `json:"address_id"`
	PaymentMethod       string `json:"payment_method,omitempty"`
	DeliveryMode        string `json:"delivery_mode,omitempty"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
	UsePoints           bool   `json:"use_loyalty_points,omitempty"`
}

// Modification actions for orders waiting for customer approval.
const (
	ModificationAccept = "accept"
	ModificationReject = "reject"
)

// OrderRating is the customer's feedback on a delivered order.
type OrderRating struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// ChatMessage is a message in the order chat between customer and retailer.
type ChatMessage struct {
	ID         int64     `json:"id"`
	Sender     string    `json:"sender_type"`
	SenderName string    `json:"sender_name,omitempty"`
	Message    string    `json:"message"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}
