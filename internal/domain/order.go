package domain

import "time"

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// OrderDraft is assembled when checkout hands off to the payment widget.
type OrderDraft struct {
	OrderID     string         `json:"order_id"`
	Items       []CartItem     `json:"items"`
	Subtotal    int64          `json:"subtotal"`
	Shipping    ShippingQuote  `json:"shipping"`
	Customer    Customer       `json:"customer"`
	Delivery    DeliveryMethod `json:"delivery"`
	Destination Destination    `json:"destination"`
	Lang        string         `json:"lang"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (o OrderDraft) Amount() int64 {
	return o.Subtotal + o.Shipping.Cost
}

// PaymentCallback is the canonical form of a provider notification, whichever shape it arrived in.
type PaymentCallback struct {
	Event         string            `json:"event,omitempty"`
	Status        string            `json:"status,omitempty"`
	OrderID       string            `json:"order_id"`
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	Metadata      map[string]string `json:"metadata"`
}

type ShippingDetails struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Cost    int64  `json:"cost"`
	Notes   string `json:"notes"`
}

// PaidOrder is the order as reconstructed from a payment notification.
type PaidOrder struct {
	OrderID  string          `json:"order_id"`
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	Items    []CartItem      `json:"items"`
	Customer Customer        `json:"customer"`
	Shipping ShippingDetails `json:"shipping"`
	Pickup   bool            `json:"pickup"`
	Lang     string          `json:"lang"`
	PaidAt   time.Time       `json:"paid_at"`
}
