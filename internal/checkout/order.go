package checkout

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/eltovar/DeiiwoCoffee/internal/domain"
	"github.com/eltovar/DeiiwoCoffee/internal/locale"
	"github.com/google/uuid"
)

const (
	OrderIDPrefix = "DC-"

	ConfirmationPath = "/confirmacion.html"
	pickupCity       = "envigado"
	suffixLen        = 9
)

// NewOrderID returns "DC-<unix millis>-<9 random base36 chars>".
func NewOrderID(now time.Time) string {
	u := uuid.New()
	s := new(big.Int).SetBytes(u[:]).Text(36)
	if len(s) < suffixLen {
		s = strings.Repeat("0", suffixLen-len(s)) + s
	}
	return OrderIDPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "-" + s[len(s)-suffixLen:]
}

// WidgetConfig is handed to the external payment widget.
type WidgetConfig struct {
	OrderID        string            `json:"orderId"`
	Currency       string            `json:"currency"`
	Amount         int64             `json:"amount"`
	APIKey         string            `json:"apiKey"`
	Description    string            `json:"description"`
	Tax            int64             `json:"tax"`
	RedirectionURL string            `json:"redirectionUrl"`
	Metadata       map[string]string `json:"metadata"`
}

// NewDraft snapshots the cart and the form into an order.
func NewDraft(items []domain.CartItem, quote domain.ShippingQuote, form Form, lang locale.Lang, now time.Time) domain.OrderDraft {
	snapshot := make([]domain.CartItem, len(items))
	copy(snapshot, items)

	return domain.OrderDraft{
		OrderID:     NewOrderID(now),
		Items:       snapshot,
		Subtotal:    domain.Subtotal(snapshot),
		Shipping:    quote,
		Customer:    trimCustomer(form.Customer),
		Delivery:    deliveryOf(form),
		Destination: form.Destination,
		Lang:        string(lang),
		CreatedAt:   now,
	}
}

// BuildWidgetConfig serializes a draft into the widget configuration. The metadata map is the only
// order detail that survives to the payment notification.
func BuildWidgetConfig(d domain.OrderDraft, origin, publicKey string) (WidgetConfig, error) {
	amount := d.Amount()
	if amount < 0 {
		return WidgetConfig{}, fmt.Errorf("order amount must not be negative: %d", amount)
	}

	items, err := json.Marshal(d.Items)
	if err != nil {
		return WidgetConfig{}, fmt.Errorf("marshal items: %w", err)
	}

	lang := locale.Normalize(d.Lang)
	address, city := d.Destination.Address, d.Destination.City
	if d.Delivery == domain.DeliveryPickup || blank(address) {
		address = locale.T(locale.Spanish, locale.MsgPickupAddress)
	}
	if blank(city) {
		city = pickupCity
	}

	return WidgetConfig{
		OrderID:        d.OrderID,
		Currency:       domain.CurrencyCOP,
		Amount:         amount,
		APIKey:         publicKey,
		Description:    fmt.Sprintf(locale.T(locale.Spanish, locale.MsgOrderDescription), domain.ItemCount(d.Items)),
		Tax:            0,
		RedirectionURL: strings.TrimRight(origin, "/") + ConfirmationPath,
		Metadata: map[string]string{
			domain.MetaItems:        string(items),
			domain.MetaSubtotal:     strconv.FormatInt(d.Subtotal, 10),
			domain.MetaShipping:     strconv.FormatInt(d.Shipping.Cost, 10),
			domain.MetaCustomerName: d.Customer.Name,
			domain.MetaEmail:        d.Customer.Email,
			domain.MetaPhone:        d.Customer.Phone,
			domain.MetaAddress:      address,
			domain.MetaCity:         city,
			domain.MetaNotes:        d.Destination.Notes,
			domain.MetaLang:         string(lang),
			domain.MetaDelivery:     string(d.Delivery),
		},
	}, nil
}

func trimCustomer(c domain.Customer) domain.Customer {
	return domain.Customer{
		Name:  strings.TrimSpace(c.Name),
		Email: strings.TrimSpace(c.Email),
		Phone: strings.TrimSpace(c.Phone),
	}
}

func deliveryOf(f Form) domain.DeliveryMethod {
	if f.Delivery == domain.DeliveryPickup {
		return domain.DeliveryPickup
	}
	return domain.DeliveryShipping
}
