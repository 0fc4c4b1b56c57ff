package notifier

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/eltovar/DeiiwoCoffee/internal/domain"
	"github.com/eltovar/DeiiwoCoffee/internal/locale"
)

// Reconstruct rebuilds the paid order from the callback metadata. Missing fields fall back to
// localized defaults; it never fails.
func Reconstruct(cb domain.PaymentCallback, paidAt time.Time) domain.PaidOrder {
	meta := cb.Metadata
	lang := locale.Normalize(meta[domain.MetaLang])
	notSpecified := locale.T(lang, locale.MsgNotSpecified)

	items := parseItems(meta[domain.MetaItems])

	address := firstNonEmpty(meta[domain.MetaAddress], meta[domain.MetaAltAddress])
	pickup := meta[domain.MetaDelivery] == string(domain.DeliveryPickup) ||
		address == locale.T(locale.Spanish, locale.MsgPickupAddress)
	if address == "" {
		address = notSpecified
	}

	city := notSpecified
	if c := strings.TrimSpace(meta[domain.MetaCity]); c != "" {
		city = domain.CityName(c)
	}

	cost := parseAmount(firstNonEmpty(meta[domain.MetaShipping], meta[domain.MetaAltShipping]))

	amount := cb.Amount
	if amount <= 0 {
		amount = domain.Subtotal(items) + cost
	}

	return domain.PaidOrder{
		OrderID:  cb.OrderID,
		Amount:   amount,
		Currency: firstNonEmpty(cb.Currency, domain.CurrencyCOP),
		Items:    items,
		Customer: domain.Customer{
			Name:  firstNonEmpty(meta[domain.MetaCustomerName], locale.T(lang, locale.MsgDefaultCustomer)),
			Email: firstNonEmpty(cb.CustomerEmail, meta[domain.MetaEmail]),
			Phone: strings.TrimSpace(meta[domain.MetaPhone]),
		},
		Shipping: domain.ShippingDetails{
			Address: address,
			City:    city,
			Cost:    cost,
			Notes:   strings.TrimSpace(meta[domain.MetaNotes]),
		},
		Pickup: pickup,
		Lang:   string(lang),
		PaidAt: paidAt,
	}
}

type rawItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

func parseItems(s string) []domain.CartItem {
	if strings.TrimSpace(s) == "" {
		return []domain.CartItem{}
	}
	var raw []rawItem
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return []domain.CartItem{}
	}
	items := make([]domain.CartItem, 0, len(raw))
	for _, r := range raw {
		if r.Name == "" {
			continue
		}
		items = append(items, domain.CartItem{
			Name:     r.Name,
			Price:    int64(math.Round(r.Price)),
			Quantity: int(math.Max(1, math.Round(r.Quantity))),
		})
	}
	return items
}

func parseAmount(s string) int64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(math.Round(f))
}
