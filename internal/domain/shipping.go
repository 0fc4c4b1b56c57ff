package domain

import (
	"fmt"
	"strings"
)

type DeliveryMethod string

const (
	DeliveryPickup   DeliveryMethod = "pickup"
	DeliveryShipping DeliveryMethod = "shipping"
)

// ParseDeliveryMethod accepts the storefront form values ("retiro", "envio") as well as the canonical ones.
func ParseDeliveryMethod(s string) (DeliveryMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pickup", "retiro":
		return DeliveryPickup, nil
	case "shipping", "envio", "domicilio":
		return DeliveryShipping, nil
	}
	return "", fmt.Errorf("unknown delivery method %q", s)
}

type Destination struct {
	Department string `json:"department,omitempty"`
	City       string `json:"city,omitempty"`
	Address    string `json:"address,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// Basis names the rule that produced a ShippingQuote.
type Basis string

const (
	BasisPickup        Basis = "PICKUP"
	BasisPending       Basis = "PENDING"
	BasisZoneFixed     Basis = "ZONE_FIXED"
	BasisFreeThreshold Basis = "FREE_THRESHOLD"
	BasisDistanceAPI   Basis = "DISTANCE_API"
	BasisDistanceTable Basis = "DISTANCE_TABLE"
)

func (b Basis) String() string {
	return string(b)
}

// PendingReason tells the UI which input is still missing when Basis is PENDING.
type PendingReason string

const (
	PendingSelectCity   PendingReason = "select_city"
	PendingEnterAddress PendingReason = "enter_address"
)

type ShippingQuote struct {
	Cost       int64         `json:"cost"`
	Basis      Basis         `json:"basis"`
	Reason     PendingReason `json:"reason,omitempty"`
	DistanceKm float64       `json:"distance_km,omitempty"`
}

// IsPending reports whether the quote has no price yet. A pending quote must not be shown as free shipping.
func (q ShippingQuote) IsPending() bool {
	return q.Basis == BasisPending
}
