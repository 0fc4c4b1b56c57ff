package http

import (
	"context"
	"net/http"
	"time"

	"github.com/eltovar/DeiiwoCoffee/internal/checkout"
	"github.com/eltovar/DeiiwoCoffee/internal/domain"
	"github.com/eltovar/DeiiwoCoffee/internal/locale"
	"github.com/eltovar/DeiiwoCoffee/internal/shipping"
)

type ShippingHandler struct {
	estimator checkout.QuoteEstimator
	timeout   time.Duration
}

func NewShippingHandler(estimator checkout.QuoteEstimator, timeout time.Duration) *ShippingHandler {
	return &ShippingHandler{estimator: estimator, timeout: timeout}
}

// QuoteRequestDTO prices an arbitrary destination. Subtotal defaults to the session cart.
type QuoteRequestDTO struct {
	Delivery string `json:"delivery"`
	City     string `json:"city"`
	Address  string `json:"address"`
	Subtotal *int64 `json:"subtotal,omitempty"`
}

type QuoteResponseDTO struct {
	domain.ShippingQuote
	Label string `json:"label"`
}

func (h *ShippingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	sess := sessionFromContext(r.Context())

	var req QuoteRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	delivery, err := parseDelivery(req.Delivery)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_delivery", err.Error())
		return
	}

	subtotal := sess.Cart.Subtotal()
	if req.Subtotal != nil {
		if *req.Subtotal < 0 {
			respondError(w, http.StatusBadRequest, "invalid_subtotal", "subtotal must not be negative")
			return
		}
		subtotal = *req.Subtotal
	}

	q := h.estimator.Estimate(ctx, shipping.Input{
		Delivery: delivery,
		City:     req.City,
		Address:  req.Address,
		Subtotal: subtotal,
	})
	respondJSON(w, http.StatusOK, quoteResponse(q, sess.Flow.Lang()))
}

// parseDelivery treats an empty value as home delivery, the storefront's default selection.
func parseDelivery(s string) (domain.DeliveryMethod, error) {
	if s == "" {
		return domain.DeliveryShipping, nil
	}
	return domain.ParseDeliveryMethod(s)
}

func quoteResponse(q domain.ShippingQuote, lang locale.Lang) QuoteResponseDTO {
	return QuoteResponseDTO{ShippingQuote: q, Label: quoteLabel(q, lang)}
}

// quoteLabel is the text shown next to the shipping line. A pending quote never reads as free.
func quoteLabel(q domain.ShippingQuote, lang locale.Lang) string {
	switch q.Basis {
	case domain.BasisPending:
		if q.Reason == domain.PendingEnterAddress {
			return locale.T(lang, locale.MsgEnterAddress)
		}
		return locale.T(lang, locale.MsgSelectCity)
	case domain.BasisPickup:
		return locale.T(lang, locale.MsgPickup)
	case domain.BasisFreeThreshold:
		return locale.T(lang, locale.MsgFreeShipping)
	case domain.BasisZoneFixed:
		return locale.T(lang, locale.MsgNationalShipping) + ": " + locale.FormatCOP(q.Cost)
	}
	return locale.FormatCOP(q.Cost)
}
