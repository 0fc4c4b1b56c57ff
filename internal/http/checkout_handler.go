package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/eltovar/DeiiwoCoffee/internal/checkout"
	"github.com/eltovar/DeiiwoCoffee/internal/domain"
	"github.com/eltovar/DeiiwoCoffee/internal/locale"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	timeout time.Duration
	logger  *zap.Logger
}

func NewCheckoutHandler(timeout time.Duration, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{timeout: timeout, logger: logger}
}

type CheckoutStateDTO struct {
	State         string           `json:"state"`
	InProgress    bool             `json:"in_progress"`
	Lang          string           `json:"lang"`
	Form          checkout.Form    `json:"form"`
	Quote         QuoteResponseDTO `json:"quote"`
	Subtotal      int64            `json:"subtotal"`
	Total         int64            `json:"total"`
	UnloadWarning string           `json:"unload_warning,omitempty"`
}

// DetailsRequestDTO carries a partial form update; absent fields are left unchanged.
type DetailsRequestDTO struct {
	Customer      *domain.Customer    `json:"customer,omitempty"`
	Delivery      *string             `json:"delivery,omitempty"`
	Destination   *domain.Destination `json:"destination,omitempty"`
	TermsAccepted *bool               `json:"terms_accepted,omitempty"`
}

func checkoutState(sess *checkout.Session) CheckoutStateDTO {
	lang := sess.Flow.Lang()
	q := sess.Flow.Quote()
	subtotal := sess.Cart.Subtotal()
	dto := CheckoutStateDTO{
		State:      sess.Flow.State().String(),
		InProgress: sess.Flow.InProgress(),
		Lang:       string(lang),
		Form:       sess.Flow.Form(),
		Quote:      quoteResponse(q, lang),
		Subtotal:   subtotal,
		Total:      subtotal + q.Cost,
	}
	if msg, warn := sess.Guard.Check(); warn {
		dto.UnloadWarning = msg
	}
	return dto
}

func (h *CheckoutHandler) GetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, checkoutState(sessionFromContext(r.Context())))
}

func (h *CheckoutHandler) Open(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	if err := sess.Flow.Open(); err != nil {
		h.handleCheckoutError(w, sess, err)
		return
	}
	respondJSON(w, http.StatusOK, checkoutState(sess))
}

func (h *CheckoutHandler) Next(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	if err := sess.Flow.Next(); err != nil {
		h.handleCheckoutError(w, sess, err)
		return
	}
	respondJSON(w, http.StatusOK, checkoutState(sess))
}

func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	if err := sess.Flow.Back(); err != nil {
		h.handleCheckoutError(w, sess, err)
		return
	}
	respondJSON(w, http.StatusOK, checkoutState(sess))
}

func (h *CheckoutHandler) Close(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	sess.Flow.Close()
	respondJSON(w, http.StatusOK, checkoutState(sess))
}

// UpdateDetails applies a partial form update. Delivery and city changes are priced before the
// response; address edits are debounced and show up on a later GET.
func (h *CheckoutHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	sess := sessionFromContext(r.Context())

	var req DetailsRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var delivery domain.DeliveryMethod
	if req.Delivery != nil {
		d, err := parseDelivery(*req.Delivery)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_delivery", err.Error())
			return
		}
		delivery = d
	}

	sess.Flow.UpdateDetails(ctx, func(f *checkout.Form) {
		if req.Customer != nil {
			f.Customer = *req.Customer
		}
		if req.Delivery != nil {
			f.Delivery = delivery
		}
		if req.Destination != nil {
			f.Destination = *req.Destination
		}
		if req.TermsAccepted != nil {
			f.TermsAccepted = *req.TermsAccepted
		}
	})

	respondJSON(w, http.StatusOK, checkoutState(sess))
}

// Pay hands the order off and returns the widget configuration for the browser to open.
func (h *CheckoutHandler) Pay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	sess := sessionFromContext(r.Context())

	cfg, err := sess.Flow.Pay(ctx)
	if err != nil {
		h.handleCheckoutError(w, sess, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

func (h *CheckoutHandler) handleCheckoutError(w http.ResponseWriter, sess *checkout.Session, err error) {
	lang := sess.Flow.Lang()

	var verr *checkout.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusUnprocessableEntity, string(verr.Reason), verr.Message)
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusConflict, string(locale.MsgEmptyCart), locale.T(lang, locale.MsgEmptyCart))
	case errors.Is(err, checkout.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, checkout.ErrPaymentUnavailable):
		respondError(w, http.StatusServiceUnavailable, string(locale.MsgPaymentUnavailable), locale.T(lang, locale.MsgPaymentUnavailable))
	default:
		h.logger.Error("checkout failed", zap.String("session_id", sess.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
