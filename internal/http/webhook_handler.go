package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/eltovar/DeiiwoCoffee/internal/domain"
	"github.com/eltovar/DeiiwoCoffee/internal/notifier"
	"go.uber.org/zap"
)

type CallbackHandler interface {
	Handle(ctx context.Context, cb domain.PaymentCallback) notifier.Outcome
}

type WebhookHandler struct {
	policy   notifier.SignaturePolicy
	notifier CallbackHandler
	logger   *zap.Logger
}

func NewWebhookHandler(policy notifier.SignaturePolicy, n CallbackHandler, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{policy: policy, notifier: n, logger: logger}
}

type WebhookAckDTO struct {
	Received bool `json:"received"`
}

type WebhookErrorDTO struct {
	Error string `json:"error"`
}

// Receive verifies and processes a payment callback. Every authentic, well-formed callback is
// acknowledged with 200 so the provider stops retrying, whatever its status.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With(zap.String("request_id", getRequestID(r.Context())))
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("webhook handler panicked", zap.Any("panic", rec))
			respondJSON(w, http.StatusInternalServerError, WebhookErrorDTO{Error: "internal error"})
		}
	}()

	body, err := readBody(w, r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, WebhookErrorDTO{Error: "unreadable body"})
		return
	}

	if err := h.policy.Check(body, r.Header.Get(notifier.SignatureHeader)); err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, notifier.ErrMissingSignature) {
			status = http.StatusBadRequest
		}
		log.Warn("webhook rejected", zap.Error(err))
		respondJSON(w, status, WebhookErrorDTO{Error: err.Error()})
		return
	}

	cb, err := notifier.Normalize(body)
	if err != nil {
		log.Warn("malformed webhook payload", zap.Error(err))
		respondJSON(w, http.StatusBadRequest, WebhookErrorDTO{Error: "malformed payload"})
		return
	}

	outcome := h.notifier.Handle(r.Context(), cb)
	log.Info("webhook processed",
		zap.String("order_id", cb.OrderID),
		zap.Stringer("outcome", outcome))

	respondJSON(w, http.StatusOK, WebhookAckDTO{Received: true})
}
