package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/eltovar/DeiiwoCoffee/internal/payment"
	"go.uber.org/zap"
)

type LinkCreator interface {
	CreateLink(ctx context.Context, amount int64, description string) (payment.Link, error)
}

type PaymentHandler struct {
	links   LinkCreator
	timeout time.Duration
	logger  *zap.Logger
}

func NewPaymentHandler(links LinkCreator, timeout time.Duration, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{links: links, timeout: timeout, logger: logger}
}

type CreateLinkResponseDTO struct {
	Success       bool   `json:"success"`
	URL           string `json:"url"`
	PaymentLinkID string `json:"paymentLinkId"`
	OrderID       string `json:"orderId"`
}

type PaymentErrorDTO struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func respondPaymentError(w http.ResponseWriter, status int, message, details string) {
	respondJSON(w, status, PaymentErrorDTO{Error: message, Details: details})
}

func (h *PaymentHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	body, err := readBody(w, r)
	if err != nil {
		respondPaymentError(w, http.StatusBadRequest, "Solicitud inválida", err.Error())
		return
	}

	req, err := payment.ParseLinkRequest(body)
	if err != nil {
		respondPaymentError(w, http.StatusBadRequest, "Solicitud inválida", err.Error())
		return
	}

	amount, err := req.Validate()
	switch {
	case errors.Is(err, payment.ErrInvalidAmount):
		respondPaymentError(w, http.StatusBadRequest, "Monto inválido. Debe ser un número entero mayor a 0.", "")
		return
	case errors.Is(err, payment.ErrMissingEmail):
		respondPaymentError(w, http.StatusBadRequest, "Email del cliente requerido", "")
		return
	}

	link, err := h.links.CreateLink(ctx, amount, req.Description)
	if err != nil {
		h.handleProviderError(w, req.OrderID, err)
		return
	}

	orderID := req.OrderID
	if orderID == "" {
		orderID = link.PaymentLinkID
	}
	h.logger.Info("payment link created",
		zap.String("order_id", orderID),
		zap.String("payment_link_id", link.PaymentLinkID),
		zap.Int64("amount", amount))

	respondJSON(w, http.StatusCreated, CreateLinkResponseDTO{
		Success:       true,
		URL:           link.URL,
		PaymentLinkID: link.PaymentLinkID,
		OrderID:       orderID,
	})
}

func (h *PaymentHandler) handleProviderError(w http.ResponseWriter, orderID string, err error) {
	log := h.logger.With(zap.String("order_id", orderID), zap.Error(err))

	var perr *payment.ProviderError
	switch {
	case errors.As(err, &perr):
		log.Warn("payment provider rejected link request", zap.Int("status", perr.StatusCode))
		respondPaymentError(w, perr.StatusCode, "Bold rechazó la petición", perr.Detail)
	case errors.Is(err, payment.ErrNoConnectivity):
		log.Error("payment provider unreachable")
		respondPaymentError(w, http.StatusServiceUnavailable, "No hay conexión con Bold",
			"Error de red: "+err.Error()+". Verifica tu conexión a internet.")
	case errors.Is(err, payment.ErrMissingURL):
		log.Error("payment provider returned no url")
		respondPaymentError(w, http.StatusInternalServerError, "Bold no retornó URL de pago", "")
	default:
		log.Error("payment link creation failed")
		respondPaymentError(w, http.StatusInternalServerError, "Error interno del servidor", err.Error())
	}
}
