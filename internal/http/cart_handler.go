package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/eltovar/DeiiwoCoffee/internal/cart"
	"github.com/eltovar/DeiiwoCoffee/internal/checkout"
	"github.com/eltovar/DeiiwoCoffee/internal/domain"
	"github.com/eltovar/DeiiwoCoffee/internal/locale"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CartHandler struct {
	timeout time.Duration
	logger  *zap.Logger
}

func NewCartHandler(timeout time.Duration, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		timeout: timeout,
		logger:  logger,
	}
}

type AddItemRequestDTO struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type UpdateQuantityRequestDTO struct {
	Delta int `json:"delta"`
}

type CartResponseDTO struct {
	Items             []domain.CartItem `json:"items"`
	Subtotal          int64             `json:"subtotal"`
	SubtotalFormatted string            `json:"subtotal_formatted"`
	ItemCount         int               `json:"item_count"`
}

type WhatsAppResponseDTO struct {
	URL string `json:"url"`
}

func cartResponse(c *cart.Store) CartResponseDTO {
	items := c.Items()
	if items == nil {
		items = []domain.CartItem{}
	}
	subtotal := domain.Subtotal(items)
	return CartResponseDTO{
		Items:             items,
		Subtotal:          subtotal,
		SubtotalFormatted: locale.FormatCOP(subtotal),
		ItemCount:         domain.ItemCount(items),
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	respondJSON(w, http.StatusOK, cartResponse(sess.Cart))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	sess := sessionFromContext(r.Context())

	var req AddItemRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := sess.Cart.AddItem(ctx, req.Name, req.Price); err != nil {
		h.handleCartError(w, sess, err)
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(sess.Cart))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	sess := sessionFromContext(r.Context())

	name, ok := itemName(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Delta == 0 {
		respondError(w, http.StatusBadRequest, "invalid_delta", "delta must not be zero")
		return
	}

	if err := sess.Cart.UpdateQuantity(ctx, name, req.Delta); err != nil {
		h.handleCartError(w, sess, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(sess.Cart))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	sess := sessionFromContext(r.Context())

	name, ok := itemName(w, r)
	if !ok {
		return
	}

	if err := sess.Cart.RemoveItem(ctx, name); err != nil {
		h.handleCartError(w, sess, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(sess.Cart))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	sess := sessionFromContext(r.Context())

	if err := sess.Cart.Clear(ctx); err != nil {
		h.handleCartError(w, sess, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(sess.Cart))
}

// WhatsAppLink returns the deep link for ordering the current cart over WhatsApp.
func (h *CartHandler) WhatsAppLink(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	if sess.Cart.IsEmpty() {
		lang := sess.Flow.Lang()
		respondError(w, http.StatusConflict, string(locale.MsgEmptyCart), locale.T(lang, locale.MsgEmptyCart))
		return
	}
	respondJSON(w, http.StatusOK, WhatsAppResponseDTO{
		URL: checkout.WhatsAppLink(sess.Cart.Items(), sess.Flow.Lang()),
	})
}

func itemName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_name", "item name is required")
		return "", false
	}
	return name, true
}

func (h *CartHandler) handleCartError(w http.ResponseWriter, sess *checkout.Session, err error) {
	switch {
	case errors.Is(err, cart.ErrEmptyName):
		respondError(w, http.StatusBadRequest, "invalid_item_name", err.Error())
	case errors.Is(err, cart.ErrInvalidPrice):
		respondError(w, http.StatusBadRequest, "invalid_price", err.Error())
	default:
		// the in-memory cart already reflects the change; only persistence failed
		h.logger.Error("cart persistence failed", zap.String("session_id", sess.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "storage_error", "cart could not be saved")
	}
}
