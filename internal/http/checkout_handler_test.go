package http

import (
	"errors"
	"net/http"
	"testing"

	"github.com/eltovar/DeiiwoCoffee/internal/checkout"
	"github.com/eltovar/DeiiwoCoffee/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func validDetails() DetailsRequestDTO {
	return DetailsRequestDTO{
		Customer:      &domain.Customer{Name: "Ana", Email: "ana@example.com", Phone: "3001234567"},
		Delivery:      ptr("envio"),
		Destination:   &domain.Destination{City: "medellin", Address: "Calle 10 #20-30", Notes: "Apto 301"},
		TermsAccepted: ptr(true),
	}
}

func TestShippingQuote(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		req   QuoteRequestDTO
		basis domain.Basis
		cost  int64
		label string
	}{
		{"pickup", QuoteRequestDTO{Delivery: "retiro"}, domain.BasisPickup, 0, "Retiro en tienda"},
		{"no city", QuoteRequestDTO{}, domain.BasisPending, 0, "Selecciona una ciudad"},
		{"short address", QuoteRequestDTO{City: "medellin", Address: "abc"}, domain.BasisPending, 0, "Ingresa la dirección completa"},
		{"national", QuoteRequestDTO{City: "bogota"}, domain.BasisZoneFixed, 30000, "Envío nacional: $30.000"},
		{"free", QuoteRequestDTO{City: "medellin", Subtotal: ptr(int64(100000))}, domain.BasisFreeThreshold, 0, "¡Envío gratis!"},
		{"table", QuoteRequestDTO{City: "medellin", Address: "Calle 10 #20-30"}, domain.BasisDistanceTable, 15000, "$15.000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/v1/shipping/quote", session, tt.req)
			require.Equal(t, http.StatusOK, rec.Code)
			resp := decode[QuoteResponseDTO](t, rec)
			assert.Equal(t, tt.basis, resp.Basis)
			assert.Equal(t, tt.cost, resp.Cost)
			assert.Equal(t, tt.label, resp.Label)
		})
	}
}

func TestShippingQuote_UsesCartSubtotal(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/cart/items", session, AddItemRequestDTO{Name: "Lote Especial", Price: 120000})

	resp := decode[QuoteResponseDTO](t, s.do(t, http.MethodPost, "/api/v1/shipping/quote", session, QuoteRequestDTO{City: "envigado"}))
	assert.Equal(t, domain.BasisFreeThreshold, resp.Basis)
}

func TestShippingQuote_BadInput(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/shipping/quote", session, QuoteRequestDTO{Delivery: "drone"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/shipping/quote", session, QuoteRequestDTO{City: "medellin", Subtotal: ptr(int64(-1))})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_OpenEmptyCart(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/checkout/open", session, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "empty_cart", decode[ErrorResponse](t, rec).Code)
}

func TestCheckout_FullFlow(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/cart/items", session, AddItemRequestDTO{Name: "Geisha 250g", Price: 25000})

	rec := s.do(t, http.MethodPost, "/api/v1/checkout/open", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "REVIEW", decode[CheckoutStateDTO](t, rec).State)

	rec = s.do(t, http.MethodPost, "/api/v1/checkout/next", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DETAILS", decode[CheckoutStateDTO](t, rec).State)

	rec = s.do(t, http.MethodPost, "/api/v1/checkout/next", session, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	verr := decode[ErrorResponse](t, rec)
	assert.Equal(t, "missing_required_fields", verr.Code)
	assert.Equal(t, "Por favor completa todos los campos obligatorios", verr.Error)

	rec = s.do(t, http.MethodPut, "/api/v1/checkout/details", session, validDetails())
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[CheckoutStateDTO](t, rec)
	assert.Equal(t, domain.DeliveryShipping, state.Form.Delivery)
	assert.Equal(t, domain.BasisDistanceTable, state.Quote.Basis)
	assert.Equal(t, int64(40000), state.Total)

	rec = s.do(t, http.MethodPost, "/api/v1/checkout/next", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "READY_TO_PAY", decode[CheckoutStateDTO](t, rec).State)

	rec = s.do(t, http.MethodPost, "/api/v1/checkout/pay", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cfg := decode[checkout.WidgetConfig](t, rec)
	assert.Regexp(t, `^DC-\d+-[0-9a-z]{9}$`, cfg.OrderID)
	assert.Equal(t, int64(40000), cfg.Amount)
	assert.Equal(t, "COP", cfg.Currency)
	assert.Equal(t, "pub-key", cfg.APIKey)
	assert.Equal(t, "https://deiiwo.co/confirmacion.html", cfg.RedirectionURL)
	assert.Equal(t, "15000", cfg.Metadata["envio"])
	assert.Equal(t, "medellin", cfg.Metadata["ciudad"])
	assert.Equal(t, cfg.OrderID, s.widget.last.OrderID)

	rec = s.do(t, http.MethodGet, "/api/v1/checkout", session, nil)
	state = decode[CheckoutStateDTO](t, rec)
	assert.Equal(t, "HANDED_OFF", state.State)
	assert.True(t, state.InProgress)
	assert.Equal(t, "Tienes un pago en curso. ¿Seguro que quieres salir?", state.UnloadWarning)

	rec = s.do(t, http.MethodPost, "/api/v1/checkout/close", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state = decode[CheckoutStateDTO](t, rec)
	assert.Equal(t, "DORMANT", state.State)
	assert.False(t, state.InProgress)
}

func TestCheckout_WidgetFailure(t *testing.T) {
	s := newTestServer(t)
	s.widget.err = errors.New("script blocked")
	s.do(t, http.MethodPost, "/api/v1/cart/items", session, AddItemRequestDTO{Name: "Geisha 250g", Price: 25000})
	s.do(t, http.MethodPost, "/api/v1/checkout/open", session, nil)
	s.do(t, http.MethodPost, "/api/v1/checkout/next", session, nil)
	s.do(t, http.MethodPut, "/api/v1/checkout/details", session, validDetails())
	s.do(t, http.MethodPost, "/api/v1/checkout/next", session, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/checkout/pay", session, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "payment_unavailable", decode[ErrorResponse](t, rec).Code)

	state := decode[CheckoutStateDTO](t, s.do(t, http.MethodGet, "/api/v1/checkout", session, nil))
	assert.Equal(t, "READY_TO_PAY", state.State)
	assert.False(t, state.InProgress)
}

func TestCheckout_IllegalTransitions(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/checkout/back", session, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "illegal_transition", decode[ErrorResponse](t, rec).Code)

	rec = s.do(t, http.MethodPost, "/api/v1/checkout/pay", session, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCheckout_DetailsValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/v1/checkout/details", session, DetailsRequestDTO{Delivery: ptr("teleport")})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/checkout/details", session, "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_PickupNeedsNoAddress(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/cart/items", session, AddItemRequestDTO{Name: "Geisha 250g", Price: 25000})
	s.do(t, http.MethodPost, "/api/v1/checkout/open", session, nil)
	s.do(t, http.MethodPost, "/api/v1/checkout/next", session, nil)

	details := validDetails()
	details.Delivery = ptr("retiro")
	details.Destination = &domain.Destination{}
	rec := s.do(t, http.MethodPut, "/api/v1/checkout/details", session, details)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Retiro en tienda", decode[CheckoutStateDTO](t, rec).Quote.Label)

	rec = s.do(t, http.MethodPost, "/api/v1/checkout/next", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cfg := decode[checkout.WidgetConfig](t, s.do(t, http.MethodPost, "/api/v1/checkout/pay", session, nil))
	assert.Equal(t, int64(25000), cfg.Amount)
	assert.Equal(t, "Retiro en tienda", cfg.Metadata["direccion"])
}
