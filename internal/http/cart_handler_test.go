package http

import (
	"net/http"
	"strings"
	"testing"

	"github.com/eltovar/DeiiwoCoffee/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const session = "session-test-1"

func TestSession_GeneratedWhenMissing(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/cart", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	id := rec.Header().Get(SessionIDHeader)
	assert.Regexp(t, sessionIDPattern, id)

	rec = s.do(t, http.MethodGet, "/api/v1/cart", "bad id!", nil)
	assert.NotEqual(t, "bad id!", rec.Header().Get(SessionIDHeader))
}

func TestCart_AddAndMerge(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", session, AddItemRequestDTO{Name: "Geisha 250g", Price: 25000})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, session, rec.Header().Get(SessionIDHeader))

	rec = s.do(t, http.MethodPost, "/api/v1/cart/items", session, AddItemRequestDTO{Name: "Geisha 250g", Price: 25000})
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decode[CartResponseDTO](t, rec)
	assert.Equal(t, []domain.CartItem{{Name: "Geisha 250g", Price: 25000, Quantity: 2}}, resp.Items)
	assert.Equal(t, int64(50000), resp.Subtotal)
	assert.Equal(t, "$50.000", resp.SubtotalFormatted)
	assert.Equal(t, 2, resp.ItemCount)

	// another session sees its own cart
	other := decode[CartResponseDTO](t, s.do(t, http.MethodGet, "/api/v1/cart", "session-test-2", nil))
	assert.Empty(t, other.Items)
	assert.NotNil(t, other.Items)
}

func TestCart_AddValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body any
		code string
	}{
		{"invalid json", "{", "invalid_request"},
		{"empty name", AddItemRequestDTO{Name: "  ", Price: 100}, "invalid_item_name"},
		{"negative price", AddItemRequestDTO{Name: "x", Price: -1}, "invalid_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/v1/cart/items", session, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestCart_UpdateRemoveClear(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/cart/items", session, AddItemRequestDTO{Name: "Geisha 250g", Price: 25000})
	s.do(t, http.MethodPost, "/api/v1/cart/items", session, AddItemRequestDTO{Name: "Caturra", Price: 42000})

	rec := s.do(t, http.MethodPatch, "/api/v1/cart/items/Geisha%20250g", session, UpdateQuantityRequestDTO{Delta: 2})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[CartResponseDTO](t, rec).Items[0].Quantity)

	rec = s.do(t, http.MethodPatch, "/api/v1/cart/items/Geisha%20250g", session, UpdateQuantityRequestDTO{Delta: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/v1/cart/items/Geisha%20250g", session, UpdateQuantityRequestDTO{Delta: -3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []domain.CartItem{{Name: "Caturra", Price: 42000, Quantity: 1}}, decode[CartResponseDTO](t, rec).Items)

	rec = s.do(t, http.MethodDelete, "/api/v1/cart/items/Caturra", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[CartResponseDTO](t, rec).Items)

	s.do(t, http.MethodPost, "/api/v1/cart/items", session, AddItemRequestDTO{Name: "Caturra", Price: 42000})
	rec = s.do(t, http.MethodDelete, "/api/v1/cart", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[CartResponseDTO](t, rec).Subtotal)
}

func TestCart_WhatsApp(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/cart/whatsapp", session, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Tu carrito está vacío", decode[ErrorResponse](t, rec).Error)

	s.do(t, http.MethodPost, "/api/v1/cart/items", session, AddItemRequestDTO{Name: "Geisha 250g", Price: 25000})
	rec = s.do(t, http.MethodGet, "/api/v1/cart/whatsapp", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	url := decode[WhatsAppResponseDTO](t, rec).URL
	assert.True(t, strings.HasPrefix(url, "https://wa.me/573022199112?text="), url)
	assert.Contains(t, url, "Geisha%20250g")
}

func TestPreferences_Language(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, "es", decode[LanguageDTO](t, s.do(t, http.MethodGet, "/api/v1/preferences/language", session, nil)).Lang)

	rec := s.do(t, http.MethodPut, "/api/v1/preferences/language", session, LanguageDTO{Lang: "EN"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "en", decode[LanguageDTO](t, rec).Lang)
	assert.Equal(t, "en", decode[LanguageDTO](t, s.do(t, http.MethodGet, "/api/v1/preferences/language", session, nil)).Lang)

	rec = s.do(t, http.MethodPut, "/api/v1/preferences/language", session, LanguageDTO{Lang: "toggle"})
	assert.Equal(t, "es", decode[LanguageDTO](t, rec).Lang)

	rec = s.do(t, http.MethodPut, "/api/v1/preferences/language", session, LanguageDTO{Lang: "fr"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unsupported_language", decode[ErrorResponse](t, rec).Code)
}
