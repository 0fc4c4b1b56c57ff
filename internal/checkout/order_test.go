package checkout

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/eltovar/DeiiwoCoffee/internal/domain"
	"github.com/eltovar/DeiiwoCoffee/internal/locale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderIDPattern = regexp.MustCompile(`^DC-\d{13}-[0-9a-z]{9}$`)

func TestNewOrderID(t *testing.T) {
	now := time.UnixMilli(1760000000000)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id := NewOrderID(now)
		assert.Regexp(t, orderIDPattern, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestBuildWidgetConfig_Shipping(t *testing.T) {
	items := []domain.CartItem{
		{Name: "Caturra 500g", Price: 42000, Quantity: 2},
		{Name: "Geisha 250g", Price: 65000, Quantity: 1},
	}
	form := validForm()
	form.Destination.Notes = "Portería 2"
	quote := domain.ShippingQuote{Cost: 15000, Basis: domain.BasisDistanceTable}
	d := NewDraft(items, quote, form, locale.English, time.Now())

	cfg, err := BuildWidgetConfig(d, "https://deiiwo.co/", "pub-key")
	require.NoError(t, err)

	assert.Equal(t, d.OrderID, cfg.OrderID)
	assert.Equal(t, "COP", cfg.Currency)
	assert.Equal(t, int64(164000), cfg.Amount)
	assert.Equal(t, "pub-key", cfg.APIKey)
	assert.Equal(t, "Pedido Deiiwo Coffee - 3 productos", cfg.Description)
	assert.Equal(t, "https://deiiwo.co/confirmacion.html", cfg.RedirectionURL)
	assert.Zero(t, cfg.Tax)

	m := cfg.Metadata
	assert.Equal(t, "149000", m[domain.MetaSubtotal])
	assert.Equal(t, "15000", m[domain.MetaShipping])
	assert.Equal(t, "Ana Gómez", m[domain.MetaCustomerName])
	assert.Equal(t, "ana@example.com", m[domain.MetaEmail])
	assert.Equal(t, "300 123 4567", m[domain.MetaPhone])
	assert.Equal(t, "Calle 10 #43-12", m[domain.MetaAddress])
	assert.Equal(t, "medellin", m[domain.MetaCity])
	assert.Equal(t, "Portería 2", m[domain.MetaNotes])
	assert.Equal(t, "en", m[domain.MetaLang])

	var decoded []domain.CartItem
	require.NoError(t, json.Unmarshal([]byte(m[domain.MetaItems]), &decoded))
	assert.Equal(t, items, decoded)
}

func TestBuildWidgetConfig_Pickup(t *testing.T) {
	form := validForm()
	form.Delivery = domain.DeliveryPickup
	form.Destination = domain.Destination{}
	d := NewDraft([]domain.CartItem{{Name: "A", Price: 1000, Quantity: 1}},
		domain.ShippingQuote{Basis: domain.BasisPickup}, form, locale.Spanish, time.Now())

	cfg, err := BuildWidgetConfig(d, "http://localhost:3000", "")
	require.NoError(t, err)
	assert.Equal(t, "Retiro en tienda", cfg.Metadata[domain.MetaAddress])
	assert.Equal(t, "envigado", cfg.Metadata[domain.MetaCity])
	assert.Equal(t, "0", cfg.Metadata[domain.MetaShipping])
	assert.Equal(t, "pickup", cfg.Metadata[domain.MetaDelivery])
	assert.Equal(t, int64(1000), cfg.Amount)
}

func TestNewDraft_SnapshotIsIndependent(t *testing.T) {
	items := []domain.CartItem{{Name: "A", Price: 1000, Quantity: 1}}
	d := NewDraft(items, domain.ShippingQuote{}, validForm(), locale.Spanish, time.Now())
	items[0].Quantity = 99
	assert.Equal(t, 1, d.Items[0].Quantity)
}
