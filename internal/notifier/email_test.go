package notifier

import (
	"testing"

	"github.com/eltovar/DeiiwoCoffee/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder() domain.PaidOrder {
	return domain.PaidOrder{
		OrderID:  "DC-1700000000000-abc123xyz",
		Amount:   51000,
		Currency: "COP",
		Items: []domain.CartItem{
			{Name: "Geisha 250g", Price: 25000, Quantity: 2},
		},
		Customer: domain.Customer{Name: "Ana", Email: "ana@example.com", Phone: "300 123 4567"},
		Shipping: domain.ShippingDetails{Address: "Calle 10 #20-30", City: "Medellín", Cost: 1000, Notes: "Apto 301"},
		Lang:     "es",
		PaidAt:   paidAt,
	}
}

func TestCustomerEmail(t *testing.T) {
	msg, err := CustomerEmail(sampleOrder(), "pedidos@deiiwo.co")
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", msg.To)
	assert.Equal(t, "pedidos@deiiwo.co", msg.From)
	assert.Equal(t, "Atención al Cliente Deiiwo", msg.FromName)
	assert.Equal(t, "¡Pedido confirmado! #DC-1700000000000-abc123xyz", msg.Subject)
	assert.Contains(t, msg.HTML, "Hola Ana, tu pedido ha sido confirmado.")
	assert.Contains(t, msg.HTML, "Geisha 250g")
	assert.Contains(t, msg.HTML, "$50.000")
	assert.Contains(t, msg.HTML, "Envío (Medellín)")
	assert.Contains(t, msg.HTML, "$1.000")
	assert.Contains(t, msg.HTML, "$51.000 COP")
	assert.Contains(t, msg.HTML, "Apto 301")
	assert.Contains(t, msg.HTML, "wa.me/573022199112")
	assert.NotContains(t, msg.HTML, "GRATIS")
}

func TestCustomerEmail_FreeShippingAndEnglish(t *testing.T) {
	o := sampleOrder()
	o.Shipping.Cost = 0
	o.Lang = "en"

	msg, err := CustomerEmail(o, "pedidos@deiiwo.co")
	require.NoError(t, err)

	assert.Equal(t, "Order confirmed! #DC-1700000000000-abc123xyz", msg.Subject)
	assert.Contains(t, msg.HTML, "Thank you for your purchase!")
	assert.Contains(t, msg.HTML, "FREE")
}

func TestCustomerEmail_NoItems(t *testing.T) {
	o := sampleOrder()
	o.Items = nil
	o.Shipping.Notes = ""

	msg, err := CustomerEmail(o, "pedidos@deiiwo.co")
	require.NoError(t, err)

	assert.Contains(t, msg.HTML, "Total:</strong> $51.000 COP")
	assert.NotContains(t, msg.HTML, "Indicaciones")
}

func TestCustomerEmail_EscapesMetadata(t *testing.T) {
	o := sampleOrder()
	o.Customer.Name = `<script>alert("x")</script>`
	o.Items[0].Name = "<b>Bold</b>"

	msg, err := CustomerEmail(o, "pedidos@deiiwo.co")
	require.NoError(t, err)

	assert.NotContains(t, msg.HTML, "<script>")
	assert.NotContains(t, msg.HTML, "<b>Bold</b>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
}

func TestInternalEmail(t *testing.T) {
	msg, err := InternalEmail(sampleOrder(), "pedidos@deiiwo.co", "ops@deiiwo.co")
	require.NoError(t, err)

	assert.Equal(t, "ops@deiiwo.co", msg.To)
	assert.Equal(t, "Sistema Deiiwo", msg.FromName)
	assert.Equal(t, "Pedido Pagado: DC-1700000000000-abc123xyz - $51.000", msg.Subject)
	assert.Contains(t, msg.HTML, "Nuevo Pedido #DC-1700000000000-abc123xyz")
	assert.Contains(t, msg.HTML, "mailto:ana@example.com")
	assert.Contains(t, msg.HTML, "https://wa.me/573001234567")
	assert.Contains(t, msg.HTML, "• Geisha 250g x2 - $50.000")
	assert.Contains(t, msg.HTML, "Domicilio")
	assert.Contains(t, msg.HTML, "TOTAL DEL PEDIDO")
}

func TestInternalEmail_PickupWithoutItems(t *testing.T) {
	o := sampleOrder()
	o.Items = nil
	o.Pickup = true
	o.Shipping = domain.ShippingDetails{Address: "Retiro en tienda", City: "Envigado"}
	o.Customer.Phone = ""

	msg, err := InternalEmail(o, "pedidos@deiiwo.co", "ops@deiiwo.co")
	require.NoError(t, err)

	assert.Contains(t, msg.HTML, "RETIRO EN TIENDA")
	assert.Contains(t, msg.HTML, "Sin detalles de productos")
	assert.Contains(t, msg.HTML, "GRATIS")
	assert.NotContains(t, msg.HTML, "wa.me")
}

func TestContactURL(t *testing.T) {
	assert.Equal(t, "https://wa.me/573001234567", contactURL("300-123-4567"))
	assert.Equal(t, "https://wa.me/573001234567", contactURL("+57 300 123 4567"))
	assert.Empty(t, contactURL("n/a"))
}
