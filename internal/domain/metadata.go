package domain

import "strings"

// CurrencyCOP is the only currency the storefront charges in.
const CurrencyCOP = "COP"

// Metadata keys the storefront attaches to a payment and the provider echoes back on its callback.
const (
	MetaItems        = "items"
	MetaSubtotal     = "subtotal"
	MetaShipping     = "envio"
	MetaCustomerName = "cliente_nombre"
	MetaEmail        = "cliente_email"
	MetaPhone        = "cliente_telefono"
	MetaAddress      = "direccion"
	MetaCity         = "ciudad"
	MetaNotes        = "indicaciones"
	MetaLang         = "idioma"
	MetaDelivery     = "metodo_entrega"

	// sent by older storefront builds
	MetaAltAddress  = "direccion_entrega"
	MetaAltShipping = "valor_domicilio"
)

// CityNames maps storefront city codes to display names.
var CityNames = map[string]string{
	"medellin":    "Medellín",
	"envigado":    "Envigado",
	"sabaneta":    "Sabaneta",
	"itagui":      "Itagüí",
	"bello":       "Bello",
	"copacabana":  "Copacabana",
	"la_estrella": "La Estrella",
	"caldas":      "Caldas",
}

// NormalizeCity lowercases a city identifier; the storefront sends snake_case codes.
func NormalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// CityName returns the display name for a city code, or the code itself when unknown.
func CityName(code string) string {
	if name, ok := CityNames[NormalizeCity(code)]; ok {
		return name
	}
	return code
}

// StoreWhatsApp is the store's WhatsApp number in international format.
const StoreWhatsApp = "573022199112"
