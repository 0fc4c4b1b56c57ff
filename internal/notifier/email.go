package notifier

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/eltovar/DeiiwoCoffee/internal/domain"
	"github.com/eltovar/DeiiwoCoffee/internal/locale"
)

const (
	customerSenderName = "Atención al Cliente Deiiwo"
	internalSenderName = "Sistema Deiiwo"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("email").Funcs(template.FuncMap{
	"cop": locale.FormatCOP,
}).ParseFS(templateFS, "templates/*.html"))

// Message is a rendered email ready for a Mailer.
type Message struct {
	FromName string
	From     string
	To       string
	Subject  string
	HTML     string
}

type labels struct {
	Thanks       string
	Greeting     string
	OrderNumber  string
	Product      string
	Qty          string
	Price        string
	Shipping     string
	Free         string
	ShippingData string
	Address      string
	City         string
	Notes        string
	Questions    string
	Tagline      string
}

var customerLabels = map[locale.Lang]labels{
	locale.Spanish: {
		Thanks:       "¡Gracias por tu compra!",
		Greeting:     "Hola %s, tu pedido ha sido confirmado.",
		OrderNumber:  "Número de pedido",
		Product:      "Producto",
		Qty:          "Cant.",
		Price:        "Precio",
		Shipping:     "Envío",
		Free:         "GRATIS",
		ShippingData: "Datos de envío",
		Address:      "Dirección",
		City:         "Ciudad",
		Notes:        "Indicaciones",
		Questions:    "¿Tienes preguntas? Escríbenos por",
		Tagline:      "Café de Especialidad Colombiano",
	},
	locale.English: {
		Thanks:       "Thank you for your purchase!",
		Greeting:     "Hi %s, your order has been confirmed.",
		OrderNumber:  "Order number",
		Product:      "Product",
		Qty:          "Qty",
		Price:        "Price",
		Shipping:     "Shipping",
		Free:         "FREE",
		ShippingData: "Shipping details",
		Address:      "Address",
		City:         "City",
		Notes:        "Notes",
		Questions:    "Questions? Message us on",
		Tagline:      "Colombian Specialty Coffee",
	},
}

type emailView struct {
	Order         domain.PaidOrder
	L             labels
	StoreWhatsApp string
	ContactURL    string
}

// CustomerEmail renders the confirmation sent to the buyer in their language.
func CustomerEmail(o domain.PaidOrder, sender string) (Message, error) {
	lang := locale.Normalize(o.Lang)
	html, err := render("customer", emailView{
		Order:         o,
		L:             customerLabels[lang],
		StoreWhatsApp: domain.StoreWhatsApp,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		FromName: customerSenderName,
		From:     sender,
		To:       o.Customer.Email,
		Subject:  fmt.Sprintf(locale.T(lang, locale.MsgCustomerSubject), o.OrderID),
		HTML:     html,
	}, nil
}

// InternalEmail renders the operations notification. It is always Spanish.
func InternalEmail(o domain.PaidOrder, sender, to string) (Message, error) {
	html, err := render("internal", emailView{
		Order:      o,
		ContactURL: contactURL(o.Customer.Phone),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		FromName: internalSenderName,
		From:     sender,
		To:       to,
		Subject:  fmt.Sprintf(locale.T(locale.Spanish, locale.MsgInternalSubject), o.OrderID, locale.FormatCOP(o.Amount)),
		HTML:     html,
	}, nil
}

func render(name string, v emailView) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, v); err != nil {
		return "", fmt.Errorf("render %s email: %w", name, err)
	}
	return buf.String(), nil
}

// contactURL is the wa.me link for a Colombian mobile number, "" when no digits are present.
func contactURL(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if !(strings.HasPrefix(digits, "57") && len(digits) > 10) {
		digits = "57" + digits
	}
	return "https://wa.me/" + digits
}
