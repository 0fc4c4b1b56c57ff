package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/eltovar/DeiiwoCoffee/internal/domain"
	"github.com/eltovar/DeiiwoCoffee/internal/locale"
)

const WhatsAppNumber = domain.StoreWhatsApp

// WhatsAppLink builds the wa.me deep link with the cart summary prefilled.
func WhatsAppLink(items []domain.CartItem, lang locale.Lang) string {
	var b strings.Builder
	b.WriteString(locale.T(lang, locale.MsgWhatsAppGreeting))
	for _, it := range items {
		fmt.Fprintf(&b, "• %s x%d - %s\n", it.Name, it.Quantity, locale.FormatCOP(it.Total()))
	}
	b.WriteString("\n")
	b.WriteString(locale.T(lang, locale.MsgDeliveryNote))

	// %20 rather than "+" so the prefilled text keeps its spaces
	return "https://wa.me/" + WhatsAppNumber + "?text=" + strings.ReplaceAll(url.QueryEscape(b.String()), "+", "%20")
}
