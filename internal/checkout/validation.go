package checkout

import (
	"strings"

	"github.com/eltovar/DeiiwoCoffee/internal/domain"
	"github.com/eltovar/DeiiwoCoffee/internal/locale"
)

// Form is what the customer fills in on the details step.
type Form struct {
	Customer      domain.Customer       `json:"customer"`
	Delivery      domain.DeliveryMethod `json:"delivery"`
	Destination   domain.Destination    `json:"destination"`
	TermsAccepted bool                  `json:"terms_accepted"`
}

func (f Form) isShipping() bool {
	return f.Delivery != domain.DeliveryPickup
}

// Validate checks required contact fields, then terms, then the address. Only the first failure is reported.
func Validate(f Form, lang locale.Lang) error {
	c := f.Customer
	if blank(c.Name) || blank(c.Email) || blank(c.Phone) {
		return newValidationError(locale.MsgMissingRequired, lang)
	}
	if !f.TermsAccepted {
		return newValidationError(locale.MsgTermsNotAccepted, lang)
	}
	if f.isShipping() && (blank(f.Destination.Address) || blank(f.Destination.City)) {
		return newValidationError(locale.MsgIncompleteAddress, lang)
	}
	return nil
}

func newValidationError(k locale.Key, lang locale.Lang) *ValidationError {
	return &ValidationError{Reason: k, Message: locale.T(lang, k)}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
