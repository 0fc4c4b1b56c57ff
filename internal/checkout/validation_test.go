package checkout

import (
	"errors"
	"testing"

	"github.com/eltovar/DeiiwoCoffee/internal/domain"
	"github.com/eltovar/DeiiwoCoffee/internal/locale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() Form {
	return Form{
		Customer:      domain.Customer{Name: "Ana Gómez", Email: "ana@example.com", Phone: "300 123 4567"},
		Delivery:      domain.DeliveryShipping,
		Destination:   domain.Destination{Department: "antioquia", City: "medellin", Address: "Calle 10 #43-12"},
		TermsAccepted: true,
	}
}

func reasonOf(t *testing.T, err error) locale.Key {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	return ve.Reason
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, Validate(validForm(), locale.Spanish))

	pickup := validForm()
	pickup.Delivery = domain.DeliveryPickup
	pickup.Destination = domain.Destination{}
	assert.NoError(t, Validate(pickup, locale.Spanish))
}

func TestValidate_RequiredFieldsFirst(t *testing.T) {
	for _, blankField := range []func(*Form){
		func(f *Form) { f.Customer.Name = "  " },
		func(f *Form) { f.Customer.Email = "" },
		func(f *Form) { f.Customer.Phone = "\t" },
	} {
		f := validForm()
		blankField(&f)
		// terms rejected and address missing too: required fields still win
		f.TermsAccepted = false
		f.Destination.Address = ""
		assert.Equal(t, locale.MsgMissingRequired, reasonOf(t, Validate(f, locale.Spanish)))
	}
}

func TestValidate_TermsBeforeAddress(t *testing.T) {
	f := validForm()
	f.TermsAccepted = false
	f.Destination.Address = ""
	assert.Equal(t, locale.MsgTermsNotAccepted, reasonOf(t, Validate(f, locale.English)))
}

func TestValidate_Address(t *testing.T) {
	f := validForm()
	f.Destination.City = ""
	err := Validate(f, locale.English)
	assert.Equal(t, locale.MsgIncompleteAddress, reasonOf(t, err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Please complete the shipping address", ve.Message)
}
