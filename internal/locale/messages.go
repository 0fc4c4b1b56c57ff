package locale

// Key identifies a user-facing message.
type Key string

const (
	MsgMissingRequired    Key = "missing_required_fields"
	MsgTermsNotAccepted   Key = "terms_not_accepted"
	MsgIncompleteAddress  Key = "incomplete_address"
	MsgEmptyCart          Key = "empty_cart"
	MsgPaymentUnavailable Key = "payment_unavailable"
	MsgUnloadWarning      Key = "unload_warning"
	MsgSelectCity         Key = "select_city"
	MsgEnterAddress       Key = "enter_address"
	MsgFreeShipping       Key = "free_shipping"
	MsgPickup             Key = "pickup"
	MsgNationalShipping   Key = "national_shipping"
	MsgDefaultCustomer    Key = "default_customer"
	MsgNotSpecified       Key = "not_specified"
	MsgPickupAddress      Key = "pickup_address"
	MsgWhatsAppGreeting   Key = "whatsapp_greeting"
	MsgDeliveryNote       Key = "delivery_note"
	MsgOrderDescription   Key = "order_description"
	MsgCustomerSubject    Key = "customer_subject"
	MsgInternalSubject    Key = "internal_subject"
)

var catalog = map[Lang]map[Key]string{
	Spanish: {
		MsgMissingRequired:    "Por favor completa todos los campos obligatorios",
		MsgTermsNotAccepted:   "Debes aceptar los términos y condiciones",
		MsgIncompleteAddress:  "Por favor completa la dirección de envío",
		MsgEmptyCart:          "Tu carrito está vacío",
		MsgPaymentUnavailable: "No pudimos iniciar el pago. Intenta de nuevo en unos minutos",
		MsgUnloadWarning:      "Tienes un pago en curso. ¿Seguro que quieres salir?",
		MsgSelectCity:         "Selecciona una ciudad",
		MsgEnterAddress:       "Ingresa la dirección completa",
		MsgFreeShipping:       "¡Envío gratis!",
		MsgPickup:             "Retiro en tienda",
		MsgNationalShipping:   "Envío nacional",
		MsgDefaultCustomer:    "Cliente",
		MsgNotSpecified:       "No especificada",
		MsgPickupAddress:      "Retiro en tienda",
		MsgWhatsAppGreeting:   "Hola Deiiwo Coffee!\n\nQuiero hacer un pedido:\n\n",
		MsgDeliveryNote:       "Quedo atento al valor del domicilio. Gracias!",
		MsgOrderDescription:   "Pedido Deiiwo Coffee - %d productos",
		MsgCustomerSubject:    "¡Pedido confirmado! #%s",
		MsgInternalSubject:    "Pedido Pagado: %s - %s",
	},
	English: {
		MsgMissingRequired:    "Please complete all required fields",
		MsgTermsNotAccepted:   "You must accept the terms and conditions",
		MsgIncompleteAddress:  "Please complete the shipping address",
		MsgEmptyCart:          "Your cart is empty",
		MsgPaymentUnavailable: "We could not start the payment. Please try again in a few minutes",
		MsgUnloadWarning:      "A payment is in progress. Are you sure you want to leave?",
		MsgSelectCity:         "Select a city",
		MsgEnterAddress:       "Enter the full address",
		MsgFreeShipping:       "Free shipping!",
		MsgPickup:             "Store pickup",
		MsgNationalShipping:   "National shipping",
		MsgDefaultCustomer:    "Customer",
		MsgNotSpecified:       "not specified",
		MsgPickupAddress:      "Store pickup",
		MsgWhatsAppGreeting:   "Hello Deiiwo Coffee!\n\nI want to place an order:\n\n",
		MsgDeliveryNote:       "I await the delivery cost. Thanks!",
		MsgOrderDescription:   "Deiiwo Coffee order - %d products",
		MsgCustomerSubject:    "Order confirmed! #%s",
		MsgInternalSubject:    "Order Paid: %s - %s",
	},
}

// T looks up a message, falling back to Spanish and then to the key itself.
func T(l Lang, k Key) string {
	if m, ok := catalog[l][k]; ok {
		return m
	}
	if m, ok := catalog[Default][k]; ok {
		return m
	}
	return string(k)
}
