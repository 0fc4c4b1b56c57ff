package checkout

import (
	"errors"
	"fmt"

	"github.com/eltovar/DeiiwoCoffee/internal/locale"
)

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition  = errors.New("illegal transition of checkout state")
	ErrPaymentUnavailable = errors.New("payment widget could not be opened")
	ErrSessionNotFound    = errors.New("checkout session not found")
)

// ValidationError reports the first failing form rule.
type ValidationError struct {
	Reason  locale.Key
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

func illegal(from, to State) error {
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}
