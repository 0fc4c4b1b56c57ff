package notifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/eltovar/DeiiwoCoffee/internal/domain"
)

const successEvent = "payment.success"

var ErrMalformedPayload = errors.New("malformed webhook payload")

// flexString accepts a JSON string, number or bool.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	*s = flexString(b)
	return nil
}

// flexAmount accepts a number, a numeric string, or an object carrying "total" / "total_amount".
type flexAmount struct {
	value int64
	set   bool
}

func (a *flexAmount) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n, ok := toAmount(v)
	if !ok {
		return nil
	}
	a.value, a.set = n, true
	return nil
}

func toAmount(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(math.Round(t)), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return int64(math.Round(f)), true
	case map[string]any:
		for _, k := range []string{"total", "total_amount"} {
			if inner, ok := t[k]; ok {
				return toAmount(inner)
			}
		}
	}
	return 0, false
}

type rawPayment struct {
	OrderID       flexString     `json:"order_id"`
	Amount        flexAmount     `json:"amount"`
	Currency      flexString     `json:"currency"`
	CustomerEmail flexString     `json:"customer_email"`
	Metadata      map[string]any `json:"metadata"`
}

type rawCallback struct {
	rawPayment
	Event  flexString  `json:"event"`
	Status flexString  `json:"status"`
	Data   *rawPayment `json:"data"`
}

// Normalize maps either callback shape (payment fields nested under "data", or flat) into one
// canonical PaymentCallback. Nested values win over flat ones.
func Normalize(body []byte) (domain.PaymentCallback, error) {
	var raw rawCallback
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.PaymentCallback{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	flat := raw.rawPayment
	nested := rawPayment{}
	if raw.Data != nil {
		nested = *raw.Data
	}

	meta := nested.Metadata
	if meta == nil {
		meta = flat.Metadata
	}
	metadata := stringifyMetadata(meta)

	amount := nested.Amount
	if !amount.set {
		amount = flat.Amount
	}

	email := firstNonEmpty(string(nested.CustomerEmail), string(flat.CustomerEmail), metadata[domain.MetaEmail])

	return domain.PaymentCallback{
		Event:         string(raw.Event),
		Status:        string(raw.Status),
		OrderID:       firstNonEmpty(string(nested.OrderID), string(flat.OrderID)),
		Amount:        amount.value,
		Currency:      firstNonEmpty(string(nested.Currency), string(flat.Currency), domain.CurrencyCOP),
		CustomerEmail: email,
		Metadata:      metadata,
	}, nil
}

// IsSuccess reports whether the callback announces a completed payment.
func IsSuccess(cb domain.PaymentCallback) bool {
	return cb.Event == successEvent || strings.EqualFold(strings.TrimSpace(cb.Status), "APPROVED")
}

func stringifyMetadata(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case nil:
		case string:
			out[k] = t
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(t)
		default:
			if b, err := json.Marshal(t); err == nil {
				out[k] = string(b)
			}
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
