package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const linkRequestSchema = `{
  "type": "object",
  "properties": {
    "amount": {"type": ["number", "string"]},
    "description": {"type": "string", "maxLength": 255},
    "orderId": {"type": "string", "maxLength": 64},
    "customer_email": {"type": "string"},
    "metadata": {"type": "object"}
  },
  "required": ["amount"]
}`

var (
	linkRequestLoader = gojsonschema.NewStringLoader(linkRequestSchema)

	ErrMissingEmail = errors.New("customer email is required")
)

// LinkRequest is the storefront's request for a hosted payment link.
type LinkRequest struct {
	Amount        string         `json:"amount"`
	Description   string         `json:"description"`
	OrderID       string         `json:"orderId"`
	CustomerEmail string         `json:"customer_email"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// ParseLinkRequest checks body against the request schema and decodes it.
func ParseLinkRequest(body []byte) (LinkRequest, error) {
	if err := validateJSONSchema(linkRequestLoader, body); err != nil {
		return LinkRequest{}, err
	}

	var raw struct {
		Amount        any            `json:"amount"`
		Description   string         `json:"description"`
		OrderID       string         `json:"orderId"`
		CustomerEmail string         `json:"customer_email"`
		Metadata      map[string]any `json:"metadata"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return LinkRequest{}, fmt.Errorf("decode request: %w", err)
	}

	return LinkRequest{
		Amount:        fmt.Sprint(raw.Amount),
		Description:   raw.Description,
		OrderID:       raw.OrderID,
		CustomerEmail: strings.TrimSpace(raw.CustomerEmail),
		Metadata:      raw.Metadata,
	}, nil
}

// WholeAmount floors the requested amount; the provider only accepts integers above zero.
func (r LinkRequest) WholeAmount() (int64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(r.Amount), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidAmount
	}
	n := int64(math.Floor(f))
	if n <= 0 {
		return 0, ErrInvalidAmount
	}
	return n, nil
}

func (r LinkRequest) Validate() (int64, error) {
	amount, err := r.WholeAmount()
	if err != nil {
		return 0, err
	}
	if r.CustomerEmail == "" {
		return 0, ErrMissingEmail
	}
	return amount, nil
}

func validateJSONSchema(schemaLoader gojsonschema.JSONLoader, body []byte) error {
	loader := gojsonschema.NewBytesLoader(body)
	result, err := gojsonschema.Validate(schemaLoader, loader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var sb strings.Builder
		for _, e := range result.Errors() {
			sb.WriteString(e.String())
			sb.WriteString("; ")
		}
		return fmt.Errorf("request does not conform to schema: %s", sb.String())
	}
	return nil
}
