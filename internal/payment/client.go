package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	DefaultLinkURL = "https://integrations.api.bold.co/online/link/v1"

	// AmountTypeFixed is the provider's wire value for a link with a fixed amount.
	AmountTypeFixed = "CLOSE"
	Currency        = "COP"

	DefaultDescription = "Compra en Deiiwo Coffee"
)

var (
	ErrNotConfigured  = errors.New("payment provider key is not configured")
	ErrNoConnectivity = errors.New("no connectivity with payment provider")
	ErrMissingURL     = errors.New("payment provider returned no payment url")
	ErrInvalidAmount  = errors.New("amount must be a positive integer")
)

// ProviderError is a non-2xx answer from the payment provider.
type ProviderError struct {
	StatusCode int
	Detail     string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider rejected request (%d): %s", e.StatusCode, e.Detail)
}

type linkPayload struct {
	AmountType  string     `json:"amount_type"`
	Amount      linkAmount `json:"amount"`
	Description string     `json:"description"`
}

type linkAmount struct {
	Currency    string `json:"currency"`
	TotalAmount int64  `json:"total_amount"`
}

type linkResponse struct {
	Payload struct {
		URL         string `json:"url"`
		PaymentLink string `json:"payment_link"`
	} `json:"payload"`
	Errors []any `json:"errors,omitempty"`
}

// Link is a created payment link.
type Link struct {
	URL           string `json:"url"`
	PaymentLinkID string `json:"paymentLinkId"`
}

// Client creates hosted payment links with the provider's API.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	cb       *gobreaker.CircuitBreaker[Link]
	logger   *zap.Logger
}

type Option func(*Client)

func WithEndpoint(u string) Option {
	return func(c *Client) { c.endpoint = u }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(apiKey string, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		endpoint: DefaultLinkURL,
		apiKey:   strings.TrimSpace(apiKey),
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cb = gobreaker.NewCircuitBreaker[Link](gobreaker.Settings{
		Name:        "payment-links",
		MaxRequests: 1,
		Timeout:     20 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// a rejected request says nothing about provider health
		IsSuccessful: func(err error) bool {
			var pe *ProviderError
			if errors.As(err, &pe) {
				return pe.StatusCode < 500
			}
			return err == nil || errors.Is(err, ErrMissingURL)
		},
	})
	return c
}

func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// CreateLink asks the provider for a fixed-amount payment link.
func (c *Client) CreateLink(ctx context.Context, amount int64, description string) (Link, error) {
	if !c.Configured() {
		return Link{}, ErrNotConfigured
	}
	if amount <= 0 {
		return Link{}, ErrInvalidAmount
	}
	if strings.TrimSpace(description) == "" {
		description = DefaultDescription
	}

	link, err := c.cb.Execute(func() (Link, error) {
		return c.createLink(ctx, linkPayload{
			AmountType:  AmountTypeFixed,
			Amount:      linkAmount{Currency: Currency, TotalAmount: amount},
			Description: description,
		})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Link{}, fmt.Errorf("%w: %w", ErrNoConnectivity, err)
	}
	return link, err
}

func (c *Client) createLink(ctx context.Context, payload linkPayload) (Link, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Link{}, fmt.Errorf("marshal link payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Link{}, fmt.Errorf("build link request: %w", err)
	}
	req.Header.Set("Authorization", "x-api-key "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isConnectivity(err) {
			return Link{}, fmt.Errorf("%w: %w", ErrNoConnectivity, err)
		}
		return Link{}, fmt.Errorf("send link request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Link{}, fmt.Errorf("read link response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Link{}, &ProviderError{StatusCode: resp.StatusCode, Detail: providerDetail(raw)}
	}

	var out linkResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Link{}, fmt.Errorf("decode link response: %w", err)
	}
	if out.Payload.URL == "" {
		return Link{}, ErrMissingURL
	}

	c.logger.Info("payment link created", zap.String("payment_link", out.Payload.PaymentLink))
	return Link{URL: out.Payload.URL, PaymentLinkID: out.Payload.PaymentLink}, nil
}

// providerDetail prefers the provider's message, then its error field, then the raw body.
func providerDetail(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		switch e := body.Error.(type) {
		case string:
			if e != "" {
				return e
			}
		case nil:
		default:
			if b, err := json.Marshal(e); err == nil {
				return string(b)
			}
		}
	}
	return strings.TrimSpace(string(raw))
}

// isConnectivity reports whether the request never reached the provider.
func isConnectivity(err error) bool {
	var netErr net.Error
	var urlErr *url.Error
	var opErr *net.OpError
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &dnsErr), errors.As(err, &opErr):
		return true
	case errors.As(err, &netErr) && netErr.Timeout():
		return true
	case errors.As(err, &urlErr):
		return !errors.Is(err, context.Canceled)
	}
	return false
}
