package notifier

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "bold-signature"

var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrInvalidSignature = errors.New("webhook signature mismatch")
)

func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares the header against the HMAC of the exact body bytes in constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// SignaturePolicy decides whether a request is authentic enough to process.
type SignaturePolicy struct {
	Secret   string
	Required bool
}

// Check returns ErrMissingSignature when a required signature is absent and ErrInvalidSignature
// when a present signature does not verify.
func (p SignaturePolicy) Check(body []byte, signature string) error {
	if strings.TrimSpace(signature) == "" {
		if p.Required {
			return ErrMissingSignature
		}
		return nil
	}
	if !VerifySignature(p.Secret, body, signature) {
		return ErrInvalidSignature
	}
	return nil
}
