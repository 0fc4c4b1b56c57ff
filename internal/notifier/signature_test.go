package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"payment.success","data":{"order_id":"DC-1"}}`)
	sig := Sign("s3cret", body)

	assert.True(t, VerifySignature("s3cret", body, sig))
	assert.True(t, VerifySignature("s3cret", body, "  "+sig+"\n"))
	assert.False(t, VerifySignature("other", body, sig))
	assert.False(t, VerifySignature("s3cret", append(body, ' '), sig))
	assert.False(t, VerifySignature("s3cret", body, "not-hex"))
	assert.False(t, VerifySignature("", body, sig))
}

func TestSignaturePolicy(t *testing.T) {
	body := []byte(`{}`)
	valid := Sign("k", body)

	tests := []struct {
		name   string
		policy SignaturePolicy
		header string
		want   error
	}{
		{"valid", SignaturePolicy{Secret: "k", Required: true}, valid, nil},
		{"missing required", SignaturePolicy{Secret: "k", Required: true}, "", ErrMissingSignature},
		{"missing optional", SignaturePolicy{Secret: "k"}, "", nil},
		{"mismatch", SignaturePolicy{Secret: "k"}, Sign("x", body), ErrInvalidSignature},
		{"no secret configured", SignaturePolicy{Required: true}, valid, ErrInvalidSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.policy.Check(body, tt.header), tt.want)
		})
	}
}
