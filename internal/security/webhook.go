package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingSignatureHeaders = errors.New("missing webhook signature headers")
	ErrInvalidSignature        = errors.New("webhook signature mismatch")
	ErrStaleTimestamp          = errors.New("webhook timestamp outside tolerance")
)

// WebhookVerifier checks signed webhook deliveries from the identity
// provider. The provider signs "{id}.{timestamp}.{payload}" with
// HMAC-SHA256 and sends one or more base64 signatures in the
// webhook-signature header, each prefixed with a version tag.
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration
}

// NewWebhookVerifier accepts the signing secret as issued by the
// provider, with or without the "whsec_" prefix.
func NewWebhookVerifier(secret string, tolerance time.Duration) (*WebhookVerifier, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, "whsec_"))
	if err != nil {
		return nil, fmt.Errorf("decode webhook secret: %w", err)
	}
	return &WebhookVerifier{secret: raw, tolerance: tolerance}, nil
}

// Verify validates the delivery identified by msgID against its
// signature header. timestamp is the webhook-timestamp header value
// (unix seconds).
func (v *WebhookVerifier) Verify(msgID, timestamp, signatureHeader string, payload []byte) error {
	if msgID == "" || timestamp == "" || signatureHeader == "" {
		return ErrMissingSignatureHeaders
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrMissingSignatureHeaders
	}
	age := time.Since(time.Unix(ts, 0))
	if age > v.tolerance || age < -v.tolerance {
		return ErrStaleTimestamp
	}

	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%s.%s.", msgID, timestamp)
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, part := range strings.Fields(signatureHeader) {
		version, sig, found := strings.Cut(part, ",")
		if !found || version != "v1" {
			continue
		}
		got, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if subtle.ConstantTimeCompare(expected, got) == 1 {
			return nil
		}
	}
	return ErrInvalidSignature
}
