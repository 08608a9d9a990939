package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/amirasaad/wallet/pkg/provider/gateway"
)

// SignatureHeader carries the hex HMAC-SHA512 of the body, keyed with the secret key.
const SignatureHeader = "x-paystack-signature"

// ErrInvalidSignature is returned for callbacks that fail authentication.
var ErrInvalidSignature = errors.New("invalid paystack signature")

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
	} `json:"data"`
}

// ParseWebhook authenticates a callback and decodes its event.
func (c *Client) ParseWebhook(
	_ context.Context,
	payload []byte,
	signature string,
) (*gateway.WebhookEvent, error) {
	if !c.validSignature(payload, signature) {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, ErrInvalidSignature)
	}
	var p webhookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: malformed webhook payload: %v", domain.ErrValidation, err)
	}
	return &gateway.WebhookEvent{
		Type:      p.Event,
		Reference: p.Data.Reference,
		Settled:   p.Event == "charge.success",
	}, nil
}

// Sign returns the signature Paystack sends for payload.
func (c *Client) Sign(payload []byte) string {
	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(payload) //nolint:errcheck
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) validSignature(payload []byte, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) == 0 {
		return false
	}
	want, _ := hex.DecodeString(c.Sign(payload))
	return hmac.Equal(got, want)
}
