// Package stripepayment implements the checkout half of the gateway contract
// with Stripe Checkout. Stripe has no bank payout product for this ledger, so
// it is composed with another provider's Payouts (see gateway.Compose).
package stripepayment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/wallet/pkg/config"
	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/amirasaad/wallet/pkg/provider/gateway"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// SignatureHeader is the header Stripe signs webhook deliveries with.
const SignatureHeader = "Stripe-Signature"

// StripePaymentProvider opens and verifies Stripe Checkout sessions. The
// session id is the funding reference.
type StripePaymentProvider struct {
	client *stripe.Client
	cfg    *config.Stripe
	logger *slog.Logger
}

// New creates a new StripePaymentProvider with the given config and logger.
func New(cfg *config.Stripe, logger *slog.Logger) *StripePaymentProvider {
	return &StripePaymentProvider{
		client: stripe.NewClient(cfg.ApiKey),
		cfg:    cfg,
		logger: logger.With("provider", "stripe"),
	}
}

// InitiateCheckout creates a one-line-item Checkout session for Amount.
// The caller's reference travels as client_reference_id and metadata; the
// returned Session.Reference is the Stripe session id.
func (s *StripePaymentProvider) InitiateCheckout(
	ctx context.Context,
	params gateway.CheckoutParams,
) (*gateway.Session, error) {
	currency := strings.ToLower(params.Currency)
	metadata := map[string]string{"reference": params.Reference}
	for k, v := range params.Metadata {
		metadata[k] = v
	}

	createParams := &stripe.CheckoutSessionCreateParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(s.cfg.SuccessPath),
		CancelURL:          stripe.String(s.cfg.CancelPath),
		ClientReferenceID:  stripe.String(params.Reference),
		Metadata:           metadata,
		PaymentIntentData: &stripe.CheckoutSessionCreatePaymentIntentDataParams{
			Metadata: metadata,
		},
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String("Wallet funding"),
				},
				UnitAmount: stripe.Int64(params.Amount),
			},
			Quantity: stripe.Int64(1),
		}},
	}
	if params.Email != "" {
		createParams.CustomerEmail = stripe.String(params.Email)
	}

	session, err := s.client.V1CheckoutSessions.Create(ctx, createParams)
	if err != nil {
		s.logger.Error("failed to create checkout session", "error", err)
		return nil, domain.GatewayError("create checkout session", err)
	}
	s.logger.Info("created checkout session", "session_id", session.ID)

	return &gateway.Session{
		Reference:        session.ID,
		AccessCode:       session.ID,
		AuthorizationURL: session.URL,
	}, nil
}

// VerifyCheckout retrieves the session with its charge's balance
// transaction expanded, so the Stripe fee is known.
func (s *StripePaymentProvider) VerifyCheckout(
	ctx context.Context,
	reference string,
) (*gateway.Verification, error) {
	params := &stripe.CheckoutSessionRetrieveParams{}
	params.AddExpand("payment_intent.latest_charge.balance_transaction")

	session, err := s.client.V1CheckoutSessions.Retrieve(ctx, reference, params)
	if err != nil {
		return nil, domain.GatewayError("retrieve checkout session", err)
	}
	if session == nil || session.ID == "" {
		return nil, domain.GatewayError("retrieve checkout session", fmt.Errorf("empty result for %s", reference))
	}
	return verificationOf(session), nil
}

func verificationOf(session *stripe.CheckoutSession) *gateway.Verification {
	v := &gateway.Verification{
		Reference: session.ID,
		Status:    sessionStatus(session),
		Amount:    session.AmountTotal,
		Currency:  strings.ToUpper(string(session.Currency)),
		Fees:      map[string]int64{},
	}
	pi := session.PaymentIntent
	if pi == nil || pi.LatestCharge == nil {
		return v
	}
	if bt := pi.LatestCharge.BalanceTransaction; bt != nil {
		v.Fees["stripe"] = bt.Fee
	}
	if auth, err := json.Marshal(map[string]any{
		"payment_intent": pi.ID,
		"charge":         pi.LatestCharge.ID,
	}); err == nil {
		v.Authorization = auth
	}
	return v
}

// sessionStatus folds Checkout's session and payment status into one word.
func sessionStatus(session *stripe.CheckoutSession) string {
	switch {
	case session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		return "paid"
	case session.Status == stripe.CheckoutSessionStatusExpired:
		return "expired"
	default:
		return "pending"
	}
}

// Fees is Stripe's card schedule.
func (s *StripePaymentProvider) Fees() gateway.FeeSchedule {
	return gateway.StripeCard
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func (s *StripePaymentProvider) ParseWebhook(
	_ context.Context,
	payload []byte,
	signature string,
) (*gateway.WebhookEvent, error) {
	if s.cfg.SigningSecret == "" {
		return nil, errors.New("webhook signing secret not configured")
	}
	event, err := webhook.ConstructEvent(payload, signature, s.cfg.SigningSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: error verifying webhook signature: %v", domain.ErrUnauthorized, err)
	}

	out := &gateway.WebhookEvent{Type: string(event.Type)}
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded", "checkout.session.expired":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("%w: error parsing checkout session: %v", domain.ErrValidation, err)
		}
		out.Reference = session.ID
		out.Settled = event.Type != "checkout.session.expired" &&
			session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid
	default:
		s.logger.Debug("ignoring webhook event", "type", event.Type)
	}
	return out, nil
}

var (
	_ gateway.Checkout = (*StripePaymentProvider)(nil)
	_ gateway.Webhooks = (*StripePaymentProvider)(nil)
)
