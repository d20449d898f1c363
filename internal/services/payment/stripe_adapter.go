package payment

import (
	"context"
	"fmt"

	"fanpass/internal/services/payment/stripe"
)

// StripeGateway adapts the Stripe checkout client to the Gateway interface.
type StripeGateway struct {
	checkout *stripe.Checkout
}

func NewStripeGateway(ctx context.Context, cfg *stripe.Config) (*StripeGateway, error) {
	checkout, err := stripe.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("newStripeGateway: %v", err)
	}

	return &StripeGateway{checkout: checkout}, nil
}

func (g *StripeGateway) GetProvider() Provider {
	return ProviderStripe
}

func (g *StripeGateway) CreateSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error) {
	session, err := g.checkout.CreateSession(ctx, req.Amount, req.Currency, req.ItemName, req.SuccessURL, req.CancelURL, req.Metadata)
	if err != nil {
		return nil, fmt.Errorf("stripe.CreateSession: %v", err)
	}

	return &CheckoutSession{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

func (g *StripeGateway) GetStatus(ctx context.Context, sessionID string) (*SessionStatus, error) {
	session, err := g.checkout.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("stripe.GetSession: %v", err)
	}

	return toSessionStatus(session), nil
}

func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := g.checkout.VerifyWebhook(payload, signature)
	if err != nil {
		return nil, err
	}

	status := toSessionStatus(event.Session)
	if event.Type == stripe.EventAsyncPaymentFailed {
		status.Status = StatusFailed
	}

	return &WebhookEvent{
		ID:      event.ID,
		Type:    event.Type,
		Session: status,
	}, nil
}

// SetNotificationChannel is a no-op: Stripe pushes outcomes via webhooks.
func (g *StripeGateway) SetNotificationChannel(ch chan *Notification) {}

func (g *StripeGateway) Close(ctx context.Context) error {
	return nil
}

// toSessionStatus maps Stripe's session and payment states onto the
// internal ones. Payment state wins over session state: a paid session is
// paid even while Stripe still reports it open.
func toSessionStatus(s *stripe.Session) *SessionStatus {
	var internal string
	switch {
	case s.PaymentStatus == "paid" || s.PaymentStatus == "no_payment_required":
		internal = StatusPaid
	case s.Status == "expired":
		internal = StatusExpired
	default:
		internal = StatusInitiated
	}

	return &SessionStatus{
		SessionID: s.ID,
		Status:    internal,
		Metadata:  s.Metadata,
	}
}
