package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider represents different payment gateway backends
type Provider string

const (
	ProviderStripe  Provider = "stripe"
	ProviderMockpay Provider = "mockpay"
)

// Internal payment states derived from a gateway's session view.
const (
	StatusInitiated = "initiated"
	StatusPaid      = "paid"
	StatusFailed    = "failed"
	StatusExpired   = "expired"
)

// CheckoutRequest describes one attempt to collect a specific amount.
type CheckoutRequest struct {
	Amount     decimal.Decimal   `json:"amount"`
	Currency   string            `json:"currency"`
	ItemName   string            `json:"item_name"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// CheckoutSession is the provider's hosted page for a CheckoutRequest.
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// SessionStatus is the authoritative payment state of a session as the
// provider reports it, mapped onto the internal status values.
type SessionStatus struct {
	SessionID string            `json:"session_id"`
	Status    string            `json:"status"` // initiated, paid, failed, expired
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// WebhookEvent is a verified, decoded asynchronous notification.
type WebhookEvent struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Session *SessionStatus `json:"session"`
}

// Notification is pushed by providers that deliver payment outcomes over a
// channel instead of (or in addition to) webhooks.
type Notification struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// Gateway defines the common interface for all payment providers.
type Gateway interface {
	// GetProvider returns the gateway provider type
	GetProvider() Provider

	// CreateSession opens a hosted checkout session for the request
	CreateSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error)

	// GetStatus fetches the authoritative payment status of a session
	GetStatus(ctx context.Context, sessionID string) (*SessionStatus, error)

	// VerifyWebhook checks the signature of a raw webhook delivery and
	// decodes it. With no signing secret configured the payload is
	// accepted unsigned; that mode is unsafe outside development.
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)

	// SetNotificationChannel sets the channel for asynchronous payment
	// notifications, for providers that push them.
	SetNotificationChannel(ch chan *Notification)

	// Close gracefully closes any connections
	Close(ctx context.Context) error
}
