package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fanpass/internal/status"
	"fanpass/utils"

	"github.com/shopspring/decimal"
)

type Config struct {
	BaseURL string `json:"baseUrl" mapstructure:"base_url"`

	SecretKey string `json:"secretKey" mapstructure:"secret_key"`

	// WebhookSecret signs inbound webhook deliveries. When empty the
	// checkout still works but webhook payloads are trusted unsigned,
	// which is only acceptable in development.
	WebhookSecret string `json:"webhookSecret" mapstructure:"webhook_secret"`
}

// Checkout wraps Stripe's hosted checkout sessions API.
type Checkout struct {
	webhookSecret string

	// tolerance bounds the age of a signed webhook timestamp.
	tolerance time.Duration

	client *Client
}

// Webhook event types the marketplace reacts to.
const (
	EventSessionCompleted     = "checkout.session.completed"
	EventSessionExpired       = "checkout.session.expired"
	EventAsyncPaymentFailed   = "checkout.session.async_payment_failed"
	EventAsyncPaymentSucceeds = "checkout.session.async_payment_succeeded"
)

// New returns a new Checkout instance.
func New(ctx context.Context, cfg *Config) (*Checkout, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe: secret key is required")
	}
	if cfg.WebhookSecret == "" {
		slog.Warn("stripe: no webhook signing secret configured, unsigned webhook payloads will be trusted (unsafe outside development)")
	}

	return &Checkout{
		webhookSecret: cfg.WebhookSecret,
		tolerance:     5 * time.Minute,
		client: newClient(ctx, &ClientConfig{
			BaseURL:   cfg.BaseURL,
			SecretKey: cfg.SecretKey,
		}),
	}, nil
}

// Session is the decoded view of a Stripe checkout session.
type Session struct {
	ID            string
	URL           string
	Status        string // open, complete, expired
	PaymentStatus string // paid, unpaid, no_payment_required
	Metadata      map[string]string
}

// Event is a verified webhook delivery.
type Event struct {
	ID      string
	Type    string
	Session *Session
}

func (r *sessionReply) toDomain() *Session {
	return &Session{
		ID:            r.ID,
		URL:           r.URL,
		Status:        r.Status,
		PaymentStatus: r.PaymentStatus,
		Metadata:      r.Metadata,
	}
}

// CreateSession opens a hosted checkout session. Amount is in major
// currency units; Stripe wants minor units (cents).
func (s *Checkout) CreateSession(ctx context.Context, amount decimal.Decimal, currency, itemName, successURL, cancelURL string, metadata map[string]string) (*Session, error) {
	unitAmount := amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(unitAmount, 10))
	form.Set("line_items[0][price_data][product_data][name]", itemName)
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	reply, err := s.client.createSession(ctx, form)
	if err != nil {
		return nil, err
	}

	return reply.toDomain(), nil
}

// GetSession retrieves the authoritative session state.
func (s *Checkout) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	reply, err := s.client.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return reply.toDomain(), nil
}

// webhookPayload is the envelope of a Stripe event delivery.
type webhookPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object sessionReply `json:"object"`
	} `json:"data"`
}

// VerifyWebhook checks the Stripe-Signature header against the payload and
// decodes the event. The header carries a unix timestamp and one or more
// v1 signatures: HMAC-SHA256 over "<timestamp>.<payload>".
func (s *Checkout) VerifyWebhook(payload []byte, sigHeader string) (*Event, error) {
	if s.webhookSecret != "" {
		if err := s.checkSignature(payload, sigHeader); err != nil {
			return nil, err
		}
	}

	var event webhookPayload
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("verifyWebhook: json.Unmarshal: %v", err)
	}
	if event.Data.Object.ID == "" {
		return nil, fmt.Errorf("verifyWebhook: event has no session object")
	}

	return &Event{
		ID:      event.ID,
		Type:    event.Type,
		Session: event.Data.Object.toDomain(),
	}, nil
}

func (s *Checkout) checkSignature(payload []byte, sigHeader string) error {
	var ts string
	var sigs []string

	for _, part := range strings.Split(sigHeader, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sigs = append(sigs, v)
		}
	}

	if ts == "" || len(sigs) == 0 {
		return fmt.Errorf("checkSignature: malformed signature header: %w", status.ErrInvalidSignature)
	}

	tsInt, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("checkSignature: bad timestamp: %w", status.ErrInvalidSignature)
	}
	if age := time.Since(time.Unix(tsInt, 0)); age > s.tolerance || age < -s.tolerance {
		return fmt.Errorf("checkSignature: timestamp outside tolerance: %w", status.ErrInvalidSignature)
	}

	signed := fmt.Sprintf("%s.%s", ts, payload)
	expected := utils.Hmac256([]byte(signed), []byte(s.webhookSecret))
	for _, sig := range sigs {
		if utils.HmacEqual(sig, expected) {
			return nil
		}
	}

	return fmt.Errorf("checkSignature: no matching v1 signature: %w", status.ErrInvalidSignature)
}