package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"fanpass/internal/services/payment/mockpay"
)

// MockpayGateway adapts the in-memory mockpay provider to the Gateway
// interface. It is the development provider: no money moves and outcomes
// are injected through the simulate endpoint or a PubNub channel.
type MockpayGateway struct {
	mp *mockpay.Mockpay

	outcomes chan *mockpay.Outcome
	cancel   context.CancelFunc
}

func NewMockpayGateway(ctx context.Context, cfg *mockpay.Config) (*MockpayGateway, error) {
	mp, err := mockpay.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("newMockpayGateway: %v", err)
	}

	return &MockpayGateway{mp: mp}, nil
}

func (g *MockpayGateway) GetProvider() Provider {
	return ProviderMockpay
}

func (g *MockpayGateway) CreateSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error) {
	session, err := g.mp.CreateSession(ctx, req.Amount, req.Currency, req.Metadata)
	if err != nil {
		return nil, fmt.Errorf("mockpay.CreateSession: %v", err)
	}

	return &CheckoutSession{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

func (g *MockpayGateway) GetStatus(ctx context.Context, sessionID string) (*SessionStatus, error) {
	session, err := g.mp.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &SessionStatus{
		SessionID: session.ID,
		Status:    session.Status,
		Metadata:  session.Metadata,
	}, nil
}

// VerifyWebhook decodes an unsigned outcome payload. Mockpay has no
// signing secret; it only ever runs in development.
func (g *MockpayGateway) VerifyWebhook(payload []byte, _ string) (*WebhookEvent, error) {
	var o mockpay.Outcome
	if err := json.Unmarshal(payload, &o); err != nil {
		return nil, fmt.Errorf("mockpay.VerifyWebhook: json.Unmarshal: %v", err)
	}
	if o.SessionID == "" {
		return nil, fmt.Errorf("mockpay.VerifyWebhook: payload has no session id")
	}

	return &WebhookEvent{
		ID:   o.SessionID,
		Type: "mockpay.outcome",
		Session: &SessionStatus{
			SessionID: o.SessionID,
			Status:    o.Status,
		},
	}, nil
}

// SetNotificationChannel bridges mockpay outcomes onto the gateway
// notification channel.
func (g *MockpayGateway) SetNotificationChannel(ch chan *Notification) {
	if g.cancel != nil {
		g.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel

	g.outcomes = make(chan *mockpay.Outcome, 16)
	g.mp.SetOutcomeChannel(g.outcomes)

	go func() {
		for {
			select {
			case o := <-g.outcomes:
				ch <- &Notification{SessionID: o.SessionID, Status: o.Status}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Resolve marks a session paid or failed. The simulate endpoint calls it.
func (g *MockpayGateway) Resolve(ctx context.Context, sessionID, outcome string) error {
	return g.mp.Resolve(ctx, sessionID, outcome)
}

func (g *MockpayGateway) Close(ctx context.Context) error {
	if g.cancel != nil {
		g.cancel()
	}
	return g.mp.Close(ctx)
}
