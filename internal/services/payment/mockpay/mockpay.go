package mockpay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"fanpass/internal/status"
	"fanpass/utils"

	pubnub "github.com/pubnub/go/v7"
	"github.com/shopspring/decimal"
)

type Config struct {
	// PublicURL prefixes the hosted checkout page handed to buyers.
	PublicURL string `json:"publicUrl" mapstructure:"public_url"`

	// PubNub settings are optional. When SubKey is set, payment outcomes
	// can also arrive over a PubNub channel, the way a real acquirer
	// pushes notifications.
	PNSubKey    string `json:"pn_subkey" mapstructure:"pn_subkey"`
	PNSubSecret string `json:"pn_subsecret" mapstructure:"pn_subsecret"`
	PNUUID      string `json:"pn_uuid" mapstructure:"pn_uuid"`
	PNChannel   string `json:"pn_channel" mapstructure:"pn_channel"`
}

// Session is a checkout session held entirely in memory.
type Session struct {
	ID       string
	URL      string
	Status   string // initiated, paid, failed, expired
	Amount   decimal.Decimal
	Currency string
	Metadata map[string]string
	Created  time.Time
}

// Outcome is a payment result pushed by the simulator, either through the
// local API or over PubNub.
type Outcome struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
}

// Mockpay is an in-memory payment provider for development and tests. It
// never moves money: outcomes are injected by the simulate endpoint or
// published on a PubNub channel.
type Mockpay struct {
	publicURL string

	mu       sync.Mutex
	sessions map[string]*Session

	sub *subscribe
}

func New(ctx context.Context, cfg *Config) (*Mockpay, error) {
	m := &Mockpay{
		publicURL: cfg.PublicURL,
		sessions:  make(map[string]*Session),
	}

	if cfg.PNSubKey != "" {
		pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PNUUID))
		pnCfg.SubscribeKey = cfg.PNSubKey
		pnCfg.SecretKey = cfg.PNSubSecret

		sub, err := m.newSubscription(ctx, pnCfg, cfg.PNChannel)
		if err != nil {
			return nil, fmt.Errorf("mockpay: subscribe to PubNub channel: %v", err)
		}
		sub.pn.AddListener(sub.lis)
		sub.pn.Subscribe().Channels([]string{cfg.PNChannel}).Execute()
		m.sub = sub
	}

	return m, nil
}

// CreateSession registers a new in-memory session in the initiated state.
func (m *Mockpay) CreateSession(_ context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*Session, error) {
	code, err := utils.GenerateCode(16)
	if err != nil {
		return nil, fmt.Errorf("mockpay.CreateSession: %v", err)
	}
	id := "mock_" + strings.ToLower(code)

	s := &Session{
		ID:       id,
		URL:      fmt.Sprintf("%s/dev/checkout/%s", m.publicURL, id),
		Status:   "initiated",
		Amount:   amount,
		Currency: currency,
		Metadata: metadata,
		Created:  time.Now(),
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	return s, nil
}

// GetSession returns the current state of a session.
func (m *Mockpay) GetSession(_ context.Context, sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("mockpay.GetSession: %q: %w", sessionID, status.ErrUnknownSession)
	}

	cp := *s
	return &cp, nil
}

// Resolve records the outcome of a session and forwards it to the outcome
// channel if one is set. Resolving an unknown session is an error; resolving
// a session twice keeps the first outcome.
func (m *Mockpay) Resolve(_ context.Context, sessionID, outcome string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("mockpay.Resolve: %q: %w", sessionID, status.ErrUnknownSession)
	}
	if s.Status != "initiated" {
		m.mu.Unlock()
		return nil
	}
	s.Status = outcome
	m.mu.Unlock()

	if m.sub != nil && m.sub.ch != nil {
		m.sub.ch <- &Outcome{SessionID: sessionID, Status: outcome}
	}

	return nil
}

// SetOutcomeChannel sets the channel payment outcomes are forwarded on.
func (m *Mockpay) SetOutcomeChannel(ch chan *Outcome) {
	if m.sub == nil {
		m.sub = &subscribe{}
	}
	m.sub.ch = ch
}

func (m *Mockpay) Close(_ context.Context) error {
	if m.sub != nil && m.sub.pn != nil {
		m.sub.pn.UnsubscribeAll()
	}
	return nil
}

type subscribe struct {
	pn  *pubnub.PubNub
	lis *pubnub.Listener
	ch  chan *Outcome
}

func (m *Mockpay) newSubscription(ctx context.Context, pnCfg *pubnub.Config, channel string) (*subscribe, error) {
	sub := &subscribe{
		pn:  pubnub.NewPubNub(pnCfg),
		lis: pubnub.NewListener(),
	}

	go sub.processSubscription(ctx, m)

	return sub, nil
}

func (s *subscribe) processSubscription(ctx context.Context, m *Mockpay) error {
	listener := s.lis
	for {
		select {
		case st := <-listener.Status:
			switch st.Category {
			case pubnub.PNConnectedCategory:
				log.Println("mockpay: connected to pubnub")

			case pubnub.PNReconnectedCategory:
				log.Println("mockpay: reconnected to pubnub")

			case pubnub.PNDisconnectedCategory:
				log.Println("mockpay: disconnected from pubnub")

			case pubnub.PNAccessDeniedCategory:
				log.Println("mockpay: access denied connecting to pubnub")

			case pubnub.PNTimeoutCategory:
				log.Println("mockpay: timeout connecting to pubnub")

			default:
				log.Printf("mockpay: pubnub status category %v", st.Category)
			}

		case message := <-listener.Message:
			log.Println("mockpay: message received from pubnub: ", message.Message)

			raw, ok := message.Message.(string)
			if !ok {
				log.Println("mockpay: pubnub message is not a string")
				continue
			}

			var o Outcome
			dec := json.NewDecoder(strings.NewReader(raw))
			if err := dec.Decode(&o); err != nil {
				log.Println(err)
				continue
			}

			if err := m.Resolve(ctx, o.SessionID, o.Status); err != nil {
				log.Println(err)
			}

		case <-ctx.Done():
			log.Println("mockpay: close subscribe")
			return nil
		}
	}
}
