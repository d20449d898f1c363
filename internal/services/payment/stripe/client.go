package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type ClientConfig struct {
	BaseURL   string `json:"baseUrl" mapstructure:"base_url"`
	SecretKey string `json:"secretKey" mapstructure:"secret_key"`
}

type Client struct {
	// baseURL is the base url of the Stripe API.
	baseURL string

	// secretKey authenticates requests against the Stripe API.
	secretKey string

	// hc is the http client.
	hc *http.Client
}

// newClient creates a new instance of the Stripe API client.
func newClient(_ context.Context, c *ClientConfig) *Client {
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = "https://api.stripe.com"
	}

	return &Client{
		baseURL:   baseURL,
		secretKey: c.SecretKey,

		// set http client with timeout.
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// sessionReply is Stripe's checkout session object, reduced to the fields
// the marketplace consumes.
type sessionReply struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	Status        string            `json:"status"`         // open, complete, expired
	PaymentStatus string            `json:"payment_status"` // paid, unpaid, no_payment_required
	Metadata      map[string]string `json:"metadata"`
}

type errorReply struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// createSession POSTs a form-encoded checkout session create call.
func (c *Client) createSession(ctx context.Context, form url.Values) (*sessionReply, error) {
	endpoint := fmt.Sprintf("%s/v1/checkout/sessions", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("createSession: http.NewReq: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("createSession: http.Do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var reply errorReply
		dec := json.NewDecoder(resp.Body)
		if err := dec.Decode(&reply); err != nil {
			return nil, fmt.Errorf("createSession: http.StatusCode: %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("createSession: %s: %s", reply.Error.Type, reply.Error.Message)
	}

	var reply sessionReply
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("createSession: json.Decode: %v", err)
	}
	if reply.ID == "" {
		return nil, fmt.Errorf("createSession: reply missing session id")
	}

	return &reply, nil
}

// getSession retrieves a checkout session by id.
func (c *Client) getSession(ctx context.Context, sessionID string) (*sessionReply, error) {
	endpoint := fmt.Sprintf("%s/v1/checkout/sessions/%s", c.baseURL, url.PathEscape(sessionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("getSession: http.NewReq: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getSession: http.Do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var reply errorReply
		dec := json.NewDecoder(resp.Body)
		if err := dec.Decode(&reply); err != nil {
			return nil, fmt.Errorf("getSession: http.StatusCode: %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("getSession: %s: %s", reply.Error.Type, reply.Error.Message)
	}

	var reply sessionReply
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("getSession: json.Decode: %v", err)
	}

	return &reply, nil
}
