package services

import (
	"context"
	"fmt"

	pubnub "github.com/pubnub/go"
)

// PubNubPublisher pushes order status changes to per-order PubNub
// channels, where the frontend's checkout page is subscribed.
type PubNubPublisher struct {
	pn *pubnub.PubNub
}

func NewPubNubPublisher(pn *pubnub.PubNub) *PubNubPublisher {
	return &PubNubPublisher{pn: pn}
}

func (p *PubNubPublisher) PublishOrderStatus(_ context.Context, orderID, orderStatus string) error {
	_, _, err := p.pn.Publish().
		Channel(fmt.Sprintf("order-%s", orderID)).
		Message(map[string]any{
			"type":     "order_status",
			"order_id": orderID,
			"status":   orderStatus,
		}).
		Execute()
	if err != nil {
		return fmt.Errorf("publishOrderStatus: %v", err)
	}
	return nil
}

// NoopPublisher is used when no PubNub keys are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderStatus(_ context.Context, _, _ string) error {
	return nil
}
