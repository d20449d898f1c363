package models

import (
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

const (
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderCompleted = "completed"
	OrderCancelled = "cancelled"
	OrderRefunded  = "refunded"
	OrderDisputed  = "disputed"
)

type Order struct {
	ID          string  `json:"order_id"`
	BuyerID     string  `json:"buyer_id"`
	TicketID    string  `json:"ticket_id"`
	SellerID    string  `json:"seller_id"`
	EventID     string  `json:"event_id"`
	TicketPrice float64 `json:"ticket_price"`
	Commission  float64 `json:"commission"`
	TotalAmount float64 `json:"total_amount"`
	Currency    string  `json:"currency"`
	Status      string  `json:"status"` // pending, paid, completed, cancelled, refunded, disputed
	SessionID   string  `json:"session_id,omitempty"`
	QRPayload   string  `json:"qr_payload,omitempty"`
	Created     string  `json:"created"`
	CompletedAt string  `json:"completed_at,omitempty"`
}

// Finalized reports whether the order reached a state ConfirmPayment must
// never overwrite.
func (o *Order) Finalized() bool {
	switch o.Status {
	case OrderCompleted, OrderRefunded, OrderDisputed:
		return true
	}
	return false
}

// Pricing computes the commission and the total a buyer pays for a ticket
// price. The marketplace takes a fixed 10% cut, rounded to cents.
func Pricing(ticketPrice decimal.Decimal, commissionRate decimal.Decimal) (commission, total decimal.Decimal) {
	commission = ticketPrice.Mul(commissionRate).Round(2)
	total = ticketPrice.Add(commission)
	return commission, total
}

func OrderFromRecord(r *core.Record) *Order {
	return &Order{
		ID:          r.Id,
		BuyerID:     r.GetString("buyer_id"),
		TicketID:    r.GetString("ticket_id"),
		SellerID:    r.GetString("seller_id"),
		EventID:     r.GetString("event_id"),
		TicketPrice: r.GetFloat("ticket_price"),
		Commission:  r.GetFloat("commission"),
		TotalAmount: r.GetFloat("total_amount"),
		Currency:    r.GetString("currency"),
		Status:      r.GetString("status"),
		SessionID:   r.GetString("session_id"),
		QRPayload:   r.GetString("qr_payload"),
		Created:     r.GetString("created"),
		CompletedAt: r.GetString("completed_at"),
	}
}
