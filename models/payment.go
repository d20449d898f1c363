package models

import "github.com/pocketbase/pocketbase/core"

const (
	TransactionInitiated = "initiated"
	TransactionPaid      = "paid"
	TransactionFailed    = "failed"
	TransactionExpired   = "expired"
)

// Transaction mirrors the payment provider's view of a checkout session.
// It is observational only and never drives ticket state by itself.
type Transaction struct {
	ID        string         `json:"id"`
	OrderID   string         `json:"order_id"`
	SessionID string         `json:"session_id"`
	Amount    float64        `json:"amount"`
	Currency  string         `json:"currency"`
	Status    string         `json:"status"` // initiated, paid, failed, expired
	Metadata  map[string]any `json:"metadata,omitempty"`
	Created   string         `json:"created"`
}

const (
	PayoutPending   = "pending"
	PayoutCompleted = "completed"
)

// Payout is a bookkeeping record of what the marketplace owes a seller for
// one completed order. Actual bank transfers happen elsewhere.
type Payout struct {
	ID          string  `json:"id"`
	OrderID     string  `json:"order_id"`
	SellerID    string  `json:"seller_id"`
	GrossAmount float64 `json:"gross_amount"`
	Commission  float64 `json:"commission"`
	NetAmount   float64 `json:"net_amount"`
	Currency    string  `json:"currency"`
	Status      string  `json:"status"` // pending, completed
	Created     string  `json:"created"`
}

func TransactionFromRecord(r *core.Record) *Transaction {
	tx := &Transaction{
		ID:        r.Id,
		OrderID:   r.GetString("order_id"),
		SessionID: r.GetString("session_id"),
		Amount:    r.GetFloat("amount"),
		Currency:  r.GetString("currency"),
		Status:    r.GetString("status"),
		Created:   r.GetString("created"),
	}
	if meta, ok := r.Get("metadata").(map[string]any); ok {
		tx.Metadata = meta
	}
	return tx
}

func PayoutFromRecord(r *core.Record) *Payout {
	return &Payout{
		ID:          r.Id,
		OrderID:     r.GetString("order_id"),
		SellerID:    r.GetString("seller_id"),
		GrossAmount: r.GetFloat("gross_amount"),
		Commission:  r.GetFloat("commission"),
		NetAmount:   r.GetFloat("net_amount"),
		Currency:    r.GetString("currency"),
		Status:      r.GetString("status"),
		Created:     r.GetString("created"),
	}
}
