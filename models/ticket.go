package models

import (
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

const (
	TicketAvailable = "available"
	TicketReserved  = "reserved"
	TicketSold      = "sold"
)

type Ticket struct {
	ID       string  `json:"id"`
	EventID  string  `json:"event_id"`
	SellerID string  `json:"seller_id"`
	Category string  `json:"category"`
	Section  string  `json:"section,omitempty"`
	Row      string  `json:"row,omitempty"`
	Seat     string  `json:"seat,omitempty"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Status   string  `json:"status"` // available, reserved, sold
	Created  string  `json:"created"`
}

// DecimalPrice returns the listing price as a decimal for money arithmetic.
func (t *Ticket) DecimalPrice() decimal.Decimal {
	return decimal.NewFromFloat(t.Price)
}

func TicketFromRecord(r *core.Record) *Ticket {
	return &Ticket{
		ID:       r.Id,
		EventID:  r.GetString("event_id"),
		SellerID: r.GetString("seller_id"),
		Category: r.GetString("category"),
		Section:  r.GetString("section"),
		Row:      r.GetString("row"),
		Seat:     r.GetString("seat"),
		Price:    r.GetFloat("price"),
		Currency: r.GetString("currency"),
		Status:   r.GetString("status"),
		Created:  r.GetString("created"),
	}
}
