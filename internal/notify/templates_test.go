package notify

import (
	"testing"

	"fanpass/models"

	"github.com/stretchr/testify/assert"
)

func TestText_FallsBackToEnglish(t *testing.T) {
	assert.Equal(t, "Order Confirmed!", text("order_confirmed", "en"))
	assert.Equal(t, "Bestellung bestätigt!", text("order_confirmed", "de"))
	assert.Equal(t, "Order Confirmed!", text("order_confirmed", "fr"))
	assert.Equal(t, "unknown_key", text("unknown_key", "en"))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "March 15, 2026 at 3:00 PM", formatDate("2026-03-15T15:00:00Z", "en"))
	assert.Equal(t, "15.03.2026 um 15:00 Uhr", formatDate("2026-03-15T15:00:00Z", "de"))
	assert.Equal(t, "not-a-date", formatDate("not-a-date", "en"))
}

func TestOrderConfirmationEmail(t *testing.T) {
	order := &models.Order{ID: "order-1", TotalAmount: 110, TicketPrice: 100, Commission: 10}
	event := &models.Event{Title: "Liverpool vs Arsenal", Venue: "Anfield", City: "Liverpool", EventDate: "2026-03-15T15:00:00Z"}
	ticket := &models.Ticket{Category: "VIP", Section: "Section A", Row: "3", Seat: "12"}

	subject, html := orderConfirmationEmail(order, event, ticket, "de")

	assert.Contains(t, subject, "Bestellung bestätigt!")
	assert.Contains(t, subject, "Liverpool vs Arsenal")
	assert.Contains(t, html, "FANPASS-order-1")
	assert.Contains(t, html, "15.03.2026 um 15:00 Uhr")
	assert.Contains(t, html, "110.00")
	assert.Contains(t, html, "3 / 12")
}

func TestSellerSaleEmail_PayoutIsFullTicketPrice(t *testing.T) {
	order := &models.Order{ID: "order-1", TotalAmount: 110, TicketPrice: 100, Commission: 10}
	event := &models.Event{Title: "Liverpool vs Arsenal"}
	ticket := &models.Ticket{Category: "VIP", Section: "Section A"}

	subject, html := sellerSaleEmail(order, event, ticket, "en")

	assert.Contains(t, subject, "Ticket Sold!")
	assert.Contains(t, subject, "100.00")
	assert.Contains(t, html, "Your payout")
	assert.Contains(t, html, "100.00")
}
