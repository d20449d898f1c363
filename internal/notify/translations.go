package notify

// Translated strings for transactional email, English and German.
var translations = map[string]map[string]string{
	"en": {
		"order_confirmed":  "Order Confirmed!",
		"your_ticket":      "Your Ticket",
		"event":            "Event",
		"date":             "Date",
		"venue":            "Venue",
		"section":          "Section",
		"row_seat":         "Row / Seat",
		"order_id":         "Order ID",
		"total_paid":       "Total Paid",
		"qr_instructions":  "Show this QR code at the venue entrance",
		"thank_you":        "Thank you for your purchase!",
		"price_drop":       "Price Drop Alert!",
		"price_dropped_to": "Price dropped to",
		"buy_now":          "Buy Now",
		"ticket_sold":      "Ticket Sold!",
		"you_sold":         "You sold a ticket",
		"payout_amount":    "Your payout",
		"commission":       "Platform fee (10%)",
		"ticket_price":     "Ticket Price",
		"welcome":          "Welcome to FanPass!",
		"account_created":  "Your account has been created successfully.",
	},
	"de": {
		"order_confirmed":  "Bestellung bestätigt!",
		"your_ticket":      "Ihr Ticket",
		"event":            "Veranstaltung",
		"date":             "Datum",
		"venue":            "Veranstaltungsort",
		"section":          "Sektion",
		"row_seat":         "Reihe / Platz",
		"order_id":         "Bestellnummer",
		"total_paid":       "Gesamtbetrag",
		"qr_instructions":  "Zeigen Sie diesen QR-Code am Eingang",
		"thank_you":        "Vielen Dank für Ihren Kauf!",
		"price_drop":       "Preisalarm!",
		"price_dropped_to": "Preis gefallen auf",
		"buy_now":          "Jetzt kaufen",
		"ticket_sold":      "Ticket verkauft!",
		"you_sold":         "Sie haben ein Ticket verkauft",
		"payout_amount":    "Ihre Auszahlung",
		"commission":       "Plattformgebühr (10%)",
		"ticket_price":     "Ticketpreis",
		"welcome":          "Willkommen bei FanPass!",
		"account_created":  "Ihr Konto wurde erfolgreich erstellt.",
	},
}

func text(key, lang string) string {
	if m, ok := translations[lang]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if v, ok := translations["en"][key]; ok {
		return v
	}
	return key
}
