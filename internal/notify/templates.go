package notify

import (
	"fmt"
	"time"

	"fanpass/models"
)

const baseTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="margin:0;padding:0;background-color:#09090b;font-family:'Segoe UI',Tahoma,sans-serif;">
  <table width="100%%" cellpadding="0" cellspacing="0" style="background-color:#09090b;padding:40px 20px;">
    <tr><td align="center">
      <table width="600" cellpadding="0" cellspacing="0" style="background-color:#18181b;border-radius:16px;overflow:hidden;">
        <tr>
          <td style="background:linear-gradient(135deg,#7c3aed 0%%,#a855f7 50%%,#ec4899 100%%);padding:30px;text-align:center;">
            <h1 style="color:#ffffff;margin:0;font-size:28px;">FanPass</h1>
            <p style="color:rgba(255,255,255,0.8);margin:5px 0 0;font-size:14px;">Europe's #1 Ticket Marketplace</p>
          </td>
        </tr>
        <tr><td style="padding:40px 30px;color:#ffffff;">%s</td></tr>
        <tr>
          <td style="background-color:#0f0f11;padding:25px 30px;text-align:center;border-top:1px solid #27272a;">
            <p style="color:#71717a;margin:0;font-size:12px;">Questions? Contact us at support@fanpass.com</p>
          </td>
        </tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`

func wrap(content string) string {
	return fmt.Sprintf(baseTemplate, content)
}

func formatDate(iso, lang string) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	if lang == "de" {
		return t.Format("02.01.2006 um 15:04 Uhr")
	}
	return t.Format("January 2, 2006 at 3:04 PM")
}

func orderConfirmationEmail(order *models.Order, event *models.Event, ticket *models.Ticket, lang string) (subject, html string) {
	seat := ""
	if ticket.Row != "" {
		seat = fmt.Sprintf(`<tr><td style="color:#71717a;">%s</td><td style="text-align:right;">%s / %s</td></tr>`,
			text("row_seat", lang), ticket.Row, ticket.Seat)
	}

	content := fmt.Sprintf(`
    <h2 style="text-align:center;">%s</h2>
    <p style="text-align:center;color:#a1a1aa;">%s</p>
    <div style="background-color:#27272a;border-radius:12px;padding:25px;margin:25px 0;">
      <h3 style="color:#a855f7;font-size:14px;text-transform:uppercase;">%s</h3>
      <table width="100%%" cellpadding="8">
        <tr><td style="color:#71717a;">%s</td><td style="text-align:right;font-weight:bold;">%s</td></tr>
        <tr><td style="color:#71717a;">%s</td><td style="text-align:right;">%s</td></tr>
        <tr><td style="color:#71717a;">%s</td><td style="text-align:right;">%s, %s</td></tr>
        <tr><td style="color:#71717a;">%s</td><td style="text-align:right;">%s - %s</td></tr>
        %s
      </table>
    </div>
    <div style="background-color:#ffffff;border-radius:12px;padding:30px;text-align:center;margin-bottom:25px;">
      <p style="color:#18181b;font-size:12px;text-transform:uppercase;">%s</p>
      <img src="https://api.qrserver.com/v1/create-qr-code/?size=180x180&data=FANPASS-%s" alt="QR Code" width="180" height="180" />
      <p style="color:#71717a;font-size:11px;">%s: %s</p>
    </div>
    <div style="background-color:#27272a;border-radius:12px;padding:20px;text-align:center;">
      <p style="color:#71717a;margin:0 0 5px;">%s</p>
      <p style="color:#22c55e;margin:0;font-size:32px;font-weight:bold;">&euro;%.2f</p>
    </div>`,
		text("order_confirmed", lang), text("thank_you", lang),
		text("your_ticket", lang),
		text("event", lang), event.Title,
		text("date", lang), formatDate(event.EventDate, lang),
		text("venue", lang), event.Venue, event.City,
		text("section", lang), ticket.Category, ticket.Section,
		seat,
		text("qr_instructions", lang), order.ID,
		text("order_id", lang), order.ID,
		text("total_paid", lang), order.TotalAmount,
	)

	return fmt.Sprintf("%s - %s", text("order_confirmed", lang), event.Title), wrap(content)
}

func sellerSaleEmail(order *models.Order, event *models.Event, ticket *models.Ticket, lang string) (subject, html string) {
	content := fmt.Sprintf(`
    <h2 style="text-align:center;">%s</h2>
    <p style="text-align:center;color:#a1a1aa;">%s</p>
    <div style="background-color:#27272a;border-radius:12px;padding:25px;margin:25px 0;">
      <table width="100%%" cellpadding="10">
        <tr><td style="color:#71717a;">%s</td><td style="text-align:right;font-weight:bold;">%s</td></tr>
        <tr><td style="color:#71717a;">%s</td><td style="text-align:right;">%s - %s</td></tr>
        <tr><td style="color:#71717a;">%s</td><td style="text-align:right;">&euro;%.2f</td></tr>
        <tr><td style="color:#71717a;">%s</td><td style="color:#ef4444;text-align:right;">-&euro;%.2f</td></tr>
      </table>
    </div>
    <div style="background-color:#22c55e;border-radius:12px;padding:25px;text-align:center;">
      <p style="color:rgba(255,255,255,0.8);margin:0 0 5px;">%s</p>
      <p style="color:#ffffff;margin:0;font-size:36px;font-weight:bold;">&euro;%.2f</p>
    </div>`,
		text("ticket_sold", lang), text("you_sold", lang),
		text("event", lang), event.Title,
		text("section", lang), ticket.Category, ticket.Section,
		text("ticket_price", lang), order.TicketPrice,
		text("commission", lang), order.Commission,
		text("payout_amount", lang), order.TicketPrice,
	)

	return fmt.Sprintf("%s - €%.2f", text("ticket_sold", lang), order.TicketPrice), wrap(content)
}

func priceDropEmail(event *models.Event, oldPrice, newPrice float64, publicURL, lang string) (subject, html string) {
	content := fmt.Sprintf(`
    <h2 style="text-align:center;">%s</h2>
    <div style="background-color:#27272a;border-radius:12px;padding:25px;margin:25px 0;text-align:center;">
      <h3 style="margin:0 0 10px;font-size:20px;">%s</h3>
      <p style="color:#a1a1aa;margin:0 0 20px;">%s, %s</p>
      <p style="color:#71717a;margin:0;font-size:12px;text-decoration:line-through;">&euro;%.0f</p>
      <p style="color:#22c55e;margin:5px 0 0;font-size:36px;font-weight:bold;">&euro;%.0f</p>
    </div>
    <div style="text-align:center;">
      <a href="%s/event/%s" style="display:inline-block;background:linear-gradient(135deg,#7c3aed 0%%,#a855f7 100%%);color:#ffffff;text-decoration:none;padding:15px 40px;border-radius:30px;font-weight:bold;">%s</a>
    </div>`,
		text("price_drop", lang),
		event.Title,
		event.Venue, event.City,
		oldPrice, newPrice,
		publicURL, event.ID, text("buy_now", lang),
	)

	return fmt.Sprintf("%s %s - €%.0f", text("price_drop", lang), event.Title, newPrice), wrap(content)
}

func welcomeEmail(name, publicURL, lang string) (subject, html string) {
	content := fmt.Sprintf(`
    <h2 style="text-align:center;">%s</h2>
    <p style="text-align:center;color:#a1a1aa;">Hi %s! %s</p>
    <div style="text-align:center;margin-top:25px;">
      <a href="%s/events" style="display:inline-block;background:linear-gradient(135deg,#7c3aed 0%%,#a855f7 100%%);color:#ffffff;text-decoration:none;padding:15px 40px;border-radius:30px;font-weight:bold;">FanPass</a>
    </div>`,
		text("welcome", lang), name, text("account_created", lang), publicURL,
	)

	return text("welcome", lang), wrap(content)
}
