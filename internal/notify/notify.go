// Package notify sends transactional email through the app's configured
// mailer. Sends run in the background: a mail failure never fails the
// operation that triggered it.
package notify

import (
	"context"
	"log/slog"
	"net/mail"

	"fanpass/models"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/mailer"
)

type Service struct {
	app       core.App
	publicURL string
}

func New(app core.App, publicURL string) *Service {
	return &Service{app: app, publicURL: publicURL}
}

func (s *Service) send(to, toName, subject, html string) {
	go func() {
		message := &mailer.Message{
			From: mail.Address{
				Address: s.app.Settings().Meta.SenderAddress,
				Name:    s.app.Settings().Meta.SenderName,
			},
			To:      []mail.Address{{Address: to, Name: toName}},
			Subject: subject,
			HTML:    html,
		}

		if err := s.app.NewMailClient().Send(message); err != nil {
			slog.Error("send mail", "to", to, "subject", subject, "error", err)
		}
	}()
}

func lang(u *models.User) string {
	if u.Language != "" {
		return u.Language
	}
	return "en"
}

func (s *Service) SendOrderConfirmation(_ context.Context, order *models.Order, buyer *models.User, event *models.Event, ticket *models.Ticket) {
	subject, html := orderConfirmationEmail(order, event, ticket, lang(buyer))
	s.send(buyer.Email, buyer.Name, subject, html)
}

func (s *Service) SendSellerSale(_ context.Context, order *models.Order, seller *models.User, event *models.Event, ticket *models.Ticket) {
	subject, html := sellerSaleEmail(order, event, ticket, lang(seller))
	s.send(seller.Email, seller.Name, subject, html)
}

func (s *Service) SendPriceDrop(_ context.Context, alert *models.PriceAlert, event *models.Event, oldPrice, newPrice float64) {
	alertLang := alert.Language
	if alertLang == "" {
		alertLang = "en"
	}
	subject, html := priceDropEmail(event, oldPrice, newPrice, s.publicURL, alertLang)
	s.send(alert.Email, "", subject, html)
}

func (s *Service) SendWelcome(_ context.Context, user *models.User) {
	subject, html := welcomeEmail(user.Name, s.publicURL, lang(user))
	s.send(user.Email, user.Name, subject, html)
}
