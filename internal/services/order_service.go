package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fanpass/internal/services/payment"
	"fanpass/internal/status"
	"fanpass/models"
	"fanpass/monitoring"
	"fanpass/utils"

	"github.com/shopspring/decimal"
)

// OrderStore is the persistence surface the order lifecycle needs.
type OrderStore interface {
	GetTicket(id string) (*models.Ticket, error)
	GetEvent(id string) (*models.Event, error)
	GetUser(id string) (*models.User, error)
	ReserveTicket(id string) error
	ReleaseTicket(id string) error
	MarkTicketSold(id string) error
	CreateOrder(o *models.Order) (*models.Order, error)
	GetOrder(id string) (*models.Order, error)
	GetOrderBySession(sessionID string) (*models.Order, error)
	SetOrderSession(orderID, sessionID string) error
	CompleteOrder(orderID, qrPayload string) (bool, error)
	CancelOrder(orderID string) (bool, error)
	CreateTransaction(tx *models.Transaction) error
	UpdateTransactionStatus(sessionID, txStatus string) error
	ListOrderTransactions(orderID string) ([]*models.Transaction, error)
	CreatePayout(p *models.Payout) error
	ListSellerPayouts(sellerID string) ([]*models.Payout, error)
	IncrementSellerSales(sellerID string) error
	ListStalePendingOrders(olderThan time.Duration) ([]*models.Order, error)
	ListBuyerOrders(buyerID string) ([]*models.Order, error)
	MarkOrderDisputed(orderID string) (bool, error)
	CreateDispute(d *models.Dispute) (*models.Dispute, error)
	CreateRating(r *models.Rating) (*models.Rating, error)
}

// Notifier sends transactional email about order outcomes.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order, buyer *models.User, event *models.Event, ticket *models.Ticket)
	SendSellerSale(ctx context.Context, order *models.Order, seller *models.User, event *models.Event, ticket *models.Ticket)
}

// RealtimePublisher pushes order status changes to connected clients.
type RealtimePublisher interface {
	PublishOrderStatus(ctx context.Context, orderID, orderStatus string) error
}

// OrderService drives the order and payment lifecycle: checkout, payment
// confirmation from every source, and the compensations when a payment
// falls through.
type OrderService struct {
	store    OrderStore
	gateway  payment.Gateway
	notifier Notifier
	realtime RealtimePublisher
	monitor  *monitoring.Monitor
	cb       *utils.CircuitBreaker

	commissionRate decimal.Decimal
	gatewayTimeout time.Duration
	publicURL      string
}

func NewOrderService(
	store OrderStore,
	gateway payment.Gateway,
	notifier Notifier,
	realtime RealtimePublisher,
	monitor *monitoring.Monitor,
	commissionRate string,
	gatewayTimeout time.Duration,
	publicURL string,
) *OrderService {
	rate, err := decimal.NewFromString(commissionRate)
	if err != nil {
		slog.Warn("invalid commission rate, falling back to 10%", "rate", commissionRate)
		rate = decimal.NewFromFloat(0.10)
	}

	return &OrderService{
		store:          store,
		gateway:        gateway,
		notifier:       notifier,
		realtime:       realtime,
		monitor:        monitor,
		cb:             utils.NewCircuitBreaker("payment-gateway"),
		commissionRate: rate,
		gatewayTimeout: gatewayTimeout,
		publicURL:      publicURL,
	}
}

// StartCheckout reserves a ticket for the buyer, opens a payment session
// and returns the pending order together with the hosted payment URL.
//
// The reservation is a conditional status flip, so concurrent buyers of
// the same ticket race and exactly one gets past it. Every failure after
// the reservation releases the ticket again.
func (s *OrderService) StartCheckout(ctx context.Context, buyerID, ticketID, originURL string) (*models.Order, string, error) {
	ticket, err := s.store.GetTicket(ticketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, status.ErrNotAvailable) {
			return nil, "", fmt.Errorf("startCheckout: ticket %s: %w", ticketID, status.ErrNotAvailable)
		}
		return nil, "", fmt.Errorf("startCheckout: %v", err)
	}
	if ticket.SellerID == buyerID {
		return nil, "", fmt.Errorf("startCheckout: buying your own listing: %w", status.ErrNotAuthorized)
	}

	event, err := s.store.GetEvent(ticket.EventID)
	if err != nil {
		return nil, "", fmt.Errorf("startCheckout: %v", err)
	}

	if err := s.store.ReserveTicket(ticketID); err != nil {
		s.monitor.TrackCheckout("reserve", "conflict")
		return nil, "", err
	}

	price := ticket.DecimalPrice()
	commission, total := models.Pricing(price, s.commissionRate)

	order, err := s.store.CreateOrder(&models.Order{
		BuyerID:     buyerID,
		TicketID:    ticket.ID,
		SellerID:    ticket.SellerID,
		EventID:     ticket.EventID,
		TicketPrice: price.InexactFloat64(),
		Commission:  commission.InexactFloat64(),
		TotalAmount: total.InexactFloat64(),
		Currency:    ticket.Currency,
	})
	if err != nil {
		s.releaseQuietly(ticket.ID)
		return nil, "", fmt.Errorf("startCheckout: %v", err)
	}

	session, err := s.createSession(ctx, order, event, ticket, total, originURL)
	if err != nil {
		if _, cancelErr := s.store.CancelOrder(order.ID); cancelErr != nil {
			slog.Error("cancel order after gateway failure", "order", order.ID, "error", cancelErr)
		}
		s.releaseQuietly(ticket.ID)
		s.monitor.TrackCheckout("create_session", "error")
		return nil, "", fmt.Errorf("startCheckout: %v: %w", err, status.ErrGateway)
	}

	if err := s.store.SetOrderSession(order.ID, session.SessionID); err != nil {
		// Without the session id on the order no confirmation path can
		// ever find it, so give the ticket back.
		if _, cancelErr := s.store.CancelOrder(order.ID); cancelErr != nil {
			slog.Error("cancel order after session attach failure", "order", order.ID, "error", cancelErr)
		}
		s.releaseQuietly(ticket.ID)
		return nil, "", fmt.Errorf("startCheckout: %v", err)
	}
	order.SessionID = session.SessionID

	if err := s.store.CreateTransaction(&models.Transaction{
		OrderID:   order.ID,
		SessionID: session.SessionID,
		Amount:    order.TotalAmount,
		Currency:  order.Currency,
		Status:    models.TransactionInitiated,
	}); err != nil {
		// The transaction mirror is observational, a missing row must
		// not fail the checkout.
		slog.Error("record initiated transaction", "order", order.ID, "error", err)
	}

	s.monitor.TrackCheckout("start", "ok")

	return order, session.URL, nil
}

func (s *OrderService) createSession(ctx context.Context, order *models.Order, event *models.Event, ticket *models.Ticket, total decimal.Decimal, originURL string) (*payment.CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	itemName := fmt.Sprintf("%s | %s", event.Title, ticket.Category)

	// Redirects go back to the frontend origin that started the checkout
	// when the client provides one.
	baseURL := originURL
	if baseURL == "" {
		baseURL = s.publicURL
	}

	started := time.Now()
	result, err := s.cb.Execute(ctx, func() (any, error) {
		return s.gateway.CreateSession(ctx, &payment.CheckoutRequest{
			Amount:     total,
			Currency:   order.Currency,
			ItemName:   itemName,
			SuccessURL: fmt.Sprintf("%s/orders/%s/success?session_id={CHECKOUT_SESSION_ID}", baseURL, order.ID),
			CancelURL:  fmt.Sprintf("%s/orders/%s/cancelled", baseURL, order.ID),
			Metadata: map[string]string{
				"order_id": order.ID,
				"buyer_id": order.BuyerID,
			},
		})
	})
	s.monitor.TrackGatewayCall(string(s.gateway.GetProvider()), "create_session", time.Since(started))
	if err != nil {
		return nil, err
	}

	return result.(*payment.CheckoutSession), nil
}

// ConfirmPayment polls the gateway for the authoritative state of a
// checkout session and applies it. It is idempotent: an order that already
// reached a terminal state is returned unchanged no matter what the
// gateway says now.
func (s *OrderService) ConfirmPayment(ctx context.Context, sessionID, source string) (*models.Order, error) {
	order, err := s.store.GetOrderBySession(sessionID)
	if err != nil {
		return nil, err
	}

	if order.Finalized() {
		s.monitor.TrackFinalize(source, "already_final")
		return order, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	started := time.Now()
	result, err := s.cb.Execute(ctx, func() (any, error) {
		return s.gateway.GetStatus(ctx, sessionID)
	})
	s.monitor.TrackGatewayCall(string(s.gateway.GetProvider()), "get_status", time.Since(started))
	if err != nil {
		return nil, fmt.Errorf("confirmPayment: %v: %w", err, status.ErrGateway)
	}

	return s.applyOutcome(ctx, order, result.(*payment.SessionStatus).Status, source)
}

// ConfirmPaymentFromEvent applies an already verified webhook delivery.
// The event carries the provider's own view of the session, so no poll is
// needed.
func (s *OrderService) ConfirmPaymentFromEvent(ctx context.Context, event *payment.WebhookEvent, source string) (*models.Order, error) {
	order, err := s.store.GetOrderBySession(event.Session.SessionID)
	if err != nil {
		return nil, err
	}

	if order.Finalized() {
		s.monitor.TrackFinalize(source, "already_final")
		return order, nil
	}

	return s.applyOutcome(ctx, order, event.Session.Status, source)
}

// ListenNotifications consumes provider push notifications and confirms
// the matching orders. It returns when the context is cancelled.
func (s *OrderService) ListenNotifications(ctx context.Context, ch chan *payment.Notification) {
	for {
		select {
		case n := <-ch:
			if _, err := s.applyNotification(ctx, n); err != nil {
				slog.Error("apply payment notification", "session", n.SessionID, "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *OrderService) applyNotification(ctx context.Context, n *payment.Notification) (*models.Order, error) {
	order, err := s.store.GetOrderBySession(n.SessionID)
	if err != nil {
		return nil, err
	}
	if order.Finalized() {
		s.monitor.TrackFinalize("channel", "already_final")
		return order, nil
	}
	return s.applyOutcome(ctx, order, n.Status, "channel")
}

// applyOutcome is the single finalization path shared by polling,
// webhooks, push notifications and the sweeper. Whatever the source, a
// paid outcome completes the order at most once and a failed or expired
// outcome cancels it and frees the ticket.
func (s *OrderService) applyOutcome(ctx context.Context, order *models.Order, outcome, source string) (*models.Order, error) {
	if err := s.store.UpdateTransactionStatus(order.SessionID, outcome); err != nil {
		slog.Error("update transaction status", "session", order.SessionID, "error", err)
	}

	switch outcome {
	case payment.StatusPaid:
		return s.complete(ctx, order, source)

	case payment.StatusFailed, payment.StatusExpired:
		return s.cancel(ctx, order, source)

	default:
		// Still initiated on the provider side. Nothing to apply.
		s.monitor.TrackFinalize(source, "still_pending")
		return order, nil
	}
}

func (s *OrderService) complete(ctx context.Context, order *models.Order, source string) (*models.Order, error) {
	// The payload derives only from the order's own identifiers, so every
	// confirmation source produces the same bytes.
	qr := fmt.Sprintf(`{"order_id":"%s","ticket_id":"%s","event_id":"%s"}`,
		order.ID, order.TicketID, order.EventID)

	won, err := s.store.CompleteOrder(order.ID, qr)
	if err != nil {
		return nil, fmt.Errorf("complete: %v", err)
	}
	if !won {
		// A concurrent confirmation got there first. Return the state it
		// produced.
		s.monitor.TrackFinalize(source, "lost_race")
		return s.store.GetOrder(order.ID)
	}

	if err := s.store.MarkTicketSold(order.TicketID); err != nil {
		slog.Error("mark ticket sold", "ticket", order.TicketID, "error", err)
	}
	if err := s.store.IncrementSellerSales(order.SellerID); err != nil {
		slog.Error("increment seller sales", "seller", order.SellerID, "error", err)
	}

	// The buyer pays price plus commission; the platform keeps the
	// commission and the seller is owed the full listing price.
	if err := s.store.CreatePayout(&models.Payout{
		OrderID:     order.ID,
		SellerID:    order.SellerID,
		GrossAmount: order.TotalAmount,
		Commission:  order.Commission,
		NetAmount:   order.TicketPrice,
		Currency:    order.Currency,
	}); err != nil {
		slog.Error("create payout", "order", order.ID, "error", err)
	}

	order.Status = models.OrderCompleted
	order.QRPayload = qr
	order.CompletedAt = time.Now().UTC().Format(time.RFC3339)

	s.notifyCompleted(ctx, order)

	if err := s.realtime.PublishOrderStatus(ctx, order.ID, models.OrderCompleted); err != nil {
		slog.Error("publish order status", "order", order.ID, "error", err)
	}

	s.monitor.TrackFinalize(source, "completed")

	return order, nil
}

func (s *OrderService) cancel(ctx context.Context, order *models.Order, source string) (*models.Order, error) {
	won, err := s.store.CancelOrder(order.ID)
	if err != nil {
		return nil, fmt.Errorf("cancel: %v", err)
	}
	if !won {
		s.monitor.TrackFinalize(source, "lost_race")
		return s.store.GetOrder(order.ID)
	}

	s.releaseQuietly(order.TicketID)

	order.Status = models.OrderCancelled

	if err := s.realtime.PublishOrderStatus(ctx, order.ID, models.OrderCancelled); err != nil {
		slog.Error("publish order status", "order", order.ID, "error", err)
	}

	s.monitor.TrackFinalize(source, "cancelled")

	return order, nil
}

func (s *OrderService) notifyCompleted(ctx context.Context, order *models.Order) {
	buyer, err := s.store.GetUser(order.BuyerID)
	if err != nil {
		slog.Error("load buyer for notification", "order", order.ID, "error", err)
		return
	}
	seller, err := s.store.GetUser(order.SellerID)
	if err != nil {
		slog.Error("load seller for notification", "order", order.ID, "error", err)
		return
	}
	event, err := s.store.GetEvent(order.EventID)
	if err != nil {
		slog.Error("load event for notification", "order", order.ID, "error", err)
		return
	}
	ticket, err := s.store.GetTicket(order.TicketID)
	if err != nil {
		slog.Error("load ticket for notification", "order", order.ID, "error", err)
		return
	}

	s.notifier.SendOrderConfirmation(ctx, order, buyer, event, ticket)
	s.notifier.SendSellerSale(ctx, order, seller, event, ticket)
}

func (s *OrderService) releaseQuietly(ticketID string) {
	if err := s.store.ReleaseTicket(ticketID); err != nil {
		slog.Error("release ticket", "ticket", ticketID, "error", err)
	}
}

// GetOrder returns one order by id.
func (s *OrderService) GetOrder(_ context.Context, orderID string) (*models.Order, error) {
	return s.store.GetOrder(orderID)
}

// OrderDetail pairs an order with the payment attempts recorded for it.
type OrderDetail struct {
	Order        *models.Order         `json:"order"`
	Transactions []*models.Transaction `json:"transactions"`
}

// GetOrderDetail returns an order together with its transaction trail.
func (s *OrderService) GetOrderDetail(_ context.Context, orderID string) (*OrderDetail, error) {
	order, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.ListOrderTransactions(orderID)
	if err != nil {
		return nil, fmt.Errorf("getOrderDetail: %v", err)
	}
	return &OrderDetail{Order: order, Transactions: txs}, nil
}

// ListSellerPayouts returns what the marketplace owes a seller, newest
// first.
func (s *OrderService) ListSellerPayouts(_ context.Context, sellerID string) ([]*models.Payout, error) {
	return s.store.ListSellerPayouts(sellerID)
}

// ListBuyerOrders returns a buyer's order history, newest first.
func (s *OrderService) ListBuyerOrders(_ context.Context, buyerID string) ([]*models.Order, error) {
	return s.store.ListBuyerOrders(buyerID)
}

// OpenDispute moves a completed order into the disputed state and records
// the dispute. Only the buyer of the order can open one, and only once:
// the conditional status flip rejects a second attempt.
func (s *OrderService) OpenDispute(ctx context.Context, userID, orderID, reason string) (*models.Dispute, error) {
	order, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != userID {
		return nil, fmt.Errorf("openDispute: order %s belongs to another buyer: %w", orderID, status.ErrNotAuthorized)
	}

	won, err := s.store.MarkOrderDisputed(orderID)
	if err != nil {
		return nil, fmt.Errorf("openDispute: %v", err)
	}
	if !won {
		return nil, fmt.Errorf("openDispute: order %s is not completed", orderID)
	}

	dispute, err := s.store.CreateDispute(&models.Dispute{
		OrderID:  orderID,
		OpenedBy: userID,
		Reason:   reason,
	})
	if err != nil {
		return nil, fmt.Errorf("openDispute: %v", err)
	}

	if err := s.realtime.PublishOrderStatus(ctx, orderID, models.OrderDisputed); err != nil {
		slog.Error("publish order status", "order", orderID, "error", err)
	}

	return dispute, nil
}

// RateSeller records the buyer's rating for a completed purchase. The
// unique index on order_id keeps it to one rating per order.
func (s *OrderService) RateSeller(_ context.Context, userID, orderID string, score int, comment string) (*models.Rating, error) {
	if score < 1 || score > 5 {
		return nil, fmt.Errorf("rateSeller: score must be between 1 and 5")
	}

	order, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != userID {
		return nil, fmt.Errorf("rateSeller: order %s belongs to another buyer: %w", orderID, status.ErrNotAuthorized)
	}
	if order.Status != models.OrderCompleted {
		return nil, fmt.Errorf("rateSeller: order %s is not completed", orderID)
	}

	return s.store.CreateRating(&models.Rating{
		SellerID: order.SellerID,
		BuyerID:  userID,
		OrderID:  orderID,
		Score:    score,
		Comment:  comment,
	})
}
