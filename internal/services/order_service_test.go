package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"fanpass/internal/services/payment"
	"fanpass/internal/status"
	"fanpass/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) GetTicket(id string) (*models.Ticket, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockOrderStore) GetEvent(id string) (*models.Event, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockOrderStore) GetUser(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockOrderStore) ReserveTicket(id string) error {
	return m.Called(id).Error(0)
}

func (m *MockOrderStore) ReleaseTicket(id string) error {
	return m.Called(id).Error(0)
}

func (m *MockOrderStore) MarkTicketSold(id string) error {
	return m.Called(id).Error(0)
}

func (m *MockOrderStore) CreateOrder(o *models.Order) (*models.Order, error) {
	args := m.Called(o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderStore) GetOrder(id string) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderStore) GetOrderBySession(sessionID string) (*models.Order, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderStore) SetOrderSession(orderID, sessionID string) error {
	return m.Called(orderID, sessionID).Error(0)
}

func (m *MockOrderStore) CompleteOrder(orderID, qrPayload string) (bool, error) {
	args := m.Called(orderID, qrPayload)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderStore) CancelOrder(orderID string) (bool, error) {
	args := m.Called(orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderStore) CreateTransaction(tx *models.Transaction) error {
	return m.Called(tx).Error(0)
}

func (m *MockOrderStore) UpdateTransactionStatus(sessionID, txStatus string) error {
	return m.Called(sessionID, txStatus).Error(0)
}

func (m *MockOrderStore) CreatePayout(p *models.Payout) error {
	return m.Called(p).Error(0)
}

func (m *MockOrderStore) ListSellerPayouts(sellerID string) ([]*models.Payout, error) {
	args := m.Called(sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payout), args.Error(1)
}

func (m *MockOrderStore) ListOrderTransactions(orderID string) ([]*models.Transaction, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockOrderStore) IncrementSellerSales(sellerID string) error {
	return m.Called(sellerID).Error(0)
}

func (m *MockOrderStore) ListStalePendingOrders(olderThan time.Duration) ([]*models.Order, error) {
	args := m.Called(olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Order), args.Error(1)
}

func (m *MockOrderStore) ListBuyerOrders(buyerID string) ([]*models.Order, error) {
	args := m.Called(buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Order), args.Error(1)
}

func (m *MockOrderStore) MarkOrderDisputed(orderID string) (bool, error) {
	args := m.Called(orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderStore) CreateDispute(d *models.Dispute) (*models.Dispute, error) {
	args := m.Called(d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *MockOrderStore) CreateRating(r *models.Rating) (*models.Rating, error) {
	args := m.Called(r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rating), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) GetProvider() payment.Provider {
	return payment.ProviderMockpay
}

func (m *MockGateway) CreateSession(ctx context.Context, req *payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSession), args.Error(1)
}

func (m *MockGateway) GetStatus(ctx context.Context, sessionID string) (*payment.SessionStatus, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.SessionStatus), args.Error(1)
}

func (m *MockGateway) VerifyWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WebhookEvent), args.Error(1)
}

func (m *MockGateway) SetNotificationChannel(ch chan *payment.Notification) {
	m.Called(ch)
}

func (m *MockGateway) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendOrderConfirmation(ctx context.Context, order *models.Order, buyer *models.User, event *models.Event, ticket *models.Ticket) {
	m.Called(ctx, order, buyer, event, ticket)
}

func (m *MockNotifier) SendSellerSale(ctx context.Context, order *models.Order, seller *models.User, event *models.Event, ticket *models.Ticket) {
	m.Called(ctx, order, seller, event, ticket)
}

type MockRealtime struct {
	mock.Mock
}

func (m *MockRealtime) PublishOrderStatus(ctx context.Context, orderID, orderStatus string) error {
	return m.Called(ctx, orderID, orderStatus).Error(0)
}

func setupOrderService() (*OrderService, *MockOrderStore, *MockGateway, *MockNotifier, *MockRealtime) {
	st := new(MockOrderStore)
	gw := new(MockGateway)
	nt := new(MockNotifier)
	rt := new(MockRealtime)

	svc := NewOrderService(st, gw, nt, rt, nil, "0.10", 5*time.Second, "http://localhost:8090")
	return svc, st, gw, nt, rt
}

func testTicket() *models.Ticket {
	return &models.Ticket{
		ID:       "ticket-1",
		EventID:  "event-1",
		SellerID: "seller-1",
		Category: "VIP",
		Section:  "Section A",
		Price:    100,
		Currency: "EUR",
		Status:   models.TicketAvailable,
	}
}

func testEvent() *models.Event {
	return &models.Event{
		ID:    "event-1",
		Title: "Liverpool vs Arsenal",
		Venue: "Anfield",
		City:  "Liverpool",
	}
}

func pendingOrder() *models.Order {
	return &models.Order{
		ID:          "order-1",
		BuyerID:     "buyer-1",
		TicketID:    "ticket-1",
		SellerID:    "seller-1",
		EventID:     "event-1",
		TicketPrice: 100,
		Commission:  10,
		TotalAmount: 110,
		Currency:    "EUR",
		Status:      models.OrderPending,
		SessionID:   "sess-1",
	}
}

func TestStartCheckout_Success(t *testing.T) {
	svc, st, gw, _, _ := setupOrderService()
	ctx := context.Background()

	st.On("GetTicket", "ticket-1").Return(testTicket(), nil)
	st.On("GetEvent", "event-1").Return(testEvent(), nil)
	st.On("ReserveTicket", "ticket-1").Return(nil)

	// A 100 EUR listing carries a 10 EUR commission: the buyer pays 110.
	st.On("CreateOrder", mock.MatchedBy(func(o *models.Order) bool {
		return o.TicketPrice == 100 && o.Commission == 10 && o.TotalAmount == 110 && o.Currency == "EUR"
	})).Return(pendingOrder(), nil)

	gw.On("CreateSession", mock.Anything, mock.MatchedBy(func(req *payment.CheckoutRequest) bool {
		return req.Amount.Equal(decimal.NewFromInt(110)) &&
			req.Currency == "EUR" &&
			req.Metadata["order_id"] == "order-1" &&
			req.Metadata["buyer_id"] == "buyer-1"
	})).Return(&payment.CheckoutSession{SessionID: "sess-1", URL: "https://pay.example/sess-1"}, nil)

	st.On("SetOrderSession", "order-1", "sess-1").Return(nil)
	st.On("CreateTransaction", mock.MatchedBy(func(tx *models.Transaction) bool {
		return tx.SessionID == "sess-1" && tx.Status == models.TransactionInitiated && tx.Amount == 110
	})).Return(nil)

	order, payURL, err := svc.StartCheckout(ctx, "buyer-1", "ticket-1", "")

	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/sess-1", payURL)
	assert.Equal(t, "sess-1", order.SessionID)
	assert.Equal(t, models.OrderPending, order.Status)
	st.AssertExpectations(t)
	gw.AssertExpectations(t)
	st.AssertNotCalled(t, "ReleaseTicket", mock.Anything)
}

func TestStartCheckout_TicketNotAvailable(t *testing.T) {
	svc, st, _, _, _ := setupOrderService()

	st.On("GetTicket", "ticket-1").Return(testTicket(), nil)
	st.On("GetEvent", "event-1").Return(testEvent(), nil)
	st.On("ReserveTicket", "ticket-1").Return(status.ErrNotAvailable)

	_, _, err := svc.StartCheckout(context.Background(), "buyer-1", "ticket-1", "")

	assert.ErrorIs(t, err, status.ErrNotAvailable)
	st.AssertNotCalled(t, "CreateOrder", mock.Anything)
}

func TestStartCheckout_UnknownTicket(t *testing.T) {
	svc, st, _, _, _ := setupOrderService()

	// A ticket id that matches nothing reads as not available, the same
	// answer a concurrent buyer gets for a ticket that just sold.
	st.On("GetTicket", "ticket-404").Return(nil, sql.ErrNoRows)

	_, _, err := svc.StartCheckout(context.Background(), "buyer-1", "ticket-404", "")

	assert.ErrorIs(t, err, status.ErrNotAvailable)
	st.AssertNotCalled(t, "ReserveTicket", mock.Anything)
}

func TestStartCheckout_OwnListingRejected(t *testing.T) {
	svc, st, _, _, _ := setupOrderService()

	st.On("GetTicket", "ticket-1").Return(testTicket(), nil)

	_, _, err := svc.StartCheckout(context.Background(), "seller-1", "ticket-1", "")

	assert.ErrorIs(t, err, status.ErrNotAuthorized)
	st.AssertNotCalled(t, "ReserveTicket", mock.Anything)
}

func TestStartCheckout_GatewayFailureReleasesTicket(t *testing.T) {
	svc, st, gw, _, _ := setupOrderService()

	st.On("GetTicket", "ticket-1").Return(testTicket(), nil)
	st.On("GetEvent", "event-1").Return(testEvent(), nil)
	st.On("ReserveTicket", "ticket-1").Return(nil)
	st.On("CreateOrder", mock.Anything).Return(pendingOrder(), nil)
	gw.On("CreateSession", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	st.On("CancelOrder", "order-1").Return(true, nil)
	st.On("ReleaseTicket", "ticket-1").Return(nil)

	_, _, err := svc.StartCheckout(context.Background(), "buyer-1", "ticket-1", "")

	assert.ErrorIs(t, err, status.ErrGateway)
	st.AssertCalled(t, "CancelOrder", "order-1")
	st.AssertCalled(t, "ReleaseTicket", "ticket-1")
	st.AssertNotCalled(t, "SetOrderSession", mock.Anything, mock.Anything)
}

const expectedQRPayload = `{"order_id":"order-1","ticket_id":"ticket-1","event_id":"event-1"}`

func expectCompletion(st *MockOrderStore, nt *MockNotifier, rt *MockRealtime) {
	st.On("CompleteOrder", "order-1", expectedQRPayload).Return(true, nil).Once()
	st.On("MarkTicketSold", "ticket-1").Return(nil).Once()
	st.On("IncrementSellerSales", "seller-1").Return(nil).Once()
	st.On("CreatePayout", mock.MatchedBy(func(p *models.Payout) bool {
		return p.OrderID == "order-1" && p.GrossAmount == 110 && p.Commission == 10 && p.NetAmount == 100
	})).Return(nil).Once()
	st.On("GetUser", "buyer-1").Return(&models.User{ID: "buyer-1", Email: "buyer@example.com"}, nil)
	st.On("GetUser", "seller-1").Return(&models.User{ID: "seller-1", Email: "seller@example.com"}, nil)
	st.On("GetEvent", "event-1").Return(testEvent(), nil)
	st.On("GetTicket", "ticket-1").Return(testTicket(), nil)
	nt.On("SendOrderConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
	nt.On("SendSellerSale", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
	rt.On("PublishOrderStatus", mock.Anything, "order-1", models.OrderCompleted).Return(nil)
}

func TestConfirmPayment_PaidCompletesOrder(t *testing.T) {
	svc, st, gw, nt, rt := setupOrderService()

	st.On("GetOrderBySession", "sess-1").Return(pendingOrder(), nil)
	gw.On("GetStatus", mock.Anything, "sess-1").
		Return(&payment.SessionStatus{SessionID: "sess-1", Status: payment.StatusPaid}, nil)
	st.On("UpdateTransactionStatus", "sess-1", payment.StatusPaid).Return(nil)
	expectCompletion(st, nt, rt)

	order, err := svc.ConfirmPayment(context.Background(), "sess-1", "poll")

	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, order.Status)
	assert.Equal(t, expectedQRPayload, order.QRPayload)
	st.AssertExpectations(t)
	nt.AssertExpectations(t)
	rt.AssertExpectations(t)
}

func TestConfirmPayment_SecondConfirmationIsIdempotent(t *testing.T) {
	svc, st, gw, nt, rt := setupOrderService()

	// First confirmation completes the order.
	st.On("GetOrderBySession", "sess-1").Return(pendingOrder(), nil).Once()
	gw.On("GetStatus", mock.Anything, "sess-1").
		Return(&payment.SessionStatus{SessionID: "sess-1", Status: payment.StatusPaid}, nil).Once()
	st.On("UpdateTransactionStatus", "sess-1", payment.StatusPaid).Return(nil).Once()
	expectCompletion(st, nt, rt)

	first, err := svc.ConfirmPayment(context.Background(), "sess-1", "webhook")
	require.NoError(t, err)
	require.Equal(t, models.OrderCompleted, first.Status)

	// The second confirmation sees the terminal order and stops without
	// touching the gateway or writing anything.
	completed := pendingOrder()
	completed.Status = models.OrderCompleted
	st.On("GetOrderBySession", "sess-1").Return(completed, nil).Once()

	second, err := svc.ConfirmPayment(context.Background(), "sess-1", "poll")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, second.Status)

	st.AssertNumberOfCalls(t, "CreatePayout", 1)
	st.AssertNumberOfCalls(t, "CompleteOrder", 1)
	gw.AssertNumberOfCalls(t, "GetStatus", 1)
}

func TestConfirmPayment_LostRaceCreatesNoPayout(t *testing.T) {
	svc, st, gw, _, _ := setupOrderService()

	st.On("GetOrderBySession", "sess-1").Return(pendingOrder(), nil)
	gw.On("GetStatus", mock.Anything, "sess-1").
		Return(&payment.SessionStatus{SessionID: "sess-1", Status: payment.StatusPaid}, nil)
	st.On("UpdateTransactionStatus", "sess-1", payment.StatusPaid).Return(nil)

	// Another confirmation finalized the order between the read and the
	// conditional update.
	st.On("CompleteOrder", "order-1", mock.Anything).Return(false, nil)
	completed := pendingOrder()
	completed.Status = models.OrderCompleted
	st.On("GetOrder", "order-1").Return(completed, nil)

	order, err := svc.ConfirmPayment(context.Background(), "sess-1", "poll")

	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, order.Status)
	st.AssertNotCalled(t, "CreatePayout", mock.Anything)
	st.AssertNotCalled(t, "MarkTicketSold", mock.Anything)
}

func TestConfirmPayment_FailedPaymentFreesTicket(t *testing.T) {
	svc, st, gw, _, rt := setupOrderService()

	st.On("GetOrderBySession", "sess-1").Return(pendingOrder(), nil)
	gw.On("GetStatus", mock.Anything, "sess-1").
		Return(&payment.SessionStatus{SessionID: "sess-1", Status: payment.StatusFailed}, nil)
	st.On("UpdateTransactionStatus", "sess-1", payment.StatusFailed).Return(nil)
	st.On("CancelOrder", "order-1").Return(true, nil)
	st.On("ReleaseTicket", "ticket-1").Return(nil)
	rt.On("PublishOrderStatus", mock.Anything, "order-1", models.OrderCancelled).Return(nil)

	order, err := svc.ConfirmPayment(context.Background(), "sess-1", "poll")

	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, order.Status)
	st.AssertCalled(t, "ReleaseTicket", "ticket-1")
	st.AssertNotCalled(t, "CompleteOrder", mock.Anything, mock.Anything)
}

func TestConfirmPayment_UnknownSession(t *testing.T) {
	svc, st, _, _, _ := setupOrderService()

	st.On("GetOrderBySession", "sess-x").Return(nil, status.ErrUnknownSession)

	_, err := svc.ConfirmPayment(context.Background(), "sess-x", "poll")

	assert.ErrorIs(t, err, status.ErrUnknownSession)
}

func TestConfirmPayment_StillPendingChangesNothing(t *testing.T) {
	svc, st, gw, _, _ := setupOrderService()

	st.On("GetOrderBySession", "sess-1").Return(pendingOrder(), nil)
	gw.On("GetStatus", mock.Anything, "sess-1").
		Return(&payment.SessionStatus{SessionID: "sess-1", Status: payment.StatusInitiated}, nil)
	st.On("UpdateTransactionStatus", "sess-1", payment.StatusInitiated).Return(nil)

	order, err := svc.ConfirmPayment(context.Background(), "sess-1", "poll")

	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	st.AssertNotCalled(t, "CompleteOrder", mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "CancelOrder", mock.Anything)
}

func TestConfirmPaymentFromEvent_PaidWithoutPolling(t *testing.T) {
	svc, st, gw, nt, rt := setupOrderService()

	st.On("GetOrderBySession", "sess-1").Return(pendingOrder(), nil)
	st.On("UpdateTransactionStatus", "sess-1", payment.StatusPaid).Return(nil)
	expectCompletion(st, nt, rt)

	event := &payment.WebhookEvent{
		ID:   "evt-1",
		Type: "checkout.session.completed",
		Session: &payment.SessionStatus{
			SessionID: "sess-1",
			Status:    payment.StatusPaid,
		},
	}

	order, err := svc.ConfirmPaymentFromEvent(context.Background(), event, "webhook")

	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, order.Status)
	gw.AssertNotCalled(t, "GetStatus", mock.Anything, mock.Anything)
}

func TestOpenDispute_OnlyBuyerAndOnlyOnce(t *testing.T) {
	svc, st, _, _, rt := setupOrderService()

	completed := pendingOrder()
	completed.Status = models.OrderCompleted
	st.On("GetOrder", "order-1").Return(completed, nil)

	_, err := svc.OpenDispute(context.Background(), "someone-else", "order-1", "never arrived")
	assert.ErrorIs(t, err, status.ErrNotAuthorized)

	st.On("MarkOrderDisputed", "order-1").Return(true, nil).Once()
	st.On("CreateDispute", mock.Anything).Return(&models.Dispute{ID: "d-1", OrderID: "order-1", Status: "open"}, nil)
	rt.On("PublishOrderStatus", mock.Anything, "order-1", models.OrderDisputed).Return(nil)

	dispute, err := svc.OpenDispute(context.Background(), "buyer-1", "order-1", "never arrived")
	require.NoError(t, err)
	assert.Equal(t, "open", dispute.Status)

	// The conditional flip already happened, a second dispute is refused.
	st.On("MarkOrderDisputed", "order-1").Return(false, nil).Once()
	_, err = svc.OpenDispute(context.Background(), "buyer-1", "order-1", "again")
	assert.Error(t, err)
}

func TestGetOrderDetail_IncludesTransactionTrail(t *testing.T) {
	svc, st, _, _, _ := setupOrderService()

	completed := pendingOrder()
	completed.Status = models.OrderCompleted
	st.On("GetOrder", "order-1").Return(completed, nil)
	st.On("ListOrderTransactions", "order-1").Return([]*models.Transaction{
		{OrderID: "order-1", SessionID: "sess-1", Status: models.TransactionPaid, Amount: 110},
	}, nil)

	detail, err := svc.GetOrderDetail(context.Background(), "order-1")

	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, detail.Order.Status)
	require.Len(t, detail.Transactions, 1)
	assert.Equal(t, models.TransactionPaid, detail.Transactions[0].Status)
}

func TestListSellerPayouts(t *testing.T) {
	svc, st, _, _, _ := setupOrderService()

	st.On("ListSellerPayouts", "seller-1").Return([]*models.Payout{
		{OrderID: "order-1", SellerID: "seller-1", GrossAmount: 110, Commission: 10, NetAmount: 100},
	}, nil)

	payouts, err := svc.ListSellerPayouts(context.Background(), "seller-1")

	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, float64(100), payouts[0].NetAmount)
}

func TestSweeper_ExpiresStaleReservation(t *testing.T) {
	svc, st, gw, _, rt := setupOrderService()

	stale := pendingOrder()
	st.On("ListStalePendingOrders", 30*time.Minute).Return([]*models.Order{stale}, nil)

	// Gateway still reports the session unpaid, so the reservation expires.
	st.On("GetOrderBySession", "sess-1").Return(stale, nil)
	gw.On("GetStatus", mock.Anything, "sess-1").
		Return(&payment.SessionStatus{SessionID: "sess-1", Status: payment.StatusInitiated}, nil)
	st.On("UpdateTransactionStatus", "sess-1", payment.StatusInitiated).Return(nil)
	st.On("UpdateTransactionStatus", "sess-1", models.TransactionExpired).Return(nil)
	st.On("CancelOrder", "order-1").Return(true, nil)
	st.On("ReleaseTicket", "ticket-1").Return(nil)
	rt.On("PublishOrderStatus", mock.Anything, "order-1", models.OrderCancelled).Return(nil)

	svc.sweepOnce(context.Background(), 30*time.Minute)

	st.AssertCalled(t, "CancelOrder", "order-1")
	st.AssertCalled(t, "ReleaseTicket", "ticket-1")
}

func TestSweeper_PaidStaleOrderCompletesInsteadOfExpiring(t *testing.T) {
	svc, st, gw, nt, rt := setupOrderService()

	stale := pendingOrder()
	st.On("ListStalePendingOrders", 30*time.Minute).Return([]*models.Order{stale}, nil)

	// The webhook was lost but the buyer paid: the sweeper completes the
	// order instead of cancelling it.
	st.On("GetOrderBySession", "sess-1").Return(stale, nil)
	gw.On("GetStatus", mock.Anything, "sess-1").
		Return(&payment.SessionStatus{SessionID: "sess-1", Status: payment.StatusPaid}, nil)
	st.On("UpdateTransactionStatus", "sess-1", payment.StatusPaid).Return(nil)
	expectCompletion(st, nt, rt)

	svc.sweepOnce(context.Background(), 30*time.Minute)

	st.AssertCalled(t, "CompleteOrder", "order-1", mock.Anything)
	st.AssertNotCalled(t, "CancelOrder", mock.Anything)
}
