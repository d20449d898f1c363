package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"fanpass/internal/services"
	"fanpass/internal/services/payment"
	"fanpass/internal/status"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type CheckoutHandler struct {
	app          *pocketbase.PocketBase
	orderService *services.OrderService
	gateway      payment.Gateway
	authHandler  *AuthHandler
	devMode      bool
}

func NewCheckoutHandler(app *pocketbase.PocketBase, orderService *services.OrderService, gateway payment.Gateway, authHandler *AuthHandler, devMode bool) *CheckoutHandler {
	return &CheckoutHandler{
		app:          app,
		orderService: orderService,
		gateway:      gateway,
		authHandler:  authHandler,
		devMode:      devMode,
	}
}

// CreateCheckout - reserve a ticket and open a payment session
func (h *CheckoutHandler) CreateCheckout(e *core.RequestEvent) error {
	user, err := h.authHandler.RequireCustomer(e)
	if err != nil {
		return err
	}

	var req struct {
		TicketID  string `json:"ticket_id"`
		OriginURL string `json:"origin_url"`
	}
	if err := e.BindBody(&req); err != nil || req.TicketID == "" {
		return apis.NewBadRequestError("ticket_id is required", err)
	}

	order, payURL, err := h.orderService.StartCheckout(e.Request.Context(), user.ID, req.TicketID, req.OriginURL)
	if err != nil {
		switch {
		case errors.Is(err, status.ErrNotAvailable):
			return apis.NewNotFoundError("Ticket not available", nil)
		case errors.Is(err, status.ErrNotAuthorized):
			return apis.NewForbiddenError("You cannot buy your own listing", nil)
		case errors.Is(err, status.ErrGateway):
			return apis.NewApiError(http.StatusBadGateway, "Payment provider unavailable, ticket released", nil)
		default:
			return apis.NewBadRequestError("Checkout failed", err)
		}
	}

	return e.JSON(http.StatusOK, map[string]any{
		"order":       order,
		"payment_url": payURL,
		"session_id":  order.SessionID,
	})
}

// CheckoutStatus - poll the authoritative payment state of a session
func (h *CheckoutHandler) CheckoutStatus(e *core.RequestEvent) error {
	user, err := h.authHandler.RequireCustomer(e)
	if err != nil {
		return err
	}

	sessionID := e.Request.PathValue("sessionId")

	order, err := h.orderService.ConfirmPayment(e.Request.Context(), sessionID, "poll")
	if err != nil {
		switch {
		case errors.Is(err, status.ErrUnknownSession):
			return apis.NewNotFoundError("Unknown checkout session", nil)
		case errors.Is(err, status.ErrGateway):
			return apis.NewApiError(http.StatusBadGateway, "Payment provider unavailable", nil)
		default:
			return apis.NewApiError(http.StatusInternalServerError, "Could not confirm payment", nil)
		}
	}

	if order.BuyerID != user.ID {
		return apis.NewForbiddenError("Access denied", nil)
	}

	return e.JSON(http.StatusOK, order)
}

// Webhook - asynchronous payment notifications from the provider.
//
// Deliveries that fail signature verification get a 400 so the provider
// knows they were rejected. Everything after verification answers 200 even
// on processing errors: the provider would otherwise retry forever against
// a bug that retries cannot fix, and the poll path reconciles anyway.
func (h *CheckoutHandler) Webhook(e *core.RequestEvent) error {
	body, err := io.ReadAll(e.Request.Body)
	if err != nil {
		return apis.NewBadRequestError("Could not read body", nil)
	}

	event, err := h.gateway.VerifyWebhook(body, e.Request.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, status.ErrInvalidSignature) {
			return apis.NewBadRequestError("Invalid signature", nil)
		}
		return apis.NewBadRequestError("Invalid payload", nil)
	}

	if _, err := h.orderService.ConfirmPaymentFromEvent(e.Request.Context(), event, "webhook"); err != nil {
		slog.Error("process webhook", "event", event.ID, "type", event.Type, "error", err)
	}

	return e.JSON(http.StatusOK, webhookAck)
}

// webhookAck acknowledges a webhook delivery. Providers check for a JSON
// boolean, not the string "true".
var webhookAck = map[string]any{"received": true}

// ListOrders - the caller's order history
func (h *CheckoutHandler) ListOrders(e *core.RequestEvent) error {
	user, err := h.authHandler.RequireCustomer(e)
	if err != nil {
		return err
	}

	orders, err := h.orderService.ListBuyerOrders(e.Request.Context(), user.ID)
	if err != nil {
		return apis.NewApiError(http.StatusInternalServerError, "Could not load orders", nil)
	}

	return e.JSON(http.StatusOK, orders)
}

// GetOrder - one order, buyer or seller only
func (h *CheckoutHandler) GetOrder(e *core.RequestEvent) error {
	user, err := h.authHandler.RequireCustomer(e)
	if err != nil {
		return err
	}

	detail, err := h.orderService.GetOrderDetail(e.Request.Context(), e.Request.PathValue("orderId"))
	if err != nil {
		return apis.NewNotFoundError("Order not found", nil)
	}

	if detail.Order.BuyerID != user.ID && detail.Order.SellerID != user.ID {
		return apis.NewForbiddenError("Access denied", nil)
	}

	return e.JSON(http.StatusOK, detail)
}

// ListPayouts - what the marketplace owes the calling seller
func (h *CheckoutHandler) ListPayouts(e *core.RequestEvent) error {
	user, err := h.authHandler.RequireCustomer(e)
	if err != nil {
		return err
	}

	payouts, err := h.orderService.ListSellerPayouts(e.Request.Context(), user.ID)
	if err != nil {
		return apis.NewApiError(http.StatusInternalServerError, "Could not load payouts", nil)
	}

	return e.JSON(http.StatusOK, payouts)
}

// OpenDispute - flag a completed order
func (h *CheckoutHandler) OpenDispute(e *core.RequestEvent) error {
	user, err := h.authHandler.RequireCustomer(e)
	if err != nil {
		return err
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := e.BindBody(&req); err != nil || req.Reason == "" {
		return apis.NewBadRequestError("reason is required", err)
	}

	dispute, err := h.orderService.OpenDispute(e.Request.Context(), user.ID, e.Request.PathValue("orderId"), req.Reason)
	if err != nil {
		if errors.Is(err, status.ErrNotAuthorized) {
			return apis.NewForbiddenError("Access denied", nil)
		}
		return apis.NewBadRequestError("Could not open dispute", err)
	}

	return e.JSON(http.StatusCreated, dispute)
}

// RateSeller - rate the seller after a completed purchase
func (h *CheckoutHandler) RateSeller(e *core.RequestEvent) error {
	user, err := h.authHandler.RequireCustomer(e)
	if err != nil {
		return err
	}

	var req struct {
		Score   int    `json:"score"`
		Comment string `json:"comment"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	rating, err := h.orderService.RateSeller(e.Request.Context(), user.ID, e.Request.PathValue("orderId"), req.Score, req.Comment)
	if err != nil {
		if errors.Is(err, status.ErrNotAuthorized) {
			return apis.NewForbiddenError("Access denied", nil)
		}
		return apis.NewBadRequestError("Could not save rating", err)
	}

	return e.JSON(http.StatusCreated, rating)
}

// SimulatePayment - resolve a mockpay session, development only
func (h *CheckoutHandler) SimulatePayment(e *core.RequestEvent) error {
	if !h.devMode {
		return apis.NewNotFoundError("", nil)
	}

	var req struct {
		SessionID string `json:"session_id"`
		Outcome   string `json:"outcome"`
	}
	if err := e.BindBody(&req); err != nil || req.SessionID == "" {
		return apis.NewBadRequestError("session_id is required", err)
	}
	if req.Outcome == "" {
		req.Outcome = payment.StatusPaid
	}
	if req.Outcome != payment.StatusPaid && req.Outcome != payment.StatusFailed && req.Outcome != payment.StatusExpired {
		return apis.NewBadRequestError("outcome must be paid, failed or expired", nil)
	}

	mp, ok := h.gateway.(*payment.MockpayGateway)
	if !ok {
		return apis.NewBadRequestError("Simulation requires the mockpay provider", nil)
	}

	if err := mp.Resolve(e.Request.Context(), req.SessionID, req.Outcome); err != nil {
		if errors.Is(err, status.ErrUnknownSession) {
			return apis.NewNotFoundError("Unknown session", nil)
		}
		return apis.NewApiError(http.StatusInternalServerError, "Simulation failed", nil)
	}

	return e.JSON(http.StatusOK, map[string]string{"session_id": req.SessionID, "outcome": req.Outcome})
}
