package services

import (
	"context"
	"log/slog"
	"time"

	"fanpass/models"
)

// RunReservationSweeper periodically reconciles stale pending orders with
// the gateway and expires those whose reservation outlived the TTL. It is
// the safety net for lost webhooks and buyers who walked away.
func (s *OrderService) RunReservationSweeper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepOnce(ctx, ttl)
		case <-ctx.Done():
			slog.Info("reservation sweeper stopped")
			return
		}
	}
}

func (s *OrderService) sweepOnce(ctx context.Context, ttl time.Duration) {
	stale, err := s.store.ListStalePendingOrders(ttl)
	if err != nil {
		slog.Error("list stale pending orders", "error", err)
		return
	}

	for _, order := range stale {
		if order.SessionID == "" {
			// Never reached the gateway. Nothing can confirm it.
			s.expire(ctx, order)
			continue
		}

		confirmed, err := s.ConfirmPayment(ctx, order.SessionID, "sweeper")
		if err != nil {
			// Gateway unreachable. The payment may still have gone
			// through, keep the reservation until the next sweep.
			slog.Error("sweep confirm", "order", order.ID, "error", err)
			continue
		}

		if confirmed.Status == models.OrderPending {
			s.expire(ctx, confirmed)
		}
	}
}

func (s *OrderService) expire(ctx context.Context, order *models.Order) {
	if order.SessionID != "" {
		if err := s.store.UpdateTransactionStatus(order.SessionID, models.TransactionExpired); err != nil {
			slog.Error("expire transaction", "session", order.SessionID, "error", err)
		}
	}

	if _, err := s.cancel(ctx, order, "sweeper"); err != nil {
		slog.Error("expire order", "order", order.ID, "error", err)
		return
	}

	slog.Info("expired stale reservation", "order", order.ID, "ticket", order.TicketID)
}
