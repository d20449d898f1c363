// Package store is the persistence layer over the embedded PocketBase
// database. State transitions that can race (ticket reservation, order
// finalization) are expressed as conditional UPDATEs so that exactly one
// caller wins.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fanpass/internal/status"
	"fanpass/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

type Store struct {
	app core.App
}

func New(app core.App) *Store {
	return &Store{app: app}
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ----- tickets -----

func (s *Store) GetTicket(id string) (*models.Ticket, error) {
	record, err := s.app.FindRecordById("tickets", id)
	if err != nil {
		// A ticket that does not exist cannot be bought, same as one
		// already reserved or sold.
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("getTicket: %s: %w", id, status.ErrNotAvailable)
		}
		return nil, fmt.Errorf("getTicket: %v", err)
	}
	return models.TicketFromRecord(record), nil
}

// ReserveTicket moves a ticket from available to reserved. The UPDATE is
// conditional on the current status, so of N concurrent buyers exactly one
// wins; the rest get ErrNotAvailable.
func (s *Store) ReserveTicket(id string) error {
	res, err := s.app.DB().NewQuery(
		"UPDATE tickets SET status = {:to} WHERE id = {:id} AND status = {:from}",
	).Bind(dbx.Params{
		"id":   id,
		"from": models.TicketAvailable,
		"to":   models.TicketReserved,
	}).Execute()
	if err != nil {
		return fmt.Errorf("reserveTicket: %v", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reserveTicket: rows affected: %v", err)
	}
	if n == 0 {
		return status.ErrNotAvailable
	}

	return nil
}

// ReleaseTicket returns a reserved ticket to the available pool. Releasing
// a ticket that is not reserved (already sold, already released) is a no-op.
func (s *Store) ReleaseTicket(id string) error {
	_, err := s.app.DB().NewQuery(
		"UPDATE tickets SET status = {:to} WHERE id = {:id} AND status = {:from}",
	).Bind(dbx.Params{
		"id":   id,
		"from": models.TicketReserved,
		"to":   models.TicketAvailable,
	}).Execute()
	if err != nil {
		return fmt.Errorf("releaseTicket: %v", err)
	}
	return nil
}

func (s *Store) MarkTicketSold(id string) error {
	_, err := s.app.DB().NewQuery(
		"UPDATE tickets SET status = {:to} WHERE id = {:id}",
	).Bind(dbx.Params{
		"id": id,
		"to": models.TicketSold,
	}).Execute()
	if err != nil {
		return fmt.Errorf("markTicketSold: %v", err)
	}
	return nil
}

func (s *Store) CreateTicket(t *models.Ticket) (*models.Ticket, error) {
	collection, err := s.app.FindCollectionByNameOrId("tickets")
	if err != nil {
		return nil, fmt.Errorf("createTicket: %v", err)
	}

	record := core.NewRecord(collection)
	record.Set("event_id", t.EventID)
	record.Set("seller_id", t.SellerID)
	record.Set("category", t.Category)
	record.Set("section", t.Section)
	record.Set("row", t.Row)
	record.Set("seat", t.Seat)
	record.Set("price", t.Price)
	record.Set("currency", t.Currency)
	record.Set("status", models.TicketAvailable)
	record.Set("created", nowISO())

	if err := s.app.Save(record); err != nil {
		return nil, fmt.Errorf("createTicket: save: %v", err)
	}

	return models.TicketFromRecord(record), nil
}

func (s *Store) ListEventTickets(eventID string, onlyAvailable bool) ([]*models.Ticket, error) {
	filter := "event_id = {:event}"
	if onlyAvailable {
		filter += " && status = 'available'"
	}

	records, err := s.app.FindRecordsByFilter("tickets", filter, "price", 0, 0, dbx.Params{"event": eventID})
	if err != nil {
		return nil, fmt.Errorf("listEventTickets: %v", err)
	}

	tickets := make([]*models.Ticket, 0, len(records))
	for _, r := range records {
		tickets = append(tickets, models.TicketFromRecord(r))
	}
	return tickets, nil
}

// ----- events -----

func (s *Store) GetEvent(id string) (*models.Event, error) {
	record, err := s.app.FindRecordById("events", id)
	if err != nil {
		return nil, fmt.Errorf("getEvent: %v", err)
	}
	return models.EventFromRecord(record), nil
}

func (s *Store) CreateEvent(e *models.Event) (*models.Event, error) {
	collection, err := s.app.FindCollectionByNameOrId("events")
	if err != nil {
		return nil, fmt.Errorf("createEvent: %v", err)
	}

	record := core.NewRecord(collection)
	record.Set("event_type", e.EventType)
	record.Set("title", e.Title)
	record.Set("subtitle", e.Subtitle)
	record.Set("event_date", e.EventDate)
	record.Set("city", e.City)
	record.Set("country", e.Country)
	record.Set("venue", e.Venue)
	record.Set("image_url", e.ImageURL)
	record.Set("description", e.Description)
	record.Set("categories", e.Categories)

	if err := s.app.Save(record); err != nil {
		return nil, fmt.Errorf("createEvent: save: %v", err)
	}

	return models.EventFromRecord(record), nil
}

// EventFilter narrows the event listing.
type EventFilter struct {
	EventType string
	City      string
	Country   string
	Search    string
	DateFrom  string
	DateTo    string
}

// ListEvents returns events matching the filter, each enriched with its
// available ticket count and lowest listed price from one aggregation pass.
func (s *Store) ListEvents(f EventFilter) ([]*models.Event, error) {
	filter := "id != ''"
	params := dbx.Params{}
	if f.EventType != "" {
		filter += " && event_type = {:eventType}"
		params["eventType"] = f.EventType
	}
	if f.City != "" {
		filter += " && city = {:city}"
		params["city"] = f.City
	}
	if f.Country != "" {
		filter += " && country = {:country}"
		params["country"] = f.Country
	}
	if f.Search != "" {
		filter += " && (title ~ {:search} || subtitle ~ {:search} || venue ~ {:search})"
		params["search"] = f.Search
	}
	if f.DateFrom != "" {
		filter += " && event_date >= {:dateFrom}"
		params["dateFrom"] = f.DateFrom
	}
	if f.DateTo != "" {
		filter += " && event_date <= {:dateTo}"
		params["dateTo"] = f.DateTo
	}

	records, err := s.app.FindRecordsByFilter("events", filter, "event_date", 0, 0, params)
	if err != nil {
		return nil, fmt.Errorf("listEvents: %v", err)
	}

	type aggRow struct {
		EventID  string  `db:"event_id"`
		Count    int     `db:"cnt"`
		MinPrice float64 `db:"min_price"`
	}
	var rows []aggRow
	err = s.app.DB().NewQuery(
		"SELECT event_id, COUNT(*) AS cnt, MIN(price) AS min_price FROM tickets WHERE status = {:status} GROUP BY event_id",
	).Bind(dbx.Params{"status": models.TicketAvailable}).All(&rows)
	if err != nil {
		return nil, fmt.Errorf("listEvents: aggregate: %v", err)
	}

	agg := make(map[string]aggRow, len(rows))
	for _, row := range rows {
		agg[row.EventID] = row
	}

	events := make([]*models.Event, 0, len(records))
	for _, r := range records {
		e := models.EventFromRecord(r)
		if row, ok := agg[e.ID]; ok {
			e.AvailableTickets = row.Count
			price := row.MinPrice
			e.LowestPrice = &price
		}
		events = append(events, e)
	}
	return events, nil
}

// ----- users -----

func (s *Store) GetUser(id string) (*models.User, error) {
	record, err := s.app.FindRecordById("customers", id)
	if err != nil {
		return nil, fmt.Errorf("getUser: %v", err)
	}
	return models.UserFromRecord(record), nil
}

// UpsertUserByEmail finds a customer by email or creates one. Existing
// profiles keep their role and sales count; name and picture are refreshed
// from the identity provider.
func (s *Store) UpsertUserByEmail(email, name, picture string) (*models.User, error) {
	record, err := s.app.FindFirstRecordByFilter("customers", "email = {:email}", dbx.Params{"email": email})
	if err == nil {
		record.Set("name", name)
		record.Set("picture", picture)
		if err := s.app.Save(record); err != nil {
			return nil, fmt.Errorf("upsertUserByEmail: refresh: %v", err)
		}
		return models.UserFromRecord(record), nil
	}

	collection, err := s.app.FindCollectionByNameOrId("customers")
	if err != nil {
		return nil, fmt.Errorf("upsertUserByEmail: %v", err)
	}

	record = core.NewRecord(collection)
	record.Set("email", email)
	record.Set("name", name)
	record.Set("picture", picture)
	record.Set("role", models.RoleBuyer)
	record.Set("sales_count", 0)
	record.Set("language", "en")
	record.Set("created", nowISO())

	if err := s.app.Save(record); err != nil {
		return nil, fmt.Errorf("upsertUserByEmail: save: %v", err)
	}

	return models.UserFromRecord(record), nil
}

func (s *Store) SetUserRole(id, role string) error {
	record, err := s.app.FindRecordById("customers", id)
	if err != nil {
		return fmt.Errorf("setUserRole: %v", err)
	}
	record.Set("role", role)
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("setUserRole: save: %v", err)
	}
	return nil
}

func (s *Store) IncrementSellerSales(sellerID string) error {
	_, err := s.app.DB().NewQuery(
		"UPDATE customers SET sales_count = sales_count + 1 WHERE id = {:id}",
	).Bind(dbx.Params{"id": sellerID}).Execute()
	if err != nil {
		return fmt.Errorf("incrementSellerSales: %v", err)
	}
	return nil
}

// ----- orders -----

func (s *Store) CreateOrder(o *models.Order) (*models.Order, error) {
	collection, err := s.app.FindCollectionByNameOrId("orders")
	if err != nil {
		return nil, fmt.Errorf("createOrder: %v", err)
	}

	record := core.NewRecord(collection)
	record.Set("buyer_id", o.BuyerID)
	record.Set("ticket_id", o.TicketID)
	record.Set("seller_id", o.SellerID)
	record.Set("event_id", o.EventID)
	record.Set("ticket_price", o.TicketPrice)
	record.Set("commission", o.Commission)
	record.Set("total_amount", o.TotalAmount)
	record.Set("currency", o.Currency)
	record.Set("status", models.OrderPending)
	record.Set("created", nowISO())

	if err := s.app.Save(record); err != nil {
		return nil, fmt.Errorf("createOrder: save: %v", err)
	}

	return models.OrderFromRecord(record), nil
}

func (s *Store) GetOrder(id string) (*models.Order, error) {
	record, err := s.app.FindRecordById("orders", id)
	if err != nil {
		return nil, fmt.Errorf("getOrder: %v", err)
	}
	return models.OrderFromRecord(record), nil
}

func (s *Store) GetOrderBySession(sessionID string) (*models.Order, error) {
	record, err := s.app.FindFirstRecordByFilter("orders", "session_id = {:session}", dbx.Params{"session": sessionID})
	if err != nil {
		return nil, fmt.Errorf("getOrderBySession: %q: %w", sessionID, status.ErrUnknownSession)
	}
	return models.OrderFromRecord(record), nil
}

// SetOrderSession attaches the provider's checkout session id to the order.
func (s *Store) SetOrderSession(orderID, sessionID string) error {
	record, err := s.app.FindRecordById("orders", orderID)
	if err != nil {
		return fmt.Errorf("setOrderSession: %v", err)
	}
	record.Set("session_id", sessionID)
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("setOrderSession: save: %v", err)
	}
	return nil
}

// CompleteOrder finalizes an order. The UPDATE only fires while the order
// is still pending or paid, so concurrent confirmations collapse to a
// single winner; the caller that got true runs the side effects exactly
// once. Terminal orders are never overwritten.
func (s *Store) CompleteOrder(orderID, qrPayload string) (bool, error) {
	res, err := s.app.DB().NewQuery(
		"UPDATE orders SET status = {:to}, qr_payload = {:qr}, completed_at = {:ts} WHERE id = {:id} AND status IN ({:pending}, {:paid})",
	).Bind(dbx.Params{
		"id":      orderID,
		"to":      models.OrderCompleted,
		"qr":      qrPayload,
		"ts":      nowISO(),
		"pending": models.OrderPending,
		"paid":    models.OrderPaid,
	}).Execute()
	if err != nil {
		return false, fmt.Errorf("completeOrder: %v", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("completeOrder: rows affected: %v", err)
	}
	return n > 0, nil
}

// CancelOrder moves a pending order to cancelled. Returns false without
// error when the order already left the pending state.
func (s *Store) CancelOrder(orderID string) (bool, error) {
	res, err := s.app.DB().NewQuery(
		"UPDATE orders SET status = {:to} WHERE id = {:id} AND status = {:from}",
	).Bind(dbx.Params{
		"id":   orderID,
		"to":   models.OrderCancelled,
		"from": models.OrderPending,
	}).Execute()
	if err != nil {
		return false, fmt.Errorf("cancelOrder: %v", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cancelOrder: rows affected: %v", err)
	}
	return n > 0, nil
}

// MarkOrderDisputed moves a completed order into the disputed state.
func (s *Store) MarkOrderDisputed(orderID string) (bool, error) {
	res, err := s.app.DB().NewQuery(
		"UPDATE orders SET status = {:to} WHERE id = {:id} AND status = {:from}",
	).Bind(dbx.Params{
		"id":   orderID,
		"to":   models.OrderDisputed,
		"from": models.OrderCompleted,
	}).Execute()
	if err != nil {
		return false, fmt.Errorf("markOrderDisputed: %v", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("markOrderDisputed: rows affected: %v", err)
	}
	return n > 0, nil
}

func (s *Store) ListBuyerOrders(buyerID string) ([]*models.Order, error) {
	records, err := s.app.FindRecordsByFilter("orders", "buyer_id = {:buyer}", "-created", 0, 0, dbx.Params{"buyer": buyerID})
	if err != nil {
		return nil, fmt.Errorf("listBuyerOrders: %v", err)
	}

	orders := make([]*models.Order, 0, len(records))
	for _, r := range records {
		orders = append(orders, models.OrderFromRecord(r))
	}
	return orders, nil
}

// ListStalePendingOrders returns pending orders older than the cutoff that
// already have a checkout session, candidates for the reservation sweeper.
func (s *Store) ListStalePendingOrders(olderThan time.Duration) ([]*models.Order, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)

	records, err := s.app.FindRecordsByFilter(
		"orders",
		"status = {:status} && created < {:cutoff}",
		"created", 0, 0,
		dbx.Params{"status": models.OrderPending, "cutoff": cutoff},
	)
	if err != nil {
		return nil, fmt.Errorf("listStalePendingOrders: %v", err)
	}

	orders := make([]*models.Order, 0, len(records))
	for _, r := range records {
		orders = append(orders, models.OrderFromRecord(r))
	}
	return orders, nil
}

// ----- transactions -----

func (s *Store) CreateTransaction(tx *models.Transaction) error {
	collection, err := s.app.FindCollectionByNameOrId("transactions")
	if err != nil {
		return fmt.Errorf("createTransaction: %v", err)
	}

	record := core.NewRecord(collection)
	record.Set("order_id", tx.OrderID)
	record.Set("session_id", tx.SessionID)
	record.Set("amount", tx.Amount)
	record.Set("currency", tx.Currency)
	record.Set("status", tx.Status)
	record.Set("metadata", tx.Metadata)
	record.Set("created", nowISO())

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("createTransaction: save: %v", err)
	}
	return nil
}

// UpdateTransactionStatus records the provider's latest view of a session.
// Transactions are observational, so the update is unconditional.
func (s *Store) UpdateTransactionStatus(sessionID, txStatus string) error {
	_, err := s.app.DB().NewQuery(
		"UPDATE transactions SET status = {:status} WHERE session_id = {:session}",
	).Bind(dbx.Params{"status": txStatus, "session": sessionID}).Execute()
	if err != nil {
		return fmt.Errorf("updateTransactionStatus: %v", err)
	}
	return nil
}

// ListOrderTransactions returns the payment attempts recorded for an
// order, newest first.
func (s *Store) ListOrderTransactions(orderID string) ([]*models.Transaction, error) {
	records, err := s.app.FindRecordsByFilter(
		"transactions", "order_id = {:order}", "-created", 0, 0, dbx.Params{"order": orderID})
	if err != nil {
		return nil, fmt.Errorf("listOrderTransactions: %v", err)
	}

	txs := make([]*models.Transaction, 0, len(records))
	for _, r := range records {
		txs = append(txs, models.TransactionFromRecord(r))
	}
	return txs, nil
}

// ----- payouts -----

func (s *Store) CreatePayout(p *models.Payout) error {
	collection, err := s.app.FindCollectionByNameOrId("payouts")
	if err != nil {
		return fmt.Errorf("createPayout: %v", err)
	}

	record := core.NewRecord(collection)
	record.Set("order_id", p.OrderID)
	record.Set("seller_id", p.SellerID)
	record.Set("gross_amount", p.GrossAmount)
	record.Set("commission", p.Commission)
	record.Set("net_amount", p.NetAmount)
	record.Set("currency", p.Currency)
	record.Set("status", models.PayoutPending)
	record.Set("created", nowISO())

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("createPayout: save: %v", err)
	}
	return nil
}

// ListSellerPayouts returns a seller's payouts, newest first.
func (s *Store) ListSellerPayouts(sellerID string) ([]*models.Payout, error) {
	records, err := s.app.FindRecordsByFilter(
		"payouts", "seller_id = {:seller}", "-created", 0, 0, dbx.Params{"seller": sellerID})
	if err != nil {
		return nil, fmt.Errorf("listSellerPayouts: %v", err)
	}

	payouts := make([]*models.Payout, 0, len(records))
	for _, r := range records {
		payouts = append(payouts, models.PayoutFromRecord(r))
	}
	return payouts, nil
}

// ----- price alerts -----

func (s *Store) CreatePriceAlert(a *models.PriceAlert) error {
	collection, err := s.app.FindCollectionByNameOrId("price_alerts")
	if err != nil {
		return fmt.Errorf("createPriceAlert: %v", err)
	}

	record := core.NewRecord(collection)
	record.Set("user_id", a.UserID)
	record.Set("event_id", a.EventID)
	record.Set("max_price", a.MaxPrice)
	record.Set("email", a.Email)
	record.Set("language", a.Language)

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("createPriceAlert: save: %v", err)
	}
	return nil
}

// ListMatchingPriceAlerts returns alerts for an event whose threshold is at
// or above the given price.
func (s *Store) ListMatchingPriceAlerts(eventID string, price float64) ([]*models.PriceAlert, error) {
	records, err := s.app.FindRecordsByFilter(
		"price_alerts",
		"event_id = {:event} && max_price >= {:price}",
		"", 0, 0,
		dbx.Params{"event": eventID, "price": price},
	)
	if err != nil {
		return nil, fmt.Errorf("listMatchingPriceAlerts: %v", err)
	}

	alerts := make([]*models.PriceAlert, 0, len(records))
	for _, r := range records {
		alerts = append(alerts, &models.PriceAlert{
			ID:       r.Id,
			UserID:   r.GetString("user_id"),
			EventID:  r.GetString("event_id"),
			MaxPrice: r.GetFloat("max_price"),
			Email:    r.GetString("email"),
			Language: r.GetString("language"),
		})
	}
	return alerts, nil
}

// ----- ratings -----

func (s *Store) CreateRating(r *models.Rating) (*models.Rating, error) {
	collection, err := s.app.FindCollectionByNameOrId("ratings")
	if err != nil {
		return nil, fmt.Errorf("createRating: %v", err)
	}

	record := core.NewRecord(collection)
	record.Set("seller_id", r.SellerID)
	record.Set("buyer_id", r.BuyerID)
	record.Set("order_id", r.OrderID)
	record.Set("score", r.Score)
	record.Set("comment", r.Comment)

	if err := s.app.Save(record); err != nil {
		return nil, fmt.Errorf("createRating: save: %v", err)
	}

	r.ID = record.Id
	return r, nil
}

// ----- disputes -----

func (s *Store) CreateDispute(d *models.Dispute) (*models.Dispute, error) {
	collection, err := s.app.FindCollectionByNameOrId("disputes")
	if err != nil {
		return nil, fmt.Errorf("createDispute: %v", err)
	}

	record := core.NewRecord(collection)
	record.Set("order_id", d.OrderID)
	record.Set("opened_by", d.OpenedBy)
	record.Set("reason", d.Reason)
	record.Set("status", "open")

	if err := s.app.Save(record); err != nil {
		return nil, fmt.Errorf("createDispute: save: %v", err)
	}

	d.ID = record.Id
	d.Status = "open"
	return d, nil
}
