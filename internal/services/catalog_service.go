package services

import (
	"context"
	"fmt"

	"fanpass/internal/status"
	"fanpass/internal/store"
	"fanpass/models"
)

// CatalogStore is the persistence surface for browsing and listing.
type CatalogStore interface {
	ListEvents(f store.EventFilter) ([]*models.Event, error)
	GetEvent(id string) (*models.Event, error)
	CreateEvent(e *models.Event) (*models.Event, error)
	ListEventTickets(eventID string, onlyAvailable bool) ([]*models.Ticket, error)
	CreateTicket(t *models.Ticket) (*models.Ticket, error)
	GetUser(id string) (*models.User, error)
	CreatePriceAlert(a *models.PriceAlert) error
}

// CatalogService serves the public event and ticket catalog and lets
// sellers list tickets on it.
type CatalogService struct {
	store CatalogStore
}

func NewCatalogService(catalogStore CatalogStore) *CatalogService {
	return &CatalogService{store: catalogStore}
}

// ListEvents returns events matching the filter, enriched with ticket
// availability.
func (s *CatalogService) ListEvents(_ context.Context, f store.EventFilter) ([]*models.Event, error) {
	return s.store.ListEvents(f)
}

// EventDetail is an event together with its purchasable tickets.
type EventDetail struct {
	Event   *models.Event    `json:"event"`
	Tickets []*models.Ticket `json:"tickets"`
}

// GetEventDetail returns one event with its available tickets sorted by
// price.
func (s *CatalogService) GetEventDetail(_ context.Context, eventID string) (*EventDetail, error) {
	event, err := s.store.GetEvent(eventID)
	if err != nil {
		return nil, err
	}

	tickets, err := s.store.ListEventTickets(eventID, true)
	if err != nil {
		return nil, err
	}

	event.AvailableTickets = len(tickets)
	if len(tickets) > 0 {
		price := tickets[0].Price
		for _, t := range tickets {
			if t.Price < price {
				price = t.Price
			}
		}
		event.LowestPrice = &price
	}

	return &EventDetail{Event: event, Tickets: tickets}, nil
}

// ListTickets returns tickets for an event, optionally only the ones
// still for sale.
func (s *CatalogService) ListTickets(_ context.Context, eventID string, onlyAvailable bool) ([]*models.Ticket, error) {
	return s.store.ListEventTickets(eventID, onlyAvailable)
}

// CreateListing puts a seller's ticket on the marketplace.
func (s *CatalogService) CreateListing(_ context.Context, sellerID string, t *models.Ticket) (*models.Ticket, error) {
	seller, err := s.store.GetUser(sellerID)
	if err != nil {
		return nil, fmt.Errorf("createListing: %v", err)
	}
	if seller.Role != models.RoleSeller && seller.Role != models.RoleAdmin {
		return nil, fmt.Errorf("createListing: role %q cannot sell: %w", seller.Role, status.ErrNotAuthorized)
	}

	if t.Price <= 0 {
		return nil, fmt.Errorf("createListing: price must be positive")
	}
	if t.Category == "" {
		return nil, fmt.Errorf("createListing: category is required")
	}

	if _, err := s.store.GetEvent(t.EventID); err != nil {
		return nil, fmt.Errorf("createListing: %v", err)
	}

	if t.Currency == "" {
		t.Currency = "EUR"
	}
	t.SellerID = sellerID

	return s.store.CreateTicket(t)
}

// CreatePriceAlert subscribes a user to price drops on an event.
func (s *CatalogService) CreatePriceAlert(_ context.Context, userID, eventID string, maxPrice float64) error {
	user, err := s.store.GetUser(userID)
	if err != nil {
		return fmt.Errorf("createPriceAlert: %v", err)
	}
	if maxPrice <= 0 {
		return fmt.Errorf("createPriceAlert: max price must be positive")
	}
	if _, err := s.store.GetEvent(eventID); err != nil {
		return fmt.Errorf("createPriceAlert: %v", err)
	}

	return s.store.CreatePriceAlert(&models.PriceAlert{
		UserID:   userID,
		EventID:  eventID,
		MaxPrice: maxPrice,
		Email:    user.Email,
		Language: user.Language,
	})
}
