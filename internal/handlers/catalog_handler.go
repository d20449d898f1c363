package handlers

import (
	"errors"
	"net/http"

	"fanpass/internal/services"
	"fanpass/internal/status"
	"fanpass/internal/store"
	"fanpass/models"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type CatalogHandler struct {
	app            *pocketbase.PocketBase
	catalogService *services.CatalogService
	store          *store.Store
	authHandler    *AuthHandler
}

func NewCatalogHandler(app *pocketbase.PocketBase, catalogService *services.CatalogService, st *store.Store, authHandler *AuthHandler) *CatalogHandler {
	return &CatalogHandler{
		app:            app,
		catalogService: catalogService,
		store:          st,
		authHandler:    authHandler,
	}
}

// ListEvents - browse the event catalog
func (h *CatalogHandler) ListEvents(e *core.RequestEvent) error {
	q := e.Request.URL.Query()

	events, err := h.catalogService.ListEvents(e.Request.Context(), store.EventFilter{
		EventType: q.Get("event_type"),
		City:      q.Get("city"),
		Country:   q.Get("country"),
		Search:    q.Get("search"),
		DateFrom:  q.Get("date_from"),
		DateTo:    q.Get("date_to"),
	})
	if err != nil {
		return apis.NewApiError(http.StatusInternalServerError, "Could not load events", nil)
	}

	return e.JSON(http.StatusOK, events)
}

// GetEvent - one event with its available tickets
func (h *CatalogHandler) GetEvent(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	detail, err := h.catalogService.GetEventDetail(e.Request.Context(), eventID)
	if err != nil {
		return apis.NewNotFoundError("Event not found", nil)
	}

	return e.JSON(http.StatusOK, detail)
}

// ListTickets - tickets for an event
func (h *CatalogHandler) ListTickets(e *core.RequestEvent) error {
	eventID := e.Request.URL.Query().Get("event_id")
	if eventID == "" {
		return apis.NewBadRequestError("event_id is required", nil)
	}

	onlyAvailable := e.Request.URL.Query().Get("all") == ""

	tickets, err := h.catalogService.ListTickets(e.Request.Context(), eventID, onlyAvailable)
	if err != nil {
		return apis.NewApiError(http.StatusInternalServerError, "Could not load tickets", nil)
	}

	return e.JSON(http.StatusOK, tickets)
}

// CreateListing - put a ticket up for sale
func (h *CatalogHandler) CreateListing(e *core.RequestEvent) error {
	user, err := h.authHandler.RequireCustomer(e)
	if err != nil {
		return err
	}

	var req struct {
		EventID  string  `json:"event_id"`
		Category string  `json:"category"`
		Section  string  `json:"section"`
		Row      string  `json:"row"`
		Seat     string  `json:"seat"`
		Price    float64 `json:"price"`
		Currency string  `json:"currency"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	ticket, err := h.catalogService.CreateListing(e.Request.Context(), user.ID, &models.Ticket{
		EventID:  req.EventID,
		Category: req.Category,
		Section:  req.Section,
		Row:      req.Row,
		Seat:     req.Seat,
		Price:    req.Price,
		Currency: req.Currency,
	})
	if err != nil {
		if errors.Is(err, status.ErrNotAuthorized) {
			return apis.NewForbiddenError("Become a seller first", nil)
		}
		return apis.NewBadRequestError("Could not create listing", err)
	}

	return e.JSON(http.StatusCreated, ticket)
}

// CreatePriceAlert - get mail when a listing drops below a threshold
func (h *CatalogHandler) CreatePriceAlert(e *core.RequestEvent) error {
	user, err := h.authHandler.RequireCustomer(e)
	if err != nil {
		return err
	}

	var req struct {
		EventID  string  `json:"event_id"`
		MaxPrice float64 `json:"max_price"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	if err := h.catalogService.CreatePriceAlert(e.Request.Context(), user.ID, req.EventID, req.MaxPrice); err != nil {
		return apis.NewBadRequestError("Could not create price alert", err)
	}

	return e.JSON(http.StatusCreated, map[string]string{"message": "Price alert created"})
}

// Seed - load the demo catalog
func (h *CatalogHandler) Seed(e *core.RequestEvent) error {
	count, err := services.SeedDemoData(e.Request.Context(), h.store)
	if err != nil {
		return apis.NewApiError(http.StatusInternalServerError, "Seeding failed", nil)
	}
	if count == 0 {
		return e.JSON(http.StatusOK, map[string]any{"message": "Already seeded"})
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Seeded", "events": count})
}
