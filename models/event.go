package models

import "github.com/pocketbase/pocketbase/core"

type Event struct {
	ID          string   `json:"event_id"`
	EventType   string   `json:"event_type"` // match, concert
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle,omitempty"`
	EventDate   string   `json:"event_date"`
	City        string   `json:"city"`
	Country     string   `json:"country"`
	Venue       string   `json:"venue"`
	ImageURL    string   `json:"image_url,omitempty"`
	Description string   `json:"description,omitempty"`
	Categories  []string `json:"categories"`

	// Listing enrichment, filled from the ticket aggregation.
	AvailableTickets int      `json:"available_tickets"`
	LowestPrice      *float64 `json:"lowest_price"`
}

func EventFromRecord(r *core.Record) *Event {
	e := &Event{
		ID:          r.Id,
		EventType:   r.GetString("event_type"),
		Title:       r.GetString("title"),
		Subtitle:    r.GetString("subtitle"),
		EventDate:   r.GetString("event_date"),
		City:        r.GetString("city"),
		Country:     r.GetString("country"),
		Venue:       r.GetString("venue"),
		ImageURL:    r.GetString("image_url"),
		Description: r.GetString("description"),
	}
	if cats := r.GetStringSlice("categories"); len(cats) > 0 {
		e.Categories = cats
	} else {
		e.Categories = []string{}
	}
	return e
}
