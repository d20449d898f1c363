package services

import (
	"context"
	"fmt"

	"fanpass/internal/store"
	"fanpass/models"
)

// SeedDemoData loads a small demo catalog: three events with twenty
// listed tickets each, sold by a system seller. It refuses to run twice.
func SeedDemoData(_ context.Context, s *store.Store) (int, error) {
	existing, err := s.ListEvents(store.EventFilter{})
	if err != nil {
		return 0, fmt.Errorf("seedDemoData: %v", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	seller, err := s.UpsertUserByEmail("marketplace@fanpass.example", "FanPass Marketplace", "")
	if err != nil {
		return 0, fmt.Errorf("seedDemoData: %v", err)
	}
	if err := s.SetUserRole(seller.ID, models.RoleSeller); err != nil {
		return 0, fmt.Errorf("seedDemoData: %v", err)
	}

	events := []*models.Event{
		{
			EventType:   "match",
			Title:       "Liverpool vs Arsenal",
			Subtitle:    "Premier League",
			EventDate:   "2026-03-15T15:00:00Z",
			City:        "Liverpool",
			Country:     "England",
			Venue:       "Anfield",
			ImageURL:    "https://images.unsplash.com/photo-1522778119026-d647f0596c20?w=800",
			Description: "Premier League match",
			Categories:  []string{"football", "premier-league"},
		},
		{
			EventType:   "match",
			Title:       "Real Madrid vs Barcelona",
			Subtitle:    "El Clasico - La Liga",
			EventDate:   "2026-04-10T20:00:00Z",
			City:        "Madrid",
			Country:     "Spain",
			Venue:       "Santiago Bernabeu",
			ImageURL:    "https://images.unsplash.com/photo-1489944440615-453fc2b6a9a9?w=800",
			Description: "El Clasico",
			Categories:  []string{"football", "la-liga"},
		},
		{
			EventType:   "concert",
			Title:       "Coldplay",
			Subtitle:    "Music of the Spheres Tour",
			EventDate:   "2026-05-20T20:00:00Z",
			City:        "Berlin",
			Country:     "Germany",
			Venue:       "Olympiastadion",
			ImageURL:    "https://images.unsplash.com/photo-1470229722913-7c0e2dbbafd3?w=800",
			Description: "World Tour Concert",
			Categories:  []string{"concert", "rock"},
		},
	}

	seatClasses := []string{"Standard", "Premium", "VIP"}

	for _, e := range events {
		created, err := s.CreateEvent(e)
		if err != nil {
			return 0, fmt.Errorf("seedDemoData: %v", err)
		}

		for i := 0; i < 20; i++ {
			_, err := s.CreateTicket(&models.Ticket{
				EventID:  created.ID,
				SellerID: seller.ID,
				Category: seatClasses[i%3],
				Section:  fmt.Sprintf("Section %c", 'A'+rune(i%5)),
				Row:      fmt.Sprintf("%d", i%10+1),
				Seat:     fmt.Sprintf("%d", i+1),
				Price:    float64(50 + i*10 + (i%3)*50),
				Currency: "EUR",
			})
			if err != nil {
				return 0, fmt.Errorf("seedDemoData: %v", err)
			}
		}
	}

	return len(events), nil
}
