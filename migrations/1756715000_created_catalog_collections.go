package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		customers := core.NewBaseCollection("customers")
		customers.Fields.Add(
			&core.EmailField{Name: "email", Required: true},
			&core.TextField{Name: "name"},
			&core.TextField{Name: "picture"},
			&core.SelectField{Name: "role", Values: []string{"buyer", "seller", "admin"}, MaxSelect: 1, Required: true},
			&core.NumberField{Name: "sales_count", OnlyInt: true},
			&core.TextField{Name: "language"},
			&core.TextField{Name: "created"},
		)
		customers.AddIndex("idx_customers_email", true, "email", "")
		if err := app.Save(customers); err != nil {
			return err
		}

		events := core.NewBaseCollection("events")
		events.Fields.Add(
			&core.SelectField{Name: "event_type", Values: []string{"match", "concert"}, MaxSelect: 1, Required: true},
			&core.TextField{Name: "title", Required: true},
			&core.TextField{Name: "subtitle"},
			&core.TextField{Name: "event_date", Required: true},
			&core.TextField{Name: "city"},
			&core.TextField{Name: "country"},
			&core.TextField{Name: "venue"},
			&core.URLField{Name: "image_url"},
			&core.TextField{Name: "description"},
			&core.JSONField{Name: "categories"},
		)
		events.AddIndex("idx_events_date", false, "event_date", "")
		if err := app.Save(events); err != nil {
			return err
		}

		tickets := core.NewBaseCollection("tickets")
		tickets.Fields.Add(
			&core.TextField{Name: "event_id", Required: true},
			&core.TextField{Name: "seller_id", Required: true},
			&core.TextField{Name: "category", Required: true},
			&core.TextField{Name: "section"},
			&core.TextField{Name: "row"},
			&core.TextField{Name: "seat"},
			&core.NumberField{Name: "price", Required: true},
			&core.TextField{Name: "currency", Required: true},
			&core.SelectField{Name: "status", Values: []string{"available", "reserved", "sold"}, MaxSelect: 1, Required: true},
			&core.TextField{Name: "created"},
		)
		tickets.AddIndex("idx_tickets_event_status", false, "event_id, status", "")
		return app.Save(tickets)
	}, func(app core.App) error {
		for _, name := range []string{"tickets", "events", "customers"} {
			collection, err := app.FindCollectionByNameOrId(name)
			if err != nil {
				return err
			}
			if err := app.Delete(collection); err != nil {
				return err
			}
		}
		return nil
	})
}
