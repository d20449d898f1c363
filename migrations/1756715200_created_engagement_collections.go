package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		alerts := core.NewBaseCollection("price_alerts")
		alerts.Fields.Add(
			&core.TextField{Name: "user_id", Required: true},
			&core.TextField{Name: "event_id", Required: true},
			&core.NumberField{Name: "max_price", Required: true},
			&core.EmailField{Name: "email", Required: true},
			&core.TextField{Name: "language"},
		)
		alerts.AddIndex("idx_price_alerts_event", false, "event_id", "")
		if err := app.Save(alerts); err != nil {
			return err
		}

		disputes := core.NewBaseCollection("disputes")
		disputes.Fields.Add(
			&core.TextField{Name: "order_id", Required: true},
			&core.TextField{Name: "opened_by", Required: true},
			&core.TextField{Name: "reason", Required: true},
			&core.SelectField{Name: "status", Values: []string{"open", "resolved"}, MaxSelect: 1, Required: true},
		)
		disputes.AddIndex("idx_disputes_order", true, "order_id", "")
		if err := app.Save(disputes); err != nil {
			return err
		}

		ratings := core.NewBaseCollection("ratings")
		ratings.Fields.Add(
			&core.TextField{Name: "seller_id", Required: true},
			&core.TextField{Name: "buyer_id", Required: true},
			&core.TextField{Name: "order_id", Required: true},
			&core.NumberField{Name: "score", Required: true, OnlyInt: true},
			&core.TextField{Name: "comment"},
		)
		ratings.AddIndex("idx_ratings_seller", false, "seller_id", "")
		ratings.AddIndex("idx_ratings_order", true, "order_id", "")
		return app.Save(ratings)
	}, func(app core.App) error {
		for _, name := range []string{"ratings", "disputes", "price_alerts"} {
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
