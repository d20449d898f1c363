package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		orders := core.NewBaseCollection("orders")
		orders.Fields.Add(
			&core.TextField{Name: "buyer_id", Required: true},
			&core.TextField{Name: "ticket_id", Required: true},
			&core.TextField{Name: "seller_id", Required: true},
			&core.TextField{Name: "event_id", Required: true},
			&core.NumberField{Name: "ticket_price", Required: true},
			&core.NumberField{Name: "commission"},
			&core.NumberField{Name: "total_amount", Required: true},
			&core.TextField{Name: "currency", Required: true},
			&core.SelectField{Name: "status", Values: []string{"pending", "paid", "completed", "cancelled", "refunded", "disputed"}, MaxSelect: 1, Required: true},
			&core.TextField{Name: "session_id"},
			&core.TextField{Name: "qr_payload"},
			&core.TextField{Name: "created"},
			&core.TextField{Name: "completed_at"},
		)
		orders.AddIndex("idx_orders_session", false, "session_id", "")
		orders.AddIndex("idx_orders_buyer", false, "buyer_id", "")
		orders.AddIndex("idx_orders_status_created", false, "status, created", "")
		if err := app.Save(orders); err != nil {
			return err
		}

		transactions := core.NewBaseCollection("transactions")
		transactions.Fields.Add(
			&core.TextField{Name: "order_id", Required: true},
			&core.TextField{Name: "session_id", Required: true},
			&core.NumberField{Name: "amount", Required: true},
			&core.TextField{Name: "currency", Required: true},
			&core.SelectField{Name: "status", Values: []string{"initiated", "paid", "failed", "expired"}, MaxSelect: 1, Required: true},
			&core.JSONField{Name: "metadata"},
			&core.TextField{Name: "created"},
		)
		transactions.AddIndex("idx_transactions_session", false, "session_id", "")
		if err := app.Save(transactions); err != nil {
			return err
		}

		payouts := core.NewBaseCollection("payouts")
		payouts.Fields.Add(
			&core.TextField{Name: "order_id", Required: true},
			&core.TextField{Name: "seller_id", Required: true},
			&core.NumberField{Name: "gross_amount", Required: true},
			&core.NumberField{Name: "commission"},
			&core.NumberField{Name: "net_amount", Required: true},
			&core.TextField{Name: "currency", Required: true},
			&core.SelectField{Name: "status", Values: []string{"pending", "completed"}, MaxSelect: 1, Required: true},
			&core.TextField{Name: "created"},
		)
		// One payout per order, however many times the payment confirms.
		payouts.AddIndex("idx_payouts_order", true, "order_id", "")
		return app.Save(payouts)
	}, func(app core.App) error {
		for _, name := range []string{"payouts", "transactions", "orders"} {
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
