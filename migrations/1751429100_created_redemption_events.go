package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		tickets, err := app.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		stores, err := app.FindCollectionByNameOrId("stores")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("redemption_events")

		collection.Fields.Add(
			&core.RelationField{
				Name:         "ticket",
				Required:     true,
				CollectionId: tickets.Id,
				MaxSelect:    1,
			},
			&core.RelationField{
				Name:         "member",
				Required:     true,
				CollectionId: users.Id,
				MaxSelect:    1,
			},
			// The acting party: the member id for self redemptions or
			// a staff id for on-behalf redemptions.
			&core.TextField{
				Name:     "redeemed_by",
				Required: true,
			},
			&core.RelationField{
				Name:         "store",
				CollectionId: stores.Id,
				MaxSelect:    1,
			},
			&core.NumberField{
				Name: "redeemed_value",
				Min:  types.Pointer(0.0),
			},
			&core.TextField{
				Name: "confirmation_code",
			},
			&core.DateField{
				Name:     "redeemed_at",
				Required: true,
			},
			&core.AutodateField{
				Name:     "created",
				OnCreate: true,
			},
		)

		collection.AddIndex("idx_redemption_events_member", false, "member", "")
		collection.AddIndex("idx_redemption_events_ticket", false, "ticket", "")
		collection.AddIndex("idx_redemption_events_store_day", false, "store, redeemed_at", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("redemption_events")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
