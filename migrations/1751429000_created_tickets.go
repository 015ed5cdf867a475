package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("tickets")

		collection.Fields.Add(
			&core.RelationField{
				Name:         "member",
				Required:     true,
				CollectionId: users.Id,
				MaxSelect:    1,
			},
			&core.SelectField{
				Name:      "ticket_type",
				Required:  true,
				MaxSelect: 1,
				Values: []string{
					"coffee_pass",
					"class_pack",
					"wash_fold",
					"day_pass",
				},
			},
			&core.NumberField{
				Name:     "total_uses",
				Required: true,
				OnlyInt:  true,
				Min:      types.Pointer(1.0),
			},
			&core.NumberField{
				Name:    "remaining_uses",
				OnlyInt: true,
				Min:     types.Pointer(0.0),
			},
			&core.NumberField{
				Name: "face_value",
				Min:  types.Pointer(0.0),
			},
			&core.DateField{
				Name:     "expires_at",
				Required: true,
			},
			&core.DateField{
				Name: "last_redeemed_at",
			},
			&core.AutodateField{
				Name:     "created",
				OnCreate: true,
			},
			&core.AutodateField{
				Name:     "updated",
				OnCreate: true,
				OnUpdate: true,
			},
		)

		collection.AddIndex("idx_tickets_member", false, "member", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
