package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		stores, err := app.FindCollectionByNameOrId("stores")
		if err != nil {
			return err
		}

		collection := core.NewAuthCollection("staff")

		collection.Fields.Add(
			&core.TextField{
				Name:     "name",
				Required: true,
			},
			&core.RelationField{
				Name:         "store",
				Required:     true,
				CollectionId: stores.Id,
				MaxSelect:    1,
			},
			// bcrypt hash of the POS override PIN; empty disables the
			// PIN check for on-behalf redemptions.
			&core.TextField{
				Name:   "pos_pin_hash",
				Hidden: true,
			},
		)

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("staff")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
