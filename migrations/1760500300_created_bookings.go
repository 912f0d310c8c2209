package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		bookings := core.NewBaseCollection("bookings")
		bookings.Fields.Add(
			&core.TextField{Name: "reference", Required: true},
			&core.TextField{Name: "mentor_id", Required: true},
			&core.TextField{Name: "participant_id", Required: true},
			&core.DateField{Name: "starts_at", Required: true},
			&core.DateField{Name: "ends_at", Required: true},
			&core.NumberField{Name: "duration_minutes", OnlyInt: true, Min: types.Pointer(1.0)},
			&core.SelectField{Name: "session_type", MaxSelect: 1, Values: []string{"video", "audio", "chat"}},
			&core.SelectField{Name: "status", Required: true, MaxSelect: 1, Values: []string{"pending", "confirmed", "completed", "cancelled"}},
			&core.NumberField{Name: "hourly_rate", Min: types.Pointer(0.0)},
			&core.NumberField{Name: "total_amount", Min: types.Pointer(0.0)},
			&core.TextField{Name: "notes", Max: 2000},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		bookings.AddIndex("idx_bookings_reference", true, "reference", "")
		bookings.AddIndex("idx_bookings_mentor_time", false, "mentor_id, starts_at, ends_at", "")
		bookings.AddIndex("idx_bookings_participant", false, "participant_id", "")
		return app.Save(bookings)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("bookings")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
