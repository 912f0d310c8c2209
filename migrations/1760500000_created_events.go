package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		events := core.NewBaseCollection("events")
		events.ListRule = types.Pointer("@request.auth.id != ''")
		events.ViewRule = types.Pointer("@request.auth.id != ''")
		events.Fields.Add(
			&core.TextField{Name: "title", Required: true, Max: 200},
			&core.TextField{Name: "description", Max: 5000},
			&core.TextField{Name: "category"},
			&core.TextField{Name: "streams"},
			&core.TextField{Name: "location"},
			&core.BoolField{Name: "is_online"},
			&core.DateField{Name: "starts_at"},
			// 0 means unlimited
			&core.NumberField{Name: "max_attendees", OnlyInt: true, Min: types.Pointer(0.0)},
			&core.TextField{Name: "organizer_id"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		events.AddIndex("idx_events_starts_at", false, "starts_at", "")
		if err := app.Save(events); err != nil {
			return err
		}

		registrations := core.NewBaseCollection("event_registrations")
		registrations.Fields.Add(
			&core.TextField{Name: "event_id", Required: true},
			&core.TextField{Name: "participant_id", Required: true},
			&core.SelectField{Name: "status", Required: true, MaxSelect: 1, Values: []string{"pending", "confirmed", "cancelled"}},
			&core.DateField{Name: "registered_at"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		registrations.AddIndex("idx_event_registrations_live", true, "event_id, participant_id", "status != 'cancelled'")
		return app.Save(registrations)
	}, func(app core.App) error {
		for _, name := range []string{"event_registrations", "events"} {
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
