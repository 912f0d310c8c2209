package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		groups := core.NewBaseCollection("study_groups")
		groups.ListRule = types.Pointer("@request.auth.id != ''")
		groups.ViewRule = types.Pointer("@request.auth.id != ''")
		groups.Fields.Add(
			&core.TextField{Name: "name", Required: true, Max: 200},
			&core.TextField{Name: "description", Max: 5000},
			&core.TextField{Name: "subject"},
			&core.TextField{Name: "streams"},
			// 0 means unlimited
			&core.NumberField{Name: "max_members", OnlyInt: true, Min: types.Pointer(0.0)},
			&core.TextField{Name: "creator_id"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		if err := app.Save(groups); err != nil {
			return err
		}

		members := core.NewBaseCollection("study_group_members")
		members.Fields.Add(
			&core.TextField{Name: "group_id", Required: true},
			&core.TextField{Name: "participant_id", Required: true},
			&core.SelectField{Name: "status", Required: true, MaxSelect: 1, Values: []string{"member", "cancelled"}},
			&core.SelectField{Name: "role", MaxSelect: 1, Values: []string{"member", "moderator", "owner"}},
			&core.DateField{Name: "joined_at"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		members.AddIndex("idx_study_group_members_live", true, "group_id, participant_id", "status != 'cancelled'")
		return app.Save(members)
	}, func(app core.App) error {
		for _, name := range []string{"study_group_members", "study_groups"} {
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
