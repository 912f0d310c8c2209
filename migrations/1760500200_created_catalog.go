package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		mentors := core.NewBaseCollection("mentors")
		mentors.ListRule = types.Pointer("@request.auth.id != ''")
		mentors.ViewRule = types.Pointer("@request.auth.id != ''")
		mentors.Fields.Add(
			&core.TextField{Name: "user_id"},
			&core.TextField{Name: "name", Required: true, Max: 200},
			&core.TextField{Name: "bio", Max: 5000},
			&core.TextField{Name: "skills"},
			&core.TextField{Name: "specializations"},
			&core.TextField{Name: "streams"},
			&core.NumberField{Name: "hourly_rate", Min: types.Pointer(0.0)},
			&core.NumberField{Name: "rating", Min: types.Pointer(0.0), Max: types.Pointer(5.0)},
			&core.SelectField{Name: "availability_status", MaxSelect: 1, Values: []string{"available", "busy", "offline"}},
			&core.NumberField{Name: "experience_years", OnlyInt: true, Min: types.Pointer(0.0)},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		mentors.AddIndex("idx_mentors_user_id", false, "user_id", "")
		if err := app.Save(mentors); err != nil {
			return err
		}

		courses := core.NewBaseCollection("courses")
		courses.ListRule = types.Pointer("")
		courses.ViewRule = types.Pointer("")
		courses.Fields.Add(
			&core.TextField{Name: "title", Required: true, Max: 200},
			&core.TextField{Name: "description", Max: 5000},
			&core.TextField{Name: "category"},
			&core.TextField{Name: "streams"},
			&core.SelectField{Name: "level", MaxSelect: 1, Values: []string{"beginner", "intermediate", "advanced"}},
			&core.TextField{Name: "tags"},
			&core.NumberField{Name: "duration_weeks", OnlyInt: true, Min: types.Pointer(0.0)},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		return app.Save(courses)
	}, func(app core.App) error {
		for _, name := range []string{"courses", "mentors"} {
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
