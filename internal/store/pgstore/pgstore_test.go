package pgstore

import (
	"database/sql"
	"testing"
	"time"

	"mentorhub/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// testDB renders queries without ever dialing the server.
func testDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN("postgres://mentorhub@localhost:5432/mentorhub?sslmode=disable")))
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSelectQuery(t *testing.T) {
	db := testDB(t)

	q := selectQuery(db, store.TableBookings, store.Filter{
		"status":    store.LiveBookingStatuses,
		"mentor_id": "m-1",
	}).String()

	assert.Contains(t, q, `FROM "bookings"`)
	assert.Contains(t, q, `("mentor_id" = 'm-1') AND ("status" IN ('pending', 'confirmed'))`)
	assert.Contains(t, q, "ORDER BY created ASC")
}

func TestUpdateAndDeleteQueries(t *testing.T) {
	db := testDB(t)

	update := updateQuery(db, store.TableBookings,
		store.Filter{"id": "bk-1", "status": []string{"pending", "confirmed"}},
		store.Row{"status": "cancelled"},
	).String()
	assert.Contains(t, update, `UPDATE "bookings"`)
	assert.Contains(t, update, `"status" = 'cancelled'`)
	assert.Contains(t, update, `("id" = 'bk-1') AND ("status" IN ('pending', 'confirmed'))`)

	del := where(db.NewDelete().TableExpr("?", bun.Ident(store.TableEventRegistrations)), store.Filter{
		"event_id":       "evt-1",
		"participant_id": "u-1",
	}).String()
	assert.Contains(t, del, `DELETE FROM "event_registrations"`)
	assert.Contains(t, del, `("event_id" = 'evt-1') AND ("participant_id" = 'u-1')`)
}

func TestOverlapAndMembershipQueries(t *testing.T) {
	db := testDB(t)
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	overlap := overlapQuery(db, store.BookingArgs{MentorID: "m-1", StartsAt: start, EndsAt: start.Add(time.Hour)}).String()
	assert.Contains(t, overlap, "mentor_id = 'm-1'")
	assert.Contains(t, overlap, "status IN ('pending', 'confirmed')")
	assert.Contains(t, overlap, "starts_at < ")
	assert.Contains(t, overlap, "ends_at > ")

	live := liveMembers(db, store.RegisterArgs{
		MembershipTable: store.TableStudyGroupMembers,
		ResourceField:   "group_id",
		ResourceID:      "grp-1",
	}).String()
	assert.Contains(t, live, `FROM "study_group_members"`)
	assert.Contains(t, live, `"group_id" = 'grp-1'`)
	assert.Contains(t, live, "status <> 'cancelled'")
}

func TestPrepareInsert(t *testing.T) {
	values := prepareInsert(store.Row{"title": "Calculus"})
	assert.NotEmpty(t, values["id"])
	assert.NotNil(t, values["created"])
	assert.NotNil(t, values["updated"])

	kept := prepareInsert(store.Row{"id": "c-1", "title": "Calculus"})
	assert.Equal(t, "c-1", kept["id"])
}

func TestBookingTableSchema(t *testing.T) {
	db := testDB(t)

	ddl := db.NewCreateTable().Model((*bookingTable)(nil)).IfNotExists().String()
	assert.Contains(t, ddl, `CREATE TABLE IF NOT EXISTS "bookings"`)
	assert.Contains(t, ddl, `"reference"`)
	assert.Contains(t, ddl, "UNIQUE")
}
