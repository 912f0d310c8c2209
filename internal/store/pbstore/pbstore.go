// Package pbstore implements store.Store on top of the embedded PocketBase
// database. Procedures run inside RunInTransaction; PocketBase serializes
// writes, so the count-then-insert pair cannot interleave with another writer.
package pbstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"mentorhub/internal/status"
	"mentorhub/internal/store"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"
)

type Store struct {
	app core.App
}

func New(app core.App) *Store {
	return &Store{app: app}
}

func (s *Store) Select(ctx context.Context, table string, filter store.Filter) ([]store.Row, error) {
	records, err := findRecords(ctx, s.app, table, filter)
	if err != nil {
		return nil, err
	}
	rows := make([]store.Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, toRow(rec))
	}
	return rows, nil
}

func (s *Store) Insert(ctx context.Context, table string, row store.Row) (store.Row, error) {
	rec, err := insertRecord(ctx, s.app, table, row)
	if err != nil {
		return nil, err
	}
	return toRow(rec), nil
}

func (s *Store) Update(ctx context.Context, table string, filter store.Filter, patch store.Row) (int64, error) {
	var n int64
	err := s.app.RunInTransaction(func(txApp core.App) error {
		records, err := findRecords(ctx, txApp, table, filter)
		if err != nil {
			return err
		}
		for _, rec := range records {
			for k, v := range patch {
				rec.Set(k, v)
			}
			if err := txApp.SaveWithContext(ctx, rec); err != nil {
				return fmt.Errorf("save %s/%s: %w", table, rec.Id, err)
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) Delete(ctx context.Context, table string, filter store.Filter) (int64, error) {
	var n int64
	err := s.app.RunInTransaction(func(txApp core.App) error {
		records, err := findRecords(ctx, txApp, table, filter)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if err := txApp.DeleteWithContext(ctx, rec); err != nil {
				return fmt.Errorf("delete %s/%s: %w", table, rec.Id, err)
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) RPC(ctx context.Context, name string, args map[string]any) (store.Row, error) {
	switch name {
	case store.RPCRegisterMembership:
		a, err := store.ParseRegisterArgs(args)
		if err != nil {
			return nil, err
		}
		return s.registerMembership(ctx, a)
	case store.RPCCreateBooking:
		a, err := store.ParseBookingArgs(args)
		if err != nil {
			return nil, err
		}
		return s.createBooking(ctx, a)
	}
	return nil, fmt.Errorf("pbstore: unknown procedure %q", name)
}

func (s *Store) registerMembership(ctx context.Context, a store.RegisterArgs) (store.Row, error) {
	var created *core.Record
	err := s.app.RunInTransaction(func(txApp core.App) error {
		resource, err := txApp.FindRecordById(a.ResourceTable, a.ResourceID)
		if errors.Is(err, sql.ErrNoRows) {
			return status.ErrNotFound
		} else if err != nil {
			return err
		}

		live := dbx.And(
			dbx.HashExp{a.ResourceField: a.ResourceID},
			dbx.Not(dbx.HashExp{"status": store.StatusCancelled}),
		)

		var existing int
		if err := txApp.DB().Select("count(*)").From(a.MembershipTable).
			Where(live).
			AndWhere(dbx.HashExp{"participant_id": a.ParticipantID}).
			Row(&existing); err != nil {
			return err
		}
		if existing > 0 {
			return status.ErrAlreadyRegistered
		}

		if a.CapacityField != "" {
			if limit := resource.GetInt(a.CapacityField); limit > 0 {
				var count int
				if err := txApp.DB().Select("count(*)").From(a.MembershipTable).Where(live).Row(&count); err != nil {
					return err
				}
				if count >= limit {
					return status.ErrFull
				}
			}
		}

		created, err = insertRecord(ctx, txApp, a.MembershipTable, a.Row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toRow(created), nil
}

func (s *Store) createBooking(ctx context.Context, a store.BookingArgs) (store.Row, error) {
	var created *core.Record
	err := s.app.RunInTransaction(func(txApp core.App) error {
		live, err := findRecords(ctx, txApp, store.TableBookings, store.Filter{
			"mentor_id": a.MentorID,
			"status":    store.LiveBookingStatuses,
		})
		if err != nil {
			return err
		}
		for _, b := range live {
			if store.Overlaps(a.StartsAt, a.EndsAt, b.GetDateTime("starts_at").Time(), b.GetDateTime("ends_at").Time()) {
				slog.Info("booking slot conflict", "mentor_id", a.MentorID, "conflicting_booking", b.Id)
				return status.ErrSlotTaken
			}
		}
		created, err = insertRecord(ctx, txApp, store.TableBookings, a.Row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toRow(created), nil
}

func findRecords(ctx context.Context, app core.App, table string, filter store.Filter) ([]*core.Record, error) {
	records := []*core.Record{}
	q := app.RecordQuery(table).WithContext(ctx).OrderBy("created ASC")
	if len(filter) > 0 {
		q = q.AndWhere(toExp(filter))
	}
	if err := q.All(&records); err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	return records, nil
}

func insertRecord(ctx context.Context, app core.App, table string, row store.Row) (*core.Record, error) {
	collection, err := app.FindCollectionByNameOrId(table)
	if err != nil {
		return nil, fmt.Errorf("collection %s: %w", table, err)
	}
	rec := core.NewRecord(collection)
	for k, v := range row {
		if k == "id" {
			rec.Id = cast.ToString(v)
			continue
		}
		rec.Set(k, v)
	}
	if err := app.SaveWithContext(ctx, rec); err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	return rec, nil
}

// toExp turns a store.Filter into a dbx hash expression; slices become IN.
func toExp(filter store.Filter) dbx.HashExp {
	exp := dbx.HashExp{}
	for k, v := range filter {
		switch vals := v.(type) {
		case []string:
			in := make([]any, len(vals))
			for i, s := range vals {
				in[i] = s
			}
			exp[k] = in
		default:
			exp[k] = v
		}
	}
	return exp
}

func toRow(rec *core.Record) store.Row {
	row := store.Row(rec.PublicExport())
	row["id"] = rec.Id
	return row
}
