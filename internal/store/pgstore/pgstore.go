// Package pgstore implements store.Store against a hosted Postgres backend with
// bun. Membership inserts are guarded twice: the resource row is locked FOR
// UPDATE while counting, and a partial unique index on the participant pair
// turns a concurrent duplicate into a no-op insert.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"mentorhub/internal/status"
	"mentorhub/internal/store"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type Store struct {
	db *bun.DB
}

// Open connects lazily; the first query dials the server.
func Open(dsn string) *Store {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return New(bun.NewDB(sqldb, pgdialect.New()))
}

func New(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Select(ctx context.Context, table string, filter store.Filter) ([]store.Row, error) {
	var rows []map[string]interface{}
	if err := selectQuery(s.db, table, filter).Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	out := make([]store.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, store.Row(r))
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, table string, row store.Row) (store.Row, error) {
	values := prepareInsert(row)
	if _, err := insertQuery(s.db, table, values).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	return store.Row(values), nil
}

func (s *Store) Update(ctx context.Context, table string, filter store.Filter, patch store.Row) (int64, error) {
	res, err := updateQuery(s.db, table, filter, patch).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	return res.RowsAffected()
}

func (s *Store) Delete(ctx context.Context, table string, filter store.Filter) (int64, error) {
	res, err := where(s.db.NewDelete().TableExpr("?", bun.Ident(table)), filter).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", table, err)
	}
	return res.RowsAffected()
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
	return nil, fmt.Errorf("pgstore: unknown procedure %q", name)
}

func (s *Store) registerMembership(ctx context.Context, a store.RegisterArgs) (store.Row, error) {
	values := prepareInsert(a.Row)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var capacity sql.NullInt64
		q := tx.NewSelect().TableExpr("?", bun.Ident(a.ResourceTable)).Where("id = ?", a.ResourceID).For("UPDATE")
		if a.CapacityField != "" {
			q = q.ColumnExpr("?", bun.Ident(a.CapacityField))
		} else {
			q = q.ColumnExpr("NULL::bigint")
		}
		if err := q.Scan(ctx, &capacity); errors.Is(err, sql.ErrNoRows) {
			return status.ErrNotFound
		} else if err != nil {
			return err
		}

		live := liveMembers(tx, a)
		existing, err := live.Where("participant_id = ?", a.ParticipantID).Count(ctx)
		if err != nil {
			return err
		}
		if existing > 0 {
			return status.ErrAlreadyRegistered
		}

		if capacity.Valid && capacity.Int64 > 0 {
			count, err := liveMembers(tx, a).Count(ctx)
			if err != nil {
				return err
			}
			if int64(count) >= capacity.Int64 {
				return status.ErrFull
			}
		}

		res, err := insertQuery(tx, a.MembershipTable, values).On("CONFLICT DO NOTHING").Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return status.ErrAlreadyRegistered
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store.Row(values), nil
}

func (s *Store) createBooking(ctx context.Context, a store.BookingArgs) (store.Row, error) {
	values := prepareInsert(a.Row)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var mentorID string
		err := tx.NewSelect().TableExpr("?", bun.Ident(store.TableMentors)).
			Column("id").Where("id = ?", a.MentorID).For("UPDATE").
			Scan(ctx, &mentorID)
		if errors.Is(err, sql.ErrNoRows) {
			return status.ErrNotFound
		} else if err != nil {
			return err
		}

		taken, err := overlapQuery(tx, a).Exists(ctx)
		if err != nil {
			return err
		}
		if taken {
			return status.ErrSlotTaken
		}

		_, err = insertQuery(tx, store.TableBookings, values).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return store.Row(values), nil
}

func liveMembers(db bun.IDB, a store.RegisterArgs) *bun.SelectQuery {
	return db.NewSelect().TableExpr("?", bun.Ident(a.MembershipTable)).
		Where("? = ?", bun.Ident(a.ResourceField), a.ResourceID).
		Where("status <> ?", store.StatusCancelled)
}

func overlapQuery(db bun.IDB, a store.BookingArgs) *bun.SelectQuery {
	return db.NewSelect().TableExpr("?", bun.Ident(store.TableBookings)).
		Where("mentor_id = ?", a.MentorID).
		Where("status IN (?)", bun.In(store.LiveBookingStatuses)).
		Where("starts_at < ?", a.EndsAt).
		Where("ends_at > ?", a.StartsAt)
}

func selectQuery(db bun.IDB, table string, filter store.Filter) *bun.SelectQuery {
	q := db.NewSelect().TableExpr("?", bun.Ident(table)).ColumnExpr("*")
	return where(q, filter).OrderExpr("created ASC")
}

func insertQuery(db bun.IDB, table string, values map[string]interface{}) *bun.InsertQuery {
	return db.NewInsert().Model(&values).TableExpr("?", bun.Ident(table))
}

func updateQuery(db bun.IDB, table string, filter store.Filter, patch store.Row) *bun.UpdateQuery {
	q := db.NewUpdate().TableExpr("?", bun.Ident(table))
	for _, k := range sortedKeys(patch) {
		q = q.Set("? = ?", bun.Ident(k), patch[k])
	}
	q = q.Set("updated = ?", time.Now().UTC())
	return where(q, filter)
}

type wherer[Q any] interface {
	Where(query string, args ...interface{}) Q
}

// where appends one equality (or IN for slices) clause per filter key, in key
// order so the generated SQL is stable.
func where[Q wherer[Q]](q Q, filter store.Filter) Q {
	for _, k := range sortedKeys(filter) {
		switch v := filter[k].(type) {
		case []string:
			q = q.Where("? IN (?)", bun.Ident(k), bun.In(v))
		case []any:
			q = q.Where("? IN (?)", bun.Ident(k), bun.In(v))
		default:
			q = q.Where("? = ?", bun.Ident(k), v)
		}
	}
	return q
}

func prepareInsert(row store.Row) map[string]interface{} {
	values := make(map[string]interface{}, len(row)+3)
	for k, v := range row {
		values[k] = v
	}
	if s, _ := values["id"].(string); s == "" {
		values["id"] = uuid.NewString()
	}
	now := time.Now().UTC()
	if _, ok := values["created"]; !ok {
		values["created"] = now
	}
	values["updated"] = now
	return values
}

func sortedKeys[M ~map[string]any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
