// Package memstore is an in-process store.Store used for local development and
// tests. One mutex serializes every call, so its procedures are atomic.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"mentorhub/internal/status"
	"mentorhub/internal/store"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

type Store struct {
	mu     sync.Mutex
	tables map[string][]store.Row
	now    func() time.Time
}

func New() *Store {
	return &Store{
		tables: make(map[string][]store.Row),
		now:    time.Now,
	}
}

// Seed inserts rows as-is, assigning ids where missing.
func (s *Store) Seed(table string, rows ...store.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.insertLocked(table, r.Clone())
	}
}

func (s *Store) Select(_ context.Context, table string, filter store.Filter) ([]store.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(table, filter), nil
}

func (s *Store) Insert(_ context.Context, table string, row store.Row) (store.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(table, row.Clone()).Clone(), nil
}

func (s *Store) Update(_ context.Context, table string, filter store.Filter, patch store.Row) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, r := range s.tables[table] {
		if !matches(r, filter) {
			continue
		}
		for k, v := range patch {
			r[k] = v
		}
		r["updated"] = s.now().UTC()
		n++
	}
	return n, nil
}

func (s *Store) Delete(_ context.Context, table string, filter store.Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[table]
	kept := rows[:0]
	var n int64
	for _, r := range rows {
		if matches(r, filter) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	s.tables[table] = kept
	return n, nil
}

func (s *Store) RPC(_ context.Context, name string, args map[string]any) (store.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	case store.RPCRegisterMembership:
		a, err := store.ParseRegisterArgs(args)
		if err != nil {
			return nil, err
		}
		return s.registerLocked(a)
	case store.RPCCreateBooking:
		a, err := store.ParseBookingArgs(args)
		if err != nil {
			return nil, err
		}
		return s.createBookingLocked(a)
	}
	return nil, fmt.Errorf("memstore: unknown procedure %q", name)
}

func (s *Store) registerLocked(a store.RegisterArgs) (store.Row, error) {
	resources := s.selectLocked(a.ResourceTable, store.Filter{"id": a.ResourceID})
	if len(resources) == 0 {
		return nil, status.ErrNotFound
	}

	count := 0
	for _, m := range s.selectLocked(a.MembershipTable, store.Filter{a.ResourceField: a.ResourceID}) {
		if m.String("status") == store.StatusCancelled {
			continue
		}
		if m.String("participant_id") == a.ParticipantID {
			return nil, status.ErrAlreadyRegistered
		}
		count++
	}

	if a.CapacityField != "" && resources[0].Has(a.CapacityField) {
		if limit := resources[0].Int(a.CapacityField); limit > 0 && count >= limit {
			return nil, status.ErrFull
		}
	}

	return s.insertLocked(a.MembershipTable, a.Row.Clone()).Clone(), nil
}

func (s *Store) createBookingLocked(a store.BookingArgs) (store.Row, error) {
	live := s.selectLocked(store.TableBookings, store.Filter{
		"mentor_id": a.MentorID,
		"status":    store.LiveBookingStatuses,
	})
	for _, b := range live {
		if store.Overlaps(a.StartsAt, a.EndsAt, b.Time("starts_at"), b.Time("ends_at")) {
			return nil, status.ErrSlotTaken
		}
	}
	return s.insertLocked(store.TableBookings, a.Row.Clone()).Clone(), nil
}

func (s *Store) selectLocked(table string, filter store.Filter) []store.Row {
	var out []store.Row
	for _, r := range s.tables[table] {
		if matches(r, filter) {
			out = append(out, r.Clone())
		}
	}
	return out
}

func (s *Store) insertLocked(table string, row store.Row) store.Row {
	if row.String("id") == "" {
		row["id"] = uuid.NewString()
	}
	now := s.now().UTC()
	if !row.Has("created") {
		row["created"] = now
	}
	row["updated"] = now
	s.tables[table] = append(s.tables[table], row)
	return row
}

func matches(r store.Row, filter store.Filter) bool {
	for k, want := range filter {
		got := cast.ToString(r[k])
		switch vals := want.(type) {
		case []string:
			if !slices.Contains(vals, got) {
				return false
			}
		case []any:
			if !slices.Contains(cast.ToStringSlice(vals), got) {
				return false
			}
		default:
			if got != cast.ToString(want) {
				return false
			}
		}
	}
	return true
}
