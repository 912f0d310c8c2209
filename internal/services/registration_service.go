package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mentorhub/internal/auth"
	"mentorhub/internal/status"
	"mentorhub/internal/store"
	"mentorhub/models"
	"mentorhub/monitoring"
)

type RegistrationService struct {
	store    store.Store
	notifier Notifier
	monitor  *monitoring.Monitor
	waitlist *Waitlist
	now      func() time.Time
}

func NewRegistrationService(st store.Store, notifier Notifier, monitor *monitoring.Monitor) *RegistrationService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &RegistrationService{
		store:    st,
		notifier: notifier,
		monitor:  monitor,
		now:      time.Now,
	}
}

// SetWaitlist enables waitlists. Without one the waitlist operations fail with
// ErrValidation and unregistering promotes nobody.
func (s *RegistrationService) SetWaitlist(w *Waitlist) {
	s.waitlist = w
}

// CanRegister reports whether p may join the resource right now, with the
// live count and remaining capacity. A refusal is not an error.
func (s *RegistrationService) CanRegister(ctx context.Context, p auth.Participant, kind ResourceKind, resourceID string) (models.Availability, error) {
	if err := p.Valid(); err != nil {
		return models.Availability{}, err
	}
	spec, err := specFor(kind)
	if err != nil {
		return models.Availability{}, err
	}

	capacity, err := s.loadCapacity(ctx, spec, resourceID)
	if err != nil {
		return models.Availability{}, err
	}

	members, err := s.liveMembers(ctx, spec, resourceID)
	if err != nil {
		return models.Availability{}, err
	}
	already := false
	for _, m := range members {
		if m.String("participant_id") == p.ID {
			already = true
			break
		}
	}

	decision := CanRegister(capacity, len(members), already)
	avail := models.Availability{
		ResourceID:   resourceID,
		ResourceKind: string(kind),
		Count:        len(members),
		Capacity:     capacity.ptr(),
		Allowed:      decision.Allowed,
		Reason:       string(decision.Reason),
	}
	if remaining, ok := capacity.Remaining(len(members)); ok {
		avail.Remaining = &remaining
	}
	return avail, nil
}

// Register creates p's membership. The pre-check gives a fast refusal; the
// store procedure repeats both checks atomically so concurrent callers cannot
// exceed the capacity.
func (s *RegistrationService) Register(ctx context.Context, p auth.Participant, kind ResourceKind, resourceID string) (models.Membership, error) {
	avail, err := s.CanRegister(ctx, p, kind, resourceID)
	if err != nil {
		s.monitor.TrackRegistration("register", string(kind), outcome(err))
		return models.Membership{}, err
	}
	if !avail.Allowed {
		err := Decision{Reason: Reason(avail.Reason)}.Err()
		s.monitor.TrackRegistration("register", string(kind), avail.Reason)
		return models.Membership{}, err
	}

	spec := resourceSpecs[kind]
	row := store.Row{
		spec.resourceField: resourceID,
		"participant_id":   p.ID,
		"status":           spec.initialStatus,
		spec.joinedField:   s.now().UTC(),
	}
	if spec.role != "" {
		row["role"] = spec.role
	}

	created, err := s.store.RPC(ctx, store.RPCRegisterMembership, store.RegisterArgs{
		ResourceTable:   spec.table,
		CapacityField:   spec.capacityField,
		MembershipTable: spec.membershipTable,
		ResourceField:   spec.resourceField,
		ResourceID:      resourceID,
		ParticipantID:   p.ID,
		Row:             row,
	}.Map())
	if err != nil {
		err = storeError(err, "Failed to register participant", "kind", kind, "resource_id", resourceID, "participant_id", p.ID)
		s.monitor.TrackRegistration("register", string(kind), outcome(err))
		return models.Membership{}, err
	}

	s.monitor.TrackRegistration("register", string(kind), "success")
	s.notifier.Notify(ctx, p.ID, map[string]any{
		"type":          "registration_confirmed",
		"resource_kind": kind,
		"resource_id":   resourceID,
	})
	return membershipFromRow(kind, spec, created), nil
}

// Unregister removes p's membership. Removing a membership that does not exist
// succeeds and reports false.
func (s *RegistrationService) Unregister(ctx context.Context, p auth.Participant, kind ResourceKind, resourceID string) (bool, error) {
	if err := p.Valid(); err != nil {
		return false, err
	}
	spec, err := specFor(kind)
	if err != nil {
		return false, err
	}

	n, err := s.store.Delete(ctx, spec.membershipTable, store.Filter{
		spec.resourceField: resourceID,
		"participant_id":   p.ID,
	})
	if err != nil {
		err = storeError(err, "Failed to unregister participant", "kind", kind, "resource_id", resourceID, "participant_id", p.ID)
		s.monitor.TrackRegistration("unregister", string(kind), outcome(err))
		return false, err
	}
	if n == 0 {
		slog.Info("Unregister found no membership", "kind", kind, "resource_id", resourceID, "participant_id", p.ID)
		s.monitor.TrackRegistration("unregister", string(kind), "noop")
		return false, nil
	}

	s.monitor.TrackRegistration("unregister", string(kind), "success")
	s.notifier.Notify(ctx, p.ID, map[string]any{
		"type":          "registration_cancelled",
		"resource_kind": kind,
		"resource_id":   resourceID,
	})
	s.promote(ctx, kind, resourceID)
	return true, nil
}

// JoinWaitlist queues p for a full resource and returns its position.
func (s *RegistrationService) JoinWaitlist(ctx context.Context, p auth.Participant, kind ResourceKind, resourceID string) (int64, error) {
	if s.waitlist == nil {
		return 0, fmt.Errorf("%w: waitlist is not available", status.ErrValidation)
	}
	avail, err := s.CanRegister(ctx, p, kind, resourceID)
	if err != nil {
		return 0, err
	}
	switch Reason(avail.Reason) {
	case ReasonAlreadyRegistered:
		return 0, status.ErrAlreadyRegistered
	case ReasonNone:
		return 0, fmt.Errorf("%w: places are still open, register instead", status.ErrValidation)
	}
	return s.waitlist.Join(ctx, p, kind, resourceID)
}

func (s *RegistrationService) WaitlistPosition(ctx context.Context, p auth.Participant, kind ResourceKind, resourceID string) (int64, error) {
	if err := p.Valid(); err != nil {
		return 0, err
	}
	if _, err := specFor(kind); err != nil {
		return 0, err
	}
	if s.waitlist == nil {
		return 0, fmt.Errorf("%w: waitlist is not available", status.ErrValidation)
	}
	return s.waitlist.Position(ctx, p, kind, resourceID)
}

func (s *RegistrationService) LeaveWaitlist(ctx context.Context, p auth.Participant, kind ResourceKind, resourceID string) (bool, error) {
	if err := p.Valid(); err != nil {
		return false, err
	}
	if _, err := specFor(kind); err != nil {
		return false, err
	}
	if s.waitlist == nil {
		return false, fmt.Errorf("%w: waitlist is not available", status.ErrValidation)
	}
	return s.waitlist.Leave(ctx, p, kind, resourceID)
}

// promote registers the first waiting participant who can take the freed
// place. Someone who registered directly meanwhile is dropped from the list.
func (s *RegistrationService) promote(ctx context.Context, kind ResourceKind, resourceID string) {
	if s.waitlist == nil {
		return
	}
	for {
		next, ok, err := s.waitlist.pop(ctx, kind, resourceID)
		if err != nil || !ok {
			return
		}
		_, err = s.Register(ctx, auth.Participant{ID: next}, kind, resourceID)
		switch {
		case err == nil:
			s.monitor.TrackWaitlist("promote", string(kind), "success")
			return
		case errors.Is(err, status.ErrAlreadyRegistered):
			continue
		default:
			// Full again, or the store failed: keep the place in line.
			s.monitor.TrackWaitlist("promote", string(kind), outcome(err))
			s.waitlist.requeue(ctx, kind, resourceID, next)
			return
		}
	}
}

// Attendees lists the live memberships of a resource in join order.
func (s *RegistrationService) Attendees(ctx context.Context, kind ResourceKind, resourceID string) ([]models.Membership, error) {
	spec, err := specFor(kind)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadCapacity(ctx, spec, resourceID); err != nil {
		return nil, err
	}
	rows, err := s.liveMembers(ctx, spec, resourceID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Membership, 0, len(rows))
	for _, row := range rows {
		out = append(out, membershipFromRow(kind, spec, row))
	}
	return out, nil
}

func (s *RegistrationService) loadCapacity(ctx context.Context, spec resourceSpec, resourceID string) (Capacity, error) {
	rows, err := s.store.Select(ctx, spec.table, store.Filter{"id": resourceID})
	if err != nil {
		return Capacity{}, storeError(err, "Failed to load resource", "table", spec.table, "resource_id", resourceID)
	}
	if len(rows) == 0 {
		return Capacity{}, fmt.Errorf("%w: %s %s", status.ErrNotFound, spec.table, resourceID)
	}
	return capacityFromRow(rows[0], spec.capacityField), nil
}

func (s *RegistrationService) liveMembers(ctx context.Context, spec resourceSpec, resourceID string) ([]store.Row, error) {
	rows, err := s.store.Select(ctx, spec.membershipTable, store.Filter{spec.resourceField: resourceID})
	if err != nil {
		return nil, storeError(err, "Failed to load memberships", "table", spec.membershipTable, "resource_id", resourceID)
	}
	live := make([]store.Row, 0, len(rows))
	for _, row := range rows {
		if row.String("status") != store.StatusCancelled {
			live = append(live, row)
		}
	}
	return live, nil
}

var domainErrors = []error{
	status.ErrUnauthorized,
	status.ErrForbidden,
	status.ErrAlreadyRegistered,
	status.ErrFull,
	status.ErrNotFound,
	status.ErrInvalidTransition,
	status.ErrSlotTaken,
	status.ErrValidation,
}

// storeError passes domain errors raised by a store procedure through and
// wraps everything else as ErrStore after logging it.
func storeError(err error, msg string, attrs ...any) error {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	slog.Error(msg, append([]any{"error", err}, attrs...)...)
	return fmt.Errorf("%w: %v", status.ErrStore, err)
}

// outcome is the metric label for an error.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, status.ErrFull):
		return string(ReasonFull)
	case errors.Is(err, status.ErrAlreadyRegistered):
		return string(ReasonAlreadyRegistered)
	case errors.Is(err, status.ErrNotFound):
		return "not_found"
	case errors.Is(err, status.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, status.ErrStore):
		return "store_error"
	}
	return "error"
}
