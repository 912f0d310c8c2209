package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"mentorhub/internal/auth"
	"mentorhub/internal/status"
	"mentorhub/internal/store"
	"mentorhub/models"
	"mentorhub/monitoring"
	"mentorhub/utils"

	"github.com/shopspring/decimal"
)

var sessionTypes = []string{"video", "audio", "chat"}

// maxUnboundedMinutes caps a session when no maximum duration is configured.
const maxUnboundedMinutes = 24 * 60

// transitions lists the statuses reachable from each non-terminal status.
var transitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingPending:   {models.BookingConfirmed, models.BookingCancelled},
	models.BookingConfirmed: {models.BookingCompleted, models.BookingCancelled},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to models.BookingStatus) bool {
	return slices.Contains(transitions[from], to)
}

// sourcesOf returns the statuses from which to is reachable.
func sourcesOf(to models.BookingStatus) []string {
	var out []string
	for _, from := range []models.BookingStatus{models.BookingPending, models.BookingConfirmed} {
		if CanTransition(from, to) {
			out = append(out, string(from))
		}
	}
	return out
}

// SessionCost is hourlyRate * minutes / 60 rounded to paise.
func SessionCost(hourlyRate decimal.Decimal, minutes int) decimal.Decimal {
	return hourlyRate.Mul(decimal.NewFromInt(int64(minutes))).Div(decimal.NewFromInt(60)).Round(2)
}

type BookingRequest struct {
	MentorID        string    `json:"mentor_id"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes"`
	SessionType     string    `json:"session_type"`
	Notes           string    `json:"notes"`
}

type BookingService struct {
	store       store.Store
	notifier    Notifier
	monitor     *monitoring.Monitor
	maxDuration time.Duration
	now         func() time.Time
}

func NewBookingService(st store.Store, notifier Notifier, monitor *monitoring.Monitor, maxDuration time.Duration) *BookingService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &BookingService{
		store:       st,
		notifier:    notifier,
		monitor:     monitor,
		maxDuration: maxDuration,
		now:         time.Now,
	}
}

func (s *BookingService) validate(req BookingRequest) error {
	var problems []string
	if strings.TrimSpace(req.MentorID) == "" {
		problems = append(problems, "mentor_id is required")
	}
	// Compare in minutes; converting a huge count to a Duration overflows.
	maxMinutes := int(s.maxDuration / time.Minute)
	switch {
	case maxMinutes > 0 && (req.DurationMinutes <= 0 || req.DurationMinutes > maxMinutes):
		problems = append(problems, fmt.Sprintf("duration_minutes must be between 1 and %d", maxMinutes))
	case maxMinutes <= 0 && (req.DurationMinutes <= 0 || req.DurationMinutes > maxUnboundedMinutes):
		problems = append(problems, fmt.Sprintf("duration_minutes must be between 1 and %d", maxUnboundedMinutes))
	}
	if req.StartsAt.IsZero() {
		problems = append(problems, "starts_at is required")
	} else if req.StartsAt.Before(s.now()) {
		problems = append(problems, "starts_at is in the past")
	}
	if !slices.Contains(sessionTypes, req.SessionType) {
		problems = append(problems, "session_type must be one of "+strings.Join(sessionTypes, ", "))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", status.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

// CreateBooking books a pending session with a mentor. The store rejects a
// slot that overlaps one of the mentor's live bookings.
func (s *BookingService) CreateBooking(ctx context.Context, p auth.Participant, req BookingRequest) (models.Booking, error) {
	if err := p.Valid(); err != nil {
		return models.Booking{}, err
	}
	if err := s.validate(req); err != nil {
		return models.Booking{}, err
	}

	mentor, err := s.mentor(ctx, req.MentorID)
	if err != nil {
		return models.Booking{}, err
	}

	startsAt := req.StartsAt.UTC()
	endsAt := startsAt.Add(time.Duration(req.DurationMinutes) * time.Minute)
	total := SessionCost(mentor.HourlyRate, req.DurationMinutes)
	reference, err := utils.ReferenceCode("MH-", 4)
	if err != nil {
		return models.Booking{}, fmt.Errorf("booking reference: %w", err)
	}

	row := store.Row{
		"reference":        reference,
		"mentor_id":        mentor.ID,
		"participant_id":   p.ID,
		"starts_at":        startsAt,
		"ends_at":          endsAt,
		"duration_minutes": req.DurationMinutes,
		"session_type":     req.SessionType,
		"status":           string(models.BookingPending),
		"hourly_rate":      mentor.HourlyRate.InexactFloat64(),
		"total_amount":     total.InexactFloat64(),
		"notes":            req.Notes,
	}
	created, err := s.store.RPC(ctx, store.RPCCreateBooking, store.BookingArgs{
		MentorID: mentor.ID,
		StartsAt: startsAt,
		EndsAt:   endsAt,
		Row:      row,
	}.Map())
	if err != nil {
		err = storeError(err, "Failed to create booking", "mentor_id", mentor.ID, "participant_id", p.ID)
		s.monitor.TrackBookingTransition("", string(models.BookingPending), outcome(err))
		return models.Booking{}, err
	}

	booking := bookingFromRow(created)
	booking.HourlyRate = mentor.HourlyRate
	booking.TotalAmount = total

	s.monitor.TrackBookingTransition("", string(models.BookingPending), "success")
	s.monitor.TrackBookingAmount(total.InexactFloat64())
	s.notifyParties(ctx, booking, mentor.UserID, "booking_created")
	return booking, nil
}

// CancelBooking is allowed for the booking's participant and its mentor.
func (s *BookingService) CancelBooking(ctx context.Context, p auth.Participant, bookingID string) (models.Booking, error) {
	return s.transition(ctx, p, bookingID, models.BookingCancelled)
}

// ConfirmBooking is allowed for the mentor only.
func (s *BookingService) ConfirmBooking(ctx context.Context, p auth.Participant, bookingID string) (models.Booking, error) {
	return s.transition(ctx, p, bookingID, models.BookingConfirmed)
}

// CompleteBooking is allowed for the mentor only.
func (s *BookingService) CompleteBooking(ctx context.Context, p auth.Participant, bookingID string) (models.Booking, error) {
	return s.transition(ctx, p, bookingID, models.BookingCompleted)
}

func (s *BookingService) transition(ctx context.Context, p auth.Participant, bookingID string, to models.BookingStatus) (models.Booking, error) {
	if err := p.Valid(); err != nil {
		return models.Booking{}, err
	}

	rows, err := s.store.Select(ctx, store.TableBookings, store.Filter{"id": bookingID})
	if err != nil {
		return models.Booking{}, storeError(err, "Failed to load booking", "booking_id", bookingID)
	}
	if len(rows) == 0 {
		return models.Booking{}, fmt.Errorf("%w: booking %s", status.ErrNotFound, bookingID)
	}
	booking := bookingFromRow(rows[0])

	mentorUserID := ""
	if mentor, err := s.mentor(ctx, booking.MentorID); err == nil {
		mentorUserID = mentor.UserID
	} else if !isNotFound(err) {
		return models.Booking{}, err
	}

	// Acting as the mentor needs both the mentor role and ownership of the profile.
	isMentor := p.IsMentor() && mentorUserID != "" && mentorUserID == p.ID
	isParticipant := booking.ParticipantID == p.ID
	allowed := isMentor || (to == models.BookingCancelled && isParticipant)
	if !allowed {
		return models.Booking{}, fmt.Errorf("%w: booking %s", status.ErrForbidden, bookingID)
	}

	from := booking.Status
	if !CanTransition(from, to) {
		s.monitor.TrackBookingTransition(string(from), string(to), "invalid")
		return models.Booking{}, fmt.Errorf("%w: %s -> %s", status.ErrInvalidTransition, from, to)
	}

	n, err := s.store.Update(ctx, store.TableBookings,
		store.Filter{"id": bookingID, "status": sourcesOf(to)},
		store.Row{"status": string(to)},
	)
	if err != nil {
		return models.Booking{}, storeError(err, "Failed to update booking", "booking_id", bookingID, "to", to)
	}
	if n == 0 {
		// Another request moved the booking first.
		s.monitor.TrackBookingTransition(string(from), string(to), "invalid")
		return models.Booking{}, fmt.Errorf("%w: booking %s changed concurrently", status.ErrInvalidTransition, bookingID)
	}

	booking.Status = to
	s.monitor.TrackBookingTransition(string(from), string(to), "success")
	s.notifyParties(ctx, booking, mentorUserID, "booking_"+string(to))
	return booking, nil
}

// History returns the caller's bookings, newest session first. Mentors also
// see the sessions booked with them.
func (s *BookingService) History(ctx context.Context, p auth.Participant) ([]models.Booking, error) {
	if err := p.Valid(); err != nil {
		return nil, err
	}

	rows, err := s.store.Select(ctx, store.TableBookings, store.Filter{"participant_id": p.ID})
	if err != nil {
		return nil, storeError(err, "Failed to load bookings", "participant_id", p.ID)
	}

	mentors, err := s.store.Select(ctx, store.TableMentors, store.Filter{"user_id": p.ID})
	if err != nil {
		return nil, storeError(err, "Failed to load mentor profile", "participant_id", p.ID)
	}
	if len(mentors) > 0 {
		ids := make([]string, 0, len(mentors))
		for _, m := range mentors {
			ids = append(ids, m.String("id"))
		}
		asMentor, err := s.store.Select(ctx, store.TableBookings, store.Filter{"mentor_id": ids})
		if err != nil {
			return nil, storeError(err, "Failed to load mentor bookings", "participant_id", p.ID)
		}
		rows = append(rows, asMentor...)
	}

	seen := make(map[string]bool, len(rows))
	out := make([]models.Booking, 0, len(rows))
	for _, row := range rows {
		b := bookingFromRow(row)
		if seen[b.ID] {
			continue
		}
		seen[b.ID] = true
		out = append(out, b)
	}
	slices.SortStableFunc(out, func(a, b models.Booking) int {
		return b.StartsAt.Compare(a.StartsAt)
	})
	return out, nil
}

func (s *BookingService) mentor(ctx context.Context, id string) (models.Mentor, error) {
	rows, err := s.store.Select(ctx, store.TableMentors, store.Filter{"id": id})
	if err != nil {
		return models.Mentor{}, storeError(err, "Failed to load mentor", "mentor_id", id)
	}
	if len(rows) == 0 {
		return models.Mentor{}, fmt.Errorf("%w: mentor %s", status.ErrNotFound, id)
	}
	return mentorFromRow(rows[0]), nil
}

func (s *BookingService) notifyParties(ctx context.Context, b models.Booking, mentorUserID, kind string) {
	payload := map[string]any{
		"type":       kind,
		"booking_id": b.ID,
		"status":     b.Status,
		"starts_at":  b.StartsAt,
	}
	s.notifier.Notify(ctx, b.ParticipantID, payload)
	if mentorUserID != "" && mentorUserID != b.ParticipantID {
		s.notifier.Notify(ctx, mentorUserID, payload)
	}
}

func bookingFromRow(row store.Row) models.Booking {
	return models.Booking{
		ID:              row.String("id"),
		Reference:       row.String("reference"),
		MentorID:        row.String("mentor_id"),
		ParticipantID:   row.String("participant_id"),
		StartsAt:        row.Time("starts_at"),
		EndsAt:          row.Time("ends_at"),
		DurationMinutes: row.Int("duration_minutes"),
		SessionType:     row.String("session_type"),
		Status:          models.BookingStatus(row.String("status")),
		HourlyRate:      decimal.NewFromFloat(row.Float("hourly_rate")),
		TotalAmount:     decimal.NewFromFloat(row.Float("total_amount")),
		Notes:           row.String("notes"),
		CreatedAt:       row.Time("created"),
	}
}
