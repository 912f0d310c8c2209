package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"mentorhub/internal/auth"
	"mentorhub/internal/status"
	"mentorhub/internal/store"
	"mentorhub/internal/store/memstore"
	"mentorhub/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newBookingFixture(t *testing.T) (*BookingService, *memstore.Store, *recordingNotifier) {
	t.Helper()
	st := memstore.New()
	st.Seed(store.TableMentors,
		store.Row{"id": "m-rao", "user_id": rao.ID, "name": "Dr. Meera Rao", "hourly_rate": 1000, "rating": 4.8},
		store.Row{"id": "m-iyer", "user_id": "u-iyer", "name": "Arjun Iyer", "hourly_rate": 750.5, "rating": 4.2},
	)
	notifier := &recordingNotifier{}
	svc := NewBookingService(st, notifier, nil, 3*time.Hour)
	svc.now = func() time.Time { return bookingNow }
	return svc, st, notifier
}

func request(mentorID string, startsIn time.Duration, minutes int) BookingRequest {
	return BookingRequest{
		MentorID:        mentorID,
		StartsAt:        bookingNow.Add(startsIn),
		DurationMinutes: minutes,
		SessionType:     "video",
	}
}

func TestSessionCost(t *testing.T) {
	tests := []struct {
		rate    string
		minutes int
		want    string
	}{
		{"1000", 90, "1500"},
		{"1000", 60, "1000"},
		{"1000", 30, "500"},
		{"750.50", 45, "562.88"},
		{"999", 1, "16.65"},
	}
	for _, tt := range tests {
		got := SessionCost(decimal.RequireFromString(tt.rate), tt.minutes)
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "rate %s for %d min: got %s", tt.rate, tt.minutes, got)
	}
}

func TestCreateBooking(t *testing.T) {
	svc, st, notifier := newBookingFixture(t)

	req := request("m-rao", 24*time.Hour, 90)
	req.Notes = "Help choosing between JEE and BITSAT"
	booking, err := svc.CreateBooking(context.Background(), alice, req)
	require.NoError(t, err)

	assert.NotEmpty(t, booking.ID)
	assert.True(t, strings.HasPrefix(booking.Reference, "MH-"))
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, "m-rao", booking.MentorID)
	assert.Equal(t, alice.ID, booking.ParticipantID)
	assert.Equal(t, bookingNow.Add(24*time.Hour), booking.StartsAt)
	assert.Equal(t, bookingNow.Add(24*time.Hour+90*time.Minute), booking.EndsAt)
	assert.True(t, decimal.NewFromInt(1500).Equal(booking.TotalAmount), "total %s", booking.TotalAmount)
	assert.True(t, decimal.NewFromInt(1000).Equal(booking.HourlyRate))
	assert.Equal(t, req.Notes, booking.Notes)

	rows, err := st.Select(context.Background(), store.TableBookings, store.Filter{"id": booking.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1500.0, rows[0].Float("total_amount"))

	// participant and mentor are both told
	require.Len(t, notifier.sent, 2)
	assert.Equal(t, alice.ID, notifier.sent[0].participantID)
	assert.Equal(t, rao.ID, notifier.sent[1].participantID)
	assert.Equal(t, "booking_created", notifier.sent[0].payload["type"])
}

func TestCreateBooking_ProviderNotFound(t *testing.T) {
	svc, _, _ := newBookingFixture(t)

	_, err := svc.CreateBooking(context.Background(), alice, request("m-ghost", time.Hour, 60))

	assert.ErrorIs(t, err, status.ErrNotFound)
}

func TestCreateBooking_Validation(t *testing.T) {
	svc, _, _ := newBookingFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*BookingRequest)
		want   string
	}{
		{"zero duration", func(r *BookingRequest) { r.DurationMinutes = 0 }, "duration_minutes"},
		{"negative duration", func(r *BookingRequest) { r.DurationMinutes = -30 }, "duration_minutes"},
		{"too long", func(r *BookingRequest) { r.DurationMinutes = 240 }, "duration_minutes"},
		{"duration overflowing nanoseconds", func(r *BookingRequest) { r.DurationMinutes = 307445735 }, "between 1 and 180"},
		{"past start", func(r *BookingRequest) { r.StartsAt = bookingNow.Add(-time.Minute) }, "in the past"},
		{"missing start", func(r *BookingRequest) { r.StartsAt = time.Time{} }, "starts_at is required"},
		{"session type", func(r *BookingRequest) { r.SessionType = "in-person" }, "session_type"},
		{"missing mentor", func(r *BookingRequest) { r.MentorID = "" }, "mentor_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request("m-rao", time.Hour, 60)
			tt.mutate(&req)
			_, err := svc.CreateBooking(ctx, alice, req)
			assert.ErrorIs(t, err, status.ErrValidation)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := svc.CreateBooking(ctx, auth.Participant{}, request("m-rao", time.Hour, 60))
	assert.ErrorIs(t, err, status.ErrUnauthorized)
}

func TestCreateBooking_WithoutMaxDuration(t *testing.T) {
	_, st, _ := newBookingFixture(t)
	svc := NewBookingService(st, nil, nil, 0)
	svc.now = func() time.Time { return bookingNow }
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, alice, request("m-rao", time.Hour, 0))
	assert.ErrorIs(t, err, status.ErrValidation)
	assert.Contains(t, err.Error(), "between 1 and 1440")
	assert.NotContains(t, err.Error(), "between 1 and 0")

	_, err = svc.CreateBooking(ctx, alice, request("m-rao", time.Hour, 307445735))
	assert.ErrorIs(t, err, status.ErrValidation)

	booking, err := svc.CreateBooking(ctx, alice, request("m-rao", time.Hour, 300))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Hour, booking.EndsAt.Sub(booking.StartsAt))
}

func TestCreateBooking_RejectsOverlappingSlot(t *testing.T) {
	svc, _, _ := newBookingFixture(t)
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, alice, request("m-rao", 2*time.Hour, 60))
	require.NoError(t, err)

	_, err = svc.CreateBooking(ctx, bob, request("m-rao", 2*time.Hour+30*time.Minute, 60))
	assert.ErrorIs(t, err, status.ErrSlotTaken)

	// back-to-back is fine
	_, err = svc.CreateBooking(ctx, bob, request("m-rao", 3*time.Hour, 30))
	assert.NoError(t, err)

	// another mentor at the same time is fine
	_, err = svc.CreateBooking(ctx, bob, request("m-iyer", 2*time.Hour, 60))
	assert.NoError(t, err)
}

func TestCreateBooking_CancelledBookingFreesSlot(t *testing.T) {
	svc, _, _ := newBookingFixture(t)
	ctx := context.Background()

	first, err := svc.CreateBooking(ctx, alice, request("m-rao", 2*time.Hour, 60))
	require.NoError(t, err)
	_, err = svc.CancelBooking(ctx, alice, first.ID)
	require.NoError(t, err)

	_, err = svc.CreateBooking(ctx, bob, request("m-rao", 2*time.Hour, 60))
	assert.NoError(t, err)
}

func TestBookingLifecycle(t *testing.T) {
	svc, _, _ := newBookingFixture(t)
	ctx := context.Background()

	booking, err := svc.CreateBooking(ctx, alice, request("m-rao", time.Hour, 60))
	require.NoError(t, err)

	_, err = svc.ConfirmBooking(ctx, alice, booking.ID)
	assert.ErrorIs(t, err, status.ErrForbidden, "participant cannot confirm")

	confirmed, err := svc.ConfirmBooking(ctx, rao, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, confirmed.Status)

	_, err = svc.ConfirmBooking(ctx, rao, booking.ID)
	assert.ErrorIs(t, err, status.ErrInvalidTransition)

	completed, err := svc.CompleteBooking(ctx, rao, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, completed.Status)

	_, err = svc.CancelBooking(ctx, alice, booking.ID)
	assert.ErrorIs(t, err, status.ErrInvalidTransition, "completed is terminal")
}

func TestConfirmBooking_RequiresMentorRole(t *testing.T) {
	svc, _, _ := newBookingFixture(t)
	ctx := context.Background()

	booking, err := svc.CreateBooking(ctx, alice, request("m-rao", time.Hour, 60))
	require.NoError(t, err)

	// Owns the m-rao profile but the account is not a mentor account.
	demoted := auth.Participant{ID: rao.ID, Role: auth.RoleStudent}
	_, err = svc.ConfirmBooking(ctx, demoted, booking.ID)
	assert.ErrorIs(t, err, status.ErrForbidden)

	// A mentor account that does not own the profile.
	otherMentor := auth.Participant{ID: "u-iyer", Role: auth.RoleMentor}
	_, err = svc.CompleteBooking(ctx, otherMentor, booking.ID)
	assert.ErrorIs(t, err, status.ErrForbidden)

	_, err = svc.ConfirmBooking(ctx, rao, booking.ID)
	assert.NoError(t, err)
}

func TestCancelBooking_Twice(t *testing.T) {
	svc, _, _ := newBookingFixture(t)
	ctx := context.Background()

	booking, err := svc.CreateBooking(ctx, alice, request("m-rao", time.Hour, 60))
	require.NoError(t, err)

	cancelled, err := svc.CancelBooking(ctx, rao, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)

	_, err = svc.CancelBooking(ctx, alice, booking.ID)
	assert.ErrorIs(t, err, status.ErrInvalidTransition)
}

func TestCancelBooking_Errors(t *testing.T) {
	svc, _, _ := newBookingFixture(t)
	ctx := context.Background()

	booking, err := svc.CreateBooking(ctx, alice, request("m-rao", time.Hour, 60))
	require.NoError(t, err)

	_, err = svc.CancelBooking(ctx, carol, booking.ID)
	assert.ErrorIs(t, err, status.ErrForbidden)

	_, err = svc.CancelBooking(ctx, alice, "bk-missing")
	assert.ErrorIs(t, err, status.ErrNotFound)

	_, err = svc.CompleteBooking(ctx, rao, booking.ID)
	assert.ErrorIs(t, err, status.ErrInvalidTransition, "pending cannot complete")
}

func TestCanTransition(t *testing.T) {
	all := []models.BookingStatus{models.BookingPending, models.BookingConfirmed, models.BookingCompleted, models.BookingCancelled}
	allowed := map[[2]models.BookingStatus]bool{
		{models.BookingPending, models.BookingConfirmed}:   true,
		{models.BookingPending, models.BookingCancelled}:   true,
		{models.BookingConfirmed, models.BookingCompleted}: true,
		{models.BookingConfirmed, models.BookingCancelled}: true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]models.BookingStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
		if from.Terminal() {
			for _, to := range all {
				assert.False(t, CanTransition(from, to))
			}
		}
	}
	assert.Equal(t, []string{"pending", "confirmed"}, sourcesOf(models.BookingCancelled))
	assert.Equal(t, []string{"pending"}, sourcesOf(models.BookingConfirmed))
}

func TestBookingHistory(t *testing.T) {
	svc, _, _ := newBookingFixture(t)
	ctx := context.Background()

	early, err := svc.CreateBooking(ctx, alice, request("m-rao", time.Hour, 30))
	require.NoError(t, err)
	late, err := svc.CreateBooking(ctx, alice, request("m-iyer", 48*time.Hour, 30))
	require.NoError(t, err)
	other, err := svc.CreateBooking(ctx, bob, request("m-rao", 5*time.Hour, 30))
	require.NoError(t, err)

	history, err := svc.History(ctx, alice)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, late.ID, history[0].ID)
	assert.Equal(t, early.ID, history[1].ID)

	mentorView, err := svc.History(ctx, rao)
	require.NoError(t, err)
	require.Len(t, mentorView, 2)
	assert.Equal(t, other.ID, mentorView[0].ID)
	assert.Equal(t, early.ID, mentorView[1].ID)

	_, err = svc.History(ctx, auth.Participant{})
	assert.ErrorIs(t, err, status.ErrUnauthorized)
}

func TestBooking_StoreFailure(t *testing.T) {
	svc := NewBookingService(brokenStore{}, nil, nil, time.Hour)

	_, err := svc.CreateBooking(context.Background(), alice, BookingRequest{
		MentorID:        "m-rao",
		StartsAt:        time.Now().Add(time.Hour),
		DurationMinutes: 30,
		SessionType:     "chat",
	})
	assert.ErrorIs(t, err, status.ErrStore)

	_, err = svc.CancelBooking(context.Background(), alice, "bk-1")
	assert.ErrorIs(t, err, status.ErrStore)
}
