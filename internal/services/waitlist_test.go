package services

import (
	"context"
	"errors"
	"testing"

	"mentorhub/internal/auth"
	"mentorhub/internal/status"
	"mentorhub/internal/store"
	"mentorhub/internal/store/memstore"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventWaitlist = "waitlist:event:evt-1"

func newWaitlistFixture(t *testing.T, capacity int) (*RegistrationService, redismock.ClientMock, *recordingNotifier) {
	t.Helper()
	st := memstore.New()
	st.Seed(store.TableEvents,
		store.Row{"id": "evt-1", "title": "JEE strategy webinar", "max_attendees": capacity},
		store.Row{"id": "evt-open", "title": "Career fair"},
	)
	db, mock := redismock.NewClientMock()
	notifier := &recordingNotifier{}
	svc := NewRegistrationService(st, notifier, nil)
	svc.SetWaitlist(NewWaitlist(db, nil))
	return svc, mock, notifier
}

func TestJoinWaitlist(t *testing.T) {
	svc, mock, _ := newWaitlistFixture(t, 1)
	ctx := context.Background()

	_, err := svc.Register(ctx, alice, KindEvent, "evt-1")
	require.NoError(t, err)

	mock.ExpectEvalSha(joinScript.Hash(), []string{eventWaitlist}, bob.ID).SetVal(int64(1))
	pos, err := svc.JoinWaitlist(ctx, bob, KindEvent, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), pos)

	mock.ExpectEvalSha(joinScript.Hash(), []string{eventWaitlist}, carol.ID).SetVal(int64(2))
	pos, err = svc.JoinWaitlist(ctx, carol, KindEvent, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), pos)

	_, err = svc.JoinWaitlist(ctx, alice, KindEvent, "evt-1")
	assert.ErrorIs(t, err, status.ErrAlreadyRegistered)

	_, err = svc.JoinWaitlist(ctx, carol, KindEvent, "evt-open")
	assert.ErrorIs(t, err, status.ErrValidation, "open resources are joined directly")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitlistPositionAndLeave(t *testing.T) {
	svc, mock, _ := newWaitlistFixture(t, 1)
	ctx := context.Background()

	mock.ExpectLPos(eventWaitlist, bob.ID, redis.LPosArgs{}).SetVal(1)
	pos, err := svc.WaitlistPosition(ctx, bob, KindEvent, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), pos)

	mock.ExpectLPos(eventWaitlist, bob.ID, redis.LPosArgs{}).RedisNil()
	_, err = svc.WaitlistPosition(ctx, bob, KindEvent, "evt-1")
	assert.ErrorIs(t, err, status.ErrNotFound)

	mock.ExpectLRem(eventWaitlist, 0, carol.ID).SetVal(1)
	removed, err := svc.LeaveWaitlist(ctx, carol, KindEvent, "evt-1")
	require.NoError(t, err)
	assert.True(t, removed)

	mock.ExpectLRem(eventWaitlist, 0, carol.ID).SetVal(0)
	removed, err = svc.LeaveWaitlist(ctx, carol, KindEvent, "evt-1")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = svc.LeaveWaitlist(ctx, carol, "webinar", "evt-1")
	assert.ErrorIs(t, err, status.ErrValidation)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnregisterPromotesFromWaitlist(t *testing.T) {
	svc, mock, notifier := newWaitlistFixture(t, 1)
	ctx := context.Background()

	_, err := svc.Register(ctx, alice, KindEvent, "evt-1")
	require.NoError(t, err)

	mock.ExpectLPop(eventWaitlist).SetVal(bob.ID)
	removed, err := svc.Unregister(ctx, alice, KindEvent, "evt-1")
	require.NoError(t, err)
	assert.True(t, removed)

	attendees, err := svc.Attendees(ctx, KindEvent, "evt-1")
	require.NoError(t, err)
	require.Len(t, attendees, 1)
	assert.Equal(t, bob.ID, attendees[0].ParticipantID)
	assert.Equal(t, []string{"registration_confirmed", "registration_cancelled", "registration_confirmed"}, notifier.types())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromotionSkipsParticipantsAlreadyRegistered(t *testing.T) {
	svc, mock, _ := newWaitlistFixture(t, 2)
	ctx := context.Background()

	for _, p := range []auth.Participant{alice, carol} {
		_, err := svc.Register(ctx, p, KindEvent, "evt-1")
		require.NoError(t, err)
	}

	mock.ExpectLPop(eventWaitlist).SetVal(carol.ID)
	mock.ExpectLPop(eventWaitlist).SetVal(bob.ID)
	_, err := svc.Unregister(ctx, alice, KindEvent, "evt-1")
	require.NoError(t, err)

	attendees, err := svc.Attendees(ctx, KindEvent, "evt-1")
	require.NoError(t, err)
	ids := []string{attendees[0].ParticipantID, attendees[1].ParticipantID}
	assert.ElementsMatch(t, []string{carol.ID, bob.ID}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnregisterWithEmptyWaitlist(t *testing.T) {
	svc, mock, _ := newWaitlistFixture(t, 1)
	ctx := context.Background()

	_, err := svc.Register(ctx, alice, KindEvent, "evt-1")
	require.NoError(t, err)

	mock.ExpectLPop(eventWaitlist).RedisNil()
	_, err = svc.Unregister(ctx, alice, KindEvent, "evt-1")
	require.NoError(t, err)

	attendees, err := svc.Attendees(ctx, KindEvent, "evt-1")
	require.NoError(t, err)
	assert.Empty(t, attendees)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitlist_RedisFailure(t *testing.T) {
	svc, mock, _ := newWaitlistFixture(t, 1)
	ctx := context.Background()

	_, err := svc.Register(ctx, alice, KindEvent, "evt-1")
	require.NoError(t, err)

	mock.ExpectEvalSha(joinScript.Hash(), []string{eventWaitlist}, bob.ID).SetErr(errors.New("connection refused"))
	_, err = svc.JoinWaitlist(ctx, bob, KindEvent, "evt-1")
	assert.ErrorIs(t, err, status.ErrStore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitlist_Disabled(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t)

	_, err := svc.JoinWaitlist(context.Background(), bob, KindEvent, "evt-jee")
	assert.ErrorIs(t, err, status.ErrValidation)
	_, err = svc.WaitlistPosition(context.Background(), bob, KindEvent, "evt-jee")
	assert.ErrorIs(t, err, status.ErrValidation)
}
