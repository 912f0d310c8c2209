package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mentorhub/internal/auth"
	"mentorhub/internal/status"
	"mentorhub/monitoring"

	"github.com/redis/go-redis/v9"
)

// Waitlist keeps a FIFO of participants waiting for a place on a full
// resource. Each resource has one Redis list of participant ids.
type Waitlist struct {
	redis   redis.Cmdable
	monitor *monitoring.Monitor
}

func NewWaitlist(client redis.Cmdable, monitor *monitoring.Monitor) *Waitlist {
	return &Waitlist{redis: client, monitor: monitor}
}

func waitlistKey(kind ResourceKind, resourceID string) string {
	return fmt.Sprintf("waitlist:%s:%s", kind, resourceID)
}

// joinScript appends ARGV[1] unless it is already queued and returns its
// 1-based position. It runs as one command so concurrent joins by the same
// participant cannot queue it twice.
var joinScript = redis.NewScript(`
local pos = redis.call("LPOS", KEYS[1], ARGV[1])
if pos then
	return pos + 1
end
return redis.call("RPUSH", KEYS[1], ARGV[1])
`)

// Join appends p and returns its 1-based position. Joining twice keeps the
// original place.
func (w *Waitlist) Join(ctx context.Context, p auth.Participant, kind ResourceKind, resourceID string) (int64, error) {
	key := waitlistKey(kind, resourceID)
	pos, err := joinScript.Run(ctx, w.redis, []string{key}, p.ID).Int64()
	if err != nil {
		w.monitor.TrackWaitlist("join", string(kind), "error")
		return 0, waitlistError(err, "Failed to join waitlist", key)
	}
	w.monitor.TrackWaitlist("join", string(kind), "success")
	return pos, nil
}

// Position is p's 1-based place, or ErrNotFound when p is not waiting.
func (w *Waitlist) Position(ctx context.Context, p auth.Participant, kind ResourceKind, resourceID string) (int64, error) {
	key := waitlistKey(kind, resourceID)
	idx, err := w.redis.LPos(ctx, key, p.ID, redis.LPosArgs{}).Result()
	if errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("%w: not on the waitlist", status.ErrNotFound)
	}
	if err != nil {
		return 0, waitlistError(err, "Failed to read waitlist", key)
	}
	return idx + 1, nil
}

// Leave removes p and reports whether it was waiting.
func (w *Waitlist) Leave(ctx context.Context, p auth.Participant, kind ResourceKind, resourceID string) (bool, error) {
	key := waitlistKey(kind, resourceID)
	n, err := w.redis.LRem(ctx, key, 0, p.ID).Result()
	if err != nil {
		w.monitor.TrackWaitlist("leave", string(kind), "error")
		return false, waitlistError(err, "Failed to leave waitlist", key)
	}
	w.monitor.TrackWaitlist("leave", string(kind), "success")
	return n > 0, nil
}

// pop takes the head of the list; ok is false when nobody is waiting.
func (w *Waitlist) pop(ctx context.Context, kind ResourceKind, resourceID string) (string, bool, error) {
	id, err := w.redis.LPop(ctx, waitlistKey(kind, resourceID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, waitlistError(err, "Failed to pop waitlist", waitlistKey(kind, resourceID))
	}
	return id, true, nil
}

// requeue puts a popped participant back at the head.
func (w *Waitlist) requeue(ctx context.Context, kind ResourceKind, resourceID, participantID string) {
	key := waitlistKey(kind, resourceID)
	if err := w.redis.LPush(ctx, key, participantID).Err(); err != nil {
		slog.Error("Failed to requeue waitlisted participant", "error", err, "key", key, "participant_id", participantID)
	}
}

func waitlistError(err error, msg, key string) error {
	slog.Error(msg, "error", err, "key", key)
	return fmt.Errorf("%w: %v", status.ErrStore, err)
}
