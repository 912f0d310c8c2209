package services

import (
	"context"
	"errors"
	"sync"

	"mentorhub/internal/auth"
	"mentorhub/internal/store"
)

var (
	alice = auth.Participant{ID: "u-alice", Role: "student"}
	bob   = auth.Participant{ID: "u-bob", Role: "student"}
	carol = auth.Participant{ID: "u-carol", Role: "student"}
	rao   = auth.Participant{ID: "u-rao", Role: "mentor"}
)

type notification struct {
	participantID string
	payload       map[string]any
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Notify(_ context.Context, participantID string, payload map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{participantID: participantID, payload: payload})
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.payload["type"].(string))
	}
	return out
}

// brokenStore fails every call the way an unreachable backend would.
type brokenStore struct{}

var errBackendDown = errors.New("dial tcp 10.0.0.5:5432: connection refused")

func (brokenStore) Select(context.Context, string, store.Filter) ([]store.Row, error) {
	return nil, errBackendDown
}

func (brokenStore) Insert(context.Context, string, store.Row) (store.Row, error) {
	return nil, errBackendDown
}

func (brokenStore) Update(context.Context, string, store.Filter, store.Row) (int64, error) {
	return 0, errBackendDown
}

func (brokenStore) Delete(context.Context, string, store.Filter) (int64, error) {
	return 0, errBackendDown
}

func (brokenStore) RPC(context.Context, string, map[string]any) (store.Row, error) {
	return nil, errBackendDown
}
