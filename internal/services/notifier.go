package services

import (
	"context"
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go/v7"
)

// Notifier pushes best-effort updates to a participant. Failures are logged,
// never returned.
type Notifier interface {
	Notify(ctx context.Context, participantID string, payload map[string]any)
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, map[string]any) {}

type PubNubNotifier struct {
	pn *pubnub.PubNub
}

func NewPubNubNotifier(pn *pubnub.PubNub) *PubNubNotifier {
	return &PubNubNotifier{pn: pn}
}

func (n *PubNubNotifier) Notify(ctx context.Context, participantID string, payload map[string]any) {
	channel := fmt.Sprintf("user-%s", participantID)
	_, _, err := n.pn.Publish().
		Channel(channel).
		Message(payload).
		Execute()
	if err != nil {
		slog.Warn("Failed to publish notification", "error", err, "channel", channel, "type", payload["type"])
	}
}
