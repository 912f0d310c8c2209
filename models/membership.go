package models

import (
	"time"
)

const (
	MembershipConfirmed = "confirmed"
	MembershipPending   = "pending"
	MembershipMember    = "member"
	MembershipCancelled = "cancelled"
)

// Membership links one participant to one event or study group.
type Membership struct {
	ID            string    `json:"id"`
	ResourceKind  string    `json:"resource_kind"` // event, study_group
	ResourceID    string    `json:"resource_id"`
	ParticipantID string    `json:"participant_id"`
	Status        string    `json:"status"`
	Role          string    `json:"role,omitempty"`
	JoinedAt      time.Time `json:"joined_at"`
}
