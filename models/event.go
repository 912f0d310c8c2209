package models

import (
	"time"
)

type Event struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Streams      []string  `json:"streams"`
	Location     string    `json:"location"`
	IsOnline     bool      `json:"is_online"`
	StartsAt     time.Time `json:"starts_at"`
	MaxAttendees *int      `json:"max_attendees"` // nil means unlimited
	OrganizerID  string    `json:"organizer_id"`
}

type StudyGroup struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Subject     string   `json:"subject"`
	Streams     []string `json:"streams"`
	MaxMembers  *int     `json:"max_members"` // nil means unlimited
	CreatorID   string   `json:"creator_id"`
}

// Availability is what a participant sees before joining a resource.
type Availability struct {
	ResourceID   string `json:"resource_id"`
	ResourceKind string `json:"resource_kind"`
	Count        int    `json:"count"`
	Capacity     *int   `json:"capacity"`
	Remaining    *int   `json:"remaining"`
	Allowed      bool   `json:"allowed"`
	Reason       string `json:"reason,omitempty"` // AlreadyRegistered, Full
}
