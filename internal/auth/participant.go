// Package auth carries the authenticated caller into service calls.
package auth

import (
	"strings"

	"mentorhub/internal/status"

	"github.com/pocketbase/pocketbase/core"
)

const (
	RoleStudent = "student"
	RoleMentor  = "mentor"
	RoleAdmin   = "admin"
)

// Participant is the authenticated user performing an operation.
type Participant struct {
	ID   string
	Role string
}

// IsMentor reports whether the user's account holds the mentor role.
func (p Participant) IsMentor() bool {
	return p.Role == RoleMentor
}

// Valid reports ErrUnauthorized for an anonymous participant.
func (p Participant) Valid() error {
	if strings.TrimSpace(p.ID) == "" {
		return status.ErrUnauthorized
	}
	return nil
}

// FromRecord builds a Participant from a PocketBase auth record. A nil record
// yields the zero Participant.
func FromRecord(rec *core.Record) Participant {
	if rec == nil {
		return Participant{}
	}
	role := rec.GetString("role")
	if role == "" {
		role = RoleStudent
	}
	return Participant{
		ID:   rec.Id,
		Role: role,
	}
}
