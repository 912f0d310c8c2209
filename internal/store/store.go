// Package store defines the capability-query contract the services use to reach
// the relational backend. Implementations live in the subpackages.
package store

import (
	"context"
	"fmt"
	"time"
)

// Tables.
const (
	TableEvents             = "events"
	TableEventRegistrations = "event_registrations"
	TableStudyGroups        = "study_groups"
	TableStudyGroupMembers  = "study_group_members"
	TableBookings           = "bookings"
	TableMentors            = "mentors"
	TableCourses            = "courses"
)

// Procedures every Store must provide through RPC.
const (
	RPCRegisterMembership = "register_membership"
	RPCCreateBooking      = "create_booking"
)

// StatusCancelled is the membership/booking status that does not hold a slot.
const StatusCancelled = "cancelled"

// Filter matches rows by column equality. A slice value matches any of its
// elements.
type Filter map[string]any

// Store is the minimal contract over the hosted backend.
type Store interface {
	Select(ctx context.Context, table string, filter Filter) ([]Row, error)
	Insert(ctx context.Context, table string, row Row) (Row, error)
	Update(ctx context.Context, table string, filter Filter, patch Row) (int64, error)
	Delete(ctx context.Context, table string, filter Filter) (int64, error)
	RPC(ctx context.Context, name string, args map[string]any) (Row, error)
}

// RegisterArgs are the arguments of RPCRegisterMembership. The procedure must
// run the duplicate and capacity checks and the insert as one atomic unit.
type RegisterArgs struct {
	ResourceTable   string
	CapacityField   string
	MembershipTable string
	ResourceField   string
	ResourceID      string
	ParticipantID   string
	Row             Row
}

func (a RegisterArgs) Map() map[string]any {
	return map[string]any{
		"resource_table":   a.ResourceTable,
		"capacity_field":   a.CapacityField,
		"membership_table": a.MembershipTable,
		"resource_field":   a.ResourceField,
		"resource_id":      a.ResourceID,
		"participant_id":   a.ParticipantID,
		"row":              a.Row,
	}
}

func ParseRegisterArgs(args map[string]any) (RegisterArgs, error) {
	r := Row(args)
	out := RegisterArgs{
		ResourceTable:   r.String("resource_table"),
		CapacityField:   r.String("capacity_field"),
		MembershipTable: r.String("membership_table"),
		ResourceField:   r.String("resource_field"),
		ResourceID:      r.String("resource_id"),
		ParticipantID:   r.String("participant_id"),
	}
	out.Row = AsRow(args["row"])
	if out.ResourceTable == "" || out.MembershipTable == "" || out.ResourceField == "" ||
		out.ResourceID == "" || out.ParticipantID == "" || out.Row == nil {
		return RegisterArgs{}, fmt.Errorf("%s: incomplete arguments", RPCRegisterMembership)
	}
	return out, nil
}

// BookingArgs are the arguments of RPCCreateBooking. The procedure must reject
// the insert when the mentor holds a live booking overlapping [StartsAt, EndsAt).
type BookingArgs struct {
	MentorID string
	StartsAt time.Time
	EndsAt   time.Time
	Row      Row
}

func (a BookingArgs) Map() map[string]any {
	return map[string]any{
		"mentor_id": a.MentorID,
		"starts_at": a.StartsAt,
		"ends_at":   a.EndsAt,
		"row":       a.Row,
	}
}

func ParseBookingArgs(args map[string]any) (BookingArgs, error) {
	r := Row(args)
	out := BookingArgs{
		MentorID: r.String("mentor_id"),
		StartsAt: r.Time("starts_at"),
		EndsAt:   r.Time("ends_at"),
	}
	out.Row = AsRow(args["row"])
	if out.MentorID == "" || out.StartsAt.IsZero() || !out.EndsAt.After(out.StartsAt) || out.Row == nil {
		return BookingArgs{}, fmt.Errorf("%s: incomplete arguments", RPCCreateBooking)
	}
	return out, nil
}

// LiveBookingStatuses are the statuses that occupy a mentor's time.
var LiveBookingStatuses = []string{"pending", "confirmed"}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
