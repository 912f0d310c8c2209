package services

import (
	"fmt"

	"mentorhub/internal/status"
	"mentorhub/internal/store"
	"mentorhub/models"
)

type ResourceKind string

const (
	KindEvent      ResourceKind = "event"
	KindStudyGroup ResourceKind = "study_group"
)

// resourceSpec describes where a registrable resource and its memberships live.
type resourceSpec struct {
	table           string
	capacityField   string
	membershipTable string
	resourceField   string
	joinedField     string
	initialStatus   string
	role            string
}

var resourceSpecs = map[ResourceKind]resourceSpec{
	KindEvent: {
		table:           store.TableEvents,
		capacityField:   "max_attendees",
		membershipTable: store.TableEventRegistrations,
		resourceField:   "event_id",
		joinedField:     "registered_at",
		initialStatus:   models.MembershipConfirmed,
	},
	KindStudyGroup: {
		table:           store.TableStudyGroups,
		capacityField:   "max_members",
		membershipTable: store.TableStudyGroupMembers,
		resourceField:   "group_id",
		joinedField:     "joined_at",
		initialStatus:   models.MembershipMember,
		role:            "member",
	},
}

func specFor(kind ResourceKind) (resourceSpec, error) {
	spec, ok := resourceSpecs[kind]
	if !ok {
		return resourceSpec{}, fmt.Errorf("%w: unknown resource kind %q", status.ErrValidation, kind)
	}
	return spec, nil
}

func membershipFromRow(kind ResourceKind, spec resourceSpec, row store.Row) models.Membership {
	return models.Membership{
		ID:            row.String("id"),
		ResourceKind:  string(kind),
		ResourceID:    row.String(spec.resourceField),
		ParticipantID: row.String("participant_id"),
		Status:        row.String("status"),
		Role:          row.String("role"),
		JoinedAt:      row.Time(spec.joinedField),
	}
}

func eventFromRow(row store.Row) models.Event {
	return models.Event{
		ID:           row.String("id"),
		Title:        row.String("title"),
		Description:  row.String("description"),
		Category:     row.String("category"),
		Streams:      row.Strings("streams"),
		Location:     row.String("location"),
		IsOnline:     row.Bool("is_online"),
		StartsAt:     row.Time("starts_at"),
		MaxAttendees: capacityFromRow(row, "max_attendees").ptr(),
		OrganizerID:  row.String("organizer_id"),
	}
}

func studyGroupFromRow(row store.Row) models.StudyGroup {
	return models.StudyGroup{
		ID:          row.String("id"),
		Name:        row.String("name"),
		Description: row.String("description"),
		Subject:     row.String("subject"),
		Streams:     row.Strings("streams"),
		MaxMembers:  capacityFromRow(row, "max_members").ptr(),
		CreatorID:   row.String("creator_id"),
	}
}
