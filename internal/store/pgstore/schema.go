package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type eventTable struct {
	bun.BaseModel `bun:"table:events"`
	ID            string    `bun:"id,pk"`
	Title         string    `bun:"title,notnull"`
	Description   string    `bun:"description"`
	Category      string    `bun:"category"`
	Streams       string    `bun:"streams"`
	Location      string    `bun:"location"`
	IsOnline      bool      `bun:"is_online"`
	StartsAt      time.Time `bun:"starts_at"`
	MaxAttendees  *int64    `bun:"max_attendees"`
	OrganizerID   string    `bun:"organizer_id"`
	Created       time.Time `bun:"created"`
	Updated       time.Time `bun:"updated"`
}

type eventRegistrationTable struct {
	bun.BaseModel `bun:"table:event_registrations"`
	ID            string    `bun:"id,pk"`
	EventID       string    `bun:"event_id,notnull"`
	ParticipantID string    `bun:"participant_id,notnull"`
	Status        string    `bun:"status,notnull"`
	RegisteredAt  time.Time `bun:"registered_at"`
	Created       time.Time `bun:"created"`
	Updated       time.Time `bun:"updated"`
}

type studyGroupTable struct {
	bun.BaseModel `bun:"table:study_groups"`
	ID            string    `bun:"id,pk"`
	Name          string    `bun:"name,notnull"`
	Description   string    `bun:"description"`
	Subject       string    `bun:"subject"`
	Streams       string    `bun:"streams"`
	MaxMembers    *int64    `bun:"max_members"`
	CreatorID     string    `bun:"creator_id"`
	Created       time.Time `bun:"created"`
	Updated       time.Time `bun:"updated"`
}

type studyGroupMemberTable struct {
	bun.BaseModel `bun:"table:study_group_members"`
	ID            string    `bun:"id,pk"`
	GroupID       string    `bun:"group_id,notnull"`
	ParticipantID string    `bun:"participant_id,notnull"`
	Status        string    `bun:"status,notnull"`
	Role          string    `bun:"role"`
	JoinedAt      time.Time `bun:"joined_at"`
	Created       time.Time `bun:"created"`
	Updated       time.Time `bun:"updated"`
}

type mentorTable struct {
	bun.BaseModel      `bun:"table:mentors"`
	ID                 string    `bun:"id,pk"`
	UserID             string    `bun:"user_id"`
	Name               string    `bun:"name,notnull"`
	Bio                string    `bun:"bio"`
	Skills             string    `bun:"skills"`
	Specializations    string    `bun:"specializations"`
	Streams            string    `bun:"streams"`
	HourlyRate         float64   `bun:"hourly_rate"`
	Rating             float64   `bun:"rating"`
	AvailabilityStatus string    `bun:"availability_status"`
	ExperienceYears    int       `bun:"experience_years"`
	Created            time.Time `bun:"created"`
	Updated            time.Time `bun:"updated"`
}

type courseTable struct {
	bun.BaseModel `bun:"table:courses"`
	ID            string    `bun:"id,pk"`
	Title         string    `bun:"title,notnull"`
	Description   string    `bun:"description"`
	Category      string    `bun:"category"`
	Streams       string    `bun:"streams"`
	Level         string    `bun:"level"`
	Tags          string    `bun:"tags"`
	DurationWeeks int       `bun:"duration_weeks"`
	Created       time.Time `bun:"created"`
	Updated       time.Time `bun:"updated"`
}

type bookingTable struct {
	bun.BaseModel   `bun:"table:bookings"`
	ID              string    `bun:"id,pk"`
	Reference       string    `bun:"reference,unique"`
	MentorID        string    `bun:"mentor_id,notnull"`
	ParticipantID   string    `bun:"participant_id,notnull"`
	StartsAt        time.Time `bun:"starts_at,notnull"`
	EndsAt          time.Time `bun:"ends_at,notnull"`
	DurationMinutes int       `bun:"duration_minutes"`
	SessionType     string    `bun:"session_type"`
	Status          string    `bun:"status,notnull"`
	HourlyRate      float64   `bun:"hourly_rate"`
	TotalAmount     float64   `bun:"total_amount"`
	Notes           string    `bun:"notes"`
	Created         time.Time `bun:"created"`
	Updated         time.Time `bun:"updated"`
}

var indexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_event_registrations_live
		ON event_registrations (event_id, participant_id) WHERE status <> 'cancelled'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_study_group_members_live
		ON study_group_members (group_id, participant_id) WHERE status <> 'cancelled'`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_mentor_time
		ON bookings (mentor_id, starts_at, ends_at)`,
}

// EnsureSchema creates the tables and indexes the services rely on. Existing
// tables are left untouched.
func (s *Store) EnsureSchema(ctx context.Context) error {
	models := []interface{}{
		(*eventTable)(nil),
		(*eventRegistrationTable)(nil),
		(*studyGroupTable)(nil),
		(*studyGroupMemberTable)(nil),
		(*mentorTable)(nil),
		(*courseTable)(nil),
		(*bookingTable)(nil),
	}
	for _, m := range models {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table %T: %w", m, err)
		}
	}
	for _, ddl := range indexes {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
