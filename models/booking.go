package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Terminal reports whether no transition leaves s.
func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

type Booking struct {
	ID              string          `json:"id"`
	Reference       string          `json:"reference"`
	MentorID        string          `json:"mentor_id"`
	ParticipantID   string          `json:"participant_id"`
	StartsAt        time.Time       `json:"starts_at"`
	EndsAt          time.Time       `json:"ends_at"`
	DurationMinutes int             `json:"duration_minutes"`
	SessionType     string          `json:"session_type"` // video, audio, chat
	Status          BookingStatus   `json:"status"`
	HourlyRate      decimal.Decimal `json:"hourly_rate"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
