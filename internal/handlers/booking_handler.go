package handlers

import (
	"context"
	"net/http"

	"mentorhub/internal/auth"
	"mentorhub/internal/services"
	"mentorhub/models"

	"github.com/pocketbase/pocketbase/core"
)

type BookingHandler struct {
	bookings *services.BookingService
}

func NewBookingHandler(bookings *services.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

func (h *BookingHandler) Create(e *core.RequestEvent) error {
	p := participant(e)
	if err := p.Valid(); err != nil {
		return respondError(e, err)
	}

	var req services.BookingRequest
	if err := e.BindBody(&req); err != nil {
		return badRequest(e, "Invalid request body")
	}

	booking, err := h.bookings.CreateBooking(e.Request.Context(), p, req)
	if err != nil {
		return respondError(e, err)
	}
	return respondData(e, http.StatusCreated, booking)
}

func (h *BookingHandler) History(e *core.RequestEvent) error {
	bookings, err := h.bookings.History(e.Request.Context(), participant(e))
	if err != nil {
		return respondError(e, err)
	}
	return respondData(e, http.StatusOK, bookings)
}

func (h *BookingHandler) Cancel(e *core.RequestEvent) error {
	return h.transition(e, h.bookings.CancelBooking)
}

func (h *BookingHandler) Confirm(e *core.RequestEvent) error {
	return h.transition(e, h.bookings.ConfirmBooking)
}

func (h *BookingHandler) Complete(e *core.RequestEvent) error {
	return h.transition(e, h.bookings.CompleteBooking)
}

type transitionFunc func(ctx context.Context, p auth.Participant, bookingID string) (models.Booking, error)

func (h *BookingHandler) transition(e *core.RequestEvent, fn transitionFunc) error {
	booking, err := fn(e.Request.Context(), participant(e), e.Request.PathValue("id"))
	if err != nil {
		return respondError(e, err)
	}
	return respondData(e, http.StatusOK, booking)
}
