package handlers

import (
	"net/http"

	"mentorhub/internal/services"

	"github.com/pocketbase/pocketbase/core"
)

// RegistrationHandler serves one resource kind, e.g. /events/{id}/register
// or /study-groups/{id}/join.
type RegistrationHandler struct {
	registrations *services.RegistrationService
	kind          services.ResourceKind
}

func NewRegistrationHandler(registrations *services.RegistrationService, kind services.ResourceKind) *RegistrationHandler {
	return &RegistrationHandler{
		registrations: registrations,
		kind:          kind,
	}
}

func (h *RegistrationHandler) Availability(e *core.RequestEvent) error {
	avail, err := h.registrations.CanRegister(e.Request.Context(), participant(e), h.kind, e.Request.PathValue("id"))
	if err != nil {
		return respondError(e, err)
	}
	return respondData(e, http.StatusOK, avail)
}

func (h *RegistrationHandler) Register(e *core.RequestEvent) error {
	membership, err := h.registrations.Register(e.Request.Context(), participant(e), h.kind, e.Request.PathValue("id"))
	if err != nil {
		return respondError(e, err)
	}
	return respondData(e, http.StatusCreated, membership)
}

func (h *RegistrationHandler) Unregister(e *core.RequestEvent) error {
	resourceID := e.Request.PathValue("id")
	removed, err := h.registrations.Unregister(e.Request.Context(), participant(e), h.kind, resourceID)
	if err != nil {
		return respondError(e, err)
	}
	return respondData(e, http.StatusOK, map[string]any{
		"resource_id": resourceID,
		"removed":     removed,
	})
}

func (h *RegistrationHandler) Attendees(e *core.RequestEvent) error {
	if err := participant(e).Valid(); err != nil {
		return respondError(e, err)
	}
	members, err := h.registrations.Attendees(e.Request.Context(), h.kind, e.Request.PathValue("id"))
	if err != nil {
		return respondError(e, err)
	}
	return respondData(e, http.StatusOK, members)
}

func (h *RegistrationHandler) JoinWaitlist(e *core.RequestEvent) error {
	resourceID := e.Request.PathValue("id")
	position, err := h.registrations.JoinWaitlist(e.Request.Context(), participant(e), h.kind, resourceID)
	if err != nil {
		return respondError(e, err)
	}
	return respondData(e, http.StatusCreated, map[string]any{
		"resource_id": resourceID,
		"position":    position,
	})
}

func (h *RegistrationHandler) WaitlistPosition(e *core.RequestEvent) error {
	resourceID := e.Request.PathValue("id")
	position, err := h.registrations.WaitlistPosition(e.Request.Context(), participant(e), h.kind, resourceID)
	if err != nil {
		return respondError(e, err)
	}
	return respondData(e, http.StatusOK, map[string]any{
		"resource_id": resourceID,
		"position":    position,
	})
}

func (h *RegistrationHandler) LeaveWaitlist(e *core.RequestEvent) error {
	resourceID := e.Request.PathValue("id")
	removed, err := h.registrations.LeaveWaitlist(e.Request.Context(), participant(e), h.kind, resourceID)
	if err != nil {
		return respondError(e, err)
	}
	return respondData(e, http.StatusOK, map[string]any{
		"resource_id": resourceID,
		"removed":     removed,
	})
}
