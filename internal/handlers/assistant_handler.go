package handlers

import (
	"net/http"

	"mentorhub/internal/services"
	"mentorhub/models"

	"github.com/pocketbase/pocketbase/core"
)

type AssistantHandler struct {
	assistant *services.AssistantService
}

func NewAssistantHandler(assistant *services.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

func (h *AssistantHandler) Chat(e *core.RequestEvent) error {
	p := participant(e)
	if err := p.Valid(); err != nil {
		return respondError(e, err)
	}

	var req struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	if err := e.BindBody(&req); err != nil {
		return badRequest(e, "Invalid request body")
	}

	reply, err := h.assistant.Chat(e.Request.Context(), p, req.Messages)
	if err != nil {
		return respondError(e, err)
	}
	return respondData(e, http.StatusOK, reply)
}

func (h *AssistantHandler) Recommend(e *core.RequestEvent) error {
	p := participant(e)
	if err := p.Valid(); err != nil {
		return respondError(e, err)
	}

	var profile models.StudentProfile
	if err := e.BindBody(&profile); err != nil {
		return badRequest(e, "Invalid request body")
	}

	recs, err := h.assistant.Recommend(e.Request.Context(), p, profile)
	if err != nil {
		return respondError(e, err)
	}
	return respondData(e, http.StatusOK, recs)
}
