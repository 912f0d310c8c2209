package handlers

import (
	"net/http"
	"strconv"

	"mentorhub/internal/services"

	"github.com/pocketbase/pocketbase/core"
)

type CatalogHandler struct {
	catalog *services.CatalogService
}

func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// GET /mentors?q=&specialization=&rate=&min_rating=&availability=&stream=
func (h *CatalogHandler) Mentors(e *core.RequestEvent) error {
	query := e.Request.URL.Query()
	minRating, err := services.ParseMinRating(query.Get("min_rating"))
	if err != nil {
		return respondError(e, err)
	}

	mentors, err := h.catalog.Mentors(e.Request.Context(), services.MentorQuery{
		Text:           query.Get("q"),
		Specialization: query.Get("specialization"),
		RateBucket:     query.Get("rate"),
		MinRating:      minRating,
		Availability:   query.Get("availability"),
		Stream:         query.Get("stream"),
	})
	if err != nil {
		return respondError(e, err)
	}
	return respondData(e, http.StatusOK, mentors)
}

// GET /courses?q=&category=&stream=&level=
func (h *CatalogHandler) Courses(e *core.RequestEvent) error {
	query := e.Request.URL.Query()
	courses, err := h.catalog.Courses(e.Request.Context(), services.CourseQuery{
		Text:     query.Get("q"),
		Category: query.Get("category"),
		Stream:   query.Get("stream"),
		Level:    query.Get("level"),
	})
	if err != nil {
		return respondError(e, err)
	}
	return respondData(e, http.StatusOK, courses)
}

// GET /events?q=&category=&stream=&online=
func (h *CatalogHandler) Events(e *core.RequestEvent) error {
	query := e.Request.URL.Query()
	q := services.EventQuery{
		Text:     query.Get("q"),
		Category: query.Get("category"),
		Stream:   query.Get("stream"),
	}
	if raw := query.Get("online"); raw != "" {
		online, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(e, "online must be true or false")
		}
		q.Online = &online
	}

	events, err := h.catalog.Events(e.Request.Context(), q)
	if err != nil {
		return respondError(e, err)
	}
	return respondData(e, http.StatusOK, events)
}

// GET /study-groups?q=&subject=&stream=
func (h *CatalogHandler) StudyGroups(e *core.RequestEvent) error {
	query := e.Request.URL.Query()
	groups, err := h.catalog.StudyGroups(e.Request.Context(), services.StudyGroupQuery{
		Text:    query.Get("q"),
		Subject: query.Get("subject"),
		Stream:  query.Get("stream"),
	})
	if err != nil {
		return respondError(e, err)
	}
	return respondData(e, http.StatusOK, groups)
}
