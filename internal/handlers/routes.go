package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
)

// Routes holds everything mounted on the PocketBase router. Nil RateLimit and
// Metrics are skipped.
type Routes struct {
	Events      *RegistrationHandler
	StudyGroups *RegistrationHandler
	Bookings    *BookingHandler
	Catalog     *CatalogHandler
	Assistant   *AssistantHandler
	Health      *HealthHandler
	RateLimit   func(e *core.RequestEvent) error
	Metrics     http.Handler
}

func (rt Routes) Register(r *router.Router[*core.RequestEvent]) {
	v1 := r.Group("/api/v1")
	if rt.RateLimit != nil {
		v1.BindFunc(rt.RateLimit)
	}

	// Events
	v1.GET("/events", rt.Catalog.Events)
	v1.GET("/events/{id}/availability", rt.Events.Availability)
	v1.GET("/events/{id}/attendees", rt.Events.Attendees)
	v1.POST("/events/{id}/register", rt.Events.Register)
	v1.DELETE("/events/{id}/register", rt.Events.Unregister)
	v1.POST("/events/{id}/waitlist", rt.Events.JoinWaitlist)
	v1.GET("/events/{id}/waitlist", rt.Events.WaitlistPosition)
	v1.DELETE("/events/{id}/waitlist", rt.Events.LeaveWaitlist)

	// Study groups
	v1.GET("/study-groups", rt.Catalog.StudyGroups)
	v1.GET("/study-groups/{id}/availability", rt.StudyGroups.Availability)
	v1.GET("/study-groups/{id}/members", rt.StudyGroups.Attendees)
	v1.POST("/study-groups/{id}/join", rt.StudyGroups.Register)
	v1.DELETE("/study-groups/{id}/join", rt.StudyGroups.Unregister)
	v1.POST("/study-groups/{id}/waitlist", rt.StudyGroups.JoinWaitlist)
	v1.GET("/study-groups/{id}/waitlist", rt.StudyGroups.WaitlistPosition)
	v1.DELETE("/study-groups/{id}/waitlist", rt.StudyGroups.LeaveWaitlist)

	// Bookings
	v1.POST("/bookings", rt.Bookings.Create)
	v1.GET("/bookings", rt.Bookings.History)
	v1.POST("/bookings/{id}/cancel", rt.Bookings.Cancel)
	v1.POST("/bookings/{id}/confirm", rt.Bookings.Confirm)
	v1.POST("/bookings/{id}/complete", rt.Bookings.Complete)

	// Catalog
	v1.GET("/mentors", rt.Catalog.Mentors)
	v1.GET("/courses", rt.Catalog.Courses)

	// Assistant
	v1.POST("/assistant/chat", rt.Assistant.Chat)
	v1.POST("/assistant/recommendations", rt.Assistant.Recommend)

	r.GET("/health", rt.Health.Health)
	if rt.Metrics != nil {
		r.GET("/metrics", apis.WrapStdHandler(rt.Metrics))
	}
}
