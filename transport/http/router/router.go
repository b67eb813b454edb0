package router

import (
	"reservo/internal/handlers/auth"
	"reservo/internal/handlers/booking"
	"reservo/internal/handlers/conversation"
	"reservo/internal/handlers/health"
	"reservo/internal/handlers/table"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Auth         auth.Handler
	Table        table.Handler
	Booking      booking.Handler
	Conversation conversation.Handler
	Health       health.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
}

func (r *Router) SetupRoutes(router chi.Router) {
	r.DomainHandlers.Health.Router(router)

	router.Route("/v1", func(routerGroup chi.Router) {
		r.DomainHandlers.Auth.Router(routerGroup)

		routerGroup.Route("/restaurant-booking", func(bookingGroup chi.Router) {
			r.DomainHandlers.Table.Router(bookingGroup)
			r.DomainHandlers.Booking.Router(bookingGroup)
			r.DomainHandlers.Conversation.Router(bookingGroup)
		})
	})
}

func New(domainHandlers DomainHandlers) Router {
	return Router{
		DomainHandlers: domainHandlers,
	}
}
