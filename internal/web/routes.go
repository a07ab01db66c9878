package web

import "github.com/go-chi/chi/v5"

// RegisterPages mounts the HTML pages and form posts.
func (h *Handler) RegisterPages(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/services", h.Services)
	r.Get("/services/{slug}", h.Services)
	r.Get("/about", h.About)
	r.Get("/reviews", h.Reviews)
	r.Get("/emergency", h.Emergency)

	r.Get("/book", h.BookPage)
	r.Post("/book/next", h.BookNext)
	r.Post("/book/back", h.BookBack)
	r.Post("/book/submit", h.BookSubmit)
	r.Post("/book/restart", h.BookRestart)

	r.Get("/contact", h.ContactPage)
	r.Post("/contact", h.ContactSubmit)
}

// RegisterAPI mounts the JSON API; callers mount it under /api.
func (h *Handler) RegisterAPI(r chi.Router) {
	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", h.CreateBooking)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetBooking)
			r.Patch("/", h.UpdateBooking)
			r.Post("/advance", h.AdvanceBooking)
			r.Post("/retreat", h.RetreatBooking)
			r.Post("/submit", h.SubmitBooking)
		})
	})
	r.Post("/contact", h.SubmitContactAPI)
	r.Route("/content", func(r chi.Router) {
		r.Get("/site", h.SiteInfo)
		r.Get("/services", h.ListServices)
		r.Get("/services/{slug}", h.GetService)
		r.Get("/testimonials", h.ListTestimonials)
		r.Get("/booking-options", h.BookingOptions)
	})
}

// RegisterRoutes mounts the admin endpoints; callers add authentication.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/bookings", h.ListBookings)
	r.Get("/bookings/{id}", h.GetBooking)
	r.Get("/contacts", h.ListContacts)
	r.Post("/throttle/reset", h.ResetThrottle)
}
