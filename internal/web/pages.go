package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cappsac/capps-site/internal/content"
)

const homeTestimonials = 3

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	if err := h.renderer.Render(w, r, status, name, title, data); err != nil {
		h.logger.Error("failed to render page", "error", err, "page", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// Home handles GET /.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	testimonials := h.catalog.Testimonials
	if len(testimonials) > homeTestimonials {
		testimonials = testimonials[:homeTestimonials]
	}
	h.render(w, r, http.StatusOK, pageHome, "", struct {
		Testimonials []content.Testimonial
	}{testimonials})
}

// Services handles GET /services and GET /services/{slug}. Unknown slugs
// show the first service.
func (h *Handler) Services(w http.ResponseWriter, r *http.Request) {
	svc := h.catalog.ServiceBySlug(chi.URLParam(r, "slug"))
	h.render(w, r, http.StatusOK, pageServices, svc.Title, struct {
		Service content.Service
	}{svc})
}

// About handles GET /about.
func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageAbout, "About", nil)
}

// Reviews handles GET /reviews?service=.
func (h *Handler) Reviews(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("service")
	if filter == "" {
		filter = content.FilterAll
	}
	testimonials := h.catalog.FilterTestimonials(filter)
	h.render(w, r, http.StatusOK, pageReviews, "Reviews", struct {
		Filter       string
		Count        int
		Testimonials []content.Testimonial
	}{filter, len(testimonials), testimonials})
}

// Emergency handles GET /emergency.
func (h *Handler) Emergency(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageEmergency, "Emergency Service", nil)
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, pageNotFound, "Page Not Found", nil)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed", "error", err, "path", r.URL.Path)
	h.render(w, r, http.StatusInternalServerError, pageError, "Error", struct {
		Message string
	}{h.retryMessage()})
}
