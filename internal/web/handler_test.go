package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/cappsac/capps-site/internal/booking"
	"github.com/cappsac/capps-site/internal/contact"
	"github.com/cappsac/capps-site/internal/content"
	"github.com/cappsac/capps-site/internal/session"
)

type fakeIntake struct {
	mu       sync.Mutex
	bookings []booking.Submission
	contacts []contact.Submission
	err      error
}

func (f *fakeIntake) SubmitBooking(_ context.Context, sub booking.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.bookings = append(f.bookings, sub)
	return nil
}

func (f *fakeIntake) SubmitContact(_ context.Context, sub contact.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.contacts = append(f.contacts, sub)
	return nil
}

type testSite struct {
	handler *Handler
	intake  *fakeIntake
	router  http.Handler
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	catalog := content.MustDefault()
	loc, err := time.LoadLocation("America/Denver")
	require.NoError(t, err)
	now := time.Date(2026, 10, 19, 15, 0, 0, 0, loc)
	clock := func() time.Time { return now }

	schema := booking.NewSchema(booking.SchemaConfig{TimeSlots: catalog.TimeSlots, Location: loc, Now: clock})
	fi := &fakeIntake{}
	h, err := NewHandler(Config{
		Catalog:  catalog,
		Schema:   schema,
		Sessions: session.NewManager(session.NewMemoryStore(time.Hour), schema, nil),
		Contact:  contact.NewForm(catalog.ContactSubjects, clock),
		Intake:   fi,
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	h.RegisterPages(r)
	r.Route("/api", h.RegisterAPI)
	r.NotFound(h.NotFound)
	return &testSite{handler: h, intake: fi, router: r}
}

func (s *testSite) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testSite) get(t *testing.T, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return s.do(t, req)
}

func (s *testSite) postForm(t *testing.T, path string, cookie *http.Cookie, values map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{}
	for k, v := range values {
		form.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return s.do(t, req)
}

func (s *testSite) sendJSON(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return s.do(t, req)
}

func sessionCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie set", SessionCookie)
	return nil
}

var (
	serviceStep = map[string]string{booking.FieldServiceType: "Heating Repair", booking.FieldUrgency: "urgent"}
	contactStep = map[string]string{
		booking.FieldFirstName: "Dana",
		booking.FieldLastName:  "Reyes",
		booking.FieldEmail:     "dana@example.com",
		booking.FieldPhone:     "5551234567",
		booking.FieldAddress:   "12 Aspen Way",
		booking.FieldCity:      "Eden",
	}
	scheduleStep = map[string]string{
		booking.FieldPreferredDate: "2026-10-21",
		booking.FieldPreferredTime: "10:00 AM – 12:00 PM",
		booking.FieldNotes:         "Furnace clicks",
	}
)

func itoa(n int) string {
	return strconv.Itoa(n)
}
