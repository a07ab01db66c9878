package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cappsac/capps-site/internal/booking"
	"github.com/cappsac/capps-site/internal/contact"
)

var bookingCols = []string{"id", "service_type", "urgency", "first_name", "last_name", "email", "phone",
	"address", "city", "preferred_date", "preferred_time", "notes", "submitted_at"}

func TestPostgresRepositorySaveBooking(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := newPostgresRepositoryWithQuerier(mock)

	sub := sampleBooking("b-1", time.Date(2026, 10, 19, 18, 0, 0, 0, time.UTC))
	q := sub.Request
	mock.ExpectExec("INSERT INTO booking_submissions").
		WithArgs(sub.ID, q.ServiceType, "urgent", q.FirstName, q.LastName, q.Email, q.Phone,
			q.Address, q.City, q.PreferredDate, q.PreferredTime, q.Notes, sub.SubmittedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.SaveBooking(context.Background(), sub))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositorySaveBookingError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := newPostgresRepositoryWithQuerier(mock)

	boom := errors.New("connection refused")
	mock.ExpectExec("INSERT INTO booking_submissions").WillReturnError(boom)
	err = repo.SaveBooking(context.Background(), sampleBooking("b-1", time.Now()))
	assert.ErrorIs(t, err, boom)
}

func TestPostgresRepositoryGetBooking(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := newPostgresRepositoryWithQuerier(mock)

	at := time.Date(2026, 10, 19, 18, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(bookingCols).AddRow("b-1", "Heating Repair", "urgent", "Dana", "Reyes",
		"dana@example.com", "5551234567", "12 Aspen Way", "Eden", "2026-10-21", "10:00 AM – 12:00 PM", "", at)
	mock.ExpectQuery("SELECT id, service_type").WithArgs("b-1").WillReturnRows(rows)

	got, err := repo.GetBooking(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, sampleBooking("b-1", at), got)

	mock.ExpectQuery("SELECT id, service_type").WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetBooking(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryListBookings(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := newPostgresRepositoryWithQuerier(mock)

	at := time.Date(2026, 10, 19, 18, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(bookingCols).
		AddRow("b-2", "AC Repair", "soon", "Sam", "Ortiz", "sam@example.com", "5550000000", "1 Main St", "Eden", "2026-10-22", "8:00 AM – 10:00 AM", "", at.Add(time.Hour)).
		AddRow("b-1", "Heating Repair", "urgent", "Dana", "Reyes", "dana@example.com", "5551234567", "12 Aspen Way", "Eden", "2026-10-21", "10:00 AM – 12:00 PM", "", at)
	mock.ExpectQuery("FROM booking_submissions").WithArgs(DefaultListLimit, 0).WillReturnRows(rows)

	got, err := repo.ListBookings(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b-2", got[0].ID)
	assert.Equal(t, booking.UrgencySoon, got[0].Request.Urgency)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryContacts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := newPostgresRepositoryWithQuerier(mock)

	at := time.Date(2026, 10, 19, 18, 0, 0, 0, time.UTC)
	sub := contact.Submission{
		ID: "c-1",
		Request: contact.Request{FirstName: "Sam", LastName: "Ortiz", Email: "sam@example.com",
			Subject: "Feedback", Message: "Great service last week."},
		SubmittedAt: at,
	}
	mock.ExpectExec("INSERT INTO contact_submissions").
		WithArgs("c-1", "Sam", "Ortiz", "sam@example.com", "", "Feedback", "Great service last week.", at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, repo.SaveContact(context.Background(), sub))

	rows := pgxmock.NewRows([]string{"id", "first_name", "last_name", "email", "phone", "subject", "message", "submitted_at"}).
		AddRow("c-1", "Sam", "Ortiz", "sam@example.com", "", "Feedback", "Great service last week.", at)
	mock.ExpectQuery("FROM contact_submissions").WithArgs(10, 20).WillReturnRows(rows)

	got, err := repo.ListContacts(context.Background(), ListOptions{Limit: 10, Offset: 20})
	require.NoError(t, err)
	assert.Equal(t, []contact.Submission{sub}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
