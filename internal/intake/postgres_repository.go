package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cappsac/capps-site/internal/booking"
	"github.com/cappsac/capps-site/internal/contact"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores submissions in booking_submissions and
// contact_submissions.
type PostgresRepository struct {
	db querier
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("intake: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const bookingColumns = `id, service_type, urgency, first_name, last_name, email, phone,
	address, city, preferred_date::text, preferred_time, notes, submitted_at`

func (r *PostgresRepository) SaveBooking(ctx context.Context, sub booking.Submission) error {
	q := sub.Request
	query := `
		INSERT INTO booking_submissions (id, service_type, urgency, first_name, last_name, email, phone,
			address, city, preferred_date, preferred_time, notes, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::date, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query,
		sub.ID, q.ServiceType, string(q.Urgency), q.FirstName, q.LastName, q.Email, q.Phone,
		q.Address, q.City, q.PreferredDate, q.PreferredTime, q.Notes, sub.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("intake: insert booking: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SaveContact(ctx context.Context, sub contact.Submission) error {
	q := sub.Request
	query := `
		INSERT INTO contact_submissions (id, first_name, last_name, email, phone, subject, message, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query,
		sub.ID, q.FirstName, q.LastName, q.Email, q.Phone, q.Subject, q.Message, sub.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("intake: insert contact: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetBooking(ctx context.Context, id string) (booking.Submission, error) {
	query := `SELECT ` + bookingColumns + ` FROM booking_submissions WHERE id = $1`
	sub, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.Submission{}, ErrNotFound
		}
		return booking.Submission{}, fmt.Errorf("intake: get booking: %w", err)
	}
	return sub, nil
}

func (r *PostgresRepository) ListBookings(ctx context.Context, opts ListOptions) ([]booking.Submission, error) {
	opts = opts.normalize()
	query := `SELECT ` + bookingColumns + `
		FROM booking_submissions
		ORDER BY submitted_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("intake: list bookings: %w", err)
	}
	defer rows.Close()

	out := []booking.Submission{}
	for rows.Next() {
		sub, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("intake: scan booking: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) ListContacts(ctx context.Context, opts ListOptions) ([]contact.Submission, error) {
	opts = opts.normalize()
	query := `
		SELECT id, first_name, last_name, email, phone, subject, message, submitted_at
		FROM contact_submissions
		ORDER BY submitted_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("intake: list contacts: %w", err)
	}
	defer rows.Close()

	out := []contact.Submission{}
	for rows.Next() {
		var sub contact.Submission
		q := &sub.Request
		if err := rows.Scan(&sub.ID, &q.FirstName, &q.LastName, &q.Email, &q.Phone, &q.Subject, &q.Message, &sub.SubmittedAt); err != nil {
			return nil, fmt.Errorf("intake: scan contact: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (booking.Submission, error) {
	var sub booking.Submission
	var urgency string
	q := &sub.Request
	err := row.Scan(&sub.ID, &q.ServiceType, &urgency, &q.FirstName, &q.LastName, &q.Email, &q.Phone,
		&q.Address, &q.City, &q.PreferredDate, &q.PreferredTime, &q.Notes, &sub.SubmittedAt)
	if err != nil {
		return booking.Submission{}, err
	}
	q.Urgency = booking.Urgency(urgency)
	return sub, nil
}
