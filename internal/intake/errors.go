// Package intake records finalized bookings and contact messages and hands
// them to the office: a durable record first, then a queue event that a
// worker turns into an email and an archive copy.
package intake

import "errors"

var (
	// ErrThrottled is returned when one visitor submits too often.
	ErrThrottled = errors.New("intake: too many submissions, try again later")

	// ErrNotFound is returned for unknown submission ids.
	ErrNotFound = errors.New("intake: submission not found")
)
