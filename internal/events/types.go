package events

import (
	"github.com/cappsac/capps-site/internal/booking"
	"github.com/cappsac/capps-site/internal/contact"
)

const (
	TypeBookingSubmittedV1 = "booking.submitted.v1"
	TypeContactSubmittedV1 = "contact.submitted.v1"
)

// BookingSubmittedV1 is published once a booking request is stored.
type BookingSubmittedV1 struct {
	Submission booking.Submission `json:"submission"`
}

func (BookingSubmittedV1) EventType() string { return TypeBookingSubmittedV1 }

// ContactSubmittedV1 is published once a contact message is stored.
type ContactSubmittedV1 struct {
	Submission contact.Submission `json:"submission"`
}

func (ContactSubmittedV1) EventType() string { return TypeContactSubmittedV1 }
