package content

import "errors"

var (
	// ErrUnknownIcon is returned when a service names an icon outside the known set.
	ErrUnknownIcon = errors.New("content: unknown icon")

	// ErrInvalidCatalog wraps load-time consistency failures.
	ErrInvalidCatalog = errors.New("content: invalid catalog")

	// ErrServiceNotFound is returned by strict slug lookups.
	ErrServiceNotFound = errors.New("content: service not found")
)
