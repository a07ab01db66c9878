package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadySubmitted is returned for any mutation after submission.
	ErrAlreadySubmitted = errors.New("booking: already submitted")

	// ErrNotOnReviewStep is returned when submit is attempted before step 4.
	ErrNotOnReviewStep = errors.New("booking: submit is only available on the review step")

	// ErrIntakeRequired is returned when submit has nowhere to send the request.
	ErrIntakeRequired = errors.New("booking: intake collaborator required")
)

// UnknownFieldError reports input for a field the booking form does not have.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("booking: unknown field %q", e.Field)
}
