package contact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cappsac/capps-site/internal/forms"
)

var subjects = []string{"General Inquiry", "Service Request", "Billing Question"}

type recordingIntake struct {
	subs []Submission
	err  error
}

func (r *recordingIntake) SubmitContact(_ context.Context, sub Submission) error {
	if r.err != nil {
		return r.err
	}
	r.subs = append(r.subs, sub)
	return nil
}

func validValues() map[string]string {
	return map[string]string{
		FieldFirstName: "Dana",
		FieldLastName:  "Reyes",
		FieldEmail:     "dana@example.com",
		FieldSubject:   "Billing Question",
		FieldMessage:   "Question about my last invoice.",
	}
}

func TestSubmitForwardsValidMessage(t *testing.T) {
	now := time.Date(2026, 10, 19, 21, 0, 0, 0, time.UTC)
	form := NewForm(subjects, func() time.Time { return now })
	intake := &recordingIntake{}

	sub, err := form.Submit(context.Background(), FromValues(validValues()), intake)
	require.NoError(t, err)
	require.Len(t, intake.subs, 1)
	assert.Equal(t, sub, intake.subs[0])
	assert.Equal(t, now, sub.SubmittedAt)
	assert.Empty(t, sub.Request.Phone)
	assert.NotEmpty(t, sub.ID)
}

func TestValidateMessages(t *testing.T) {
	form := NewForm(subjects, nil)
	req := FromValues(map[string]string{
		FieldFirstName: "D",
		FieldEmail:     "nope",
		FieldSubject:   "Sales",
		FieldMessage:   "  hi  ",
	})

	fe, ok := forms.AsFieldErrors(form.Validate(context.Background(), req))
	require.True(t, ok)
	assert.Equal(t, forms.FieldErrors{
		FieldFirstName: "First name is required",
		FieldLastName:  "Last name is required",
		FieldEmail:     "Please enter a valid email address",
		FieldSubject:   "Please select a subject",
		FieldMessage:   "Please provide a brief message",
	}, fe)
}

func TestPhoneIsOptional(t *testing.T) {
	form := NewForm(subjects, nil)
	values := validValues()
	values[FieldPhone] = "555"
	assert.NoError(t, form.Validate(context.Background(), FromValues(values)))
}

func TestSubmitDoesNotForwardInvalid(t *testing.T) {
	form := NewForm(subjects, nil)
	intake := &recordingIntake{}
	_, err := form.Submit(context.Background(), Request{}, intake)
	_, ok := forms.AsFieldErrors(err)
	assert.True(t, ok)
	assert.Empty(t, intake.subs)
}

func TestSubmitWrapsIntakeFailure(t *testing.T) {
	boom := errors.New("db down")
	_, err := NewForm(subjects, nil).Submit(context.Background(), FromValues(validValues()), &recordingIntake{err: boom})
	assert.ErrorIs(t, err, boom)

	_, err = NewForm(subjects, nil).Submit(context.Background(), FromValues(validValues()), nil)
	assert.ErrorIs(t, err, ErrIntakeRequired)
}

func TestValuesRoundTrip(t *testing.T) {
	req := FromValues(validValues())
	assert.Equal(t, req, FromValues(req.Values()))
	assert.Equal(t, "Dana Reyes", req.FullName())
}
