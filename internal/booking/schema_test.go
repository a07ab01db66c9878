package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cappsac/capps-site/internal/forms"
)

func TestValidateEmptyRequestReportsEveryRequiredField(t *testing.T) {
	fe, ok := forms.AsFieldErrors(testSchema(t).Validate(context.Background(), Request{}))
	require.True(t, ok)
	assert.Equal(t, []string{
		FieldAddress, FieldCity, FieldEmail, FieldFirstName, FieldLastName,
		FieldPhone, FieldPreferredDate, FieldPreferredTime, FieldServiceType, FieldUrgency,
	}, fe.Fields())
	assert.False(t, fe.Has(FieldNotes))
}

func TestLengthRulesCountRunes(t *testing.T) {
	schema := testSchema(t)
	ctx := context.Background()

	err := schema.ValidateFields(ctx, Request{FirstName: "Zoë", LastName: "Li"}, FieldFirstName, FieldLastName)
	assert.NoError(t, err)

	fe, ok := forms.AsFieldErrors(schema.ValidateFields(ctx, Request{FirstName: "É", LastName: "Li"}, FieldFirstName, FieldLastName))
	require.True(t, ok)
	assert.Equal(t, forms.FieldErrors{FieldFirstName: "First name is required"}, fe)
}

func TestValidateFieldsIgnoresUnknownNames(t *testing.T) {
	assert.NoError(t, testSchema(t).ValidateFields(context.Background(), Request{}, "zip"))
	assert.NoError(t, testSchema(t).ValidateFields(context.Background(), Request{}))
}

func TestTimeSlotsAreCopied(t *testing.T) {
	schema := testSchema(t)
	slots := schema.TimeSlots()
	slots[0] = "changed"
	assert.Equal(t, testSlots[0], schema.TimeSlots()[0])
}
