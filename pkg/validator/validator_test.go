package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingForm struct {
	RequesterName  string `validate:"required"`
	RequesterEmail string `validate:"required,email"`
	Participants   int    `validate:"gte=1,lte=50"`
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate_ValidStruct(t *testing.T) {
	form := bookingForm{RequesterName: "Maria Santos", RequesterEmail: "maria@example.com", Participants: 2}
	assert.NoError(t, Validate(form))
}

func TestValidate_MissingRequiredField(t *testing.T) {
	form := bookingForm{RequesterEmail: "maria@example.com", Participants: 2}
	fields := fieldsOf(t, Validate(form))
	assert.Equal(t, "is required", fields["RequesterName"])
}

func TestValidate_BadEmail(t *testing.T) {
	form := bookingForm{RequesterName: "Maria Santos", RequesterEmail: "not-an-email", Participants: 2}
	fields := fieldsOf(t, Validate(form))
	assert.Equal(t, "must be a valid email address", fields["RequesterEmail"])
}

func TestValidate_RangeBounds(t *testing.T) {
	form := bookingForm{RequesterName: "Maria Santos", RequesterEmail: "maria@example.com", Participants: 99}
	fields := fieldsOf(t, Validate(form))
	assert.Contains(t, fields["Participants"], "50")
}

func TestValidate_ReportsEveryFailingField(t *testing.T) {
	fields := fieldsOf(t, Validate(bookingForm{}))
	assert.Contains(t, fields, "RequesterName")
	assert.Contains(t, fields, "RequesterEmail")
	assert.Contains(t, fields, "Participants")
}

func TestValidationError_Message(t *testing.T) {
	err := Validate(bookingForm{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'RequesterName'")
	assert.Contains(t, err.Error(), "is required")
}

func TestValidate_LengthTags(t *testing.T) {
	type cityForm struct {
		Name    string `validate:"min=2"`
		Country string `validate:"len=2"`
		Summary string `validate:"max=10"`
	}
	fields := fieldsOf(t, Validate(cityForm{Name: "x", Country: "PRT", Summary: "far too long a summary"}))
	assert.Contains(t, fields["Name"], "at least 2")
	assert.Contains(t, fields["Country"], "exactly 2")
	assert.Contains(t, fields["Summary"], "at most 10")
}

func TestValidate_UUIDTag(t *testing.T) {
	type ref struct {
		ExperienceID string `validate:"uuid"`
	}
	fields := fieldsOf(t, Validate(ref{ExperienceID: "exp-001"}))
	assert.Equal(t, "must be a valid UUID", fields["ExperienceID"])

	assert.NoError(t, Validate(ref{ExperienceID: "550e8400-e29b-41d4-a716-446655440000"}))
}

func TestValidate_OneOfTag(t *testing.T) {
	type moderation struct {
		Status string `validate:"oneof=approved rejected"`
	}
	fields := fieldsOf(t, Validate(moderation{Status: "archived"}))
	assert.Contains(t, fields["Status"], "one of")
	assert.Contains(t, fields["Status"], "approved rejected")
}

func TestValidate_UnknownTagFallsBack(t *testing.T) {
	type site struct {
		Endpoint string `validate:"url"`
		Payload  string `validate:"json"`
	}
	fields := fieldsOf(t, Validate(site{Endpoint: "::nope", Payload: "{broken"}))
	assert.Equal(t, "must be a valid URL", fields["Endpoint"])
	assert.Contains(t, fields["Payload"], "failed on 'json' validation")
}
