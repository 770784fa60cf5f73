package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" validate:"required,min=2"`
	Phone string `json:"phone" validate:"required,phone"`
	Email string `json:"email" validate:"required,email"`
	Note  string `json:"note" validate:"max=5"`
}

func TestStructReturnsJSONNamedMessages(t *testing.T) {
	v := New("en")
	fields, err := v.Struct(sample{Name: "D", Phone: "abc", Email: "nope", Note: "too long"})
	require.NoError(t, err)

	assert.Equal(t, "must be at least 2 characters", fields["name"])
	assert.Equal(t, "please enter a valid phone number", fields["phone"])
	assert.Equal(t, "please enter a valid email address", fields["email"])
	assert.Equal(t, "must be at most 5 characters", fields["note"])
}

func TestStructValid(t *testing.T) {
	v := New("he")
	fields, err := v.Struct(sample{Name: "Dana", Phone: "+972 (50) 123-4567", Email: "dana@example.com"})
	require.NoError(t, err)
	assert.Nil(t, fields)
}

func TestPhoneRequiresDigit(t *testing.T) {
	v := New("en")
	fields, err := v.Struct(sample{Name: "Dana", Phone: "(-- --)", Email: "dana@example.com"})
	require.NoError(t, err)
	assert.Contains(t, fields, "phone")
}
