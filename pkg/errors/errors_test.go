package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknown(t *testing.T) {
	err := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.EqualError(t, err, "internal server error: boom")
}

func TestClonedSentinelMatches(t *testing.T) {
	err := Clone(ErrNotFound, "course not found")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestWithFieldsDoesNotMutateSentinel(t *testing.T) {
	err := WithFields(ErrValidation, map[string]string{"phone": "invalid"})
	assert.Equal(t, "invalid", err.Fields["phone"])
	assert.Nil(t, ErrValidation.Fields)
}
