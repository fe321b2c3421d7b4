package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("assign modules: %w", NewNotFound("farmer", "f-1"))

	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(err))

	appErr, ok := AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, "f-1", appErr.Details["id"])
}

func TestInvalidTransitionDetails(t *testing.T) {
	err := NewInvalidTransition("cycle", "PLANTED", "BAGGED")

	assert.True(t, IsInvalidTransition(err))
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.Equal(t, "PLANTED", err.Details["from"])
	assert.Contains(t, err.Error(), "cycle cannot move from PLANTED to BAGGED")
}

func TestUnknownErrorMapsToInternalStatus(t *testing.T) {
	err := errors.New("boom")

	assert.False(t, IsAppError(err))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(err))
}

func TestWithCauseUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorage("modules", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "modules", err.Details["collection"])
}
