package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound("order", nil).StatusCode())
	assert.Equal(t, http.StatusBadRequest, Validation("bad input").StatusCode())
	assert.Equal(t, http.StatusForbidden, AccessDenied("").StatusCode())
	assert.Equal(t, http.StatusConflict, Conflict("taken", nil).StatusCode())
	assert.Equal(t, http.StatusServiceUnavailable, Unavailable(nil).StatusCode())
	assert.Equal(t, http.StatusInternalServerError, Internal(nil).StatusCode())
}

func TestAccessDeniedDefaultMessage(t *testing.T) {
	assert.Equal(t, "access denied", AccessDenied("").Message)
	assert.Equal(t, "you cannot delete yourself", AccessDenied("you cannot delete yourself").Message)
}

func TestAsUnwrapsChain(t *testing.T) {
	cause := errors.New("row missing")
	wrapped := fmt.Errorf("loading order: %w", NotFound("order", cause))

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrNotFound, appErr.Code)
	assert.True(t, errors.Is(wrapped, cause))

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestIsCode(t *testing.T) {
	err := Conflict("message already has a reply", nil)
	assert.True(t, IsCode(err, ErrConflict))
	assert.False(t, IsCode(err, ErrNotFound))
	assert.False(t, IsCode(nil, ErrConflict))
}
