package utils

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidArgument: http.StatusBadRequest,
		CodeNotFound:        http.StatusNotFound,
		CodeConflict:        http.StatusConflict,
		CodeUnavailable:     http.StatusServiceUnavailable,
		CodeTimeout:         http.StatusGatewayTimeout,
		CodeUnprocessable:   http.StatusUnprocessableEntity,
		CodeBadGateway:      http.StatusBadGateway,
		CodeInternal:        http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(E(code, "op", "msg", nil)), code)
	}

	assert.Equal(t, http.StatusNotFound, HTTPStatus(fmt.Errorf("wrap: %w", ErrNotFound)))
}

func TestAppError_Wrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", WithDetails(CodeUnprocessable, "StudentService.Create", "invalid profile", ErrNotFound, []string{"name"}))

	assert.True(t, IsCode(err, CodeUnprocessable))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "handler: StudentService.Create: invalid profile: not found", err.Error())
}
