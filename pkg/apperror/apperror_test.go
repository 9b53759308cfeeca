package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NewNotFound("product", "7"), http.StatusNotFound},
		{"invalid input", NewInvalidInput("price must be positive", nil), http.StatusBadRequest},
		{"unauthorized", NewUnauthorized("bad password", nil), http.StatusUnauthorized},
		{"permission", NewPermissionDenied("admin only"), http.StatusForbidden},
		{"conflict", NewConflict("user", "email", "a@b.c"), http.StatusConflict},
		{"throttled", NewTooManyRequests("login"), http.StatusTooManyRequests},
		{"internal", NewInternal("boom", errors.New("db down")), http.StatusInternalServerError},
		{"plain error", errors.New("whatever"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("save: %w", NewConflict("user", "email", "x")), http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToHTTPStatus(tc.err))
		})
	}
}

func TestToJSON_HidesNonAppErrors(t *testing.T) {
	body := ToJSON(errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal server error", body["error"])
	assert.NotContains(t, body["message"], "password")

	body = ToJSON(NewNotFound("product", "9"))
	assert.Equal(t, "not found", body["error"])
	assert.Equal(t, "product not found", body["message"])
}
