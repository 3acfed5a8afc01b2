package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"authorization", Authorization("nope"), http.StatusForbidden},
		{"conflict", Conflict("raced"), http.StatusConflict},
		{"not found", NotFound("gone"), http.StatusNotFound},
		{"external", External("sendgrid", errors.New("503")), http.StatusBadGateway},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestPredicatesSeeWrappedErrors(t *testing.T) {
	err := fmt.Errorf("approving application: %w", Conflict("already approved"))
	assert.True(t, IsConflict(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))
}

func TestExternalUnwraps(t *testing.T) {
	inner := errors.New("connection reset")
	err := External("identity", inner)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "identity")
}
