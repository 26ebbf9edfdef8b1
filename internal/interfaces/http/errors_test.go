package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/learn-progress/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"backend client error", &domain.APIError{StatusCode: http.StatusNotFound}, http.StatusNotFound},
		{"wrapped backend error", fmt.Errorf("replay: %w", &domain.APIError{StatusCode: http.StatusServiceUnavailable}), http.StatusServiceUnavailable},
		{"backend odd status", &domain.APIError{StatusCode: http.StatusFound}, http.StatusBadGateway},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed},
		{"invalid delta", fmt.Errorf("%w: negative", domain.ErrInvalidDelta), http.StatusBadRequest},
		{"no lesson", domain.ErrNoLessonBound, http.StatusBadRequest},
		{"expired session", domain.ErrSessionExpired, http.StatusUnauthorized},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestRESTErrors(t *testing.T) {
	std := NewRESTStandardError(http.StatusBadGateway, "upstream down").SetTraceID("trace-1")
	assert.Equal(t, "Bad Gateway", std.Title)
	assert.Equal(t, "trace-1", std.TraceID)
	assert.Equal(t, "upstream down", std.Error())

	verr := NewRESTValidationError(http.StatusBadRequest, "invalid", nil).SetTraceID("trace-2")
	assert.Equal(t, "trace-2", verr.TraceID)
	assert.Equal(t, http.StatusBadRequest, verr.Code)
}
