package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"membership-system/internal/status"
)

func TestRedeemErrorResponse(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedReason string
	}{
		{
			name:           "not found",
			err:            status.ErrTicketNotFound,
			expectedStatus: http.StatusNotFound,
			expectedReason: ReasonNotFound,
		},
		{
			name:           "expired",
			err:            status.ErrTicketExpired,
			expectedStatus: http.StatusConflict,
			expectedReason: ReasonExpired,
		},
		{
			name:           "exhausted",
			err:            status.ErrTicketExhausted,
			expectedStatus: http.StatusConflict,
			expectedReason: ReasonExhausted,
		},
		{
			name:           "cooldown",
			err:            &status.CooldownError{RemainingSeconds: 180},
			expectedStatus: http.StatusTooManyRequests,
			expectedReason: ReasonCooldown,
		},
		{
			name:           "storage fault",
			err:            errors.New("database is locked"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedReason: ReasonUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statusCode, payload := redeemErrorResponse(tt.err)

			assert.Equal(t, tt.expectedStatus, statusCode)
			assert.Equal(t, tt.expectedReason, payload["error"])
			assert.NotEmpty(t, payload["message"])
		})
	}
}

func TestRedeemErrorResponseCooldownCarriesSeconds(t *testing.T) {
	_, payload := redeemErrorResponse(&status.CooldownError{RemainingSeconds: 240})

	assert.Equal(t, int64(240), payload["remaining_seconds"])
}
