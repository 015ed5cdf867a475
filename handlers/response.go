package handlers

import (
	"errors"
	"net/http"

	"membership-system/internal/status"
)

// Machine-readable failure reasons carried in redemption responses.
const (
	ReasonNotFound    = "not_found"
	ReasonExpired     = "expired"
	ReasonExhausted   = "exhausted"
	ReasonCooldown    = "cooldown"
	ReasonUnavailable = "unavailable"
)

// redeemErrorResponse translates an engine outcome into an HTTP status
// and payload. The handler layer never invents new failure reasons.
func redeemErrorResponse(err error) (int, map[string]any) {
	var cooldownErr *status.CooldownError

	switch {
	case errors.Is(err, status.ErrTicketNotFound):
		return http.StatusNotFound, map[string]any{
			"error":   ReasonNotFound,
			"message": "This ticket is not available.",
		}
	case errors.Is(err, status.ErrTicketExpired):
		return http.StatusConflict, map[string]any{
			"error":   ReasonExpired,
			"message": "This ticket has expired and can no longer be redeemed.",
		}
	case errors.Is(err, status.ErrTicketExhausted):
		return http.StatusConflict, map[string]any{
			"error":   ReasonExhausted,
			"message": "This ticket has no uses remaining.",
		}
	case errors.As(err, &cooldownErr):
		return http.StatusTooManyRequests, map[string]any{
			"error":             ReasonCooldown,
			"message":           "This ticket was redeemed recently. Please wait before redeeming again.",
			"remaining_seconds": cooldownErr.RemainingSeconds,
		}
	default:
		return http.StatusServiceUnavailable, map[string]any{
			"error":   ReasonUnavailable,
			"message": "Redemption could not be completed. Please try again.",
		}
	}
}
